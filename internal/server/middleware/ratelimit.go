package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	apperrors "github.com/bioopenmcp/biomcp/internal/errors"
)

// RateLimit bounds request throughput across all clients with a token
// bucket. Requests over the budget get a 429 envelope immediately
// rather than queueing; tool launches are not cheap to buffer.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				body := ErrorResponse{Error: apperrors.HTTPErrorBody{
					Code:      apperrors.CodeRateLimited,
					Message:   "request rate limit exceeded",
					RequestID: GetRequestID(r.Context()),
				}}
				writeErrorResponse(w, body, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
