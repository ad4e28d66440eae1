// Package middleware provides the HTTP middleware chain: request id
// propagation, panic recovery, and rate limiting. Every failure path
// emits the shared error envelope.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/bioopenmcp/biomcp/internal/errors"
)

// ErrorResponse is the JSON body written by error middleware.
type ErrorResponse = apperrors.HTTPErrorResponse

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID attaches a request id to the context and response headers.
// An inbound X-Request-ID is honored; otherwise one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request id stored by RequestID, if any.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Recovery converts panics into 500 responses with the error envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				body := ErrorResponse{Error: apperrors.HTTPErrorBody{
					Code:      apperrors.CodeInternal,
					Message:   fmt.Sprintf("panic: %v", rec),
					RequestID: GetRequestID(r.Context()),
				}}
				writeErrorResponse(w, body, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ErrorHandler is Recovery under the name the server wiring uses.
func ErrorHandler(next http.Handler) http.Handler {
	return Recovery(next)
}

// Logging emits one structured line per request.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", GetRequestID(r.Context())))
		})
	}
}

func writeErrorResponse(w http.ResponseWriter, body ErrorResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
