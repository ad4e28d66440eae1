package handlers

import (
	"net/http"

	apperrors "github.com/bioopenmcp/biomcp/internal/errors"
)

// HTTPErrorResponder writes an error to the response. The indirection
// lets the server install a responder that adds request-scoped fields.
type HTTPErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

func defaultHTTPErrorResponder(w http.ResponseWriter, r *http.Request, err error) {
	body, status := apperrors.Envelope(err)
	writeJSON(w, body, status)
}

var httpErrorResponder HTTPErrorResponder = defaultHTTPErrorResponder

// SetHTTPErrorResponder overrides the error responder; nil restores the
// default.
func SetHTTPErrorResponder(responder HTTPErrorResponder) {
	if responder == nil {
		httpErrorResponder = defaultHTTPErrorResponder
		return
	}
	httpErrorResponder = responder
}

// ResetHTTPErrorResponder restores the default responder.
func ResetHTTPErrorResponder() {
	httpErrorResponder = defaultHTTPErrorResponder
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	httpErrorResponder(w, r, err)
}
