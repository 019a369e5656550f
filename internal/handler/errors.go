package handler

import (
	"context"
	"errors"
	"net/http"

	"prooftree/internal/domain"
	"prooftree/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var outputErr *domain.ModelOutputError

	switch {
	case errors.As(err, &outputErr):
		httputil.RespondErrorWithExtras(w, outputErr.StatusCode(), outputErr.Error(), map[string]any{
			"raw_response": outputErr.Raw,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		// Which key is missing stays in the server log
		httputil.RespondError(w, http.StatusInternalServerError, domain.ErrConfiguration.Error())
	case errors.Is(err, domain.ErrUpstream):
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httputil.RespondError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
