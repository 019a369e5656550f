package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"prooftree/internal/config"
	"prooftree/internal/domain"
)

// ParseJSON decodes a single JSON value from the request body into dest.
// The body is limited to config.MaxRequestBodyBytes. Decode failures wrap
// domain.ErrValidation.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrValidation, tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
	}

	if decoder.More() {
		return fmt.Errorf("%w: request body must contain a single JSON value", domain.ErrValidation)
	}

	return nil
}

// QueryBool reads a boolean query parameter. Missing means def; values
// strconv.ParseBool rejects are a validation error.
func QueryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: query parameter %s must be a boolean", domain.ErrValidation, name)
	}
	return v, nil
}
