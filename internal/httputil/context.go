package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const subjectKey contextKey = "subject"

// WithSubject stores the authenticated token subject on the request.
func WithSubject(r *http.Request, subject string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), subjectKey, subject))
}

// Subject returns the token subject, or "anonymous" when auth is disabled.
func Subject(r *http.Request) string {
	if s, ok := r.Context().Value(subjectKey).(string); ok && s != "" {
		return s
	}
	return "anonymous"
}
