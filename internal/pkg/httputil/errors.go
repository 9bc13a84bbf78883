package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/agrohub/agrohub/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

type errorDetailsKey struct{}

// ErrorDetailsMiddleware controls whether internal error text is returned
// to clients. Enable it only in development.
func ErrorDetailsMiddleware(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), errorDetailsKey{}, enabled)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func errorDetailsEnabled(ctx context.Context) bool {
	enabled, _ := ctx.Value(errorDetailsKey{}).(bool)
	return enabled
}

// HandleError maps a domain error to an HTTP response using provided mappings.
// If no mapping matches, logs the error and returns 500 Internal Server Error.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			Error(w, m.Status, msg)
			return
		}
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)

	body := Envelope{
		"success": false,
		"message": "Internal Server Error",
	}
	if errorDetailsEnabled(ctx) {
		body["error"] = err.Error()
	}
	JSON(w, http.StatusInternalServerError, body)
}
