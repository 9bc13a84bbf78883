package identity

import (
	"errors"

	"github.com/agrohub/agrohub/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "auth",
		Name:      "operations_total",
		Help:      "Registration and login attempts by outcome",
	},
	[]string{"operation", "outcome"},
)

// recordAuthOperation counts a register or login attempt.
func recordAuthOperation(operation string, err error) {
	authOperations.WithLabelValues(operation, authOutcome(err)).Inc()
}

func authOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailExists):
		return "duplicate_email"
	case errors.Is(err, ErrMissingField),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrRoleNotAllowed),
		errors.Is(err, ErrPasswordTooLong):
		return "invalid_input"
	default:
		return "error"
	}
}
