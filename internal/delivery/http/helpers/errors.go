package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"campusevents/internal/domain"
)

// WriteServiceError maps a service error to its HTTP status and writes the
// error envelope. Unclassified errors are logged and answered with a generic 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, status, code, "internal server error")
		return
	}
	WriteJSONError(w, status, code, message(err))
}

// StatusFor returns the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrAccountDisabled):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, ErrCodeConflict
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// message prefers the rule's reason over the wrapped chain.
func message(err error) string {
	var rule *domain.RuleError
	if errors.As(err, &rule) {
		return rule.Error()
	}
	for _, sentinel := range []error{
		domain.ErrNotFound, domain.ErrForbidden, domain.ErrInvalidInput, domain.ErrConflict,
		domain.ErrDuplicateEmail, domain.ErrInvalidCredentials, domain.ErrAccountDisabled,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
