package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/infra/logging"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

type apiError struct {
	status  int
	code    string
	message string
}

// classify maps domain sentinels to HTTP status and a stable error code.
// Persistence details never reach the client.
func classify(err error) apiError {
	switch {
	// wraps ErrQuestionSetNotFound, so it must be matched first
	case errors.Is(err, domain.ErrMisconfiguredData):
		return apiError{http.StatusNotFound, "question_set_not_found", "the question set linked to this code no longer exists"}
	case errors.Is(err, domain.ErrCodeNotFound):
		return apiError{http.StatusNotFound, "code_not_found", "redeem code not found"}
	case errors.Is(err, domain.ErrQuestionSetNotFound):
		return apiError{http.StatusNotFound, "question_set_not_found", "question set not found"}
	case errors.Is(err, domain.ErrPurchaseNotFound):
		return apiError{http.StatusNotFound, "purchase_not_found", "purchase not found"}
	case errors.Is(err, domain.ErrNotFound):
		return apiError{http.StatusNotFound, "not_found", "resource not found"}

	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return apiError{http.StatusBadRequest, "code_already_used", "redeem code has already been used"}
	case errors.Is(err, domain.ErrCodeExpired):
		return apiError{http.StatusBadRequest, "code_expired", "redeem code has expired"}
	case errors.Is(err, domain.ErrMisconfiguredCode):
		return apiError{http.StatusBadRequest, "misconfigured_code", "redeem code is not linked to a question set"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return apiError{http.StatusBadRequest, "invalid_transition", "purchase status does not allow this operation"}
	case errors.Is(err, domain.ErrFreeQuestionSet):
		return apiError{http.StatusBadRequest, "free_question_set", "question set is free and cannot be purchased"}
	case errors.Is(err, domain.ErrInvalidArgument):
		return apiError{http.StatusBadRequest, "invalid_argument", "invalid argument"}

	case errors.Is(err, domain.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, "invalid_credentials", "invalid credentials"}
	case errors.Is(err, domain.ErrUnauthorized):
		return apiError{http.StatusForbidden, "forbidden", "not allowed"}
	case errors.Is(err, domain.ErrAccessDenied):
		return apiError{http.StatusForbidden, "access_denied", "no valid entitlement for this question set"}
	case errors.Is(err, domain.ErrAlreadyExists):
		return apiError{http.StatusConflict, "conflict", "resource already exists"}

	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		return apiError{http.StatusServiceUnavailable, "code_space_exhausted", "could not generate unique codes, retry later"}
	case errors.Is(err, domain.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return apiError{http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable, retry later"}
	default:
		return apiError{http.StatusInternalServerError, "internal", "internal error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeFail(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorBody{Error: msg, Code: code})
}

// writeError logs server-side failures with the request context and answers
// with the classified status.
func writeError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	e := classify(err)
	if e.status >= http.StatusInternalServerError {
		logging.With(r.Context(), logger).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeFail(w, e.status, e.code, e.message)
}

func writeValidation(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, ErrorBody{
		Error:  "validation failed",
		Code:   "validation_failed",
		Fields: fieldErrors(err),
	})
}
