package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/interview-coach/internal/evaluation"
	"github.com/jonathan/interview-coach/internal/plans"
	"github.com/jonathan/interview-coach/internal/session"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// httpStatus maps an error to its status code and a stable machine code.
func httpStatus(err error) (int, string) {
	var (
		validation   *ErrValidation
		fieldErrs    validator.ValidationErrors
		notFound     *session.NotFoundError
		duplicate    *session.DuplicateSessionError
		pending      *session.PendingTurnExistsError
		noPending    *session.NoPendingTurnError
		terminal     *session.SessionTerminalError
		already      *session.AlreadyTerminalError
		invalidState *session.InvalidStatusError
		incomplete   *plans.IncompletePlanError
	)

	switch {
	case errors.As(err, &validation), errors.As(err, &fieldErrs):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, evaluation.ErrNoAnswers):
		return http.StatusBadRequest, "no_answers"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, plans.ErrPlanNotFound):
		return http.StatusNotFound, "plan_not_found"
	case errors.As(err, &incomplete):
		return http.StatusUnprocessableEntity, "incomplete_plan"
	case errors.As(err, &duplicate):
		return http.StatusConflict, "duplicate_session"
	case errors.As(err, &pending):
		return http.StatusConflict, "pending_turn_exists"
	case errors.As(err, &noPending):
		return http.StatusConflict, "no_pending_turn"
	case errors.As(err, &terminal):
		return http.StatusConflict, "session_terminal"
	case errors.As(err, &already):
		return http.StatusConflict, "already_terminal"
	case errors.Is(err, session.ErrVersionConflict):
		return http.StatusConflict, "concurrent_update"
	case errors.As(err, &invalidState):
		return http.StatusBadRequest, "invalid_status"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
