package assessmentshandler

import (
	"errors"
	"log/slog"
	"net/http"

	"appraisal/internal/domain/assessment"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as failCode.
func writeError(w http.ResponseWriter, r *http.Request, err error, failCode string) {
	requestID := middleware.GetRequestID(r.Context())
	var vErr *assessment.ValidationError
	switch {
	case errors.As(err, &vErr):
		shared.FailValidation(w, requestID, shared.IssuesFromFields(vErr.Fields))
	case errors.Is(err, assessment.ErrValidation):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Reason: err.Error()}})
	case errors.Is(err, assessment.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "assessment not found", requestID)
	case errors.Is(err, assessment.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to perform this action", requestID)
	case errors.Is(err, assessment.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	default:
		slog.Error("assessment request failed", "code", failCode, "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, failCode, "internal server error", requestID)
	}
}
