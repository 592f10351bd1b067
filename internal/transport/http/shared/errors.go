package shared

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"kpitracker/internal/domain/errs"
	"kpitracker/internal/domain/org"
	"kpitracker/internal/transport/http/api"
)

// WriteDomainError maps a service error onto the response envelope.
func WriteDomainError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, org.ErrSelfAssignment):
		api.Fail(w, http.StatusConflict, "self_assignment", err.Error(), requestID)
	case errors.Is(err, org.ErrCycleDetected):
		api.Fail(w, http.StatusConflict, "cycle_detected", err.Error(), requestID)
	case errors.Is(err, errs.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, errs.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, errs.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, errs.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	default:
		zap.L().Error("request failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
