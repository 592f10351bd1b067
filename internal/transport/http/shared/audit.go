package shared

import (
	"net/http"

	"go.uber.org/zap"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/transport/http/middleware"
)

// RecordEvent persists evt for the current request. A failed audit write
// does not fail the request that caused it.
func RecordEvent(r *http.Request, svc *audit.Service, evt audit.Event) {
	if svc == nil || evt.Action == "" {
		return
	}
	if err := svc.Record(r.Context(), evt, middleware.GetRequestID(r.Context())); err != nil {
		zap.L().Warn("audit record failed",
			zap.String("action", string(evt.Action)),
			zap.String("entityType", string(evt.Entity)),
			zap.String("entityId", evt.EntityID),
			zap.Error(err),
		)
	}
}
