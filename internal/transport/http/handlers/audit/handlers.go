package audithandler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/transport/http/api"
	"kpitracker/internal/transport/http/middleware"
	"kpitracker/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermAuditRead)).Get("/audit", h.handleListEvents)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	q := r.URL.Query()
	filter := audit.Filter{
		Action:  audit.Action(strings.ToUpper(strings.TrimSpace(q.Get("action")))),
		Entity:  audit.EntityKind(strings.ToUpper(strings.TrimSpace(q.Get("entityType")))),
		ActorID: strings.TrimSpace(q.Get("actorId")),
	}
	if filter.Action != "" && !filter.Action.Valid() {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "action", Reason: "is not a known audit action"}})
		return
	}

	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		zap.L().Warn("audit count failed", zap.Error(err), zap.String("requestId", requestID))
	}

	events, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestID)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, requestID)
}
