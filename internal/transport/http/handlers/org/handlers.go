package orghandler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/domain/org"
	"kpitracker/internal/transport/http/api"
	"kpitracker/internal/transport/http/middleware"
	"kpitracker/internal/transport/http/shared"
)

type Handler struct {
	Service *org.Service
	Audit   *audit.Service
}

func NewHandler(service *org.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermRolesRead)).Get("/", h.handleListRoles)
		r.With(middleware.RequirePermission(auth.PermRolesWrite)).Post("/", h.handleCreateRole)
	})
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersWrite)).Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermUsersWrite)).Post("/", h.handleCreateUser)
		r.With(middleware.RequirePermission(auth.PermUsersRead)).Get("/me", h.handleMe)
		r.With(middleware.RequirePermission(auth.PermUsersRead)).Get("/{userID}", h.handleGetUser)
		r.With(middleware.RequirePermission(auth.PermHierarchyWrite)).Put("/{userID}/manager", h.handleAssignManager)
		r.With(middleware.RequirePermission(auth.PermUsersRead)).Get("/{userID}/team", h.handleTeam)
	})
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		shared.WriteDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.CreateRole(r.Context(), user, payload.Name, payload.Description)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	shared.RecordEvent(r, h.Audit, result.Event)
	api.Created(w, result.Role, requestID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, 500)

	users, total, err := h.Service.ListUsers(r.Context(), user, page.Limit, page.Offset)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, users, requestID)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload org.UserInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("fullName", payload.FullName, "is required")
	v.Required("email", payload.Email, "is required")
	v.Required("roleId", payload.RoleID, "is required")
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.CreateUser(r.Context(), user, payload)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	shared.RecordEvent(r, h.Audit, result.Event)
	api.Created(w, result.User, requestID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	me, err := h.Service.GetUser(r.Context(), user.UserID)
	if err != nil {
		shared.WriteDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, me, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !h.authorizeView(w, r, userID) {
		return
	}
	found, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		shared.WriteDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignManager(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		ManagerID *string `json:"managerId"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	if payload.ManagerID == nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "managerId", Reason: "is required (use an empty string to clear)"}})
		return
	}

	result, err := h.Service.AssignManager(r.Context(), user, chi.URLParam(r, "userID"), strings.TrimSpace(*payload.ManagerID))
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	shared.RecordEvent(r, h.Audit, result.Event)
	api.Success(w, result.User, requestID)
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !h.authorizeView(w, r, userID) {
		return
	}
	reports, err := h.Service.ListReports(r.Context(), userID)
	if err != nil {
		shared.WriteDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, reports, middleware.GetRequestID(r.Context()))
}

func (h *Handler) authorizeView(w http.ResponseWriter, r *http.Request, userID string) bool {
	user, _ := middleware.GetUser(r.Context())
	allowed, err := h.Service.CanView(r.Context(), user, userID)
	if err != nil {
		shared.WriteDomainError(w, err, middleware.GetRequestID(r.Context()))
		return false
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this user", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}
