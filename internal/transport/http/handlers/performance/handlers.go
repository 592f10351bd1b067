package performancehandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/domain/org"
	"kpitracker/internal/domain/performance"
	"kpitracker/internal/platform/metrics"
	"kpitracker/internal/transport/http/api"
	"kpitracker/internal/transport/http/middleware"
	"kpitracker/internal/transport/http/shared"
)

// Directory answers reporting-line questions for score access.
type Directory interface {
	CanView(ctx context.Context, actor auth.Actor, userID string) (bool, error)
	ListReports(ctx context.Context, managerID string) ([]org.User, error)
}

type Handler struct {
	Service   *performance.Service
	Directory Directory
	Audit     *audit.Service
	Metrics   *metrics.Collector
	Now       func() time.Time
}

func NewHandler(service *performance.Service, directory Directory, auditSvc *audit.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Directory: directory, Audit: auditSvc, Metrics: collector, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/kpis", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermKPIRead)).Get("/", h.handleListKPIs)
		r.With(middleware.RequirePermission(auth.PermKPIWrite)).Post("/", h.handleCreateKPI)
		r.With(middleware.RequirePermission(auth.PermKPIWrite)).Put("/overrides", h.handleUpsertOverride)
	})
	r.Route("/achievements", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAchievementRead)).Get("/", h.handleListAchievements)
		r.With(middleware.RequirePermission(auth.PermAchievementWrite)).Post("/", h.handleSubmitAchievement)
		r.With(middleware.RequirePermission(auth.PermAchievementVerify)).Put("/{achievementID}/verify", h.handleVerify)
	})
	r.With(middleware.RequirePermission(auth.PermScoreRead)).Get("/scores/{userID}", h.handleScore)
	r.With(middleware.RequirePermission(auth.PermScoreRead)).Get("/dashboard/me", h.handleDashboard)
	r.With(middleware.RequirePermission(auth.PermScoreRead)).Get("/dashboard/team", h.handleTeamDashboard)
}

func (h *Handler) handleListKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.Service.ListKPIs(r.Context(), strings.TrimSpace(r.URL.Query().Get("roleId")))
	if err != nil {
		shared.WriteDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, kpis, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateKPI(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		Name            string  `json:"name"`
		Description     string  `json:"description"`
		Category        string  `json:"category"`
		RoleID          string  `json:"roleId"`
		TargetValue     float64 `json:"targetValue"`
		Weightage       float64 `json:"weightage"`
		MeasurementType string  `json:"measurementType"`
		Period          string  `json:"period"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Required("roleId", payload.RoleID, "is required")
	v.Positive("targetValue", payload.TargetValue)
	v.NonNegative("weightage", payload.Weightage)
	v.Required("measurementType", payload.MeasurementType, "is required")
	v.Enum("measurementType", payload.MeasurementType, []string{"COUNT", "AMOUNT", "PERCENTAGE"}, "must be COUNT, AMOUNT or PERCENTAGE")
	v.Enum("period", payload.Period, []string{"MONTHLY"}, "must be MONTHLY")
	if v.Reject(w, requestID) {
		return
	}

	in := performance.KPIInput{
		Name:        payload.Name,
		Description: payload.Description,
		Category:    payload.Category,
		RoleID:      payload.RoleID,
		TargetValue: payload.TargetValue,
		Weightage:   payload.Weightage,
	}
	mt, err := performance.ParseMeasurementType(strings.ToUpper(strings.TrimSpace(payload.MeasurementType)))
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	in.MeasurementType = mt
	if payload.Period != "" {
		cadence, err := performance.ParseCadence(strings.ToUpper(strings.TrimSpace(payload.Period)))
		if err != nil {
			shared.WriteDomainError(w, err, requestID)
			return
		}
		in.Period = cadence
	}

	result, err := h.Service.CreateKPI(r.Context(), user, in)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	shared.RecordEvent(r, h.Audit, result.Event)
	api.Created(w, result.KPI, requestID)
}

func (h *Handler) handleUpsertOverride(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		UserID            string  `json:"userId"`
		KPIID             string  `json:"kpiId"`
		CustomTargetValue float64 `json:"customTargetValue"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("userId", payload.UserID, "is required")
	v.Required("kpiId", payload.KPIID, "is required")
	v.Positive("customTargetValue", payload.CustomTargetValue)
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.UpsertOverride(r.Context(), user, payload.UserID, payload.KPIID, payload.CustomTargetValue)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	shared.RecordEvent(r, h.Audit, result.Event)
	if result.Created {
		api.Created(w, result.Override, requestID)
		return
	}
	api.Success(w, result.Override, requestID)
}

func (h *Handler) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	page := shared.ParsePagination(r, 50, 200)
	q := r.URL.Query()
	filter := performance.AchievementFilter{
		UserID: strings.TrimSpace(q.Get("userId")),
		KPIID:  strings.TrimSpace(q.Get("kpiId")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := performance.ParseStatus(strings.ToUpper(raw))
		if err != nil {
			shared.WriteDomainError(w, err, requestID)
			return
		}
		filter.Status = status
	}

	achievements, err := h.Service.ListAchievements(r.Context(), user, filter)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	api.Success(w, achievements, requestID)
}

func (h *Handler) handleSubmitAchievement(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		KPIID           string  `json:"kpiId"`
		AchievedValue   float64 `json:"achievedValue"`
		AchievementDate string  `json:"achievementDate"`
		Description     string  `json:"description"`
		EvidenceURL     string  `json:"evidenceUrl"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("kpiId", payload.KPIID, "is required")
	v.NonNegative("achievedValue", payload.AchievedValue)
	date, _ := v.Date("achievementDate", payload.AchievementDate)
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.SubmitAchievement(r.Context(), user, performance.SubmissionInput{
		KPIID:           payload.KPIID,
		AchievedValue:   payload.AchievedValue,
		AchievementDate: date,
		Description:     payload.Description,
		EvidenceURL:     payload.EvidenceURL,
	})
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	shared.RecordEvent(r, h.Audit, result.Event)
	h.count("achievement.submitted")
	api.Created(w, result.Achievement, requestID)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		Status          string `json:"status"`
		RejectionReason string `json:"rejectionReason"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("status", payload.Status, "is required")
	v.Enum("status", payload.Status, []string{"VERIFIED", "REJECTED"}, "must be VERIFIED or REJECTED")
	if v.Reject(w, requestID) {
		return
	}
	decision, err := performance.ParseStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}

	result, err := h.Service.Verify(r.Context(), user, chi.URLParam(r, "achievementID"), decision, payload.RejectionReason)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	shared.RecordEvent(r, h.Audit, result.Event)
	h.count("verification." + result.Achievement.Status.String())
	api.Success(w, result.Achievement, requestID)
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userID")

	allowed, err := h.Directory.CanView(r.Context(), user, userID)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this score", requestID)
		return
	}
	period, err := shared.PeriodParam(r, h.Now().UTC())
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}

	card, err := h.Service.ScoreCard(r.Context(), userID, period)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	api.Success(w, card, requestID)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	period, err := shared.PeriodParam(r, h.Now().UTC())
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	card, err := h.Service.ScoreCard(r.Context(), user.UserID, period)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	api.Success(w, card, requestID)
}

type teamDashboard struct {
	Period  string                  `json:"period"`
	Self    performance.ScoreCard   `json:"self"`
	Reports []performance.ScoreCard `json:"reports"`
}

func (h *Handler) handleTeamDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	period, err := shared.PeriodParam(r, h.Now().UTC())
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	self, err := h.Service.ScoreCard(r.Context(), user.UserID, period)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	reports, err := h.Directory.ListReports(r.Context(), user.UserID)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}

	out := teamDashboard{Period: period.String(), Self: self, Reports: make([]performance.ScoreCard, 0, len(reports))}
	for _, report := range reports {
		card, err := h.Service.ScoreCard(r.Context(), report.ID, period)
		if err != nil {
			shared.WriteDomainError(w, err, requestID)
			return
		}
		out.Reports = append(out.Reports, card)
	}
	api.Success(w, out, requestID)
}

func (h *Handler) count(name string) {
	if h.Metrics != nil {
		h.Metrics.Inc(name)
	}
}
