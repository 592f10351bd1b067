package automationhandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/domain/automation"
	"kpitracker/internal/domain/org"
	"kpitracker/internal/domain/performance"
	"kpitracker/internal/platform/metrics"
	"kpitracker/internal/transport/http/api"
	"kpitracker/internal/transport/http/middleware"
	"kpitracker/internal/transport/http/shared"
)

// Team lists the direct reports evaluated by a team run.
type Team interface {
	ListReports(ctx context.Context, managerID string) ([]org.User, error)
}

type Handler struct {
	Service *automation.Service
	Team    Team
	Audit   *audit.Service
	Metrics *metrics.Collector
	Now     func() time.Time
}

func NewHandler(service *automation.Service, team Team, auditSvc *audit.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Team: team, Audit: auditSvc, Metrics: collector, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationRead)).Get("/", h.handleListRules)
		r.With(middleware.RequirePermission(auth.PermEvaluationRun)).Post("/", h.handleEvaluate)
	})
}

type evaluationResponse struct {
	Period   string               `json:"period"`
	Outcomes []automation.Outcome `json:"outcomes"`
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var payload struct {
		UserID    string `json:"userId"`
		ManagerID string `json:"managerId"`
		Period    string `json:"period"`
	}
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	payload.UserID = strings.TrimSpace(payload.UserID)
	payload.ManagerID = strings.TrimSpace(payload.ManagerID)
	if (payload.UserID == "") == (payload.ManagerID == "") {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "userId", Reason: "exactly one of userId or managerId is required"}})
		return
	}

	period := performance.PeriodOf(h.Now().UTC())
	if payload.Period != "" {
		parsed, err := performance.ParsePeriod(payload.Period)
		if err != nil {
			shared.WriteDomainError(w, err, requestID)
			return
		}
		period = parsed
	}

	userIDs := []string{payload.UserID}
	if payload.ManagerID != "" {
		reports, err := h.Team.ListReports(r.Context(), payload.ManagerID)
		if err != nil {
			shared.WriteDomainError(w, err, requestID)
			return
		}
		userIDs = make([]string, 0, len(reports))
		for _, report := range reports {
			userIDs = append(userIDs, report.ID)
		}
	}

	outcomes, err := h.Service.EvaluateMany(r.Context(), userIDs, period)
	// Rules already appended before a failure are still recorded.
	h.recordOutcomes(r, user, outcomes)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	api.Success(w, evaluationResponse{Period: period.String(), Outcomes: outcomes}, requestID)
}

func (h *Handler) recordOutcomes(r *http.Request, user auth.Actor, outcomes []automation.Outcome) {
	for _, outcome := range outcomes {
		if outcome.Rule == nil {
			continue
		}
		rule := outcome.Rule
		shared.RecordEvent(r, h.Audit, audit.NewEvent(user.UserID, audit.ActionCreate, audit.EntityAutomationRule, rule.ID,
			"%s recommended for %s in %s at %.2f", rule.Recommendation, rule.UserID, rule.Period, rule.ScoreAchieved))
		if h.Metrics != nil {
			h.Metrics.Inc("recommendation." + rule.Recommendation.String())
		}
	}
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	q := r.URL.Query()
	filter := automation.RuleFilter{
		UserID: strings.TrimSpace(q.Get("userId")),
		Period: strings.TrimSpace(q.Get("period")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if raw := strings.TrimSpace(q.Get("recommendation")); raw != "" {
		rec, err := automation.ParseRecommendation(strings.ToUpper(raw))
		if err != nil {
			shared.WriteDomainError(w, err, requestID)
			return
		}
		filter.Recommendation = rec
	}

	rules, err := h.Service.ListRules(r.Context(), filter)
	if err != nil {
		shared.WriteDomainError(w, err, requestID)
		return
	}
	api.Success(w, rules, requestID)
}
