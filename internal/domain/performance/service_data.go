package performance

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/domain/errs"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func ValidateKPI(in KPIInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return errs.Validation("name is required")
	}
	if strings.TrimSpace(in.RoleID) == "" {
		return errs.Validation("roleId is required")
	}
	if !finite(in.TargetValue) || in.TargetValue <= 0 {
		return errs.Validation("targetValue must be greater than 0")
	}
	if !finite(in.Weightage) || in.Weightage < 0 || in.Weightage > MaxRoleWeightage {
		return errs.Validation("weightage must be between 0 and 100")
	}
	if _, ok := measurementTokens[in.MeasurementType]; !ok {
		return errs.Validation("measurementType must be COUNT, AMOUNT or PERCENTAGE")
	}
	if in.Period != 0 && in.Period != CadenceMonthly {
		return errs.Validation("period must be MONTHLY")
	}
	return nil
}

// CheckWeightage fails when adding weightage to current would exceed the cap.
// The sum is compared at six decimals so 33.3+33.3+33.4 is accepted.
func CheckWeightage(current, weightage float64) error {
	total := decimal.NewFromFloat(current).Add(decimal.NewFromFloat(weightage)).Round(6)
	if total.GreaterThan(decimal.NewFromFloat(MaxRoleWeightage)) {
		return errs.Validation("total weightage for the role would be %s, above %.0f (currently %s)",
			total.String(), MaxRoleWeightage, decimal.NewFromFloat(current).Round(6).String())
	}
	return nil
}

func (s *Service) CreateKPI(ctx context.Context, actor auth.Actor, in KPIInput) (KPIResult, error) {
	if !actor.IsAdmin() {
		return KPIResult{}, ErrAdminOnly
	}
	in.Name = strings.TrimSpace(in.Name)
	in.RoleID = strings.TrimSpace(in.RoleID)
	if err := ValidateKPI(in); err != nil {
		return KPIResult{}, err
	}
	if in.Period == 0 {
		in.Period = CadenceMonthly
	}
	exists, err := s.store.RoleExists(ctx, in.RoleID)
	if err != nil {
		return KPIResult{}, err
	}
	if !exists {
		return KPIResult{}, ErrRoleNotFound
	}

	kpi := KPI{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Description:     strings.TrimSpace(in.Description),
		Category:        strings.TrimSpace(in.Category),
		RoleID:          in.RoleID,
		TargetValue:     in.TargetValue,
		Weightage:       in.Weightage,
		MeasurementType: in.MeasurementType,
		Period:          in.Period,
		CreatedAt:       s.now().UTC(),
	}
	created, err := s.store.CreateKPI(ctx, kpi)
	if err != nil {
		return KPIResult{}, err
	}
	evt := audit.NewEvent(actor.UserID, audit.ActionCreate, audit.EntityKPI, created.ID,
		"kpi %q created for role %s", created.Name, created.RoleID)
	return KPIResult{KPI: created, Event: evt}, nil
}

func (s *Service) ListKPIs(ctx context.Context, roleID string) ([]KPI, error) {
	kpis, err := s.store.ListKPIs(ctx, strings.TrimSpace(roleID))
	if err != nil {
		return nil, err
	}
	if kpis == nil {
		kpis = []KPI{}
	}
	return kpis, nil
}

// UpsertOverride sets a per-user target. At most one override exists per (user, kpi).
func (s *Service) UpsertOverride(ctx context.Context, actor auth.Actor, userID, kpiID string, target float64) (OverrideResult, error) {
	if !actor.IsAdmin() {
		return OverrideResult{}, ErrAdminOnly
	}
	userID = strings.TrimSpace(userID)
	kpiID = strings.TrimSpace(kpiID)
	if userID == "" || kpiID == "" {
		return OverrideResult{}, errs.Validation("userId and kpiId are required")
	}
	if !finite(target) || target <= 0 {
		return OverrideResult{}, errs.Validation("customTargetValue must be greater than 0")
	}
	userExists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return OverrideResult{}, err
	}
	if !userExists {
		return OverrideResult{}, ErrUserNotFound
	}
	kpiExists, err := s.store.KPIExists(ctx, kpiID)
	if err != nil {
		return OverrideResult{}, err
	}
	if !kpiExists {
		return OverrideResult{}, ErrKPINotFound
	}

	now := s.now().UTC()
	stored, created, err := s.store.UpsertOverride(ctx, Override{
		ID:                uuid.NewString(),
		UserID:            userID,
		KPIID:             kpiID,
		CustomTargetValue: target,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return OverrideResult{}, err
	}
	action := audit.ActionUpdate
	if created {
		action = audit.ActionCreate
	}
	evt := audit.NewEvent(actor.UserID, action, audit.EntityKPIOverride, stored.ID,
		"target for user %s on kpi %s set to %s", userID, kpiID, decimal.NewFromFloat(target).String())
	return OverrideResult{Override: stored, Created: created, Event: evt}, nil
}

// ListAchievements scopes non-admins to their own rows and their direct reports' rows.
func (s *Service) ListAchievements(ctx context.Context, actor auth.Actor, filter AchievementFilter) ([]Achievement, error) {
	if !actor.IsAdmin() {
		filter.VisibleTo = actor.UserID
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	items, err := s.store.ListAchievements(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Achievement{}
	}
	return items, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
