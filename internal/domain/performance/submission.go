package performance

import (
	"context"
	"math"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/domain/errs"
)

// ValidateSubmission checks everything that does not need the store.
func ValidateSubmission(in SubmissionInput, now Period) error {
	if strings.TrimSpace(in.KPIID) == "" {
		return errs.Validation("kpiId is required")
	}
	if math.IsNaN(in.AchievedValue) || math.IsInf(in.AchievedValue, 0) || in.AchievedValue < 0 {
		return ErrBadValue
	}
	if in.AchievementDate.IsZero() {
		return errs.Validation("achievementDate is required")
	}
	if !now.Contains(in.AchievementDate) {
		return ErrOutsideMonth
	}
	if in.EvidenceURL != "" {
		if _, err := url.ParseRequestURI(in.EvidenceURL); err != nil {
			return errs.Validation("evidenceUrl must be an absolute URL")
		}
	}
	return nil
}

// SubmitAchievement records a pending achievement for the actor.
func (s *Service) SubmitAchievement(ctx context.Context, actor auth.Actor, in SubmissionInput) (SubmissionResult, error) {
	now := s.now().UTC()
	in.KPIID = strings.TrimSpace(in.KPIID)
	if err := ValidateSubmission(in, PeriodOf(now)); err != nil {
		return SubmissionResult{}, err
	}
	exists, err := s.store.KPIExists(ctx, in.KPIID)
	if err != nil {
		return SubmissionResult{}, err
	}
	if !exists {
		return SubmissionResult{}, ErrUnknownKPI
	}

	a := Achievement{
		ID:              uuid.NewString(),
		UserID:          actor.UserID,
		KPIID:           in.KPIID,
		AchievedValue:   in.AchievedValue,
		AchievementDate: dateOnly(in.AchievementDate),
		Description:     strings.TrimSpace(in.Description),
		EvidenceURL:     strings.TrimSpace(in.EvidenceURL),
		Status:          StatusPending,
		CreatedAt:       now,
	}
	if err := s.store.InsertAchievement(ctx, a); err != nil {
		return SubmissionResult{}, err
	}
	evt := audit.NewEvent(actor.UserID, audit.ActionCreate, audit.EntityAchievement, a.ID,
		"achievement submitted for kpi %s", a.KPIID)
	return SubmissionResult{Achievement: a, Event: evt}, nil
}
