package performance

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/auth"
)

// CanVerify reports whether actor may decide on an achievement owned by a
// user whose direct manager is ownerManagerID.
func CanVerify(actor auth.Actor, ownerManagerID string) bool {
	if actor.IsAdmin() {
		return true
	}
	return ownerManagerID != "" && ownerManagerID == actor.UserID
}

// ValidateDecision checks the decision itself, independent of who makes it.
func ValidateDecision(decision Status, reason string) error {
	switch decision {
	case StatusVerified:
		return nil
	case StatusRejected:
		if strings.TrimSpace(reason) == "" {
			return ErrNoReason
		}
		return nil
	default:
		return ErrBadDecision
	}
}

// Verify moves a pending achievement to VERIFIED or REJECTED. The write is
// conditional on the row still being pending, so of two concurrent callers
// exactly one succeeds and the other gets ErrNotPending.
func (s *Service) Verify(ctx context.Context, actor auth.Actor, achievementID string, decision Status, reason string) (VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "performance.Verify", trace.WithAttributes(
		attribute.String("achievement.id", achievementID),
		attribute.String("decision", decision.String()),
	))
	defer span.End()

	result, err := s.verify(ctx, actor, achievementID, decision, reason)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (s *Service) verify(ctx context.Context, actor auth.Actor, achievementID string, decision Status, reason string) (VerificationResult, error) {
	current, err := s.store.GetAchievement(ctx, achievementID)
	if err != nil {
		return VerificationResult{}, err
	}
	if current.Status != StatusPending {
		return VerificationResult{}, ErrNotPending
	}
	managerID, err := s.store.ManagerOf(ctx, current.UserID)
	if err != nil {
		return VerificationResult{}, err
	}
	if !CanVerify(actor, managerID) {
		return VerificationResult{}, ErrNotVerifier
	}
	if err := ValidateDecision(decision, reason); err != nil {
		return VerificationResult{}, err
	}

	now := s.now().UTC()
	t := Transition{
		AchievementID: achievementID,
		To:            decision,
		VerifiedBy:    actor.UserID,
		VerifiedAt:    now,
	}
	if decision == StatusRejected {
		t.RejectionReason = strings.TrimSpace(reason)
	}
	applied, err := s.store.TransitionAchievement(ctx, t)
	if err != nil {
		return VerificationResult{}, err
	}
	if !applied {
		return VerificationResult{}, ErrNotPending
	}

	current.Status = decision
	current.VerifiedBy = actor.UserID
	current.VerifiedAt = &now
	current.RejectionReason = t.RejectionReason

	evt := audit.NewEvent(actor.UserID, audit.ActionVerify, audit.EntityAchievement, current.ID,
		"achievement %s marked %s", current.ID, decision)
	return VerificationResult{Achievement: current, Event: evt}, nil
}
