package automation

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kpitracker/internal/domain/errs"
	"kpitracker/internal/domain/performance"
)

// Scorer produces the rounded score of a user for a period.
type Scorer interface {
	CalculateScore(ctx context.Context, userID string, period performance.Period) (float64, error)
}

type Service struct {
	store  StoreAPI
	scorer Scorer
	now    func() time.Time
	tracer trace.Tracer
}

func NewService(store StoreAPI, scorer Scorer) *Service {
	return &Service{
		store:  store,
		scorer: scorer,
		now:    time.Now,
		tracer: otel.Tracer("kpitracker/automation"),
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Evaluate scores the user and records a rule when the score falls into a
// tier. It returns nil for scores without a recommendation. Each call that
// lands in a tier appends a new rule.
func (s *Service) Evaluate(ctx context.Context, userID string, period performance.Period) (*Rule, error) {
	outcome, err := s.evaluate(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	return outcome.Rule, nil
}

// EvaluateMany evaluates each user in order and stops at the first failure.
func (s *Service) EvaluateMany(ctx context.Context, userIDs []string, period performance.Period) ([]Outcome, error) {
	out := make([]Outcome, 0, len(userIDs))
	for _, userID := range userIDs {
		outcome, err := s.evaluate(ctx, userID, period)
		if err != nil {
			return out, err
		}
		out = append(out, outcome)
	}
	return out, nil
}

func (s *Service) evaluate(ctx context.Context, userID string, period performance.Period) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "automation.Evaluate", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("period", period.String()),
	))
	defer span.End()

	outcome, err := s.classifyAndRecord(ctx, userID, period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return outcome, err
}

func (s *Service) classifyAndRecord(ctx context.Context, userID string, period performance.Period) (Outcome, error) {
	if err := period.Validate(); err != nil {
		return Outcome{}, err
	}
	score, err := s.scorer.CalculateScore(ctx, userID, period)
	if err != nil {
		return Outcome{}, err
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return Outcome{}, errs.Validation("score for %s is not a number", userID)
	}
	outcome := Outcome{UserID: userID, Score: score}
	tier, ok := Classify(score)
	if !ok {
		return outcome, nil
	}
	rule := Rule{
		ID:             uuid.NewString(),
		UserID:         userID,
		ScoreAchieved:  score,
		Recommendation: tier,
		Period:         period.String(),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.InsertRule(ctx, rule); err != nil {
		return Outcome{}, err
	}
	outcome.Rule = &rule
	return outcome, nil
}

func (s *Service) ListRules(ctx context.Context, filter RuleFilter) ([]Rule, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	rules, err := s.store.ListRules(ctx, filter)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []Rule{}
	}
	return rules, nil
}
