package performance

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// KPIScore is one line of a score card.
type KPIScore struct {
	KPIID            string  `json:"kpiId"`
	Name             string  `json:"name"`
	Category         string  `json:"category,omitempty"`
	Target           float64 `json:"target"`
	TargetOverridden bool    `json:"targetOverridden"`
	Achieved         float64 `json:"achieved"`
	Completion       float64 `json:"completion"`
	Weightage        float64 `json:"weightage"`
	Points           float64 `json:"points"`
}

type ScoreCard struct {
	UserID string     `json:"userId"`
	Period string     `json:"period"`
	Total  float64    `json:"total"`
	KPIs   []KPIScore `json:"kpis"`
}

// EffectiveTarget prefers the user's override when one exists.
func EffectiveTarget(kpi KPI, override *Override) (float64, bool) {
	if override != nil {
		return override.CustomTargetValue, true
	}
	return kpi.TargetValue, false
}

// Completion is achieved/target clamped to [0, 1]. A non-positive target scores zero.
func Completion(achieved, target float64) float64 {
	if !(target > 0) || math.IsInf(target, 0) || math.IsNaN(achieved) {
		return 0
	}
	c := achieved / target
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

func ScoreKPI(kpi KPI, target, achieved float64, overridden bool) KPIScore {
	completion := Completion(achieved, target)
	return KPIScore{
		KPIID:            kpi.ID,
		Name:             kpi.Name,
		Category:         kpi.Category,
		Target:           target,
		TargetOverridden: overridden,
		Achieved:         achieved,
		Completion:       completion,
		Weightage:        kpi.Weightage,
		Points:           completion * kpi.Weightage,
	}
}

// TotalScore sums unrounded points and rounds once.
func TotalScore(lines []KPIScore) float64 {
	var sum float64
	for _, line := range lines {
		sum += line.Points
	}
	return RoundScore(sum)
}

// RoundScore rounds to two decimals, half away from zero, on the shortest
// decimal form of v. 94.995 becomes 95 and 2.675 becomes 2.68.
func RoundScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return rounded
}

// ScoreCard computes the weighted score of a user for one period along with
// the per-KPI breakdown. It only reads.
func (s *Service) ScoreCard(ctx context.Context, userID string, period Period) (ScoreCard, error) {
	ctx, span := s.tracer.Start(ctx, "performance.ScoreCard", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("period", period.String()),
	))
	defer span.End()

	card, err := s.scoreCard(ctx, userID, period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ScoreCard{}, err
	}
	span.SetAttributes(attribute.Float64("score.total", card.Total))
	return card, nil
}

func (s *Service) scoreCard(ctx context.Context, userID string, period Period) (ScoreCard, error) {
	if err := period.Validate(); err != nil {
		return ScoreCard{}, err
	}
	card := ScoreCard{UserID: userID, Period: period.String(), KPIs: []KPIScore{}}

	roleID, err := s.store.UserRoleID(ctx, userID)
	if err != nil {
		return ScoreCard{}, err
	}
	if roleID == "" {
		return card, nil
	}

	kpis, err := s.store.KPIsForRole(ctx, roleID)
	if err != nil {
		return ScoreCard{}, err
	}
	for _, kpi := range kpis {
		override, err := s.store.OverrideFor(ctx, userID, kpi.ID)
		if err != nil {
			return ScoreCard{}, err
		}
		target, overridden := EffectiveTarget(kpi, override)
		achieved, err := s.store.VerifiedAchievementSum(ctx, userID, kpi.ID, period)
		if err != nil {
			return ScoreCard{}, err
		}
		card.KPIs = append(card.KPIs, ScoreKPI(kpi, target, achieved, overridden))
	}
	card.Total = TotalScore(card.KPIs)
	return card, nil
}

// CalculateScore returns only the rounded total of ScoreCard.
func (s *Service) CalculateScore(ctx context.Context, userID string, period Period) (float64, error) {
	card, err := s.ScoreCard(ctx, userID, period)
	if err != nil {
		return 0, err
	}
	return card.Total, nil
}
