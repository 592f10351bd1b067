package automation

import "kpitracker/internal/domain/errs"

// Score thresholds, inclusive at the lower bound.
const (
	BonusThreshold        = 95.0
	WarningThreshold      = 70.0
	FinalWarningThreshold = 50.0
)

type Recommendation uint8

const (
	RecommendationBonus Recommendation = iota + 1
	RecommendationWarning
	RecommendationFinalWarning
)

var recommendationTokens = map[Recommendation]string{
	RecommendationBonus:        "BONUS",
	RecommendationWarning:      "WARNING",
	RecommendationFinalWarning: "FINAL_WARNING",
}

func (r Recommendation) String() string {
	if token, ok := recommendationTokens[r]; ok {
		return token
	}
	return "NONE"
}

func (r Recommendation) MarshalText() ([]byte, error) {
	if _, ok := recommendationTokens[r]; !ok {
		return nil, errs.Validation("unknown recommendation %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Recommendation) UnmarshalText(text []byte) error {
	parsed, err := ParseRecommendation(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func ParseRecommendation(token string) (Recommendation, error) {
	for r, t := range recommendationTokens {
		if t == token {
			return r, nil
		}
	}
	return 0, errs.Validation("unknown recommendation %q", token)
}

// Classify maps a score to a tier. Scores in [70, 95) yield no recommendation.
func Classify(score float64) (Recommendation, bool) {
	switch {
	case score >= BonusThreshold:
		return RecommendationBonus, true
	case score >= WarningThreshold:
		return 0, false
	case score >= FinalWarningThreshold:
		return RecommendationWarning, true
	default:
		return RecommendationFinalWarning, true
	}
}
