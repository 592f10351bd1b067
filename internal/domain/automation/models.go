package automation

import "time"

// Rule is a recorded recommendation. Rules are appended, never updated.
type Rule struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	ScoreAchieved  float64        `json:"scoreAchieved"`
	Recommendation Recommendation `json:"recommendation"`
	Period         string         `json:"period"`
	CreatedAt      time.Time      `json:"createdAt"`
}

type RuleFilter struct {
	UserID         string
	Period         string
	Recommendation Recommendation
	Limit          int
	Offset         int
}

// Outcome is the result of evaluating one user.
type Outcome struct {
	UserID string  `json:"userId"`
	Score  float64 `json:"score"`
	Rule   *Rule   `json:"rule,omitempty"`
}
