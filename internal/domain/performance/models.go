package performance

import (
	"time"

	"kpitracker/internal/domain/audit"
)

type KPI struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	RoleID          string          `json:"roleId"`
	TargetValue     float64         `json:"targetValue"`
	Weightage       float64         `json:"weightage"`
	MeasurementType MeasurementType `json:"measurementType"`
	Period          Cadence         `json:"period"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Override replaces a KPI's target for a single user.
type Override struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	KPIID             string    `json:"kpiId"`
	CustomTargetValue float64   `json:"customTargetValue"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Achievement struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	KPIID           string     `json:"kpiId"`
	AchievedValue   float64    `json:"achievedValue"`
	AchievementDate time.Time  `json:"achievementDate"`
	Description     string     `json:"description"`
	EvidenceURL     string     `json:"evidenceUrl,omitempty"`
	Status          Status     `json:"status"`
	VerifiedBy      string     `json:"verifiedBy,omitempty"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Transition is the single write a verification performs.
type Transition struct {
	AchievementID   string
	To              Status
	VerifiedBy      string
	VerifiedAt      time.Time
	RejectionReason string
}

type AchievementFilter struct {
	// VisibleTo limits results to the user's own achievements and those of
	// their direct reports. Empty means no restriction.
	VisibleTo string
	UserID    string
	KPIID     string
	Status    Status
	Limit     int
	Offset    int
}

type KPIInput struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	RoleID          string          `json:"roleId"`
	TargetValue     float64         `json:"targetValue"`
	Weightage       float64         `json:"weightage"`
	MeasurementType MeasurementType `json:"measurementType"`
	Period          Cadence         `json:"period"`
}

type SubmissionInput struct {
	KPIID           string    `json:"kpiId"`
	AchievedValue   float64   `json:"achievedValue"`
	AchievementDate time.Time `json:"achievementDate"`
	Description     string    `json:"description"`
	EvidenceURL     string    `json:"evidenceUrl"`
}

type SubmissionResult struct {
	Achievement Achievement
	Event       audit.Event
}

type VerificationResult struct {
	Achievement Achievement
	Event       audit.Event
}

type KPIResult struct {
	KPI   KPI
	Event audit.Event
}

type OverrideResult struct {
	Override Override
	Created  bool
	Event    audit.Event
}
