package performance

import (
	"kpitracker/internal/domain/errs"
)

// MaxRoleWeightage caps the summed weightage of a role's KPIs in one period.
const MaxRoleWeightage = 100.0

// Status is the verification state of an achievement.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusVerified
	StatusRejected
)

var statusTokens = map[Status]string{
	StatusPending:  "PENDING",
	StatusVerified: "VERIFIED",
	StatusRejected: "REJECTED",
}

func (s Status) String() string {
	if token, ok := statusTokens[s]; ok {
		return token
	}
	return "UNKNOWN"
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusTokens[s]; !ok {
		return nil, errs.Validation("unknown achievement status %d", s)
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseStatus(token string) (Status, error) {
	for status, t := range statusTokens {
		if t == token {
			return status, nil
		}
	}
	return 0, errs.Validation("unknown achievement status %q", token)
}

type MeasurementType uint8

const (
	MeasurementCount MeasurementType = iota + 1
	MeasurementAmount
	MeasurementPercentage
)

var measurementTokens = map[MeasurementType]string{
	MeasurementCount:      "COUNT",
	MeasurementAmount:     "AMOUNT",
	MeasurementPercentage: "PERCENTAGE",
}

func (m MeasurementType) String() string {
	if token, ok := measurementTokens[m]; ok {
		return token
	}
	return "UNKNOWN"
}

func (m MeasurementType) MarshalText() ([]byte, error) {
	if _, ok := measurementTokens[m]; !ok {
		return nil, errs.Validation("unknown measurement type %d", m)
	}
	return []byte(m.String()), nil
}

func (m *MeasurementType) UnmarshalText(text []byte) error {
	parsed, err := ParseMeasurementType(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func ParseMeasurementType(token string) (MeasurementType, error) {
	for m, t := range measurementTokens {
		if t == token {
			return m, nil
		}
	}
	return 0, errs.Validation("unknown measurement type %q", token)
}

// Cadence is how often a KPI resets. Only monthly KPIs exist today.
type Cadence uint8

const (
	CadenceMonthly Cadence = iota + 1
)

func (c Cadence) String() string {
	if c == CadenceMonthly {
		return "MONTHLY"
	}
	return "UNKNOWN"
}

func (c Cadence) MarshalText() ([]byte, error) {
	if c != CadenceMonthly {
		return nil, errs.Validation("unknown kpi period %d", c)
	}
	return []byte(c.String()), nil
}

func (c *Cadence) UnmarshalText(text []byte) error {
	parsed, err := ParseCadence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ParseCadence(token string) (Cadence, error) {
	if token == "MONTHLY" {
		return CadenceMonthly, nil
	}
	return 0, errs.Validation("unknown kpi period %q", token)
}
