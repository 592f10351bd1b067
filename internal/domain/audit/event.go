package audit

import (
	"fmt"
	"time"

	"kpitracker/internal/domain/errs"
)

type Action string

const (
	ActionLogin  Action = "LOGIN"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionVerify Action = "VERIFY"
)

func (a Action) Valid() bool {
	switch a {
	case ActionLogin, ActionCreate, ActionUpdate, ActionVerify:
		return true
	}
	return false
}

type EntityKind string

const (
	EntityRole           EntityKind = "ROLE"
	EntityUser           EntityKind = "USER"
	EntityKPI            EntityKind = "KPI"
	EntityKPIOverride    EntityKind = "KPI_OVERRIDE"
	EntityAchievement    EntityKind = "ACHIEVEMENT"
	EntityAutomationRule EntityKind = "AUTOMATION_RULE"
)

// Event is an append-only record of a state-changing operation.
// Services build events and hand them back; the transport layer persists them.
type Event struct {
	ID          string     `json:"id"`
	ActorID     string     `json:"actorId"`
	Action      Action     `json:"action"`
	Entity      EntityKind `json:"entityType"`
	EntityID    string     `json:"entityId"`
	Description string     `json:"description"`
	RequestID   string     `json:"requestId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewEvent(actorID string, action Action, entity EntityKind, entityID, format string, args ...any) Event {
	return Event{
		ActorID:     actorID,
		Action:      action,
		Entity:      entity,
		EntityID:    entityID,
		Description: fmt.Sprintf(format, args...),
	}
}

func (e Event) Validate() error {
	if !e.Action.Valid() {
		return errs.Validation("unknown audit action %q", e.Action)
	}
	if e.Entity == "" {
		return errs.Validation("audit entity kind is required")
	}
	return nil
}

type Filter struct {
	Action  Action
	Entity  EntityKind
	ActorID string
}
