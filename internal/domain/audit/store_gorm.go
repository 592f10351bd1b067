package audit

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type eventRow struct {
	ID          string    `gorm:"column:id;primaryKey"`
	ActorID     string    `gorm:"column:actor_id"`
	Action      string    `gorm:"column:action"`
	EntityKind  string    `gorm:"column:entity_kind"`
	EntityID    string    `gorm:"column:entity_id"`
	Description string    `gorm:"column:description"`
	RequestID   string    `gorm:"column:request_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (eventRow) TableName() string { return "audit_events" }

// GormStore keeps audit events in the SQLite development database.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) InsertEvent(ctx context.Context, evt Event) error {
	row := eventRow{
		ID:          evt.ID,
		ActorID:     evt.ActorID,
		Action:      string(evt.Action),
		EntityKind:  string(evt.Entity),
		EntityID:    evt.EntityID,
		Description: evt.Description,
		RequestID:   evt.RequestID,
		CreatedAt:   evt.CreatedAt,
	}
	return s.DB.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) CountEvents(ctx context.Context, filter Filter) (int, error) {
	var total int64
	if err := s.filtered(ctx, filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *GormStore) ListEvents(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	var rows []eventRow
	err := s.filtered(ctx, filter).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, Event{
			ID:          row.ID,
			ActorID:     row.ActorID,
			Action:      Action(row.Action),
			Entity:      EntityKind(row.EntityKind),
			EntityID:    row.EntityID,
			Description: row.Description,
			RequestID:   row.RequestID,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (s *GormStore) filtered(ctx context.Context, filter Filter) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&eventRow{})
	if filter.Action != "" {
		q = q.Where("action = ?", string(filter.Action))
	}
	if filter.Entity != "" {
		q = q.Where("entity_kind = ?", string(filter.Entity))
	}
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	return q
}
