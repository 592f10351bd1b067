package automation

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ruleRow struct {
	ID             string    `gorm:"column:id;primaryKey"`
	UserID         string    `gorm:"column:user_id"`
	ScoreAchieved  float64   `gorm:"column:score_achieved"`
	Recommendation string    `gorm:"column:recommendation"`
	Period         string    `gorm:"column:period"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (ruleRow) TableName() string { return "automation_rules" }

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) InsertRule(ctx context.Context, rule Rule) error {
	row := ruleRow{
		ID:             rule.ID,
		UserID:         rule.UserID,
		ScoreAchieved:  rule.ScoreAchieved,
		Recommendation: rule.Recommendation.String(),
		Period:         rule.Period,
		CreatedAt:      rule.CreatedAt,
	}
	return s.DB.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) ListRules(ctx context.Context, filter RuleFilter) ([]Rule, error) {
	q := s.DB.WithContext(ctx).Model(&ruleRow{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Period != "" {
		q = q.Where("period = ?", filter.Period)
	}
	if filter.Recommendation != 0 {
		q = q.Where("recommendation = ?", filter.Recommendation.String())
	}
	var rows []ruleRow
	if err := q.Order("created_at DESC, id").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Rule, 0, len(rows))
	for _, row := range rows {
		tier, err := ParseRecommendation(row.Recommendation)
		if err != nil {
			return nil, err
		}
		out = append(out, Rule{
			ID:             row.ID,
			UserID:         row.UserID,
			ScoreAchieved:  row.ScoreAchieved,
			Recommendation: tier,
			Period:         row.Period,
			CreatedAt:      row.CreatedAt,
		})
	}
	return out, nil
}
