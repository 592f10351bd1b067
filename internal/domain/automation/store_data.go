package automation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) InsertRule(ctx context.Context, rule Rule) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO automation_rules (id, user_id, score_achieved, recommendation, period, created_at)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, rule.ID, rule.UserID, rule.ScoreAchieved, rule.Recommendation.String(), rule.Period, rule.CreatedAt)
	return err
}

func (s *Store) ListRules(ctx context.Context, filter RuleFilter) ([]Rule, error) {
	query := "SELECT id, user_id, score_achieved, recommendation, period, created_at FROM automation_rules WHERE 1=1"
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Period != "" {
		args = append(args, filter.Period)
		query += fmt.Sprintf(" AND period = $%d", len(args))
	}
	if filter.Recommendation != 0 {
		args = append(args, filter.Recommendation.String())
		query += fmt.Sprintf(" AND recommendation = $%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var (
			rule Rule
			tier string
		)
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.ScoreAchieved, &tier, &rule.Period, &rule.CreatedAt); err != nil {
			return nil, err
		}
		if rule.Recommendation, err = ParseRecommendation(tier); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}
