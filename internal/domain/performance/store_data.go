package performance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const kpiColumns = "id, name, description, category, role_id, target_value, weightage, measurement_type, period, created_at"

const achievementColumns = `id, user_id, kpi_id, achieved_value, achievement_date, description, evidence_url,
    status, COALESCE(verified_by, ''), verified_at, COALESCE(rejection_reason, ''), created_at`

func (s *Store) UserRoleID(ctx context.Context, userID string) (string, error) {
	var roleID string
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(role_id, '') FROM users WHERE id = $1", userID).Scan(&roleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return roleID, err
}

func (s *Store) ManagerOf(ctx context.Context, userID string) (string, error) {
	var managerID string
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(manager_id, '') FROM users WHERE id = $1", userID).Scan(&managerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return managerID, err
}

func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	return s.exists(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID)
}

func (s *Store) RoleExists(ctx context.Context, roleID string) (bool, error) {
	return s.exists(ctx, "SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)", roleID)
}

func (s *Store) KPIExists(ctx context.Context, kpiID string) (bool, error) {
	return s.exists(ctx, "SELECT EXISTS (SELECT 1 FROM kpis WHERE id = $1)", kpiID)
}

func (s *Store) exists(ctx context.Context, query, id string) (bool, error) {
	var ok bool
	if err := s.DB.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) KPIsForRole(ctx context.Context, roleID string) ([]KPI, error) {
	return s.queryKPIs(ctx, "SELECT "+kpiColumns+" FROM kpis WHERE role_id = $1 ORDER BY created_at, id", roleID)
}

func (s *Store) ListKPIs(ctx context.Context, roleID string) ([]KPI, error) {
	if roleID == "" {
		return s.queryKPIs(ctx, "SELECT "+kpiColumns+" FROM kpis ORDER BY role_id, created_at, id")
	}
	return s.KPIsForRole(ctx, roleID)
}

func (s *Store) queryKPIs(ctx context.Context, query string, args ...any) ([]KPI, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KPI
	for rows.Next() {
		var (
			kpi                 KPI
			measurement, period string
		)
		if err := rows.Scan(&kpi.ID, &kpi.Name, &kpi.Description, &kpi.Category, &kpi.RoleID, &kpi.TargetValue, &kpi.Weightage, &measurement, &period, &kpi.CreatedAt); err != nil {
			return nil, err
		}
		if kpi.MeasurementType, err = ParseMeasurementType(measurement); err != nil {
			return nil, err
		}
		if kpi.Period, err = ParseCadence(period); err != nil {
			return nil, err
		}
		out = append(out, kpi)
	}
	return out, rows.Err()
}

// CreateKPI serializes creators of the same (role, period) with a
// transaction-scoped advisory lock before checking the weightage total.
func (s *Store) CreateKPI(ctx context.Context, kpi KPI) (KPI, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return KPI{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "kpi-weightage:"+kpi.RoleID+":"+kpi.Period.String()); err != nil {
		return KPI{}, err
	}
	var current float64
	if err := tx.QueryRow(ctx, "SELECT COALESCE(SUM(weightage), 0) FROM kpis WHERE role_id = $1 AND period = $2", kpi.RoleID, kpi.Period.String()).Scan(&current); err != nil {
		return KPI{}, err
	}
	if err := CheckWeightage(current, kpi.Weightage); err != nil {
		return KPI{}, err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO kpis (id, name, description, category, role_id, target_value, weightage, measurement_type, period, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, kpi.ID, kpi.Name, kpi.Description, kpi.Category, kpi.RoleID, kpi.TargetValue, kpi.Weightage, kpi.MeasurementType.String(), kpi.Period.String(), kpi.CreatedAt); err != nil {
		return KPI{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return KPI{}, err
	}
	return kpi, nil
}

func (s *Store) OverrideFor(ctx context.Context, userID, kpiID string) (*Override, error) {
	var o Override
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, kpi_id, custom_target_value, created_at, updated_at
    FROM kpi_overrides
    WHERE user_id = $1 AND kpi_id = $2
  `, userID, kpiID).Scan(&o.ID, &o.UserID, &o.KPIID, &o.CustomTargetValue, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpsertOverride keeps the existing row id on conflict; created is true when o.ID was inserted.
func (s *Store) UpsertOverride(ctx context.Context, o Override) (Override, bool, error) {
	var stored Override
	err := s.DB.QueryRow(ctx, `
    INSERT INTO kpi_overrides (id, user_id, kpi_id, custom_target_value, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (user_id, kpi_id)
    DO UPDATE SET custom_target_value = EXCLUDED.custom_target_value, updated_at = EXCLUDED.updated_at
    RETURNING id, user_id, kpi_id, custom_target_value, created_at, updated_at
  `, o.ID, o.UserID, o.KPIID, o.CustomTargetValue, o.CreatedAt, o.UpdatedAt).Scan(
		&stored.ID, &stored.UserID, &stored.KPIID, &stored.CustomTargetValue, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return Override{}, false, err
	}
	return stored, stored.ID == o.ID, nil
}

func (s *Store) VerifiedAchievementSum(ctx context.Context, userID, kpiID string, period Period) (float64, error) {
	start, end := period.Bounds()
	var total float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(achieved_value), 0)
    FROM achievements
    WHERE user_id = $1 AND kpi_id = $2 AND status = $3
      AND achievement_date >= $4 AND achievement_date < $5
  `, userID, kpiID, StatusVerified.String(), start, end).Scan(&total)
	return total, err
}

func (s *Store) InsertAchievement(ctx context.Context, a Achievement) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO achievements (id, user_id, kpi_id, achieved_value, achievement_date, description, evidence_url, status, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, a.ID, a.UserID, a.KPIID, a.AchievedValue, a.AchievementDate, a.Description, a.EvidenceURL, a.Status.String(), a.CreatedAt)
	return err
}

func (s *Store) GetAchievement(ctx context.Context, achievementID string) (Achievement, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+achievementColumns+" FROM achievements WHERE id = $1", achievementID)
	a, err := scanAchievement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Achievement{}, ErrAchievementNotFound
	}
	return a, err
}

func (s *Store) TransitionAchievement(ctx context.Context, t Transition) (bool, error) {
	var reason any
	if t.RejectionReason != "" {
		reason = t.RejectionReason
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE achievements
    SET status = $1, verified_by = $2, verified_at = $3, rejection_reason = $4
    WHERE id = $5 AND status = $6
  `, t.To.String(), t.VerifiedBy, t.VerifiedAt, reason, t.AchievementID, StatusPending.String())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListAchievements(ctx context.Context, filter AchievementFilter) ([]Achievement, error) {
	query := "SELECT " + achievementColumns + " FROM achievements WHERE 1=1"
	var args []any
	if filter.VisibleTo != "" {
		args = append(args, filter.VisibleTo)
		query += fmt.Sprintf(" AND (user_id = $%d OR user_id IN (SELECT id FROM users WHERE manager_id = $%d))", len(args), len(args))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.KPIID != "" {
		args = append(args, filter.KPIID)
		query += fmt.Sprintf(" AND kpi_id = $%d", len(args))
	}
	if filter.Status != 0 {
		args = append(args, filter.Status.String())
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAchievement(row pgx.Row) (Achievement, error) {
	var (
		a          Achievement
		status     string
		verifiedAt *time.Time
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.KPIID, &a.AchievedValue, &a.AchievementDate, &a.Description, &a.EvidenceURL,
		&status, &a.VerifiedBy, &verifiedAt, &a.RejectionReason, &a.CreatedAt); err != nil {
		return Achievement{}, err
	}
	parsed, err := ParseStatus(status)
	if err != nil {
		return Achievement{}, err
	}
	a.Status = parsed
	a.VerifiedAt = verifiedAt
	return a, nil
}
