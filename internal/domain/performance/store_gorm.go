package performance

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type kpiRow struct {
	ID              string    `gorm:"column:id;primaryKey"`
	Name            string    `gorm:"column:name"`
	Description     string    `gorm:"column:description"`
	Category        string    `gorm:"column:category"`
	RoleID          string    `gorm:"column:role_id"`
	TargetValue     float64   `gorm:"column:target_value"`
	Weightage       float64   `gorm:"column:weightage"`
	MeasurementType string    `gorm:"column:measurement_type"`
	Period          string    `gorm:"column:period"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (kpiRow) TableName() string { return "kpis" }

type overrideRow struct {
	ID                string    `gorm:"column:id;primaryKey"`
	UserID            string    `gorm:"column:user_id"`
	KPIID             string    `gorm:"column:kpi_id"`
	CustomTargetValue float64   `gorm:"column:custom_target_value"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (overrideRow) TableName() string { return "kpi_overrides" }

// achievementRow keeps the date as YYYY-MM-DD text so range filters compare lexically.
type achievementRow struct {
	ID              string     `gorm:"column:id;primaryKey"`
	UserID          string     `gorm:"column:user_id"`
	KPIID           string     `gorm:"column:kpi_id"`
	AchievedValue   float64    `gorm:"column:achieved_value"`
	AchievementDate string     `gorm:"column:achievement_date"`
	Description     string     `gorm:"column:description"`
	EvidenceURL     string     `gorm:"column:evidence_url"`
	Status          string     `gorm:"column:status"`
	VerifiedBy      *string    `gorm:"column:verified_by"`
	VerifiedAt      *time.Time `gorm:"column:verified_at"`
	RejectionReason *string    `gorm:"column:rejection_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
}

func (achievementRow) TableName() string { return "achievements" }

type userRef struct {
	ID        string  `gorm:"column:id;primaryKey"`
	RoleID    *string `gorm:"column:role_id"`
	ManagerID *string `gorm:"column:manager_id"`
}

func (userRef) TableName() string { return "users" }

// GormStore is the SQLite implementation of StoreAPI.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) user(ctx context.Context, userID string) (*userRef, error) {
	var rows []userRef
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrUserNotFound
	}
	return &rows[0], nil
}

func (s *GormStore) UserRoleID(ctx context.Context, userID string) (string, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return "", err
	}
	return deref(u.RoleID), nil
}

func (s *GormStore) ManagerOf(ctx context.Context, userID string) (string, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return "", err
	}
	return deref(u.ManagerID), nil
}

func (s *GormStore) UserExists(ctx context.Context, userID string) (bool, error) {
	return s.exists(ctx, "users", userID)
}

func (s *GormStore) RoleExists(ctx context.Context, roleID string) (bool, error) {
	return s.exists(ctx, "roles", roleID)
}

func (s *GormStore) KPIExists(ctx context.Context, kpiID string) (bool, error) {
	return s.exists(ctx, "kpis", kpiID)
}

func (s *GormStore) exists(ctx context.Context, table, id string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) KPIsForRole(ctx context.Context, roleID string) ([]KPI, error) {
	var rows []kpiRow
	if err := s.DB.WithContext(ctx).Where("role_id = ?", roleID).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return kpisFromRows(rows)
}

func (s *GormStore) ListKPIs(ctx context.Context, roleID string) ([]KPI, error) {
	if roleID != "" {
		return s.KPIsForRole(ctx, roleID)
	}
	var rows []kpiRow
	if err := s.DB.WithContext(ctx).Order("role_id, created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return kpisFromRows(rows)
}

// CreateKPI runs the weightage check and the insert in one transaction.
// SQLite admits a single writer, so a concurrent creator fails instead of
// committing past the cap.
func (s *GormStore) CreateKPI(ctx context.Context, kpi KPI) (KPI, error) {
	row := kpiRow{
		ID:              kpi.ID,
		Name:            kpi.Name,
		Description:     kpi.Description,
		Category:        kpi.Category,
		RoleID:          kpi.RoleID,
		TargetValue:     kpi.TargetValue,
		Weightage:       kpi.Weightage,
		MeasurementType: kpi.MeasurementType.String(),
		Period:          kpi.Period.String(),
		CreatedAt:       kpi.CreatedAt,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current float64
		if err := tx.Model(&kpiRow{}).
			Select("COALESCE(SUM(weightage), 0)").
			Where("role_id = ? AND period = ?", row.RoleID, row.Period).
			Scan(&current).Error; err != nil {
			return err
		}
		if err := CheckWeightage(current, kpi.Weightage); err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return KPI{}, err
	}
	return kpi, nil
}

func (s *GormStore) OverrideFor(ctx context.Context, userID, kpiID string) (*Override, error) {
	var rows []overrideRow
	if err := s.DB.WithContext(ctx).Where("user_id = ? AND kpi_id = ?", userID, kpiID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	o := overrideFromRow(rows[0])
	return &o, nil
}

func (s *GormStore) UpsertOverride(ctx context.Context, o Override) (Override, bool, error) {
	row := overrideRow{
		ID:                o.ID,
		UserID:            o.UserID,
		KPIID:             o.KPIID,
		CustomTargetValue: o.CustomTargetValue,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	db := s.DB.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kpi_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"custom_target_value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return Override{}, false, err
	}
	var stored overrideRow
	if err := db.Where("user_id = ? AND kpi_id = ?", o.UserID, o.KPIID).Take(&stored).Error; err != nil {
		return Override{}, false, err
	}
	return overrideFromRow(stored), stored.ID == o.ID, nil
}

func (s *GormStore) VerifiedAchievementSum(ctx context.Context, userID, kpiID string, period Period) (float64, error) {
	start, end := period.Bounds()
	var total float64
	err := s.DB.WithContext(ctx).Model(&achievementRow{}).
		Select("COALESCE(SUM(achieved_value), 0)").
		Where("user_id = ? AND kpi_id = ? AND status = ?", userID, kpiID, StatusVerified.String()).
		Where("achievement_date >= ? AND achievement_date < ?", start.Format(dateLayout), end.Format(dateLayout)).
		Scan(&total).Error
	return total, err
}

func (s *GormStore) InsertAchievement(ctx context.Context, a Achievement) error {
	row := achievementRow{
		ID:              a.ID,
		UserID:          a.UserID,
		KPIID:           a.KPIID,
		AchievedValue:   a.AchievedValue,
		AchievementDate: a.AchievementDate.Format(dateLayout),
		Description:     a.Description,
		EvidenceURL:     a.EvidenceURL,
		Status:          a.Status.String(),
		CreatedAt:       a.CreatedAt,
	}
	return s.DB.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) GetAchievement(ctx context.Context, achievementID string) (Achievement, error) {
	var rows []achievementRow
	if err := s.DB.WithContext(ctx).Where("id = ?", achievementID).Limit(1).Find(&rows).Error; err != nil {
		return Achievement{}, err
	}
	if len(rows) == 0 {
		return Achievement{}, ErrAchievementNotFound
	}
	return achievementFromRow(rows[0])
}

func (s *GormStore) TransitionAchievement(ctx context.Context, t Transition) (bool, error) {
	var reason *string
	if t.RejectionReason != "" {
		reason = &t.RejectionReason
	}
	res := s.DB.WithContext(ctx).Model(&achievementRow{}).
		Where("id = ? AND status = ?", t.AchievementID, StatusPending.String()).
		Updates(map[string]any{
			"status":           t.To.String(),
			"verified_by":      t.VerifiedBy,
			"verified_at":      t.VerifiedAt,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ListAchievements(ctx context.Context, filter AchievementFilter) ([]Achievement, error) {
	q := s.DB.WithContext(ctx).Model(&achievementRow{})
	if filter.VisibleTo != "" {
		q = q.Where("user_id = ? OR user_id IN (SELECT id FROM users WHERE manager_id = ?)", filter.VisibleTo, filter.VisibleTo)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.KPIID != "" {
		q = q.Where("kpi_id = ?", filter.KPIID)
	}
	if filter.Status != 0 {
		q = q.Where("status = ?", filter.Status.String())
	}
	var rows []achievementRow
	if err := q.Order("created_at DESC, id").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Achievement, 0, len(rows))
	for _, row := range rows {
		a, err := achievementFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func kpisFromRows(rows []kpiRow) ([]KPI, error) {
	out := make([]KPI, 0, len(rows))
	for _, row := range rows {
		measurement, err := ParseMeasurementType(row.MeasurementType)
		if err != nil {
			return nil, err
		}
		period, err := ParseCadence(row.Period)
		if err != nil {
			return nil, err
		}
		out = append(out, KPI{
			ID:              row.ID,
			Name:            row.Name,
			Description:     row.Description,
			Category:        row.Category,
			RoleID:          row.RoleID,
			TargetValue:     row.TargetValue,
			Weightage:       row.Weightage,
			MeasurementType: measurement,
			Period:          period,
			CreatedAt:       row.CreatedAt,
		})
	}
	return out, nil
}

func overrideFromRow(row overrideRow) Override {
	return Override{
		ID:                row.ID,
		UserID:            row.UserID,
		KPIID:             row.KPIID,
		CustomTargetValue: row.CustomTargetValue,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func achievementFromRow(row achievementRow) (Achievement, error) {
	status, err := ParseStatus(row.Status)
	if err != nil {
		return Achievement{}, err
	}
	date, err := time.Parse(dateLayout, row.AchievementDate)
	if err != nil {
		return Achievement{}, err
	}
	return Achievement{
		ID:              row.ID,
		UserID:          row.UserID,
		KPIID:           row.KPIID,
		AchievedValue:   row.AchievedValue,
		AchievementDate: date,
		Description:     row.Description,
		EvidenceURL:     row.EvidenceURL,
		Status:          status,
		VerifiedBy:      deref(row.VerifiedBy),
		VerifiedAt:      row.VerifiedAt,
		RejectionReason: deref(row.RejectionReason),
		CreatedAt:       row.CreatedAt,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
