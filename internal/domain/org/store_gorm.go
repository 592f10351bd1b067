package org

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type roleRow struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (roleRow) TableName() string { return "roles" }

type userRow struct {
	ID        string    `gorm:"column:id;primaryKey"`
	FullName  string    `gorm:"column:full_name"`
	Email     string    `gorm:"column:email"`
	RoleID    *string   `gorm:"column:role_id"`
	ManagerID *string   `gorm:"column:manager_id"`
	IsActive  bool      `gorm:"column:is_active"`
	CreatedAt time.Time `gorm:"column:created_at"`
	RoleName  string    `gorm:"column:role_name;->"`
}

func (userRow) TableName() string { return "users" }

// GormStore is the SQLite implementation of StoreAPI.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) CreateRole(ctx context.Context, role Role) error {
	row := roleRow{ID: role.ID, Name: role.Name, Description: role.Description, CreatedAt: role.CreatedAt}
	return s.DB.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) ListRoles(ctx context.Context) ([]Role, error) {
	var rows []roleRow
	if err := s.DB.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Role, 0, len(rows))
	for _, row := range rows {
		out = append(out, Role(row))
	}
	return out, nil
}

func (s *GormStore) GetRole(ctx context.Context, roleID string) (Role, error) {
	return s.role(ctx, "id = ?", roleID)
}

func (s *GormStore) RoleByName(ctx context.Context, name string) (Role, error) {
	return s.role(ctx, "name = ?", name)
}

func (s *GormStore) role(ctx context.Context, cond string, arg string) (Role, error) {
	var rows []roleRow
	if err := s.DB.WithContext(ctx).Where(cond, arg).Limit(1).Find(&rows).Error; err != nil {
		return Role{}, err
	}
	if len(rows) == 0 {
		return Role{}, ErrRoleNotFound
	}
	return Role(rows[0]), nil
}

func (s *GormStore) CreateUser(ctx context.Context, user User) error {
	row := userRow{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		RoleID:    optional(user.RoleID),
		ManagerID: optional(user.ManagerID),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
	return s.DB.WithContext(ctx).Omit("role_name").Create(&row).Error
}

func (s *GormStore) users(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).
		Table("users").
		Select("users.*, COALESCE(roles.name, '') AS role_name").
		Joins("LEFT JOIN roles ON roles.id = users.role_id")
}

func (s *GormStore) GetUser(ctx context.Context, userID string) (User, error) {
	return s.user(ctx, "users.id = ?", userID)
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.user(ctx, "users.email = ?", email)
}

func (s *GormStore) user(ctx context.Context, cond string, arg string) (User, error) {
	var rows []userRow
	if err := s.users(ctx).Where(cond, arg).Limit(1).Find(&rows).Error; err != nil {
		return User{}, err
	}
	if len(rows) == 0 {
		return User{}, ErrUserNotFound
	}
	return userFromRow(rows[0]), nil
}

func (s *GormStore) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	return userList(s.users(ctx).Order("users.full_name, users.id").Limit(limit).Offset(offset))
}

func (s *GormStore) CountUsers(ctx context.Context) (int, error) {
	var total int64
	err := s.DB.WithContext(ctx).Table("users").Count(&total).Error
	return int(total), err
}

func (s *GormStore) ListReports(ctx context.Context, managerID string) ([]User, error) {
	return userList(s.users(ctx).Where("users.manager_id = ?", managerID).Order("users.full_name, users.id"))
}

func userList(q *gorm.DB) ([]User, error) {
	var rows []userRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userFromRow(row))
	}
	return out, nil
}

func (s *GormStore) ManagerOf(ctx context.Context, userID string) (string, error) {
	return gormManagerOf(ctx, s.DB, userID)
}

func gormManagerOf(ctx context.Context, db *gorm.DB, userID string) (string, error) {
	var rows []userRow
	if err := db.WithContext(ctx).Select("id", "manager_id").Where("id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrUserNotFound
	}
	if rows[0].ManagerID == nil {
		return "", nil
	}
	return *rows[0].ManagerID, nil
}

func (s *GormStore) ReassignManager(ctx context.Context, userID, managerID string, check func(context.Context, ManagerResolver) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolve := func(ctx context.Context, id string) (string, error) {
			return gormManagerOf(ctx, tx, id)
		}
		if err := check(ctx, resolve); err != nil {
			return err
		}
		res := tx.Model(&userRow{}).Where("id = ?", userID).Update("manager_id", optional(managerID))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func userFromRow(row userRow) User {
	u := User{
		ID:        row.ID,
		FullName:  row.FullName,
		Email:     row.Email,
		RoleName:  row.RoleName,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
	}
	if row.RoleID != nil {
		u.RoleID = *row.RoleID
	}
	if row.ManagerID != nil {
		u.ManagerID = *row.ManagerID
	}
	return u
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
