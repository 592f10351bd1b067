package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const userColumns = `u.id, u.full_name, u.email, COALESCE(u.role_id, ''), COALESCE(r.name, ''),
    COALESCE(u.manager_id, ''), u.is_active, u.created_at`

const userFrom = " FROM users u LEFT JOIN roles r ON r.id = u.role_id"

func (s *Store) CreateRole(ctx context.Context, role Role) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO roles (id, name, description, created_at)
    VALUES ($1,$2,$3,$4)
  `, role.ID, role.Name, role.Description, role.CreatedAt)
	return err
}

func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, description, created_at FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, roleID string) (Role, error) {
	return s.role(ctx, "SELECT id, name, description, created_at FROM roles WHERE id = $1", roleID)
}

func (s *Store) RoleByName(ctx context.Context, name string) (Role, error) {
	return s.role(ctx, "SELECT id, name, description, created_at FROM roles WHERE name = $1", name)
}

func (s *Store) role(ctx context.Context, query, arg string) (Role, error) {
	var role Role
	err := s.DB.QueryRow(ctx, query, arg).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	return role, err
}

func (s *Store) CreateUser(ctx context.Context, user User) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (id, full_name, email, role_id, manager_id, is_active, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, user.ID, user.FullName, user.Email, nullable(user.RoleID), nullable(user.ManagerID), user.IsActive, user.CreatedAt)
	return err
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	return s.user(ctx, "SELECT "+userColumns+userFrom+" WHERE u.id = $1", userID)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.user(ctx, "SELECT "+userColumns+userFrom+" WHERE u.email = $1", email)
}

func (s *Store) user(ctx context.Context, query, arg string) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, query, arg).Scan(&u.ID, &u.FullName, &u.Email, &u.RoleID, &u.RoleName, &u.ManagerID, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	return s.userList(ctx, "SELECT "+userColumns+userFrom+" ORDER BY u.full_name, u.id LIMIT $1 OFFSET $2", limit, offset)
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total)
	return total, err
}

func (s *Store) ListReports(ctx context.Context, managerID string) ([]User, error) {
	return s.userList(ctx, "SELECT "+userColumns+userFrom+" WHERE u.manager_id = $1 ORDER BY u.full_name, u.id", managerID)
}

func (s *Store) userList(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.RoleID, &u.RoleName, &u.ManagerID, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) ManagerOf(ctx context.Context, userID string) (string, error) {
	return managerOf(ctx, s.DB, userID)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func managerOf(ctx context.Context, q querier, userID string) (string, error) {
	var managerID string
	err := q.QueryRow(ctx, "SELECT COALESCE(manager_id, '') FROM users WHERE id = $1", userID).Scan(&managerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return managerID, err
}

func (s *Store) ReassignManager(ctx context.Context, userID, managerID string, check func(context.Context, ManagerResolver) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext('org-hierarchy'))"); err != nil {
		return err
	}
	resolve := func(ctx context.Context, id string) (string, error) {
		return managerOf(ctx, tx, id)
	}
	if err := check(ctx, resolve); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, "UPDATE users SET manager_id = $1 WHERE id = $2", nullable(managerID), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return tx.Commit(ctx)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
