package org

import "context"

type StoreAPI interface {
	CreateRole(ctx context.Context, role Role) error
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, roleID string) (Role, error)
	// RoleByName returns ErrRoleNotFound when no role has that name.
	RoleByName(ctx context.Context, name string) (Role, error)

	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, userID string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	// ListUsers returns users ordered by name, then id.
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	ListReports(ctx context.Context, managerID string) ([]User, error)
	ManagerOf(ctx context.Context, userID string) (string, error)

	// ReassignManager runs check against the current hierarchy and, if it
	// passes, stores the new manager. Both happen under one write lock so two
	// concurrent reassignments cannot jointly close a loop.
	ReassignManager(ctx context.Context, userID, managerID string, check func(context.Context, ManagerResolver) error) error
}
