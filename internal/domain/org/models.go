package org

import (
	"time"

	"kpitracker/internal/domain/audit"
)

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	RoleID    string    `json:"roleId,omitempty"`
	RoleName  string    `json:"roleName,omitempty"`
	ManagerID string    `json:"managerId,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserInput struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	RoleID    string `json:"roleId"`
	ManagerID string `json:"managerId"`
}

type RoleResult struct {
	Role  Role
	Event audit.Event
}

type UserResult struct {
	User  User
	Event audit.Event
}

type BootstrapResult struct {
	AdminRole   Role  `json:"adminRole"`
	AdminUser   *User `json:"adminUser,omitempty"`
	RoleCreated bool  `json:"roleCreated"`
	UserCreated bool  `json:"userCreated"`
}
