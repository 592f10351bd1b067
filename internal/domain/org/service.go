package org

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/domain/errs"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) CreateRole(ctx context.Context, actor auth.Actor, name, description string) (RoleResult, error) {
	if !actor.IsAdmin() {
		return RoleResult{}, ErrAdminOnly
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return RoleResult{}, errs.Validation("name is required")
	}
	if _, err := s.store.RoleByName(ctx, name); err == nil {
		return RoleResult{}, errs.Validation("role %q already exists", name)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return RoleResult{}, err
	}

	role := Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateRole(ctx, role); err != nil {
		return RoleResult{}, err
	}
	evt := audit.NewEvent(actor.UserID, audit.ActionCreate, audit.EntityRole, role.ID, "role %q created", role.Name)
	return RoleResult{Role: role, Event: evt}, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []Role{}
	}
	return roles, nil
}

func (s *Service) CreateUser(ctx context.Context, actor auth.Actor, in UserInput) (UserResult, error) {
	if !actor.IsAdmin() {
		return UserResult{}, ErrAdminOnly
	}
	user, err := s.newUser(ctx, in)
	if err != nil {
		return UserResult{}, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return UserResult{}, err
	}
	evt := audit.NewEvent(actor.UserID, audit.ActionCreate, audit.EntityUser, user.ID, "user %s created", user.Email)
	return UserResult{User: user, Event: evt}, nil
}

func (s *Service) newUser(ctx context.Context, in UserInput) (User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.RoleID = strings.TrimSpace(in.RoleID)
	in.ManagerID = strings.TrimSpace(in.ManagerID)
	if in.FullName == "" {
		return User{}, errs.Validation("fullName is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return User{}, errs.Validation("email is invalid")
	}
	if _, err := s.store.UserByEmail(ctx, in.Email); err == nil {
		return User{}, errs.Validation("email %s is already registered", in.Email)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return User{}, err
	}

	user := User{
		ID:        uuid.NewString(),
		FullName:  in.FullName,
		Email:     in.Email,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if in.RoleID != "" {
		role, err := s.store.GetRole(ctx, in.RoleID)
		if err != nil {
			return User{}, err
		}
		user.RoleID = role.ID
		user.RoleName = role.Name
	}
	if in.ManagerID != "" {
		if _, err := s.store.GetUser(ctx, in.ManagerID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return User{}, ErrManagerNotFound
			}
			return User{}, err
		}
		// A fresh user has no reports, so only self-reference can fail here.
		if err := ValidateManagerAssignment(ctx, user.ID, in.ManagerID, s.store.ManagerOf); err != nil {
			return User{}, err
		}
		user.ManagerID = in.ManagerID
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	return s.store.GetUser(ctx, userID)
}

// AssignManager sets or clears the manager of subjectID. An empty managerID clears it.
func (s *Service) AssignManager(ctx context.Context, actor auth.Actor, subjectID, managerID string) (UserResult, error) {
	if !actor.IsAdmin() {
		return UserResult{}, ErrAdminOnly
	}
	managerID = strings.TrimSpace(managerID)
	subject, err := s.store.GetUser(ctx, subjectID)
	if err != nil {
		return UserResult{}, err
	}
	if managerID != "" {
		if _, err := s.store.GetUser(ctx, managerID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return UserResult{}, ErrManagerNotFound
			}
			return UserResult{}, err
		}
	}

	err = s.store.ReassignManager(ctx, subject.ID, managerID, func(ctx context.Context, resolve ManagerResolver) error {
		return ValidateManagerAssignment(ctx, subject.ID, managerID, resolve)
	})
	if err != nil {
		return UserResult{}, err
	}
	subject.ManagerID = managerID

	evt := audit.NewEvent(actor.UserID, audit.ActionUpdate, audit.EntityUser, subject.ID,
		"manager of %s set to %q", subject.ID, managerID)
	return UserResult{User: subject, Event: evt}, nil
}

// ListUsers pages through every user. Only admins may list the directory.
func (s *Service) ListUsers(ctx context.Context, actor auth.Actor, limit, offset int) ([]User, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, ErrAdminOnly
	}
	total, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, 0, err
	}
	users, err := s.store.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if users == nil {
		users = []User{}
	}
	return users, total, nil
}

func (s *Service) ListReports(ctx context.Context, managerID string) ([]User, error) {
	if _, err := s.store.GetUser(ctx, managerID); err != nil {
		return nil, err
	}
	reports, err := s.store.ListReports(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []User{}
	}
	return reports, nil
}

func (s *Service) IsInManagementChain(ctx context.Context, managerID, userID string) (bool, error) {
	return InChain(ctx, managerID, userID, s.store.ManagerOf)
}

// CanView allows a user, anyone above them in the reporting line, and admins.
func (s *Service) CanView(ctx context.Context, actor auth.Actor, userID string) (bool, error) {
	if actor.IsAdmin() || actor.UserID == userID {
		return true, nil
	}
	return s.IsInManagementChain(ctx, actor.UserID, userID)
}

// ActorFor loads the role of userID so callers do not trust a stale token role.
func (s *Service) ActorFor(ctx context.Context, userID string) (auth.Actor, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return auth.Actor{}, err
	}
	return auth.Actor{UserID: user.ID, RoleID: user.RoleID, RoleName: user.RoleName}, nil
}

// Bootstrap makes sure the Admin role exists and, when email is set, an
// admin user holding it. Running it twice changes nothing.
func (s *Service) Bootstrap(ctx context.Context, adminName, adminEmail string) (BootstrapResult, error) {
	var result BootstrapResult
	role, err := s.store.RoleByName(ctx, auth.RoleAdmin)
	switch {
	case err == nil:
		result.AdminRole = role
	case errors.Is(err, errs.ErrNotFound):
		role = Role{
			ID:          uuid.NewString(),
			Name:        auth.RoleAdmin,
			Description: "Full access to roles, users, KPIs and evaluations",
			CreatedAt:   s.now().UTC(),
		}
		if err := s.store.CreateRole(ctx, role); err != nil {
			return BootstrapResult{}, err
		}
		result.AdminRole = role
		result.RoleCreated = true
	default:
		return BootstrapResult{}, err
	}

	adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
	if adminEmail == "" {
		return result, nil
	}
	existing, err := s.store.UserByEmail(ctx, adminEmail)
	if err == nil {
		result.AdminUser = &existing
		return result, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return BootstrapResult{}, err
	}
	if strings.TrimSpace(adminName) == "" {
		adminName = "Administrator"
	}
	user, err := s.newUser(ctx, UserInput{FullName: adminName, Email: adminEmail, RoleID: role.ID})
	if err != nil {
		return BootstrapResult{}, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return BootstrapResult{}, err
	}
	result.AdminUser = &user
	result.UserCreated = true
	return result, nil
}
