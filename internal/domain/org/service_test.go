package org_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/domain/errs"
	"kpitracker/internal/domain/org"
	"kpitracker/internal/platform/dbtest"
)

type fixture struct {
	ctx   context.Context
	svc   *org.Service
	admin auth.Actor
	role  org.Role
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := dbtest.SQLite(t)
	ctx := context.Background()
	svc := org.NewService(org.NewGormStore(h.Gorm))

	boot, err := svc.Bootstrap(ctx, "Root", "root@example.com")
	require.NoError(t, err)
	require.True(t, boot.RoleCreated)
	require.True(t, boot.UserCreated)
	admin := auth.Actor{UserID: boot.AdminUser.ID, RoleID: boot.AdminRole.ID, RoleName: boot.AdminRole.Name}

	role, err := svc.CreateRole(ctx, admin, "SDR", "Sales development")
	require.NoError(t, err)
	return &fixture{ctx: ctx, svc: svc, admin: admin, role: role.Role}
}

func (f *fixture) user(t *testing.T, name, managerID string) org.User {
	t.Helper()
	res, err := f.svc.CreateUser(f.ctx, f.admin, org.UserInput{
		FullName: name, Email: name + "@example.com", RoleID: f.role.ID, ManagerID: managerID,
	})
	require.NoError(t, err)
	return res.User
}

func TestBootstrapIsIdempotent(t *testing.T) {
	f := newFixture(t)
	again, err := f.svc.Bootstrap(f.ctx, "Root", "root@example.com")
	require.NoError(t, err)
	require.False(t, again.RoleCreated)
	require.False(t, again.UserCreated)
	require.Equal(t, f.admin.UserID, again.AdminUser.ID)

	actor, err := f.svc.ActorFor(f.ctx, f.admin.UserID)
	require.NoError(t, err)
	require.True(t, actor.IsAdmin())
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	boss := f.user(t, "boss", "")

	res, err := f.svc.CreateUser(f.ctx, f.admin, org.UserInput{
		FullName: " Rep One ", Email: "REP@Example.com", RoleID: f.role.ID, ManagerID: boss.ID,
	})
	require.NoError(t, err)
	require.Equal(t, audit.ActionCreate, res.Event.Action)

	got, err := f.svc.GetUser(f.ctx, res.User.ID)
	require.NoError(t, err)
	want := org.User{
		ID: res.User.ID, FullName: "Rep One", Email: "rep@example.com",
		RoleID: f.role.ID, RoleName: "SDR", ManagerID: boss.ID, IsActive: true,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(org.User{}, "CreatedAt")); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}

	cases := []struct {
		name  string
		actor auth.Actor
		in    org.UserInput
		want  error
	}{
		{name: "not admin", actor: auth.Actor{UserID: boss.ID, RoleName: "SDR"}, in: org.UserInput{FullName: "x", Email: "x@example.com"}, want: errs.ErrForbidden},
		{name: "duplicate email", actor: f.admin, in: org.UserInput{FullName: "x", Email: "rep@example.com"}, want: errs.ErrValidation},
		{name: "bad email", actor: f.admin, in: org.UserInput{FullName: "x", Email: "nope"}, want: errs.ErrValidation},
		{name: "missing name", actor: f.admin, in: org.UserInput{Email: "y@example.com"}, want: errs.ErrValidation},
		{name: "unknown role", actor: f.admin, in: org.UserInput{FullName: "x", Email: "z@example.com", RoleID: "nope"}, want: errs.ErrNotFound},
		{name: "unknown manager", actor: f.admin, in: org.UserInput{FullName: "x", Email: "w@example.com", ManagerID: "nope"}, want: errs.ErrNotFound},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateUser(f.ctx, tc.actor, tc.in)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateRoleRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateRole(f.ctx, f.admin, "SDR", "")
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.svc.CreateRole(f.ctx, f.admin, "  ", "")
	require.ErrorIs(t, err, errs.ErrValidation)

	roles, err := f.svc.ListRoles(f.ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
}

func TestAssignManagerRejectsCycle(t *testing.T) {
	f := newFixture(t)
	b := f.user(t, "b", "")
	c := f.user(t, "c", b.ID)

	_, err := f.svc.AssignManager(f.ctx, f.admin, b.ID, c.ID)
	require.ErrorIs(t, err, org.ErrCycleDetected)

	_, err = f.svc.AssignManager(f.ctx, f.admin, b.ID, b.ID)
	require.ErrorIs(t, err, org.ErrSelfAssignment)

	stored, err := f.svc.GetUser(f.ctx, b.ID)
	require.NoError(t, err)
	require.Empty(t, stored.ManagerID, "rejected assignment must not be written")
}

func TestAssignManager(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a", "")
	b := f.user(t, "b", "")

	res, err := f.svc.AssignManager(f.ctx, f.admin, b.ID, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, res.User.ManagerID)
	require.Equal(t, audit.ActionUpdate, res.Event.Action)

	reports, err := f.svc.ListReports(f.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, b.ID, reports[0].ID)

	_, err = f.svc.AssignManager(f.ctx, f.admin, b.ID, "")
	require.NoError(t, err)
	reports, err = f.svc.ListReports(f.ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, reports)

	_, err = f.svc.AssignManager(f.ctx, auth.Actor{UserID: a.ID, RoleName: "SDR"}, b.ID, a.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.svc.AssignManager(f.ctx, f.admin, "ghost", a.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.svc.AssignManager(f.ctx, f.admin, b.ID, "ghost")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCanView(t *testing.T) {
	f := newFixture(t)
	director := f.user(t, "director", "")
	manager := f.user(t, "manager", director.ID)
	rep := f.user(t, "rep", manager.ID)
	peer := f.user(t, "peer", director.ID)

	actor := func(u org.User) auth.Actor { return auth.Actor{UserID: u.ID, RoleName: "SDR"} }
	cases := []struct {
		name   string
		viewer auth.Actor
		want   bool
	}{
		{name: "self", viewer: actor(rep), want: true},
		{name: "manager", viewer: actor(manager), want: true},
		{name: "director", viewer: actor(director), want: true},
		{name: "peer", viewer: actor(peer), want: false},
		{name: "admin", viewer: f.admin, want: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ok, err := f.svc.CanView(f.ctx, tc.viewer, rep.ID)
			require.NoError(t, err)
			require.Equal(t, tc.want, ok)
		})
	}
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	c := f.user(t, "c", "")
	a := f.user(t, "a", c.ID)
	b := f.user(t, "b", "")

	all, total, err := f.svc.ListUsers(f.ctx, f.admin, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 4, total)
	names := make([]string, 0, len(all))
	for _, u := range all {
		names = append(names, u.FullName)
	}
	require.Equal(t, []string{"Root", "a", "b", "c"}, names)
	require.Equal(t, c.ID, all[1].ManagerID)
	require.Equal(t, "SDR", all[1].RoleName)

	page, total, err := f.svc.ListUsers(f.ctx, f.admin, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, page, 2)
	require.Equal(t, a.ID, page[0].ID)
	require.Equal(t, b.ID, page[1].ID)

	_, _, err = f.svc.ListUsers(f.ctx, auth.Actor{UserID: a.ID, RoleName: "SDR"}, 10, 0)
	require.ErrorIs(t, err, org.ErrAdminOnly)
	require.ErrorIs(t, err, errs.ErrForbidden)
}
