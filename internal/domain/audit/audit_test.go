package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/errs"
	"kpitracker/internal/platform/dbtest"
)

func TestRecordAndList(t *testing.T) {
	h := dbtest.SQLite(t)
	ctx := context.Background()
	base := time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	svc := audit.New(audit.NewGormStore(h.Gorm)).WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	require.NoError(t, svc.Record(ctx, audit.NewEvent("admin", audit.ActionCreate, audit.EntityKPI, "k1", "kpi %q created", "Calls"), "req-1"))
	require.NoError(t, svc.Record(ctx, audit.NewEvent("mgr", audit.ActionVerify, audit.EntityAchievement, "a1", "verified"), "req-2"))
	require.NoError(t, svc.Record(ctx, audit.NewEvent("admin", audit.ActionUpdate, audit.EntityUser, "u1", "manager set"), "req-3"))

	all, err := svc.List(ctx, audit.Filter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "u1", all[0].EntityID, "newest first")
	require.Equal(t, `kpi "Calls" created`, all[2].Description)
	require.Equal(t, "req-1", all[2].RequestID)
	require.NotEmpty(t, all[2].ID)

	byAdmin, err := svc.List(ctx, audit.Filter{ActorID: "admin"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, byAdmin, 2)

	total, err := svc.Count(ctx, audit.Filter{Action: audit.ActionVerify, Entity: audit.EntityAchievement})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	page, err := svc.List(ctx, audit.Filter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "a1", page[0].EntityID)
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	svc := audit.New(nil)
	err := svc.Record(context.Background(), audit.Event{Action: "DELETE", Entity: audit.EntityKPI}, "")
	require.ErrorIs(t, err, errs.ErrValidation)
}
