package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenServicesRestoresLogger(t *testing.T) {
	ctx := context.Background()
	prev := zap.L()

	_, svc, closeServices, err := openServices(ctx, "sqlite://"+filepath.Join(t.TempDir(), "kpi.db"))
	require.NoError(t, err)
	require.NotSame(t, prev, zap.L())

	result, err := svc.Org.Bootstrap(ctx, "Root", "root@example.com")
	require.NoError(t, err)
	require.True(t, result.UserCreated)

	closeServices()
	require.Same(t, prev, zap.L())
}

func TestOpenServicesFailureRestoresLogger(t *testing.T) {
	prev := zap.L()
	_, _, closeServices, err := openServices(context.Background(), "mysql://localhost/kpi")
	require.Error(t, err)
	require.Nil(t, closeServices)
	require.Same(t, prev, zap.L())
}
