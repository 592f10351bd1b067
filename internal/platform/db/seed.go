package db

import (
	"context"

	"go.uber.org/zap"

	"kpitracker/internal/domain/org"
	"kpitracker/internal/platform/config"
)

// Seed creates the Admin role and, when SEED_ADMIN_EMAIL is set, the first
// admin user. It is safe to run on every start.
func Seed(ctx context.Context, svc *org.Service, cfg config.Config) (org.BootstrapResult, error) {
	result, err := svc.Bootstrap(ctx, cfg.SeedAdminName, cfg.SeedAdminEmail)
	if err != nil {
		return org.BootstrapResult{}, err
	}
	if result.RoleCreated {
		zap.L().Info("admin role created", zap.String("roleId", result.AdminRole.ID))
	}
	if result.UserCreated {
		zap.L().Info("admin user created", zap.String("userId", result.AdminUser.ID), zap.String("email", result.AdminUser.Email))
	}
	return result, nil
}
