package performance

import (
	"context"
)

type StoreAPI interface {
	// UserRoleID returns "" for a user without a role and ErrUserNotFound for an unknown user.
	UserRoleID(ctx context.Context, userID string) (string, error)
	// ManagerOf returns "" for a user without a manager.
	ManagerOf(ctx context.Context, userID string) (string, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	RoleExists(ctx context.Context, roleID string) (bool, error)

	KPIsForRole(ctx context.Context, roleID string) ([]KPI, error)
	ListKPIs(ctx context.Context, roleID string) ([]KPI, error)
	KPIExists(ctx context.Context, kpiID string) (bool, error)
	// CreateKPI rejects the insert when it would push the role's total
	// weightage for the period past MaxRoleWeightage.
	CreateKPI(ctx context.Context, kpi KPI) (KPI, error)

	// OverrideFor returns nil when the user has no override for the KPI.
	OverrideFor(ctx context.Context, userID, kpiID string) (*Override, error)
	UpsertOverride(ctx context.Context, o Override) (Override, bool, error)

	VerifiedAchievementSum(ctx context.Context, userID, kpiID string, period Period) (float64, error)
	InsertAchievement(ctx context.Context, a Achievement) error
	GetAchievement(ctx context.Context, achievementID string) (Achievement, error)
	// TransitionAchievement applies t only if the achievement is still
	// pending and reports whether a row changed.
	TransitionAchievement(ctx context.Context, t Transition) (bool, error)
	ListAchievements(ctx context.Context, filter AchievementFilter) ([]Achievement, error)
}
