package auth

const (
	PermRolesRead         = "org.roles.read"
	PermRolesWrite        = "org.roles.write"
	PermUsersRead         = "org.users.read"
	PermUsersWrite        = "org.users.write"
	PermHierarchyWrite    = "org.hierarchy.write"
	PermKPIRead           = "kpi.read"
	PermKPIWrite          = "kpi.write"
	PermAchievementRead   = "achievement.read"
	PermAchievementWrite  = "achievement.write"
	PermAchievementVerify = "achievement.verify"
	PermScoreRead         = "score.read"
	PermEvaluationRun     = "automation.evaluate"
	PermEvaluationRead    = "automation.read"
	PermAuditRead         = "audit.read"
)

var DefaultPermissions = []string{
	PermRolesRead,
	PermRolesWrite,
	PermUsersRead,
	PermUsersWrite,
	PermHierarchyWrite,
	PermKPIRead,
	PermKPIWrite,
	PermAchievementRead,
	PermAchievementWrite,
	PermAchievementVerify,
	PermScoreRead,
	PermEvaluationRun,
	PermEvaluationRead,
	PermAuditRead,
}

// MemberPermissions apply to every non-admin role. KPI roles are created at
// runtime, so they are not enumerated here.
var MemberPermissions = []string{
	PermRolesRead,
	PermUsersRead,
	PermKPIRead,
	PermAchievementRead,
	PermAchievementWrite,
	PermAchievementVerify,
	PermScoreRead,
}

func HasPermission(roleName, permission string) bool {
	if roleName == RoleAdmin {
		for _, p := range DefaultPermissions {
			if p == permission {
				return true
			}
		}
		return false
	}
	for _, p := range MemberPermissions {
		if p == permission {
			return true
		}
	}
	return false
}
