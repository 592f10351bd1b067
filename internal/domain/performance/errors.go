package performance

import (
	"fmt"

	"kpitracker/internal/domain/errs"
)

var (
	ErrAchievementNotFound = errs.NotFound("achievement")
	ErrKPINotFound         = errs.NotFound("kpi")
	ErrUserNotFound        = errs.NotFound("user")
	ErrRoleNotFound        = errs.NotFound("role")

	ErrNotPending   = fmt.Errorf("%w: achievement is not pending", errs.ErrInvalidState)
	ErrNotVerifier  = fmt.Errorf("%w: only the submitter's direct manager or an admin may verify", errs.ErrForbidden)
	ErrAdminOnly    = fmt.Errorf("%w: admin role required", errs.ErrForbidden)
	ErrBadDecision  = errs.Validation("decision must be VERIFIED or REJECTED")
	ErrNoReason     = errs.Validation("rejection reason is required")
	ErrUnknownKPI   = errs.Validation("kpi does not exist")
	ErrBadValue     = errs.Validation("achieved value must be a non-negative number")
	ErrOutsideMonth = errs.Validation("achievement date must be in the current month")
)
