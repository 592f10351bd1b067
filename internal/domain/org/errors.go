package org

import (
	"fmt"

	"kpitracker/internal/domain/errs"
)

var (
	ErrUserNotFound    = errs.NotFound("user")
	ErrRoleNotFound    = errs.NotFound("role")
	ErrManagerNotFound = errs.NotFound("manager")
	ErrAdminOnly       = fmt.Errorf("%w: admin role required", errs.ErrForbidden)
)
