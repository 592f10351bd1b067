package org

import (
	"context"
	"errors"
)

var (
	ErrSelfAssignment = errors.New("a user cannot be their own manager")
	ErrCycleDetected  = errors.New("manager assignment would create a reporting cycle")
)

// ManagerResolver returns the manager of userID, or "" when the user has none.
type ManagerResolver func(ctx context.Context, userID string) (string, error)

// ValidateManagerAssignment checks that making proposedManagerID the manager
// of subjectID keeps the reporting graph acyclic. It walks up from the
// proposed manager and fails if the walk reaches the subject. A loop already
// present above the proposed manager ends the walk without error, since the
// new edge does not take part in it. An empty proposed manager is always valid.
func ValidateManagerAssignment(ctx context.Context, subjectID, proposedManagerID string, resolve ManagerResolver) error {
	if proposedManagerID == "" {
		return nil
	}
	if subjectID == proposedManagerID {
		return ErrSelfAssignment
	}

	visited := make(map[string]struct{})
	for current := proposedManagerID; current != ""; {
		if current == subjectID {
			return ErrCycleDetected
		}
		if _, seen := visited[current]; seen {
			return nil
		}
		visited[current] = struct{}{}
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := resolve(ctx, current)
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

// InChain reports whether managerID appears above userID in the reporting line.
func InChain(ctx context.Context, managerID, userID string, resolve ManagerResolver) (bool, error) {
	if managerID == "" || userID == "" {
		return false, nil
	}
	visited := map[string]struct{}{userID: {}}
	current, err := resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	for current != "" {
		if current == managerID {
			return true, nil
		}
		if _, seen := visited[current]; seen {
			return false, nil
		}
		visited[current] = struct{}{}
		if current, err = resolve(ctx, current); err != nil {
			return false, err
		}
	}
	return false, nil
}
