package org

import (
	"context"
	"errors"
	"testing"
)

func resolverFor(managers map[string]string) ManagerResolver {
	return func(_ context.Context, userID string) (string, error) {
		return managers[userID], nil
	}
}

func TestValidateManagerAssignment(t *testing.T) {
	cases := []struct {
		name     string
		managers map[string]string
		subject  string
		proposed string
		want     error
	}{
		{name: "self", subject: "a", proposed: "a", want: ErrSelfAssignment},
		{name: "root manager", managers: map[string]string{}, subject: "a", proposed: "b"},
		{name: "clear manager", subject: "a", proposed: ""},
		{name: "direct cycle", managers: map[string]string{"c": "b"}, subject: "b", proposed: "c", want: ErrCycleDetected},
		{name: "long cycle", managers: map[string]string{"d": "c", "c": "b", "b": "a"}, subject: "a", proposed: "d", want: ErrCycleDetected},
		{name: "unrelated chain", managers: map[string]string{"d": "c", "c": "x"}, subject: "a", proposed: "d"},
		{name: "existing loop above", managers: map[string]string{"d": "e", "e": "f", "f": "e"}, subject: "a", proposed: "d"},
		{name: "reassign within chain", managers: map[string]string{"b": "a", "c": "b"}, subject: "c", proposed: "a"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateManagerAssignment(context.Background(), tc.subject, tc.proposed, resolverFor(tc.managers))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateManagerAssignmentResolverError(t *testing.T) {
	boom := errors.New("boom")
	resolve := func(context.Context, string) (string, error) { return "", boom }
	if err := ValidateManagerAssignment(context.Background(), "a", "b", resolve); !errors.Is(err, boom) {
		t.Fatalf("expected resolver error, got %v", err)
	}
}

func TestValidateManagerAssignmentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ValidateManagerAssignment(ctx, "a", "b", resolverFor(map[string]string{"b": "c"}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInChain(t *testing.T) {
	managers := map[string]string{"rep": "manager", "manager": "director", "loop1": "loop2", "loop2": "loop1"}
	cases := []struct {
		manager string
		user    string
		want    bool
	}{
		{manager: "manager", user: "rep", want: true},
		{manager: "director", user: "rep", want: true},
		{manager: "rep", user: "manager", want: false},
		{manager: "rep", user: "rep", want: false},
		{manager: "director", user: "loop1", want: false},
	}
	for _, tc := range cases {
		got, err := InChain(context.Background(), tc.manager, tc.user, resolverFor(managers))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("InChain(%s, %s): expected %v, got %v", tc.manager, tc.user, tc.want, got)
		}
	}
}
