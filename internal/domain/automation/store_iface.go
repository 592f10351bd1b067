package automation

import "context"

type StoreAPI interface {
	InsertRule(ctx context.Context, rule Rule) error
	ListRules(ctx context.Context, filter RuleFilter) ([]Rule, error)
}
