package audit

import "context"

type StoreAPI interface {
	InsertEvent(ctx context.Context, evt Event) error
	CountEvents(ctx context.Context, filter Filter) (int, error)
	ListEvents(ctx context.Context, filter Filter, limit, offset int) ([]Event, error)
}
