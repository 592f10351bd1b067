package performance

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Service struct {
	store  StoreAPI
	now    func() time.Time
	tracer trace.Tracer
}

func NewService(store StoreAPI) *Service {
	return &Service{
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer("kpitracker/performance"),
	}
}

// WithClock replaces the clock used for submission windows and verification stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
