package server

import (
	"kpitracker/internal/domain/audit"
	"kpitracker/internal/domain/automation"
	"kpitracker/internal/domain/org"
	"kpitracker/internal/domain/performance"
	"kpitracker/internal/platform/db"
)

type Services struct {
	Org         *org.Service
	Performance *performance.Service
	Automation  *automation.Service
	Audit       *audit.Service
}

// NewServices wires every domain service to the stores of the handle's dialect.
func NewServices(h *db.Handle) Services {
	var (
		orgStore   org.StoreAPI
		perfStore  performance.StoreAPI
		ruleStore  automation.StoreAPI
		auditStore audit.StoreAPI
	)
	switch h.Dialect {
	case db.DialectPostgres:
		orgStore = org.NewStore(h.Pool)
		perfStore = performance.NewStore(h.Pool)
		ruleStore = automation.NewStore(h.Pool)
		auditStore = audit.NewStore(h.Pool)
	default:
		orgStore = org.NewGormStore(h.Gorm)
		perfStore = performance.NewGormStore(h.Gorm)
		ruleStore = automation.NewGormStore(h.Gorm)
		auditStore = audit.NewGormStore(h.Gorm)
	}

	perf := performance.NewService(perfStore)
	return Services{
		Org:         org.NewService(orgStore),
		Performance: perf,
		Automation:  automation.NewService(ruleStore, perf),
		Audit:       audit.New(auditStore),
	}
}
