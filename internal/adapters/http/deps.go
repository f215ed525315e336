package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/obliquemerc/internal/adapters/postgres"
	"github.com/samirrijal/obliquemerc/internal/adapters/valkey"
	"github.com/samirrijal/obliquemerc/internal/core/domain"
	"github.com/samirrijal/obliquemerc/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Projections *usecases.ProjectionService
	// Defaults fills any scenario field a request leaves out.
	Defaults domain.Scenario
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
}
