// Package schedules provides the schedule confirmation module.
package schedules

import (
	apphttp "scheduling_backend/internal/http"
	"scheduling_backend/internal/hubspot"
	"scheduling_backend/internal/schedules/handler"
	"scheduling_backend/internal/schedules/repository"
	"scheduling_backend/internal/schedules/service"
	"scheduling_backend/internal/schedules/writeback"
	"scheduling_backend/internal/zuper"
	"scheduling_backend/platform/config"
	"scheduling_backend/platform/logger"
	"scheduling_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the schedules domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the schedules module with all dependencies wired.
// dispatcher may be nil, in which case confirmation effects are dropped.
func NewModule(
	pool *pgxpool.Pool,
	provider *zuper.Client,
	directory service.AssigneeDirectory,
	crm *hubspot.Client,
	dispatcher handler.EffectDispatcher,
	val *validator.Validator,
	cfg config.ConfirmationConfig,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	wb := writeback.New(crm, log)
	svc := service.New(repo, provider, directory, wb, cfg, log)
	h := handler.New(svc, dispatcher, val, log)

	return &Module{handler: h, service: svc}
}

// Service exposes the confirmation orchestrator.
func (m *Module) Service() *service.Service {
	return m.service
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "schedules"
}

// RegisterRoutes registers the module's routes under /api/v1/schedules
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	schedules := ctx.Protected.Group("/schedules")
	m.handler.RegisterRoutes(schedules)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
