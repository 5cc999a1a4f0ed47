package issuer

import (
	"log/slog"

	"pdtoken/internal/issuer/handler"
	"pdtoken/internal/issuer/models"
	"pdtoken/internal/issuer/registry"
	"pdtoken/internal/issuer/service"
	"pdtoken/internal/issuer/store/cooldown"
	"pdtoken/internal/ledger"
	"pdtoken/internal/platform/chain"
)

// Service exposes the issuance controller.
type Service = service.Service

// Handler wires HTTP endpoints to the issuance controller.
type Handler = handler.Handler

// NewRegistry constructs the issuer registry over a cooldown store.
func NewRegistry(params models.Params, cooldowns cooldown.Store) (*registry.Registry, error) {
	return registry.New(params, cooldowns)
}

// NewService constructs the issuance controller with required dependencies.
func NewService(reg *registry.Registry, led ledger.Ledger, clock chain.Clock, params models.Params, opts ...service.Option) (*Service, error) {
	return service.New(reg, led, clock, params, opts...)
}

// NewHandler constructs the HTTP handler for issuer routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
