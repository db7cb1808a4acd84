// Package rpc serves service discovery over a gateway App.
package rpc

import (
	"context"
	"log/slog"

	"github.com/broady/gateway"
	"github.com/broady/gateway/discovery"
)

const (
	// ServiceName is the name the discovery service is registered under.
	// It matches the default exclude pattern, so the service never appears
	// in its own catalog.
	ServiceName = "DiscoveryService"

	// MethodDiscover returns the catalog.
	MethodDiscover = "discover"
)

// Contract is the discovery service's self-description.
var Contract = discovery.Static{
	Description: "/**\n * Lists the services reachable through the gateway.\n */",
	Contract: []discovery.Method{
		{
			Name: MethodDiscover,
			Doc:  "/**\n * Returns the catalog of reachable services.\n * @return Catalog\n */",
		},
		{
			Name:   "_requiredRoles",
			Params: []discovery.Param{{Name: "method"}},
			Doc:    "/**\n * @param string $method\n * @return string[]\n */",
		},
	},
}

// Service exposes an Engine as the DiscoveryService.
//
//	app := gateway.NewApp().WithRoleResolver(gateway.HeaderRoles("X-Gateway-Roles"))
//	rpc.New(app, engine, logger).Register()
type Service struct {
	app    *gateway.App
	engine *discovery.Engine
	logger *slog.Logger
}

// New creates a discovery service. A nil logger uses slog.Default().
func New(app *gateway.App, engine *discovery.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{app: app, engine: engine, logger: logger}
}

// Register adds the service to the app. Calls require the roles reported
// by RequiredRoles.
func (s *Service) Register() {
	s.app.Service(ServiceName).
		WithRoles(s).
		Register(MethodDiscover, gateway.Query(s.Discover))
}

// RequiredRoles implements gateway.RoleProvider. It reads the engine's
// configuration on every call.
func (s *Service) RequiredRoles(method string) []string {
	return s.engine.RequiredRoles(method)
}

// DiscoverRequest is the request for DiscoveryService.discover.
type DiscoverRequest struct{}

// Discover runs discovery. Failures are logged and reported to the caller
// without their cause.
func (s *Service) Discover(ctx context.Context, req *DiscoverRequest) (discovery.Catalog, error) {
	catalog, err := s.engine.Discover()
	if err != nil {
		s.logger.ErrorContext(ctx, "service discovery failed", slog.Any("error", err))
		return nil, gateway.NewError(gateway.CodeInternal, "service discovery failed")
	}
	return catalog, nil
}

// Doc implements discovery.Service.
func (s *Service) Doc() string { return Contract.Doc() }

// Methods implements discovery.Service.
func (s *Service) Methods() []discovery.Method { return Contract.Methods() }

// Self registers the discovery service's contract with reg and returns cfg
// with an explicit registration for it, so discovery enumerates the
// service like any other.
func Self(reg *discovery.Registry, cfg discovery.Config) discovery.Config {
	reg.RegisterService(ServiceName, Contract)
	return cfg.WithRegistration(discovery.Registration{Name: ServiceName})
}

var (
	_ discovery.Service    = (*Service)(nil)
	_ gateway.RoleProvider = (*Service)(nil)
)
