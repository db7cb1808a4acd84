// Package discovery builds catalogs of the services a gateway can reach.
//
// A catalog is assembled in two passes. Build enumerates service
// identifiers from the configured folders and explicit registrations,
// resolves each through an Instantiator and describes its methods. Filter
// then drops the services matching the exclude patterns. Excluded services
// are still resolved during Build because other services may refer to them.
//
// Nothing is cached. Every Discover call walks the folders and resolves
// every service again.
package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/broady/gateway/internal/locator"
)

// Engine discovers services.
type Engine struct {
	cfg     Config
	inst    Instantiator
	logger  *slog.Logger
	locator locator.Locator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSuffix sets the service-file suffix used when scanning folders.
func WithSuffix(suffix string) Option {
	return func(e *Engine) { e.locator.Suffix = suffix }
}

// New returns an Engine reading cfg and resolving services through inst.
func New(cfg Config, inst Instantiator, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, inst: inst}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.locator.OnSkip = func(dir string, err error) {
		e.logger.Debug("skipping service folder",
			slog.String("dir", dir),
			slog.Any("error", err))
	}
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// WithConfig returns a new engine sharing e's instantiator and options
// but reading cfg.
func (e *Engine) WithConfig(cfg Config) *Engine {
	clone := *e
	clone.cfg = cfg
	return &clone
}

// Discover builds the catalog and removes excluded services.
// If any service fails to resolve, no catalog is returned.
func (e *Engine) Discover() (Catalog, error) {
	catalog, err := e.Build()
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	built := len(catalog)
	catalog = Filter(catalog, e.cfg.Exclude)

	e.logger.Debug("discovery completed",
		slog.Int("built", built),
		slog.Int("services", len(catalog)),
		slog.Int("methods", catalog.MethodCount()))
	return catalog, nil
}

// Build resolves and describes every enumerated service. Exclude patterns
// are not applied. A service name seen twice keeps the later descriptor.
func (e *Engine) Build() (Catalog, error) {
	ids := e.locator.Enumerate(e.cfg.Folders, e.cfg.Names())

	catalog := make(Catalog, len(ids))
	for _, id := range ids {
		svc, err := e.inst.Resolve(id, e.cfg.Folders, e.cfg.Registrations)
		if err != nil {
			var resErr *ResolutionError
			if !errors.As(err, &resErr) {
				err = &ResolutionError{Identifier: id, Err: err}
			}
			return nil, err
		}
		if svc == nil {
			return nil, &ResolutionError{Identifier: id, Err: errors.New("nil service")}
		}
		catalog[id] = describe(id, svc)
	}
	return catalog, nil
}

// Filter removes from c every service whose name contains one of patterns.
// Empty patterns match nothing. c is modified and returned.
func Filter(c Catalog, patterns []string) Catalog {
	for name := range c {
		for _, pattern := range patterns {
			if pattern != "" && strings.Contains(name, pattern) {
				delete(c, name)
				break
			}
		}
	}
	return c
}

// RequiredRoles returns the roles needed to call method on the discovery
// service. It is empty unless the configuration restricts access.
func (e *Engine) RequiredRoles(method string) []string {
	if e.cfg.RestrictAccess {
		return []string{e.cfg.adminRole()}
	}
	return nil
}
