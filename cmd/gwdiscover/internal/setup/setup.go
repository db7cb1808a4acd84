// Package setup builds the discovery engine shared by the CLI commands.
package setup

import (
	"log/slog"

	"github.com/broady/gateway/discovery"
	"github.com/broady/gateway/discovery/rpc"
	"github.com/broady/gateway/discovery/source"
)

// Engine loads the configuration at path and returns an engine resolving
// services from Go source. The discovery service itself is registered so it
// is enumerated like the others.
func Engine(path string, logger *slog.Logger) (*discovery.Engine, error) {
	cfg, err := discovery.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	reg := discovery.NewRegistry()
	cfg = rpc.Self(reg, cfg)

	inst := discovery.Chain(reg, &source.Instantiator{})
	return discovery.New(cfg, inst, discovery.WithLogger(logger)), nil
}
