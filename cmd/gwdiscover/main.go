package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/broady/gateway/cmd/gwdiscover/internal/catalog"
	"github.com/broady/gateway/cmd/gwdiscover/internal/serve"
)

type CLI struct {
	Verbose bool `help:"Enable debug logging." short:"v"`

	Version VersionCmd    `cmd:"" help:"Print version information."`
	Catalog catalog.Cmd   `cmd:"" help:"Discover services and print or write the catalog."`
	Check   catalog.Check `cmd:"" help:"Run discovery and report service and method counts."`
	Serve   serve.Cmd     `cmd:"" help:"Serve the discovery service over HTTP."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("gwdiscover"),
		kong.Description("Service discovery for the RPC gateway."),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	err := ctx.Run(logger)
	ctx.FatalIfErrorf(err)
}
