// Package catalog implements the catalog and check commands.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/broady/gateway/cmd/gwdiscover/internal/setup"
	"github.com/broady/gateway/internal/sink"
)

// FileName is the catalog file written to the output directory.
const FileName = "catalog.json"

type Cmd struct {
	Config string `help:"Discovery configuration file." short:"c" required:"" type:"existingfile"`
	Out    string `help:"Directory to write catalog.json to. Prints to stdout if empty." short:"o"`

	stdout io.Writer
}

func (c *Cmd) Run(logger *slog.Logger) error {
	engine, err := setup.Engine(c.Config, logger)
	if err != nil {
		return err
	}
	catalog, err := engine.Discover()
	if err != nil {
		return err
	}

	var s sink.Sink = stdoutSink{w: c.output()}
	if c.Out != "" {
		s = sink.Dir{Root: c.Out}
	}
	if err := sink.WriteJSON(context.Background(), s, FileName, catalog); err != nil {
		return err
	}
	if c.Out != "" {
		logger.Info("catalog written",
			slog.String("dir", c.Out),
			slog.Int("services", len(catalog)),
			slog.Int("methods", catalog.MethodCount()))
	}
	return nil
}

func (c *Cmd) output() io.Writer {
	if c.stdout != nil {
		return c.stdout
	}
	return os.Stdout
}

// stdoutSink writes every file to one writer.
type stdoutSink struct {
	w io.Writer
}

func (s stdoutSink) WriteFile(ctx context.Context, path string, content []byte) error {
	_, err := s.w.Write(content)
	return err
}

type Check struct {
	Config string `help:"Discovery configuration file." short:"c" required:"" type:"existingfile"`

	stdout io.Writer
}

func (c *Check) Run(logger *slog.Logger) error {
	engine, err := setup.Engine(c.Config, logger)
	if err != nil {
		return err
	}
	catalog, err := engine.Discover()
	if err != nil {
		return err
	}

	w := c.stdout
	if w == nil {
		w = os.Stdout
	}
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "✓ %s (%d methods)\n", name, len(catalog[name].Methods))
	}
	fmt.Fprintf(w, "✓ %d services, %d methods\n", len(catalog), catalog.MethodCount())
	return nil
}
