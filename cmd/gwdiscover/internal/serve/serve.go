// Package serve implements the serve command.
package serve

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/broady/gateway"
	"github.com/broady/gateway/cmd/gwdiscover/internal/setup"
	"github.com/broady/gateway/discovery"
	"github.com/broady/gateway/discovery/rpc"
	"github.com/broady/gateway/middleware"
)

// RPCPrefix is where gateway services are mounted.
const RPCPrefix = "/rpc"

type Cmd struct {
	Config          string        `help:"Discovery configuration file." short:"c" required:"" type:"existingfile"`
	Addr            string        `help:"Address to listen on." default:":8080"`
	RolesHeader     string        `help:"Request header carrying the caller's comma-separated roles." default:"X-Gateway-Roles" name:"roles-header"`
	ShutdownTimeout time.Duration `help:"Time allowed for in-flight requests on shutdown." default:"10s"`
}

func (c *Cmd) Run(logger *slog.Logger) error {
	engine, err := setup.Engine(c.Config, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return err
	}
	logger.Info("serving", slog.String("addr", listener.Addr().String()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return serve(ctx, listener, Router(NewApp(engine, reg, c.RolesHeader, logger), reg), c.ShutdownTimeout, logger)
}

// NewApp returns a gateway App serving the discovery service with logging
// and metrics interceptors.
func NewApp(engine *discovery.Engine, reg prometheus.Registerer, rolesHeader string, logger *slog.Logger) *gateway.App {
	app := gateway.NewApp().
		WithLogger(logger).
		WithRoleResolver(gateway.HeaderRoles(rolesHeader)).
		WithUnaryInterceptor(middleware.LoggingInterceptor(logger)).
		WithUnaryInterceptor(middleware.MetricsInterceptor(reg))
	rpc.New(app, engine, logger).Register()
	return app
}

// Router mounts app under RPCPrefix and exposes metrics from gatherer.
func Router(app *gateway.App, gatherer prometheus.Gatherer) http.Handler {
	mux := chi.NewMux()
	mux.Use(chimiddleware.Recoverer)
	mux.Use(chimiddleware.StripSlashes)
	mux.Mount(RPCPrefix, http.StripPrefix(RPCPrefix, app.Handler()))
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func serve(ctx context.Context, listener net.Listener, handler http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
