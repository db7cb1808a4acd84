// Package gateway serves RPC services over HTTP/JSON.
//
// Requests are routed by path, /{Service}/{Method}. Query endpoints are
// called with GET and decode their request from the query string; exec
// endpoints are called with POST and a JSON body. Responses are wrapped in
// {"result": ...} or {"error": {...}}.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
)

// App is the central router for gateway services.
// It manages route registration, middleware, interceptors, access checks
// and error handling. Use Handler() to get an http.Handler.
type App struct {
	mu                 sync.RWMutex
	routes             map[string]*route
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	middlewares        []func(http.Handler) http.Handler
	logger             *slog.Logger
	maxRequestBodySize int64
	roleResolver       RoleResolver
}

// route is a registered endpoint with the service settings captured at
// registration time.
type route struct {
	service      string
	method       string
	endpoint     Endpoint
	interceptors []UnaryInterceptor
	roles        RoleProvider
}

// NewApp returns an App with a 1MB request body limit.
func NewApp() *App {
	return &App{
		routes:             make(map[string]*route),
		maxRequestBodySize: 1 << 20,
	}
}

// WithErrorTransformer adds a custom error transformer.
func (a *App) WithErrorTransformer(fn ErrorTransformer) *App {
	a.errorTransformer = fn
	return a
}

// WithMaskInternalErrors replaces internal error messages with a generic one.
func (a *App) WithMaskInternalErrors() *App {
	a.maskInternalErrors = true
	return a
}

// WithUnaryInterceptor adds a global interceptor.
//
// Interceptor execution order:
//  1. Global interceptors (App.WithUnaryInterceptor)
//  2. Service interceptors (Service.WithUnaryInterceptor)
//  3. Handler interceptors (Handler.WithUnaryInterceptor)
//  4. Handler function
func (a *App) WithUnaryInterceptor(i UnaryInterceptor) *App {
	a.interceptors = append(a.interceptors, i)
	return a
}

// WithMiddleware adds an HTTP middleware. The first added is outermost.
func (a *App) WithMiddleware(mw func(http.Handler) http.Handler) *App {
	a.middlewares = append(a.middlewares, mw)
	return a
}

// WithLogger sets a custom logger for the app.
// If not set, slog.Default() will be used.
func (a *App) WithLogger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// WithMaxRequestBodySize sets the maximum exec request body size.
// A value of 0 means no limit.
func (a *App) WithMaxRequestBodySize(size int64) *App {
	a.maxRequestBodySize = size
	return a
}

// WithRoleResolver sets how callers' roles are determined.
// Without one, callers hold no roles.
func (a *App) WithRoleResolver(r RoleResolver) *App {
	a.roleResolver = r
	return a
}

// Handler returns an http.Handler serving /{Service}/{Method}, wrapped in
// the configured middleware.
func (a *App) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(a.serveHTTP)
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

// Routes returns the metadata of every registered endpoint keyed by
// "Service.Method".
func (a *App) Routes() map[string]*EndpointMetadata {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]*EndpointMetadata, len(a.routes))
	for key, rt := range a.routes {
		out[key] = rt.endpoint.Metadata()
	}
	return out
}

// Services returns the registered service names with their sorted methods.
func (a *App) Services() map[string][]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	services := make(map[string][]string)
	for _, rt := range a.routes {
		services[rt.service] = append(services[rt.service], rt.method)
	}
	for _, methods := range services {
		sort.Strings(methods)
	}
	return services
}

// Service returns a Service namespace.
func (a *App) Service(name string) *Service {
	return &Service{
		app:  a,
		name: name,
	}
}

func (a *App) serveHTTP(w http.ResponseWriter, req *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			loggerOrDefault(a.logger).Error("PANIC recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			writeError(w, NewError(CodeInternal, fmt.Sprintf("internal server error (panic): %v", rec)), a.logger)
		}
	}()

	// Path format: /{service}/{method}
	parts := strings.Split(strings.TrimPrefix(req.URL.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, NewError(CodeNotFound, "route not found"), a.logger)
		return
	}
	service, method := parts[0], parts[1]

	a.mu.RLock()
	rt, ok := a.routes[service+"."+method]
	a.mu.RUnlock()
	if !ok {
		writeError(w, NewError(CodeNotFound, "route not found"), a.logger)
		return
	}

	meta := rt.endpoint.Metadata()
	if req.Method != meta.HTTPMethod {
		writeError(w, Errorf(CodeMethodNotAllowed, "method %s not allowed, expected %s", req.Method, meta.HTTPMethod), a.logger)
		return
	}

	var held []string
	if a.roleResolver != nil {
		held = a.roleResolver(req)
	}
	info := &RPCInfo{Service: service, Method: method, Roles: held}
	ctx := newContext(req.Context(), w, req, info)
	cfg := handlerConfig{
		errorTransformer:   a.errorTransformer,
		maskInternalErrors: a.maskInternalErrors,
		logger:             a.logger,
		maxRequestBodySize: a.maxRequestBodySize,
	}

	if rt.roles != nil {
		if missing := missingRoles(rt.roles.RequiredRoles(method), held); len(missing) > 0 {
			loggerOrDefault(a.logger).Warn("access denied",
				slog.String("endpoint", info.EndpointID()),
				slog.Any("missing_roles", missing))
			a.deny(ctx, w, info, NewError(CodePermissionDenied, "access denied").WithDetail("required_roles", missing), cfg)
			return
		}
	}

	cfg.interceptors = make([]UnaryInterceptor, 0, len(a.interceptors)+len(rt.interceptors))
	cfg.interceptors = append(cfg.interceptors, a.interceptors...)
	cfg.interceptors = append(cfg.interceptors, rt.interceptors...)

	rt.endpoint.serve(w, req.WithContext(ctx), cfg)
}

// deny rejects a call before its request is decoded. App interceptors still
// observe the call, with a nil request and denied as the handler's error.
func (a *App) deny(ctx context.Context, w http.ResponseWriter, info *RPCInfo, denied *Error, cfg handlerConfig) {
	var err error = denied
	if chain := chainInterceptors(a.interceptors); chain != nil {
		_, err = chain(ctx, nil, info, func(context.Context, any) (any, error) {
			return nil, denied
		})
	}
	writeError(w, toServiceError(err, cfg), a.logger)
}

// Service is a namespace of endpoints.
type Service struct {
	app          *App
	name         string
	interceptors []UnaryInterceptor
	roles        RoleProvider
}

// WithUnaryInterceptor adds an interceptor to this service.
// See App.WithUnaryInterceptor for the complete execution order.
func (s *Service) WithUnaryInterceptor(i UnaryInterceptor) *Service {
	s.interceptors = append(s.interceptors, i)
	return s
}

// WithRoles protects the service's endpoints registered afterwards. The
// provider is consulted on every call.
func (s *Service) WithRoles(p RoleProvider) *Service {
	s.roles = p
	return s
}

// Register registers an endpoint under the given method name.
// An existing registration is replaced and a warning is logged.
func (s *Service) Register(name string, endpoint Endpoint) {
	key := s.name + "." + name

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	if _, exists := s.app.routes[key]; exists {
		loggerOrDefault(s.app.logger).Warn("duplicate route registration",
			slog.String("service", s.name),
			slog.String("method", name),
			slog.String("route", key))
	}

	s.app.routes[key] = &route{
		service:      s.name,
		method:       name,
		endpoint:     endpoint,
		interceptors: append([]UnaryInterceptor(nil), s.interceptors...),
		roles:        s.roles,
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
