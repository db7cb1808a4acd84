package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// Primitives describe how an endpoint is called.
const (
	// PrimitiveQuery is a read: HTTP GET, request decoded from the query string.
	PrimitiveQuery = "query"
	// PrimitiveExec is a mutation: HTTP POST, request decoded from a JSON body.
	PrimitiveExec = "exec"
)

// EndpointMetadata describes a registered endpoint.
type EndpointMetadata struct {
	Primitive  string
	HTTPMethod string
	Request    reflect.Type
	Response   reflect.Type
}

// Endpoint is a servable RPC method. Create one with Query or Exec.
type Endpoint interface {
	Metadata() *EndpointMetadata
	serve(w http.ResponseWriter, r *http.Request, cfg handlerConfig)
}

// handlerConfig carries app and service settings into an endpoint.
type handlerConfig struct {
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	logger             *slog.Logger
	maxRequestBodySize int64
}

// Handler is an Endpoint for a specific Request/Response pair.
type Handler[Req any, Res any] struct {
	fn           func(context.Context, Req) (Res, error)
	primitive    string
	interceptors []UnaryInterceptor
}

// Query creates a read endpoint served on GET. Request fields are decoded
// from the query string using `schema` tags.
func Query[Req any, Res any](fn func(context.Context, Req) (Res, error)) *Handler[Req, Res] {
	return &Handler[Req, Res]{fn: fn, primitive: PrimitiveQuery}
}

// Exec creates a mutation endpoint served on POST with a JSON body.
func Exec[Req any, Res any](fn func(context.Context, Req) (Res, error)) *Handler[Req, Res] {
	return &Handler[Req, Res]{fn: fn, primitive: PrimitiveExec}
}

// WithUnaryInterceptor adds an interceptor to this handler. Handler
// interceptors run after app and service interceptors.
func (h *Handler[Req, Res]) WithUnaryInterceptor(i UnaryInterceptor) *Handler[Req, Res] {
	h.interceptors = append(h.interceptors, i)
	return h
}

// Metadata implements Endpoint.
func (h *Handler[Req, Res]) Metadata() *EndpointMetadata {
	return &EndpointMetadata{
		Primitive:  h.primitive,
		HTTPMethod: primitiveToHTTPMethod(h.primitive),
		Request:    reflect.TypeFor[Req](),
		Response:   reflect.TypeFor[Res](),
	}
}

func primitiveToHTTPMethod(primitive string) string {
	if primitive == PrimitiveQuery {
		return http.MethodGet
	}
	return http.MethodPost
}

func (h *Handler[Req, Res]) serve(w http.ResponseWriter, r *http.Request, cfg handlerConfig) {
	ctx := r.Context()

	req, err := h.decode(r, cfg)
	if err != nil {
		writeError(w, toServiceError(err, cfg), loggerOrDefault(cfg.logger))
		return
	}

	all := make([]UnaryInterceptor, 0, len(cfg.interceptors)+len(h.interceptors))
	all = append(all, cfg.interceptors...)
	all = append(all, h.interceptors...)

	final := func(ctx context.Context, reqAny any) (any, error) {
		typed, ok := reqAny.(Req)
		if !ok {
			return nil, Errorf(CodeInternal, "interceptor modified request type incorrectly")
		}
		return h.fn(ctx, typed)
	}

	var res any
	if chain := chainInterceptors(all); chain != nil {
		res, err = chain(ctx, req, infoFromContext(ctx), final)
	} else {
		res, err = final(ctx, req)
	}
	if err != nil {
		writeError(w, toServiceError(err, cfg), loggerOrDefault(cfg.logger))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := encodeResponse(w, res); err != nil {
		// Response may be partially written.
		loggerOrDefault(cfg.logger).Error("failed to encode response", slog.Any("error", err))
	}
}

// decode builds the request value, allocating the pointee when Req is a
// pointer, and validates struct requests.
func (h *Handler[Req, Res]) decode(r *http.Request, cfg handlerConfig) (Req, error) {
	var req Req
	target := any(&req)
	reqType := reflect.TypeFor[Req]()
	if reqType.Kind() == reflect.Pointer {
		val := reflect.New(reqType.Elem()).Convert(reqType)
		req = val.Interface().(Req)
		target = req
	}

	if h.primitive == PrimitiveQuery {
		if isStruct(reqType) {
			if err := schemaDecoder.Decode(target, r.URL.Query()); err != nil {
				return req, Errorf(CodeInvalidArgument, "failed to decode query: %v", err)
			}
		}
	} else if r.Body != nil {
		body := io.Reader(r.Body)
		if cfg.maxRequestBodySize > 0 {
			body = io.LimitReader(r.Body, cfg.maxRequestBodySize+1)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return req, Errorf(CodeInvalidArgument, "failed to read body: %v", err)
		}
		if cfg.maxRequestBodySize > 0 && int64(len(data)) > cfg.maxRequestBodySize {
			return req, Errorf(CodeResourceExhausted, "request body exceeds %d bytes", cfg.maxRequestBodySize)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, target); err != nil {
				return req, Errorf(CodeInvalidArgument, "failed to decode body: %v", err)
			}
		}
	}

	if isStruct(reqType) {
		if err := validate.Struct(req); err != nil {
			var invalid *validator.InvalidValidationError
			if errors.As(err, &invalid) {
				return req, nil
			}
			return req, err
		}
	}
	return req, nil
}

func isStruct(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
