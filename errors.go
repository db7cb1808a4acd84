package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorCode is the machine-readable part of an Error.
type ErrorCode string

// Codes produced by the gateway. Handlers and transformers may return any
// of them.
const (
	CodeInvalidArgument   ErrorCode = "invalid_argument"
	CodePermissionDenied  ErrorCode = "permission_denied"
	CodeNotFound          ErrorCode = "not_found"
	CodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	CodeResourceExhausted ErrorCode = "resource_exhausted"
	CodeCanceled          ErrorCode = "canceled"
	CodeDeadlineExceeded  ErrorCode = "deadline_exceeded"
	CodeInternal          ErrorCode = "internal"
)

// statusByCode maps codes to HTTP statuses. Unknown codes are 500.
var statusByCode = map[ErrorCode]int{
	CodeInvalidArgument:   http.StatusBadRequest,
	CodePermissionDenied:  http.StatusForbidden,
	CodeNotFound:          http.StatusNotFound,
	CodeMethodNotAllowed:  http.StatusMethodNotAllowed,
	CodeResourceExhausted: http.StatusTooManyRequests,
	CodeCanceled:          499, // client closed request
	CodeDeadlineExceeded:  http.StatusGatewayTimeout,
}

// HTTPStatus returns the HTTP status for c.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is the body of an error response: {"error": {"code", "message", "details"}}.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError returns an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf is NewError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WithDetail returns a copy of e with details[key] set to value.
func (e *Error) WithDetail(key string, value any) *Error {
	out := &Error{Code: e.Code, Message: e.Message, Details: make(map[string]any, len(e.Details)+1)}
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return out
}

// ErrorTransformer maps a handler error to an Error. Returning nil defers to
// DefaultErrorTransformer.
type ErrorTransformer func(error) *Error

// DefaultErrorTransformer maps handler errors to Errors:
// an *Error anywhere in the chain is returned as is, context errors map to
// canceled and deadline_exceeded, validation failures to invalid_argument
// with one detail per field, and joined errors take the code of the first.
// Anything else is internal.
func DefaultErrorTransformer(err error) *Error {
	if err == nil {
		return nil
	}

	var rpcErr *Error
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(CodeDeadlineExceeded, "request timeout")
	case errors.Is(err, context.Canceled):
		return NewError(CodeCanceled, "context canceled")
	case errors.As(err, &fieldErrs):
		return validationError(fieldErrs)
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := joined.Unwrap(); len(errs) > 0 {
			first := DefaultErrorTransformer(errs[0])
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return &Error{Code: first.Code, Message: strings.Join(msgs, "; "), Details: first.Details}
		}
	}

	return NewError(CodeInternal, err.Error())
}

func validationError(fieldErrs validator.ValidationErrors) *Error {
	details := make(map[string]any, len(fieldErrs))
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := "failed " + fe.Tag() + " validation"
		switch {
		case fe.Tag() == "required":
			msg = "required"
		case fe.Param() != "":
			msg = fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		}
		details[fe.Field()] = msg
		msgs = append(msgs, fe.Field()+": "+msg)
	}
	return &Error{Code: CodeInvalidArgument, Message: strings.Join(msgs, "; "), Details: details}
}

// toServiceError applies the configured transformer, the default one and
// masking, in that order.
func toServiceError(err error, cfg handlerConfig) *Error {
	var rpcErr *Error
	if cfg.errorTransformer != nil {
		rpcErr = cfg.errorTransformer(err)
	}
	if rpcErr == nil {
		rpcErr = DefaultErrorTransformer(err)
	}
	if cfg.maskInternalErrors && rpcErr.Code == CodeInternal {
		rpcErr = NewError(CodeInternal, "internal server error")
	}
	return rpcErr
}

func writeError(w http.ResponseWriter, rpcErr *Error, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rpcErr.Code.HTTPStatus())
	if err := encodeErrorResponse(w, rpcErr); err != nil {
		// Status already sent.
		loggerOrDefault(logger).Error("failed to encode error response",
			slog.String("code", string(rpcErr.Code)),
			slog.Any("error", err))
	}
}
