package discovery

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Instantiator resolves a service identifier to a Service.
//
// Implementations receive the same folders and registrations the identifier
// was enumerated from. They must return a *ResolutionError when the
// identifier cannot be mapped to a service.
type Instantiator interface {
	Resolve(id string, folders []string, regs []Registration) (Service, error)
}

// InstantiatorFunc adapts a function to the Instantiator interface.
type InstantiatorFunc func(id string, folders []string, regs []Registration) (Service, error)

// Resolve implements Instantiator.
func (f InstantiatorFunc) Resolve(id string, folders []string, regs []Registration) (Service, error) {
	return f(id, folders, regs)
}

// ErrNotFound is wrapped by a ResolutionError when no service matches.
var ErrNotFound = errors.New("service not found")

// ResolutionError reports that an identifier could not be resolved.
type ResolutionError struct {
	Identifier string
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve service %q: %v", e.Identifier, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// LookupRegistration returns the last registration named name.
func LookupRegistration(regs []Registration, name string) (Registration, bool) {
	for i := len(regs) - 1; i >= 0; i-- {
		if regs[i].Name == name {
			return regs[i], true
		}
	}
	return Registration{}, false
}

// Factory creates a service.
type Factory func() (Service, error)

// Registry is an Instantiator backed by factories registered at startup.
//
// An explicitly registered service resolves through the factory registered
// under the registration's Type, so {Name: "Echo", Type: "echo.Service"}
// uses the factory registered as "echo.Service". Otherwise, or when no such
// factory exists, the identifier itself is the key.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under key, replacing any existing one.
// It returns the registry for chaining.
func (r *Registry) Register(key string, f Factory) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[key] = f
	return r
}

// RegisterService adds a factory that always returns svc.
func (r *Registry) RegisterService(key string, svc Service) *Registry {
	return r.Register(key, func() (Service, error) { return svc, nil })
}

// Resolve implements Instantiator.
func (r *Registry) Resolve(id string, folders []string, regs []Registration) (Service, error) {
	r.mu.RLock()
	var (
		f  Factory
		ok bool
	)
	if reg, found := LookupRegistration(regs, id); found && reg.Type != "" {
		f, ok = r.factories[reg.Type]
	}
	if !ok {
		f, ok = r.factories[id]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, &ResolutionError{Identifier: id, Err: ErrNotFound}
	}
	svc, err := f()
	if err != nil {
		return nil, &ResolutionError{Identifier: id, Err: err}
	}
	if svc == nil {
		return nil, &ResolutionError{Identifier: id, Err: errors.New("factory returned nil service")}
	}
	return svc, nil
}

// Chain returns an Instantiator that tries each of insts in order and
// returns the first service resolved. If none succeeds the failures are
// combined into one ResolutionError.
func Chain(insts ...Instantiator) Instantiator {
	return InstantiatorFunc(func(id string, folders []string, regs []Registration) (Service, error) {
		var errs error
		for _, inst := range insts {
			svc, err := inst.Resolve(id, folders, regs)
			if err == nil {
				return svc, nil
			}
			var resErr *ResolutionError
			if errors.As(err, &resErr) && resErr.Identifier == id {
				err = resErr.Err
			}
			errs = multierr.Append(errs, err)
		}
		if errs == nil {
			errs = ErrNotFound
		}
		return nil, &ResolutionError{Identifier: id, Err: errs}
	})
}
