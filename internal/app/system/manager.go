package system

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Manager starts registered services in order and stops them in reverse.
type Manager struct {
	mu       sync.Mutex
	services []Service
	names    map[string]struct{}
	started  int
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{names: make(map[string]struct{})}
}

// Register adds svc. Names must be unique and registration must happen
// before Start.
func (m *Manager) Register(svc Service) error {
	if svc == nil {
		return errors.New("system: nil service")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started > 0 {
		return fmt.Errorf("system: cannot register %s after start", svc.Name())
	}
	if _, dup := m.names[svc.Name()]; dup {
		return fmt.Errorf("system: service %s already registered", svc.Name())
	}
	m.names[svc.Name()] = struct{}{}
	m.services = append(m.services, svc)
	return nil
}

// Start starts every service. On failure the services already started are
// stopped before the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	services := append([]Service(nil), m.services...)
	m.mu.Unlock()

	for i, svc := range services {
		if err := svc.Start(ctx); err != nil {
			m.mu.Lock()
			m.started = 0
			m.mu.Unlock()
			_ = m.stop(ctx, services[:i])
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
		m.mu.Lock()
		m.started = i + 1
		m.mu.Unlock()
	}
	return nil
}

// Stop stops started services in reverse registration order and joins
// their errors.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	services := append([]Service(nil), m.services[:m.started]...)
	m.started = 0
	m.mu.Unlock()
	return m.stop(ctx, services)
}

func (m *Manager) stop(ctx context.Context, services []Service) error {
	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", services[i].Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Func adapts a pair of functions to Service.
type Func struct {
	ServiceName string
	OnStart     func(context.Context) error
	OnStop      func(context.Context) error
}

func (f Func) Name() string { return f.ServiceName }

func (f Func) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

func (f Func) Stop(ctx context.Context) error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop(ctx)
}
