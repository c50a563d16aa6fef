package ads

import (
	"context"
	"errors"
	"fmt"
)

// Manager owns the adapters for one process. Build it once at startup.
type Manager struct {
	order    []Network
	adapters map[Network]Adapter
}

func NewManager(adapters ...Adapter) *Manager {
	m := &Manager{adapters: make(map[Network]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		n := a.Status().Network
		if _, dup := m.adapters[n]; dup {
			continue
		}
		m.order = append(m.order, n)
		m.adapters[n] = a
	}
	return m
}

// Initialize initializes every adapter and shows its banner. Failures are
// joined; one network failing does not stop the others.
func (m *Manager) Initialize(ctx context.Context) error {
	var errs []error
	for _, n := range m.order {
		a := m.adapters[n]
		if err := a.Initialize(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := a.ShowBanner(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) Adapter(n Network) (Adapter, error) {
	a, ok := m.adapters[n]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, n)
	}
	return a, nil
}

func (m *Manager) ShowInterstitial(ctx context.Context, n Network) error {
	a, err := m.Adapter(n)
	if err != nil {
		return err
	}
	return a.ShowInterstitial(ctx)
}

// Statuses returns adapter status in registration order.
func (m *Manager) Statuses() []Status {
	out := make([]Status, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.adapters[n].Status())
	}
	return out
}

func (m *Manager) Close(ctx context.Context) error {
	var errs []error
	for _, n := range m.order {
		if err := m.adapters[n].Destroy(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
