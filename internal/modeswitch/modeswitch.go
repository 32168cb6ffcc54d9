// Package modeswitch owns both discovery monitors and activates exactly
// one of them at a time, based on the configured operation mode.
package modeswitch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maxfield-allison/dnscontroller/internal/bus"
)

// Mode is the discovery source currently active.
type Mode string

const (
	ModeRouter Mode = "router"
	ModeDirect Mode = "direct"
)

// Monitor is the lifecycle surface both monitor variants expose.
type Monitor interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// ModeChange is published on bus.TopicOperationModeChange.
type ModeChange struct {
	Old Mode
	New Mode
}

// Switcher holds both monitor instances and activates exactly one.
type Switcher struct {
	router Monitor
	direct Monitor
	bus    *bus.Bus
	logger *slog.Logger

	mu     sync.Mutex
	active Mode
	cancel context.CancelFunc
}

// Option configures a Switcher.
type Option func(*Switcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Switcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Switcher wrapping the router and direct monitors.
func New(router, direct Monitor, b *bus.Bus, opts ...Option) *Switcher {
	s := &Switcher{
		router: router,
		direct: direct,
		bus:    b,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start activates the given mode's monitor. Call once at startup.
func (s *Switcher) Start(ctx context.Context, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activateLocked(ctx, mode)
}

// Stop stops whichever monitor is currently active.
func (s *Switcher) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopActiveLocked()
}

// Active returns the currently active mode.
func (s *Switcher) Active() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetMode switches to the given mode if it isn't already active, stopping
// the previous monitor and starting the new one, then publishing
// OPERATION_MODE_CHANGED. A no-op if mode already matches the active one.
func (s *Switcher) SetMode(ctx context.Context, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == s.active {
		return nil
	}

	old := s.active
	s.stopActiveLocked()
	if err := s.activateLocked(ctx, mode); err != nil {
		return err
	}

	s.logger.Info("operation mode changed",
		slog.String("old", string(old)), slog.String("new", string(mode)))

	if s.bus != nil {
		s.bus.Publish(bus.TopicOperationModeChange, ModeChange{Old: old, New: mode})
	}
	return nil
}

func (s *Switcher) activateLocked(ctx context.Context, mode Mode) error {
	m, err := s.monitorFor(mode)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := m.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("activating %s monitor: %w", mode, err)
	}
	s.cancel = cancel
	s.active = mode
	return nil
}

func (s *Switcher) stopActiveLocked() {
	m, err := s.monitorFor(s.active)
	if err != nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	m.Stop()
}

func (s *Switcher) monitorFor(mode Mode) (Monitor, error) {
	switch mode {
	case ModeRouter:
		return s.router, nil
	case ModeDirect:
		return s.direct, nil
	default:
		return nil, fmt.Errorf("unknown operation mode %q", mode)
	}
}
