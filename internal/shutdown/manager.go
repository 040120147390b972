package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"image-score-harness/internal/logger"
)

// DefaultStepTimeout bounds each component's Shutdown call
const DefaultStepTimeout = 5 * time.Second

type Shutdownable interface {
	Shutdown()
}

// Func adapts a plain function to Shutdownable
type Func func()

func (f Func) Shutdown() { f() }

type component struct {
	name string
	impl Shutdownable
}

// Manager shuts registered components down in reverse registration order,
// once, on signal or on request
type Manager struct {
	components  []component
	logger      logger.Logger
	stepTimeout time.Duration

	mu       sync.Mutex
	started  bool
	done     chan struct{}
	finished chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewManager(log logger.Logger, stepTimeout time.Duration) *Manager {
	if log == nil {
		log = logger.Nop{}
	}
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		logger:      log,
		stepTimeout: stepTimeout,
		done:        make(chan struct{}),
		finished:    make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (m *Manager) Register(name string, impl Shutdownable) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = append(m.components, component{name: name, impl: impl})
}

// Listen shuts down on SIGINT or SIGTERM until the manager is done
func (m *Manager) Listen() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			m.logger.Info("ShutdownManager", "shutdown signal received", map[string]interface{}{
				"signal": sig.String(),
			})
			m.Shutdown()
		case <-m.done:
		}
	}()
}

// Shutdown runs the sequence once; later calls wait for the first to finish
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		<-m.finished
		return
	}
	m.started = true
	close(m.done)
	components := append([]component(nil), m.components...)
	m.mu.Unlock()

	defer close(m.finished)

	m.logger.Info("ShutdownManager", "shutdown sequence initiated", map[string]interface{}{
		"components": len(components),
	})

	m.cancel()

	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]

		done := make(chan struct{})
		go func() {
			defer close(done)
			c.impl.Shutdown()
		}()

		select {
		case <-done:
			m.logger.Debug("ShutdownManager", "component stopped", map[string]interface{}{
				"component": c.name,
			})
		case <-time.After(m.stepTimeout):
			m.logger.Warning("ShutdownManager", "component shutdown timeout", map[string]interface{}{
				"component": c.name,
				"timeout":   m.stepTimeout.String(),
			})
		}
	}

	m.logger.Info("ShutdownManager", "shutdown sequence completed", nil)
}

// Context is cancelled when shutdown begins
func (m *Manager) Context() context.Context {
	return m.ctx
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the shutdown sequence has completed
func (m *Manager) Wait() {
	<-m.finished
}
