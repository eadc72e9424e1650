// Package server provides startup and shutdown orchestration for the
// session server's long-running services.
package server

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// Service represents a long-running component that can be started and stopped.
type Service interface {
	// Start begins the service. It should block until the service is stopped
	// or an error occurs.
	Start() error
	// Stop gracefully stops the service.
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls the underlying stop function.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle runs a set of named services: started in registration order,
// stopped in reverse when a termination signal arrives or any service
// fails.
type Lifecycle struct {
	logger *zap.Logger
	names  []string
	svcs   []Service
}

// NewLifecycle creates a Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Must be called before Run.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.names = append(l.names, name)
	l.svcs = append(l.svcs, svc)
}

// Run starts every registered service and blocks until SIGINT or SIGTERM
// is received or a service's Start returns an error. Either way, all
// services are then stopped in reverse registration order.
//
// Postcondition: All services are stopped; returns the first service error,
// or nil on signal-triggered shutdown.
func (l *Lifecycle) Run() error {
	// The handler is installed before any service starts so a signal
	// arriving during startup is not lost.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, len(l.svcs))
	for i, svc := range l.svcs {
		name := l.names[i]
		l.logger.Info("starting service", zap.String("service", name))
		go func(name string, svc Service) {
			if err := svc.Start(); err != nil {
				errCh <- fmt.Errorf("service %s: %w", name, err)
			}
		}(name, svc)
	}

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case runErr = <-errCh:
		l.logger.Error("service failed, shutting down", zap.Error(runErr))
	}

	for i := len(l.svcs) - 1; i >= 0; i-- {
		l.logger.Info("stopping service", zap.String("service", l.names[i]))
		l.svcs[i].Stop()
	}
	l.logger.Info("shutdown complete")
	return runErr
}
