package server

import (
	"context"
	"errors"
	"sync"

	"github.com/teemow/inboxpal/internal/assistant"
	"github.com/teemow/inboxpal/internal/instrumentation"
)

// ServerContext holds the process-wide state shared by the HTTP API and
// the MCP tools. Credentials are never stored here.
type ServerContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	assistant *assistant.Service
	metrics   *instrumentation.Metrics
	mu        sync.RWMutex
	shutdown  bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, svc *assistant.Service) (*ServerContext, error) {
	if svc == nil {
		return nil, errors.New("assistant service is required")
	}
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		assistant: svc,
	}, nil
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Assistant returns the assistant service.
func (sc *ServerContext) Assistant() *assistant.Service {
	return sc.assistant
}

// SetMetrics sets the recorder used by the MCP tools. nil disables tool
// metrics.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the tool metrics recorder, possibly nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
