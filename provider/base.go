package provider

import (
	"sync"

	"github.com/provkit/provkit/logger"
)

// Base stores a provider's bound configuration and runtime context.
// Embed it (by value) in a provider struct and use the provider as a
// pointer so the promoted methods share state.
//
// Initialize is guarded: exactly one call takes effect per process,
// which removes any ambiguity about re-entrant Start requests on the
// RPC transport.
type Base[C any] struct {
	mu          sync.Mutex
	cfg         C
	rc          *RunContext
	initialized bool
}

// Initialize stores the configuration and runtime context on first
// call and reports whether this call won. Later calls leave the stored
// state untouched and return false.
func (b *Base[C]) Initialize(cfg C, rc *RunContext) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return false
	}
	b.cfg = cfg
	b.rc = rc
	b.initialized = true
	return true
}

// Config returns the bound configuration (zero value before Initialize).
func (b *Base[C]) Config() C {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// Runtime returns the runtime context, or nil before Initialize.
func (b *Base[C]) Runtime() *RunContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rc
}

// Logger returns the runtime logger, falling back to the registry so
// providers can log safely even before Initialize.
func (b *Base[C]) Logger() *logger.Logger {
	if rc := b.Runtime(); rc != nil && rc.Logger != nil {
		return rc.Logger
	}
	return logger.Get("provider")
}
