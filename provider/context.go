package provider

import (
	"github.com/provkit/provkit/envelope"
	"github.com/provkit/provkit/logger"
)

// EmitFunc forwards one produced envelope toward the orchestrator.
type EmitFunc func(envelope.Envelope)

// RunContext is the runtime context a host hands to a provider: the
// side-channel logger and the capability to emit data. It is created
// once per process, together with the provider instance.
type RunContext struct {
	Logger *logger.Logger
	emit   EmitFunc
}

// NewRunContext creates a run context. A nil emit callback is allowed
// for output-only providers; Emit then silently drops.
func NewRunContext(log *logger.Logger, emit EmitFunc) *RunContext {
	if log == nil {
		log = logger.Get("provider")
	}
	return &RunContext{Logger: log, emit: emit}
}

// Emit forwards an envelope through the host's emission callback.
func (rc *RunContext) Emit(e envelope.Envelope) {
	if rc.emit != nil {
		rc.emit(e)
	}
}
