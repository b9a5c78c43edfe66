package provider

import (
	"context"

	"github.com/provkit/provkit/envelope"
)

// Provider is the base interface all hosted providers implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
}

// Runtime is the contract a host uses to drive a provider runtime of
// config type C. Embedding Base[C] satisfies everything but Name.
type Runtime[C any] interface {
	Provider
	// Initialize stores the bound configuration and runtime context.
	// It reports whether this call was the first one; later calls are
	// no-ops.
	Initialize(cfg C, rc *RunContext) bool
	// Config returns the bound configuration.
	Config() C
}

// Input is implemented by providers that produce a stream of
// envelopes. The host pulls from the returned iterator until it is
// exhausted or the context is canceled.
type Input interface {
	Provider
	Produce(ctx context.Context) (Iterator[envelope.Envelope], error)
}

// Output is implemented by providers that consume envelopes. The host
// forwards decoded wire lines as batches (one envelope per batch on
// the stdio transport).
type Output interface {
	Provider
	Write(ctx context.Context, batch []envelope.Envelope) error
}

// Initializer is optionally implemented by providers that need setup
// after their configuration is bound (announce startup parameters,
// validate a binary, warm a cache). The host calls Init exactly once,
// right after Initialize.
type Initializer interface {
	Init(ctx context.Context) error
}

// Closeable is optionally implemented by providers that hold resources
// requiring explicit cleanup. The host calls Close during shutdown.
type Closeable interface {
	Close(ctx context.Context) error
}

// Factory constructs a provider instance. Factories are registered
// statically by name; configuration is bound afterwards through
// Runtime.Initialize.
type Factory[T Provider] func() T
