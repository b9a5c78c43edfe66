package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Fatal-at-startup errors: the process exits before doing any work.
const (
	// ErrCodeConfigMissing indicates the initial configuration line was
	// empty or absent.
	ErrCodeConfigMissing ErrorCode = "CONFIG_MISSING"
	// ErrCodeConfigUnparseable indicates the initial line parsed neither
	// as a command envelope nor as a bare configuration object.
	ErrCodeConfigUnparseable ErrorCode = "CONFIG_UNPARSEABLE"
	// ErrCodeListenerFailed indicates the RPC transport could not bind a
	// local listener.
	ErrCodeListenerFailed ErrorCode = "LISTENER_FAILED"
)

// Dispatch errors.
const (
	// ErrCodeCapabilityMissing indicates a lifecycle command was issued
	// against a provider that does not implement the infrastructure
	// extension.
	ErrCodeCapabilityMissing ErrorCode = "CAPABILITY_MISSING"
	// ErrCodeTransport indicates a transport-level failure outside the
	// startup path.
	ErrCodeTransport ErrorCode = "TRANSPORT"
	// ErrCodeInternal indicates an unclassified internal error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Process exit codes at the orchestrator boundary.
const (
	// ExitOK is a clean completion, including the direct-execution
	// warning path on the RPC transport.
	ExitOK = 0
	// ExitConfig is missing or unparseable startup configuration.
	ExitConfig = 2
	// ExitCapability is a lifecycle command against a provider lacking
	// the infrastructure capability.
	ExitCapability = 3
	// ExitListener is a failure to bind the RPC listener.
	ExitListener = 4
	// ExitInternal is any other fatal failure.
	ExitInternal = 1
)

var exitCodes = map[ErrorCode]int{
	ErrCodeConfigMissing:     ExitConfig,
	ErrCodeConfigUnparseable: ExitConfig,
	ErrCodeListenerFailed:    ExitListener,
	ErrCodeCapabilityMissing: ExitCapability,
	ErrCodeTransport:         ExitInternal,
	ErrCodeInternal:          ExitInternal,
}
