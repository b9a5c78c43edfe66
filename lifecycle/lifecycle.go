package lifecycle

import (
	"context"
	"fmt"

	"github.com/provkit/provkit/logger"
)

// Operation identifies one of the four lifecycle operations.
type Operation string

const (
	OpInit    Operation = "init"
	OpDestroy Operation = "destroy"
	OpStatus  Operation = "status"
	OpPlan    Operation = "plan"
)

// ParseOperation maps a wire command to an Operation.
func ParseOperation(command string) (Operation, bool) {
	switch Operation(command) {
	case OpInit, OpDestroy, OpStatus, OpPlan:
		return Operation(command), true
	}
	return "", false
}

// Infrastructure is the capability a provider implements when it
// provisions external resources. Init and destroy report the affected
// resource identifiers; status and plan additionally return an
// auxiliary metadata map.
type Infrastructure interface {
	OnInit(ctx context.Context) ([]string, error)
	OnDestroy(ctx context.Context) ([]string, error)
	OnStatus(ctx context.Context) ([]string, map[string]any, error)
	OnPlan(ctx context.Context) ([]string, map[string]any, error)
}

// Noop is an embeddable Infrastructure implementation whose hooks all
// report an empty resource list. A provider embedding it behaves as a
// well-defined no-op for every lifecycle command.
type Noop struct{}

func (Noop) OnInit(ctx context.Context) ([]string, error)    { return nil, nil }
func (Noop) OnDestroy(ctx context.Context) ([]string, error) { return nil, nil }
func (Noop) OnStatus(ctx context.Context) ([]string, map[string]any, error) {
	return nil, nil, nil
}
func (Noop) OnPlan(ctx context.Context) ([]string, map[string]any, error) {
	return nil, nil, nil
}

// RunFunc executes one lifecycle operation against a provider.
type RunFunc func(ctx context.Context, op Operation, infra Infrastructure) Result

// Runner dispatches lifecycle operations to provider hooks and wraps
// their outcome into a Result. Hook errors and panics are captured
// into Status=Failed; Run never aborts without a Result.
type Runner struct {
	log *logger.Logger
	run RunFunc
}

// NewRunner creates a Runner logging to the given side-channel logger,
// with optional middleware applied outermost-first.
func NewRunner(log *logger.Logger, middleware ...Middleware) *Runner {
	if log == nil {
		log = logger.Get("lifecycle")
	}
	r := &Runner{log: log}
	run := r.dispatch
	for i := len(middleware) - 1; i >= 0; i-- {
		run = middleware[i](run)
	}
	r.run = run
	return r
}

// Run executes one lifecycle operation.
func (r *Runner) Run(ctx context.Context, op Operation, infra Infrastructure) Result {
	return r.run(ctx, op, infra)
}

func (r *Runner) dispatch(ctx context.Context, op Operation, infra Infrastructure) (result Result) {
	r.log.Info("lifecycle operation starting", logger.Fields(logger.FieldOperation, string(op)))

	defer func() {
		if rec := recover(); rec != nil {
			result = Failed(fmt.Errorf("lifecycle %s: panic: %v", op, rec))
		}
	}()

	var (
		resources []string
		metadata  map[string]any
		err       error
	)
	switch op {
	case OpInit:
		resources, err = infra.OnInit(ctx)
	case OpDestroy:
		resources, err = infra.OnDestroy(ctx)
	case OpStatus:
		resources, metadata, err = infra.OnStatus(ctx)
	case OpPlan:
		resources, metadata, err = infra.OnPlan(ctx)
	default:
		err = fmt.Errorf("unknown lifecycle operation %q", op)
	}

	if err != nil {
		return Failed(err)
	}
	return Success(resources, metadata)
}
