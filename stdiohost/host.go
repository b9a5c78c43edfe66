package stdiohost

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/provkit/provkit/config"
	"github.com/provkit/provkit/envelope"
	herrors "github.com/provkit/provkit/errors"
	"github.com/provkit/provkit/lifecycle"
	"github.com/provkit/provkit/logger"
	"github.com/provkit/provkit/observability"
	"github.com/provkit/provkit/provider"
)

// Options configures a Host for a provider of config type C.
type Options[C any, T provider.Runtime[C]] struct {
	// Name is the provider name used on log lines.
	Name string
	// Factory constructs the provider instance. Required.
	Factory provider.Factory[T]
	// In is the command/envelope stream. Defaults to os.Stdin.
	In io.Reader
	// Out is the protocol frame stream. Defaults to os.Stdout.
	Out io.Writer
	// Logger is the side-channel logger. Defaults to the registry.
	Logger *logger.Logger
	// Metrics, when set, records envelope and lifecycle counts.
	Metrics *observability.Metrics
	// Middleware is applied to lifecycle operations after the built-in
	// logging middleware.
	Middleware []lifecycle.Middleware
}

// Host drives one provider through the stdio command loop.
type Host[C any, T provider.Runtime[C]] struct {
	opts   Options[C, T]
	log    *logger.Logger
	runner *lifecycle.Runner
}

// New creates a Host from options.
func New[C any, T provider.Runtime[C]](opts Options[C, T]) (*Host[C, T], error) {
	if opts.Factory == nil {
		return nil, fmt.Errorf("stdiohost: factory is required")
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Get("stdiohost")
	}

	mw := []lifecycle.Middleware{lifecycle.WithLogging(opts.Logger)}
	if opts.Metrics != nil {
		mw = append(mw, lifecycle.WithMetrics(opts.Metrics))
	}
	mw = append(mw, opts.Middleware...)

	return &Host[C, T]{
		opts:   opts,
		log:    opts.Logger,
		runner: lifecycle.NewRunner(opts.Logger.WithComponent("lifecycle"), mw...),
	}, nil
}

// Run reads the command envelope from the first input line, binds the
// configuration, constructs the provider, and dispatches the command to
// completion. The returned error, if any, is a HostError carrying the
// process exit code; clean completion and cancellation return nil.
func (h *Host[C, T]) Run(ctx context.Context) error {
	sc := newLineScanner(h.opts.In)
	out := bufio.NewWriter(h.opts.Out)
	defer out.Flush()

	line, ok, err := sc.Next(ctx)
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return herrors.ConfigMissing().WithCause(err)
	}
	line = strings.TrimSpace(line)
	if !ok || line == "" {
		return herrors.ConfigMissing()
	}

	req, outcome := parseRequest([]byte(line))
	switch outcome {
	case parseFailed:
		return herrors.ConfigUnparseable(fmt.Errorf("first line is not a JSON object"))
	case parsedBareConfig:
		h.log.Debug("legacy bare configuration line, assuming run", logger.Fields(
			logger.FieldProvider, h.opts.Name,
		))
	}

	cfg := config.Defaults[C]()
	var raw any
	if len(req.Config) > 0 {
		raw = req.Config
	}
	if err := config.Bind(raw, &cfg); err != nil {
		h.log.Warn("configuration degraded to defaults", logger.Fields(
			logger.FieldProvider, h.opts.Name,
			logger.FieldCommand, req.Command,
			logger.FieldError, err.Error(),
		))
	}

	p := h.opts.Factory()
	rc := provider.NewRunContext(h.log.WithComponent("provider"), func(e envelope.Envelope) {
		if err := writeEnvelope(out, e); err != nil {
			h.log.Error("emitting envelope failed", logger.Fields(logger.FieldError, err.Error()))
		}
	})
	p.Initialize(cfg, rc)
	if init, ok := any(p).(provider.Initializer); ok {
		if err := init.Init(ctx); err != nil {
			h.log.Error("provider init hook failed", logger.Fields(
				logger.FieldProvider, p.Name(),
				logger.FieldError, err.Error(),
			))
		}
	}
	defer func() {
		if cl, ok := any(p).(provider.Closeable); ok {
			if err := cl.Close(context.Background()); err != nil {
				h.log.Warn("provider close failed", logger.Fields(logger.FieldError, err.Error()))
			}
		}
	}()

	if op, isLifecycle := lifecycle.ParseOperation(req.Command); isLifecycle {
		return h.runLifecycle(ctx, op, p, out)
	}
	if req.Command != DefaultCommand {
		return herrors.Newf(herrors.ErrCodeConfigUnparseable, "unknown command %q", req.Command)
	}

	// A provider implementing both directions streams out; the run
	// command drives exactly one loop.
	switch v := any(p).(type) {
	case provider.Input:
		return h.runInput(ctx, v, out)
	case provider.Output:
		return h.runOutput(ctx, v, sc)
	default:
		h.log.Warn("provider has no run capability", logger.Fields(
			logger.FieldProvider, p.Name(),
		))
		return nil
	}
}

// runLifecycle executes one infrastructure operation and writes its
// Result as a single JSON line.
func (h *Host[C, T]) runLifecycle(ctx context.Context, op lifecycle.Operation, p T, out *bufio.Writer) error {
	infra, ok := any(p).(lifecycle.Infrastructure)
	if !ok {
		return herrors.CapabilityMissing(p.Name(), string(op))
	}

	result := h.runner.Run(ctx, op, infra)

	data, err := json.Marshal(result)
	if err != nil {
		return herrors.New(herrors.ErrCodeInternal, "encoding lifecycle result").WithCause(err)
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return herrors.New(herrors.ErrCodeTransport, "writing lifecycle result").WithCause(err)
	}
	if err := out.Flush(); err != nil {
		return herrors.New(herrors.ErrCodeTransport, "flushing lifecycle result").WithCause(err)
	}

	h.log.Info("lifecycle result written", logger.Fields(
		logger.FieldProvider, p.Name(),
		logger.FieldOperation, string(op),
		logger.FieldStatus, string(result.Status),
		"resources", len(result.Resources),
	))
	return nil
}

// runInput drives the provider's produced stream, writing one JSON line
// per envelope and flushing after each. Provider failures stay on the
// side channel; only a broken output stream is a transport error.
func (h *Host[C, T]) runInput(ctx context.Context, in provider.Input, out *bufio.Writer) error {
	it, err := in.Produce(ctx)
	if err != nil {
		h.log.Error("starting stream failed", logger.Fields(
			logger.FieldProvider, in.Name(),
			logger.FieldError, err.Error(),
		))
		return nil
	}
	defer it.Close()

	count := 0
	for {
		e, ok, err := it.Next(ctx)
		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				h.log.Info("stream canceled", logger.Fields(
					logger.FieldProvider, in.Name(),
					logger.FieldCount, count,
				))
			} else {
				h.log.Error("stream failed", logger.Fields(
					logger.FieldProvider, in.Name(),
					logger.FieldCount, count,
					logger.FieldError, err.Error(),
				))
			}
			return nil
		}
		if !ok {
			break
		}

		if err := writeEnvelope(out, e); err != nil {
			return herrors.New(herrors.ErrCodeTransport, "writing envelope").WithCause(err)
		}
		count++
		if h.opts.Metrics != nil {
			h.opts.Metrics.RecordEmitted(ctx, in.Name(), 1)
		}
	}

	h.log.Info("stream complete", logger.Fields(
		logger.FieldProvider, in.Name(),
		logger.FieldCount, count,
	))
	return nil
}

// runOutput consumes envelope lines from stdin, forwarding each as a
// single-item batch. Malformed lines are dropped; a count of processed
// messages is reported when the stream ends.
func (h *Host[C, T]) runOutput(ctx context.Context, sink provider.Output, sc *lineScanner) error {
	processed, dropped := 0, 0
	for {
		line, ok, err := sc.Next(ctx)
		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				h.log.Info("consume canceled", logger.Fields(
					logger.FieldProvider, sink.Name(),
				))
			} else {
				h.log.Error("reading input stream failed", logger.Fields(
					logger.FieldProvider, sink.Name(),
					logger.FieldError, err.Error(),
				))
			}
			break
		}
		if !ok {
			break
		}

		e, err := envelope.DecodeLine([]byte(line))
		if err != nil {
			dropped++
			h.log.Warn("malformed line skipped", logger.Fields(
				logger.FieldProvider, sink.Name(),
				logger.FieldError, err.Error(),
			))
			if h.opts.Metrics != nil {
				h.opts.Metrics.RecordDropped(ctx, sink.Name())
			}
			continue
		}

		if err := sink.Write(ctx, []envelope.Envelope{e}); err != nil {
			h.log.Error("provider write failed", logger.Fields(
				logger.FieldProvider, sink.Name(),
				logger.FieldError, err.Error(),
			))
		}
		processed++
		if h.opts.Metrics != nil {
			h.opts.Metrics.RecordConsumed(ctx, sink.Name(), 1)
		}
	}

	h.log.Info("consume complete", logger.Fields(
		logger.FieldProvider, sink.Name(),
		"processed", processed,
		"dropped", dropped,
	))
	return nil
}

// writeEnvelope writes one envelope as a JSON line and flushes, keeping
// at most one in-flight item.
func writeEnvelope(out *bufio.Writer, e envelope.Envelope) error {
	data, err := envelope.EncodeLine(e)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	if err := out.WriteByte('\n'); err != nil {
		return err
	}
	return out.Flush()
}
