package grpchost

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/provkit/provkit/config"
	"github.com/provkit/provkit/envelope"
	herrors "github.com/provkit/provkit/errors"
	"github.com/provkit/provkit/logger"
	"github.com/provkit/provkit/observability"
	"github.com/provkit/provkit/provider"
	"github.com/provkit/provkit/version"
)

const directExecutionWarning = `This binary is a provider host meant to be launched by an orchestrator.
It is not a standalone program. To run it anyway, pass the standalone flag.`

// Options configures a Host for a provider of config type C.
type Options[C any, T provider.Runtime[C]] struct {
	// Name is the provider name reported in the schema and on log lines.
	Name string
	// Factory constructs the provider instance. Required.
	Factory provider.Factory[T]
	// Emit receives every produced envelope. When nil, envelopes are
	// reported on the side channel only.
	Emit provider.EmitFunc
	// Standalone serves even without orchestrator environment markers.
	Standalone bool
	// Server holds RPC server settings.
	Server Config
	// Logger is the side-channel logger. Defaults to the registry.
	Logger *logger.Logger
	// Metrics, when set, records envelope counts.
	Metrics *observability.Metrics
	// Out is where the handshake line or direct-execution warning is
	// written. Defaults to os.Stdout and must never be used otherwise.
	Out io.Writer
}

// Host serves one provider over the RPC transport. At most one Start
// call is expected live at a time; the provider instance is constructed
// on the first Start and reused afterward.
type Host[C any, T provider.Runtime[C]] struct {
	opts   Options[C, T]
	log    *logger.Logger
	schema *Schema

	mu      sync.Mutex
	prov    T
	created bool
}

// New creates a Host from options. The schema is computed once here, so
// GetSchema never has side effects.
func New[C any, T provider.Runtime[C]](opts Options[C, T]) (*Host[C, T], error) {
	if opts.Factory == nil {
		return nil, fmt.Errorf("grpchost: factory is required")
	}
	opts.Server.ApplyDefaults()
	if err := opts.Server.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logger.Get("grpchost")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	fields, err := config.Encode(config.Defaults[C]())
	if err != nil {
		return nil, fmt.Errorf("grpchost: encoding default config: %w", err)
	}
	return &Host[C, T]{
		opts: opts,
		log:  opts.Logger,
		schema: &Schema{
			Name:         opts.Name,
			Version:      version.GetShortVersion(),
			ConfigFields: fields,
		},
	}, nil
}

// Run serves the ProviderHost interface until ctx is canceled. It
// returns nil on clean shutdown, including the direct-execution warning
// path, and a HostError when the listener cannot be bound.
func (h *Host[C, T]) Run(ctx context.Context) error {
	if !h.opts.Standalone && !Managed() {
		fmt.Fprintln(h.opts.Out, directExecutionWarning)
		return nil
	}
	if !protocolSupported() {
		h.log.Warn("orchestrator does not advertise this protocol version", logger.Fields(
			"app_protocol", AppProtocol,
			"advertised", os.Getenv(EnvProtocolVersions),
		))
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return herrors.ListenerFailed(err)
	}

	srv := grpc.NewServer(h.opts.Server.serverOptions()...)
	srv.RegisterService(&serviceDesc, h)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(lis); err != nil {
			return herrors.New(herrors.ErrCodeTransport, "rpc server stopped").WithCause(err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		h.log.Info("shutting down rpc server", logger.Fields(
			logger.FieldProvider, h.opts.Name,
		))
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(h.opts.Server.GracefulTimeout):
			srv.Stop()
		}
		return nil
	})

	// The listener is live; stdout gets the handshake and nothing else.
	hs := NewHandshake(lis.Addr().String())
	fmt.Fprintln(h.opts.Out, hs.String())
	h.log.Info("serving", logger.Fields(
		logger.FieldProvider, h.opts.Name,
		logger.FieldTransport, ProtocolName,
		"addr", hs.Addr,
	))

	return g.Wait()
}

// GetSchema returns the static provider schema. Callable at any time,
// including before Start.
func (h *Host[C, T]) GetSchema(ctx context.Context, _ *SchemaRequest) (*Schema, error) {
	return h.schema, nil
}

// Start binds the request configuration, constructs and initializes the
// provider on first call, and drives the input stream to completion if
// the provider produces one. The acknowledgement is unconditional:
// failures inside the stream are reported on the side channel only.
func (h *Host[C, T]) Start(ctx context.Context, req *StartRequest) (*StartResponse, error) {
	var raw any
	if req != nil && len(req.Config) > 0 {
		raw = req.Config
	}
	cfg := config.Defaults[C]()
	if err := config.Bind(raw, &cfg); err != nil {
		h.log.Warn("configuration degraded to defaults", logger.Fields(
			logger.FieldProvider, h.opts.Name,
			logger.FieldError, err.Error(),
		))
	}

	p, first := h.instance(ctx, cfg)
	if !first {
		h.log.Debug("provider already initialized, reusing instance", logger.Fields(
			logger.FieldProvider, h.opts.Name,
		))
	}

	in, ok := any(p).(provider.Input)
	if !ok {
		h.log.Info("provider produces no stream", logger.Fields(
			logger.FieldProvider, h.opts.Name,
		))
		return &StartResponse{}, nil
	}

	h.stream(ctx, in)
	return &StartResponse{}, nil
}

// instance returns the provider, constructing and initializing it on
// the first call. Reports whether this call created it.
func (h *Host[C, T]) instance(ctx context.Context, cfg C) (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.created {
		return h.prov, false
	}

	p := h.opts.Factory()
	rc := provider.NewRunContext(h.log.WithComponent("provider"), h.emit)
	p.Initialize(cfg, rc)
	if init, ok := any(p).(provider.Initializer); ok {
		if err := init.Init(ctx); err != nil {
			h.log.Error("provider init hook failed", logger.Fields(
				logger.FieldProvider, p.Name(),
				logger.FieldError, err.Error(),
			))
		}
	}

	h.prov = p
	h.created = true
	return p, true
}

// emit forwards one envelope downstream, or reports it on the side
// channel when no sink is wired.
func (h *Host[C, T]) emit(e envelope.Envelope) {
	if h.opts.Emit != nil {
		h.opts.Emit(e)
		return
	}
	h.log.Info("envelope", logger.Fields(
		logger.FieldSource, e.Source,
		"type", e.Type,
		"data", e.Data,
	))
}

// stream pulls produced envelopes until the iterator is exhausted or
// ctx is canceled. Cancellation is a clean shutdown. Any other failure
// is logged and swallowed; the Start acknowledgement still goes out, so
// orchestrators only learn of mid-stream failures via the side channel.
func (h *Host[C, T]) stream(ctx context.Context, in provider.Input) {
	it, err := in.Produce(ctx)
	if err != nil {
		h.log.Error("starting stream failed", logger.Fields(
			logger.FieldProvider, in.Name(),
			logger.FieldError, err.Error(),
		))
		return
	}
	defer it.Close()

	var count int64
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
			return
		}
		if !ok {
			h.log.Info("stream complete", logger.Fields(
				logger.FieldProvider, in.Name(),
				logger.FieldCount, count,
			))
			return
		}

		h.emit(e)
		count++
		if h.opts.Metrics != nil {
			h.opts.Metrics.RecordEmitted(ctx, in.Name(), 1)
		}
	}
}
