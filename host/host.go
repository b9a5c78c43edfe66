package host

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/provkit/provkit/config"
	herrors "github.com/provkit/provkit/errors"
	"github.com/provkit/provkit/grpchost"
	"github.com/provkit/provkit/lifecycle"
	"github.com/provkit/provkit/logger"
	"github.com/provkit/provkit/observability"
	"github.com/provkit/provkit/provider"
	"github.com/provkit/provkit/stdiohost"
	"github.com/provkit/provkit/version"
)

// Transport selects how the provider is exposed to the orchestrator.
type Transport string

const (
	// TransportAuto serves gRPC when launched by an orchestrator and
	// falls back to the stdio command loop otherwise.
	TransportAuto Transport = "auto"
	// TransportGRPC forces the RPC transport.
	TransportGRPC Transport = "grpc"
	// TransportStdio forces the stdio command loop.
	TransportStdio Transport = "stdio"
)

// Options configures Serve for a provider of config type C.
type Options[C any, T provider.Runtime[C]] struct {
	// Name is the provider name. Required.
	Name string
	// Factory constructs the provider instance. Required.
	Factory provider.Factory[T]
	// Transport selects the hosting transport. Defaults to TransportAuto.
	Transport Transport
	// Standalone lets the RPC transport serve without orchestrator
	// environment markers. Wire it to a command-line flag.
	Standalone bool
	// Emit overrides the RPC transport's envelope sink.
	Emit provider.EmitFunc
	// Middleware is applied to stdio lifecycle operations.
	Middleware []lifecycle.Middleware
	// In and Out override the stdio streams, mainly for tests.
	In  io.Reader
	Out io.Writer
}

// Serve hosts the provider until the transport completes or the process
// is interrupted, and returns the process exit code.
func Serve[C any, T provider.Runtime[C]](opts Options[C, T]) int {
	cfg, err := config.LoadHostConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[host] invalid host configuration, using defaults: %v\n", err)
		cfg = config.HostConfig{}
		cfg.ApplyDefaults()
	}
	logger.Init(cfg.Logging)

	runID := uuid.NewString()
	log := logger.GetGlobalLogger().WithFields(map[string]interface{}{
		logger.FieldProvider: opts.Name,
		logger.FieldRunID:    runID,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Trace.Endpoint != "" {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    opts.Name,
			ServiceVersion: version.GetShortVersion(),
			Endpoint:       cfg.Trace.Endpoint,
			Insecure:       cfg.Trace.Insecure,
			SampleRate:     cfg.Trace.SampleRate,
		})
		if err != nil {
			log.Warn("tracer init failed, continuing without export", logger.Fields(
				logger.FieldError, err.Error(),
			))
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
				defer cancel()
				if err := tp.Shutdown(sctx); err != nil {
					log.Warn("tracer shutdown failed", logger.Fields(logger.FieldError, err.Error()))
				}
			}()
		}

		mp, err := observability.InitMeter(ctx, observability.MeterConfig{
			ServiceName:    opts.Name,
			ServiceVersion: version.GetShortVersion(),
			Endpoint:       cfg.Trace.Endpoint,
			Insecure:       cfg.Trace.Insecure,
		})
		if err != nil {
			log.Warn("meter init failed, continuing without export", logger.Fields(
				logger.FieldError, err.Error(),
			))
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
				defer cancel()
				if err := mp.Shutdown(sctx); err != nil {
					log.Warn("meter shutdown failed", logger.Fields(logger.FieldError, err.Error()))
				}
			}()
		}
	}

	metrics, err := observability.NewMetrics(observability.Meter("provkit.host"))
	if err != nil {
		log.Warn("metrics unavailable", logger.Fields(logger.FieldError, err.Error()))
		metrics = nil
	}

	tr := opts.Transport
	if tr == "" || tr == TransportAuto {
		if grpchost.Managed() {
			tr = TransportGRPC
		} else {
			tr = TransportStdio
		}
	}
	log.Info("starting host", logger.Fields(
		logger.FieldTransport, string(tr),
	))

	runErr := run(ctx, opts, tr, cfg, log, metrics)
	if runErr != nil {
		code := herrors.ExitCodeFor(runErr)
		log.Error("host terminated", logger.Fields(
			logger.FieldTransport, string(tr),
			logger.FieldError, runErr.Error(),
			"exit_code", code,
		))
		return code
	}

	log.Info("host complete", logger.Fields(
		logger.FieldTransport, string(tr),
	))
	return herrors.ExitOK
}

// Main is Serve followed by os.Exit, for one-line provider mains.
func Main[C any, T provider.Runtime[C]](opts Options[C, T]) {
	os.Exit(Serve(opts))
}

func run[C any, T provider.Runtime[C]](
	ctx context.Context,
	opts Options[C, T],
	tr Transport,
	cfg config.HostConfig,
	log *logger.Logger,
	metrics *observability.Metrics,
) error {
	switch tr {
	case TransportGRPC:
		h, err := grpchost.New(grpchost.Options[C, T]{
			Name:       opts.Name,
			Factory:    opts.Factory,
			Emit:       opts.Emit,
			Standalone: opts.Standalone,
			Server:     grpchost.Config{GracefulTimeout: cfg.GracefulTimeout},
			Logger:     log.WithComponent("grpchost"),
			Metrics:    metrics,
			Out:        opts.Out,
		})
		if err != nil {
			return err
		}
		return h.Run(ctx)

	case TransportStdio:
		h, err := stdiohost.New(stdiohost.Options[C, T]{
			Name:       opts.Name,
			Factory:    opts.Factory,
			In:         opts.In,
			Out:        opts.Out,
			Logger:     log.WithComponent("stdiohost"),
			Metrics:    metrics,
			Middleware: opts.Middleware,
		})
		if err != nil {
			return err
		}
		return h.Run(ctx)

	default:
		return herrors.Newf(herrors.ErrCodeInternal, "unknown transport %q", tr)
	}
}
