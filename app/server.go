package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/advdv/bapi"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
)

// ServerConfig holds optional configuration for the HTTP server.
type ServerConfig struct {
	HealthHandler func(http.ResponseWriter, *http.Request)
}

// RouterParams holds the dependencies for creating the router.
type RouterParams struct {
	fx.In

	Env    Environment
	Logger *zap.Logger
	SQS    SQSAPI
}

// NewRouter creates the router typed endpoints are registered on. It is configured from the
// environment, logs through zap and reports internal failures to the log and, when a report
// queue is configured, to SQS.
func NewRouter(params RouterParams) *bapi.Router {
	opts := []bapi.Option{
		bapi.WithLogger(NewZapLogger(params.Logger)),
		bapi.WithOpenAPIVersion(params.Env.openapiVersion()),
		bapi.WithBufferLimit(params.Env.bufferLimit()),
		bapi.WithMiddleware(withRequestDep(&requestDep{logger: params.Logger})),
	}
	if params.Env.strictParams() {
		opts = append(opts, bapi.WithStrictParams())
	}

	rt := bapi.New(params.Env.serviceName(), params.Env.apiVersion(), opts...)
	rt.RegisterExceptionReporter(LogReporter(params.Logger))

	if queueURL := params.Env.reportQueueURL(); queueURL != "" && params.SQS != nil {
		rt.RegisterExceptionReporter(SQSReporter(params.SQS, queueURL, params.Logger))
	}

	return rt
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	Router     *bapi.Router
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewServer creates an HTTP server with tracing and the health check endpoint configured.
func NewServer(params ServerParams, cfg ServerConfig) *http.Server {
	// The readiness endpoint is served by the mux directly so it stays out of the api
	// description. Tracing is disabled for this path to avoid noisy orphan traces from probes.
	healthPath := params.Env.readinessCheckPath()
	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	params.Router.Mux().HandleFunc("GET "+healthPath, func(_ context.Context, w bapi.ResponseWriter, r *http.Request) error {
		healthHandler(w, r)
		return nil
	})

	handler := withTracing(params.TracerProv, params.Propagator, params.Env.serviceName(), healthPath)(params.Router)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", params.Env.port()),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// startServerHook registers lifecycle hooks for the HTTP server.
func startServerHook(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting server", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return server.Shutdown(ctx)
		},
	})
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
