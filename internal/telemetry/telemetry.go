// Package telemetry wires logging, metrics and tracing for the dyngrid
// commands.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	// ErrUnknownFormat is returned for log formats other than text and json.
	ErrUnknownFormat = errors.New("unknown log format")
	// ErrUnknownExporter is returned for trace exporters other than stdout and none.
	ErrUnknownExporter = errors.New("unknown exporter")
)

// Config controls logging and telemetry.
type Config struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
	// MetricsAddr serves /metrics when set, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`
	// Traces selects the span exporter: stdout or none.
	Traces string `yaml:"traces"`
}

// DefaultConfig logs text at info with metrics and traces off.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text", Traces: "none"}
}

// NewLogger builds a slog logger writing to w.
func NewLogger(w io.Writer, cfg Config) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, cfg.Format)
	}
}

// Setup installs the global meter and tracer providers described by cfg.
// The returned shutdown flushes and stops them along with the metrics
// server. Call it once at startup.
func Setup(ctx context.Context, cfg Config, log *slog.Logger) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var errs []error
		for i := len(shutdownFuncs) - 1; i >= 0; i-- {
			errs = append(errs, shutdownFuncs[i](ctx))
		}
		return errors.Join(errs...)
	}

	res := resource.NewWithAttributes("",
		attribute.String("service.name", "dyngrid"),
	)

	if cfg.MetricsAddr != "" {
		_, stop, err := serveMetrics(ctx, cfg.MetricsAddr, res, log)
		if err != nil {
			return nil, err
		}
		shutdownFuncs = append(shutdownFuncs, stop)
	}

	switch cfg.Traces {
	case "", "none":
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, errors.Join(fmt.Errorf("create trace exporter: %w", err), shutdown(ctx))
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	default:
		return nil, errors.Join(fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Traces), shutdown(ctx))
	}
	return shutdown, nil
}

// serveMetrics exports the global meter through Prometheus on addr and
// returns the address it bound.
func serveMetrics(ctx context.Context, addr string, res *resource.Resource, log *slog.Logger) (string, func(context.Context) error, error) {
	reg := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return "", nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return "", nil, errors.Join(fmt.Errorf("listen %s: %w", addr, err), mp.Shutdown(ctx))
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "err", err)
		}
	}()
	bound := ln.Addr().String()
	log.Info("serving metrics", "addr", bound)

	return bound, func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
