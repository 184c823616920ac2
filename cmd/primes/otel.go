package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"
)

const metricReportingPeriod = 30 * time.Second

// Create a new OpenTelemetry resource to describe the source of metrics and traces.
func newTelemetryResource(ctx context.Context, name string) (*resource.Resource, error) {
	logger := logger.V(1).WithValues("name", name)
	logger.Info("Creating new OpenTelemetry resource descriptor")
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for telemetry resource: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceNamespaceKey.String(PackageName),
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(version),
			semconv.ServiceInstanceIDKey.String(id.String()),
		),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithOS(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create new telemetry resource: %w", err)
	}
	return res, nil
}

// Initializes OpenTelemetry metric and trace processing and delivery to
// a collector target, returning a function that can be called to
// shutdown the background pipeline processes. When no collector target
// is configured the providers are left at their no-op defaults.
func initTelemetry(ctx context.Context, name string) (func(context.Context), error) {
	target := viper.GetString(OTLPTargetFlagName)
	logger := logger.V(1).WithValues("name", name, "target", target)
	if target == "" {
		logger.V(0).Info("OpenTelemetry endpoint is not set; no metrics or traces will be sent to a collector")
		return func(_ context.Context) {}, nil
	}
	logger.Info("Initializing OpenTelemetry")
	res, err := newTelemetryResource(ctx, name)
	if err != nil {
		return nil, err
	}

	traceOptions := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
	metricOptions := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(target)}
	if viper.GetBool(OTLPInsecureFlagName) {
		traceOptions = append(traceOptions, otlptracegrpc.WithInsecure())
		metricOptions = append(metricOptions, otlpmetricgrpc.WithInsecure())
	} else {
		certPool, err := newCACertPool(viper.GetStringSlice(CACertFlagName))
		if err != nil {
			return nil, err
		}
		tlsConf, err := newTLSConfig(viper.GetString(TLSCertFlagName), viper.GetString(TLSKeyFlagName), nil, certPool)
		if err != nil {
			return nil, err
		}
		creds := credentials.NewTLS(tlsConf)
		traceOptions = append(traceOptions, otlptracegrpc.WithTLSCredentials(creds))
		metricOptions = append(metricOptions, otlpmetricgrpc.WithTLSCredentials(creds))
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(viper.GetFloat64(OTLPSamplingRatioFlagName)))),
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	metricExporter, err := otlpmetricgrpc.New(ctx, metricOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new metric exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(metricReportingPeriod))),
	)
	otel.SetMeterProvider(meterProvider)

	logger.Info("OpenTelemetry initialization complete, returning shutdown function")
	return func(ctx context.Context) {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.Error(err, "Error raised while shutting down tracing; continuing")
		}
		if err := meterProvider.Shutdown(ctx); err != nil {
			logger.Error(err, "Error raised while shutting down metrics; continuing")
		}
	}, nil
}
