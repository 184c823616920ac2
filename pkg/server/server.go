// Package server implements an HTTP JSON service that returns the nth
// prime number, with optional response caching and OpenTelemetry
// metrics and traces.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/sambhav26s/primes"
	cachepkg "github.com/sambhav26s/primes/pkg/cache"
	"github.com/sambhav26s/primes/pkg/transfer"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// The default name to use when using OpenTelemetry components.
const OpenTelemetryPackageIdentifier = "pkg.server"

// Names accepted for detector selection, at startup and per request.
const (
	DetectorWilson        = "wilson"
	DetectorTrialDivision = "trial-division"
	DetectorMillerRabin   = "miller-rabin"
)

// ErrUnknownDetector is returned when a detector name does not match any
// registered implementation.
var ErrUnknownDetector = errors.New("unknown detector name")

// NamedDetector maps a wire/CLI detector name to an implementation. The
// rounds argument applies to miller-rabin only; values below one select
// the default round count. An empty name selects trial division.
func NamedDetector(name string, rounds int) (primes.Detector, error) {
	switch strings.ToLower(name) {
	case DetectorWilson:
		return primes.Wilson, nil
	case DetectorTrialDivision, "":
		return primes.TrialDivision, nil
	case DetectorMillerRabin:
		return primes.NewMillerRabin(primes.WithRounds(rounds)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDetector, name)
	}
}

// PrimeServer answers nth-prime lookups over HTTP.
type PrimeServer struct {
	// The logr.Logger implementation to use
	logger logr.Logger
	// An optional cache implementation; lookups hit the cache before
	// any computation is attempted
	cache cachepkg.Cache
	// The detector used when a request does not name one
	detector     primes.Detector
	detectorName string
	// Round count handed to miller-rabin detectors
	rounds int
	// An optional replacement for the default bound estimator
	bound primes.BoundFunc
	// Instance specific metadata returned in responses
	metadata transfer.Metadata
	// A histogram of calculation durations
	calculationMs metric.Int64Histogram
	// A counter for the number of errors returned by cache
	cacheErrors metric.Int64Counter
	// A counter for cache hits
	cacheHits metric.Int64Counter
	// A counter for cache misses
	cacheMisses metric.Int64Counter
}

// Defines the function signature for PrimeServer options.
type PrimeServerOption func(*PrimeServer)

// Use the supplied logger for the server and primes packages.
func WithLogger(logger logr.Logger) PrimeServerOption {
	return func(s *PrimeServer) {
		s.logger = logger
		primes.SetLogger(logger)
	}
}

// Use the Cache implementation to store computed primes so a rank that
// has already been answered is not recomputed.
func WithCache(cache cachepkg.Cache) PrimeServerOption {
	return func(s *PrimeServer) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// Select the default detector by name; resolution happens in
// NewPrimeServer so an unknown name fails construction.
func WithDetector(name string, rounds int) PrimeServerOption {
	return func(s *PrimeServer) {
		if name != "" {
			s.detectorName = strings.ToLower(name)
		}
		if rounds > 0 {
			s.rounds = rounds
		}
	}
}

// Replace the default bound estimator used by the finder.
func WithBoundFunc(bound primes.BoundFunc) PrimeServerOption {
	return func(s *PrimeServer) {
		if bound != nil {
			s.bound = bound
		}
	}
}

// Add the key-value labels to the server's response metadata.
func WithLabels(labels map[string]string) PrimeServerOption {
	return func(s *PrimeServer) {
		for k, v := range labels {
			s.metadata.Labels[k] = v
		}
	}
}

// Create a new PrimeServer and apply any options.
func NewPrimeServer(options ...PrimeServerOption) (*PrimeServer, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	server := &PrimeServer{
		logger:       logr.Discard(),
		cache:        cachepkg.NewNoopCache(),
		detectorName: DetectorTrialDivision,
		metadata: transfer.Metadata{
			Identity: uuid.NewString(),
			Hostname: hostname,
			Labels:   map[string]string{},
		},
	}
	for _, option := range options {
		option(server)
	}
	server.detector, err = NamedDetector(server.detectorName, server.rounds)
	if err != nil {
		return nil, err
	}
	meter := otel.Meter(OpenTelemetryPackageIdentifier)
	server.calculationMs, err = meter.Int64Histogram(
		OpenTelemetryPackageIdentifier+".calc_duration_ms",
		metric.WithUnit("ms"),
		metric.WithDescription("The duration (ms) of prime calculations"),
	)
	if err != nil {
		return nil, fmt.Errorf("error returned while creating calculationMs Histogram: %w", err)
	}
	server.cacheErrors, err = meter.Int64Counter(
		OpenTelemetryPackageIdentifier+".cache_errors",
		metric.WithDescription("The count of error responses from prime cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("error returned while creating cacheErrors Counter: %w", err)
	}
	server.cacheHits, err = meter.Int64Counter(
		OpenTelemetryPackageIdentifier+".cache_hits",
		metric.WithDescription("The count of cache hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("error returned while creating cacheHits Counter: %w", err)
	}
	server.cacheMisses, err = meter.Int64Counter(
		OpenTelemetryPackageIdentifier+".cache_misses",
		metric.WithDescription("The count of cache misses"),
	)
	if err != nil {
		return nil, fmt.Errorf("error returned while creating cacheMisses Counter: %w", err)
	}
	return server, nil
}

// Handler builds the HTTP routing for the service, ready to be attached
// to an http.Server.
func (s *PrimeServer) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(OpenTelemetryPackageIdentifier))
	engine.GET("/api/v1/prime/:n", s.getPrime)
	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return engine
}

// Handles a single nth-prime lookup. The default detector can be
// overridden per request with a detector query parameter.
func (s *PrimeServer) getPrime(c *gin.Context) {
	n, err := strconv.ParseUint(c.Param("n"), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, transfer.ErrorResponse{Error: "n must be a positive integer"})
		return
	}
	logger := s.logger.WithValues("n", n)
	logger.Info("getPrime: enter")
	detector, name := s.detector, s.detectorName
	if q := c.Query("detector"); q != "" {
		detector, err = NamedDetector(q, s.rounds)
		if err != nil {
			c.JSON(http.StatusBadRequest, transfer.ErrorResponse{Error: err.Error()})
			return
		}
		name = strings.ToLower(q)
	}
	ctx := c.Request.Context()
	key := strconv.FormatUint(n, 16)
	attributes := []attribute.KeyValue{
		attribute.Int64(OpenTelemetryPackageIdentifier+".n", int64(n)),
		attribute.String(OpenTelemetryPackageIdentifier+".detector", name),
	}
	var prime uint64
	value, err := s.cache.GetValue(ctx, key)
	if err != nil {
		s.cacheErrors.Add(ctx, 1, metric.WithAttributes(attributes...))
		logger.Error(err, "Cache GetValue returned an error")
		c.JSON(http.StatusInternalServerError, transfer.ErrorResponse{Error: fmt.Sprintf("cache %T GetValue method returned an error: %v", s.cache, err)})
		return
	}
	if value != "" {
		s.cacheHits.Add(ctx, 1, metric.WithAttributes(attributes...))
		prime, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			c.JSON(http.StatusInternalServerError, transfer.ErrorResponse{Error: fmt.Sprintf("failed to parse cached value as uint: %v", err)})
			return
		}
	} else {
		s.cacheMisses.Add(ctx, 1, metric.WithAttributes(attributes...))
		ts := time.Now()
		prime, err = primes.FindNthPrime(n, detector, s.bound)
		s.calculationMs.Record(ctx, time.Since(ts).Milliseconds(), metric.WithAttributes(attributes...))
		if err != nil {
			logger.Error(err, "FindNthPrime returned an error")
			status := http.StatusInternalServerError
			if errors.Is(err, primes.ErrInvalidN) {
				status = http.StatusBadRequest
			}
			c.JSON(status, transfer.ErrorResponse{Error: err.Error()})
			return
		}
		if err = s.cache.SetValue(ctx, key, strconv.FormatUint(prime, 10)); err != nil {
			s.cacheErrors.Add(ctx, 1, metric.WithAttributes(attributes...))
			logger.Error(err, "Cache SetValue returned an error")
			c.JSON(http.StatusInternalServerError, transfer.ErrorResponse{Error: fmt.Sprintf("cache %T SetValue method returned an error: %v", s.cache, err)})
			return
		}
	}
	logger.Info("getPrime: exit", "prime", prime)
	c.JSON(http.StatusOK, transfer.PrimeResponse{
		N:        n,
		Prime:    prime,
		Detector: name,
		Metadata: s.metadata,
	})
}
