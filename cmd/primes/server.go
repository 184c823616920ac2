package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sambhav26s/primes/pkg/cache"
	"github.com/sambhav26s/primes/pkg/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const (
	ServerServiceName        = "server"
	DefaultHTTPListenAddress = ":8080"
	AddressFlagName          = "address"
	RedisTargetFlagName      = "redis-target"
	LabelFlagName            = "label"

	serverReadTimeout     = 10 * time.Second
	serverWriteTimeout    = 120 * time.Second
	serverShutdownTimeout = 60 * time.Second
)

// Implements the server sub-command.
func NewServerCmd() (*cobra.Command, error) {
	serverCmd := &cobra.Command{
		Use:   ServerServiceName,
		Short: "Run an HTTP service to return the nth prime number",
		Long: `Launches an HTTP prime service that computes the nth prime number with the selected primality detector.

One prime will be returned per request. An optional Redis DB can be used to cache computed primes. Metrics and traces will be sent to an OpenTelemetry collection endpoint, if specified.`,
		RunE: serverMain,
	}
	serverCmd.PersistentFlags().StringP(AddressFlagName, "a", DefaultHTTPListenAddress, "Address to listen for prime service requests")
	serverCmd.PersistentFlags().String(RedisTargetFlagName, "", "An optional Redis endpoint to use as a prime service cache")
	serverCmd.PersistentFlags().StringToStringP(LabelFlagName, "l", nil, "An optional label key=value to add to prime service response metadata; can be repeated")
	for _, name := range []string{AddressFlagName, RedisTargetFlagName, LabelFlagName} {
		if err := viper.BindPFlag(name, serverCmd.PersistentFlags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind %s pflag: %w", name, err)
		}
	}
	return serverCmd, nil
}

// Server sub-command entrypoint. This function will launch the prime
// service and block until signalled to shut down.
func serverMain(_ *cobra.Command, _ []string) error {
	address := viper.GetString(AddressFlagName)
	redisTarget := viper.GetString(RedisTargetFlagName)
	logger := logger.V(1).WithValues(AddressFlagName, address, RedisTargetFlagName, redisTarget)
	ctx := context.Background()
	logger.V(0).Info("Preparing telemetry")
	telemetryShutdown, err := initTelemetry(ctx, ServerServiceName)
	if err != nil {
		return err
	}

	logger.V(0).Info("Preparing service")
	options := []server.PrimeServerOption{
		server.WithLogger(logger),
		server.WithDetector(viper.GetString(DetectorFlagName), viper.GetInt(RoundsFlagName)),
		server.WithLabels(viper.GetStringMapString(LabelFlagName)),
	}
	if redisTarget != "" {
		options = append(options, server.WithCache(cache.NewRedisCache(ctx, redisTarget)))
	}
	primeServer, err := server.NewPrimeServer(options...)
	if err != nil {
		return fmt.Errorf("failed to build prime server: %w", err)
	}
	httpServer := &http.Server{
		Addr:         address,
		Handler:      primeServer.Handler(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	certFile := viper.GetString(TLSCertFlagName)
	keyFile := viper.GetString(TLSKeyFlagName)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.V(0).Info("Starting HTTP service")
		var err error
		if certFile != "" && keyFile != "" {
			err = httpServer.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer listener returned an error: %w", err)
		}
		return nil
	})

	select {
	case <-interrupt:
	case <-ctx.Done():
	}
	logger.V(0).Info("Shutting down on signal")
	cancel()
	shutdownCtx, shutdown := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "Failed to shutdown HTTP server cleanly")
	}
	telemetryShutdown(shutdownCtx)
	return g.Wait()
}
