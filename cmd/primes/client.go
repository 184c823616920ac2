package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sambhav26s/primes/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const (
	ClientServiceName  = "client"
	DefaultPrimeCount  = 10
	DefaultMaxTimeout  = 10 * time.Second
	CountFlagName      = "count"
	MaxTimeoutFlagName = "max-timeout"
	InsecureFlagName   = "insecure"
)

// Implements the client sub-command which requests the first primes
// from one or more prime service instances.
func NewClientCmd() (*cobra.Command, error) {
	clientCmd := &cobra.Command{
		Use:   ClientServiceName + " target [target]",
		Short: "Run an HTTP client to request primes from a prime service",
		Long: `Launches a client that will connect to prime service target(s) and request the first primes in rank order.

At least one target base URL must be provided. Metrics and traces will be sent to an OpenTelemetry collection endpoint, if specified.`,
		Args: cobra.MinimumNArgs(1),
		RunE: clientMain,
	}
	clientCmd.PersistentFlags().UintP(CountFlagName, "c", DefaultPrimeCount, "The number of primes to request")
	clientCmd.PersistentFlags().DurationP(MaxTimeoutFlagName, "m", DefaultMaxTimeout, "The maximum timeout for a prime service request")
	clientCmd.PersistentFlags().Bool(InsecureFlagName, false, "Disable TLS verification of prime service")
	for _, name := range []string{CountFlagName, MaxTimeoutFlagName, InsecureFlagName} {
		if err := viper.BindPFlag(name, clientCmd.PersistentFlags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind %s pflag: %w", name, err)
		}
	}
	return clientCmd, nil
}

// Client sub-command entrypoint. Requests are spread across the targets
// and issued concurrently; a failed rank renders as '-' rather than
// aborting the whole run.
func clientMain(_ *cobra.Command, targets []string) error {
	count := viper.GetInt(CountFlagName)
	logger := logger.V(1).WithValues(CountFlagName, count, "targets", targets)
	ctx := context.Background()
	logger.V(0).Info("Preparing telemetry")
	telemetryShutdown, err := initTelemetry(ctx, ClientServiceName)
	if err != nil {
		return err
	}
	defer telemetryShutdown(ctx)

	logger.V(0).Info("Preparing client TLS config")
	certPool, err := newCACertPool(viper.GetStringSlice(CACertFlagName))
	if err != nil {
		return err
	}
	tlsConf, err := newTLSConfig(viper.GetString(TLSCertFlagName), viper.GetString(TLSKeyFlagName), nil, certPool)
	if err != nil {
		return err
	}
	tlsConf.InsecureSkipVerify = viper.GetBool(InsecureFlagName)

	logger.V(0).Info("Building client")
	primeClient := client.NewPrimeClient(
		client.WithLogger(logger),
		client.WithMaxTimeout(viper.GetDuration(MaxTimeoutFlagName)),
		client.WithHTTPClient(&http.Client{Transport: &http.Transport{TLSClientConfig: tlsConf}}),
		client.WithUserAgent(AppName+"/"+version),
	)
	results := make([]string, count)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		n := uint64(i + 1)
		slot := i
		target := targets[i%len(targets)]
		g.Go(func() error {
			prime, err := primeClient.FetchPrime(ctx, target, n)
			if err != nil {
				logger.Error(err, "Error fetching prime", "n", n)
				results[slot] = "-"
				return nil
			}
			results[slot] = fmt.Sprintf("%d", prime)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("client run failed: %w", err)
	}
	fmt.Println(strings.Join(results, " "))
	return nil
}
