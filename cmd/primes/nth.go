package main

import (
	"fmt"
	"strconv"

	"github.com/sambhav26s/primes"
	"github.com/sambhav26s/primes/pkg/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Implements the nth sub-command which computes a prime in-process.
func NewNthCmd() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   "nth n",
		Short: "Compute the nth prime number locally",
		Long:  "Computes the nth prime in-process with the selected primality detector, without contacting a prime service.",
		Args:  cobra.ExactArgs(1),
		RunE:  nthMain,
	}, nil
}

// Nth sub-command entrypoint.
func nthMain(cmd *cobra.Command, args []string) error {
	n, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || n == 0 {
		return fmt.Errorf("n must be a positive integer, got %q", args[0])
	}
	detectorName := viper.GetString(DetectorFlagName)
	logger := logger.V(1).WithValues("n", n, DetectorFlagName, detectorName)
	logger.V(0).Info("Resolving detector")
	detector, err := server.NamedDetector(detectorName, viper.GetInt(RoundsFlagName))
	if err != nil {
		return err
	}
	prime, err := primes.FindNthPrime(n, detector, nil)
	if err != nil {
		return fmt.Errorf("failed to compute prime %d: %w", n, err)
	}
	fmt.Println(prime)
	return nil
}
