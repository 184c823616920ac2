package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/zerologr"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/sambhav26s/primes"
	"github.com/sambhav26s/primes/pkg/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	AppName     = "primes"
	PackageName = "github.com/sambhav26s/primes/cmd/primes"

	VerboseFlagName           = "verbose"
	PrettyFlagName            = "pretty"
	DetectorFlagName          = "detector"
	RoundsFlagName            = "rounds"
	OTLPTargetFlagName        = "otlp-target"
	OTLPInsecureFlagName      = "otlp-insecure"
	OTLPSamplingRatioFlagName = "otlp-sampling-ratio"
	CACertFlagName            = "cacert"
	TLSCertFlagName           = "cert"
	TLSKeyFlagName            = "key"

	DefaultOTLPTraceSamplingRatio = 0.5
)

// Version is updated from git tags during build.
var version = "unspecified"

func NewRootCmd() (*cobra.Command, error) {
	cobra.OnInitialize(initConfig)
	rootCmd := &cobra.Command{
		Use:     AppName,
		Version: version,
		Short:   "Compute the nth prime number with a pluggable primality detector",
		Long:    `Primes computes the nth prime number, either locally or through an HTTP client/server pair, using a caller-selected primality detector (wilson, trial-division, or miller-rabin).`,
	}
	rootCmd.PersistentFlags().CountP(VerboseFlagName, "v", "Enable verbose logging; can be repeated to increase verbosity")
	rootCmd.PersistentFlags().BoolP(PrettyFlagName, "p", false, "Disables structured JSON logging to stdout, making it easier to read")
	rootCmd.PersistentFlags().StringP(DetectorFlagName, "d", server.DetectorTrialDivision, "Primality detector to use: wilson, trial-division, or miller-rabin")
	rootCmd.PersistentFlags().Int(RoundsFlagName, primes.DefaultMillerRabinRounds, "Number of witness rounds for the miller-rabin detector")
	rootCmd.PersistentFlags().String(OTLPTargetFlagName, "", "An optional OpenTelemetry collection target that will receive metrics and traces")
	rootCmd.PersistentFlags().Bool(OTLPInsecureFlagName, false, "Disable remote TLS verification for OpenTelemetry target")
	rootCmd.PersistentFlags().Float64(OTLPSamplingRatioFlagName, DefaultOTLPTraceSamplingRatio, "Set the OpenTelemetry trace sampling ratio")
	rootCmd.PersistentFlags().StringArray(CACertFlagName, nil, "An optional CA certificate to use for remote TLS verification; can be repeated")
	rootCmd.PersistentFlags().String(TLSCertFlagName, "", "An optional TLS certificate to use")
	rootCmd.PersistentFlags().String(TLSKeyFlagName, "", "An optional TLS private key to use")
	for _, name := range []string{
		VerboseFlagName,
		PrettyFlagName,
		DetectorFlagName,
		RoundsFlagName,
		OTLPTargetFlagName,
		OTLPInsecureFlagName,
		OTLPSamplingRatioFlagName,
		CACertFlagName,
		TLSCertFlagName,
		TLSKeyFlagName,
	} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind %s pflag: %w", name, err)
		}
	}
	nthCmd, err := NewNthCmd()
	if err != nil {
		return nil, err
	}
	serverCmd, err := NewServerCmd()
	if err != nil {
		return nil, err
	}
	clientCmd, err := NewClientCmd()
	if err != nil {
		return nil, err
	}
	rootCmd.AddCommand(nthCmd, serverCmd, clientCmd)
	return rootCmd, nil
}

// Determine the outcome of command line flags, environment variables, and an
// optional configuration file to perform initialization of the application. An
// appropriate zerolog will be assigned as the default logr sink.
func initConfig() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zl := zerolog.New(os.Stderr).With().Caller().Timestamp().Logger()
	viper.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetConfigName("." + AppName)
	viper.SetEnvPrefix(AppName)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	verbosity := viper.GetInt(VerboseFlagName)
	switch {
	case verbosity > 2:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case verbosity == 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case verbosity == 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
	if viper.GetBool(PrettyFlagName) {
		zl = zl.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	logger = zerologr.New(&zl)
	primes.SetLogger(logger)
	if err == nil {
		return
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		logger.V(1).Info("Configuration file not found", "err", err)
		return
	}
	logger.Error(err, "Error reading configuration file")
}
