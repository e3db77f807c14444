// Package cmd defines the CLI commands for the sitetruth executable.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/oakline/sitetruth/internal/config"
	"github.com/oakline/sitetruth/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// newRootCmd creates the root command and registers the subcommands.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitetruth",
		Short: "Extract a business truth record from a website",
		Long: `sitetruth crawls a small-business website politely, extracts scored
candidates for the business facts it finds (name, contact details, services,
branding), and resolves them into a single truth.json record with full
provenance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sitetruth.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging with console output")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// initConfig loads defaults, the optional config file, and SITETRUTH_*
// environment overrides into the global viper.
func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("sitetruth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sitetruth")
	}
	v.SetEnvPrefix("SITETRUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "read config: %v\n", err)
			os.Exit(1)
		}
	}
}

// loadConfig materializes and validates the effective configuration.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, err
	}
	if verbose {
		cfg.Logging.Development = true
	}
	return cfg, nil
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Logging.Development)
}

// Execute runs the CLI.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
