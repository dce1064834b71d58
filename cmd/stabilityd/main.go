package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vjranagit/detector-stability/internal/config"
	"go.uber.org/zap"
)

const (
	version = "0.3.0"
)

// app is the state shared by every subcommand after configuration is loaded
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var configPath string

	cmd := &cobra.Command{
		Use:   "stabilityd",
		Short: "Detector hall environment stability monitor",
		Long: `Generates synthetic detector hall telemetry, trains a model of the
Stability Index and evaluates it over a live, wrapping window of telemetry.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(configPath)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to configuration file")
	flags.String("data-dir", "", "directory holding the dataset and model store")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("data.dir", flags.Lookup("data-dir"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))

	cmd.AddCommand(
		generateCmd(a),
		trainCmd(a),
		serveCmd(a),
		versionCmd(),
	)
	return cmd
}

func (a *app) load(configPath string) error {
	cfg, err := config.Load(a.v, configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger

	if f := a.v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Debug("no configuration file found, using defaults")
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stabilityd v%s\n", version)
		},
	}
}
