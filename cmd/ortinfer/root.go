package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the configuration and collaborators shared by every command.
type app struct {
	v      *viper.Viper
	logger zerolog.Logger

	// replaced in tests
	openModel func(cmd *cobra.Command, location string) (runner, func(), error)
	openPool  func(cmd *cobra.Command, location string, size int, extra *poolExtras) (poolRunner, func(), error)
	providers func() ([]string, error)
}

func newApp() *app {
	a := &app{
		v:      viper.New(),
		logger: zerolog.Nop(),
	}
	a.openModel = a.loadModel
	a.openPool = a.loadPool
	a.providers = a.availableProviders
	return a
}

func newRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ortinfer",
		Short:         "ortinfer runs ONNX models through ONNX Runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(cmd); err != nil {
				return err
			}
			return a.initLogger(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default ./ortinfer.yaml or ~/.ortinfer/ortinfer.yaml)")

	// logging flags
	flags.Bool("with-caller", false, "Log caller")
	flags.String("log-level", "info", "Log level (debug, info, warn, error, fatal)")
	flags.String("log-format", "text", "Log format (json, text)")
	flags.String("log-file", "", "Also log to this file, rotated")

	// runtime flags
	flags.String("lib", "", "Path to the ONNX Runtime shared library (default $ONNXRUNTIME_LIB_PATH)")
	flags.Uint("api-version", 0, "ONNX Runtime C API version (0 selects the default)")
	flags.String("cache-dir", "", "Directory for downloaded models")
	flags.String("ort-log-level", "warning", "ONNX Runtime log level (verbose, info, warning, error, fatal)")

	// session flags
	flags.Int("intra-op-threads", 0, "Threads used within an operator (0 = default)")
	flags.Int("inter-op-threads", 0, "Threads used across operators (0 = default)")
	flags.String("graph-opt", "all", "Graph optimization level (disabled, basic, extended, all)")
	flags.Bool("parallel", false, "Execute independent operators in parallel")
	flags.Int64("batch-size", 1, "Size substituted for a dynamic batch dimension")

	rootCmd.AddCommand(a.runCmd(), a.inspectCmd(), a.benchCmd())
	return rootCmd
}

// initConfig layers flags over ORTINFER_* environment variables over the
// config file.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("ortinfer")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		a.v.SetConfigFile(configPath)
	} else {
		a.v.SetConfigName("ortinfer")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home + "/.ortinfer")
		}
	}

	err := a.v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("reading config: %w", err)
	}

	if err := a.v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	return a.v.BindPFlags(cmd.Flags())
}

func (a *app) initLogger(stderr io.Writer) error {
	logger, err := newLogger(&logConfig{
		Level:      a.v.GetString("log-level"),
		LogFile:    a.v.GetString("log-file"),
		LogFormat:  a.v.GetString("log-format"),
		WithCaller: a.v.GetBool("with-caller"),
	}, stderr)
	if err != nil {
		return err
	}
	a.logger = logger
	log.Logger = logger

	a.logger.Debug().
		Str("config", a.v.ConfigFileUsed()).
		Msg("Loaded configuration")
	return nil
}
