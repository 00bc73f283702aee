// Command carve evaluates Carve design files and runs boolean operations on
// STL meshes.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/chazu/carve/pkg/config"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	logLevel   string
	cfg        config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "carve:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "carve",
		Short:         "Constructive solid geometry on polygon meshes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newEvalCmd(opts))
	for _, op := range []string{"union", "difference", "intersection"} {
		root.AddCommand(newBooleanCmd(op))
	}
	root.AddCommand(newComplementCmd())
	return root
}

// setup loads the configuration and installs the default logger.
func (o *options) setup() error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	o.cfg = cfg

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Debug("config loaded", "path", o.configPath, "kernel", cfg.Kernel)
	return nil
}

// loadConfig reads path, or DefaultFile in the working directory when path
// is empty. A missing default file yields config.Default().
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.DefaultFile); err == nil {
		return config.Load(config.DefaultFile)
	}
	return config.Default(), nil
}
