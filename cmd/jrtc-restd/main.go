// jrtc-restd runs the app control REST server against an in-process
// simulated runtime, and doubles as a client for any server speaking the
// same API.
package main

import (
	"fmt"
	"os"

	"github.com/joeydtaylor/steeze-jrtc/pkg/serverfx"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type generalOptions struct {
	logLevel string
	logger   *zap.Logger
}

func (o *generalOptions) addToFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func (o *generalOptions) parse() error {
	lvl, err := zapcore.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	o.logger = l
	return nil
}

func serveCommand() *cobra.Command {
	opts := serverfx.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST server",
		Long:  "Run the REST server with a simulated runtime. Configuration comes from the manifest named by --manifest or $" + opts.ManifestEnv + ".",
		RunE: func(*cobra.Command, []string) error {
			fx.New(serverfx.Module(opts)).Run()
			return nil
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.ManifestPath, "manifest", "", "path to the TOML manifest")
	return cmd
}

func rootCommand() *cobra.Command {
	general := &generalOptions{}
	root := &cobra.Command{
		Use:   "jrtc-restd",
		Short: "REST control plane for jrt-controller apps",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return general.parse()
		},
		SilenceErrors: true,
	}
	general.addToFlags(root.PersistentFlags())
	root.AddCommand(serveCommand(), appCommand(general))
	return root
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
