// Command grove renders YAML scene files and benchmarks the frame driver.
//
//	grove render scene.yaml -o out.png --frames 60
//	grove render scene.yaml --watch
//	grove bench --nodes 10000 --frames 300 --profile cpu
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phanxgames/grove"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	verbose     bool
	veryVerbose bool
	quiet       bool
	config      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "grove",
		Short:        "Render and benchmark grove scene graphs",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := levelFromFlags(g.veryVerbose, g.verbose, g.quiet)
			grove.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	pf := root.PersistentFlags()
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log info messages")
	pf.BoolVar(&g.veryVerbose, "vv", false, "log debug messages")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "only log errors")
	pf.StringVar(&g.config, "config", "", "tree config file (.yaml, .toml or .json)")

	root.AddCommand(newRenderCmd(g), newBenchCmd(g))
	return root
}

// levelFromFlags returns the log level for the verbosity flags. Without any
// flag only warnings and errors are logged.
func levelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// loadConfig returns the --config file when set, replacing base entirely.
func (g *globalFlags) loadConfig(base grove.Config) (grove.Config, error) {
	if g.config == "" {
		return base, nil
	}
	cfg, err := grove.LoadConfig(g.config)
	if err != nil {
		return base, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
