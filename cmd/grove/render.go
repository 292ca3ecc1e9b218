package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/phanxgames/grove"
	"github.com/phanxgames/grove/internal/scenefile"
	"github.com/phanxgames/grove/render/canvas"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	out    string
	frames int
	dt     float64
	script string
	watch  bool
}

func newRenderCmd(g *globalFlags) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render <scene.yaml>",
		Short: "Tick a scene and write the final frame as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.watch {
				return renderScene(g, args[0], opts)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watchScene(ctx, g, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.out, "out", "o", "out.png", "output PNG path")
	f.IntVar(&opts.frames, "frames", 0, "frames to tick before rendering")
	f.Float64Var(&opts.dt, "dt", grove.DefaultFixedStep, "seconds per frame")
	f.StringVar(&opts.script, "script", "", "JSON message script attached to the root")
	f.BoolVar(&opts.watch, "watch", false, "re-render whenever the scene file changes")
	return cmd
}

func renderScene(g *globalFlags, path string, opts *renderOptions) error {
	start := time.Now()
	file, err := scenefile.Load(path)
	if err != nil {
		return err
	}
	if file.Config, err = g.loadConfig(file.Config); err != nil {
		return err
	}
	tree, err := file.Build()
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	defer tree.Dispose()

	var script *grove.Script
	if opts.script != "" {
		data, err := os.ReadFile(opts.script)
		if err != nil {
			return fmt.Errorf("script: %w", err)
		}
		if script, err = grove.LoadScript(data); err != nil {
			return fmt.Errorf("script %s: %w", opts.script, err)
		}
		tree.Root().AddComponent(script)
	}

	for range opts.frames {
		tree.Tick(opts.dt)
	}
	if script != nil && script.Err() != nil {
		return script.Err()
	}

	d := canvas.New(file.Width, file.Height)
	defer d.Close()
	d.Clear(file.BackgroundColor())
	if err := tree.Render(d); err != nil {
		return err
	}
	if err := d.SavePNG(opts.out); err != nil {
		return fmt.Errorf("save %s: %w", opts.out, err)
	}
	grove.Logger().Info("rendered",
		slog.String("scene", path),
		slog.String("out", opts.out),
		slog.Uint64("frames", tree.Frame()),
		slog.Uint64("posts", tree.Router().Posts()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// watchScene renders once, then again on every write to path until ctx is
// done. The parent directory is watched so editors that replace the file on
// save are still seen. Render errors are logged and do not stop the watch.
func watchScene(ctx context.Context, g *globalFlags, path string, opts *renderOptions) error {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	if err := renderScene(g, path, opts); err != nil {
		grove.Logger().Error("render failed", slog.Any("error", err))
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			grove.Logger().Debug("scene changed", slog.String("op", ev.Op.String()))
			if err := renderScene(g, path, opts); err != nil {
				grove.Logger().Error("render failed", slog.Any("error", err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			grove.Logger().Warn("watch error", slog.Any("error", err))
		}
	}
}
