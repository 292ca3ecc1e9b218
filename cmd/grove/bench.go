package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/phanxgames/grove"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/tanema/gween/ease"
)

type benchOptions struct {
	nodes   int
	fanout  int
	frames  int
	posts   int
	profile string
	dir     string
}

func newBenchCmd(g *globalFlags) *cobra.Command {
	opts := &benchOptions{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Tick a synthetic tree and report per-frame cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(grove.Config{})
			if err != nil {
				return err
			}
			if opts.nodes < 1 || opts.fanout < 1 || opts.frames < 1 {
				return fmt.Errorf("bench: --nodes, --fanout and --frames must be positive")
			}
			var stop interface{ Stop() }
			switch opts.profile {
			case "":
			case "cpu":
				stop = profile.Start(profile.CPUProfile, profile.ProfilePath(opts.dir), profile.NoShutdownHook, profile.Quiet)
			case "mem":
				stop = profile.Start(profile.MemProfileAllocs, profile.ProfilePath(opts.dir), profile.NoShutdownHook, profile.Quiet)
			default:
				return fmt.Errorf("bench: unknown profile %q (want cpu or mem)", opts.profile)
			}
			res, err := runBench(cfg, opts)
			if stop != nil {
				stop.Stop()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"nodes=%d frames=%d total=%s per-frame=%s posts=%d delivered=%d\n",
				res.nodes, res.frames, res.elapsed, res.elapsed/time.Duration(res.frames), res.posts, res.delivered)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.nodes, "nodes", 10000, "nodes in the synthetic tree")
	f.IntVar(&opts.fanout, "fanout", 8, "children per interior node")
	f.IntVar(&opts.frames, "frames", 300, "frames to tick")
	f.IntVar(&opts.posts, "posts", 16, "bubbling posts per frame")
	f.StringVar(&opts.profile, "profile", "", "write a cpu or mem profile")
	f.StringVar(&opts.dir, "profile-dir", ".", "profile output directory")
	return cmd
}

type benchResult struct {
	nodes     int
	frames    int
	posts     uint64
	delivered int
	elapsed   time.Duration
}

// runBench builds a breadth-first tree of opts.nodes nodes, tweens every
// leaf and posts "~bench" from spread-out leaves each frame.
func runBench(cfg grove.Config, opts *benchOptions) (benchResult, error) {
	tree := grove.NewTree(cfg)
	defer tree.Dispose()

	delivered, overheard := 0, 0
	if _, err := tree.Root().On("bench", func(grove.Message) { delivered++ }); err != nil {
		return benchResult{}, err
	}
	if _, err := tree.Root().On("bench@", func(grove.Message) { overheard++ }); err != nil {
		return benchResult{}, err
	}

	queue := []*grove.Node{tree.Root()}
	for made := 0; made < opts.nodes && len(queue) > 0; {
		parent := queue[0]
		queue = queue[1:]
		for i := 0; i < opts.fanout && made < opts.nodes; i++ {
			n := grove.NewRect(fmt.Sprintf("n%d", made), 4, 4, grove.ColorWhite)
			n.SetPosition(float64(i*5), 5)
			if err := parent.AddChild(n); err != nil {
				return benchResult{}, fmt.Errorf("bench: building tree: %w", err)
			}
			queue = append(queue, n)
			made++
		}
	}
	var leaves []*grove.Node
	tree.Root().Walk(func(n *grove.Node) bool {
		if n.NumChildren() == 0 && n != tree.Root() {
			leaves = append(leaves, n)
		}
		return true
	})
	for i, n := range leaves {
		n.AddComponent(grove.TweenRotation(n, float64(i%7), 2, ease.InOutSine))
	}

	step := tree.Config().FixedStep
	start := time.Now()
	var items []grove.RenderItem
	for f := 0; f < opts.frames; f++ {
		for p := 0; p < opts.posts && len(leaves) > 0; p++ {
			if err := leaves[(f*opts.posts+p*7919)%len(leaves)].Post("~bench", f); err != nil {
				return benchResult{}, err
			}
		}
		tree.Tick(step)
		items = tree.Collect(items[:0])
	}
	elapsed := time.Since(start)

	grove.Logger().Info("bench done",
		slog.Int("leaves", len(leaves)),
		slog.Int("items", len(items)),
		slog.Int("overheard", overheard),
		slog.Any("last_frame", tree.Stats()),
	)
	return benchResult{
		nodes:     opts.nodes,
		frames:    opts.frames,
		posts:     tree.Router().Posts(),
		delivered: delivered,
		elapsed:   elapsed,
	}, nil
}
