package grove

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// FrameStats holds per-tick timing and counts. Only populated when
// Config.Debug is true.
type FrameStats struct {
	Frame       uint64
	FixedSteps  int
	FixedTime   time.Duration
	UpdateTime  time.Duration
	TaskTime    time.Duration
	PostTime    time.Duration
	NodesWalked int
	Posts       uint64
}

// Total returns the summed pass time.
func (s FrameStats) Total() time.Duration {
	return s.FixedTime + s.UpdateTime + s.TaskTime + s.PostTime
}

// debugLog writes frame stats at Debug level.
func (t *Tree) debugLog(stats FrameStats) {
	log := Logger()
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	log.Debug("grove: frame",
		slog.Uint64("frame", stats.Frame),
		slog.Int("fixed_steps", stats.FixedSteps),
		slog.Duration("fixed", stats.FixedTime),
		slog.Duration("update", stats.UpdateTime),
		slog.Duration("tasks", stats.TaskTime),
		slog.Duration("post", stats.PostTime),
		slog.Duration("total", stats.Total()),
		slog.Int("nodes", stats.NodesWalked),
		slog.Uint64("posts", stats.Posts))
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Callers only invoke it in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("grove debug: %s on disposed node %q", op, n.Name))
	}
}

// debugMaxTreeDepth is the depth above which debug mode warns.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := n.Depth() + 1
	if depth > debugMaxTreeDepth {
		Logger().Warn("grove: tree depth exceeds threshold",
			slog.Int("depth", depth),
			slog.Int("threshold", debugMaxTreeDepth),
			slog.String("node", n.Name))
	}
}

// debugMaxChildCount is the child count above which debug mode warns.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("grove: child count exceeds threshold",
			slog.String("node", n.Name),
			slog.Int("children", len(n.children)),
			slog.Int("threshold", debugMaxChildCount))
	}
}
