package grove

import (
	"log/slog"
	"math"
	"time"
)

// pass selects which component hook a traversal invokes.
type pass uint8

const (
	passFixedUpdate pass = iota
	passUpdate
	passPostUpdate
)

// Tree is the composition root. It owns the root node, the message router
// with its overheard registry, and the task scheduler, and drives the
// per-frame update passes.
type Tree struct {
	root      *Node
	router    *Router
	scheduler *Scheduler
	cfg       Config

	frame       uint64
	accumulator float64
	ticking     bool
	disposed    bool

	stats  FrameStats
	walked int

	// Shared traversal stacks. Each node pushes a snapshot of its components
	// and children, iterates it by index and pops it, so nested walks reuse
	// one allocation.
	compStack []Component
	nodeStack []*Node

	items []RenderItem // reused by Render
}

// NewTree creates a tree with a live root node named cfg.RootName.
func NewTree(cfg Config) *Tree {
	cfg = cfg.withDefaults()
	t := &Tree{cfg: cfg}
	t.router = newRouter(t, cfg.AddressCacheSize)
	t.scheduler = newScheduler(t)
	t.root = NewNode(cfg.RootName)
	t.root.enterTree(t)
	Logger().Info("grove: tree created",
		slog.String("root", cfg.RootName),
		slog.Float64("fixed_step", cfg.FixedStep),
		slog.Bool("debug", cfg.Debug))
	return t
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Router returns the tree's message router.
func (t *Tree) Router() *Router {
	return t.router
}

// Scheduler returns the tree's task scheduler.
func (t *Tree) Scheduler() *Scheduler {
	return t.scheduler
}

// Find returns the node at path, given either in full ("root/a/b") or
// relative to the root ("a/b"), or nil.
func (t *Tree) Find(path string) *Node {
	return resolvePath(t.root, path)
}

// Config returns the tree's configuration with defaults applied.
func (t *Tree) Config() Config {
	return t.cfg
}

// Frame returns the number of completed or in-progress ticks.
func (t *Tree) Frame() uint64 {
	return t.frame
}

// FixedAlpha returns how far the leftover accumulated time reaches into the
// next fixed step, in [0, 1). Drivers can use it to interpolate.
func (t *Tree) FixedAlpha() float64 {
	return t.accumulator / t.cfg.FixedStep
}

// Stats returns the last frame's stats. Only populated in debug mode.
func (t *Tree) Stats() FrameStats {
	return t.stats
}

// IsDisposed reports whether Dispose has been called.
func (t *Tree) IsDisposed() bool {
	return t.disposed
}

// SetMessageSink installs a sink that is handed a record of every post
// resolved in this tree. Pass nil to remove it.
func (t *Tree) SetMessageSink(s MessageSink) {
	t.router.sink = s
}

// Tick advances the tree by dt seconds: zero or more fixed-update passes,
// one update pass, the scheduled tasks, then one post-update pass. Each pass
// visits nodes depth-first in pre-order, a node's components in attachment
// order before its children. Nodes detached during a pass are skipped.
//
// Panics if called re-entrantly from inside a pass.
func (t *Tree) Tick(dt float64) {
	if t.disposed {
		return
	}
	if t.ticking {
		panic("grove: Tick called during Tick")
	}
	t.ticking = true
	defer func() { t.ticking = false }()

	t.frame++
	debug := t.cfg.Debug
	var stats FrameStats
	var t0 time.Time
	postsBefore := t.router.posts
	t.walked = 0

	if debug {
		t0 = time.Now()
	}

	t.accumulator += dt
	step := t.cfg.FixedStep
	steps := 0
	for t.accumulator >= step && steps < t.cfg.MaxFixedSteps {
		t.walk(t.root, passFixedUpdate, step)
		t.accumulator -= step
		steps++
	}
	if t.accumulator >= step {
		// Too far behind; drop whole steps rather than spiral.
		t.accumulator = math.Mod(t.accumulator, step)
	}

	if debug {
		stats.FixedTime = time.Since(t0)
		t0 = time.Now()
	}

	t.walk(t.root, passUpdate, dt)

	if debug {
		stats.UpdateTime = time.Since(t0)
		t0 = time.Now()
	}

	t.scheduler.Advance(dt)

	if debug {
		stats.TaskTime = time.Since(t0)
		t0 = time.Now()
	}

	t.walk(t.root, passPostUpdate, dt)

	if debug {
		stats.PostTime = time.Since(t0)
		stats.Frame = t.frame
		stats.FixedSteps = steps
		stats.NodesWalked = t.walked
		stats.Posts = t.router.posts - postsBefore
		t.stats = stats
		t.debugLog(stats)
	}
}

func (t *Tree) walk(n *Node, p pass, dt float64) {
	if n.tree != t {
		return
	}
	t.walked++

	cstart := len(t.compStack)
	t.compStack = append(t.compStack, n.components...)
	cend := len(t.compStack)
	for i := cstart; i < cend; i++ {
		c := t.compStack[i]
		if n.tree != t {
			break
		}
		if c.AsComponent().node != n {
			continue
		}
		switch p {
		case passFixedUpdate:
			c.OnFixedUpdate(dt)
		case passUpdate:
			c.OnUpdate(dt)
		case passPostUpdate:
			c.OnPostUpdate(dt)
		}
	}
	clear(t.compStack[cstart:cend])
	t.compStack = t.compStack[:cstart]

	nstart := len(t.nodeStack)
	t.nodeStack = append(t.nodeStack, n.children...)
	nend := len(t.nodeStack)
	for i := nstart; i < nend; i++ {
		child := t.nodeStack[i]
		if child.parent == n {
			t.walk(child, p, dt)
		}
	}
	clear(t.nodeStack[nstart:nend])
	t.nodeStack = t.nodeStack[:nstart]
}

// Dispose cancels every task, fires OnRemoved across the tree, disposes the
// root and its descendants, and clears the overheard registry. A disposed
// tree ignores Tick.
func (t *Tree) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.scheduler.cancelAll()
	t.root.Dispose()
	t.router.reset()
	Logger().Info("grove: tree disposed", slog.Uint64("frames", t.frame))
}
