package grove

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestNewTreeDefaults(t *testing.T) {
	tree := NewTree(Config{})
	if tree.Root().Name != DefaultRootName {
		t.Errorf("root name = %q", tree.Root().Name)
	}
	if !tree.Root().IsLive() || tree.Root().Tree() != tree {
		t.Error("root should be live in its tree")
	}
	cfg := tree.Config()
	if cfg.FixedStep != DefaultFixedStep || cfg.MaxFixedSteps != DefaultMaxFixedSteps {
		t.Errorf("config = %+v", cfg)
	}
	if tree.Frame() != 0 {
		t.Errorf("Frame = %d", tree.Frame())
	}
}

func TestNewTreeRootName(t *testing.T) {
	tree := NewTree(Config{RootName: "stage"})
	a := NewNode("a")
	_ = tree.Root().AddChild(a)
	if a.Path() != "stage/a" {
		t.Errorf("Path = %q", a.Path())
	}
}

func TestTickPassOrder(t *testing.T) {
	var log []string
	tree := NewTree(Config{FixedStep: 1})
	a, b := NewNode("a"), NewNode("b")
	_ = tree.Root().AddChild(a)
	_ = a.AddChild(b)
	c := NewNode("c")
	_ = tree.Root().AddChild(c)

	tree.Root().AddComponent(&recorder{name: "root", log: &log})
	a.AddComponent(&recorder{name: "a", log: &log})
	b.AddComponent(&recorder{name: "b", log: &log})
	c.AddComponent(&recorder{name: "c", log: &log})
	tree.Scheduler().Start(Do(func() { log = append(log, "task") }))
	log = nil

	tree.Tick(1)
	want := []string{
		"root:fixed", "a:fixed", "b:fixed", "c:fixed",
		"root:update", "a:update", "b:update", "c:update",
		"task",
		"root:post", "a:post", "b:post", "c:post",
	}
	if !equalStrings(log, want) {
		t.Errorf("order =\n%v\nwant\n%v", log, want)
	}
	if tree.Frame() != 1 {
		t.Errorf("Frame = %d", tree.Frame())
	}
}

func TestTickComponentsInAttachmentOrder(t *testing.T) {
	var log []string
	tree := NewTree(Config{})
	tree.Root().AddComponent(&recorder{name: "first", log: &log})
	tree.Root().AddComponent(&recorder{name: "second", log: &log})
	log = nil
	tree.Tick(0)
	if !equalStrings(log, []string{"first:update", "second:update", "first:post", "second:post"}) {
		t.Errorf("log = %v", log)
	}
}

type countingComponent struct {
	BaseComponent
	fixed, update, post int
	fixedDT             []float64
}

func (c *countingComponent) ComponentType() ComponentType { return recorderType }
func (c *countingComponent) OnFixedUpdate(dt float64) {
	c.fixed++
	c.fixedDT = append(c.fixedDT, dt)
}
func (c *countingComponent) OnUpdate(float64)     { c.update++ }
func (c *countingComponent) OnPostUpdate(float64) { c.post++ }

func TestFixedStepAccumulates(t *testing.T) {
	tree := NewTree(Config{FixedStep: 0.1})
	c := &countingComponent{}
	tree.Root().AddComponent(c)

	tree.Tick(0.05)
	if c.fixed != 0 || c.update != 1 {
		t.Fatalf("after 0.05: fixed=%d update=%d", c.fixed, c.update)
	}
	tree.Tick(0.2)
	if c.fixed != 2 {
		t.Errorf("after 0.25 total: fixed=%d, want 2", c.fixed)
	}
	for _, dt := range c.fixedDT {
		assertNear(t, "fixed dt", dt, 0.1)
	}
	assertNear(t, "alpha", tree.FixedAlpha(), 0.5)
}

func TestFixedStepCap(t *testing.T) {
	tree := NewTree(Config{FixedStep: 0.1, MaxFixedSteps: 2})
	c := &countingComponent{}
	tree.Root().AddComponent(c)

	tree.Tick(1)
	if c.fixed != 2 {
		t.Errorf("fixed = %d, want 2 (capped)", c.fixed)
	}
	if a := tree.FixedAlpha(); a < 0 || a >= 1 || math.IsNaN(a) {
		t.Errorf("FixedAlpha = %v, want [0, 1)", a)
	}
	c.fixed = 0
	tree.Tick(0)
	if c.fixed > 1 {
		t.Errorf("backlog carried over: fixed = %d", c.fixed)
	}
}

type tickingComponent struct {
	BaseComponent
	tree *Tree
}

func (c *tickingComponent) ComponentType() ComponentType { return recorderType }
func (c *tickingComponent) OnUpdate(float64)             { c.tree.Tick(0) }

func TestTickReentrantPanics(t *testing.T) {
	tree := NewTree(Config{})
	tree.Root().AddComponent(&tickingComponent{tree: tree})
	mustPanic(t, "re-entrant Tick", func() { tree.Tick(0) })
	if tree.ticking {
		t.Error("ticking flag should reset after the panic")
	}
}

type removerComponent struct {
	BaseComponent
	victim *Node
}

func (c *removerComponent) ComponentType() ComponentType { return recorderType }
func (c *removerComponent) OnUpdate(float64)             { c.victim.RemoveFromParent() }

func TestNodeDetachedDuringPassIsSkipped(t *testing.T) {
	var log []string
	tree := NewTree(Config{})
	a, b := NewNode("a"), NewNode("b")
	_ = tree.Root().AddChild(a)
	_ = tree.Root().AddChild(b)
	a.AddComponent(&removerComponent{victim: b})
	b.AddComponent(&recorder{name: "b", log: &log})
	log = nil

	tree.Tick(0)
	for _, entry := range log {
		if entry == "b:update" || entry == "b:post" {
			t.Errorf("detached node was updated: %v", log)
		}
	}
}

type selfRemover struct {
	BaseComponent
	log *[]string
}

func (c *selfRemover) ComponentType() ComponentType { return recorderType }
func (c *selfRemover) OnUpdate(float64) {
	*c.log = append(*c.log, "self")
	c.Node().RemoveComponent(c)
}

func TestComponentRemovedDuringPass(t *testing.T) {
	var log []string
	tree := NewTree(Config{})
	tree.Root().AddComponent(&selfRemover{log: &log})
	tree.Root().AddComponent(&recorder{name: "next", log: &log})
	log = nil

	tree.Tick(0)
	tree.Tick(0)
	want := []string{"self", "next:update", "next:post", "next:update", "next:post"}
	if !equalStrings(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestTreeDispose(t *testing.T) {
	var log []string
	tree := NewTree(Config{})
	a := NewNode("a")
	_ = tree.Root().AddChild(a)
	a.AddComponent(&recorder{name: "a", log: &log})
	_, _ = a.On("ping@", func(Message) {})
	task := tree.Scheduler().Start(Wait(10))
	log = nil

	tree.Dispose()
	if !tree.IsDisposed() || !a.IsDisposed() || !tree.Root().IsDisposed() {
		t.Error("tree and nodes should be disposed")
	}
	if !equalStrings(log, []string{"a:removed"}) {
		t.Errorf("log = %v", log)
	}
	if !task.Done() || !errors.Is(task.Err(), context.Canceled) {
		t.Errorf("task err = %v, want context.Canceled", task.Err())
	}
	if tree.Router().OverheardCount("ping") != 0 {
		t.Error("overheard registry should be empty")
	}

	tree.Tick(1)
	if tree.Frame() != 0 {
		t.Error("disposed tree should ignore Tick")
	}
	late := tree.Scheduler().Start(Wait(1))
	if !errors.Is(late.Err(), ErrNotLive) {
		t.Errorf("late task err = %v, want ErrNotLive", late.Err())
	}
	tree.Dispose() // no-op
}

func TestDebugStats(t *testing.T) {
	tree := NewTree(Config{Debug: true, FixedStep: 0.5})
	a := NewNode("a")
	_ = tree.Root().AddChild(a)
	_ = a.AddChild(NewNode("b"))
	_, _ = tree.Root().On("ping", func(Message) {})
	a.AddComponent(&poster{})

	tree.Tick(0.5)
	s := tree.Stats()
	if s.Frame != 1 || s.FixedSteps != 1 {
		t.Errorf("stats = %+v", s)
	}
	// three nodes, three passes
	if s.NodesWalked != 9 {
		t.Errorf("NodesWalked = %d, want 9", s.NodesWalked)
	}
	if s.Posts != 1 {
		t.Errorf("Posts = %d, want 1", s.Posts)
	}
	if s.Total() < 0 {
		t.Error("negative total")
	}
}

type poster struct{ BaseComponent }

func (p *poster) ComponentType() ComponentType { return recorderType }
func (p *poster) OnUpdate(float64)             { _ = p.Node().Post("~ping") }

func TestDebugDisposedNodePanics(t *testing.T) {
	tree := NewTree(Config{Debug: true})
	dead := NewNode("dead")
	dead.Dispose()
	mustPanic(t, "add disposed", func() { _ = tree.Root().AddChild(dead) })
}
