package grove

import (
	"errors"
	"testing"
)

func TestLoadScript(t *testing.T) {
	data := []byte(`{
		"steps": [
			{"action": "post", "node": "root/a", "address": "~ping", "args": [1, "two"]},
			{"action": "move", "node": "a", "x": 10, "y": 20},
			{"action": "wait", "frames": 3},
			{"action": "log", "message": "checkpoint"}
		]
	}`)

	s, err := LoadScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(s.steps))
	}
	if s.steps[0].Address != "~ping" || len(s.steps[0].Args) != 2 {
		t.Error("step 0 mismatch")
	}
	if s.steps[1].X != 10 || s.steps[1].Y != 20 {
		t.Error("step 1 mismatch")
	}
	if s.steps[2].Frames != 3 {
		t.Error("step 2 mismatch")
	}
}

func TestLoadScript_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":       `not json`,
		"empty":          `{"steps": []}`,
		"unknown action": `{"steps": [{"action": "click"}]}`,
		"bad address":    `{"steps": [{"action": "post", "node": "root", "address": "a~b"}]}`,
	}
	for name, data := range tests {
		if _, err := LoadScript([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	_, err := LoadScript([]byte(`{"steps": [{"action": "post", "address": "@["}]}`))
	if !errors.Is(err, ErrMessageFormat) {
		t.Errorf("bad address err = %v, want ErrMessageFormat", err)
	}
}

func TestScriptRunsOneStepPerFrame(t *testing.T) {
	tree := NewTree(Config{})
	a := NewNode("a")
	_ = tree.Root().AddChild(a)

	var pings []any
	_, _ = tree.Root().On("ping", func(m Message) { pings = append(pings, m.Arg(0)) })

	s, err := LoadScript([]byte(`{"steps": [
		{"action": "post", "node": "root/a", "address": "~ping", "args": ["hi"]},
		{"action": "wait", "frames": 2},
		{"action": "move", "node": "a", "x": 3, "y": 4},
		{"action": "remove", "node": "a"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	tree.Root().AddComponent(s)

	tree.Tick(0)
	if len(pings) != 1 || pings[0] != "hi" || s.Posts() != 1 {
		t.Fatalf("after frame 1: pings=%v posts=%d", pings, s.Posts())
	}

	tree.Tick(0) // wait begins
	tree.Tick(0) // second waited frame
	if a.X() != 0 {
		t.Fatal("move ran during the wait")
	}

	tree.Tick(0)
	if a.X() != 3 || a.Y() != 4 {
		t.Errorf("position = (%v, %v), want (3, 4)", a.X(), a.Y())
	}
	if s.Done() {
		t.Fatal("script finished early")
	}

	tree.Tick(0)
	if a.Parent() != nil {
		t.Error("remove step should detach the node")
	}
	if !s.Done() || s.Err() != nil {
		t.Errorf("Done = %v, Err = %v", s.Done(), s.Err())
	}
}

func TestScriptMissingNode(t *testing.T) {
	tree := NewTree(Config{})
	s, err := LoadScript([]byte(`{"steps": [{"action": "move", "node": "root/ghost"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	tree.Root().AddComponent(s)
	tree.Tick(0)
	if !s.Done() || s.Err() == nil {
		t.Errorf("Done = %v, Err = %v, want a failure", s.Done(), s.Err())
	}
}

func TestScriptDetached(t *testing.T) {
	s, err := LoadScript([]byte(`{"steps": [{"action": "post", "node": "a", "address": "x"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	n := NewNode("loose")
	n.AddComponent(s)
	s.OnUpdate(0)
	if !errors.Is(s.Err(), ErrNotLive) {
		t.Errorf("Err = %v, want ErrNotLive", s.Err())
	}
}

func TestTreeFind(t *testing.T) {
	tree := NewTree(Config{})
	a, b := NewNode("a"), NewNode("b")
	_ = tree.Root().AddChild(a)
	_ = a.AddChild(b)

	tests := map[string]*Node{
		"":         tree.Root(),
		"root":     tree.Root(),
		"root/a":   a,
		"root/a/b": b,
		"a/b":      b,
		"nope":     nil,
	}
	for path, want := range tests {
		if got := tree.Find(path); got != want {
			t.Errorf("Find(%q) = %v, want %v", path, got, want)
		}
	}
}
