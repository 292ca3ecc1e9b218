package grove

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// ScriptType identifies Script components.
var ScriptType = RegisterComponentType("Script")

// scriptStep is a single action in a message script.
type scriptStep struct {
	Action  string  `json:"action"`
	Node    string  `json:"node,omitempty"`
	Address string  `json:"address,omitempty"`
	Args    []any   `json:"args,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Frames  int     `json:"frames,omitempty"`
	Message string  `json:"message,omitempty"`
}

// scriptFile is the top-level JSON structure of a script.
type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

// Script replays scripted posts and mutations across frames, one step per
// update pass. Attach it to any live node; node paths in the script are
// resolved from the tree root.
//
// Actions:
//
//	{"action": "post", "node": "root/a", "address": "~ping", "args": [1]}
//	{"action": "move", "node": "root/a", "x": 10, "y": 20}
//	{"action": "remove", "node": "root/a"}
//	{"action": "wait", "frames": 3}
//	{"action": "log", "message": "checkpoint"}
type Script struct {
	BaseComponent

	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	err       error
	posts     int
}

// LoadScript parses a JSON script.
func LoadScript(jsonData []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(jsonData, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range f.Steps {
		switch st.Action {
		case "post":
			if _, err := ParseAddress(st.Address); err != nil {
				return nil, fmt.Errorf("parse script: step %d: %w", i, err)
			}
		case "move", "remove", "wait", "log":
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: f.Steps}, nil
}

// ComponentType implements Component.
func (s *Script) ComponentType() ComponentType { return ScriptType }

// Done reports whether every step has run or a step failed.
func (s *Script) Done() bool { return s.done }

// Err returns the error that stopped the script, if any.
func (s *Script) Err() error { return s.err }

// Posts returns how many post steps have run.
func (s *Script) Posts() int { return s.posts }

// OnUpdate implements Component.
func (s *Script) OnUpdate(float64) {
	if s.done {
		return
	}
	if s.waitCount > 0 {
		s.waitCount--
		return
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return
	}

	st := s.steps[s.cursor]
	s.cursor++
	if err := s.run(st); err != nil {
		s.err = fmt.Errorf("script step %d (%s): %w", s.cursor-1, st.Action, err)
		s.done = true
		Logger().Warn("grove: script stopped", slog.Any("error", s.err))
		return
	}

	if s.cursor >= len(s.steps) && s.waitCount == 0 {
		s.done = true
	}
}

func (s *Script) run(st scriptStep) error {
	switch st.Action {
	case "wait":
		if st.Frames > 0 {
			s.waitCount = st.Frames - 1 // this frame counts as one
		}
		return nil
	case "log":
		Logger().Info("grove: script", slog.String("message", st.Message))
		return nil
	}

	owner := s.Node()
	if owner == nil || owner.Tree() == nil {
		return ErrNotLive
	}
	n := owner.Tree().Find(st.Node)
	if n == nil {
		return fmt.Errorf("node %q not found", st.Node)
	}
	switch st.Action {
	case "post":
		s.posts++
		return n.Post(st.Address, st.Args...)
	case "move":
		n.SetPosition(st.X, st.Y)
	case "remove":
		n.RemoveFromParent()
	}
	return nil
}
