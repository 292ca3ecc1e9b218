package grove

import (
	"errors"
	"fmt"
)

var (
	// ErrCycle is matched by a HierarchyError produced when AddChild would
	// make a node its own ancestor.
	ErrCycle = errors.New("grove: hierarchy cycle")

	// ErrMessageFormat is matched by every MessageFormatError.
	ErrMessageFormat = errors.New("grove: malformed message address")

	// ErrNotLive is returned by operations that need the node to be attached
	// to a Tree.
	ErrNotLive = errors.New("grove: node is not attached to a tree")

	// ErrMoved is returned by AddChild when a removal hook fired while
	// detaching the child moved it somewhere else. The hook's move stands.
	ErrMoved = errors.New("grove: child moved by a removal hook")
)

// HierarchyError reports a rejected structural change. Apart from what
// lifecycle hooks did along the way, the tree is left untouched.
type HierarchyError struct {
	Parent *Node
	Child  *Node
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("grove: adding %q under %q would create a cycle", e.Child.Name, e.Parent.Name)
}

// Is makes errors.Is(err, ErrCycle) succeed.
func (e *HierarchyError) Is(target error) bool {
	return target == ErrCycle
}

// MessageFormatError reports an address or registration pattern that does
// not follow [~]name[@[mask]][#component]. It is returned before any
// listener runs.
type MessageFormatError struct {
	Address string
	Reason  string
	Err     error
}

func (e *MessageFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("grove: bad address %q: %s: %v", e.Address, e.Reason, e.Err)
	}
	return fmt.Sprintf("grove: bad address %q: %s", e.Address, e.Reason)
}

// Unwrap returns the underlying cause, such as a glob compile error.
func (e *MessageFormatError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMessageFormat) succeed.
func (e *MessageFormatError) Is(target error) bool {
	return target == ErrMessageFormat
}
