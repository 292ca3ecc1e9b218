package grove

// Direction is the traversal a message takes through the tree.
type Direction uint8

const (
	DirectionNone Direction = iota // local, or directed by path mask
	DirectionUp                    // sender, parent, ..., root
	DirectionDown                  // root, ..., sender, then the sender's subtree
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "none"
	}
}

// Message describes one delivery of a posted message. Listeners receive it
// by value; messages cannot be cancelled.
type Message struct {
	Name          string
	Direction     Direction
	PathMask      string
	ComponentMask string

	// Sender is the node that posted, Origin the first sender of a relay
	// chain, Target the node whose listener is being invoked.
	Sender *Node
	Origin *Node
	Target *Node

	// Component is the component owning the invoked listener, if any.
	Component Component

	// Overheard is true when the listener received the message through the
	// overheard registry rather than by direction or path.
	Overheard bool

	Args []any
}

// Arg returns the i-th argument, or nil if there are fewer.
func (m Message) Arg(i int) any {
	if i < 0 || i >= len(m.Args) {
		return nil
	}
	return m.Args[i]
}

// Listener is a registered callback. Its pointer identity is what the router
// deduplicates on: registering the same *Listener twice on one node (for
// example directly and as an overheard listener) still delivers a post once.
type Listener struct {
	fn  func(Message)
	ctx any
}

// NewListener wraps fn. ctx is an optional comparable value that
// OffContext can later match.
func NewListener(fn func(Message), ctx any) *Listener {
	return &Listener{fn: fn, ctx: ctx}
}

// Context returns the value passed to NewListener.
func (l *Listener) Context() any {
	return l.ctx
}

func (l *Listener) call(m Message) {
	if l.fn != nil {
		l.fn(m)
	}
}
