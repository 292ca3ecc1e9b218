package grove

import "errors"

// ErrDetachedComponent is returned when a component registers a listener
// before it is attached to a node.
var ErrDetachedComponent = errors.New("grove: component is not attached to a node")

// binding is one registration of a listener on a node, optionally owned by
// a component (which makes it visible to "#Type" masks).
type binding struct {
	l     *Listener
	owner Component
}

// overheardBinding is a listener registered with "name@" or "name@mask". It
// hears every post of name in the tree while its node's path matches mask.
type overheardBinding struct {
	name  string
	addr  Address
	l     *Listener
	owner Component
	node  *Node
	seq   uint64 // registration order, kept across re-entry into a tree
}

var overheardSeq uint64

// dispatcher is the per-node listener registry.
type dispatcher struct {
	local     map[string][]binding
	overheard []*overheardBinding
}

// On registers fn under pattern and returns its listener. pattern is either
// "name" (local: invoked when a post reaches this node) or "name@"/"name@mask"
// (overheard: invoked on every post of name anywhere in the tree, provided
// this node's path matches mask). Overheard listeners run in registration
// order, which survives the node leaving and re-entering a tree.
func (n *Node) On(pattern string, fn func(Message)) (*Listener, error) {
	l := NewListener(fn, nil)
	if err := n.listen(pattern, l, nil); err != nil {
		return nil, err
	}
	return l, nil
}

// Listen registers an existing listener under pattern.
func (n *Node) Listen(pattern string, l *Listener) error {
	return n.listen(pattern, l, nil)
}

// On registers a listener owned by this component on its node. Such
// listeners are the ones selected by "#Type" and "#*" component masks, and
// they are dropped when the component is removed.
func (b *BaseComponent) On(pattern string, fn func(Message)) (*Listener, error) {
	if b.node == nil {
		return nil, ErrDetachedComponent
	}
	owner := b.owner()
	if owner == nil {
		return nil, ErrDetachedComponent
	}
	l := NewListener(fn, nil)
	if err := b.node.listen(pattern, l, owner); err != nil {
		return nil, err
	}
	return l, nil
}

// owner finds the Component value that embeds b on its node.
func (b *BaseComponent) owner() Component {
	for _, c := range b.node.components {
		if c.AsComponent() == b {
			return c
		}
	}
	return nil
}

func (n *Node) listen(pattern string, l *Listener, owner Component) error {
	if l == nil {
		panic("grove: nil listener")
	}
	a, err := n.parse(pattern, true)
	if err != nil {
		return err
	}
	if !a.HasAt {
		if n.listeners.local == nil {
			n.listeners.local = make(map[string][]binding)
		}
		n.listeners.local[a.Name] = append(n.listeners.local[a.Name], binding{l: l, owner: owner})
		return nil
	}
	overheardSeq++
	ob := &overheardBinding{name: a.Name, addr: a, l: l, owner: owner, node: n, seq: overheardSeq}
	n.listeners.overheard = append(n.listeners.overheard, ob)
	if n.tree != nil {
		n.tree.router.addOverheard(ob)
	}
	return nil
}

// Off removes l from pattern. It reports false if nothing matched; a
// malformed pattern also matches nothing.
func (n *Node) Off(pattern string, l *Listener) bool {
	a, err := n.parse(pattern, true)
	if err != nil {
		return false
	}
	if !a.HasAt {
		list, ok := n.listeners.local[a.Name]
		if !ok {
			return false
		}
		kept, removed := filterBindings(list, func(b binding) bool { return b.l == l })
		n.setLocal(a.Name, kept)
		return removed > 0
	}
	return n.removeOverheard(func(ob *overheardBinding) bool {
		return ob.name == a.Name && ob.addr.PathMask == a.PathMask && ob.l == l
	}) > 0
}

// RemoveOn removes every listener registered under name on this node, local
// and overheard. It returns how many registrations were removed.
func (n *Node) RemoveOn(name string) int {
	removed := len(n.listeners.local[name])
	delete(n.listeners.local, name)
	return removed + n.removeOverheard(func(ob *overheardBinding) bool { return ob.name == name })
}

// OffContext removes every listener on this node whose context equals ctx.
func (n *Node) OffContext(ctx any) int {
	if ctx == nil {
		return 0
	}
	match := func(l *Listener) bool { return l.ctx == ctx }
	return n.removeWhere(func(b binding) bool { return match(b.l) },
		func(ob *overheardBinding) bool { return match(ob.l) })
}

// HasListeners reports whether any local or overheard listener is
// registered under name on this node.
func (n *Node) HasListeners(name string) bool {
	if len(n.listeners.local[name]) > 0 {
		return true
	}
	for _, ob := range n.listeners.overheard {
		if ob.name == name {
			return true
		}
	}
	return false
}

// offComponent drops every listener owned by c.
func (n *Node) offComponent(c Component) {
	n.removeWhere(func(b binding) bool { return b.owner == c },
		func(ob *overheardBinding) bool { return ob.owner == c })
}

func (n *Node) removeWhere(local func(binding) bool, overheard func(*overheardBinding) bool) int {
	removed := 0
	for name, list := range n.listeners.local {
		kept, r := filterBindings(list, local)
		n.setLocal(name, kept)
		removed += r
	}
	return removed + n.removeOverheard(overheard)
}

func (n *Node) setLocal(name string, list []binding) {
	if len(list) == 0 {
		delete(n.listeners.local, name)
		return
	}
	n.listeners.local[name] = list
}

func (n *Node) removeOverheard(match func(*overheardBinding) bool) int {
	var kept []*overheardBinding
	removed := 0
	for _, ob := range n.listeners.overheard {
		if match(ob) {
			removed++
			if n.tree != nil {
				n.tree.router.removeOverheard(ob)
			}
			continue
		}
		kept = append(kept, ob)
	}
	n.listeners.overheard = kept
	return removed
}

// filterBindings returns a fresh slice without the bindings drop selects, so
// that a delivery snapshot holding the old slice is never mutated.
func filterBindings(list []binding, drop func(binding) bool) ([]binding, int) {
	removed := 0
	for _, b := range list {
		if drop(b) {
			removed++
		}
	}
	if removed == 0 {
		return list, 0
	}
	kept := make([]binding, 0, len(list)-removed)
	for _, b := range list {
		if !drop(b) {
			kept = append(kept, b)
		}
	}
	return kept, removed
}

// --- Posting ---

// Post dispatches a message addressed by address from this node. Every
// matching listener has run by the time Post returns. A malformed address
// returns a *MessageFormatError before any listener is invoked.
func (n *Node) Post(address string, args ...any) error {
	return n.post(address, n, args)
}

// Relay re-posts msg from this node under a new address, keeping the
// message's origin and arguments.
func (n *Node) Relay(msg Message, address string) error {
	origin := msg.Origin
	if origin == nil {
		origin = msg.Sender
	}
	return n.post(address, origin, msg.Args)
}

func (n *Node) post(address string, origin *Node, args []any) error {
	a, err := n.parse(address, false)
	if err != nil {
		return err
	}
	var r *Router
	if n.tree != nil {
		r = n.tree.router
	}
	r.dispatch(n, origin, a, args)
	return nil
}

// parse resolves s through the tree's address cache when the node is live.
func (n *Node) parse(s string, listen bool) (Address, error) {
	if listen {
		return parseListenPattern(s)
	}
	if n.tree != nil {
		return n.tree.router.parse(s)
	}
	return ParseAddress(s)
}
