package grove

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
)

// MessageRecord summarizes one resolved post. It is handed to the tree's
// MessageSink after every listener has run.
type MessageRecord struct {
	Frame      uint64
	Name       string
	Address    string
	Direction  Direction
	SenderID   uint32
	SenderPath string
	OriginID   uint32
	Delivered  int
}

// MessageSink receives a record of every post resolved by a tree, for
// mirroring into other systems (see the ecs package).
type MessageSink interface {
	RecordMessage(rec MessageRecord)
}

// Router resolves posts into ordered, deduplicated listener lists. There is
// one Router per Tree; it owns the tree's overheard registry (empty when the
// tree is created, cleared when it is disposed) and a cache of parsed
// addresses.
type Router struct {
	tree      *Tree
	overheard map[string][]*overheardBinding
	cache     map[string]Address
	cacheSize int
	sink      MessageSink
	free      [][]delivery // reusable delivery buffers; posts may nest
	posts     uint64
}

type delivery struct {
	node      *Node
	b         binding
	overheard bool
}

func newRouter(t *Tree, cacheSize int) *Router {
	return &Router{
		tree:      t,
		overheard: make(map[string][]*overheardBinding),
		cache:     make(map[string]Address),
		cacheSize: cacheSize,
	}
}

// Posts returns how many posts this router has resolved.
func (r *Router) Posts() uint64 {
	return r.posts
}

// OverheardCount returns the number of overheard listeners registered for name.
func (r *Router) OverheardCount(name string) int {
	return len(r.overheard[name])
}

// parse returns the cached parse of s, parsing and caching on a miss.
func (r *Router) parse(s string) (Address, error) {
	if a, ok := r.cache[s]; ok {
		return a, nil
	}
	a, err := ParseAddress(s)
	if err != nil {
		return a, err
	}
	if r.cacheSize > 0 {
		if len(r.cache) >= r.cacheSize {
			clear(r.cache)
		}
		r.cache[s] = a
	}
	return a, nil
}

// --- Overheard registry ---

func (r *Router) registerNode(n *Node) {
	for _, ob := range n.listeners.overheard {
		r.addOverheard(ob)
	}
}

func (r *Router) unregisterNode(n *Node) {
	for _, ob := range n.listeners.overheard {
		r.removeOverheard(ob)
	}
}

// addOverheard inserts ob in registration order. A resolution in progress
// may hold the old slice, so middle inserts copy.
func (r *Router) addOverheard(ob *overheardBinding) {
	list := r.overheard[ob.name]
	i, _ := slices.BinarySearchFunc(list, ob.seq, func(x *overheardBinding, seq uint64) int {
		return cmp.Compare(x.seq, seq)
	})
	if i == len(list) {
		r.overheard[ob.name] = append(list, ob)
		return
	}
	kept := make([]*overheardBinding, 0, len(list)+1)
	kept = append(kept, list[:i]...)
	kept = append(kept, ob)
	kept = append(kept, list[i:]...)
	r.overheard[ob.name] = kept
}

func (r *Router) removeOverheard(ob *overheardBinding) {
	list := r.overheard[ob.name]
	for i, x := range list {
		if x == ob {
			kept := make([]*overheardBinding, 0, len(list)-1)
			kept = append(kept, list[:i]...)
			kept = append(kept, list[i+1:]...)
			if len(kept) == 0 {
				delete(r.overheard, ob.name)
			} else {
				r.overheard[ob.name] = kept
			}
			return
		}
	}
}

func (r *Router) reset() {
	clear(r.overheard)
	clear(r.cache)
	r.sink = nil
}

// --- Resolution ---

// dispatch resolves a against the tree, snapshots the delivery list, then
// invokes every listener in order. r may be nil for detached senders, in
// which case there is no overheard registry.
func (r *Router) dispatch(sender, origin *Node, a Address, args []any) {
	list := r.take()
	list = resolve(r, sender, a, list)

	log := Logger()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("grove: post",
			slog.String("address", a.Raw),
			slog.String("sender", sender.Path()),
			slog.Int("listeners", len(list)))
	}

	for _, d := range list {
		d.b.l.call(Message{
			Name:          a.Name,
			Direction:     a.Direction,
			PathMask:      a.PathMask,
			ComponentMask: a.ComponentMask,
			Sender:        sender,
			Origin:        origin,
			Target:        d.node,
			Component:     d.b.owner,
			Overheard:     d.overheard,
			Args:          args,
		})
	}

	if r != nil {
		r.posts++
		if r.sink != nil {
			rec := MessageRecord{
				Name:       a.Name,
				Address:    a.Raw,
				Direction:  a.Direction,
				SenderID:   sender.ID,
				SenderPath: sender.Path(),
				Delivered:  len(list),
			}
			if origin != nil {
				rec.OriginID = origin.ID
			}
			if r.tree != nil {
				rec.Frame = r.tree.frame
			}
			r.sink.RecordMessage(rec)
		}
	}
	r.give(list)
}

func (r *Router) take() []delivery {
	if r == nil || len(r.free) == 0 {
		return nil
	}
	buf := r.free[len(r.free)-1]
	r.free = r.free[:len(r.free)-1]
	return buf[:0]
}

func (r *Router) give(buf []delivery) {
	if r == nil || cap(buf) == 0 {
		return
	}
	clear(buf)
	r.free = append(r.free, buf[:0])
}

// resolve appends, in delivery order, every (node, listener) pair that a
// post of a from sender reaches. Pairs are unique.
func resolve(r *Router, sender *Node, a Address, out []delivery) []delivery {
	c := collector{name: a.Name, componentMask: a.ComponentMask, out: out}

	switch {
	case a.Direction == DirectionUp:
		for p := sender; p != nil; p = p.parent {
			if a.mask == nil || a.mask.Match(p.Path()) {
				c.node(p)
			}
		}
	case a.Direction == DirectionDown:
		var chain []*Node
		for p := sender.parent; p != nil; p = p.parent {
			chain = append(chain, p)
		}
		for i := len(chain) - 1; i >= 0; i-- {
			c.node(chain[i])
		}
		sender.Walk(func(n *Node) bool {
			c.node(n)
			return true
		})
	case a.Directed():
		walkMatching(sender.Root(), a, func(n *Node) { c.node(n) })
	default:
		c.node(sender)
	}

	if r != nil {
		for _, ob := range r.overheard[a.Name] {
			if ob.node.tree != r.tree {
				continue
			}
			if ob.addr.mask != nil && !ob.addr.mask.Match(ob.node.Path()) {
				continue
			}
			c.add(ob.node, binding{l: ob.l, owner: ob.owner}, true)
		}
	}
	return c.out
}

// collector accumulates deliveries, dropping repeated (node, listener) pairs.
type collector struct {
	name          string
	componentMask string
	out           []delivery
	seen          map[deliveryKey]struct{}
}

type deliveryKey struct {
	node *Node
	l    *Listener
}

// seenMapThreshold is the list length above which dedup switches from a
// linear scan to a map.
const seenMapThreshold = 16

func (c *collector) node(n *Node) {
	for _, b := range n.listeners.local[c.name] {
		if matchComponentMask(c.componentMask, b.owner) {
			c.add(n, b, false)
		}
	}
}

func (c *collector) add(n *Node, b binding, overheard bool) {
	key := deliveryKey{n, b.l}
	if c.seen != nil {
		if _, dup := c.seen[key]; dup {
			return
		}
		c.seen[key] = struct{}{}
	} else {
		for _, d := range c.out {
			if d.node == n && d.b.l == b.l {
				return
			}
		}
		if len(c.out) >= seenMapThreshold {
			c.seen = make(map[deliveryKey]struct{}, len(c.out)*2)
			for _, d := range c.out {
				c.seen[deliveryKey{d.node, d.b.l}] = struct{}{}
			}
			c.seen[key] = struct{}{}
		}
	}
	c.out = append(c.out, delivery{node: n, b: b, overheard: overheard})
}

// walkMatching visits, in pre-order, every node under root whose path
// matches a's mask. When the mask cannot span segments the walk stops at the
// mask's depth.
func walkMatching(root *Node, a Address, visit func(*Node)) {
	var walk func(n *Node, path string, depth int)
	walk = func(n *Node, path string, depth int) {
		if a.maskDepth < 0 || depth == a.maskDepth {
			if a.mask.Match(path) {
				visit(n)
			}
		}
		if a.maskDepth >= 0 && depth >= a.maskDepth {
			return
		}
		for _, c := range n.children {
			walk(c, path+"/"+c.Name, depth+1)
		}
	}
	walk(root, root.Name, 1)
}

// Select returns the nodes of this node's tree whose path matches mask, in
// pre-order.
func (n *Node) Select(mask string) ([]*Node, error) {
	a, err := n.parse("select@"+mask, false)
	if err != nil {
		return nil, err
	}
	if a.mask == nil {
		return nil, &MessageFormatError{Address: mask, Reason: "empty path mask"}
	}
	var out []*Node
	walkMatching(n.Root(), a, func(m *Node) { out = append(out, m) })
	return out, nil
}
