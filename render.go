package grove

import (
	"fmt"
	"log/slog"
	"time"
)

// RenderItem is everything a driver needs to draw one node. Items are
// produced in draw order: pre-order, siblings sorted by ZIndex (stable).
type RenderItem struct {
	Node      *Node
	Kind      ContentKind
	Content   Content
	World     Matrix
	Alpha     float64 // product of the node's and its ancestors' alpha
	BlendMode BlendMode

	// Dirty is true when the node's render data changed since the last
	// collection, so caching drivers can skip unchanged nodes.
	Dirty bool
}

// Driver draws render items for one backend.
type Driver interface {
	DrawItem(item *RenderItem) error
}

// KindDriver dispatches each item to the function registered for its
// content kind. Kinds without an entry are skipped.
type KindDriver map[ContentKind]func(item *RenderItem) error

// DrawItem implements Driver.
func (k KindDriver) DrawItem(item *RenderItem) error {
	if fn := k[item.Kind]; fn != nil {
		return fn(item)
	}
	return nil
}

// Collect appends the render items of n's subtree to buf and returns it.
// Invisible nodes are skipped with their subtrees; containers contribute
// only their children. DirtyRender is cleared on every visited node.
//
// Collect must run after the frame's update passes so world transforms and
// alpha reflect this frame.
func Collect(n *Node, buf []RenderItem) []RenderItem {
	parentAlpha := 1.0
	if n.parent != nil {
		parentAlpha = n.parent.WorldAlpha()
	}
	return collect(n, parentAlpha, buf)
}

func collect(n *Node, parentAlpha float64, buf []RenderItem) []RenderItem {
	if !n.visible {
		return buf
	}
	alpha := parentAlpha * n.alpha
	dirty := n.dirty&DirtyRender != 0
	n.clearDirty(DirtyRender)

	if n.content != nil {
		if kind := n.content.Kind(); kind != ContentNone {
			buf = append(buf, RenderItem{
				Node:      n,
				Kind:      kind,
				Content:   n.content,
				World:     n.World(),
				Alpha:     alpha,
				BlendMode: n.blendMode,
				Dirty:     dirty,
			})
		}
	}

	if len(n.children) == 0 {
		return buf
	}
	if !n.childrenSorted {
		rebuildSortedChildren(n)
	}
	for _, child := range n.sortedChildren {
		buf = collect(child, alpha, buf)
	}
	return buf
}

// rebuildSortedChildren rebuilds the ZIndex-sorted draw order for a node.
// Insertion sort: stable, no allocations once the buffer is sized, and O(n)
// for the usual nearly-sorted case.
func rebuildSortedChildren(n *Node) {
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].zIndex > key.zIndex {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
}

// Collect gathers the whole tree's render items into buf.
func (t *Tree) Collect(buf []RenderItem) []RenderItem {
	return Collect(t.root, buf)
}

// Render collects the tree and hands every item to d in draw order. It stops
// at the first driver error.
func (t *Tree) Render(d Driver) error {
	var t0 time.Time
	if t.cfg.Debug {
		t0 = time.Now()
	}
	items := t.Collect(t.items[:0])
	t.items = items
	for i := range items {
		if err := d.DrawItem(&items[i]); err != nil {
			path := items[i].Node.Path()
			clear(items)
			return fmt.Errorf("render %s: %w", path, err)
		}
	}
	if t.cfg.Debug {
		Logger().Debug("grove: render",
			slog.Uint64("frame", t.frame),
			slog.Int("items", len(items)),
			slog.Duration("time", time.Since(t0)))
	}
	clear(items)
	return nil
}
