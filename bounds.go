package grove

// Content is the renderable payload of a node. The core only needs its kind
// (so drivers can pick a renderer) and its local-space extent.
type Content interface {
	Kind() ContentKind
	Bounds() Rect
}

// RectContent is a solid rectangle anchored at the node's origin.
type RectContent struct {
	Width, Height float64
	Color         Color
}

// Kind implements Content.
func (RectContent) Kind() ContentKind { return ContentRect }

// Bounds implements Content.
func (r RectContent) Bounds() Rect { return Rect{0, 0, r.Width, r.Height} }

// ImageContent is an image whose pixels live in a driver. Handle is opaque to
// the core (for example an *ebiten.Image).
type ImageContent struct {
	Width, Height float64
	Handle        any
}

// Kind implements Content.
func (ImageContent) Kind() ContentKind { return ContentImage }

// Bounds implements Content.
func (i ImageContent) Bounds() Rect { return Rect{0, 0, i.Width, i.Height} }

// SetContent replaces the node's content.
func (n *Node) SetContent(c Content) {
	n.content = c
	n.invalidateBounds()
	n.SetDirty(DirtyRender, false)
}

// Content returns the node's content, or nil for a container.
func (n *Node) Content() Content {
	return n.content
}

// contentBounds returns the local extent of the node's own content.
func (n *Node) contentBounds() Rect {
	if n.content == nil {
		return Rect{}
	}
	return n.content.Bounds()
}

// subtreeBounds returns the union of the node's content and its children's
// subtree bounds, in the node's own space. Children contribute the bounding
// box of their cached rect under their local matrix, so rotated subtrees
// yield a conservative box.
func (n *Node) subtreeBounds() Rect {
	if n.dirty&DirtyBounds != 0 {
		r := n.contentBounds()
		for _, c := range n.children {
			cb := c.subtreeBounds()
			if cb.Empty() {
				continue
			}
			r = r.Union(c.Local().TransformRect(cb))
		}
		n.bounds = r
		n.dirty &^= DirtyBounds
	}
	return n.bounds
}

// GetBounds returns the node's bounding rectangle expressed in space's
// coordinate system.
//
//   - space == nil: the parent's space (world space for a root).
//   - space == n: the node's own space.
//   - any other node: composed through world space, so ancestors,
//     descendants and unrelated nodes are all handled; for nodes in a
//     different tree the result is relative to that tree's root.
//
// With includeChildren the rectangle covers the whole subtree.
func (n *Node) GetBounds(space *Node, includeChildren bool) Rect {
	var r Rect
	if includeChildren {
		r = n.subtreeBounds()
	} else {
		r = n.contentBounds()
	}
	switch {
	case space == n:
		return r
	case space == nil || space == n.parent:
		return n.Local().TransformRect(r)
	default:
		m := space.World().Invert().Append(n.World())
		return m.TransformRect(r)
	}
}

// WorldBounds is GetBounds in world space, children included.
func (n *Node) WorldBounds() Rect {
	return n.World().TransformRect(n.subtreeBounds())
}
