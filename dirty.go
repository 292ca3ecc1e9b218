package grove

// DirtyFlags marks cached, derived node state as stale.
//
// WORLD and RENDER travel downward: when set on a node they are set on every
// descendant. Each node also remembers which of these bits its whole subtree
// carries; clearing a bit anywhere forgets it on the ancestors, so
// propagation stops only at subtrees that are still entirely dirty.
//
// BOUNDS travels upward, because a node's subtree bounds include its
// children: when set on a node it is set on every ancestor.
type DirtyFlags uint8

const (
	DirtyLocal  DirtyFlags = 1 << iota // local matrix must be recomposed
	DirtyWorld                         // world matrix must be recomputed
	DirtyRender                        // render data changed since the last render pass
	DirtyBounds                        // cached subtree bounds are stale
)

// Dirty returns the node's current dirty bits.
func (n *Node) Dirty() DirtyFlags {
	return n.dirty
}

// IsDirty reports whether any of the given bits are set.
func (n *Node) IsDirty(flags DirtyFlags) bool {
	return n.dirty&flags != 0
}

// SetDirty sets flags on this node. With propagate, the same bits are set on
// every descendant, skipping subtrees that already carry all of them.
// DirtyBounds is also pushed up through the ancestors.
func (n *Node) SetDirty(flags DirtyFlags, propagate bool) {
	if flags&DirtyBounds != 0 {
		n.invalidateBounds()
	}
	n.dirty |= flags
	if !propagate {
		return
	}
	for _, c := range n.children {
		c.markDown(flags)
	}
	n.subtreeDirty |= flags & downwardFlags
}

// MarkDirty marks the node's transform as changed, forcing recomputation of
// its local and world matrices and its descendants' world matrices.
func (n *Node) MarkDirty() {
	n.transformChanged()
}

// downwardFlags are the bits tracked in Node.subtreeDirty.
const downwardFlags = DirtyWorld | DirtyRender

func (n *Node) markDown(flags DirtyFlags) {
	if flags&^downwardFlags == 0 && n.subtreeDirty&flags == flags {
		return
	}
	n.dirty |= flags
	for _, c := range n.children {
		c.markDown(flags)
	}
	n.subtreeDirty |= flags & downwardFlags
}

// clearDirty clears downward bits on n. Ancestors no longer have an
// entirely dirty subtree for those bits.
func (n *Node) clearDirty(flags DirtyFlags) {
	n.dirty &^= flags
	n.subtreeDirty &^= flags
	for p := n.parent; p != nil && p.subtreeDirty&flags != 0; p = p.parent {
		p.subtreeDirty &^= flags
	}
}

// invalidateBounds sets DirtyBounds on n and its ancestors, stopping at the
// first ancestor that already has it.
func (n *Node) invalidateBounds() {
	for p := n; p != nil && p.dirty&DirtyBounds == 0; p = p.parent {
		p.dirty |= DirtyBounds
	}
}

// transformChanged is called by every local transform setter.
func (n *Node) transformChanged() {
	n.dirty |= DirtyLocal
	n.SetDirty(DirtyWorld|DirtyRender, true)
	if n.parent != nil {
		n.parent.invalidateBounds()
	}
}

// --- Transform property setters ---

// SetPosition sets the node's local X and Y.
func (n *Node) SetPosition(x, y float64) {
	n.x = x
	n.y = y
	n.transformChanged()
}

// SetX sets the node's local X.
func (n *Node) SetX(x float64) {
	n.x = x
	n.transformChanged()
}

// SetY sets the node's local Y.
func (n *Node) SetY(y float64) {
	n.y = y
	n.transformChanged()
}

// SetScale sets the node's scale factors.
func (n *Node) SetScale(sx, sy float64) {
	n.scaleX = sx
	n.scaleY = sy
	n.transformChanged()
}

// SetRotation sets the node's rotation in radians.
func (n *Node) SetRotation(r float64) {
	n.rotation = r
	n.transformChanged()
}

// SetSkew sets the node's skew angles in radians.
func (n *Node) SetSkew(sx, sy float64) {
	n.skewX = sx
	n.skewY = sy
	n.transformChanged()
}

// SetPivot sets the local point that position, rotation and scale are
// applied around.
func (n *Node) SetPivot(px, py float64) {
	n.pivotX = px
	n.pivotY = py
	n.transformChanged()
}

// Position returns the node's local X and Y.
func (n *Node) Position() (x, y float64) { return n.x, n.y }

// X returns the node's local X.
func (n *Node) X() float64 { return n.x }

// Y returns the node's local Y.
func (n *Node) Y() float64 { return n.y }

// Scale returns the node's scale factors.
func (n *Node) Scale() (sx, sy float64) { return n.scaleX, n.scaleY }

// Rotation returns the node's rotation in radians.
func (n *Node) Rotation() float64 { return n.rotation }

// Skew returns the node's skew angles.
func (n *Node) Skew() (sx, sy float64) { return n.skewX, n.skewY }

// Pivot returns the node's pivot.
func (n *Node) Pivot() (px, py float64) { return n.pivotX, n.pivotY }

// --- Render attribute setters ---

// SetAlpha sets the node's opacity; children inherit it multiplicatively.
func (n *Node) SetAlpha(a float64) {
	n.alpha = a
	n.SetDirty(DirtyRender, true)
}

// Alpha returns the node's own opacity.
func (n *Node) Alpha() float64 { return n.alpha }

// SetVisible shows or hides the node and its subtree.
func (n *Node) SetVisible(v bool) {
	if n.visible == v {
		return
	}
	n.visible = v
	n.SetDirty(DirtyRender, true)
}

// Visible returns the node's own visibility flag.
func (n *Node) Visible() bool { return n.visible }

// SetBlendMode sets the compositing mode used by drivers.
func (n *Node) SetBlendMode(b BlendMode) {
	n.blendMode = b
	n.SetDirty(DirtyRender, false)
}

// BlendMode returns the node's compositing mode.
func (n *Node) BlendMode() BlendMode { return n.blendMode }

// SetZIndex sets the node's draw order among its siblings. It only affects
// render order; message and update traversal follow child order.
func (n *Node) SetZIndex(z int) {
	if n.zIndex == z {
		return
	}
	n.zIndex = z
	if n.parent != nil {
		n.parent.childrenSorted = false
		n.parent.SetDirty(DirtyRender, false)
	}
}

// ZIndex returns the node's sibling draw order.
func (n *Node) ZIndex() int { return n.zIndex }

// --- Derived transforms ---

// Local returns the node's local matrix, recomposing it if DirtyLocal is set.
func (n *Node) Local() Matrix {
	if n.dirty&DirtyLocal != 0 {
		n.local = ComposeSkew(n.x, n.y, n.rotation, n.scaleX, n.scaleY, n.skewX, n.skewY, n.pivotX, n.pivotY)
		n.dirty &^= DirtyLocal
	}
	return n.local
}

// World returns the node's world matrix. When DirtyWorld is set it is
// recomputed as parent.World().Append(Local()) and cached; a root's world
// matrix is its local matrix.
func (n *Node) World() Matrix {
	if n.dirty&DirtyWorld != 0 {
		if n.parent != nil {
			n.world = n.parent.World().Append(n.Local())
		} else {
			n.world = n.Local()
		}
		n.clearDirty(DirtyWorld)
	}
	return n.world
}

// WorldAlpha returns the product of this node's and its ancestors' alpha.
func (n *Node) WorldAlpha() float64 {
	a := 1.0
	for p := n; p != nil; p = p.parent {
		a *= p.alpha
	}
	return a
}

// WorldVisible reports whether this node and all its ancestors are visible.
func (n *Node) WorldVisible() bool {
	for p := n; p != nil; p = p.parent {
		if !p.visible {
			return false
		}
	}
	return true
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	return n.World().Invert().TransformPoint(wx, wy)
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return n.World().TransformPoint(lx, ly)
}

// LocalToNode converts a point in this node's space into other's space.
func (n *Node) LocalToNode(x, y float64, other *Node) (float64, float64) {
	return other.World().Invert().Append(n.World()).TransformPoint(x, y)
}
