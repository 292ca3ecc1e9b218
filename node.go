package grove

import (
	"fmt"
	"strings"
)

// nodeIDCounter is a plain counter; nodes are not shared across goroutines.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the fundamental scene graph element. A single flat struct is used
// for every node; what a node draws is decided by its Content and what it
// does by its Components.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Tag  string

	// Hierarchy. parent is a back-reference only; a node owns its children.
	parent   *Node
	children []*Node
	tree     *Tree

	// Transform (local)
	x, y           float64
	scaleX, scaleY float64
	rotation       float64
	skewX, skewY   float64
	pivotX, pivotY float64

	// Render attributes
	alpha     float64
	visible   bool
	zIndex    int
	blendMode BlendMode
	content   Content

	// Cached derived state, guarded by dirty.
	dirty        DirtyFlags
	subtreeDirty DirtyFlags // downward bits set on every node of the subtree
	local        Matrix
	world        Matrix
	bounds       Rect // subtree bounds in this node's own space

	// Behavior
	components []Component
	byType     map[ComponentType][]Component
	listeners  dispatcher

	// Lifecycle hooks (nil by default; zero cost when unused)
	OnAdded   func(n *Node)
	OnRemoved func(n *Node)

	// Metadata
	UserData any

	// Internal
	pendingAdded   bool
	disposed       bool
	childrenSorted bool
	sortedChildren []*Node // reused buffer for ZIndex-sorted render order
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.scaleX = 1
	n.scaleY = 1
	n.alpha = 1
	n.visible = true
	n.dirty = DirtyLocal | DirtyWorld | DirtyRender | DirtyBounds
	n.subtreeDirty = DirtyWorld | DirtyRender
	n.local = Identity
	n.world = Identity
	n.childrenSorted = true
}

// NewNode creates a container node with no visual content.
func NewNode(name string) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	return n
}

// NewSprite creates a node that renders the given content.
func NewSprite(name string, content Content) *Node {
	n := &Node{Name: name, content: content}
	nodeDefaults(n)
	return n
}

// NewRect creates a node rendering a solid rectangle of the given size.
func NewRect(name string, width, height float64, color Color) *Node {
	return NewSprite(name, RectContent{Width: width, Height: height, Color: color})
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Returns a *HierarchyError (matching ErrCycle) without touching the tree
// if child is this node or one of its ancestors. Panics if child is nil.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		panic("grove: cannot add nil child")
	}
	return n.insertChild(child, -1)
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
// Panics if index is out of range.
func (n *Node) AddChildAt(child *Node, index int) error {
	if child == nil {
		panic("grove: cannot add nil child")
	}
	if index < 0 || index > len(n.children) {
		panic("grove: child index out of range")
	}
	return n.insertChild(child, index)
}

// insertChild does the work of AddChild/AddChildAt. index < 0 appends.
func (n *Node) insertChild(child *Node, index int) error {
	if n.debugging() {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		return &HierarchyError{Parent: n, Child: child}
	}
	if child.tree != nil && child.tree.root == child {
		panic("grove: cannot add a tree's root as a child")
	}
	if child.parent == nil && child.tree != nil {
		// Added from one of its own OnRemoved hooks; finish leaving the tree.
		child.markDetached(child.tree)
	}
	if child.parent != nil {
		child.parent.detachChild(child)
		// OnRemoved hooks may have restructured the tree.
		if child.parent != nil {
			return fmt.Errorf("%w: adding %q under %q", ErrMoved, child.Name, n.Name)
		}
		if isAncestor(child, n) {
			return &HierarchyError{Parent: n, Child: child}
		}
	}
	if index < 0 || index > len(n.children) {
		index = len(n.children)
	}
	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.childrenSorted = false
	child.SetDirty(DirtyWorld|DirtyRender, true)
	n.invalidateBounds()
	if n.tree != nil {
		child.enterTree(n.tree)
	}
	if n.debugging() {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
	return nil
}

// RemoveChild detaches child from this node. It reports false and does
// nothing if child is not a child of this node.
func (n *Node) RemoveChild(child *Node) bool {
	if child == nil || child.parent != n {
		return false
	}
	n.detachChild(child)
	return true
}

// RemoveChildAt removes and returns the child at the given index, or nil if
// the index is out of range.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	child := n.children[index]
	n.detachChild(child)
	return child
}

// RemoveFromParent detaches this node from its parent.
// No-op (false) if this node has no parent.
func (n *Node) RemoveFromParent() bool {
	if n.parent == nil {
		return false
	}
	return n.parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT disposed.
func (n *Node) RemoveChildren() {
	for len(n.children) > 0 {
		n.detachChild(n.children[len(n.children)-1])
	}
}

// detachChild unlinks child, refreshes dirty state, and fires OnRemoved on
// the subtree if it was live.
func (n *Node) detachChild(child *Node) {
	n.removeChildByPtr(child)
	child.parent = nil
	n.childrenSorted = false
	child.SetDirty(DirtyWorld|DirtyRender, true)
	n.invalidateBounds()
	if t := child.tree; t != nil {
		child.exitTree(t)
	}
}

// Parent returns the node's parent, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index, or nil if out of range.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return n.children[index]
}

// IndexOf returns the index of child among this node's children, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// SetChildIndex moves child to a new index among its siblings.
// Returns false if child is not a child of this node or index is out of range.
func (n *Node) SetChildIndex(child *Node, index int) bool {
	if child == nil || child.parent != n || index < 0 || index >= len(n.children) {
		return false
	}
	oldIndex := n.IndexOf(child)
	if oldIndex == index {
		return true
	}
	// Shift elements to fill the gap and open the target slot.
	if oldIndex < index {
		copy(n.children[oldIndex:], n.children[oldIndex+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:oldIndex])
	}
	n.children[index] = child
	n.childrenSorted = false
	n.SetDirty(DirtyRender, false)
	return true
}

// Root returns the topmost ancestor of this node (itself if it has no parent).
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Tree returns the tree this node is live in, or nil if it is detached.
func (n *Node) Tree() *Tree {
	return n.tree
}

// IsLive reports whether the node is attached to a Tree.
func (n *Node) IsLive() bool {
	return n.tree != nil
}

// Path returns the slash-joined names from the root of this node's tree down
// to this node, root name included.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.Name
	}
	var chain []*Node
	for p := n; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	var sb strings.Builder
	for i := len(chain) - 1; i >= 0; i-- {
		sb.WriteString(chain[i].Name)
		if i > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// Depth returns the number of ancestors above this node.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Find returns the first descendant reached by following the slash-separated
// names in path from this node, or nil. Names are not unique; the first child
// with a matching name wins at every step.
func (n *Node) Find(path string) *Node {
	cur := n
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		var next *Node
		for _, c := range cur.children {
			if c.Name == seg {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// resolvePath finds a node by its full path ("root/a/b") or by a path
// relative to root ("a/b"). An empty path is the root itself.
func resolvePath(root *Node, path string) *Node {
	if path == "" || path == root.Name {
		return root
	}
	if rest, ok := strings.CutPrefix(path, root.Name+"/"); ok {
		if n := root.Find(rest); n != nil {
			return n
		}
	}
	return root.Find(path)
}

// Walk calls fn on this node and its descendants in pre-order. Returning
// false from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// --- Lifecycle ---

// enterTree marks the subtree live in t, then fires OnAdded hooks in
// pre-order (node hook, then components in attachment order).
func (n *Node) enterTree(t *Tree) {
	n.markLive(t)
	n.fireAdded(t)
}

func (n *Node) markLive(t *Tree) {
	n.tree = t
	n.pendingAdded = true
	t.router.registerNode(n)
	for _, c := range n.children {
		c.markLive(t)
	}
}

func (n *Node) fireAdded(t *Tree) {
	if n.tree != t || !n.pendingAdded {
		return
	}
	n.pendingAdded = false
	if n.OnAdded != nil {
		n.OnAdded(n)
	}
	for _, c := range snapshotComponents(n.components) {
		if c.AsComponent().node == n && n.tree == t {
			activateComponent(c)
		}
	}
	for _, child := range snapshotNodes(n.children) {
		if child.parent == n {
			child.fireAdded(t)
		}
	}
}

// exitTree fires OnRemoved hooks in pre-order while the subtree can still
// reach t, then detaches it from t.
func (n *Node) exitTree(t *Tree) {
	n.fireRemoved(t)
	if n.parent != nil {
		// A hook re-added the node; that insertion already detached it.
		return
	}
	n.markDetached(t)
}

func (n *Node) fireRemoved(t *Tree) {
	if n.tree != t {
		return
	}
	parent := n.parent
	if n.OnRemoved != nil {
		n.OnRemoved(n)
	}
	for _, c := range snapshotComponents(n.components) {
		if n.parent != parent {
			return
		}
		if c.AsComponent().node == n {
			deactivateComponent(c)
		}
	}
	if n.parent != parent {
		return
	}
	for _, child := range snapshotNodes(n.children) {
		if child.parent == n {
			child.fireRemoved(t)
		}
	}
}

func (n *Node) markDetached(t *Tree) {
	if n.tree != t {
		return
	}
	t.router.unregisterNode(n)
	n.tree = nil
	n.pendingAdded = false
	for _, c := range n.children {
		c.markDetached(t)
	}
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	if n.tree != nil {
		// A tree root being disposed directly.
		n.exitTree(n.tree)
	}
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.parent = nil
		child.dispose()
	}
	n.children = nil
	n.sortedChildren = nil
	n.parent = nil
	n.content = nil
	n.components = nil
	n.byType = nil
	n.listeners = dispatcher{}
	n.UserData = nil
	n.OnAdded = nil
	n.OnRemoved = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

func (n *Node) debugging() bool {
	return n.tree != nil && n.tree.cfg.Debug
}

func snapshotNodes(nodes []*Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}
	return append([]*Node(nil), nodes...)
}
