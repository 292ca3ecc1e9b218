package grove

import "fmt"

// ComponentType is a stable capability id used to look components up on a
// node and to address them with a "#Name" component mask.
type ComponentType uint16

// maxComponentTypes bounds the registry so ids fit the type.
const maxComponentTypes = 1 << 16

var (
	componentTypeNames = []string{""} // id 0 is reserved for "no type"
	componentTypeIDs   = map[string]ComponentType{}
)

// RegisterComponentType returns the id for name, registering it on first
// use. Registration is idempotent, so packages can call it from var
// initializers. Panics on an empty name or when the registry is full.
func RegisterComponentType(name string) ComponentType {
	if name == "" || name == "*" {
		panic(fmt.Sprintf("grove: invalid component type name %q", name))
	}
	if id, ok := componentTypeIDs[name]; ok {
		return id
	}
	if len(componentTypeNames) >= maxComponentTypes {
		panic(fmt.Sprintf("grove: cannot register component type %q: registry full", name))
	}
	id := ComponentType(len(componentTypeNames))
	componentTypeNames = append(componentTypeNames, name)
	componentTypeIDs[name] = id
	return id
}

// ComponentTypeByName looks up a registered component type.
func ComponentTypeByName(name string) (ComponentType, bool) {
	id, ok := componentTypeIDs[name]
	return id, ok
}

// Name returns the name the type was registered with.
func (t ComponentType) Name() string {
	if int(t) >= len(componentTypeNames) {
		return ""
	}
	return componentTypeNames[t]
}

func (t ComponentType) String() string {
	return t.Name()
}

// Component is a unit of behavior attached to a Node. All components embed
// BaseComponent, which supplies no-op hooks and the owner link; concrete
// types override the hooks they care about.
type Component interface {
	// AsComponent returns the embedded BaseComponent.
	AsComponent() *BaseComponent

	// ComponentType identifies the component's capability for lookups and
	// "#Name" message masks.
	ComponentType() ComponentType

	// OnAdded is called when the component becomes live: added to a node
	// that is in a tree, or its node enters a tree.
	OnAdded()

	// OnRemoved is called when a live component leaves the tree.
	OnRemoved()

	// OnFixedUpdate is called zero or more times per tick with the fixed step.
	OnFixedUpdate(dt float64)

	// OnUpdate is called once per tick with the frame delta.
	OnUpdate(dt float64)

	// OnPostUpdate is called once per tick after every update has run.
	OnPostUpdate(dt float64)
}

// BaseComponent implements Component with no-op hooks.
type BaseComponent struct {
	node *Node
	live bool // OnAdded fired and OnRemoved not yet
}

// AsComponent implements Component.
func (b *BaseComponent) AsComponent() *BaseComponent { return b }

// Node returns the owning node, or nil when the component is not attached.
func (b *BaseComponent) Node() *Node { return b.node }

func (b *BaseComponent) OnAdded()                 {}
func (b *BaseComponent) OnRemoved()               {}
func (b *BaseComponent) OnFixedUpdate(dt float64) {}
func (b *BaseComponent) OnUpdate(dt float64)      {}
func (b *BaseComponent) OnPostUpdate(dt float64)  {}

// --- Node component API ---

// AddComponent attaches c to this node, detaching it from any previous
// owner first. OnAdded fires if this node is live.
func (n *Node) AddComponent(c Component) {
	b := c.AsComponent()
	if b.node == n {
		return
	}
	if b.node != nil {
		b.node.RemoveComponent(c)
	}
	b.node = n
	n.components = append(n.components, c)
	if n.byType == nil {
		n.byType = make(map[ComponentType][]Component)
	}
	t := c.ComponentType()
	n.byType[t] = append(n.byType[t], c)
	// A node still entering the tree fires its components in fireAdded.
	if n.tree != nil && !n.pendingAdded {
		activateComponent(c)
	}
}

// activateComponent fires OnAdded once per entry into a tree.
func activateComponent(c Component) {
	b := c.AsComponent()
	if b.live {
		return
	}
	b.live = true
	c.OnAdded()
}

// deactivateComponent fires OnRemoved for a live component.
func deactivateComponent(c Component) {
	b := c.AsComponent()
	if !b.live {
		return
	}
	b.live = false
	c.OnRemoved()
}

// RemoveComponent detaches c from this node. It reports false if c is not
// attached here. OnRemoved fires if this node is live, and listeners
// registered through the component are dropped.
func (n *Node) RemoveComponent(c Component) bool {
	b := c.AsComponent()
	if b.node != n {
		return false
	}
	deactivateComponent(c)
	n.components = removeComponent(n.components, c)
	t := c.ComponentType()
	if list := removeComponent(n.byType[t], c); len(list) > 0 {
		n.byType[t] = list
	} else {
		delete(n.byType, t)
	}
	n.offComponent(c)
	b.node = nil
	return true
}

// GetComponent returns the first attached component of type t, or nil.
func (n *Node) GetComponent(t ComponentType) Component {
	list := n.byType[t]
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// GetComponents returns every attached component of type t in attachment
// order. The returned slice MUST NOT be mutated by the caller.
func (n *Node) GetComponents(t ComponentType) []Component {
	return n.byType[t]
}

// Components returns all attached components in attachment order.
// The returned slice MUST NOT be mutated by the caller.
func (n *Node) Components() []Component {
	return n.components
}

// ComponentOf returns the first component of type t on n converted to T.
func ComponentOf[T Component](n *Node, t ComponentType) (T, bool) {
	for _, c := range n.byType[t] {
		if v, ok := c.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func removeComponent(list []Component, c Component) []Component {
	for i, x := range list {
		if x == c {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

func snapshotComponents(list []Component) []Component {
	if len(list) == 0 {
		return nil
	}
	return append([]Component(nil), list...)
}
