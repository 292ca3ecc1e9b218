package ecs

import (
	"github.com/phanxgames/grove"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// MessageEventType is the Donburi event type for grove message records.
var MessageEventType = events.NewEventType[grove.MessageRecord]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates a MessageSink backed by a Donburi world. Records
// are published to MessageEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) grove.MessageSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) RecordMessage(rec grove.MessageRecord) {
	MessageEventType.Publish(s.world, rec)
}

// NodeData is the entity-side view of a mirrored node.
type NodeData struct {
	NodeID  uint32
	Path    string
	X, Y    float64 // world position of the node's origin
	Visible bool
}

// NodeEntity is the Donburi component carried by mirrored entities.
var NodeEntity = donburi.NewComponentType[NodeData]()

// MirrorType identifies Mirror components.
var MirrorType = grove.RegisterComponentType("Mirror")

// Mirror keeps a Donburi entity in sync with its node while the node is
// live: created on add, refreshed every post-update, removed on remove.
type Mirror struct {
	grove.BaseComponent

	world  donburi.World
	entity donburi.Entity
	live   bool
}

// NewMirror creates a Mirror writing into world.
func NewMirror(world donburi.World) *Mirror {
	return &Mirror{world: world}
}

// ComponentType implements grove.Component.
func (m *Mirror) ComponentType() grove.ComponentType { return MirrorType }

// Entity returns the mirrored entity and whether it currently exists.
func (m *Mirror) Entity() (donburi.Entity, bool) {
	return m.entity, m.live && m.world.Valid(m.entity)
}

// OnAdded implements grove.Component.
func (m *Mirror) OnAdded() {
	if m.live {
		return
	}
	m.entity = m.world.Create(NodeEntity)
	m.live = true
	m.sync()
}

// OnRemoved implements grove.Component.
func (m *Mirror) OnRemoved() {
	if !m.live {
		return
	}
	if m.world.Valid(m.entity) {
		m.world.Remove(m.entity)
	}
	m.live = false
}

// OnPostUpdate implements grove.Component.
func (m *Mirror) OnPostUpdate(float64) {
	m.sync()
}

func (m *Mirror) sync() {
	n := m.Node()
	if !m.live || n == nil || !m.world.Valid(m.entity) {
		return
	}
	x, y := n.LocalToWorld(0, 0)
	NodeEntity.SetValue(m.world.Entry(m.entity), NodeData{
		NodeID:  n.ID,
		Path:    n.Path(),
		X:       x,
		Y:       y,
		Visible: n.WorldVisible(),
	})
}

// MirrorSubtree attaches a Mirror to n and every descendant that lacks one.
func MirrorSubtree(world donburi.World, n *grove.Node) {
	n.Walk(func(c *grove.Node) bool {
		if c.GetComponent(MirrorType) == nil {
			c.AddComponent(NewMirror(world))
		}
		return true
	})
}

// MirroredNodes returns the data of every mirrored entity in world.
func MirroredNodes(world donburi.World) []NodeData {
	var out []NodeData
	donburi.NewQuery(filter.Contains(NodeEntity)).Each(world, func(e *donburi.Entry) {
		out = append(out, *NodeEntity.Get(e))
	})
	return out
}
