package grove

import (
	"log/slog"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenType identifies Tween components.
var TweenType = RegisterComponentType("Tween")

// DefaultTweenDone is the address a Tween posts on its target when it
// finishes.
const DefaultTweenDone = "tweencomplete"

// Tween animates up to two node attributes at once through the node's
// setters, so dirty flags stay correct.
//
// Attached to a node it advances during the update pass; it also satisfies
// Step and can run inside a Task. When the target is disposed the tween stops
// without posting.
type Tween struct {
	BaseComponent

	// Done is the address posted on the target when the tween finishes, with
	// the tween as the only argument. Empty disables the post.
	Done string

	// AutoRemove detaches the component from its node once finished.
	AutoRemove bool

	tweens   [2]*gween.Tween
	count    int
	values   [2]float64
	apply    func(n *Node, v [2]float64)
	target   *Node
	finished bool
}

// ComponentType implements Component.
func (tw *Tween) ComponentType() ComponentType { return TweenType }

// Target returns the animated node.
func (tw *Tween) Target() *Node { return tw.target }

// Finished reports whether every channel reached its end value or the target
// was disposed.
func (tw *Tween) Finished() bool { return tw.finished }

// OnUpdate implements Component.
func (tw *Tween) OnUpdate(dt float64) {
	if tw.Advance(dt) && tw.AutoRemove {
		if n := tw.Node(); n != nil {
			n.RemoveComponent(tw)
		}
	}
}

// Advance moves every channel forward by dt seconds, writes the values to
// the target and reports whether the tween has finished.
func (tw *Tween) Advance(dt float64) bool {
	if tw.finished {
		return true
	}
	if tw.target == nil || tw.target.IsDisposed() {
		tw.finished = true
		return true
	}

	allDone := true
	for i := 0; i < tw.count; i++ {
		val, done := tw.tweens[i].Update(float32(dt))
		tw.values[i] = float64(val)
		if !done {
			allDone = false
		}
	}
	tw.apply(tw.target, tw.values)

	if allDone {
		tw.finished = true
		if tw.Done != "" {
			if err := tw.target.Post(tw.Done, tw); err != nil {
				Logger().Warn("grove: tween completion post failed",
					slog.String("address", tw.Done),
					slog.Any("error", err))
			}
		}
	}
	return tw.finished
}

// Reset rewinds every channel to its start value.
func (tw *Tween) Reset() {
	for i := 0; i < tw.count; i++ {
		tw.tweens[i].Reset()
	}
	tw.finished = false
}

func newTween(n *Node, count int, apply func(*Node, [2]float64)) *Tween {
	return &Tween{Done: DefaultTweenDone, target: n, count: count, apply: apply}
}

// TweenPosition animates the node's position to (toX, toY).
func TweenPosition(n *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *Tween {
	tw := newTween(n, 2, func(n *Node, v [2]float64) { n.SetPosition(v[0], v[1]) })
	tw.tweens[0] = gween.New(float32(n.x), float32(toX), duration, fn)
	tw.tweens[1] = gween.New(float32(n.y), float32(toY), duration, fn)
	return tw
}

// TweenScale animates the node's scale to (toSX, toSY).
func TweenScale(n *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *Tween {
	tw := newTween(n, 2, func(n *Node, v [2]float64) { n.SetScale(v[0], v[1]) })
	tw.tweens[0] = gween.New(float32(n.scaleX), float32(toSX), duration, fn)
	tw.tweens[1] = gween.New(float32(n.scaleY), float32(toSY), duration, fn)
	return tw
}

// TweenRotation animates the node's rotation to the given angle in radians.
func TweenRotation(n *Node, to float64, duration float32, fn ease.TweenFunc) *Tween {
	tw := newTween(n, 1, func(n *Node, v [2]float64) { n.SetRotation(v[0]) })
	tw.tweens[0] = gween.New(float32(n.rotation), float32(to), duration, fn)
	return tw
}

// TweenAlpha animates the node's alpha.
func TweenAlpha(n *Node, to float64, duration float32, fn ease.TweenFunc) *Tween {
	tw := newTween(n, 1, func(n *Node, v [2]float64) { n.SetAlpha(v[0]) })
	tw.tweens[0] = gween.New(float32(n.alpha), float32(to), duration, fn)
	return tw
}
