package grove

import (
	"log/slog"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// FollowType identifies Follow components.
var FollowType = RegisterComponentType("Follow")

// DefaultScrollDone is the address a Follow posts on its node when a
// ScrollTo animation finishes.
const DefaultScrollDone = "scrollcomplete"

// scrollAnim holds active scroll-to tweens for X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Follow moves its node toward a target node's world position during the
// post-update pass, after every update has settled this frame's positions.
// It is the building block for cameras: put the camera container's inverse
// world matrix in front of the scene when rendering.
type Follow struct {
	BaseComponent

	// Target is the node being tracked; nil disables following.
	Target *Node
	// OffsetX and OffsetY are added to the target's world position.
	OffsetX, OffsetY float64
	// Lerp is the fraction of the remaining distance covered per frame.
	// 1 snaps immediately; lower values give smoother following.
	Lerp float64

	// BoundsEnabled clamps the followed position so a Size-sized area
	// centered on it stays within Bounds (parent space).
	BoundsEnabled bool
	Bounds        Rect
	// Size is the extent kept inside Bounds, typically a viewport size.
	// Zero clamps the point itself.
	Size Vec2

	// ScrollDone is the address posted on the node when ScrollTo finishes.
	// Empty disables the post.
	ScrollDone string

	scroll *scrollAnim
}

// NewFollow creates a Follow tracking target.
func NewFollow(target *Node, offsetX, offsetY, lerp float64) *Follow {
	return &Follow{
		Target:     target,
		OffsetX:    offsetX,
		OffsetY:    offsetY,
		Lerp:       lerp,
		ScrollDone: DefaultScrollDone,
	}
}

// ComponentType implements Component.
func (f *Follow) ComponentType() ComponentType { return FollowType }

// Unfollow stops tracking the current target.
func (f *Follow) Unfollow() {
	f.Target = nil
}

// ScrollTo animates the node to (x, y) in its parent's space over duration
// seconds. While scrolling, following is suspended.
func (f *Follow) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	n := f.Node()
	if n == nil {
		return
	}
	f.scroll = &scrollAnim{
		tweenX: gween.New(float32(n.x), float32(x), duration, easeFn),
		tweenY: gween.New(float32(n.y), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (f *Follow) Scrolling() bool {
	return f.scroll != nil
}

// SetBounds enables bounds clamping.
func (f *Follow) SetBounds(bounds Rect) {
	f.BoundsEnabled = true
	f.Bounds = bounds
}

// ClearBounds disables bounds clamping.
func (f *Follow) ClearBounds() {
	f.BoundsEnabled = false
}

// OnPostUpdate implements Component.
func (f *Follow) OnPostUpdate(dt float64) {
	n := f.Node()
	if n == nil {
		return
	}
	x, y := n.x, n.y

	if f.scroll != nil {
		s := f.scroll
		if !s.doneX {
			val, done := s.tweenX.Update(float32(dt))
			x = float64(val)
			s.doneX = done
		}
		if !s.doneY {
			val, done := s.tweenY.Update(float32(dt))
			y = float64(val)
			s.doneY = done
		}
		if s.doneX && s.doneY {
			f.scroll = nil
			defer f.postScrollDone(n)
		}
	} else if f.Target != nil && !f.Target.IsDisposed() {
		w := f.Target.World()
		tx, ty := w[4]+f.OffsetX, w[5]+f.OffsetY
		if n.parent != nil {
			tx, ty = n.parent.WorldToLocal(tx, ty)
		}
		x += (tx - x) * f.Lerp
		y += (ty - y) * f.Lerp
	}

	if f.BoundsEnabled {
		x, y = f.clamp(x, y)
	}
	if x != n.x || y != n.y {
		n.SetPosition(x, y)
	}
}

func (f *Follow) postScrollDone(n *Node) {
	if f.ScrollDone == "" {
		return
	}
	if err := n.Post(f.ScrollDone, f); err != nil {
		Logger().Warn("grove: scroll completion post failed",
			slog.String("address", f.ScrollDone),
			slog.Any("error", err))
	}
}

// clamp restricts (x, y) so the Size-sized area centered on it stays within
// Bounds. If Bounds is smaller than Size on an axis, that axis is centered.
func (f *Follow) clamp(x, y float64) (float64, float64) {
	halfW := f.Size.X / 2
	halfH := f.Size.Y / 2

	minX := f.Bounds.X + halfW
	maxX := f.Bounds.X + f.Bounds.Width - halfW
	minY := f.Bounds.Y + halfH
	maxY := f.Bounds.Y + f.Bounds.Height - halfH

	if minX > maxX {
		x = f.Bounds.X + f.Bounds.Width/2
	} else {
		x = math.Max(minX, math.Min(x, maxX))
	}
	if minY > maxY {
		y = f.Bounds.Y + f.Bounds.Height/2
	} else {
		y = math.Max(minY, math.Min(y, maxY))
	}
	return x, y
}
