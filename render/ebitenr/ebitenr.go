// Package ebitenr draws grove render items with Ebitengine.
package ebitenr

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/grove"
)

// Driver draws render items onto an ebiten image, usually the screen passed
// to Game.Draw. Rect content is drawn by scaling a shared 1x1 white image;
// image content must carry an *ebiten.Image handle.
type Driver struct {
	// Target receives the draws. Set it each frame to the screen.
	Target *ebiten.Image

	// View is applied in front of every item's world matrix.
	View grove.Matrix

	white *ebiten.Image
	op    ebiten.DrawImageOptions
}

// New creates a driver drawing onto target.
func New(target *ebiten.Image) *Driver {
	return &Driver{Target: target, View: grove.Identity}
}

// DrawItem implements grove.Driver.
func (d *Driver) DrawItem(item *grove.RenderItem) error {
	if d.Target == nil {
		return fmt.Errorf("ebitenr: no target image")
	}
	if item.Alpha <= 0 {
		return nil
	}
	world := GeoM(d.View.Append(item.World))
	d.op = ebiten.DrawImageOptions{Blend: Blend(item.BlendMode)}

	switch c := item.Content.(type) {
	case grove.RectContent:
		if d.white == nil {
			d.white = ebiten.NewImage(1, 1)
			d.white.Fill(grove.ColorWhite)
		}
		d.op.GeoM.Scale(c.Width, c.Height)
		d.op.GeoM.Concat(world)
		d.op.ColorScale = ColorScale(c.Color, item.Alpha)
		d.Target.DrawImage(d.white, &d.op)
	case grove.ImageContent:
		img, ok := c.Handle.(*ebiten.Image)
		if !ok {
			return fmt.Errorf("ebitenr: unsupported image handle %T", c.Handle)
		}
		b := img.Bounds()
		if b.Dx() > 0 && b.Dy() > 0 && c.Width > 0 && c.Height > 0 {
			d.op.GeoM.Scale(c.Width/float64(b.Dx()), c.Height/float64(b.Dy()))
		}
		d.op.GeoM.Concat(world)
		d.op.ColorScale.ScaleAlpha(float32(item.Alpha))
		d.Target.DrawImage(img, &d.op)
	default:
		return fmt.Errorf("ebitenr: unsupported content %T", item.Content)
	}
	return nil
}

// GeoM converts a grove matrix to an ebiten.GeoM.
func GeoM(m grove.Matrix) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(0, 1, m[2])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 0, m[1])
	g.SetElement(1, 1, m[3])
	g.SetElement(1, 2, m[5])
	return g
}

// ColorScale returns the premultiplied color scale for a tint at alpha.
func ColorScale(c grove.Color, alpha float64) ebiten.ColorScale {
	a := c.A * alpha
	var cs ebiten.ColorScale
	cs.Scale(float32(c.R*a), float32(c.G*a), float32(c.B*a), float32(a))
	return cs
}

// Blend returns the ebiten.Blend for a grove blend mode.
func Blend(b grove.BlendMode) ebiten.Blend {
	switch b {
	case grove.BlendNormal:
		return ebiten.BlendSourceOver
	case grove.BlendAdd:
		return ebiten.BlendLighter
	case grove.BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case grove.BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case grove.BlendErase:
		return ebiten.BlendDestinationOut
	case grove.BlendNone:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}
