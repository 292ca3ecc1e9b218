// Package canvas is a software grove driver that paints render items onto a
// github.com/gogpu/gg context, for headless rendering, PNG snapshots and
// tests.
package canvas

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"
	"github.com/phanxgames/grove"
)

// Driver paints grove render items onto a gg.Context.
//
// Rect content is filled with its color; image content must carry an
// *gg.ImageBuf or an image.Image handle (converted on every draw). BlendMultiply and BlendScreen
// composite through a gg layer; the other modes draw as BlendNormal.
type Driver struct {
	dc *gg.Context

	// View is applied in front of every item's world matrix, for example
	// the inverse of a camera node's world matrix.
	View grove.Matrix
}

// New creates a driver with a width x height canvas.
func New(width, height int) *Driver {
	return &Driver{
		dc:   gg.NewContext(width, height),
		View: grove.Identity,
	}
}

// Context returns the underlying gg context.
func (d *Driver) Context() *gg.Context {
	return d.dc
}

// Image returns the canvas pixels.
func (d *Driver) Image() image.Image {
	return d.dc.Image()
}

// Clear fills the canvas with c.
func (d *Driver) Clear(c grove.Color) {
	d.dc.ClearWithColor(gg.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
}

// DrawItem implements grove.Driver.
func (d *Driver) DrawItem(item *grove.RenderItem) error {
	if item.Alpha <= 0 {
		return nil
	}
	layered := false
	switch item.BlendMode {
	case grove.BlendMultiply:
		d.dc.PushLayer(gg.BlendMultiply, 1)
		layered = true
	case grove.BlendScreen:
		d.dc.PushLayer(gg.BlendScreen, 1)
		layered = true
	}

	d.dc.Push()
	d.dc.SetTransform(Matrix(d.View.Append(item.World)))
	err := d.draw(item)
	d.dc.Pop()

	if layered {
		d.dc.PopLayer()
	}
	return err
}

func (d *Driver) draw(item *grove.RenderItem) error {
	switch c := item.Content.(type) {
	case grove.RectContent:
		d.dc.SetRGBA(c.Color.R, c.Color.G, c.Color.B, c.Color.A*item.Alpha)
		d.dc.DrawRectangle(0, 0, c.Width, c.Height)
		return d.dc.Fill()
	case grove.ImageContent:
		buf, err := d.imageBuf(c.Handle)
		if err != nil {
			return err
		}
		d.dc.DrawImageEx(buf, gg.DrawImageOptions{
			DstWidth:  c.Width,
			DstHeight: c.Height,
			Opacity:   item.Alpha,
			BlendMode: gg.BlendNormal,
		})
		return nil
	default:
		return fmt.Errorf("canvas: unsupported content %T", item.Content)
	}
}

func (d *Driver) imageBuf(handle any) (*gg.ImageBuf, error) {
	switch h := handle.(type) {
	case *gg.ImageBuf:
		return h, nil
	case image.Image:
		return gg.ImageBufFromImage(h), nil
	default:
		return nil, fmt.Errorf("canvas: unsupported image handle %T", handle)
	}
}

// SavePNG writes the canvas to a PNG file.
func (d *Driver) SavePNG(path string) error {
	if err := d.dc.SavePNG(path); err != nil {
		return fmt.Errorf("canvas: save %s: %w", path, err)
	}
	return nil
}

// EncodePNG writes the canvas as PNG to w.
func (d *Driver) EncodePNG(w io.Writer) error {
	return d.dc.EncodePNG(w)
}

// Close releases the canvas.
func (d *Driver) Close() error {
	return d.dc.Close()
}

// Matrix converts a grove matrix to gg's row-major layout.
func Matrix(m grove.Matrix) gg.Matrix {
	return gg.Matrix{
		A: m[0], B: m[2], C: m[4],
		D: m[1], E: m[3], F: m[5],
	}
}
