// Package scenefile loads YAML scene descriptions into a grove tree. It is
// the input format of the grove command.
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phanxgames/grove"
	"github.com/tanema/gween/ease"
	"gopkg.in/yaml.v3"
)

// File is a scene document.
//
//	config:
//	  fixed_step: 0.0166
//	width: 320
//	height: 240
//	background: [0, 0, 0, 1]
//	children:
//	  - name: hero
//	    x: 40
//	    y: 40
//	    rect: {width: 16, height: 16, color: [1, 0.5, 0, 1]}
//	    tween: {property: position, to: [200, 40], duration: 2, ease: outQuad}
type File struct {
	Config     grove.Config `yaml:"config"`
	Width      int          `yaml:"width"`
	Height     int          `yaml:"height"`
	Background []float64    `yaml:"background"`
	Children   []Node       `yaml:"children"`
}

// Node describes one node and its subtree.
type Node struct {
	Name     string    `yaml:"name"`
	Tag      string    `yaml:"tag"`
	X        float64   `yaml:"x"`
	Y        float64   `yaml:"y"`
	Rotation float64   `yaml:"rotation"`
	Scale    []float64 `yaml:"scale"`
	Pivot    []float64 `yaml:"pivot"`
	Alpha    *float64  `yaml:"alpha"`
	Hidden   bool      `yaml:"hidden"`
	Z        int       `yaml:"z"`
	Blend    string    `yaml:"blend"`
	Rect     *Rect     `yaml:"rect"`
	Tween    *Tween    `yaml:"tween"`
	Follow   *Follow   `yaml:"follow"`
	Children []Node    `yaml:"children"`
}

// Rect is solid rectangle content.
type Rect struct {
	Width  float64   `yaml:"width"`
	Height float64   `yaml:"height"`
	Color  []float64 `yaml:"color"`
}

// Tween attaches a grove.Tween to the node.
type Tween struct {
	Property string    `yaml:"property"` // position, scale, rotation or alpha
	To       []float64 `yaml:"to"`
	Duration float32   `yaml:"duration"`
	Ease     string    `yaml:"ease"`
	Done     string    `yaml:"done"`
}

// Follow attaches a grove.Follow to the node.
type Follow struct {
	Target string  `yaml:"target"` // path from the root
	Lerp   float64 `yaml:"lerp"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
}

// Defaults used when the document leaves them out.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Load reads a scene file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenefile %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a scene document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if f.Width <= 0 {
		f.Width = DefaultWidth
	}
	if f.Height <= 0 {
		f.Height = DefaultHeight
	}
	if _, err := color(f.Background, grove.Color{}); err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	return &f, nil
}

// BackgroundColor returns the background, transparent when unset.
func (f *File) BackgroundColor() grove.Color {
	c, _ := color(f.Background, grove.Color{})
	return c
}

// Build creates a tree from the document. Follow targets are resolved after
// every node exists, so a node may follow one declared later.
func (f *File) Build() (*grove.Tree, error) {
	tree := grove.NewTree(f.Config)
	var follows []pendingFollow
	for i := range f.Children {
		if err := build(tree.Root(), &f.Children[i], &follows); err != nil {
			tree.Dispose()
			return nil, err
		}
	}
	for _, pf := range follows {
		target := tree.Find(pf.desc.Target)
		if target == nil {
			tree.Dispose()
			return nil, fmt.Errorf("node %s: follow target %q not found", pf.node.Path(), pf.desc.Target)
		}
		pf.node.AddComponent(grove.NewFollow(target, pf.desc.X, pf.desc.Y, lerpOr(pf.desc.Lerp)))
	}
	return tree, nil
}

type pendingFollow struct {
	node *grove.Node
	desc *Follow
}

func build(parent *grove.Node, desc *Node, follows *[]pendingFollow) error {
	if desc.Name == "" {
		return fmt.Errorf("under %s: node without a name", parent.Path())
	}
	n := grove.NewNode(desc.Name)
	n.Tag = desc.Tag
	n.SetPosition(desc.X, desc.Y)
	n.SetRotation(desc.Rotation)
	if len(desc.Scale) > 0 {
		sx, sy, err := pair(desc.Scale)
		if err != nil {
			return fmt.Errorf("node %s: scale: %w", desc.Name, err)
		}
		n.SetScale(sx, sy)
	}
	if len(desc.Pivot) > 0 {
		px, py, err := pair(desc.Pivot)
		if err != nil {
			return fmt.Errorf("node %s: pivot: %w", desc.Name, err)
		}
		n.SetPivot(px, py)
	}
	if desc.Alpha != nil {
		n.SetAlpha(*desc.Alpha)
	}
	n.SetVisible(!desc.Hidden)
	n.SetZIndex(desc.Z)
	if desc.Blend != "" {
		b, ok := blendModes[strings.ToLower(desc.Blend)]
		if !ok {
			return fmt.Errorf("node %s: unknown blend %q", desc.Name, desc.Blend)
		}
		n.SetBlendMode(b)
	}
	if desc.Rect != nil {
		c, err := color(desc.Rect.Color, grove.ColorWhite)
		if err != nil {
			return fmt.Errorf("node %s: rect color: %w", desc.Name, err)
		}
		n.SetContent(grove.RectContent{Width: desc.Rect.Width, Height: desc.Rect.Height, Color: c})
	}
	if err := parent.AddChild(n); err != nil {
		return err
	}
	if desc.Tween != nil {
		tw, err := tween(n, desc.Tween)
		if err != nil {
			return fmt.Errorf("node %s: tween: %w", desc.Name, err)
		}
		n.AddComponent(tw)
	}
	if desc.Follow != nil {
		*follows = append(*follows, pendingFollow{node: n, desc: desc.Follow})
	}
	for i := range desc.Children {
		if err := build(n, &desc.Children[i], follows); err != nil {
			return err
		}
	}
	return nil
}

func tween(n *grove.Node, desc *Tween) (*grove.Tween, error) {
	fn := ease.Linear
	if desc.Ease != "" {
		f, ok := easings[strings.ToLower(desc.Ease)]
		if !ok {
			return nil, fmt.Errorf("unknown ease %q", desc.Ease)
		}
		fn = f
	}
	var tw *grove.Tween
	switch strings.ToLower(desc.Property) {
	case "position":
		x, y, err := pair(desc.To)
		if err != nil {
			return nil, err
		}
		tw = grove.TweenPosition(n, x, y, desc.Duration, fn)
	case "scale":
		x, y, err := pair(desc.To)
		if err != nil {
			return nil, err
		}
		tw = grove.TweenScale(n, x, y, desc.Duration, fn)
	case "rotation":
		if len(desc.To) != 1 {
			return nil, fmt.Errorf("rotation wants 1 value, got %d", len(desc.To))
		}
		tw = grove.TweenRotation(n, desc.To[0], desc.Duration, fn)
	case "alpha":
		if len(desc.To) != 1 {
			return nil, fmt.Errorf("alpha wants 1 value, got %d", len(desc.To))
		}
		tw = grove.TweenAlpha(n, desc.To[0], desc.Duration, fn)
	default:
		return nil, fmt.Errorf("unknown property %q", desc.Property)
	}
	if desc.Done != "" {
		tw.Done = desc.Done
	}
	return tw, nil
}

func lerpOr(l float64) float64 {
	if l <= 0 {
		return 1
	}
	return l
}

func pair(v []float64) (float64, float64, error) {
	switch len(v) {
	case 1:
		return v[0], v[0], nil
	case 2:
		return v[0], v[1], nil
	default:
		return 0, 0, fmt.Errorf("want 1 or 2 values, got %d", len(v))
	}
}

func color(v []float64, def grove.Color) (grove.Color, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return grove.Color{R: v[0], G: v[1], B: v[2], A: 1}, nil
	case 4:
		return grove.Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
	default:
		return grove.Color{}, fmt.Errorf("want 3 or 4 components, got %d", len(v))
	}
}

var blendModes = map[string]grove.BlendMode{
	"normal":   grove.BlendNormal,
	"add":      grove.BlendAdd,
	"multiply": grove.BlendMultiply,
	"screen":   grove.BlendScreen,
	"erase":    grove.BlendErase,
	"none":     grove.BlendNone,
}

var easings = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inquad":     ease.InQuad,
	"outquad":    ease.OutQuad,
	"inoutquad":  ease.InOutQuad,
	"incubic":    ease.InCubic,
	"outcubic":   ease.OutCubic,
	"insine":     ease.InSine,
	"outsine":    ease.OutSine,
	"inoutsine":  ease.InOutSine,
	"outback":    ease.OutBack,
	"outbounce":  ease.OutBounce,
	"outelastic": ease.OutElastic,
}
