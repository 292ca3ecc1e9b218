package grove

import (
	"errors"
	"strings"
	"testing"
)

func itemNames(items []RenderItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Node.Name
	}
	return out
}

func TestCollectPreOrder(t *testing.T) {
	tree := NewTree(Config{})
	a := NewRect("a", 1, 1, ColorWhite)
	a1 := NewRect("a1", 1, 1, ColorWhite)
	b := NewRect("b", 1, 1, ColorWhite)
	_ = tree.Root().AddChild(a)
	_ = a.AddChild(a1)
	_ = tree.Root().AddChild(b)

	got := itemNames(tree.Collect(nil))
	if !equalStrings(got, []string{"a", "a1", "b"}) {
		t.Errorf("order = %v", got)
	}
}

func TestCollectZIndex(t *testing.T) {
	tree := NewTree(Config{})
	a := NewRect("a", 1, 1, ColorWhite)
	b := NewRect("b", 1, 1, ColorWhite)
	c := NewRect("c", 1, 1, ColorWhite)
	for _, n := range []*Node{a, b, c} {
		_ = tree.Root().AddChild(n)
	}
	a.SetZIndex(2)
	c.SetZIndex(-1)

	got := itemNames(tree.Collect(nil))
	if !equalStrings(got, []string{"c", "b", "a"}) {
		t.Errorf("order = %v", got)
	}
	// Traversal order for updates and messages is unchanged.
	if !equalStrings(names(tree.Root().Children()), []string{"a", "b", "c"}) {
		t.Error("ZIndex must not reorder children")
	}
}

func TestCollectZIndexStable(t *testing.T) {
	tree := NewTree(Config{})
	var want []string
	for _, name := range []string{"p", "q", "r", "s"} {
		n := NewRect(name, 1, 1, ColorWhite)
		n.SetZIndex(1)
		_ = tree.Root().AddChild(n)
		want = append(want, name)
	}
	if got := itemNames(tree.Collect(nil)); !equalStrings(got, want) {
		t.Errorf("equal z should keep child order: %v", got)
	}
}

func TestCollectSkipsInvisibleSubtree(t *testing.T) {
	tree := NewTree(Config{})
	a := NewRect("a", 1, 1, ColorWhite)
	a1 := NewRect("a1", 1, 1, ColorWhite)
	_ = tree.Root().AddChild(a)
	_ = a.AddChild(a1)
	a.SetVisible(false)
	if items := tree.Collect(nil); len(items) != 0 {
		t.Errorf("items = %v", itemNames(items))
	}
}

func TestCollectAlphaAndWorld(t *testing.T) {
	tree := NewTree(Config{})
	a := NewNode("a")
	a.SetAlpha(0.5)
	a.SetPosition(10, 20)
	b := NewRect("b", 4, 4, ColorWhite)
	b.SetAlpha(0.5)
	b.SetPosition(1, 1)
	b.SetBlendMode(BlendAdd)
	_ = tree.Root().AddChild(a)
	_ = a.AddChild(b)

	items := tree.Collect(nil)
	if len(items) != 1 {
		t.Fatalf("items = %v", itemNames(items))
	}
	it := items[0]
	assertNear(t, "alpha", it.Alpha, 0.25)
	assertMatrix(t, "world", it.World, Translation(11, 21))
	if it.Kind != ContentRect || it.BlendMode != BlendAdd {
		t.Errorf("item = %+v", it)
	}
}

func TestCollectDirtyRender(t *testing.T) {
	tree := NewTree(Config{})
	a := NewRect("a", 1, 1, ColorWhite)
	_ = tree.Root().AddChild(a)

	if items := tree.Collect(nil); !items[0].Dirty {
		t.Error("first collection should be dirty")
	}
	if items := tree.Collect(nil); items[0].Dirty {
		t.Error("unchanged node should be clean")
	}
	a.SetAlpha(0.9)
	if items := tree.Collect(nil); !items[0].Dirty {
		t.Error("alpha change should mark the item dirty")
	}
	tree.Root().SetPosition(1, 0)
	if items := tree.Collect(nil); !items[0].Dirty {
		t.Error("ancestor move should mark the item dirty")
	}
}

func TestCollectSubtree(t *testing.T) {
	tree := NewTree(Config{})
	a := NewNode("a")
	a.SetAlpha(0.5)
	b := NewRect("b", 1, 1, ColorWhite)
	_ = tree.Root().AddChild(a)
	_ = a.AddChild(b)
	items := Collect(b, nil)
	if len(items) != 1 {
		t.Fatalf("items = %v", itemNames(items))
	}
	assertNear(t, "inherited alpha", items[0].Alpha, 0.5)
}

func TestCollectSubtreeThenAncestorChange(t *testing.T) {
	tree := NewTree(Config{})
	x := NewNode("x")
	d := NewRect("d", 1, 1, ColorWhite)
	_ = tree.Root().AddChild(x)
	_ = x.AddChild(d)

	// Only d's render bit is consumed; its ancestors stay dirty.
	Collect(d, nil)
	tree.Root().SetAlpha(0.5)
	items := tree.Collect(nil)
	if len(items) != 1 || !items[0].Dirty {
		t.Fatalf("d should be dirty after an ancestor alpha change: %+v", items)
	}
	assertNear(t, "alpha", items[0].Alpha, 0.5)
}

func TestCollectAfterLocalRenderChange(t *testing.T) {
	tree := NewTree(Config{})
	x := NewNode("x")
	d := NewRect("d", 1, 1, ColorWhite)
	_ = tree.Root().AddChild(x)
	_ = x.AddChild(d)
	tree.Collect(nil)

	// x carries RENDER without its subtree; the ancestor change must still
	// reach d.
	x.SetBlendMode(BlendAdd)
	tree.Root().SetAlpha(0.25)
	items := tree.Collect(nil)
	if len(items) != 1 || !items[0].Dirty {
		t.Fatalf("d should be dirty after an ancestor alpha change: %+v", items)
	}
	assertNear(t, "alpha", items[0].Alpha, 0.25)

	if items := tree.Collect(nil); items[0].Dirty {
		t.Error("unchanged tree should collect clean")
	}
}

type recordingDriver struct {
	drawn []string
	fail  string
}

func (d *recordingDriver) DrawItem(item *RenderItem) error {
	if item.Node.Name == d.fail {
		return errors.New("backend down")
	}
	d.drawn = append(d.drawn, item.Node.Name)
	return nil
}

func TestRender(t *testing.T) {
	tree := NewTree(Config{Debug: true})
	_ = tree.Root().AddChild(NewRect("a", 1, 1, ColorWhite))
	_ = tree.Root().AddChild(NewRect("b", 1, 1, ColorWhite))

	d := &recordingDriver{}
	if err := tree.Render(d); err != nil {
		t.Fatal(err)
	}
	if !equalStrings(d.drawn, []string{"a", "b"}) {
		t.Errorf("drawn = %v", d.drawn)
	}
}

func TestRenderError(t *testing.T) {
	tree := NewTree(Config{})
	_ = tree.Root().AddChild(NewRect("a", 1, 1, ColorWhite))
	_ = tree.Root().AddChild(NewRect("b", 1, 1, ColorWhite))

	err := tree.Render(&recordingDriver{fail: "a"})
	if err == nil || !strings.Contains(err.Error(), "root/a") {
		t.Fatalf("err = %v, want it to name root/a", err)
	}
}

func TestKindDriver(t *testing.T) {
	tree := NewTree(Config{})
	_ = tree.Root().AddChild(NewRect("r", 1, 1, ColorWhite))
	_ = tree.Root().AddChild(NewSprite("img", ImageContent{Width: 2, Height: 2}))

	var rects, images int
	d := KindDriver{
		ContentRect: func(*RenderItem) error { rects++; return nil },
	}
	if err := tree.Render(d); err != nil {
		t.Fatal(err)
	}
	d[ContentImage] = func(*RenderItem) error { images++; return nil }
	if err := tree.Render(d); err != nil {
		t.Fatal(err)
	}
	if rects != 2 || images != 1 {
		t.Errorf("rects = %d, images = %d", rects, images)
	}
}

func TestColorRGBA(t *testing.T) {
	r, g, b, a := Color{R: 1, G: 0.5, B: 0, A: 0.5}.RGBA()
	if a != 0x7fff || r != 0x7fff || b != 0 {
		t.Errorf("RGBA = %x %x %x %x", r, g, b, a)
	}
	if _, _, _, a := (Color{A: 2}).RGBA(); a != 0xffff {
		t.Errorf("alpha should clamp, got %x", a)
	}
}
