package scenefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/phanxgames/grove"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
config:
  root_name: stage
  fixed_step: 0.5
width: 320
height: 200
background: [0, 0, 0]
children:
  - name: cam
    follow: {target: stage/world/hero, x: 5}
  - name: world
    alpha: 0.5
    children:
      - name: hero
        tag: player
        x: 40
        y: 10
        scale: [2]
        z: 3
        blend: Add
        rect: {width: 16, height: 8, color: [1, 0, 0, 1]}
        tween: {property: position, to: [80, 10], duration: 1, ease: linear, done: ~arrived}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 320, f.Width)
	assert.Equal(t, 200, f.Height)
	assert.Equal(t, "stage", f.Config.RootName)
	assert.Equal(t, grove.Color{A: 1}, f.BackgroundColor())
	require.Len(t, f.Children, 2)
	assert.Equal(t, "hero", f.Children[1].Children[0].Name)
}

func TestParseDefaults(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, f.Width)
	assert.Equal(t, DefaultHeight, f.Height)
	assert.Equal(t, grove.Color{}, f.BackgroundColor())
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "widht: 10\n",
		"unknown node key": "children:\n  - name: a\n    colour: red\n",
		"bad background":   "background: [1, 2]\n",
		"not yaml":         "children: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	tree, err := f.Build()
	require.NoError(t, err)
	defer tree.Dispose()

	assert.Equal(t, 0.5, tree.Config().FixedStep)
	hero := tree.Find("stage/world/hero")
	require.NotNil(t, hero)
	assert.Equal(t, "player", hero.Tag)
	sx, sy := hero.Scale()
	assert.Equal(t, 2.0, sx)
	assert.Equal(t, 2.0, sy)
	assert.Equal(t, 3, hero.ZIndex())
	assert.Equal(t, grove.BlendAdd, hero.BlendMode())
	assert.Equal(t, grove.RectContent{Width: 16, Height: 8, Color: grove.Color{R: 1, A: 1}}, hero.Content())
	assert.NotNil(t, hero.GetComponent(grove.TweenType))

	cam := tree.Find("cam")
	require.NotNil(t, cam)
	f0, ok := cam.GetComponent(grove.FollowType).(*grove.Follow)
	require.True(t, ok)
	assert.Same(t, hero, f0.Target)
	assert.InDelta(t, 0.5, tree.Find("world").Alpha(), 1e-9)
}

func TestBuildRunsTween(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	tree, err := f.Build()
	require.NoError(t, err)
	defer tree.Dispose()

	arrived := 0
	_, err = tree.Root().On("arrived", func(grove.Message) { arrived++ })
	require.NoError(t, err)

	tree.Tick(0.5)
	tree.Tick(0.5)
	hero := tree.Find("world/hero")
	assert.InDelta(t, 80, hero.X(), 1e-9)
	assert.Equal(t, 1, arrived)

	// cam follows hero's world origin plus its offset; world sits at the origin.
	cam := tree.Find("cam")
	assert.InDelta(t, 85, cam.X(), 1e-9)
}

func TestBuildErrors(t *testing.T) {
	tests := map[string]string{
		"missing name":     "children:\n  - x: 1\n",
		"follow target":    "children:\n  - name: a\n    follow: {target: root/ghost}\n",
		"unknown blend":    "children:\n  - name: a\n    blend: overlay\n",
		"unknown ease":     "children:\n  - name: a\n    tween: {property: alpha, to: [0], duration: 1, ease: wobble}\n",
		"unknown property": "children:\n  - name: a\n    tween: {property: skew, to: [0], duration: 1}\n",
		"rotation arity":   "children:\n  - name: a\n    tween: {property: rotation, to: [1, 2], duration: 1}\n",
		"position arity":   "children:\n  - name: a\n    tween: {property: position, to: [1, 2, 3], duration: 1}\n",
		"scale arity":      "children:\n  - name: a\n    scale: []\n    pivot: [1, 2, 3]\n",
		"rect color":       "children:\n  - name: a\n    rect: {width: 1, height: 1, color: [1]}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			f, err := Parse([]byte(doc))
			require.NoError(t, err)
			_, err = f.Build()
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 320, f.Width)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("widht: 1\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, bad)
}
