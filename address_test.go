package grove

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	cases := []struct {
		in        string
		name      string
		dir       Direction
		hasAt     bool
		mask      string
		component string
		directed  bool
		local     bool
	}{
		{in: "ping", name: "ping", local: true},
		{in: "~ping", name: "ping", dir: DirectionUp},
		{in: "ping@", name: "ping", dir: DirectionDown, hasAt: true},
		{in: "ping@root/*/hud", name: "ping", hasAt: true, mask: "root/*/hud", directed: true},
		{in: "~ping@root/**", name: "ping", dir: DirectionUp, hasAt: true, mask: "root/**"},
		{in: "ping#Tween", name: "ping", component: "Tween", local: true},
		{in: "ping@#*", name: "ping", dir: DirectionDown, hasAt: true, component: "*"},
		{in: "ping@a/b#Follow", name: "ping", hasAt: true, mask: "a/b", component: "Follow", directed: true},
		{in: "~tween-complete", name: "tween-complete", dir: DirectionUp},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			a, err := ParseAddress(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.name, a.Name)
			assert.Equal(t, tc.dir, a.Direction)
			assert.Equal(t, tc.hasAt, a.HasAt)
			assert.Equal(t, tc.mask, a.PathMask)
			assert.Equal(t, tc.component, a.ComponentMask)
			assert.Equal(t, tc.directed, a.Directed())
			assert.Equal(t, tc.local, a.Local())
			assert.Equal(t, tc.in, a.String())
		})
	}
}

func TestParseAddressErrors(t *testing.T) {
	bad := []string{
		"",
		"~",
		"@root",
		"#Tween",
		"a~b",
		"~~ping",
		"ping@a@b",
		"ping#",
		"ping#A#B",
		"ping#Bad Type",
		"pi ng",
		"a/b",
		"ping@[",
	}
	for _, in := range bad {
		t.Run(in, func(t *testing.T) {
			_, err := ParseAddress(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMessageFormat), "err = %v", err)
			var fe *MessageFormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, in, fe.Address)
		})
	}
}

func TestParseAddressMaskErrorUnwraps(t *testing.T) {
	_, err := ParseAddress("ping@[")
	var fe *MessageFormatError
	require.True(t, errors.As(err, &fe))
	assert.NotNil(t, fe.Unwrap(), "glob compile error should be wrapped")
}

func TestMustParseAddress(t *testing.T) {
	assert.Equal(t, "ping", MustParseAddress("~ping").Name)
	assert.Panics(t, func() { MustParseAddress("") })
}

func TestMatchPathGlobs(t *testing.T) {
	cases := []struct {
		mask, path string
		want       bool
	}{
		{"a/*/c", "a/b/c", true},
		{"a/*/c", "a/b/x/c", false},
		{"a/**", "a/b/c/d", true},
		{"a/*", "a/b/c", false},
		{"a/*", "a/b", true},
		{"root/hud", "root/hud", true},
		{"root/h?d", "root/hud", true},
		{"root/{hud,menu}", "root/menu", true},
		{"root/[a-c]*", "root/bar", true},
		{"root/[a-c]*", "root/zed", false},
	}
	for _, tc := range cases {
		got, err := MatchPath(tc.mask, tc.path)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "MatchPath(%q, %q)", tc.mask, tc.path)
	}
	_, err := MatchPath("[", "x")
	assert.ErrorIs(t, err, ErrMessageFormat)
}

func TestAddressMaskDepth(t *testing.T) {
	assert.Equal(t, 3, MustParseAddress("p@root/*/c").maskDepth)
	assert.Equal(t, -1, MustParseAddress("p@root/**").maskDepth)
	assert.Equal(t, -1, MustParseAddress("p@root/{a,b/c}").maskDepth)
	assert.Equal(t, -1, MustParseAddress("p@").maskDepth)
}

func TestListenPatternRejectsPostOnlySyntax(t *testing.T) {
	n := NewNode("n")
	_, err := n.On("~ping", func(Message) {})
	assert.ErrorIs(t, err, ErrMessageFormat)
	_, err = n.On("ping#Tween", func(Message) {})
	assert.ErrorIs(t, err, ErrMessageFormat)
	_, err = n.On("", func(Message) {})
	assert.ErrorIs(t, err, ErrMessageFormat)
	assert.False(t, n.HasListeners("ping"))
}
