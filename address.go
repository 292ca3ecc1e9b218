package grove

import (
	"strings"

	"github.com/gobwas/glob"
)

// Address is a parsed message address:
//
//	[~]<name>[@[<pathMask>]][#<componentMask>]
//
// A leading "~" bubbles toward the root. "@" with no mask sends top-down from
// the root; "@mask" targets the nodes whose path matches the glob mask ("*" is
// one path segment, "**" any number of segments). "#Type" restricts delivery
// to listeners owned by a component of that type, "#*" to any component.
type Address struct {
	Raw           string
	Name          string
	Direction     Direction
	HasAt         bool
	PathMask      string
	ComponentMask string

	mask      glob.Glob
	maskDepth int // segment count of the mask, or -1 when it can span any depth
}

// ParseAddress parses s. Malformed input yields a *MessageFormatError.
func ParseAddress(s string) (Address, error) {
	a := Address{Raw: s, maskDepth: -1}
	fail := func(reason string, err error) (Address, error) {
		return Address{}, &MessageFormatError{Address: s, Reason: reason, Err: err}
	}
	if s == "" {
		return fail("empty address", nil)
	}

	rest := s
	if rest[0] == '~' {
		a.Direction = DirectionUp
		rest = rest[1:]
	}
	if strings.IndexByte(rest, '~') >= 0 {
		return fail("'~' is only allowed as the first character", nil)
	}

	switch strings.Count(rest, "#") {
	case 0:
	case 1:
		i := strings.IndexByte(rest, '#')
		a.ComponentMask = rest[i+1:]
		rest = rest[:i]
		if a.ComponentMask == "" {
			return fail("empty component mask", nil)
		}
		if !validComponentMask(a.ComponentMask) {
			return fail("component mask must be a type name or '*'", nil)
		}
	default:
		return fail("unbalanced '#'", nil)
	}

	switch strings.Count(rest, "@") {
	case 0:
	case 1:
		i := strings.IndexByte(rest, '@')
		a.HasAt = true
		a.PathMask = rest[i+1:]
		rest = rest[:i]
	default:
		return fail("more than one '@'", nil)
	}

	a.Name = rest
	if a.Name == "" {
		return fail("empty message name", nil)
	}
	if strings.ContainsAny(a.Name, " \t\r\n/") {
		return fail("message name contains whitespace or '/'", nil)
	}

	if a.PathMask != "" {
		g, err := glob.Compile(a.PathMask, '/')
		if err != nil {
			return fail("invalid path mask", err)
		}
		a.mask = g
		if !strings.Contains(a.PathMask, "**") && !strings.ContainsAny(a.PathMask, "{}") {
			a.maskDepth = strings.Count(a.PathMask, "/") + 1
		}
	}

	if a.Direction != DirectionUp && a.HasAt && a.PathMask == "" {
		a.Direction = DirectionDown
	}
	return a, nil
}

// MustParseAddress is ParseAddress for addresses known at compile time.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Directed reports whether the address targets nodes by path mask.
func (a Address) Directed() bool {
	return a.Direction == DirectionNone && a.mask != nil
}

// Local reports whether the address only reaches the sender's own listeners.
func (a Address) Local() bool {
	return a.Direction == DirectionNone && !a.HasAt
}

// MatchPath reports whether path satisfies the address's path mask. An
// address without a mask matches every path.
func (a Address) MatchPath(path string) bool {
	if a.mask == nil {
		return true
	}
	return a.mask.Match(path)
}

// String returns the address as it was written.
func (a Address) String() string {
	return a.Raw
}

// MatchPath compiles mask with "/" as the segment separator and reports
// whether path matches it.
func MatchPath(mask, path string) (bool, error) {
	g, err := glob.Compile(mask, '/')
	if err != nil {
		return false, &MessageFormatError{Address: mask, Reason: "invalid path mask", Err: err}
	}
	return g.Match(path), nil
}

// parseListenPattern parses a registration pattern: "name" for a local
// listener, "name@" or "name@mask" for an overheard one.
func parseListenPattern(s string) (Address, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return a, err
	}
	if a.Direction == DirectionUp {
		return Address{}, &MessageFormatError{Address: s, Reason: "'~' is not allowed when registering"}
	}
	if a.ComponentMask != "" {
		return Address{}, &MessageFormatError{Address: s, Reason: "'#' is not allowed when registering"}
	}
	return a, nil
}

func validComponentMask(s string) bool {
	if s == "*" {
		return true
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

// matchComponentMask reports whether a listener owned by c passes mask.
func matchComponentMask(mask string, c Component) bool {
	if mask == "" {
		return true
	}
	if c == nil {
		return false
	}
	return mask == "*" || c.ComponentType().Name() == mask
}
