package channel

import "strings"

// Name identifies one event kind, as dot separated segments.
type Name string

// Pattern segments.
const (
	AnySegment  = "*"  // exactly one segment
	AnySegments = "**" // zero or more segments
)

const separator = "."

func (n Name) String() string { return string(n) }

// Segments splits the name on dots. The empty name has no segments.
func (n Name) Segments() []string {
	if n == "" {
		return nil
	}
	return strings.Split(string(n), separator)
}

// Namespace returns the first segment: "sync" for "sync.started".
func (n Name) Namespace() string {
	ns, _, _ := strings.Cut(string(n), separator)
	return ns
}

// IsPattern reports whether the name contains a wildcard segment.
func (n Name) IsPattern() bool {
	return strings.Contains(string(n), AnySegment)
}

// IsValid reports whether n can be published on: non-empty, no wildcard and
// no empty segment.
func (n Name) IsValid() bool {
	if n == "" || n.IsPattern() {
		return false
	}
	return !strings.HasPrefix(string(n), separator) &&
		!strings.HasSuffix(string(n), separator) &&
		!strings.Contains(string(n), separator+separator)
}

// Matches reports whether n matches pattern.
func (n Name) Matches(pattern Name) bool {
	if pattern == n {
		return true
	}
	segs, pat := n.Segments(), pattern.Segments()

	// reach[i] is true when the pattern consumed so far can end right
	// before segs[i].
	reach := make([]bool, len(segs)+1)
	reach[0] = true
	for _, p := range pat {
		next := make([]bool, len(segs)+1)
		for i, ok := range reach {
			if !ok {
				continue
			}
			switch {
			case p == AnySegments:
				for j := i; j <= len(segs); j++ {
					next[j] = true
				}
			case i < len(segs) && (p == AnySegment || p == segs[i]):
				next[i+1] = true
			}
		}
		reach = next
	}
	return reach[len(segs)]
}
