package volstore

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Separator is the only path separator understood by the remote service.
const Separator = "/"

// RelativePath is a normalized path inside a volume: a non-empty sequence of
// non-empty segments. The zero value denotes the volume root.
type RelativePath struct {
	segments []string
}

// ParsePath normalizes s into a RelativePath.
//
// A single leading and a single trailing separator are dropped. Every
// remaining segment must be non-empty, must not be "." or "..", and must not
// contain backslashes, control characters or invalid UTF-8. A path that
// normalizes to zero segments is rejected.
func ParsePath(s string) (RelativePath, error) {
	if !utf8.ValidString(s) {
		return RelativePath{}, &PathError{Path: s, Reason: "not valid UTF-8"}
	}

	trimmed := strings.TrimPrefix(s, Separator)
	trimmed = strings.TrimSuffix(trimmed, Separator)
	if trimmed == "" {
		return RelativePath{}, &PathError{Path: s, Reason: "no path segments"}
	}

	segments := strings.Split(trimmed, Separator)
	for _, seg := range segments {
		if reason := checkSegment(seg); reason != "" {
			return RelativePath{}, &PathError{Path: s, Reason: reason}
		}
	}

	return RelativePath{segments: segments}, nil
}

// ParseOptionalPath is like ParsePath but maps "" and "/" to the volume root.
func ParseOptionalPath(s string) (RelativePath, error) {
	if s == "" || s == Separator {
		return RelativePath{}, nil
	}
	return ParsePath(s)
}

// MustParsePath is like ParsePath but panics on error. Intended for tests and constants.
func MustParsePath(s string) RelativePath {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func checkSegment(seg string) string {
	switch seg {
	case "":
		return "empty segment"
	case ".", "..":
		return "relative segment " + seg
	}
	if strings.Contains(seg, `\`) {
		return "backslash in segment"
	}
	for _, r := range seg {
		if r < 0x20 || r == 0x7f || (unicode.IsSpace(r) && r != ' ') {
			return "control character in segment"
		}
	}
	return ""
}

// IsRoot reports whether p denotes the volume root.
func (p RelativePath) IsRoot() bool {
	return len(p.segments) == 0
}

// Len returns the number of segments.
func (p RelativePath) Len() int {
	return len(p.segments)
}

// Segments returns a copy of the path segments.
func (p RelativePath) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// String returns the slash-joined path, or "" for the root.
func (p RelativePath) String() string {
	return strings.Join(p.segments, Separator)
}

// Leaf returns the last segment, or "" for the root.
func (p RelativePath) Leaf() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the path without its last segment. ok is false when p has
// fewer than two segments, i.e. when p sits directly under the root.
func (p RelativePath) Parent() (parent RelativePath, ok bool) {
	if len(p.segments) < 2 {
		return RelativePath{}, false
	}
	return RelativePath{segments: p.segments[:len(p.segments)-1 : len(p.segments)-1]}, true
}

// Join appends the segments of child to p.
func (p RelativePath) Join(child RelativePath) RelativePath {
	segments := make([]string, 0, len(p.segments)+len(child.segments))
	segments = append(segments, p.segments...)
	segments = append(segments, child.segments...)
	return RelativePath{segments: segments}
}

// Equal reports whether both paths have the same segments.
func (p RelativePath) Equal(other RelativePath) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// DirectoryPlan is the ordered list of cumulative prefixes that must be
// created to materialize a directory, shallowest first.
type DirectoryPlan []RelativePath

// DirectoryPlan returns the cumulative prefixes of p: for a/b/c it returns
// a, a/b, a/b/c. The root has an empty plan.
func (p RelativePath) DirectoryPlan() DirectoryPlan {
	plan := make(DirectoryPlan, 0, len(p.segments))
	for i := 1; i <= len(p.segments); i++ {
		plan = append(plan, RelativePath{segments: p.segments[:i:i]})
	}
	return plan
}

// Strings returns the plan as slash-joined paths.
func (d DirectoryPlan) Strings() []string {
	out := make([]string, len(d))
	for i, p := range d {
		out[i] = p.String()
	}
	return out
}
