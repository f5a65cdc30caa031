package dom

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// TextContains matches nodes whose text content contains s.
func TextContains(s string) Predicate {
	return func(n Node) bool {
		return strings.Contains(n.Text(), s)
	}
}

// TextEquals matches nodes whose trimmed text content equals s.
func TextEquals(s string) Predicate {
	return func(n Node) bool {
		return strings.TrimSpace(n.Text()) == s
	}
}

// AttrContains matches nodes whose attribute contains s.
func AttrContains(name, s string) Predicate {
	return func(n Node) bool {
		v, ok := n.Attr(name)
		return ok && strings.Contains(v, s)
	}
}

// LabelContains matches on aria-label, falling back to data-tooltip,
// case-insensitively.
func LabelContains(s string) Predicate {
	s = strings.ToLower(s)
	return func(n Node) bool {
		return strings.Contains(strings.ToLower(AccessibleLabel(n)), s)
	}
}

// TextOrLabelContains matches on either text content or aria-label.
func TextOrLabelContains(s string) Predicate {
	return func(n Node) bool {
		return strings.Contains(n.Text(), s) || strings.Contains(AttrValue(n, "aria-label"), s)
	}
}

// Enabled matches nodes that are not disabled.
func Enabled(n Node) bool {
	return !n.Disabled()
}

// Any matches when one of the predicates does.
func Any(ps ...Predicate) Predicate {
	return func(n Node) bool {
		for _, p := range ps {
			if p(n) {
				return true
			}
		}
		return false
	}
}

// AccessibleLabel returns aria-label, or data-tooltip when there is no label.
func AccessibleLabel(n Node) string {
	if v := AttrValue(n, "aria-label"); v != "" {
		return v
	}
	return AttrValue(n, "data-tooltip")
}

// ControlLabel returns the text a user would read next to a checkbox-like
// control: its own text, its aria-label, its parent's text, then its next
// sibling's text, whichever is first non-empty.
func ControlLabel(n Node) string {
	if t := n.Text(); strings.TrimSpace(t) != "" {
		return t
	}
	if l := AttrValue(n, "aria-label"); l != "" {
		return l
	}
	if p := n.Parent(); p != nil {
		if t := p.Text(); strings.TrimSpace(t) != "" {
			return t
		}
	}
	if s := n.NextSibling(); s != nil {
		return s.Text()
	}
	return ""
}

// Keywords is a compiled keyword list. Each entry is a glob pattern matched
// anywhere in the label, so plain words behave as substrings.
type Keywords struct {
	raw      []string
	globs    []glob.Glob
	foldCase bool
}

// CompileKeywords compiles patterns. With foldCase both patterns and labels are
// lower-cased before matching.
func CompileKeywords(patterns []string, foldCase bool) (*Keywords, error) {
	k := &Keywords{raw: append([]string(nil), patterns...), foldCase: foldCase}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if foldCase {
			p = strings.ToLower(p)
		}
		g, err := glob.Compile("*" + p + "*")
		if err != nil {
			return nil, fmt.Errorf("invalid keyword pattern %q: %w", p, err)
		}
		k.globs = append(k.globs, g)
	}
	return k, nil
}

// MustKeywords is CompileKeywords for static tables.
func MustKeywords(patterns []string, foldCase bool) *Keywords {
	k, err := CompileKeywords(patterns, foldCase)
	if err != nil {
		panic(err)
	}
	return k
}

// Match reports whether any pattern matches label.
func (k *Keywords) Match(label string) bool {
	if k == nil {
		return false
	}
	if k.foldCase {
		label = strings.ToLower(label)
	}
	for _, g := range k.globs {
		if g.Match(label) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (k *Keywords) Patterns() []string {
	if k == nil {
		return nil
	}
	return append([]string(nil), k.raw...)
}

// LabelMatches matches controls whose ControlLabel matches k.
func LabelMatches(k *Keywords) Predicate {
	return func(n Node) bool {
		return k.Match(ControlLabel(n))
	}
}
