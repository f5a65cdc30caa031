package dom

import (
	"fmt"
	"strings"
)

// Predicate decides whether a candidate node is the one being looked for.
type Predicate func(Node) bool

// Query locates a node under a root. Queries are pure: evaluating one never
// changes the document.
type Query interface {
	// First returns the first match under root, or nil when nothing matches.
	First(root Node) (Node, error)

	// All returns every match under root.
	All(root Node) ([]Node, error)

	// String describes the query for diagnostics.
	String() string
}

// Selector is a CSS selector narrowed by optional predicates.
type Selector struct {
	CSS   string
	Where []Predicate
	Desc  string
}

// Select creates a query for a CSS selector.
func Select(css string) *Selector {
	return &Selector{CSS: css}
}

// Matching adds a predicate every result must satisfy.
func (s *Selector) Matching(p Predicate) *Selector {
	out := *s
	out.Where = append(append([]Predicate(nil), s.Where...), p)
	return &out
}

// Describe sets the description used in diagnostics.
func (s *Selector) Describe(desc string) *Selector {
	out := *s
	out.Desc = desc
	return &out
}

func (s *Selector) matches(n Node) bool {
	for _, p := range s.Where {
		if !p(n) {
			return false
		}
	}
	return true
}

// First implements Query.
func (s *Selector) First(root Node) (Node, error) {
	nodes, err := root.Find(s.CSS)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s, err)
	}
	for _, n := range nodes {
		if s.matches(n) {
			return n, nil
		}
	}
	return nil, nil
}

// All implements Query.
func (s *Selector) All(root Node) ([]Node, error) {
	nodes, err := root.Find(s.CSS)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s, err)
	}
	out := nodes[:0:0]
	for _, n := range nodes {
		if s.matches(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// String implements Query.
func (s *Selector) String() string {
	if s.Desc != "" {
		return s.Desc
	}
	return s.CSS
}

type firstOf struct {
	queries []Query
	desc    string
}

// FirstOf tries each query in order and returns the first that matches.
func FirstOf(desc string, queries ...Query) Query {
	return &firstOf{queries: queries, desc: desc}
}

func (f *firstOf) First(root Node) (Node, error) {
	var firstErr error
	for _, q := range f.queries {
		n, err := q.First(root)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if n != nil {
			return n, nil
		}
	}
	return nil, firstErr
}

func (f *firstOf) All(root Node) ([]Node, error) {
	seen := make(map[string]bool)
	var out []Node
	for _, q := range f.queries {
		nodes, err := q.All(root)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if !seen[n.Key()] {
				seen[n.Key()] = true
				out = append(out, n)
			}
		}
	}
	return out, nil
}

func (f *firstOf) String() string {
	if f.desc != "" {
		return f.desc
	}
	parts := make([]string, 0, len(f.queries))
	for _, q := range f.queries {
		parts = append(parts, q.String())
	}
	return strings.Join(parts, " | ")
}

// Exists reports whether q matches anything under root. Query errors count as
// no match.
func Exists(root Node, q Query) bool {
	n, err := q.First(root)
	return err == nil && n != nil
}
