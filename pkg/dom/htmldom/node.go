package htmldom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/entrhq/autorecord/pkg/dom"
)

// Node is an element of an in-memory Document.
type Node struct {
	doc *Document
	n   *html.Node
}

var _ dom.Node = (*Node)(nil)

// Key implements dom.Node.
func (n *Node) Key() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.doc.keyLocked(n.n)
}

// Tag implements dom.Node.
func (n *Node) Tag() string {
	if n.n.Type != html.ElementNode {
		return ""
	}
	return n.n.Data
}

// Attr implements dom.Node.
func (n *Node) Attr(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return getAttr(n.n, name)
}

// Text implements dom.Node.
func (n *Node) Text() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return goquery.NewDocumentFromNode(n.n).Text()
}

// Disabled implements dom.Node.
func (n *Node) Disabled() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return disabled(n.n)
}

// Checked implements dom.Node.
func (n *Node) Checked() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if v, ok := getAttr(n.n, "aria-checked"); ok && v == "true" {
		return true
	}
	_, ok := getAttr(n.n, "checked")
	return ok
}

// Parent implements dom.Node.
func (n *Node) Parent() dom.Node {
	n.doc.mu.Lock()
	p := n.n.Parent
	n.doc.mu.Unlock()
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return n.doc.wrap(p)
}

// NextSibling implements dom.Node.
func (n *Node) NextSibling() dom.Node {
	n.doc.mu.Lock()
	s := n.n.NextSibling
	for s != nil && s.Type != html.ElementNode {
		s = s.NextSibling
	}
	n.doc.mu.Unlock()
	if s == nil {
		return nil
	}
	return n.doc.wrap(s)
}

// Find implements dom.Node.
func (n *Node) Find(selector string) ([]dom.Node, error) {
	n.doc.mu.Lock()
	found, err := n.doc.findLocked(n.n, selector)
	n.doc.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]dom.Node, 0, len(found))
	for _, f := range found {
		out = append(out, n.doc.wrap(f))
	}
	return out, nil
}

// Closest implements dom.Node.
func (n *Node) Closest(selector string) (dom.Node, error) {
	n.doc.mu.Lock()
	m, err := n.doc.matcherLocked(selector)
	if err != nil {
		n.doc.mu.Unlock()
		return nil, err
	}
	var hit *html.Node
	for p := n.n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && m.Match(p) {
			hit = p
			break
		}
	}
	n.doc.mu.Unlock()
	if hit == nil {
		return nil, nil
	}
	return n.doc.wrap(hit), nil
}

// Click implements dom.Node. Checkbox-like controls toggle their checked
// state, then registered click handlers run in registration order.
func (n *Node) Click() error {
	d := n.doc
	d.mu.Lock()
	if !d.attachedLocked(n.n) {
		d.mu.Unlock()
		return ErrDetached
	}
	if disabled(n.n) {
		d.mu.Unlock()
		return fmt.Errorf("click %s: %w", describe(n.n), ErrDisabled)
	}
	d.clicks = append(d.clicks, describe(n.n))
	toggled := toggle(n.n)

	var fns []ClickFunc
	for _, h := range d.handlers {
		if h.match.Match(n.n) {
			fns = append(fns, h.fn)
		}
	}
	d.mu.Unlock()

	if toggled {
		d.notify()
	}
	for _, fn := range fns {
		fn(d, n)
	}
	return nil
}

// String describes the node the way the click log does.
func (n *Node) String() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return describe(n.n)
}

func disabled(n *html.Node) bool {
	if _, ok := getAttr(n, "disabled"); ok {
		return true
	}
	v, _ := getAttr(n, "aria-disabled")
	return v == "true"
}

func toggle(n *html.Node) bool {
	if v, ok := getAttr(n, "role"); ok && v == "checkbox" {
		if cur, _ := getAttr(n, "aria-checked"); cur == "true" {
			setAttr(n, "aria-checked", "false")
		} else {
			setAttr(n, "aria-checked", "true")
		}
		return true
	}
	if n.Data == "input" {
		if t, _ := getAttr(n, "type"); t == "checkbox" {
			if _, on := getAttr(n, "checked"); on {
				removeAttr(n, "checked")
			} else {
				setAttr(n, "checked", "")
			}
			return true
		}
	}
	return false
}

// describe renders a node as tag plus its aria-label or trimmed text, for
// example `button "Save"`.
func describe(n *html.Node) string {
	label, ok := getAttr(n, "aria-label")
	if !ok || label == "" {
		label = strings.Join(strings.Fields(goquery.NewDocumentFromNode(n).Text()), " ")
	}
	if len(label) > 40 {
		label = label[:40]
	}
	return fmt.Sprintf("%s %q", n.Data, label)
}
