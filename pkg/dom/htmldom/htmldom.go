// Package htmldom is an in-memory dom.Document backed by golang.org/x/net/html
// and goquery.
//
// Pages are loaded from HTML snapshots. Clicks can be scripted with OnClick so a
// fixture reacts like the live UI would (a panel opening, a dialog appearing),
// and every click is recorded so callers can assert the exact sequence the
// automation performed.
package htmldom

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/entrhq/autorecord/pkg/dom"
)

var (
	// ErrDetached is returned when clicking a node no longer in the document.
	ErrDetached = errors.New("node is detached from the document")

	// ErrDisabled is returned when clicking a disabled control.
	ErrDisabled = errors.New("node is disabled")
)

// ClickFunc reacts to a click on a matching node.
type ClickFunc func(doc *Document, n *Node)

type clickHandler struct {
	match cascadia.Selector
	fn    ClickFunc
}

// Document is a mutable in-memory document.
type Document struct {
	mu        sync.Mutex
	url       string
	origin    string
	root      *html.Node
	ids       map[*html.Node]int
	nextID    int
	observers map[int]func()
	nextObs   int
	handlers  []clickHandler
	clicks    []string
	matchers  map[string]cascadia.Selector
}

// Parse reads an HTML document loaded from url.
func Parse(url string, r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{
		url:       url,
		origin:    dom.OriginOf(url),
		root:      root,
		ids:       make(map[*html.Node]int),
		observers: make(map[int]func()),
		matchers:  make(map[string]cascadia.Selector),
	}, nil
}

// MustParse parses src and panics on error. Intended for fixtures.
func MustParse(url, src string) *Document {
	d, err := Parse(url, strings.NewReader(src))
	if err != nil {
		panic(err)
	}
	return d
}

// URL implements dom.Document.
func (d *Document) URL() string { return d.url }

// Origin implements dom.Document.
func (d *Document) Origin() string { return d.origin }

// Root implements dom.Document.
func (d *Document) Root() dom.Node {
	return d.wrap(d.root)
}

// Observe implements dom.Document.
func (d *Document) Observe(fn func()) func() {
	d.mu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

// OnClick registers fn to run after any node matching css is clicked.
func (d *Document) OnClick(css string, fn ClickFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, err := d.matcherLocked(css)
	if err != nil {
		return err
	}
	d.handlers = append(d.handlers, clickHandler{match: m, fn: fn})
	return nil
}

// Clicks returns a description of every click so far, in order.
func (d *Document) Clicks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.clicks...)
}

// Query returns all nodes matching css.
func (d *Document) Query(css string) ([]*Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	found, err := d.findLocked(d.root, css)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(found))
	for _, n := range found {
		out = append(out, d.wrap(n))
	}
	return out, nil
}

// Append parses fragment and appends it to every node matching parentCSS.
func (d *Document) Append(parentCSS, fragment string) error {
	d.mu.Lock()
	parents, err := d.findLocked(d.root, parentCSS)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if len(parents) == 0 {
		d.mu.Unlock()
		return fmt.Errorf("no element matches %q", parentCSS)
	}
	for _, p := range parents {
		children, err := html.ParseFragment(strings.NewReader(fragment), p)
		if err != nil {
			d.mu.Unlock()
			return fmt.Errorf("failed to parse fragment: %w", err)
		}
		for _, c := range children {
			p.AppendChild(c)
		}
	}
	d.mu.Unlock()
	d.notify()
	return nil
}

// Remove detaches every node matching css and returns how many were removed.
func (d *Document) Remove(css string) (int, error) {
	d.mu.Lock()
	found, err := d.findLocked(d.root, css)
	if err != nil {
		d.mu.Unlock()
		return 0, err
	}
	for _, n := range found {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	d.mu.Unlock()
	if len(found) > 0 {
		d.notify()
	}
	return len(found), nil
}

// SetAttr sets an attribute on every node matching css.
func (d *Document) SetAttr(css, name, value string) error {
	d.mu.Lock()
	found, err := d.findLocked(d.root, css)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	for _, n := range found {
		setAttr(n, name, value)
	}
	d.mu.Unlock()
	d.notify()
	return nil
}

// SetText replaces the children of every node matching css with text.
func (d *Document) SetText(css, text string) error {
	d.mu.Lock()
	found, err := d.findLocked(d.root, css)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	for _, n := range found {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	d.mu.Unlock()
	d.notify()
	return nil
}

// HTML renders the current document.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	_ = html.Render(&b, d.root)
	return b.String()
}

func (d *Document) notify() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.observers))
	for i := 0; i < d.nextObs; i++ {
		if fn, ok := d.observers[i]; ok {
			fns = append(fns, fn)
		}
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (d *Document) matcherLocked(css string) (cascadia.Selector, error) {
	if m, ok := d.matchers[css]; ok {
		return m, nil
	}
	m, err := cascadia.Compile(css)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", css, err)
	}
	d.matchers[css] = m
	return m, nil
}

func (d *Document) findLocked(from *html.Node, css string) ([]*html.Node, error) {
	m, err := d.matcherLocked(css)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(from).FindMatcher(m).Nodes, nil
}

func (d *Document) keyLocked(n *html.Node) string {
	id, ok := d.ids[n]
	if !ok {
		d.nextID++
		id = d.nextID
		d.ids[n] = id
	}
	return fmt.Sprintf("n%d", id)
}

func (d *Document) attachedLocked(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

func (d *Document) wrap(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{doc: d, n: n}
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}
