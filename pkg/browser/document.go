package browser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/autorecord/pkg/dom"
)

// Document adapts one Playwright frame. It represents the document that was
// loaded when it was created; a later navigation gets a new Document.
type Document struct {
	frame playwright.Frame
	url   string
	id    string

	mu        sync.Mutex
	observers map[int]func()
	nextID    int
}

var _ dom.Document = (*Document)(nil)

func newDocument(frame playwright.Frame) (*Document, error) {
	id, err := frame.Evaluate("() => window." + documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read document id: %w", err)
	}
	s, _ := id.(string)
	if s == "" {
		return nil, fmt.Errorf("init script not installed in %s", frame.URL())
	}
	return &Document{
		frame:     frame,
		url:       frame.URL(),
		id:        s,
		observers: make(map[int]func()),
	}, nil
}

// URL implements dom.Document.
func (d *Document) URL() string { return d.url }

// Origin implements dom.Document.
func (d *Document) Origin() string { return dom.OriginOf(d.url) }

// ID is the per-load identifier assigned by the init script.
func (d *Document) ID() string { return d.id }

// Frame returns the underlying frame.
func (d *Document) Frame() playwright.Frame { return d.frame }

// Root implements dom.Document. A document that went away returns a detached
// node whose reads are empty.
func (d *Document) Root() dom.Node {
	v, err := d.frame.Evaluate("() => window." + keyFunction + "(document.documentElement)")
	if err != nil {
		return &Node{doc: d}
	}
	k, _ := v.(string)
	return &Node{doc: d, key: k}
}

// Observe implements dom.Document.
func (d *Document) Observe(fn func()) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.observers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

func (d *Document) notify() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
