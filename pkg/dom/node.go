package dom

// Node is a single element of a Document.
//
// Read accessors never fail: an element that was detached by the page between
// lookup and read reports empty values, the same way a stale DOM reference
// would in the page itself.
type Node interface {
	// Key identifies the element within its document. Two lookups of the same
	// element return the same key.
	Key() string

	// Tag returns the lower-case element name.
	Tag() string

	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool)

	// Text returns the element's text content, including descendants.
	Text() string

	// Disabled reports the disabled property or aria-disabled="true".
	Disabled() bool

	// Checked reports aria-checked="true" or the checked property.
	Checked() bool

	// Parent returns the parent element, or nil at the root.
	Parent() Node

	// NextSibling returns the next element sibling, or nil.
	NextSibling() Node

	// Find returns descendants matching a CSS selector in document order.
	Find(selector string) ([]Node, error)

	// Closest returns the nearest ancestor-or-self matching selector, or nil.
	Closest(selector string) (Node, error)

	// Click dispatches a synthetic activation on the element.
	Click() error
}

// Document is one independently loaded document: a page or a frame.
type Document interface {
	// URL is the document location.
	URL() string

	// Origin is scheme://host[:port] of URL.
	Origin() string

	// Root returns the element queries start from (usually <html>).
	Root() Node

	// Observe registers fn to be called after each batch of DOM mutations.
	// The returned function stops delivery.
	Observe(fn func()) (stop func())
}

// AttrValue returns the attribute value or the empty string.
func AttrValue(n Node, name string) string {
	v, _ := n.Attr(name)
	return v
}

// HasAttr reports whether the attribute is present.
func HasAttr(n Node, name string) bool {
	_, ok := n.Attr(name)
	return ok
}
