package browser

import (
	"fmt"

	"github.com/entrhq/autorecord/pkg/dom"
)

// nodeCall wraps a function of (element, arg) so it runs against the element a
// key resolves to. It yields null when the element is gone.
const nodeCall = `([k, a]) => { const el = window.` + nodeFunction + `(k); return el ? (%s)(el, a) : null; }`

// Node addresses an element by its page-side key. No element handle is held,
// so nothing has to be released when a node is dropped. Reads on a node whose
// element is gone return zero values.
type Node struct {
	doc *Document
	key string
}

var _ dom.Node = (*Node)(nil)

func (n *Node) call(fn string, arg any) (any, error) {
	if n.key == "" {
		return nil, nil
	}
	return n.doc.frame.Evaluate(fmt.Sprintf(nodeCall, fn), []any{n.key, arg})
}

func (n *Node) eval(fn string, arg any) any {
	v, err := n.call(fn, arg)
	if err != nil {
		return nil
	}
	return v
}

func (n *Node) evalString(fn string, arg any) string {
	s, _ := n.eval(fn, arg).(string)
	return s
}

func (n *Node) evalBool(fn string, arg any) bool {
	b, _ := n.eval(fn, arg).(bool)
	return b
}

// evalNode runs fn, which returns an element or null, and wraps the key of
// the result.
func (n *Node) evalNode(fn string, arg any) *Node {
	k := n.evalString(`(el, a) => window.`+keyFunction+`((`+fn+`)(el, a))`, arg)
	if k == "" {
		return nil
	}
	return &Node{doc: n.doc, key: k}
}

// Key implements dom.Node.
func (n *Node) Key() string { return n.key }

// Tag implements dom.Node.
func (n *Node) Tag() string {
	return n.evalString("el => el.tagName.toLowerCase()", nil)
}

// Attr implements dom.Node.
func (n *Node) Attr(name string) (string, bool) {
	s, ok := n.eval("(el, name) => el.getAttribute(name)", name).(string)
	return s, ok
}

// Text implements dom.Node.
func (n *Node) Text() string {
	return n.evalString("el => el.textContent || ''", nil)
}

// Disabled implements dom.Node.
func (n *Node) Disabled() bool {
	return n.evalBool("el => el.disabled === true || el.getAttribute('aria-disabled') === 'true'", nil)
}

// Checked implements dom.Node.
func (n *Node) Checked() bool {
	return n.evalBool("el => el.getAttribute('aria-checked') === 'true' || el.checked === true", nil)
}

// Parent implements dom.Node.
func (n *Node) Parent() dom.Node {
	if p := n.evalNode("el => el.parentElement", nil); p != nil {
		return p
	}
	return nil
}

// NextSibling implements dom.Node.
func (n *Node) NextSibling() dom.Node {
	if s := n.evalNode("el => el.nextElementSibling", nil); s != nil {
		return s
	}
	return nil
}

// Find implements dom.Node. Matching happens in the page and only keys come
// back.
func (n *Node) Find(selector string) ([]dom.Node, error) {
	v, err := n.call("(el, sel) => Array.from(el.querySelectorAll(sel), window."+keyFunction+")", selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	keys, _ := v.([]any)
	return n.wrapKeys(keys), nil
}

func (n *Node) wrapKeys(keys []any) []dom.Node {
	out := make([]dom.Node, 0, len(keys))
	for _, k := range keys {
		if s, ok := k.(string); ok && s != "" {
			out = append(out, &Node{doc: n.doc, key: s})
		}
	}
	return out
}

// Closest implements dom.Node.
func (n *Node) Closest(selector string) (dom.Node, error) {
	if c := n.evalNode("(el, sel) => el.closest(sel)", selector); c != nil {
		return c, nil
	}
	return nil, nil
}

// Click implements dom.Node. It dispatches a programmatic click, which does
// not require the element to be visible or stable.
func (n *Node) Click() error {
	v, err := n.call("el => { el.click(); return true; }", nil)
	if err != nil {
		return fmt.Errorf("click: %w", err)
	}
	if ok, _ := v.(bool); !ok {
		return fmt.Errorf("click: element detached")
	}
	return nil
}

// String describes the node for logs.
func (n *Node) String() string {
	if n.key == "" {
		return "<detached>"
	}
	return "<" + n.Tag() + " " + n.key + ">"
}
