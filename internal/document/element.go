package document

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is an element node of a document tree. The zero value is not a
// valid element.
type Element struct {
	node *html.Node
}

// NewElement creates a detached element.
func NewElement(tag string) Element {
	return Element{node: &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}}
}

// Valid reports whether e refers to a node.
func (e Element) Valid() bool {
	return e.node != nil
}

// Tag returns the lower-case tag name.
func (e Element) Tag() string {
	return e.node.Data
}

// Is reports whether e has the given tag.
func (e Element) Is(tag string) bool {
	return e.node != nil && e.node.Type == html.ElementNode && e.node.Data == tag
}

// Attr returns the value of key and whether it is present.
func (e Element) Attr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrValue returns the value of key, or "" when absent.
func (e Element) AttrValue(key string) string {
	v, _ := e.Attr(key)
	return v
}

// Has reports whether key is present.
func (e Element) Has(key string) bool {
	_, ok := e.Attr(key)
	return ok
}

// Set assigns key, keeping its position when already present.
func (e Element) Set(key, val string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

// SetDefault assigns key only when it is absent.
func (e Element) SetDefault(key, val string) {
	if !e.Has(key) {
		e.Set(key, val)
	}
}

// Remove deletes every occurrence of key.
func (e Element) Remove(key string) {
	attrs := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	e.node.Attr = attrs
}

// CopyAttrs copies e's attributes onto dst, skipping the listed keys.
func (e Element) CopyAttrs(dst Element, skip ...string) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && slices.Contains(skip, a.Key) {
			continue
		}
		dst.node.Attr = append(dst.node.Attr, a)
	}
}

// Descendants returns the elements below e with the given tag in document order.
func (e Element) Descendants(tag string) []Element {
	var found []Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				found = append(found, Element{node: c})
			}
			walk(c)
		}
	}
	walk(e.node)
	return found
}

// First returns the first descendant with the given tag.
func (e Element) First(tag string) (Element, bool) {
	found := e.Descendants(tag)
	if len(found) == 0 {
		return Element{}, false
	}
	return found[0], true
}

// Ancestor returns the nearest enclosing element with the given tag.
func (e Element) Ancestor(tag string) (Element, bool) {
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return Element{node: p}, true
		}
	}
	return Element{}, false
}

// Append adds child as the last child of e.
func (e Element) Append(child Element) {
	e.node.AppendChild(child.node)
}

// Prepend adds child as the first child of e.
func (e Element) Prepend(child Element) {
	e.node.InsertBefore(child.node, e.node.FirstChild)
}

// After places sibling directly after e in e's parent.
func (e Element) After(sibling Element) {
	e.node.Parent.InsertBefore(sibling.node, e.node.NextSibling)
}

// ReplaceWith puts repl where e is and detaches e.
func (e Element) ReplaceWith(repl Element) {
	parent := e.node.Parent
	parent.InsertBefore(repl.node, e.node)
	parent.RemoveChild(e.node)
}

// Detach removes e from its parent.
func (e Element) Detach() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

// String renders e and its subtree.
func (e Element) String() string {
	var buf strings.Builder
	if err := html.Render(&buf, e.node); err != nil {
		return ""
	}
	return buf.String()
}
