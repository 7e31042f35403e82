package ttml

import (
	"fmt"
	"strings"
)

// Namespace URIs used by timed text documents.
const (
	NSTT        = "http://www.w3.org/ns/ttml"
	NSParameter = "http://www.w3.org/ns/ttml#parameter"
	NSStyling   = "http://www.w3.org/ns/ttml#styling"
	NSMetadata  = "http://www.w3.org/ns/ttml#metadata"
	NSAudio     = "http://www.w3.org/ns/ttml#audio"
	NSXML       = "http://www.w3.org/XML/1998/namespace"
)

var prefixes = map[string]string{
	NSTT:        "tt",
	NSParameter: "ttp",
	NSStyling:   "tts",
	NSMetadata:  "ttm",
	NSAudio:     "tta",
	NSXML:       "xml",
}

// QName is a namespace qualified element or attribute name.
type QName struct {
	Space string
	Local string
}

// Name returns a QName in the given namespace.
func Name(space, local string) QName { return QName{Space: space, Local: local} }

// Local returns an unqualified QName.
func Local(local string) QName { return QName{Local: local} }

// String renders the name with its conventional prefix, e.g. "tts:extent".
// Names in unrecognized namespaces use Clark notation.
func (q QName) String() string {
	if q.Space == "" {
		return q.Local
	}
	if p, ok := prefixes[q.Space]; ok {
		return p + ":" + q.Local
	}
	return "{" + q.Space + "}" + q.Local
}

// Location identifies a position in a source document.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	switch {
	case l.File == "" && l.Line == 0:
		return ""
	case l.File == "":
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	case l.Line == 0:
		return l.File
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Value is an attribute value. Parsers produce Text; bindings that already
// decoded a value may store a structured form instead.
type Value interface {
	String() string
	isValue()
}

// Text is a lexical attribute value.
type Text string

func (t Text) String() string { return string(t) }
func (Text) isValue()         {}

// Int is an attribute value that was decoded as an integer by the binding.
type Int int

func (i Int) String() string { return fmt.Sprintf("%d", int(i)) }
func (Int) isValue()         {}

// Attr is a single attribute on a node.
type Attr struct {
	Name  QName
	Value Value
}

// Content is one child of an element: either character data or an element.
type Content struct {
	text string
	elem *Node
}

// TextContent wraps character data.
func TextContent(s string) Content { return Content{text: s} }

// ElementContent wraps a child element.
func ElementContent(n *Node) Content { return Content{elem: n} }

// Element returns the wrapped element, if any.
func (c Content) Element() (*Node, bool) { return c.elem, c.elem != nil }

// Text returns the wrapped character data, if any.
func (c Content) Text() (string, bool) { return c.text, c.elem == nil }

// Node is one element of a bound document.
type Node struct {
	Kind     Kind
	Name     QName
	Parent   *Node
	Children []Content
	Location Location

	// Raw is the identity of the parser record this node was bound from.
	// It must be comparable.
	Raw any

	attrs []Attr
}

// NewElement creates a detached element. Its kind is derived from name.
func NewElement(name QName) *Node {
	return &Node{Kind: KindOf(name), Name: name}
}

// Elem is shorthand for NewElement in the core namespace of the given kind.
func Elem(k Kind) *Node {
	return &Node{Kind: k, Name: k.QName()}
}

// Append adds child elements and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, ElementContent(c))
	}
	return n
}

// AppendText adds character data and returns n.
func (n *Node) AppendText(s string) *Node {
	n.Children = append(n.Children, TextContent(s))
	return n
}

// With sets a textual attribute and returns n.
func (n *Node) With(name QName, value string) *Node {
	n.SetAttr(name, Text(value))
	return n
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name QName) (Value, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Text returns the lexical form of the named attribute.
func (n *Node) Text(name QName) (string, bool) {
	v, ok := n.Attr(name)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(name QName) bool {
	_, ok := n.Attr(name)
	return ok
}

// SetAttr sets or replaces an attribute, preserving document order.
func (n *Node) SetAttr(name QName, v Value) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = v
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: v})
}

// Attrs returns the attributes in document order. The slice must not be modified.
func (n *Node) Attrs() []Attr { return n.attrs }

// AttrsIn returns the attributes in the given namespace.
func (n *Node) AttrsIn(space string) []Attr {
	var out []Attr
	for _, a := range n.attrs {
		if a.Name.Space == space {
			out = append(out, a)
		}
	}
	return out
}

// ID returns the xml:id of the node, or "".
func (n *Node) ID() string {
	id, _ := n.Text(XMLID)
	return id
}

// Elements returns the element children.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if e, ok := c.Element(); ok {
			out = append(out, e)
		}
	}
	return out
}

// ElementsOf returns the element children of kind k.
func (n *Node) ElementsOf(k Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if e, ok := c.Element(); ok && e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// TextContent concatenates the character data children of n.
func (n *Node) TextContent() string {
	var b strings.Builder
	for _, c := range n.Children {
		if s, ok := c.Text(); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

// Ancestor returns the nearest ancestor of kind k.
func (n *Node) Ancestor(k Kind) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == k {
			return p
		}
	}
	return nil
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	r := n
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// Walk calls fn for n and every descendant element in document order.
// Returning false from fn skips the subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		if e, ok := c.Element(); ok {
			e.Walk(fn)
		}
	}
}

func (n *Node) String() string {
	if loc := n.Location.String(); loc != "" {
		return "<" + n.Name.String() + "> at " + loc
	}
	return "<" + n.Name.String() + ">"
}
