package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

// ValueType tells the framework whether lexical checks apply to a value.
type ValueType int

const (
	TextValue ValueType = iota
	StructuredValue
)

// Attribute identifies the attribute being verified.
type Attribute struct {
	Model    *spec.Model
	Node     *ttml.Node
	Name     ttml.QName
	Location ttml.Location
}

// ValueVerifier checks a single attribute value. Verifiers may emit their
// own diagnostics; a false return makes the framework report the value as
// invalid.
type ValueVerifier interface {
	Verify(ctx *Context, a Attribute, v ttml.Value) bool
}

// VerifierFunc adapts a function to ValueVerifier.
type VerifierFunc func(ctx *Context, a Attribute, v ttml.Value) bool

func (f VerifierFunc) Verify(ctx *Context, a Attribute, v ttml.Value) bool { return f(ctx, a, v) }

// Accessor reads and writes one attribute of a node.
type Accessor struct {
	Get func(n *ttml.Node) (ttml.Value, bool)
	Set func(n *ttml.Node, v ttml.Value)
}

// AttrAccessor returns the accessor for a plain node attribute.
func AttrAccessor(name ttml.QName) Accessor {
	return Accessor{
		Get: func(n *ttml.Node) (ttml.Value, bool) { return n.Attr(name) },
		Set: func(n *ttml.Node, v ttml.Value) { n.SetAttr(name, v) },
	}
}

// Descriptor describes one checkable attribute.
type Descriptor struct {
	Name     ttml.QName
	Type     ValueType
	Verifier ValueVerifier

	// Padding permits leading and trailing whitespace.
	Padding bool
	// Empty permits the empty string.
	Empty bool

	// Required lists the element kinds on which the attribute must appear.
	Required ttml.KindMask

	// Default is written to regions that do not specify the style. Only
	// style descriptors carry one.
	Default    string
	HasDefault bool

	// On lists the element kinds that may carry the attribute. Zero means
	// every kind.
	On ttml.KindMask

	// Style descriptors only.
	Applies   ttml.KindMask
	Inherited bool
	Initial   string

	Access Accessor
}

// Permitted reports whether the attribute may appear on kind k.
func (d *Descriptor) Permitted(k ttml.Kind) bool {
	return d.On == 0 || d.On.Has(k)
}

// Table is an ordered, immutable set of descriptors sharing a namespace.
type Table struct {
	name  string
	space string
	list  []*Descriptor
	index map[ttml.QName]*Descriptor
}

// Name returns the table name, used in log output.
func (t *Table) Name() string { return t.name }

// Namespace returns the namespace managed by the table, or "" when the table
// mixes namespaces and is not used for foreign attribute scans.
func (t *Table) Namespace() string { return t.space }

// Lookup returns the descriptor for name.
func (t *Table) Lookup(name ttml.QName) (*Descriptor, bool) {
	d, ok := t.index[name]
	return d, ok
}

// Descriptors returns the descriptors in table order.
func (t *Table) Descriptors() []*Descriptor { return t.list }

// Delta derives one table from another.
type Delta struct {
	Add     []Descriptor
	Replace []Descriptor
	Remove  []ttml.QName
}

// Apply returns a new table with d applied. Removals happen first, then
// replacements by name, then additions at the end. t is not modified.
func (t *Table) Apply(name string, d Delta) (*Table, error) {
	removed := make(map[ttml.QName]bool, len(d.Remove))
	for _, q := range d.Remove {
		if _, ok := t.index[q]; !ok {
			return nil, fmt.Errorf("%s: remove %s: not in %s", name, q, t.name)
		}
		removed[q] = true
	}
	replaced := make(map[ttml.QName]Descriptor, len(d.Replace))
	for _, r := range d.Replace {
		if _, ok := t.index[r.Name]; !ok || removed[r.Name] {
			return nil, fmt.Errorf("%s: replace %s: not in %s", name, r.Name, t.name)
		}
		replaced[r.Name] = r
	}

	b := NewBuilder(name, t.space)
	for _, old := range t.list {
		if removed[old.Name] {
			continue
		}
		if r, ok := replaced[old.Name]; ok {
			b.Add(r)
			continue
		}
		b.Add(*old)
	}
	b.Add(d.Add...)
	return b.Build()
}

// MustApply is like Apply but panics on error. It is intended for package
// level table construction.
func (t *Table) MustApply(name string, d Delta) *Table {
	nt, err := t.Apply(name, d)
	if err != nil {
		panic(err)
	}
	return nt
}

// Builder assembles a Table.
type Builder struct {
	name  string
	space string
	list  []Descriptor
}

// NewBuilder starts a table. space is the managed namespace or "".
func NewBuilder(name, space string) *Builder {
	return &Builder{name: name, space: space}
}

// Add appends descriptors.
func (b *Builder) Add(ds ...Descriptor) *Builder {
	b.list = append(b.list, ds...)
	return b
}

// Build validates the descriptors and returns the table.
func (b *Builder) Build() (*Table, error) {
	t := &Table{
		name:  b.name,
		space: b.space,
		index: make(map[ttml.QName]*Descriptor, len(b.list)),
	}
	var errs []error
	for i := range b.list {
		d := b.list[i]
		switch {
		case d.Name.Local == "":
			errs = append(errs, fmt.Errorf("%s: descriptor %d has no name", b.name, i))
			continue
		case d.Verifier == nil:
			errs = append(errs, fmt.Errorf("%s: %s has no value verifier", b.name, d.Name))
		case b.space != "" && d.Name.Space != b.space:
			errs = append(errs, fmt.Errorf("%s: %s is outside namespace %s", b.name, d.Name, b.space))
		}
		if _, dup := t.index[d.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate descriptor %s", b.name, d.Name))
			continue
		}
		if d.Access.Get == nil || d.Access.Set == nil {
			d.Access = AttrAccessor(d.Name)
		}
		t.list = append(t.list, &d)
		t.index[d.Name] = &d
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Table {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

// hooks customize VerifyAttributes for the engines layered on top of it.
type hooks struct {
	// skip excludes a descriptor from verification on this node.
	skip func(d *Descriptor) bool
}

// VerifyAttributes verifies every attribute of node described by table.
func VerifyAttributes(ctx *Context, node *ttml.Node, table *Table) bool {
	return verifyAttributes(ctx, node, table, hooks{})
}

func verifyAttributes(ctx *Context, node *ttml.Node, table *Table, h hooks) bool {
	ok := true
	for _, d := range table.list {
		if !d.Permitted(node.Kind) {
			continue
		}
		if h.skip != nil && h.skip(d) {
			continue
		}
		v, present := d.Access.Get(node)
		if !present {
			if d.Required.Has(node.Kind) {
				ok = ctx.fail(node.Location, report.MissingAttribute, d.Name, node.Name) && ok
			}
			continue
		}
		a := Attribute{Model: ctx.Model, Node: node, Name: d.Name, Location: node.Location}
		if !verifyValue(ctx, a, d, v) {
			ok = false
		}
	}
	return ok
}

// verifyValue applies the lexical checks and the value verifier.
func verifyValue(ctx *Context, a Attribute, d *Descriptor, v ttml.Value) bool {
	if _, text := v.(ttml.Text); text && d.Type == TextValue {
		s := v.String()
		switch {
		case s == "":
			if !d.Empty {
				return ctx.fail(a.Location, report.EmptyValue, a.Name)
			}
		case strings.TrimSpace(s) == "":
			return ctx.fail(a.Location, report.AllSpaceValue, a.Name)
		case !d.Padding && strings.TrimSpace(s) != s:
			return ctx.fail(a.Location, report.PaddedValue, a.Name, s)
		}
	}
	if d.Verifier.Verify(ctx, a, v) {
		return true
	}
	return ctx.fail(a.Location, report.InvalidValue, a.Name, canonicalString(v))
}

// canonicalString is the form of v quoted in diagnostics.
func canonicalString(v ttml.Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// VerifyForeignAttributes reports attributes in the table's namespace that
// are unknown or not permitted on node.
func VerifyForeignAttributes(ctx *Context, node *ttml.Node, table *Table) bool {
	if table.space == "" {
		return true
	}
	ok := true
	for _, a := range node.AttrsIn(table.space) {
		d, known := table.index[a.Name]
		switch {
		case !known:
			ok = ctx.fail(node.Location, report.UnknownAttribute, a.Name) && ok
		case !d.Permitted(node.Kind):
			ok = ctx.fail(node.Location, report.AttributeNotAllowed, a.Name, node.Name) && ok
		}
	}
	return ok
}
