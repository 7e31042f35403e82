package validate

import (
	"github.com/rs/zerolog"

	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

// Reporter receives diagnostics. LogWarning reports whether the warning was
// escalated to an error, in which case the check that produced it fails.
type Reporter interface {
	LogInfo(loc ttml.Location, key string, args ...any) bool
	LogWarning(loc ttml.Location, key string, args ...any) bool
	LogError(loc ttml.Location, key string, args ...any) bool
	IsWarningEnabled(name string) bool
}

// Keys of the session store.
const (
	storeInitialOverrides = "initial.overrides"
	storeRegionDefaults   = "region.defaults"
)

// Context is the state of one verification run. It must not be shared
// between concurrent runs.
type Context struct {
	Model    *spec.Model
	Reporter Reporter
	Params   *Parameters
	Log      zerolog.Logger

	// Resources validates external resources by kind. Missing kinds are
	// not checked.
	Resources map[spec.ResourceKind]ResourceValidator

	store map[string]any
	ids   map[string]*ttml.Node
	dups  map[*ttml.Node]*ttml.Node
}

// NewContext starts a verification session.
func NewContext(model *spec.Model, rep Reporter) *Context {
	return &Context{
		Model:    model,
		Reporter: rep,
		Params:   DefaultParameters(),
		Log:      zerolog.Nop(),
		store:    make(map[string]any),
	}
}

// Set stores session state under key.
func (c *Context) Set(key string, v any) { c.store[key] = v }

// Get returns session state stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.store[key]
	return v, ok
}

// Element returns the element declaring id, if indexed.
func (c *Context) Element(id string) (*ttml.Node, bool) {
	n, ok := c.ids[id]
	return n, ok
}

// indexIDs records the first declaration of every identifier under root.
// Later declarations of the same identifier are remembered so that they can
// be reported when the walk reaches them.
func (c *Context) indexIDs(root *ttml.Node) {
	c.ids = make(map[string]*ttml.Node)
	c.dups = make(map[*ttml.Node]*ttml.Node)
	attrs := c.Model.IDAttributes()
	root.Walk(func(n *ttml.Node) bool {
		if n.Kind == ttml.KindForeign {
			return false
		}
		for _, q := range attrs {
			id, ok := n.Text(q)
			if !ok || id == "" {
				continue
			}
			if first, seen := c.ids[id]; seen {
				c.dups[n] = first
				continue
			}
			c.ids[id] = n
		}
		return true
	})
}

func (c *Context) fail(loc ttml.Location, key string, args ...any) bool {
	c.Reporter.LogError(loc, key, args...)
	return false
}

func (c *Context) info(loc ttml.Location, key string, args ...any) {
	c.Reporter.LogInfo(loc, key, args...)
}

// warn emits an optional warning and reports whether the check still passes.
func (c *Context) warn(name string, loc ttml.Location, key string, args ...any) bool {
	if !c.Reporter.IsWarningEnabled(name) {
		return true
	}
	return !c.Reporter.LogWarning(loc, key, args...)
}

// warnAlways emits a warning that is not subject to enablement.
func (c *Context) warnAlways(loc ttml.Location, key string, args ...any) bool {
	return !c.Reporter.LogWarning(loc, key, args...)
}
