package interpreter

// Context is a scoped name→string mapping with an optional parent link
// (SPEC_FULL.md §3 / spec.md §3 ExecutionContext). Every DSL value is a
// string; type coercion happens only at operator and built-in call sites.
//
// One fresh root Context is created per request (Interpreter.Handle); a
// child Context is created when dispatching to a local or global error
// handler, binding only the handler's error variable and falling back to
// the parent chain for everything else.
type Context struct {
	vars   map[string]string
	parent *Context
}

// NewContext returns a fresh root context with no parent.
func NewContext() *Context {
	return &Context{vars: make(map[string]string)}
}

// child returns a new context whose lookups fall back to c.
func (c *Context) child() *Context {
	return &Context{vars: make(map[string]string), parent: c}
}

// withErrorVar returns a child context binding name to value, used to enter
// an onError/global_error_handler body.
func (c *Context) withErrorVar(name, value string) *Context {
	ch := c.child()
	ch.vars[name] = value
	return ch
}

// Lookup walks the parent chain, returning the nearest binding of name.
func (c *Context) Lookup(name string) (string, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Set binds name to value in this context (not the parent chain): a
// VarDeclaration always binds into the context it executes in, and a
// CompoundAssign mutates the context that already holds the binding.
func (c *Context) Set(name, value string) {
	c.vars[name] = value
}

// setInOwningContext walks the parent chain to find the context that
// already binds name and updates it there, returning false if name is
// unbound anywhere in the chain. Compound-assignment targets must already
// be declared (spec.md §4.7).
func (c *Context) setInOwningContext(name, value string) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = value
			return true
		}
	}
	return false
}
