// Package interp provides scope management for the JDL evaluator.
package interp

// Scope is a lexical environment: a name-to-value mapping with an optional
// parent. Scopes form a tree; lookups walk strictly upward. Values other
// than functions are copied on read, so callers never alias stored state.
type Scope struct {
	vars   map[string]any
	parent *Scope
}

// NewScope creates a scope with an optional parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		vars:   make(map[string]any),
		parent: parent,
	}
}

// Parent returns the parent scope, or nil for the root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Size returns the number of bindings in this scope, excluding ancestors.
func (s *Scope) Size() int {
	return len(s.vars)
}

// Set binds a value to a name in this scope only. Ancestor bindings of the
// same name are shadowed, never mutated.
func (s *Scope) Set(name string, value any) {
	s.vars[name] = value
}

// Get returns the value bound to name, searching this scope then ancestors.
// Functions are returned shared; every other value is returned as an
// independent deep copy. A name bound nowhere in the chain is a NameError.
func (s *Scope) Get(name string) (any, error) {
	if value, ok := s.vars[name]; ok {
		if fn, isFn := value.(*Func); isFn {
			return fn, nil
		}
		return deepCopy(value), nil
	}
	if s.parent != nil {
		return s.parent.Get(name)
	}
	return nil, errf(ErrName, "name '%s' is not defined", name)
}

// Export looks up each name (in this scope or any ancestor) and writes it
// into the parent scope. Exporting from the root scope is a ScopeError.
func (s *Scope) Export(names ...string) error {
	if s.parent == nil {
		return errf(ErrScope, "cannot export from the global scope")
	}
	for _, name := range names {
		value, err := s.Get(name)
		if err != nil {
			return err
		}
		s.parent.Set(name, value)
	}
	return nil
}

// HasCallable reports whether name is bound to a function anywhere in the
// scope chain.
func (s *Scope) HasCallable(name string) bool {
	value, err := s.Get(name)
	if err != nil {
		return false
	}
	_, ok := value.(*Func)
	return ok
}
