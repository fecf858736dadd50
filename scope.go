package main

// VarInfo describes a declared variable: its type and storage slot.
type VarInfo struct {
	Name string
	Type ValueType
	Slot int
	Line int // line of the declaration
}

// Scope maps names to the variables visible at some point of the program.
//
// Scopes are never chained. Entering a block copies the bindings visible
// outside of it (see MergeScopes), so declarations made inside the block
// cannot leak into the enclosing scope or its siblings.
type Scope struct {
	vars map[string]*VarInfo
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]*VarInfo)}
}

// DeriveScope returns a copy of outer's bindings. Declaring in the copy
// does not affect outer.
func DeriveScope(outer *Scope) *Scope {
	s := &Scope{vars: make(map[string]*VarInfo, len(outer.vars))}
	for name, v := range outer.vars {
		s.vars[name] = v
	}
	return s
}

// MergeScopes returns a new scope holding outer's bindings overlaid with
// inner's. Inner declarations shadow outer ones of the same name.
func MergeScopes(inner, outer *Scope) *Scope {
	merged := DeriveScope(outer)
	for name, v := range inner.vars {
		merged.vars[name] = v
	}
	return merged
}

// Declare adds v to this scope. It fails with VariableAlreadyDeclared if the
// name is already bound in this scope; bindings of enclosing blocks are not
// consulted.
func (s *Scope) Declare(v *VarInfo) error {
	if _, exists := s.vars[v.Name]; exists {
		return semanticErrorf(VariableAlreadyDeclared, v.Line, "variable '%s' already declared", v.Name)
	}
	s.vars[v.Name] = v
	return nil
}

// Lookup returns the variable bound to name in this scope.
func (s *Scope) Lookup(name string) (*VarInfo, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// lookupVariable resolves name the way the checker does: the current
// block's own declarations first, then everything visible outside it.
func lookupVariable(name string, inner, outer *Scope) (*VarInfo, bool) {
	if v, ok := inner.Lookup(name); ok {
		return v, true
	}
	return outer.Lookup(name)
}
