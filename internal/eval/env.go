package eval

import (
	"slices"

	"mimble/internal/value"
)

// Env is one lexical scope. Lookups walk outwards through parents.
type Env struct {
	vars   map[string]value.Value
	parent *Env
}

func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]value.Value), parent: parent}
}

// Lookup finds the nearest binding of name.
func (e *Env) Lookup(name string) (value.Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return value.Nil, false
}

// Declare binds name in this scope. It fails if the name is already bound here.
func (e *Env) Declare(name string, v value.Value) bool {
	if _, exists := e.vars[name]; exists {
		return false
	}
	e.vars[name] = v
	return true
}

// Set updates the nearest enclosing binding of name.
func (e *Env) Set(name string, v value.Value) bool {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return true
		}
	}
	return false
}

// Names returns the names bound in this scope, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
