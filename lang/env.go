package lang

import (
	"fmt"
	"sort"
)

// Env implements a lexical environment chain. Frames are shared by
// reference: closures keep the frame they captured alive.
type Env struct {
	parent *Env
	values map[string]Value
}

// NewEnv creates an environment with optional parent.
func NewEnv(parent *Env) *Env {
	return &Env{
		parent: parent,
		values: make(map[string]Value),
	}
}

// Declare binds name to value in the current frame. A name may be declared
// only once per frame.
func (e *Env) Declare(name string, val Value) error {
	if _, ok := e.values[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyDeclared, name)
	}
	e.values[name] = val
	return nil
}

// Get retrieves a binding, searching parents if necessary.
func (e *Env) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if val, ok := env.values[name]; ok {
			return val, nil
		}
	}
	return Null, fmt.Errorf("%w: %s", ErrUnbound, name)
}

// Assign updates the nearest existing binding, searching parents if needed.
func (e *Env) Assign(name string, val Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			env.values[name] = val
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnbound, name)
}

// Has reports whether name is bound in this frame, ignoring parents.
func (e *Env) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Names returns the names bound in this frame in sorted order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parent returns the parent environment.
func (e *Env) Parent() *Env {
	return e.parent
}
