// Package scope tracks which names are shadowed by local bindings during a
// single top-down walk of a syntax tree.
package scope

import "fmt"

// Policy selects which declarations count as shadowing bindings.
type Policy string

const (
	// PolicyParams only treats function parameters as bindings.
	PolicyParams Policy = "params"
	// PolicyBindings treats every local declaration as a binding.
	PolicyBindings Policy = "bindings"
)

func ParsePolicy(value string) (Policy, error) {
	switch Policy(value) {
	case PolicyParams, PolicyBindings:
		return Policy(value), nil
	case "":
		return PolicyBindings, nil
	}
	return "", fmt.Errorf("unknown shadow policy %q (want %q or %q)", value, PolicyParams, PolicyBindings)
}

// Frame is the set of tracked names bound by one lexical scope. Frames are
// never modified after creation.
type Frame struct {
	names map[string]struct{}
}

func NewFrame(names ...string) Frame {
	if len(names) == 0 {
		return Frame{}
	}
	f := Frame{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		f.names[name] = struct{}{}
	}
	return f
}

func (f Frame) Binds(name string) bool {
	_, ok := f.names[name]
	return ok
}

// Tracker is a stack of frames. The zero value is ready to use; a Tracker
// belongs to one traversal and is not safe for concurrent use.
type Tracker struct {
	frames []Frame
}

// Push enters a scope binding names.
func (t *Tracker) Push(f Frame) {
	t.frames = append(t.frames, f)
}

// Pop leaves the innermost scope.
func (t *Tracker) Pop() {
	if len(t.frames) == 0 {
		panic("scope: Pop on empty tracker")
	}
	t.frames = t.frames[:len(t.frames)-1]
}

// Shadowed reports whether any enclosing scope binds name.
func (t *Tracker) Shadowed(name string) bool {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if t.frames[i].Binds(name) {
			return true
		}
	}
	return false
}
