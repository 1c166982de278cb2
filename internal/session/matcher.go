package session

import "strings"

// Binding associates an unordered key combination with a mode. Bindings are
// registered once at controller construction and immutable afterwards.
type Binding struct {
	Keys []string
	Mode Mode
}

// Matcher tracks the currently held key set and resolves which registered
// binding, if any, it satisfies. Pure logic, no locking - the controller
// serializes all access.
type Matcher struct {
	bindings []compiledBinding
	held     map[string]struct{}
}

type compiledBinding struct {
	keys map[string]struct{}
	src  Binding
}

// NewMatcher compiles the bindings in registration order. Registration order
// is the tie-break when two satisfied bindings have the same size.
func NewMatcher(bindings []Binding) *Matcher {
	m := &Matcher{held: make(map[string]struct{})}
	for _, b := range bindings {
		cb := compiledBinding{keys: make(map[string]struct{}, len(b.Keys))}
		norm := make([]string, 0, len(b.Keys))
		for _, k := range b.Keys {
			k = NormalizeKey(k)
			if k == "" {
				continue
			}
			if _, dup := cb.keys[k]; dup {
				continue
			}
			cb.keys[k] = struct{}{}
			norm = append(norm, k)
		}
		if len(cb.keys) == 0 {
			continue
		}
		cb.src = Binding{Keys: norm, Mode: b.Mode}
		m.bindings = append(m.bindings, cb)
	}
	return m
}

// NormalizeKey canonicalizes a key identifier ("Ctrl " -> "ctrl").
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// KeyDown records a key as held.
func (m *Matcher) KeyDown(key string) {
	m.held[NormalizeKey(key)] = struct{}{}
}

// KeyUp removes a key from the held set.
func (m *Matcher) KeyUp(key string) {
	delete(m.held, NormalizeKey(key))
}

// Evaluate returns the best-matching binding for the current held set: among
// bindings whose key set is a subset of the held keys, the largest wins, and
// equal sizes resolve to the earliest registered.
func (m *Matcher) Evaluate() (Binding, bool) {
	bestIdx := -1
	bestSize := 0
	for i, cb := range m.bindings {
		if len(cb.keys) <= bestSize {
			continue
		}
		if m.subsetHeld(cb.keys) {
			bestIdx = i
			bestSize = len(cb.keys)
		}
	}
	if bestIdx < 0 {
		return Binding{}, false
	}
	return m.bindings[bestIdx].src, true
}

// Reset clears the entire held set. Called on session end so stale "phantom
// held" keys cannot re-trigger a combination immediately.
func (m *Matcher) Reset() {
	m.held = make(map[string]struct{})
}

func (m *Matcher) subsetHeld(keys map[string]struct{}) bool {
	for k := range keys {
		if _, ok := m.held[k]; !ok {
			return false
		}
	}
	return true
}
