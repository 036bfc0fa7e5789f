// Package domain holds the run-scoped state, compliance records, and error
// types shared across the pipeline core.
package domain

import "sort"

// ExecutionContext is the mutable key/value state threaded through a pipeline
// run. Stages consume a declared subset of it and produce new entries that are
// merged back in. A context is owned by exactly one run for its whole
// lifetime; nothing here is safe for concurrent use.
type ExecutionContext map[string]any

// Clone returns a shallow copy. Values are shared; key sets are independent.
func (ec ExecutionContext) Clone() ExecutionContext {
	out := make(ExecutionContext, len(ec))
	for k, v := range ec {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into ec. Later entries win on collision.
func (ec ExecutionContext) Merge(other ExecutionContext) {
	for k, v := range other {
		ec[k] = v
	}
}

// Project returns a new context holding only the requested keys, skipping any
// that are absent.
func (ec ExecutionContext) Project(keys []string) ExecutionContext {
	out := make(ExecutionContext, len(keys))
	for _, k := range keys {
		if v, ok := ec[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Has reports whether the key is present, regardless of value.
func (ec ExecutionContext) Has(key string) bool {
	_, ok := ec[key]
	return ok
}

// HasValue reports whether the key is present with a non-empty value. A nil
// value or an empty string counts as empty.
func (ec ExecutionContext) HasValue(key string) bool {
	v, ok := ec[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}

// GetString returns the value for key if it is a string, else "".
func (ec ExecutionContext) GetString(key string) string {
	if s, ok := ec[key].(string); ok {
		return s
	}
	return ""
}

// Keys returns the sorted key set.
func (ec ExecutionContext) Keys() []string {
	keys := make([]string, 0, len(ec))
	for k := range ec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
