package domain

import (
	"fmt"
	"strconv"
)

// AttributeSet is an insertion-ordered collection of named values extracted
// from one binary. Key order is part of the versioned extraction schema:
// downstream consumers (vectorizer, dataset sinks) rely on it and adding,
// removing, or reordering keys is a breaking schema change.
type AttributeSet struct {
	keys []string
	vals map[string]any
}

// NewAttributeSet creates an empty attribute set.
func NewAttributeSet() *AttributeSet {
	return &AttributeSet{vals: make(map[string]any)}
}

// SetInt records an integer attribute, appending the key on first use.
func (a *AttributeSet) SetInt(key string, v int64) { a.set(key, v) }

// SetFloat records a float attribute, appending the key on first use.
func (a *AttributeSet) SetFloat(key string, v float64) { a.set(key, v) }

// SetString records a string attribute, appending the key on first use.
func (a *AttributeSet) SetString(key string, v string) { a.set(key, v) }

func (a *AttributeSet) set(key string, v any) {
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = v
}

// Keys returns the attribute names in insertion order.
func (a *AttributeSet) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of attributes.
func (a *AttributeSet) Len() int { return len(a.keys) }

// Has reports whether the key is present.
func (a *AttributeSet) Has(key string) bool {
	_, ok := a.vals[key]
	return ok
}

// Float returns the attribute as float64. Integer attributes convert;
// string attributes do not.
func (a *AttributeSet) Float(key string) (float64, bool) {
	switch v := a.vals[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int returns the attribute as int64.
func (a *AttributeSet) Int(key string) (int64, bool) {
	v, ok := a.vals[key].(int64)
	return v, ok
}

// String returns the attribute as a string.
func (a *AttributeSet) String(key string) (string, bool) {
	v, ok := a.vals[key].(string)
	return v, ok
}

// Text renders any attribute as its textual form, for tabular sinks.
func (a *AttributeSet) Text(key string) string {
	switch v := a.vals[key].(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
