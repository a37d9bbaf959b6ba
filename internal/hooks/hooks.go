// Package hooks provides an explicit action/filter registry mirroring the
// WordPress plugin API, so emitters register callbacks against an injected
// value instead of a process-global table.
package hooks

import "sort"

// DefaultPriority matches the WordPress default for add_action/add_filter.
const DefaultPriority = 10

// ActionFunc is a callback invoked for its side effects.
type ActionFunc func(args ...any)

// FilterFunc receives a value, may transform it, and returns the result.
type FilterFunc func(value any, args ...any) any

type actionEntry struct {
	priority int
	seq      int
	fn       ActionFunc
}

type filterEntry struct {
	priority int
	seq      int
	fn       FilterFunc
}

// Registry holds named action and filter callback lists. Callbacks run in
// ascending priority order; ties run in registration order. A Registry is
// owned by a single goroutine and is not safe for concurrent mutation.
type Registry struct {
	actions map[string][]actionEntry
	filters map[string][]filterEntry
	seq     int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string][]actionEntry),
		filters: make(map[string][]filterEntry),
	}
}

// AddAction registers fn under name with the given priority.
func (r *Registry) AddAction(name string, priority int, fn ActionFunc) {
	if fn == nil {
		return
	}
	r.seq++
	entries := append(r.actions[name], actionEntry{priority: priority, seq: r.seq, fn: fn})
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
	r.actions[name] = entries
}

// AddFilter registers fn under name with the given priority.
func (r *Registry) AddFilter(name string, priority int, fn FilterFunc) {
	if fn == nil {
		return
	}
	r.seq++
	entries := append(r.filters[name], filterEntry{priority: priority, seq: r.seq, fn: fn})
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
	r.filters[name] = entries
}

// DoAction invokes every action registered under name in priority order.
// An unregistered name is a no-op.
func (r *Registry) DoAction(name string, args ...any) {
	for _, entry := range r.actions[name] {
		entry.fn(args...)
	}
}

// ApplyFilters threads value through every filter registered under name in
// priority order and returns the final result. An unregistered name returns
// value unchanged.
func (r *Registry) ApplyFilters(name string, value any, args ...any) any {
	for _, entry := range r.filters[name] {
		value = entry.fn(value, args...)
	}
	return value
}

// HasAction reports whether at least one action is registered under name.
func (r *Registry) HasAction(name string) bool {
	return len(r.actions[name]) > 0
}

// HasFilter reports whether at least one filter is registered under name.
func (r *Registry) HasFilter(name string) bool {
	return len(r.filters[name]) > 0
}
