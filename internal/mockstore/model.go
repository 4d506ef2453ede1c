package mockstore

import (
	"fmt"
	"sort"
)

// Model is one record of the store.
type Model struct {
	store *Store
	typ   string
	id    int
	attrs map[string]any
}

// Type returns the model type name, e.g. "person".
func (m *Model) Type() string { return m.typ }

func (m *Model) ID() int { return m.id }

// Key is the model's identity, e.g. "model:person(1)".
func (m *Model) Key() string { return fmt.Sprintf("model:%s(%d)", m.typ, m.id) }

func (m *Model) String() string { return m.Key() }

// Get returns a relationship or an attribute. Relationships resolve to
// *Model (belongsTo) or []*Model (hasMany); a missing belongsTo is nil.
func (m *Model) Get(name string) (any, bool) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	c := m.store.collections[m.typ]
	if r, ok := c.relationships[name]; ok {
		return m.related(r), true
	}
	v, ok := m.attrs[name]
	return v, ok
}

// related resolves relationship ids. Caller holds the store read lock.
func (m *Model) related(r Relationship) any {
	target := m.store.collections[r.Model]
	switch ids := m.attrs[r.ForeignKey()].(type) {
	case int:
		if target == nil {
			return nil
		}
		if rel, ok := target.records[ids]; ok {
			return rel
		}
		return nil
	case []int:
		out := make([]*Model, 0, len(ids))
		if target == nil {
			return out
		}
		for _, id := range ids {
			if rel, ok := target.records[id]; ok {
				out = append(out, rel)
			}
		}
		return out
	}
	if r.Kind == KindHasMany {
		return []*Model{}
	}
	return nil
}

// GraphQLField lets the default field resolver read models directly.
func (m *Model) GraphQLField(name string) (any, bool) { return m.Get(name) }

// Attrs returns a copy of the stored attributes, foreign keys included.
func (m *Model) Attrs() map[string]any {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	out := make(map[string]any, len(m.attrs))
	for k, v := range m.attrs {
		out[k] = v
	}
	return out
}

// AttrNames returns the stored attribute names, sorted.
func (m *Model) AttrNames() []string {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	out := make([]string, 0, len(m.attrs))
	for k := range m.attrs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Update sets attributes and relationships in place.
func (m *Model) Update(attrs map[string]any) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c := m.store.collections[m.typ]
	for k, v := range attrs {
		if k == "id" {
			continue
		}
		if err := m.store.assign(c, m, k, v); err != nil {
			return fmt.Errorf("update %s: %w", m.Key(), err)
		}
	}
	return nil
}

// matches is called with the store read lock held.
func (m *Model) matches(match map[string]any) bool {
	for k, want := range match {
		got, ok := m.attrs[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
