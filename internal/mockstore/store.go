// Package mockstore is an in-memory model store used as the data source of
// mock-backed resolvers. Models have a type, a numeric id, attributes and
// relationships to other models.
package mockstore

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/iancoleman/strcase"
)

var (
	ErrUnknownModel        = errors.New("unknown model")
	ErrUnknownRelationship = errors.New("unknown relationship")
)

// RelationshipKind distinguishes to-one from to-many relationships.
type RelationshipKind string

const (
	KindBelongsTo RelationshipKind = "belongsTo"
	KindHasMany   RelationshipKind = "hasMany"
)

// Relationship links a model to another model type. BelongsTo stores the
// related id under "<name>Id", HasMany stores ids under "<name>Ids".
type Relationship struct {
	Name  string
	Model string
	Kind  RelationshipKind
}

func BelongsTo(name, model string) Relationship {
	return Relationship{Name: name, Model: ModelName(model), Kind: KindBelongsTo}
}

func HasMany(name, model string) Relationship {
	return Relationship{Name: name, Model: ModelName(model), Kind: KindHasMany}
}

// ForeignKey returns the attribute the relationship's ids are stored under.
func (r Relationship) ForeignKey() string {
	if r.Kind == KindHasMany {
		return r.Name + "Ids"
	}
	return r.Name + "Id"
}

// ModelName normalizes a GraphQL type name ("Person", "person_group") to the
// store's model type name ("person", "personGroup").
func ModelName(name string) string { return strcase.ToLowerCamel(name) }

type collection struct {
	relationships map[string]Relationship
	records       map[int]*Model
	nextID        int
}

// Store is a thread-safe in-memory model store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Define registers a model type with its relationships. Defining an existing
// type adds the relationships and keeps its records.
func (s *Store) Define(model string, rels ...Relationship) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(ModelName(model))
	for _, r := range rels {
		c.relationships[r.Name] = r
	}
	return s
}

// collection returns the collection for model, creating it. Caller holds mu.
func (s *Store) collection(model string) *collection {
	c := s.collections[model]
	if c == nil {
		c = &collection{
			relationships: make(map[string]Relationship),
			records:       make(map[int]*Model),
			nextID:        1,
		}
		s.collections[model] = c
	}
	return c
}

// Models returns the defined model type names, sorted.
func (s *Store) Models() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.collections))
	for name := range s.collections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Relationship returns the named relationship of a model type.
func (s *Store) Relationship(model, name string) (Relationship, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[ModelName(model)]
	if c == nil {
		return Relationship{}, false
	}
	r, ok := c.relationships[name]
	return r, ok
}

// Create stores a new model. An "id" attribute is honored, otherwise ids are
// assigned sequentially. Attribute values that are *Model or []*Model are
// stored as relationships, defining the relationship when it is not declared.
func (s *Store) Create(model string, attrs map[string]any) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	typ := ModelName(model)
	c := s.collection(typ)

	id := c.nextID
	if raw, ok := attrs["id"]; ok && raw != nil {
		parsed, err := parseID(raw)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", typ, err)
		}
		id = parsed
	}
	if id >= c.nextID {
		c.nextID = id + 1
	}

	m := &Model{store: s, typ: typ, id: id, attrs: map[string]any{"id": id}}
	for k, v := range attrs {
		if k == "id" {
			continue
		}
		if err := s.assign(c, m, k, v); err != nil {
			return nil, fmt.Errorf("create %s: %w", typ, err)
		}
	}
	c.records[id] = m
	return m, nil
}

// assign sets one attribute, translating related models into foreign keys.
// Caller holds mu.
func (s *Store) assign(c *collection, m *Model, key string, v any) error {
	switch rel := v.(type) {
	case *Model:
		r, ok := c.relationships[key]
		if !ok {
			r = BelongsTo(key, rel.typ)
			c.relationships[key] = r
		}
		if r.Kind != KindBelongsTo {
			return fmt.Errorf("%w: %s.%s expects a list", ErrUnknownRelationship, m.typ, key)
		}
		m.attrs[r.ForeignKey()] = rel.id
	case []*Model:
		r, ok := c.relationships[key]
		if !ok {
			related := key
			if len(rel) > 0 {
				related = rel[0].typ
			}
			r = HasMany(key, related)
			c.relationships[key] = r
		}
		if r.Kind != KindHasMany {
			return fmt.Errorf("%w: %s.%s expects a single model", ErrUnknownRelationship, m.typ, key)
		}
		ids := make([]int, len(rel))
		for i, related := range rel {
			ids[i] = related.id
		}
		m.attrs[r.ForeignKey()] = ids
	default:
		if r, ok := c.relationships[key]; ok {
			ids, err := foreignKeys(r, v)
			if err != nil {
				return err
			}
			m.attrs[r.ForeignKey()] = ids
			return nil
		}
		m.attrs[key] = v
	}
	return nil
}

// foreignKeys accepts raw ids for a declared relationship, as fixtures
// provide them.
func foreignKeys(r Relationship, v any) (any, error) {
	if r.Kind == KindBelongsTo {
		if v == nil {
			return nil, nil
		}
		return parseID(v)
	}
	list, ok := v.([]any)
	if !ok {
		if ints, ok := v.([]int); ok {
			return ints, nil
		}
		return nil, fmt.Errorf("%s expects a list of ids, got %T", r.Name, v)
	}
	ids := make([]int, 0, len(list))
	for _, raw := range list {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Find returns the model of the given type and id.
func (s *Store) Find(model string, id any) (*Model, bool) {
	n, err := parseID(id)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[ModelName(model)]
	if c == nil {
		return nil, false
	}
	m, ok := c.records[n]
	return m, ok
}

// All returns every model of a type ordered by id.
func (s *Store) All(model string) []*Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all(ModelName(model))
}

func (s *Store) all(typ string) []*Model {
	c := s.collections[typ]
	if c == nil {
		return nil
	}
	out := make([]*Model, 0, len(c.records))
	for _, m := range c.records {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Where returns the models of a type whose attributes equal every entry of
// match, compared by their printed form so that 1 and "1" are equal.
func (s *Store) Where(model string, match map[string]any) []*Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Model
	for _, m := range s.all(ModelName(model)) {
		if m.matches(match) {
			out = append(out, m)
		}
	}
	return out
}

// Count returns the number of models of a type.
func (s *Store) Count(model string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.collections[ModelName(model)]; c != nil {
		return len(c.records)
	}
	return 0
}

// EmptyData removes every record and resets ids. Definitions are kept.
func (s *Store) EmptyData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.collections {
		c.records = make(map[int]*Model)
		c.nextID = 1
	}
}

func parseID(v any) (int, error) {
	switch id := v.(type) {
	case int:
		return id, nil
	case int32:
		return int(id), nil
	case int64:
		return int(id), nil
	case float64:
		return int(id), nil
	case uint64:
		return int(id), nil
	case string:
		n, err := strconv.Atoi(id)
		if err != nil {
			return 0, fmt.Errorf("invalid id %q", id)
		}
		return n, nil
	case *Model:
		return id.id, nil
	}
	return 0, fmt.Errorf("invalid id of type %T", v)
}
