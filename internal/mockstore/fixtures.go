package mockstore

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Fixtures is the file form of a store: model definitions and records.
//
//	models:
//	  person:
//	    friends: hasMany(person)
//	    pet: belongsTo(pet)
//	data:
//	  person:
//	    - {id: 1, name: Rooty, friends: [2, 3]}
type Fixtures struct {
	Models map[string]map[string]string `yaml:"models"`
	Data   map[string][]map[string]any  `yaml:"data"`
}

var relationshipRE = regexp.MustCompile(`^(belongsTo|hasMany)\(\s*([_A-Za-z][_0-9A-Za-z]*)\s*\)$`)

// ParseRelationship reads "hasMany(person)" or "belongsTo(movie)".
func ParseRelationship(name, spec string) (Relationship, error) {
	m := relationshipRE.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil {
		return Relationship{}, fmt.Errorf("relationship %s: expected belongsTo(model) or hasMany(model), got %q", name, spec)
	}
	if RelationshipKind(m[1]) == KindHasMany {
		return HasMany(name, m[2]), nil
	}
	return BelongsTo(name, m[2]), nil
}

// LoadFile reads YAML fixtures from path into the store.
func (s *Store) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return s.Load(f)
}

// Load defines every model of f, then creates its records. All problems are
// reported together.
func (s *Store) Load(f Fixtures) error {
	var result *multierror.Error
	for _, model := range sortedKeys(f.Models) {
		rels := f.Models[model]
		var defs []Relationship
		for _, name := range sortedKeys(rels) {
			r, err := ParseRelationship(name, rels[name])
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("model %s: %w", model, err))
				continue
			}
			defs = append(defs, r)
		}
		s.Define(model, defs...)
	}
	if err := s.LoadData(f.Data); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// LoadData creates records grouped by model type. Models are created in
// sorted type order and record order within a type.
func (s *Store) LoadData(data map[string][]map[string]any) error {
	var result *multierror.Error
	for _, model := range sortedKeys(data) {
		for i, attrs := range data[model] {
			if _, err := s.Create(model, attrs); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s[%d]: %w", model, i, err))
			}
		}
	}
	return result.ErrorOrNil()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
