package mockstore

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Mapping translates a GraphQL (type, field) to the mock store's (type, field).
type Mapping struct {
	GraphQL [2]string `yaml:"graphql"`
	Mock    [2]string `yaml:"mock"`
}

// Mapper is an ordered list of mappings; the first match wins.
type Mapper struct {
	mappings []Mapping
}

func NewMapper() *Mapper { return &Mapper{} }

// Add appends a mapping.
func (m *Mapper) Add(graphql, mock [2]string) *Mapper {
	m.mappings = append(m.mappings, Mapping{GraphQL: graphql, Mock: mock})
	return m
}

// FindGraphQL returns the first mapping for a GraphQL (type, field).
func (m *Mapper) FindGraphQL(typ, field string) (Mapping, bool) {
	if m == nil {
		return Mapping{}, false
	}
	for _, mapping := range m.mappings {
		if mapping.GraphQL[0] == typ && mapping.GraphQL[1] == field {
			return mapping, true
		}
	}
	return Mapping{}, false
}

// Resolve returns the mock (type, field) for a GraphQL (type, field),
// unchanged when no mapping matches.
func (m *Mapper) Resolve(typ, field string) (string, string) {
	if mapping, ok := m.FindGraphQL(typ, field); ok {
		return mapping.Mock[0], mapping.Mock[1]
	}
	return typ, field
}

// Mappings returns a copy of the mappings in order.
func (m *Mapper) Mappings() []Mapping {
	if m == nil {
		return nil
	}
	return append([]Mapping(nil), m.mappings...)
}

// LoadMapper reads a YAML list of mappings:
//
//   - graphql: [User, favoriteFood]
//     mock: [User, foodPreference]
func LoadMapper(path string) (*Mapper, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapper: %w", err)
	}
	var mappings []Mapping
	if err := yaml.Unmarshal(b, &mappings); err != nil {
		return nil, fmt.Errorf("parse mapper %s: %w", path, err)
	}
	var result *multierror.Error
	m := NewMapper()
	for i, mapping := range mappings {
		if mapping.GraphQL[0] == "" || mapping.GraphQL[1] == "" || mapping.Mock[0] == "" || mapping.Mock[1] == "" {
			result = multierror.Append(result, fmt.Errorf("mapping %d: graphql and mock need [type, field]", i))
			continue
		}
		m.Add(mapping.GraphQL, mapping.Mock)
	}
	return m, result.ErrorOrNil()
}
