// Package target expands (type, field) references, possibly containing
// wildcards, into the concrete pairs they select in a schema.
package target

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hanpama/graphmock/internal/schema"
)

// Wildcard matches every type or every field.
const Wildcard = "*"

var (
	ErrInvalidTargetReference      = errors.New("invalid target reference")
	ErrInvalidTargetReferenceInput = errors.New("invalid target reference input")
)

var nameRE = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// Reference selects fields of a schema. Each selector is a GraphQL name or
// Wildcard.
type Reference struct {
	Type  string
	Field string
}

// Ref is shorthand for Reference{Type: typ, Field: field}.
func Ref(typ, field string) Reference { return Reference{Type: typ, Field: field} }

func (r Reference) String() string { return r.Type + "." + r.Field }

// Validate reports whether both selectors are names or wildcards.
func (r Reference) Validate() error {
	if validSelector(r.Type) && validSelector(r.Field) {
		return nil
	}
	return &InvalidReferenceError{Got: []any{r.Type, r.Field}}
}

// Pair is a concrete (type, field) coordinate.
type Pair struct {
	Type  string
	Field string
}

func (p Pair) String() string { return p.Type + "." + p.Field }

// Parse reads "Type.field" notation; either side may be Wildcard.
func Parse(s string) (Reference, error) {
	typ, field, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Reference{}, &InvalidReferenceError{Got: []any{s}}
	}
	ref := Ref(typ, field)
	if err := ref.Validate(); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// InvalidReferenceError reports a selector that is neither a name nor the
// wildcard.
type InvalidReferenceError struct {
	Got []any
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf(`Expected a target reference like ([ "type" , "field" ]) got %s`, render(e.Got))
}

func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidTargetReference }

// InvalidInputError reports an Expand input that is neither a reference nor a
// list of references.
type InvalidInputError struct {
	Got any
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("`expand` was unable to find a target reference or list of target references passed in, got: %s", render(e.Got))
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidTargetReferenceInput }

// ExpandTarget returns the pairs selected by ref, types and fields in
// declaration order. Introspection and built-in types are never selected.
func ExpandTarget(ref Reference, s *schema.Schema) ([]Pair, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var types []*schema.Type
	if ref.Type == Wildcard {
		types = s.ObjectTypes()
	} else if t := s.GetType(ref.Type); t != nil && t.Kind == schema.TypeKindObject && !t.IsIntrospection() {
		types = []*schema.Type{t}
	}

	pairs := []Pair{}
	for _, t := range types {
		for _, f := range t.GetOrderedFields() {
			if ref.Field == Wildcard || f.Name == ref.Field {
				pairs = append(pairs, Pair{Type: t.Name, Field: f.Name})
			}
		}
	}
	return pairs, nil
}

// Expand accepts a single reference or a list of references and returns the
// union of their expansions without duplicates, in first-seen order.
//
// Accepted shapes: Reference, []Reference, [2]string, [][2]string, a
// two-element []string, and []any holding any of the single forms.
func Expand(input any, s *schema.Schema) ([]Pair, error) {
	refs, err := references(input)
	if err != nil {
		return nil, err
	}

	seen := make(map[Pair]bool)
	out := []Pair{}
	for _, ref := range refs {
		pairs, err := ExpandTarget(ref, s)
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func references(input any) ([]Reference, error) {
	if ref, ok, err := single(input); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return []Reference{ref}, nil
	}

	switch v := input.(type) {
	case []Reference:
		return v, nil
	case [][2]string:
		refs := make([]Reference, len(v))
		for i, p := range v {
			refs[i] = Ref(p[0], p[1])
		}
		return refs, nil
	case [][]string:
		refs := make([]Reference, 0, len(v))
		for _, p := range v {
			if len(p) != 2 {
				return nil, &InvalidReferenceError{Got: toAny(p)}
			}
			refs = append(refs, Ref(p[0], p[1]))
		}
		return refs, nil
	case []any:
		refs := make([]Reference, 0, len(v))
		for _, item := range v {
			ref, ok, err := single(item)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &InvalidInputError{Got: input}
			}
			refs = append(refs, ref)
		}
		return refs, nil
	}
	return nil, &InvalidInputError{Got: input}
}

// single recognises the one-reference forms. A two-element []any whose items
// are not both strings is a malformed reference, not a list.
func single(input any) (Reference, bool, error) {
	switch v := input.(type) {
	case Reference:
		return v, true, nil
	case [2]string:
		return Ref(v[0], v[1]), true, nil
	case []string:
		if len(v) == 2 {
			return Ref(v[0], v[1]), true, nil
		}
	case []any:
		if len(v) != 2 {
			return Reference{}, false, nil
		}
		typ, tok := v[0].(string)
		field, fok := v[1].(string)
		if tok && fok {
			return Ref(typ, field), true, nil
		}
		if isScalar(v[0]) && isScalar(v[1]) {
			return Reference{}, false, &InvalidReferenceError{Got: v}
		}
	}
	return Reference{}, false, nil
}

func validSelector(s string) bool {
	return s == Wildcard || nameRE.MatchString(s)
}

func isScalar(v any) bool {
	switch v.(type) {
	case []any, []string, [2]string, []Reference, map[string]any:
		return false
	}
	return true
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func render(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
