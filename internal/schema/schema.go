package schema

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Schema represents the complete GraphQL schema
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Order            []string         // Type names in declaration order
	Directives       map[string]*Directive
	Description      string

	// AST is the validated gqlparser schema the model was built from. Query
	// validation and introspection read from it; nil for hand-built schemas.
	AST *ast.Schema `json:"-"`
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// GetType returns the named type or nil.
func (s *Schema) GetType(name string) *Type {
	if s == nil {
		return nil
	}
	return s.Types[name]
}

// OrderedTypes returns every named type in declaration order. Types added
// without an order entry follow in map order.
func (s *Schema) OrderedTypes() []*Type {
	out := make([]*Type, 0, len(s.Types))
	seen := make(map[string]bool, len(s.Types))
	for _, name := range s.Order {
		if t := s.Types[name]; t != nil && !seen[name] {
			seen[name] = true
			out = append(out, t)
		}
	}
	for name, t := range s.Types {
		if !seen[name] {
			out = append(out, t)
		}
	}
	return out
}

// ObjectTypes returns the user-declared object types in declaration order.
// Built-in and introspection types are excluded.
func (s *Schema) ObjectTypes() []*Type {
	var out []*Type
	for _, t := range s.OrderedTypes() {
		if t.Kind == TypeKindObject && !t.IsIntrospection() && !t.Builtin {
			out = append(out, t)
		}
	}
	return out
}

// AbstractTypes returns the user-declared unions and interfaces in
// declaration order.
func (s *Schema) AbstractTypes() []*Type {
	var out []*Type
	for _, t := range s.OrderedTypes() {
		if t.IsAbstract() && !t.IsIntrospection() && !t.Builtin {
			out = append(out, t)
		}
	}
	return out
}

// IsObjectType reports whether name is declared as an object type.
func (s *Schema) IsObjectType(name string) bool {
	t := s.GetType(name)
	return t != nil && t.Kind == TypeKindObject
}

// IsAbstractType reports whether name is declared as a union or interface.
func (s *Schema) IsAbstractType(name string) bool {
	t := s.GetType(name)
	return t != nil && t.IsAbstract()
}

// IsRootType reports whether name is one of the schema's operation root types.
func (s *Schema) IsRootType(name string) bool {
	if name == "" {
		return false
	}
	return name == s.QueryType || name == s.MutationType || name == s.SubscriptionType
}

// Field returns the field definition for typeName.fieldName, or nil.
func (s *Schema) Field(typeName, fieldName string) *Field {
	t := s.GetType(typeName)
	if t == nil {
		return nil
	}
	return t.GetField(fieldName)
}

// IsConnectionType reports whether name is a relay connection: an object type
// with both edges and pageInfo fields.
func (s *Schema) IsConnectionType(name string) bool {
	t := s.GetType(name)
	if t == nil || t.Kind != TypeKindObject {
		return false
	}
	return t.GetField("edges") != nil && t.GetField("pageInfo") != nil
}

// IsPossibleType reports whether objectType can be returned for abstractType.
func (s *Schema) IsPossibleType(abstractType, objectType string) bool {
	t := s.GetType(abstractType)
	if t == nil {
		return false
	}
	if t.Name == objectType {
		return true
	}
	for _, pt := range t.PossibleTypes {
		if pt == objectType {
			return true
		}
	}
	return false
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool
	Builtin        bool
}

// GetOrderedFields returns fields in declaration order.
func (t *Type) GetOrderedFields() []*Field { return t.Fields }

// GetOrderedInputFields returns input fields in declaration order.
func (t *Type) GetOrderedInputFields() []*InputValue { return t.InputFields }

// GetField returns the named field or nil.
func (t *Type) GetField(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// IsAbstract reports whether the type is a union or an interface.
func (t *Type) IsAbstract() bool {
	return t.Kind == TypeKindInterface || t.Kind == TypeKindUnion
}

// IsIntrospection reports whether the type name uses the reserved "__" prefix.
func (t *Type) IsIntrospection() bool { return strings.HasPrefix(t.Name, "__") }

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	Async             bool
	IsDeprecated      bool
	DeprecationReason string
}

// GetOrderedArguments returns arguments in declaration order.
func (f *Field) GetOrderedArguments() []*InputValue { return f.Arguments }

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. [User!]!.
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	default:
		return t.Named
	}
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
