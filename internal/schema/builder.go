package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/graphmock/internal/language"
)

// NewSchema creates an empty schema.
func NewSchema(description string) *Schema {
	return &Schema{
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
		Description: description,
	}
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }

// AddType registers t, appending it to the declaration order on first sight.
func (s *Schema) AddType(t *Type) *Schema {
	if s.Types == nil {
		s.Types = make(map[string]*Type)
	}
	if _, exists := s.Types[t.Name]; !exists {
		s.Order = append(s.Order, t.Name)
	}
	s.Types[t.Name] = t
	return s
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	if s.Directives == nil {
		s.Directives = make(map[string]*Directive)
	}
	s.Directives[d.Name] = d
	return s
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type        { t.Fields = append(t.Fields, f); return t }
func (t *Type) AddInterface(name string) *Type { t.Interfaces = append(t.Interfaces, name); return t }
func (t *Type) AddPossibleType(name string) *Type {
	t.PossibleTypes = append(t.PossibleTypes, name)
	return t
}
func (t *Type) AddEnumValue(v *EnumValue) *Type    { t.EnumValues = append(t.EnumValues, v); return t }
func (t *Type) AddInputField(v *InputValue) *Type  { t.InputFields = append(t.InputFields, v); return t }
func (t *Type) SetOneOf(oneOf bool) *Type          { t.OneOf = oneOf; return t }
func (t *Type) SetSpecifiedByURL(url string) *Type { t.SpecifiedByURL = &url; return t }
func (t *Type) SetBuiltin(builtin bool) *Type      { t.Builtin = builtin; return t }

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) SetAsync(async bool) *Field       { f.Async = async; return f }
func (f *Field) AddArgument(a *InputValue) *Field { f.Arguments = append(f.Arguments, a); return f }

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (e *EnumValue) Deprecate(reason string) *EnumValue {
	e.IsDeprecated = true
	e.DeprecationReason = reason
	return e
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (v *InputValue) SetDefault(def any) *InputValue { v.DefaultValue = def; return v }
func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewDirective(name, description string) *Directive {
	return &Directive{Name: name, Description: description}
}

func (d *Directive) SetRepeatable(r bool) *Directive { d.IsRepeatable = r; return d }
func (d *Directive) AddArgument(a *InputValue) *Directive {
	d.Arguments = append(d.Arguments, a)
	return d
}

// BuildFromSDL parses and validates one or more SDL strings and returns the
// corresponding Schema.
func BuildFromSDL(sdl ...string) (*Schema, error) {
	sources := make([]*language.Source, len(sdl))
	for i, s := range sdl {
		sources[i] = &language.Source{Name: fmt.Sprintf("schema%d.graphql", i), Input: s}
	}
	return BuildFromSources(sources...)
}

// LoadFiles builds a schema from every file matching the doublestar patterns,
// e.g. "schema/**/*.graphql". Files are read in sorted order per pattern.
func LoadFiles(patterns ...string) (*Schema, error) {
	var sources []*language.Source
	seen := map[string]bool{}
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read schema: %w", err)
			}
			sources = append(sources, &language.Source{Name: path, Input: string(b)})
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no schema files match %v", patterns)
	}
	return BuildFromSources(sources...)
}

// BuildFromSources parses, validates and converts SDL sources. Type
// declaration order follows the sources, prelude types first.
func BuildFromSources(sources ...*language.Source) (*Schema, error) {
	doc, err := language.ParseSchemas(sources...)
	if err != nil {
		return nil, err
	}
	astSchema, err := language.ValidateSchema(doc)
	if err != nil {
		return nil, err
	}
	return BuildFromAST(astSchema, doc), nil
}

// BuildFromAST converts a validated gqlparser schema. doc, when given,
// provides declaration order.
func BuildFromAST(as *ast.Schema, doc *ast.SchemaDocument) *Schema {
	s := NewSchema(as.Description)
	s.AST = as
	if as.Query != nil {
		s.SetQueryType(as.Query.Name)
	}
	if as.Mutation != nil {
		s.SetMutationType(as.Mutation.Name)
	}
	if as.Subscription != nil {
		s.SetSubscriptionType(as.Subscription.Name)
	}

	var names []string
	seen := map[string]bool{}
	if doc != nil {
		for _, def := range doc.Definitions {
			if _, ok := as.Types[def.Name]; ok && !seen[def.Name] {
				seen[def.Name] = true
				names = append(names, def.Name)
			}
		}
	}
	var rest []string
	for name := range as.Types {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	for _, name := range names {
		s.AddType(buildType(as, as.Types[name], s.IsRootType(name)))
	}

	dirNames := make([]string, 0, len(as.Directives))
	for name := range as.Directives {
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)
	for _, name := range dirNames {
		s.AddDirective(buildDirective(as.Directives[name]))
	}
	return s
}

func buildType(as *ast.Schema, def *ast.Definition, root bool) *Type {
	t := NewType(def.Name, kindOf(def.Kind), def.Description).SetBuiltin(def.BuiltIn)
	switch def.Kind {
	case ast.Object, ast.Interface:
		for _, name := range def.Interfaces {
			t.AddInterface(name)
		}
		for _, fd := range def.Fields {
			// __schema and __type are attached by the validator; the
			// introspection runtime owns them.
			if strings.HasPrefix(fd.Name, "__") {
				continue
			}
			t.AddField(buildField(fd, root))
		}
		if def.Kind == ast.Interface {
			for _, pt := range as.GetPossibleTypes(def) {
				t.AddPossibleType(pt.Name)
			}
		}
	case ast.Union:
		for _, name := range def.Types {
			t.AddPossibleType(name)
		}
	case ast.Enum:
		for _, ev := range def.EnumValues {
			v := NewEnumValue(ev.Name, ev.Description)
			if reason, ok := deprecation(ev.Directives); ok {
				v.Deprecate(reason)
			}
			t.AddEnumValue(v)
		}
	case ast.InputObject:
		t.SetOneOf(def.Directives.ForName("oneOf") != nil)
		for _, fd := range def.Fields {
			t.AddInputField(buildInputValue(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives))
		}
	case ast.Scalar:
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				t.SetSpecifiedByURL(arg.Value.Raw)
			}
		}
	}
	return t
}

// buildField marks root fields and fields taking arguments as async: both are
// resolver-backed, the rest are projections of the parent value.
func buildField(fd *ast.FieldDefinition, root bool) *Field {
	f := NewField(fd.Name, fd.Description, BuildTypeRef(fd.Type)).
		SetAsync(root || len(fd.Arguments) > 0)
	if reason, ok := deprecation(fd.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range fd.Arguments {
		f.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return f
}

func buildInputValue(name, description string, typ *ast.Type, def *ast.Value, dirs ast.DirectiveList) *InputValue {
	in := NewInputValue(name, description, BuildTypeRef(typ))
	if def != nil {
		if v, err := def.Value(nil); err == nil {
			in.SetDefault(v)
		}
	}
	if reason, ok := deprecation(dirs); ok {
		in.Deprecate(reason)
	}
	return in
}

func buildDirective(d *ast.DirectiveDefinition) *Directive {
	out := NewDirective(d.Name, d.Description).SetRepeatable(d.IsRepeatable)
	for _, loc := range d.Locations {
		out.Locations = append(out.Locations, string(loc))
	}
	for _, arg := range d.Arguments {
		out.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return out
}

// BuildTypeRef converts a gqlparser type expression.
func BuildTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(BuildTypeRef(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.Elem != nil {
		return ListType(BuildTypeRef(t.Elem))
	}
	return NamedType(t.NamedType)
}

func deprecation(dirs ast.DirectiveList) (string, bool) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "No longer supported", true
}

func kindOf(k ast.DefinitionKind) TypeKind {
	switch k {
	case ast.Object:
		return TypeKindObject
	case ast.Interface:
		return TypeKindInterface
	case ast.Union:
		return TypeKindUnion
	case ast.Enum:
		return TypeKindEnum
	case ast.InputObject:
		return TypeKindInputObject
	default:
		return TypeKindScalar
	}
}
