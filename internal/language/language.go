package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchemas parses several named SDL sources, prefixed by the GraphQL
// prelude (built-in scalars, directives and introspection types).
func ParseSchemas(sources ...*Source) (*SchemaDocument, error) {
	all := make([]*Source, 0, len(sources)+1)
	all = append(all, validator.Prelude)
	all = append(all, sources...)
	doc, err := parser.ParseSchemas(all...)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ValidateSchema validates a parsed schema document and returns the merged
// AST schema.
func ValidateSchema(doc *SchemaDocument) (*ASTSchema, error) {
	s, err := validator.ValidateSchemaDocument(doc)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ValidateQuery parses source and validates it against s. Validated documents
// carry field and argument definitions, which the executor relies on.
func ValidateQuery(s *ASTSchema, source string) (*QueryDocument, error) {
	doc, errs := gqlparser.LoadQuery(s, source)
	if len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}

// VariableValues coerces raw request variables for op.
func VariableValues(s *ASTSchema, op *OperationDefinition, vars map[string]any) (map[string]any, error) {
	coerced, err := validator.VariableValues(s, op, vars)
	if err != nil {
		return nil, err
	}
	return coerced, nil
}
