package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `
type Query {
  person(id: ID): Person
  people: [Person!]!
}

type Person {
  name: String!
  friends: [Person!]!
}
`

const testFixtures = `
models:
  person:
    friends: hasMany(person)
data:
  person:
    - {name: Ann}
    - {name: Bob, friends: [1]}
`

func writeProject(t *testing.T) (schemaPath, fixturesPath string) {
	t.Helper()
	dir := t.TempDir()
	schemaPath = filepath.Join(dir, "schema.graphql")
	fixturesPath = filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchema), 0o644))
	require.NoError(t, os.WriteFile(fixturesPath, []byte(testFixtures), 0o644))
	return schemaPath, fixturesPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPrintSchema(t *testing.T) {
	schemaPath, _ := writeProject(t)
	out, err := execute(t, "print-schema", "--schema", schemaPath, "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "type Person {")
	require.Contains(t, out, "friends: [Person!]!")
}

func TestQuery(t *testing.T) {
	schemaPath, fixturesPath := writeProject(t)
	out, err := execute(t, "query", `{ person(id: "2") { name friends { name } } }`,
		"--schema", schemaPath, "--fixtures", fixturesPath, "--log-level", "error")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"person":{"name":"Bob","friends":[{"name":"Ann"}]}}}`, out)
}

func TestQuery_ConfigFile(t *testing.T) {
	schemaPath, fixturesPath := writeProject(t)
	cfgPath := filepath.Join(t.TempDir(), "graphmock.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("schema: ["+schemaPath+"]\nfixtures: "+fixturesPath+"\nlog:\n  level: error\n"), 0o644))

	out, err := execute(t, "query", "--config", cfgPath, "{ people { name } }")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"people":[{"name":"Ann"},{"name":"Bob"}]}}`, out)
}

func TestQuery_Errors(t *testing.T) {
	schemaPath, _ := writeProject(t)

	_, err := execute(t, "query", "--schema", schemaPath, "--log-level", "error")
	require.ErrorContains(t, err, "missing document")

	_, err = execute(t, "query", "{ people { name } }", "--schema", schemaPath, "--variables", "{", "--log-level", "error")
	require.ErrorContains(t, err, "parse variables")

	_, err = execute(t, "print-schema", "--schema", filepath.Join(t.TempDir(), "*.graphql"), "--log-level", "error")
	require.ErrorContains(t, err, "no schema files match")
}
