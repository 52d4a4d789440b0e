package plugin

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"

	"github.com/warcade/warcade/pkg/abi"
)

// Compiled schema cache. The manifest shape is fixed at build time, so the
// schema is reflected and compiled at most once per process.
var (
	schemaOnce sync.Once
	schemaCtl  *jschema.Schema
	schemaErr  error
)

// SchemaID is the $id advertised for the plugin manifest schema.
const SchemaID = "https://warcade.dev/schemas/manifest.schema.json"

// GenerateSchema generates a JSON Schema from the ABI manifest struct.
// Used by the CLI to publish the contract for plugin authors.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
		// Plugins may carry extra metadata the runtime doesn't know about.
		AllowAdditionalProperties: true,
	}
	schema := r.Reflect(&abi.Manifest{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Warcade Plugin Manifest"
	schema.Description = "Schema for the JSON manifest native plugins self-report"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").Wrap(err)
	}
	return data, nil
}

// ValidateSchema validates manifest JSON against the generated schema.
func ValidateSchema(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return oops.Code("MANIFEST_INVALID").Wrapf(err, "invalid JSON")
	}
	if err := sch.Validate(doc); err != nil {
		return oops.Code("MANIFEST_INVALID").Wrapf(err, "schema validation failed")
	}
	return nil
}

func compiledSchema() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaCtl, schemaErr = compileSchema()
	})
	return schemaCtl, schemaErr
}

func compileSchema() (*jschema.Schema, error) {
	schemaBytes, err := GenerateSchema()
	if err != nil {
		return nil, err
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrapf(err, "parse generated schema")
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("manifest.schema.json", doc); err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrapf(err, "add schema resource")
	}
	sch, err := c.Compile("manifest.schema.json")
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
	}
	return sch, nil
}
