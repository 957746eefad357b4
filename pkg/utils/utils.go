package utils

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator is implemented by types that build their own JSON schema.
type SchemaGenerator interface {
	GenerateSchema() (*jsonschema.Schema, error)
}

// GetSchemaFromConfig returns the JSON schema of config as a string.
func GetSchemaFromConfig(config any) (string, error) {
	var schema *jsonschema.Schema

	if generator, ok := config.(SchemaGenerator); ok {
		generated, err := generator.GenerateSchema()
		if err != nil {
			return "", err
		}

		schema = generated
	} else {
		schema = jsonschema.Reflect(config)
	}

	jsonSchemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
