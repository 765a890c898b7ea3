package output

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

// Schema returns the JSON Schema of the table document produced by ToJSON.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&models.Table{})
}

// SchemaJSON returns the indented JSON encoding of Schema.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
