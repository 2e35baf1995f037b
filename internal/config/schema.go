package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the settings file, keyed by the YAML
// field names.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:   "yaml",
		ExpandedStruct: true,
	}
	schema := r.Reflect(&Settings{})
	schema.ID = "https://github.com/stigoleg/caffeine/settings.schema.json"
	schema.Title = "caffeine settings"
	schema.Description = "Settings for the caffeine session inhibitor daemon"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
