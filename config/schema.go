package config

import "github.com/invopop/jsonschema"

// Schema returns the JSON schema of a robot config file. Fields without omitempty are required
// and unknown fields are rejected, as FromReader does.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	return r.Reflect(&Config{})
}
