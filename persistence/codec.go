package persistence

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// A Codec converts documents to and from text.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON encodes documents as indented JSON.
var JSON Codec = jsonCodec{}

// YAML encodes documents as YAML.
var YAML Codec = yamlCodec{}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type yamlCodec struct{}

func (yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
