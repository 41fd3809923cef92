package compose

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a YAML composition. Unknown fields are rejected.
func LoadYAML(path string) (*Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading composition: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML composition document.
func ParseYAML(data []byte) (*Composition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var comp Composition
	if err := dec.Decode(&comp); err != nil {
		return nil, fmt.Errorf("parsing composition: %w", err)
	}
	comp.setDefaults()
	return &comp, nil
}
