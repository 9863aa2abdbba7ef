package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a policy file (YAML or JSON), validates it structurally and
// lexically, and returns the typed document.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes a raw policy document.
func Parse(data []byte) (Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("parse policy document: %w", err)
	}
	if err := ValidateDocument(raw); err != nil {
		return Document{}, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode policy document: %w", err)
	}
	if err := ValidateIdentifiers(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
