package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// LoadDescriptors reads every *.json file in dir as one enrollment
// descriptor. Unknown fields, duplicate IDs, and schema violations are all
// fatal; a partially valid directory loads nothing.
func LoadDescriptors(dir string) (map[string]Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read descriptors dir: %w", err)
	}

	validate := validator.New()

	out := make(map[string]Descriptor)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}

		path := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read descriptor file %s: %w", path, err)
		}

		var d Descriptor
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&d); err != nil {
			return nil, fmt.Errorf("parse descriptor file %s: %w", path, err)
		}
		if err := validate.Struct(d); err != nil {
			return nil, fmt.Errorf("descriptor file %s: %w", path, err)
		}
		for name, src := range d.Parameters {
			if _, err := src.Binding(name); err != nil {
				return nil, fmt.Errorf("descriptor file %s: %w", path, err)
			}
		}
		for i, av := range d.AlarmValues {
			if _, err := av.Domain(); err != nil {
				return nil, fmt.Errorf("descriptor file %s: alarmValues[%d]: %w", path, i, err)
			}
		}
		if _, exists := out[d.ID]; exists {
			return nil, fmt.Errorf("duplicate descriptor id %q", d.ID)
		}

		out[d.ID] = d
	}

	return out, nil
}
