package cost

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML cost model. Omitted fields keep their default values.
func Parse(data []byte) (Model, error) {
	m := Default()
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Model{}, fmt.Errorf("failed to parse cost model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Load reads a YAML cost model from path
func Load(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, fmt.Errorf("failed to read cost model from file %s: %w", path, err)
	}
	return Parse(data)
}

// Marshal encodes the model as YAML, so sweeps can write out what they ran with
func (m Model) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}
