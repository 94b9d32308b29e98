package repository

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadSeedFile reads a JSON catalog used as the local snapshot when no remote
// store is configured. An empty path yields an empty catalog.
func LoadSeedFile(path string) (Data, error) {
	if path == "" {
		return Data{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("failed to read catalog seed: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("failed to parse catalog seed %s: %w", path, err)
	}
	return data, nil
}
