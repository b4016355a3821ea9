package trace

import (
	"encoding/json"
	"fmt"
	"os"
)

func SaveToFile(path string, tr SessionTrace) error {
	b, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return fmt.Errorf("trace: marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("trace: write %q: %w", path, err)
	}
	return nil
}

func LoadFromFile(path string) (SessionTrace, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SessionTrace{}, fmt.Errorf("trace: read %q: %w", path, err)
	}
	var tr SessionTrace
	if err := json.Unmarshal(b, &tr); err != nil {
		return SessionTrace{}, fmt.Errorf("trace: unmarshal %q: %w", path, err)
	}
	return tr, nil
}
