package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"poolquote/internal/model"
)

// WriteSnapshot saves a pool snapshot as pretty-printed JSON, suitable as
// input for offline simulation.
func WriteSnapshot(path string, snap *model.PoolSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a pool snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*model.PoolSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap model.PoolSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}
