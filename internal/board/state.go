package board

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"SurgeScreener/internal/model"
)

// State is the persisted form of the board: the latest batch per interval.
type State struct {
	Batches   map[model.Interval]*model.Batch `json:"batches"`
	UpdatedAt time.Time                       `json:"updated_at"`
}

// LoadState reads the board state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Batches: make(map[model.Interval]*model.Batch)}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Batches == nil {
		state.Batches = make(map[model.Interval]*model.Batch)
	}
	return &state, nil
}

// SaveState writes the board state to a JSON file, creating its directory.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
