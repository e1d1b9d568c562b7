package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jwyang/deckgen/internal/deck"
)

// SaveCheckpoint writes the merged deck under <outputDir>/checkpoints so a
// run can be resumed at the render stage without repeating the LLM calls.
// Returns the checkpoint path.
func SaveCheckpoint(outputDir string, d *deck.Deck) (string, error) {
	dir := filepath.Join(outputDir, "checkpoints")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create checkpoint dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("deck_%s.json", time.Now().Format("20060102_150405")))

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal deck: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	return path, nil
}

// LoadCheckpoint reads a saved deck and restores presentation order, section
// labels, and numbering before it is handed to a renderer.
func LoadCheckpoint(path string) (*deck.Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var d deck.Deck
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if len(d.Slides) == 0 {
		return nil, fmt.Errorf("checkpoint %s holds no slides", path)
	}
	d.NormalizeOrder()
	return &d, nil
}
