package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mabhi256/bpmx/internal/extract"
)

const (
	InventoryFile = "inventory.json"
	ReportFile    = "analysis.json"
)

// Inventory lists the components of one extraction run in document order.
type Inventory struct {
	Source       string            `json:"source"`
	Category     string            `json:"category,omitempty"`
	ID           string            `json:"id,omitempty"`
	Components   []extract.Entry   `json:"components"`
	Errors       []extract.Failure `json:"errors"`
	DuplicateIDs map[string]int    `json:"duplicateIds"`
}

func NewInventory(res *extract.Result, category, id string) Inventory {
	inv := Inventory{
		Source:       res.SourcePath,
		Category:     category,
		ID:           id,
		Components:   res.Inventory,
		Errors:       res.Failures,
		DuplicateIDs: res.DuplicateIDs,
	}
	if inv.Components == nil {
		inv.Components = []extract.Entry{}
	}
	if inv.Errors == nil {
		inv.Errors = []extract.Failure{}
	}
	if inv.DuplicateIDs == nil {
		inv.DuplicateIDs = map[string]int{}
	}
	return inv
}

// WriteInventory writes inventory.json into the sink's root as part of the
// run, so Rollback removes or restores it too.
func WriteInventory(s *DirSink, inv Inventory) (string, error) {
	if err := s.mkdir(s.Root()); err != nil {
		return "", err
	}
	data, err := marshal(inv)
	if err != nil {
		return "", err
	}
	if err := s.writeFile(InventoryFile, data); err != nil {
		return "", err
	}
	return filepath.Join(s.Root(), InventoryFile), nil
}

// WriteJSON writes v as indented JSON with a trailing newline, creating the
// parent directory if needed.
func WriteJSON(path string, v any) error {
	data, err := marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return append(data, '\n'), nil
}
