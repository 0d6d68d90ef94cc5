package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sadopc/tasklist/internal/store"
)

func ToJSON(todos []store.TodoItem, tags map[string]*store.Tag, path string) error {
	data, err := json.MarshalIndent(newDocument(todos, tags), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
