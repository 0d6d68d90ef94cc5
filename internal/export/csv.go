package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sadopc/tasklist/internal/store"
)

func ToCSV(todos []store.TodoItem, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Title", "Status", "Priority", "Tags", "Created", "Completed", "Lead Time", "Description"}); err != nil {
		return err
	}

	for _, t := range todos {
		completed, lead := "", ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.Local().Format(time.RFC3339)
			if secs := leadTime(t); secs > 0 {
				lead = formatDuration(secs)
			}
		}

		row := []string{
			fmt.Sprintf("%d", t.ID),
			t.Title,
			t.Status.String(),
			t.Priority.String(),
			strings.Join(t.Tags, ";"),
			t.CreatedAt.Local().Format(time.RFC3339),
			completed,
			lead,
			t.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
