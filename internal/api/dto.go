package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/tasklist/internal/importer"
	"github.com/sadopc/tasklist/internal/store"
)

// TimeLayout is the wire format of every timestamp the API writes.
const TimeLayout = "2006-01-02 15:04:05"

// Layouts accepted on input, tried in order. Layouts without a zone are read
// in the server's location.
var inputLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, want %q or RFC 3339", v, TimeLayout)
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimeLayout)
}

type todoDTO struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	Status      int      `json:"status"`
	Tags        []string `json:"tags"`
	ImagePaths  []string `json:"imagePaths"`
	CompletedAt *string  `json:"completedAt"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

func newTodoDTO(t *store.TodoItem, loc *time.Location) todoDTO {
	d := todoDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    int(t.Priority),
		Status:      int(t.Status),
		Tags:        t.Tags,
		ImagePaths:  t.ImagePaths,
		CreatedAt:   formatTime(t.CreatedAt, loc),
		UpdatedAt:   formatTime(t.UpdatedAt, loc),
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.ImagePaths == nil {
		d.ImagePaths = []string{}
	}
	if t.CompletedAt != nil {
		ct := formatTime(*t.CompletedAt, loc)
		d.CompletedAt = &ct
	}
	return d
}

func newTodoDTOs(items []store.TodoItem, loc *time.Location) []todoDTO {
	out := make([]todoDTO, len(items))
	for i := range items {
		out[i] = newTodoDTO(&items[i], loc)
	}
	return out
}

// todoInput is the body of POST and PUT /api/todos. Absent fields are left
// unchanged on update.
type todoInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Priority    *int     `json:"priority"`
	Status      *int     `json:"status"`
	Tags        []string `json:"tags"`
	ImagePaths  []string `json:"imagePaths"`
	CompletedAt *string  `json:"completedAt"`
}

func (in todoInput) patch(loc *time.Location) (store.TodoPatch, error) {
	p := store.TodoPatch{
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		ImagePaths:  in.ImagePaths,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return p, fmt.Errorf("title must not be empty")
		}
		p.Title = &title
	}
	if in.Priority != nil {
		pr := store.Priority(*in.Priority)
		if !pr.Valid() {
			return p, fmt.Errorf("invalid priority %d", *in.Priority)
		}
		p.Priority = &pr
	}
	if in.Status != nil {
		st := store.Status(*in.Status)
		if !st.Valid() {
			return p, fmt.Errorf("invalid status %d", *in.Status)
		}
		p.Status = &st
	}
	if in.CompletedAt != nil && *in.CompletedAt != "" {
		t, err := parseTime(*in.CompletedAt, loc)
		if err != nil {
			return p, fmt.Errorf("completedAt: %w", err)
		}
		p.CompletedAt = &t
	}
	return p, nil
}

type tagDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"createdAt"`
}

func newTagDTO(t *store.Tag, loc *time.Location) tagDTO {
	return tagDTO{ID: t.ID, Name: t.Name, Color: t.Color, CreatedAt: formatTime(t.CreatedAt, loc)}
}

type tagInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type importRunDTO struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
}

type lineResultDTO struct {
	Number int    `json:"number"`
	Line   string `json:"line"`
	TodoID int64  `json:"todoId,omitempty"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type importResultDTO struct {
	RunID    string          `json:"runId"`
	Source   string          `json:"source"`
	Imported int             `json:"imported"`
	Skipped  int             `json:"skipped"`
	Lines    []lineResultDTO `json:"lines"`
}

func newImportResultDTO(r importer.Result) importResultDTO {
	d := importResultDTO{
		RunID:    r.RunID,
		Source:   r.Source,
		Imported: r.Imported,
		Skipped:  r.Skipped,
		Lines:    make([]lineResultDTO, len(r.Lines)),
	}
	for i, l := range r.Lines {
		d.Lines[i] = lineResultDTO(l)
	}
	return d
}
