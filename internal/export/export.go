// Package export writes todo items to CSV, JSON and YAML files.
package export

import (
	"fmt"
	"time"

	"github.com/sadopc/tasklist/internal/store"
)

// Format names accepted by Write.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var Formats = []string{FormatCSV, FormatJSON, FormatYAML}

// Write dispatches to the writer for format.
func Write(format string, todos []store.TodoItem, tags map[string]*store.Tag, path string) error {
	switch format {
	case FormatCSV:
		return ToCSV(todos, path)
	case FormatJSON:
		return ToJSON(todos, tags, path)
	case FormatYAML, "yml":
		return ToYAML(todos, tags, path)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// TagIndex maps tag names to tags.
func TagIndex(tags []store.Tag) map[string]*store.Tag {
	m := make(map[string]*store.Tag, len(tags))
	for i := range tags {
		m[tags[i].Name] = &tags[i]
	}
	return m
}

type document struct {
	ExportedAt string   `json:"exported_at" yaml:"exported_at"`
	Count      int      `json:"count" yaml:"count"`
	Tags       []tagRef `json:"tags" yaml:"tags"`
	Todos      []record `json:"todos" yaml:"todos"`
}

type tagRef struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

type record struct {
	ID          int64    `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string   `json:"status" yaml:"status"`
	Priority    string   `json:"priority" yaml:"priority"`
	Tags        []string `json:"tags" yaml:"tags"`
	ImagePaths  []string `json:"image_paths,omitempty" yaml:"image_paths,omitempty"`
	CreatedAt   string   `json:"created_at" yaml:"created_at"`
	UpdatedAt   string   `json:"updated_at" yaml:"updated_at"`
	CompletedAt string   `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	LeadTimeSec int64    `json:"lead_time_seconds,omitempty" yaml:"lead_time_seconds,omitempty"`
	LeadTime    string   `json:"lead_time,omitempty" yaml:"lead_time,omitempty"`
}

func newRecord(t store.TodoItem) record {
	r := record{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status.String(),
		Priority:    t.Priority.String(),
		Tags:        t.Tags,
		ImagePaths:  t.ImagePaths,
		CreatedAt:   t.CreatedAt.Local().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Local().Format(time.RFC3339),
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if t.CompletedAt != nil {
		r.CompletedAt = t.CompletedAt.Local().Format(time.RFC3339)
		if secs := leadTime(t); secs > 0 {
			r.LeadTimeSec = secs
			r.LeadTime = formatDuration(secs)
		}
	}
	return r
}

func newDocument(todos []store.TodoItem, tags map[string]*store.Tag) document {
	doc := document{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(todos),
	}
	seen := make(map[string]bool)
	for _, t := range todos {
		doc.Todos = append(doc.Todos, newRecord(t))
		for _, name := range t.Tags {
			if seen[name] {
				continue
			}
			seen[name] = true
			ref := tagRef{Name: name}
			if tag, ok := tags[name]; ok {
				ref.Color = tag.Color
			}
			doc.Tags = append(doc.Tags, ref)
		}
	}
	return doc
}

// leadTime is the number of seconds from creation to completion.
func leadTime(t store.TodoItem) int64 {
	if t.CompletedAt == nil {
		return 0
	}
	return int64(t.CompletedAt.Sub(t.CreatedAt) / time.Second)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
