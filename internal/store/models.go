package store

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a todo item. The integer values are
// persisted and must not be renumbered.
type Status int

const (
	StatusTodo       Status = 0
	StatusInProgress Status = 1
	StatusDone       Status = 2
	StatusCancelled  Status = 3
)

var statusNames = map[Status]string{
	StatusTodo:       "todo",
	StatusInProgress: "in_progress",
	StatusDone:       "done",
	StatusCancelled:  "cancelled",
}

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone, StatusCancelled}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus accepts either the status name or its integer code.
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	for st, name := range statusNames {
		if v == name || v == fmt.Sprint(int(st)) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", v)
}

// Priority ranks a todo item; higher is more urgent.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

var priorityNames = map[Priority]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

// ParsePriority accepts either the priority name or its integer code.
func ParsePriority(v string) (Priority, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	for p, name := range priorityNames {
		if v == name || v == fmt.Sprint(int(p)) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", v)
}

type TodoItem struct {
	ID          int64
	Title       string
	Description string
	Priority    Priority
	Status      Status
	Tags        []string
	ImagePaths  []string
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasTag reports whether the item carries the tag name exactly.
func (t TodoItem) HasTag(name string) bool {
	for _, tag := range t.Tags {
		if tag == name {
			return true
		}
	}
	return false
}

// TodoPatch holds the fields of a partial update; nil fields are left unchanged.
type TodoPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Status      *Status
	Tags        []string
	ImagePaths  []string
	CompletedAt *time.Time
}

type Tag struct {
	ID        int64
	Name      string
	Color     string
	CreatedAt time.Time
}

// ImportRun records the outcome of one importer batch.
type ImportRun struct {
	ID         string
	Source     string
	Imported   int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}

// TodoFilter is used to filter todo items in queries.
type TodoFilter struct {
	Status   *Status
	Priority *Priority
	Tag      string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// StatusCount is the number of todo items in one status.
type StatusCount struct {
	Status Status
	Count  int
}

// DailyCompletions is the number of items completed on one calendar day.
type DailyCompletions struct {
	Date  string
	Count int
}
