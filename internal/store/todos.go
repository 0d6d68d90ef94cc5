package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const todoColumns = `id, title, description, priority, status, tags, image_paths, completed_at, created_at, updated_at`

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeList tolerates malformed JSON columns by returning an empty list.
func decodeList(s string) []string {
	list := []string{}
	if s == "" {
		return list
	}
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return []string{}
	}
	return list
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(r rowScanner) (*TodoItem, error) {
	t := &TodoItem{}
	var description, completedAt sql.NullString
	var tags, imagePaths, createdAt, updatedAt string
	var priority, status int
	if err := r.Scan(&t.ID, &t.Title, &description, &priority, &status, &tags, &imagePaths, &completedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Description = description.String
	t.Priority = Priority(priority)
	t.Status = Status(status)
	t.Tags = decodeList(tags)
	t.ImagePaths = decodeList(imagePaths)
	if completedAt.Valid {
		ct := parseTime(completedAt.String)
		t.CompletedAt = &ct
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// CreateTodo inserts item and returns the stored row. Zero timestamps are
// filled with the current time; a zero priority or invalid status falls back
// to medium / todo.
func (s *Store) CreateTodo(item *TodoItem) (*TodoItem, error) {
	now := time.Now()
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	priority := item.Priority
	if !priority.Valid() {
		priority = PriorityMedium
	}
	status := item.Status
	if !status.Valid() {
		status = StatusTodo
	}

	tags, err := encodeList(item.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	images, err := encodeList(item.ImagePaths)
	if err != nil {
		return nil, fmt.Errorf("encode image paths: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO todo_items (title, description, priority, status, tags, image_paths, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Title, item.Description, int(priority), int(status), tags, images,
		nullableTime(item.CompletedAt), formatTime(createdAt), formatTime(updatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert todo: last id: %w", err)
	}
	return s.GetTodo(id)
}

func (s *Store) GetTodo(id int64) (*TodoItem, error) {
	t, err := scanTodo(s.db.QueryRow(`SELECT `+todoColumns+` FROM todo_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get todo %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get todo %d: %w", id, err)
	}
	return t, nil
}

// ListTodos returns todo items matching f, newest first.
func (s *Store) ListTodos(f TodoFilter) ([]TodoItem, error) {
	query := `SELECT ` + todoColumns + ` FROM todo_items WHERE 1=1`
	var args []any

	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, int(*f.Status))
	}
	if f.Priority != nil {
		query += ` AND priority = ?`
		args = append(args, int(*f.Priority))
	}
	if f.Tag != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(todo_items.tags) WHERE json_each.value = ?)`
		args = append(args, f.Tag)
	}
	if f.From != nil {
		query += ` AND created_at >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND created_at <= ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var items []TodoItem
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// UpdateTodo applies the non-nil fields of p and returns the updated row.
func (s *Store) UpdateTodo(id int64, p TodoPatch) (*TodoItem, error) {
	t, err := s.GetTodo(id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Tags != nil {
		t.Tags = p.Tags
	}
	if p.ImagePaths != nil {
		t.ImagePaths = p.ImagePaths
	}
	if p.CompletedAt != nil {
		ct := *p.CompletedAt
		t.CompletedAt = &ct
	}
	if err := s.saveTodo(t); err != nil {
		return nil, err
	}
	return s.GetTodo(id)
}

// UpdateTodoStatus moves an item to status. Entering done stamps the
// completion time; leaving done clears it.
func (s *Store) UpdateTodoStatus(id int64, status Status) (*TodoItem, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("update todo %d: invalid status %d", id, int(status))
	}
	t, err := s.GetTodo(id)
	if err != nil {
		return nil, err
	}
	switch {
	case status == StatusDone && t.CompletedAt == nil:
		now := time.Now()
		t.CompletedAt = &now
	case status != StatusDone:
		t.CompletedAt = nil
	}
	t.Status = status
	if err := s.saveTodo(t); err != nil {
		return nil, err
	}
	return s.GetTodo(id)
}

func (s *Store) saveTodo(t *TodoItem) error {
	tags, err := encodeList(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	images, err := encodeList(t.ImagePaths)
	if err != nil {
		return fmt.Errorf("encode image paths: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE todo_items SET title = ?, description = ?, priority = ?, status = ?, tags = ?, image_paths = ?,
		 completed_at = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, int(t.Priority), int(t.Status), tags, images,
		nullableTime(t.CompletedAt), formatTime(time.Now()), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update todo %d: %w", t.ID, err)
	}
	return nil
}

func (s *Store) DeleteTodo(id int64) error {
	res, err := s.db.Exec(`DELETE FROM todo_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete todo %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountByStatus returns one count per status, including zero counts.
func (s *Store) CountByStatus() ([]StatusCount, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM todo_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status, n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]StatusCount, 0, len(Statuses))
	for _, st := range Statuses {
		out = append(out, StatusCount{Status: st, Count: counts[st]})
	}
	return out, nil
}

// CompletionsByDay counts done items per UTC day of completion in [from, to).
func (s *Store) CompletionsByDay(from, to time.Time) ([]DailyCompletions, error) {
	rows, err := s.db.Query(`
		SELECT date(completed_at) AS day, COUNT(*)
		FROM todo_items
		WHERE status = ? AND completed_at IS NOT NULL
		  AND completed_at >= ? AND completed_at < ?
		GROUP BY day
		ORDER BY day`,
		int(StatusDone), formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("completions by day: %w", err)
	}
	defer rows.Close()

	var out []DailyCompletions
	for rows.Next() {
		var dc DailyCompletions
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
