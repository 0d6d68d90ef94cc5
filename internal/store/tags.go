package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#722ed1"

// CreateTag trims name and inserts a tag. If a tag with the trimmed name
// already exists it is returned unchanged instead of an error.
func (s *Store) CreateTag(name, color string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("create tag: empty name")
	}
	if color == "" {
		color = DefaultTagColor
	}

	existing, err := s.GetTagByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`INSERT INTO tags (name, color, created_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		name, color, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert tag: rows affected: %w", err)
	}
	if n == 0 {
		// Lost a race with another writer; the row is there now.
		return s.mustTagByName(name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert tag: last id: %w", err)
	}
	return s.GetTag(id)
}

func (s *Store) mustTagByName(name string) (*Tag, error) {
	t, err := s.GetTagByName(name)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("get tag %q: %w", name, ErrNotFound)
	}
	return t, nil
}

func (s *Store) GetTag(id int64) (*Tag, error) {
	t := &Tag{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, name, color, created_at FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Color, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tag %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tag %d: %w", id, err)
	}
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

// GetTagByName looks a tag up by exact name. It returns nil, nil when no
// such tag exists.
func (s *Store) GetTagByName(name string) (*Tag, error) {
	t := &Tag{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, name, color, created_at FROM tags WHERE name = ?`, name,
	).Scan(&t.ID, &t.Name, &t.Color, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag %q: %w", name, err)
	}
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s *Store) ListTags() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, color, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpdateTag renames and recolors a tag. Renaming onto a name held by a
// different tag fails with ErrTagNameTaken.
func (s *Store) UpdateTag(id int64, name, color string) (*Tag, error) {
	existing, err := s.GetTag(id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = existing.Name
	}
	if color == "" {
		color = existing.Color
	}

	other, err := s.GetTagByName(name)
	if err != nil {
		return nil, err
	}
	if other != nil && other.ID != id {
		return nil, fmt.Errorf("update tag %d: %q: %w", id, name, ErrTagNameTaken)
	}

	if _, err := s.db.Exec(`UPDATE tags SET name = ?, color = ? WHERE id = ?`, name, color, id); err != nil {
		return nil, fmt.Errorf("update tag %d: %w", id, err)
	}
	return s.GetTag(id)
}

func (s *Store) DeleteTag(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete tag %d: %w", id, ErrNotFound)
	}
	return nil
}
