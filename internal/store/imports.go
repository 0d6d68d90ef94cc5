package store

import "fmt"

func (s *Store) RecordImportRun(r ImportRun) error {
	_, err := s.db.Exec(
		`INSERT INTO import_runs (id, source, imported, skipped, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.Imported, r.Skipped, formatTime(r.StartedAt), formatTime(r.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// ListImportRuns returns the most recent runs first.
func (s *Store) ListImportRuns(limit int) ([]ImportRun, error) {
	query := `SELECT id, source, imported, skipped, started_at, finished_at FROM import_runs ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var r ImportRun
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Source, &r.Imported, &r.Skipped, &started, &finished); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
