package store

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateTodo(t *testing.T, s *Store, item TodoItem) *TodoItem {
	t.Helper()
	created, err := s.CreateTodo(&item)
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	return created
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/tasklist.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateTag("persist", ""); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	tag, err := s2.GetTagByName("persist")
	if err != nil || tag == nil {
		t.Fatalf("tag not persisted across reopen: %v %v", tag, err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Enums
// ============================================================

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"todo":        StatusTodo,
		"IN_PROGRESS": StatusInProgress,
		"2":           StatusDone,
		" cancelled ": StatusCancelled,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseStatus(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseStatus("later"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority("high"); err != nil || p != PriorityHigh {
		t.Fatalf("ParsePriority(high) = %v, %v", p, err)
	}
	if p, err := ParsePriority("1"); err != nil || p != PriorityLow {
		t.Fatalf("ParsePriority(1) = %v, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

// ============================================================
// Todos
// ============================================================

func TestCreateAndGetTodo(t *testing.T) {
	s := newTestStore(t)
	created := time.Date(2025, 8, 29, 9, 0, 0, 0, time.UTC)
	done := time.Date(2025, 8, 29, 18, 0, 0, 0, time.UTC)

	item := mustCreateTodo(t, s, TodoItem{
		Title:       "Deploy service",
		Description: "with care",
		Priority:    PriorityHigh,
		Status:      StatusDone,
		Tags:        []string{"ProjectA", "ops"},
		CompletedAt: &done,
		CreatedAt:   created,
	})
	if item.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	got, err := s.GetTodo(item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Deploy service" || got.Description != "with care" {
		t.Fatalf("unexpected todo: %+v", got)
	}
	if got.Priority != PriorityHigh || got.Status != StatusDone {
		t.Fatalf("priority/status = %v/%v", got.Priority, got.Status)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "ProjectA" || got.Tags[1] != "ops" {
		t.Fatalf("tags = %v", got.Tags)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Fatalf("CompletedAt = %v, want %v", got.CompletedAt, done)
	}
	if got.ImagePaths == nil || len(got.ImagePaths) != 0 {
		t.Fatalf("expected empty image paths, got %v", got.ImagePaths)
	}
}

func TestCreateTodoDefaults(t *testing.T) {
	s := newTestStore(t)
	before := time.Now().Add(-time.Second)

	item := mustCreateTodo(t, s, TodoItem{Title: "bare"})
	if item.Priority != PriorityMedium {
		t.Fatalf("priority = %v, want medium", item.Priority)
	}
	if item.Status != StatusTodo {
		t.Fatalf("status = %v, want todo", item.Status)
	}
	if item.CreatedAt.Before(before) {
		t.Fatalf("CreatedAt %v should default to now", item.CreatedAt)
	}
	if item.CompletedAt != nil {
		t.Fatal("CompletedAt should be nil")
	}
}

func TestGetTodoNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTodo(999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTodosFilters(t *testing.T) {
	s := newTestStore(t)
	day := func(d int) time.Time { return time.Date(2025, 9, d, 9, 0, 0, 0, time.UTC) }

	mustCreateTodo(t, s, TodoItem{Title: "a", Status: StatusTodo, Priority: PriorityLow, Tags: []string{"work"}, CreatedAt: day(1)})
	mustCreateTodo(t, s, TodoItem{Title: "b", Status: StatusDone, Priority: PriorityHigh, Tags: []string{"workshop"}, CreatedAt: day(2)})
	mustCreateTodo(t, s, TodoItem{Title: "c", Status: StatusDone, Priority: PriorityHigh, Tags: []string{"work", "home"}, CreatedAt: day(3)})

	all, err := s.ListTodos(TodoFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Title != "c" || all[2].Title != "a" {
		t.Fatalf("expected newest first, got %v", titles(all))
	}

	done := StatusDone
	got, _ := s.ListTodos(TodoFilter{Status: &done})
	if len(got) != 2 {
		t.Fatalf("status filter: got %v", titles(got))
	}

	low := PriorityLow
	got, _ = s.ListTodos(TodoFilter{Priority: &low})
	if len(got) != 1 || got[0].Title != "a" {
		t.Fatalf("priority filter: got %v", titles(got))
	}

	// Tag filter matches whole names only.
	got, _ = s.ListTodos(TodoFilter{Tag: "work"})
	if len(got) != 2 || got[0].Title != "c" || got[1].Title != "a" {
		t.Fatalf("tag filter: got %v", titles(got))
	}

	from, to := day(2), day(3)
	got, _ = s.ListTodos(TodoFilter{From: &from, To: &to})
	if len(got) != 2 {
		t.Fatalf("date filter: got %v", titles(got))
	}

	got, _ = s.ListTodos(TodoFilter{Limit: 1})
	if len(got) != 1 {
		t.Fatalf("limit: got %v", titles(got))
	}
}

func titles(items []TodoItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestUpdateTodoPartial(t *testing.T) {
	s := newTestStore(t)
	item := mustCreateTodo(t, s, TodoItem{Title: "orig", Description: "keep", Tags: []string{"x"}})

	title := "renamed"
	high := PriorityHigh
	got, err := s.UpdateTodo(item.ID, TodoPatch{Title: &title, Priority: &high})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "renamed" || got.Priority != PriorityHigh {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Description != "keep" || len(got.Tags) != 1 {
		t.Fatalf("untouched fields changed: %+v", got)
	}
}

func TestUpdateTodoNotFound(t *testing.T) {
	s := newTestStore(t)
	title := "x"
	if _, err := s.UpdateTodo(42, TodoPatch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTodoStatus(t *testing.T) {
	s := newTestStore(t)
	item := mustCreateTodo(t, s, TodoItem{Title: "work"})

	got, err := s.UpdateTodoStatus(item.ID, StatusDone)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusDone || got.CompletedAt == nil {
		t.Fatalf("expected done with completion time, got %+v", got)
	}

	got, err = s.UpdateTodoStatus(item.ID, StatusInProgress)
	if err != nil {
		t.Fatal(err)
	}
	if got.CompletedAt != nil {
		t.Fatal("leaving done should clear CompletedAt")
	}

	if _, err := s.UpdateTodoStatus(item.ID, Status(9)); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestDeleteTodo(t *testing.T) {
	s := newTestStore(t)
	item := mustCreateTodo(t, s, TodoItem{Title: "gone"})
	if err := s.DeleteTodo(item.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTodo(item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteTodo(item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestMalformedTagsColumn(t *testing.T) {
	s := newTestStore(t)
	item := mustCreateTodo(t, s, TodoItem{Title: "broken"})
	if _, err := s.db.Exec(`UPDATE todo_items SET tags = 'not json' WHERE id = ?`, item.ID); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetTodo(item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Fatalf("expected empty tags for malformed column, got %v", got.Tags)
	}
}

func TestCountByStatus(t *testing.T) {
	s := newTestStore(t)
	mustCreateTodo(t, s, TodoItem{Title: "a"})
	mustCreateTodo(t, s, TodoItem{Title: "b", Status: StatusDone})
	mustCreateTodo(t, s, TodoItem{Title: "c", Status: StatusDone})

	counts, err := s.CountByStatus()
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 4 {
		t.Fatalf("expected one entry per status, got %d", len(counts))
	}
	want := map[Status]int{StatusTodo: 1, StatusInProgress: 0, StatusDone: 2, StatusCancelled: 0}
	for _, c := range counts {
		if c.Count != want[c.Status] {
			t.Fatalf("%v: count %d, want %d", c.Status, c.Count, want[c.Status])
		}
	}
}

func TestCompletionsByDay(t *testing.T) {
	s := newTestStore(t)
	d1 := time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 9, 2, 18, 0, 0, 0, time.UTC)
	mustCreateTodo(t, s, TodoItem{Title: "a", Status: StatusDone, CompletedAt: &d1})
	mustCreateTodo(t, s, TodoItem{Title: "b", Status: StatusDone, CompletedAt: &d1})
	mustCreateTodo(t, s, TodoItem{Title: "c", Status: StatusDone, CompletedAt: &d2})
	mustCreateTodo(t, s, TodoItem{Title: "d", Status: StatusTodo})

	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	got, err := s.CompletionsByDay(from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %+v", got)
	}
	if got[0].Date != "2025-09-01" || got[0].Count != 2 {
		t.Fatalf("day 1 = %+v", got[0])
	}
	if got[1].Date != "2025-09-02" || got[1].Count != 1 {
		t.Fatalf("day 2 = %+v", got[1])
	}
}

// ============================================================
// Tags
// ============================================================

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	tag, err := s.CreateTag("  oracle云项目 ", "#faad14")
	if err != nil {
		t.Fatal(err)
	}
	if tag.Name != "oracle云项目" {
		t.Fatalf("name should be trimmed, got %q", tag.Name)
	}
	if tag.Color != "#faad14" || tag.ID == 0 || tag.CreatedAt.IsZero() {
		t.Fatalf("unexpected tag: %+v", tag)
	}
}

func TestCreateTagIdempotent(t *testing.T) {
	s := newTestStore(t)
	first, err := s.CreateTag("dup", "#111111")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CreateTag(" dup", "#222222")
	if err != nil {
		t.Fatalf("existing tag should not be an error: %v", err)
	}
	if second.ID != first.ID || second.Color != "#111111" {
		t.Fatalf("expected existing tag back unchanged, got %+v", second)
	}
	tags, _ := s.ListTags()
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
}

func TestCreateTagDefaultsAndValidation(t *testing.T) {
	s := newTestStore(t)
	tag, err := s.CreateTag("plain", "")
	if err != nil {
		t.Fatal(err)
	}
	if tag.Color != DefaultTagColor {
		t.Fatalf("color = %q, want default", tag.Color)
	}
	if _, err := s.CreateTag("   ", ""); err == nil {
		t.Fatal("expected error for blank tag name")
	}
}

func TestGetTagByNameAbsent(t *testing.T) {
	s := newTestStore(t)
	tag, err := s.GetTagByName("nope")
	if err != nil {
		t.Fatal(err)
	}
	if tag != nil {
		t.Fatalf("expected nil tag, got %+v", tag)
	}
}

func TestGetTagByNameIsExact(t *testing.T) {
	s := newTestStore(t)
	s.CreateTag("Personal", "")
	tag, _ := s.GetTagByName("personal")
	if tag != nil {
		t.Fatal("lookup must be case-sensitive")
	}
}

func TestListTagsSorted(t *testing.T) {
	s := newTestStore(t)
	s.CreateTag("b", "")
	s.CreateTag("a", "")
	tags, err := s.ListTags()
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0].Name != "a" {
		t.Fatalf("expected sorted by name, got %+v", tags)
	}
}

func TestUpdateTag(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.CreateTag("a", "#000000")
	b, _ := s.CreateTag("b", "#000000")

	got, err := s.UpdateTag(a.ID, "alpha", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "alpha" || got.Color != "#ffffff" {
		t.Fatalf("unexpected tag: %+v", got)
	}
	if !got.CreatedAt.Equal(a.CreatedAt) {
		t.Fatal("CreatedAt must survive updates")
	}

	if _, err := s.UpdateTag(b.ID, "alpha", ""); !errors.Is(err, ErrTagNameTaken) {
		t.Fatalf("expected ErrTagNameTaken, got %v", err)
	}

	// Keeping its own name is fine.
	if _, err := s.UpdateTag(b.ID, "b", "#123456"); err != nil {
		t.Fatalf("self-rename: %v", err)
	}
	if _, err := s.UpdateTag(999, "x", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTag(t *testing.T) {
	s := newTestStore(t)
	tag, _ := s.CreateTag("temp", "")
	if err := s.DeleteTag(tag.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTag(tag.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Import runs
// ============================================================

func TestImportRuns(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"01A", "01B"} {
		err := s.RecordImportRun(ImportRun{
			ID:         id,
			Source:     "seed",
			Imported:   i + 1,
			Skipped:    i,
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
			FinishedAt: start.Add(time.Duration(i)*time.Hour + time.Second),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.ListImportRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "01B" || runs[0].Imported != 2 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	runs, _ = s.ListImportRuns(1)
	if len(runs) != 1 {
		t.Fatalf("limit ignored: %+v", runs)
	}
}

// ============================================================
// Settings
// ============================================================

func TestDefaultSettings(t *testing.T) {
	s := newTestStore(t)
	if got := s.SettingInt("report_days", 0); got != 7 {
		t.Fatalf("report_days = %d, want 7", got)
	}
	if !s.SettingBool("show_cancelled", false) {
		t.Fatal("show_cancelled should default to true")
	}
}

func TestSetAndGetSetting(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting("report_days", "14"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting("report_days")
	if err != nil || v != "14" {
		t.Fatalf("got %q, %v", v, err)
	}
	if _, err := s.GetSetting("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	s.SetSetting("report_days", "many")
	if got := s.SettingInt("report_days", 3); got != 3 {
		t.Fatalf("unparseable setting should fall back, got %d", got)
	}
	settings, err := s.GetAllSettings()
	if err != nil || len(settings) < 4 {
		t.Fatalf("GetAllSettings: %v %v", settings, err)
	}
}
