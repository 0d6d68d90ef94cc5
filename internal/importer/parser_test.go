package importer

import (
	"bytes"
	"errors"
	"log"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tasklist/internal/store"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)

func fixedClock() time.Time { return fixedNow }

// memTags is an in-memory TagStore that counts calls.
type memTags struct {
	byName    map[string]*store.Tag
	nextID    int64
	creates   int
	failNames map[string]bool
	panics    bool
}

func newMemTags() *memTags {
	return &memTags{byName: make(map[string]*store.Tag), failNames: make(map[string]bool)}
}

func (m *memTags) GetTagByName(name string) (*store.Tag, error) {
	if m.panics {
		panic("tag store exploded")
	}
	return m.byName[name], nil
}

func (m *memTags) CreateTag(name, color string) (*store.Tag, error) {
	if m.failNames[name] {
		return nil, errors.New("database is locked")
	}
	m.creates++
	m.nextID++
	t := &store.Tag{ID: m.nextID, Name: name, Color: color, CreatedAt: fixedNow}
	m.byName[name] = t
	return t, nil
}

func newTestParser(tags TagStore, logs *bytes.Buffer) *Parser {
	var r *Reconciler
	if tags != nil {
		r = NewReconciler(tags)
	}
	opts := []ParserOption{WithClock(fixedClock), WithLocation(time.UTC)}
	if logs != nil {
		opts = append(opts, WithLogger(log.New(logs, "", 0)))
	}
	return NewParser(r, opts...)
}

func mustParse(t *testing.T, p *Parser, line string) *Record {
	t.Helper()
	rec, err := p.ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine(%q): %v", line, err)
	}
	return rec
}

// ============================================================
// Worked examples
// ============================================================

func TestParseDoneWithDates(t *testing.T) {
	tags := newMemTags()
	p := newTestParser(tags, nil)
	rec := mustParse(t, p, "- [x] Deploy service #ProjectA ⏫ ➕ 2025-08-29 ✅ 2025-08-29")

	if rec.Status != store.StatusDone || rec.Priority != store.PriorityHigh {
		t.Fatalf("status/priority = %v/%v", rec.Status, rec.Priority)
	}
	if rec.Title != "Deploy service" {
		t.Fatalf("title = %q", rec.Title)
	}
	if !reflect.DeepEqual(rec.Tags, []string{"ProjectA"}) {
		t.Fatalf("tags = %v", rec.Tags)
	}
	if want := time.Date(2025, 8, 29, 9, 0, 0, 0, time.UTC); !rec.CreatedAt.Equal(want) {
		t.Fatalf("CreatedAt = %v, want %v", rec.CreatedAt, want)
	}
	if want := time.Date(2025, 8, 29, 18, 0, 0, 0, time.UTC); rec.CompletedAt == nil || !rec.CompletedAt.Equal(want) {
		t.Fatalf("CompletedAt = %v, want %v", rec.CompletedAt, want)
	}
	if !rec.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("UpdatedAt = %v, want import time", rec.UpdatedAt)
	}
	if tags.byName["ProjectA"] == nil {
		t.Fatal("tag should have been created during parsing")
	}
}

func TestParseTodoWithTag(t *testing.T) {
	p := newTestParser(newMemTags(), nil)
	rec := mustParse(t, p, "- [ ] Personal errand #Personal")

	if rec.Status != store.StatusTodo || rec.Priority != store.PriorityMedium {
		t.Fatalf("status/priority = %v/%v", rec.Status, rec.Priority)
	}
	if !reflect.DeepEqual(rec.Tags, []string{"Personal"}) {
		t.Fatalf("tags = %v", rec.Tags)
	}
	if rec.CompletedAt != nil {
		t.Fatal("CompletedAt must be absent for todo")
	}
	if rec.Note != "" {
		t.Fatalf("note = %q, want none", rec.Note)
	}
}

func TestParseDoneWithoutDates(t *testing.T) {
	p := newTestParser(newMemTags(), nil)
	rec := mustParse(t, p, "- [x] Task with no date #X")

	if rec.CreatedAt != fixedNow {
		t.Fatalf("CreatedAt = %v, want import time", rec.CreatedAt)
	}
	if rec.CompletedAt == nil {
		t.Fatal("done record needs CompletedAt")
	}
	if *rec.CompletedAt != rec.CreatedAt {
		t.Fatalf("CompletedAt %v must be identical to CreatedAt %v", *rec.CompletedAt, rec.CreatedAt)
	}
}

func TestParseDoneWithOnlyCreatedDate(t *testing.T) {
	p := newTestParser(nil, nil)
	rec := mustParse(t, p, "- [x] shipped ➕ 2025-09-01")
	want := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	if rec.CompletedAt == nil || !rec.CompletedAt.Equal(want) {
		t.Fatalf("CompletedAt = %v, want created date %v", rec.CompletedAt, want)
	}
}

func TestParseBlankLineSkipped(t *testing.T) {
	tags := newMemTags()
	p := newTestParser(tags, nil)
	for _, line := range []string{"", "   ", "\t"} {
		rec, err := p.ParseLine(line)
		if rec != nil {
			t.Fatalf("blank line %q produced a record", line)
		}
		if !errors.Is(err, ErrBlankLine) {
			t.Fatalf("expected ErrBlankLine, got %v", err)
		}
	}
	if tags.creates != 0 {
		t.Fatal("blank lines must not create tags")
	}
}

func TestParseNoteCapturesRestOfLine(t *testing.T) {
	p := newTestParser(newMemTags(), nil)
	rec := mustParse(t, p, "- [/] Note task ;; remember to follow up #Y 🔺")

	if rec.Status != store.StatusInProgress {
		t.Fatalf("status = %v", rec.Status)
	}
	if rec.Title != "Note task" {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.Note != "remember to follow up #Y 🔺" {
		t.Fatalf("note = %q", rec.Note)
	}
	// Markers are matched by presence, so those inside the note still count.
	if rec.Priority != store.PriorityHigh {
		t.Fatalf("priority = %v, want high", rec.Priority)
	}
	if !reflect.DeepEqual(rec.Tags, []string{"Y"}) {
		t.Fatalf("tags = %v", rec.Tags)
	}
}

func TestParseCompletionDateAfterNote(t *testing.T) {
	p := newTestParser(nil, nil)
	rec := mustParse(t, p, "- [x] presto HA #ops ;; see runbook ✅ 2025-09-04")
	if rec.Title != "presto HA" {
		t.Fatalf("title = %q", rec.Title)
	}
	want := time.Date(2025, 9, 4, 18, 0, 0, 0, time.UTC)
	if rec.CompletedAt == nil || !rec.CompletedAt.Equal(want) {
		t.Fatalf("CompletedAt = %v, want %v", rec.CompletedAt, want)
	}
}

// ============================================================
// Properties
// ============================================================

func TestParseStatusMarkers(t *testing.T) {
	p := newTestParser(nil, nil)
	cases := map[string]store.Status{
		"- [x] a": store.StatusDone,
		"- [/] a": store.StatusInProgress,
		"- [ ] a": store.StatusTodo,
		"- [-] a": store.StatusCancelled,
		"a":       store.StatusTodo,
	}
	for line, want := range cases {
		if got := mustParse(t, p, line).Status; got != want {
			t.Errorf("%q: status %v, want %v", line, got, want)
		}
	}
}

func TestCompletedAtOnlyWhenDone(t *testing.T) {
	p := newTestParser(nil, nil)
	for _, marker := range []string{"- [ ]", "- [/]", "- [-]", ""} {
		rec := mustParse(t, p, marker+" task ✅ 2025-09-01")
		if rec.CompletedAt != nil {
			t.Errorf("%q: CompletedAt set for status %v", marker, rec.Status)
		}
	}
	if rec := mustParse(t, p, "- [x] task"); rec.CompletedAt == nil {
		t.Error("done task without CompletedAt")
	}
}

func TestParseEmptyTitleSkipsWithoutTagSideEffects(t *testing.T) {
	tags := newMemTags()
	p := newTestParser(tags, nil)
	rec, err := p.ParseLine("- [x] #lonely ⏫ ➕ 2025-09-01")
	if rec != nil || !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected empty-title skip, got %v, %v", rec, err)
	}
	var skip *SkipError
	if !errors.As(err, &skip) || skip.Line == "" {
		t.Fatalf("expected *SkipError carrying the line, got %T", err)
	}
	if tags.creates != 0 {
		t.Fatal("skipped line must not create tags")
	}
}

func TestInvalidDateDegradesToAbsent(t *testing.T) {
	var logs bytes.Buffer
	p := newTestParser(nil, &logs)
	rec := mustParse(t, p, "- [x] bad dates ➕ 2025-13-01 ✅ 2025-02-30")
	if rec.CreatedAt != fixedNow {
		t.Fatalf("CreatedAt = %v, want import time", rec.CreatedAt)
	}
	if rec.CompletedAt == nil || *rec.CompletedAt != fixedNow {
		t.Fatalf("CompletedAt = %v, want import time", rec.CompletedAt)
	}
	if !strings.Contains(logs.String(), "2025-13-01") || !strings.Contains(logs.String(), "2025-02-30") {
		t.Fatalf("expected both bad dates to be logged, got %q", logs.String())
	}
}

func TestReconcileIdempotent(t *testing.T) {
	tags := newMemTags()
	r := NewReconciler(tags)

	first, err := r.Reconcile("业务支撑")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Reconcile("业务支撑")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("second reconcile should return the entity created by the first")
	}
	if tags.creates != 1 {
		t.Fatalf("expected 1 create, got %d", tags.creates)
	}
	if first.Color != "#1890ff" {
		t.Fatalf("color = %q", first.Color)
	}
}

func TestReconcileTrimsName(t *testing.T) {
	tags := newMemTags()
	r := NewReconciler(tags)
	r.Reconcile("x")
	got, err := r.Reconcile("  x ")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "x" || tags.creates != 1 {
		t.Fatalf("padded name should match existing tag, got %+v (%d creates)", got, tags.creates)
	}
	if _, err := r.Reconcile("  "); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestReconcileKeepsExistingColor(t *testing.T) {
	tags := newMemTags()
	tags.byName["oracle云项目"] = &store.Tag{ID: 7, Name: "oracle云项目", Color: "#000000"}
	got, err := NewReconciler(tags).Reconcile("oracle云项目")
	if err != nil {
		t.Fatal(err)
	}
	if got.Color != "#000000" || tags.creates != 0 {
		t.Fatalf("existing tag must be returned unchanged, got %+v", got)
	}
}

func TestDuplicateTagsInLineCreateOnce(t *testing.T) {
	tags := newMemTags()
	p := newTestParser(tags, nil)
	rec := mustParse(t, p, "- [ ] twice #a #a")
	if !reflect.DeepEqual(rec.Tags, []string{"a", "a"}) {
		t.Fatalf("tags = %v", rec.Tags)
	}
	if tags.creates != 1 {
		t.Fatalf("expected 1 create, got %d", tags.creates)
	}
}

func TestTagFailureDoesNotAbortLine(t *testing.T) {
	tags := newMemTags()
	tags.failNames["flaky"] = true
	var logs bytes.Buffer
	p := newTestParser(tags, &logs)

	rec := mustParse(t, p, "- [ ] survive #flaky #solid")
	if !reflect.DeepEqual(rec.Tags, []string{"flaky", "solid"}) {
		t.Fatalf("failed tag should stay on the record, got %v", rec.Tags)
	}
	if tags.byName["solid"] == nil {
		t.Fatal("later tags should still be reconciled")
	}
	if !strings.Contains(logs.String(), "flaky") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}
}

func TestPanicBecomesSkip(t *testing.T) {
	tags := newMemTags()
	tags.panics = true
	p := newTestParser(tags, nil)
	rec, err := p.ParseLine("- [ ] boom #x")
	if rec != nil {
		t.Fatal("expected no record")
	}
	var skip *SkipError
	if !errors.As(err, &skip) || !strings.Contains(skip.Error(), "panic") {
		t.Fatalf("expected panic skip, got %v", err)
	}
}

func TestRecordTodoItem(t *testing.T) {
	p := newTestParser(nil, nil)
	rec := mustParse(t, p, "- [x] convert #a ;; note here")
	item := rec.TodoItem()
	if item.Title != "convert" || item.Description != "note here" || item.Status != store.StatusDone {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.CompletedAt == rec.CompletedAt {
		t.Fatal("item should not alias the record's completion time")
	}
	item.Tags[0] = "changed"
	if rec.Tags[0] != "a" {
		t.Fatal("item should not alias the record's tags")
	}
}

// ============================================================
// Round trip
// ============================================================

var (
	roundTripTitles = []string{"Deploy service", "写周报", "fix flaky test"}
	roundTripTags   = [][]string{nil, {"ops"}, {"迁云项目-阿里云", "oracle云项目"}}
	statusBrackets  = map[store.Status]string{
		store.StatusTodo:       "- [ ]",
		store.StatusInProgress: "- [/]",
		store.StatusDone:       "- [x]",
		store.StatusCancelled:  "- [-]",
	}
	priorityGlyph = map[store.Priority]string{
		store.PriorityHigh:   glyphHighest,
		store.PriorityMedium: "",
		store.PriorityLow:    glyphLowest,
	}
)

// buildLine renders structured fields in task-line notation.
func buildLine(title string, st store.Status, pr store.Priority, tags []string, created, completed time.Time, note string) string {
	parts := []string{statusBrackets[st], title}
	for _, tag := range tags {
		parts = append(parts, "#"+tag)
	}
	if g := priorityGlyph[pr]; g != "" {
		parts = append(parts, g)
	}
	parts = append(parts, glyphCreated, created.Format(dateLayout))
	if st == store.StatusDone {
		parts = append(parts, glyphCompleted, completed.Format(dateLayout))
	}
	if note != "" {
		parts = append(parts, noteDelimiter, note)
	}
	return strings.Join(parts, " ")
}

func TestRoundTrip(t *testing.T) {
	p := newTestParser(newMemTags(), nil)
	created := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	completed := time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC)

	n := 0
	for _, title := range roundTripTitles {
		for st := range statusBrackets {
			for pr := range priorityGlyph {
				for _, tags := range roundTripTags {
					for _, note := range []string{"", "follow up later"} {
						n++
						line := buildLine(title, st, pr, tags, created, completed, note)
						rec := mustParse(t, p, line)

						if rec.Title != title || rec.Status != st || rec.Priority != pr || rec.Note != note {
							t.Fatalf("%q: got %+v", line, rec)
						}
						if len(rec.Tags) != len(tags) || (len(tags) > 0 && !reflect.DeepEqual(rec.Tags, tags)) {
							t.Fatalf("%q: tags %v, want %v", line, rec.Tags, tags)
						}
						if !rec.CreatedAt.Equal(created.Add(createdHour * time.Hour)) {
							t.Fatalf("%q: CreatedAt %v", line, rec.CreatedAt)
						}
						if st == store.StatusDone {
							if rec.CompletedAt == nil || !rec.CompletedAt.Equal(completed.Add(completedHour*time.Hour)) {
								t.Fatalf("%q: CompletedAt %v", line, rec.CompletedAt)
							}
						} else if rec.CompletedAt != nil {
							t.Fatalf("%q: unexpected CompletedAt", line)
						}
					}
				}
			}
		}
	}
	if n != len(roundTripTitles)*4*3*len(roundTripTags)*2 {
		t.Fatalf("round trip covered %d lines", n)
	}
}
