package importer

import (
	"reflect"
	"testing"
	"time"

	"github.com/sadopc/tasklist/internal/store"
)

func TestExtractStatus(t *testing.T) {
	cases := []struct {
		line string
		want store.Status
	}{
		{"- [x] done thing", store.StatusDone},
		{"- [/] doing thing", store.StatusInProgress},
		{"- [ ] open thing", store.StatusTodo},
		{"- [-] dropped thing", store.StatusCancelled},
		{"plain line", store.StatusTodo},
		{"  - [x] indented", store.StatusDone},
		{"[x] no dash", store.StatusTodo},
	}
	for _, c := range cases {
		if got := ExtractStatus(c.line); got != c.want {
			t.Errorf("ExtractStatus(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestStripTitle(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"- [x] Deploy service #ProjectA ⏫ ➕ 2025-08-29 ✅ 2025-08-29", "Deploy service"},
		{"- [ ] Personal errand #Personal", "Personal errand"},
		{"- [/] Note task ;; remember to follow up #Y 🔺", "Note task"},
		{"- [-] dropped 📅 2025-09-05 🛫 2025-09-01 ❌ 2025-09-02", "dropped"},
		{"no marker at all", "no marker at all"},
		{"  - [x]   padded title   ", "padded title"},
		{"- [x] #only #tags ⏫ 2025-01-01", ""},
		{"- [ ] ;; just a note", ""},
		{"- [x] check ✅️ 2025-08-29", "check"},
	}
	for _, c := range cases {
		if got := StripTitle(c.line); got != c.want {
			t.Errorf("StripTitle(%q) = %q, want %q", c.line, got, c.want)
		}
	}
}

func TestStripTitleOnlyRemovesLeadingBracket(t *testing.T) {
	got := StripTitle("- [x] compare - [ ] lists")
	if got != "compare - [ ] lists" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractTags(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{"- [x] a #one b #two", []string{"one", "two"}},
		{"- [x] #迁云项目-阿里云 thing", []string{"迁云项目-阿里云"}},
		{"dup #a #a", []string{"a", "a"}},
		{"no tags", []string{}},
		{"trailing glyph #tag⏫", []string{"tag⏫"}},
	}
	for _, c := range cases {
		got := ExtractTags(c.line)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ExtractTags(%q) = %#v, want %#v", c.line, got, c.want)
		}
	}
}

func TestExtractPriority(t *testing.T) {
	cases := []struct {
		line string
		want store.Priority
	}{
		{"x ⏫", store.PriorityHigh},
		{"x 🔺", store.PriorityHigh},
		{"x 🔼", store.PriorityHigh},
		{"x 🔽", store.PriorityLow},
		{"x ⏬", store.PriorityLow},
		{"x", store.PriorityMedium},
		{"x 🔽 then ⏫", store.PriorityHigh},
	}
	for _, c := range cases {
		if got := ExtractPriority(c.line); got != c.want {
			t.Errorf("ExtractPriority(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestExtractNote(t *testing.T) {
	cases := []struct {
		line  string
		want  string
		found bool
	}{
		{"task ;; remember this ", "remember this", true},
		{"task ;;no space", "no space", true},
		{"task ;; first ;; second", "first ;; second", true},
		{"task ;;   ", "", false},
		{"task without note", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractNote(c.line)
		if got != c.want || ok != c.found {
			t.Errorf("ExtractNote(%q) = %q, %v; want %q, %v", c.line, got, ok, c.want, c.found)
		}
	}
}

func TestExtractCreated(t *testing.T) {
	got, ok := ExtractCreated("x ➕ 2025-08-29", time.UTC)
	if !ok {
		t.Fatal("expected created date")
	}
	want := time.Date(2025, 8, 29, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, ok := ExtractCreated("x ➕2025-08-29", time.UTC); !ok {
		t.Fatal("glyph directly followed by date should match")
	}
	if _, ok := ExtractCreated("x 2025-08-29", time.UTC); ok {
		t.Fatal("bare date is not a created date")
	}
	if _, ok := ExtractCreated("x ✅ 2025-08-29", time.UTC); ok {
		t.Fatal("completion glyph is not a created date")
	}
	if _, ok := ExtractCreated("x ➕ 2025-13-45", time.UTC); ok {
		t.Fatal("invalid calendar date should not be found")
	}
}

func TestExtractCompleted(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	got, ok := ExtractCompleted("x ➕ 2025-08-01 ✅ 2025-08-29", loc)
	if !ok {
		t.Fatal("expected completion date")
	}
	want := time.Date(2025, 8, 29, 18, 0, 0, 0, loc)
	if !got.Equal(want) || got.Location() != loc {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, ok := ExtractCompleted("x ✅ 2025-02-30", loc); ok {
		t.Fatal("Feb 30 should not be found")
	}
}

func TestColorFor(t *testing.T) {
	cases := map[string]string{
		"迁云项目-阿里云": "#ff4d4f",
		"oracle云项目":  "#faad14",
		"Oracle":      store.DefaultTagColor,
		"个人事项":        "#52c41a",
		"业务支撑":        "#1890ff",
		"阿里云个人":       "#ff4d4f",
		"misc":        "#722ed1",
	}
	for name, want := range cases {
		if got := ColorFor(name); got != want {
			t.Errorf("ColorFor(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestStripTitleRemovesEveryGlyph(t *testing.T) {
	glyphs := []string{
		glyphHighest, glyphHigh, glyphMedHigh, glyphLow, glyphLowest,
		glyphCreated, glyphCompleted, glyphDue, glyphStart, glyphCancelled,
	}
	for _, g := range glyphs {
		for _, suffix := range []string{"", "\uFE0F"} {
			line := "- [ ] ship it " + g + suffix
			if got := StripTitle(line); got != "ship it" {
				t.Errorf("StripTitle(%q) = %q, want %q", line, got, "ship it")
			}
		}
	}
}
