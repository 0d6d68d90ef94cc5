// Package importer turns emoji-annotated Markdown task lines into todo
// items, creating any tags they reference along the way.
//
// A line looks like
//
//	- [x] Deploy service #ProjectA ⏫ ➕ 2025-08-29 ✅ 2025-08-29 ;; notes
//
// The status bracket, tags, priority glyphs, dates and the ";;" note are all
// recognized by presence anywhere in the line; what is left once they are
// stripped is the title.
package importer

import (
	"regexp"
	"strings"

	"github.com/sadopc/tasklist/internal/store"
)

// Status markers in precedence order. The first one contained in a line wins.
var statusMarkers = []struct {
	marker string
	status store.Status
}{
	{"- [x]", store.StatusDone},
	{"- [/]", store.StatusInProgress},
	{"- [ ]", store.StatusTodo},
	{"- [-]", store.StatusCancelled},
}

const (
	glyphHighest   = "⏫"
	glyphHigh      = "🔺"
	glyphMedHigh   = "🔼"
	glyphLow       = "🔽"
	glyphLowest    = "⏬"
	glyphCreated   = "➕"
	glyphCompleted = "✅"
	glyphDue       = "📅"
	glyphStart     = "🛫"
	glyphCancelled = "❌"

	noteDelimiter = ";;"
	dateLayout    = "2006-01-02"
)

var (
	highGlyphs = []string{glyphHighest, glyphHigh, glyphMedHigh}
	lowGlyphs  = []string{glyphLow, glyphLowest}
	dateGlyphs = []string{glyphCreated, glyphCompleted, glyphDue, glyphStart, glyphCancelled}
)

// glyphPattern matches any recognized glyph, with an optional variation selector.
func glyphPattern() string {
	var alts []string
	for _, set := range [][]string{highGlyphs, lowGlyphs, dateGlyphs} {
		for _, g := range set {
			alts = append(alts, regexp.QuoteMeta(g))
		}
	}
	return `(?:` + strings.Join(alts, "|") + `)\x{FE0F}?`
}

func datePattern(glyph string) string {
	return regexp.QuoteMeta(glyph) + `\x{FE0F}?\s*(\d{4}-\d{2}-\d{2})`
}

// Fixed times of day applied to dates that carry no clock.
const (
	createdHour   = 9
	completedHour = 18
)

var (
	statusPrefixRe = regexp.MustCompile(`^\s*-\s*\[[x/\s-]\]\s*`)
	tagRe          = regexp.MustCompile(`#(\S+)`)
	glyphRe        = regexp.MustCompile(glyphPattern())
	dateRe         = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	noteRe         = regexp.MustCompile(`;;.*`)
	createdRe      = regexp.MustCompile(datePattern(glyphCreated))
	completedRe    = regexp.MustCompile(datePattern(glyphCompleted))
)

// Tag colors, assigned once when a tag is first created. First match wins.
var tagColorRules = []struct {
	substr string
	color  string
}{
	{"阿里云", "#ff4d4f"},
	{"oracle", "#faad14"},
	{"个人", "#52c41a"},
	{"业务", "#1890ff"},
}

// ColorFor picks the color a newly created tag named name receives.
func ColorFor(name string) string {
	for _, r := range tagColorRules {
		if strings.Contains(name, r.substr) {
			return r.color
		}
	}
	return store.DefaultTagColor
}
