package importer

import (
	"regexp"
	"strings"
	"time"

	"github.com/sadopc/tasklist/internal/store"
)

// ExtractStatus returns the status whose marker the line contains, or todo.
func ExtractStatus(line string) store.Status {
	for _, m := range statusMarkers {
		if strings.Contains(line, m.marker) {
			return m.status
		}
	}
	return store.StatusTodo
}

// StripTitle removes every recognized marker from line and returns the
// trimmed remainder. An empty result means the line holds no title.
func StripTitle(line string) string {
	cleaned := statusPrefixRe.ReplaceAllString(line, "")
	cleaned = tagRe.ReplaceAllString(cleaned, "")
	cleaned = glyphRe.ReplaceAllString(cleaned, "")
	cleaned = dateRe.ReplaceAllString(cleaned, "")
	cleaned = noteRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// ExtractTags returns every #tag in the line in order of appearance.
// Duplicates are kept.
func ExtractTags(line string) []string {
	matches := tagRe.FindAllStringSubmatch(line, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// ExtractPriority returns high if any high glyph is present, else low if any
// low glyph is present, else medium.
func ExtractPriority(line string) store.Priority {
	if containsAny(line, highGlyphs) {
		return store.PriorityHigh
	}
	if containsAny(line, lowGlyphs) {
		return store.PriorityLow
	}
	return store.PriorityMedium
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ExtractNote returns the trimmed text after the first ";;". A missing
// delimiter or an empty remainder reports false.
func ExtractNote(line string) (string, bool) {
	_, after, found := strings.Cut(line, noteDelimiter)
	if !found {
		return "", false
	}
	note := strings.TrimSpace(after)
	if note == "" {
		return "", false
	}
	return note, true
}

// extractDate finds the date following re's glyph and pins it to hour in loc.
// A date that is not a real calendar day is reported as absent.
func extractDate(line string, re *regexp.Regexp, hour int, loc *time.Location) (time.Time, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(dateLayout, m[1], loc)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc), true
}

// ExtractCreated returns the ➕ date at 09:00 in loc. Invalid dates report false.
func ExtractCreated(line string, loc *time.Location) (time.Time, bool) {
	return extractDate(line, createdRe, createdHour, loc)
}

// ExtractCompleted returns the ✅ date at 18:00 in loc. Invalid dates report false.
func ExtractCompleted(line string, loc *time.Location) (time.Time, bool) {
	return extractDate(line, completedRe, completedHour, loc)
}
