package importer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/sadopc/tasklist/internal/store"
)

var (
	ErrBlankLine  = errors.New("blank line")
	ErrEmptyTitle = errors.New("no title after stripping markers")
)

// SkipError explains why a line produced no record. Skipping is an expected
// outcome, not a batch failure.
type SkipError struct {
	Line   string
	Reason error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skip %q: %v", e.Line, e.Reason)
}

func (e *SkipError) Unwrap() error { return e.Reason }

// Record is one parsed task line.
type Record struct {
	Title       string
	Status      store.Status
	Priority    store.Priority
	Tags        []string
	Note        string // empty when the line has no note
	CreatedAt   time.Time
	CompletedAt *time.Time // set only for done records
	UpdatedAt   time.Time
}

// TodoItem converts the record into an unsaved store row.
func (r *Record) TodoItem() *store.TodoItem {
	item := &store.TodoItem{
		Title:       r.Title,
		Description: r.Note,
		Priority:    r.Priority,
		Status:      r.Status,
		Tags:        append([]string(nil), r.Tags...),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.CompletedAt != nil {
		ct := *r.CompletedAt
		item.CompletedAt = &ct
	}
	return item
}

// Parser parses single task lines. It is not safe for concurrent use when
// its reconciler is not.
type Parser struct {
	reconciler *Reconciler
	now        func() time.Time
	loc        *time.Location
	logger     *log.Logger
}

type ParserOption func(*Parser)

// WithClock replaces time.Now as the source of default timestamps.
func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) { p.now = now }
}

// WithLocation sets the zone parsed dates are interpreted in.
func WithLocation(loc *time.Location) ParserOption {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

func WithLogger(l *log.Logger) ParserOption {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser returns a parser that reconciles tags through r. A nil r skips
// tag reconciliation.
func NewParser(r *Reconciler, opts ...ParserOption) *Parser {
	p := &Parser{
		reconciler: r,
		now:        time.Now,
		loc:        time.Local,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseLine turns one line into a record. Lines that yield nothing return a
// *SkipError; no other error is returned. Tags are reconciled before the
// record is returned, so a caller persisting the record can rely on them.
func (p *Parser) ParseLine(line string) (rec *Record, err error) {
	defer func() {
		if v := recover(); v != nil {
			rec = nil
			err = &SkipError{Line: line, Reason: fmt.Errorf("panic while parsing: %v", v)}
		}
	}()

	if strings.TrimSpace(line) == "" {
		return nil, &SkipError{Line: line, Reason: ErrBlankLine}
	}

	status := ExtractStatus(line)
	title := StripTitle(line)
	if title == "" {
		return nil, &SkipError{Line: line, Reason: ErrEmptyTitle}
	}

	now := p.now()
	rec = &Record{
		Title:     title,
		Status:    status,
		Priority:  ExtractPriority(line),
		Tags:      p.extractTags(line),
		UpdatedAt: now,
	}
	if note, ok := ExtractNote(line); ok {
		rec.Note = note
	}

	rec.CreatedAt = now
	if when, ok := p.date(line, ExtractCreated, createdRe, "created"); ok {
		rec.CreatedAt = when
	}

	if status == store.StatusDone {
		completed := rec.CreatedAt
		if when, ok := p.date(line, ExtractCompleted, completedRe, "completion"); ok {
			completed = when
		}
		rec.CompletedAt = &completed
	}
	return rec, nil
}

// date runs extract in the parser's location. A glyph-tagged date that
// extract rejects is logged and treated as absent.
func (p *Parser) date(line string, extract func(string, *time.Location) (time.Time, bool), re *regexp.Regexp, role string) (time.Time, bool) {
	when, ok := extract(line, p.loc)
	if !ok {
		if m := re.FindStringSubmatch(line); m != nil {
			p.logger.Printf("ignoring %s date %q in %q: not a calendar date", role, m[1], line)
		}
	}
	return when, ok
}

// extractTags collects the line's tags and reconciles each one. A failed
// reconciliation is logged and the name is kept on the record.
func (p *Parser) extractTags(line string) []string {
	tags := ExtractTags(line)
	if p.reconciler == nil {
		return tags
	}
	for _, name := range tags {
		if _, err := p.reconciler.Reconcile(name); err != nil {
			p.logger.Printf("tag %q: %v", name, err)
		}
	}
	return tags
}
