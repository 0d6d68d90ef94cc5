package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sadopc/tasklist/internal/store"
)

// TodoCreator persists parsed records.
type TodoCreator interface {
	CreateTodo(item *store.TodoItem) (*store.TodoItem, error)
}

// RunRecorder stores a summary of each batch. Optional.
type RunRecorder interface {
	RecordImportRun(r store.ImportRun) error
}

// LineResult is the outcome for one input line.
type LineResult struct {
	Number int    // 1-based
	Line   string
	TodoID int64  // zero when skipped
	Title  string
	Reason string // why the line was skipped
}

func (l LineResult) Imported() bool { return l.TodoID != 0 }

// Result summarizes one batch.
type Result struct {
	RunID    string
	Source   string
	Imported int
	Skipped  int
	Lines    []LineResult
}

// Importer runs batches of lines through a Parser and hands each record to
// a TodoCreator, one line at a time and in input order.
type Importer struct {
	parser *Parser
	todos  TodoCreator
	runs   RunRecorder
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Importer)

// WithParserOptions configures the importer's parser.
func WithParserOptions(opts ...ParserOption) Option {
	return func(im *Importer) {
		for _, opt := range opts {
			opt(im.parser)
		}
	}
}

func WithRunRecorder(r RunRecorder) Option {
	return func(im *Importer) { im.runs = r }
}

func WithImportLogger(l *log.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
			im.parser.logger = l
		}
	}
}

// New returns an importer writing todos to todos and reconciling tags
// against tags.
func New(todos TodoCreator, tags TagStore, opts ...Option) *Importer {
	logger := log.New(os.Stderr, "import: ", log.LstdFlags)
	im := &Importer{
		parser: NewParser(NewReconciler(tags), WithLogger(logger)),
		todos:  todos,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Parser returns the parser used for each line, for callers that turn a
// single line into a todo without recording a run.
func (im *Importer) Parser() *Parser { return im.parser }

// Run imports lines. Lines that fail to parse or to store are counted as
// skipped and never stop the batch; only cancellation of ctx between lines
// does, and its error is returned along with the partial result.
func (im *Importer) Run(ctx context.Context, source string, lines []string) (Result, error) {
	res := Result{RunID: ulid.Make().String(), Source: source}
	started := im.now()
	im.logger.Printf("run %s: importing %d lines from %s", res.RunID, len(lines), source)

	var runErr error
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		lr := LineResult{Number: i + 1, Line: line}

		rec, err := im.parser.ParseLine(line)
		if err != nil {
			var skip *SkipError
			if errors.As(err, &skip) {
				lr.Reason = skip.Reason.Error()
			} else {
				lr.Reason = err.Error()
			}
			res.Skipped++
			res.Lines = append(res.Lines, lr)
			im.logger.Printf("line %d skipped (%s): %q", lr.Number, lr.Reason, line)
			continue
		}

		saved, err := im.todos.CreateTodo(rec.TodoItem())
		if err != nil {
			lr.Title = rec.Title
			lr.Reason = fmt.Sprintf("store todo: %v", err)
			res.Skipped++
			res.Lines = append(res.Lines, lr)
			im.logger.Printf("line %d skipped (%s): %q", lr.Number, lr.Reason, line)
			continue
		}
		lr.TodoID = saved.ID
		lr.Title = saved.Title
		res.Imported++
		res.Lines = append(res.Lines, lr)
		im.logger.Printf("line %d imported: %s", lr.Number, saved.Title)
	}

	im.logger.Printf("run %s finished: imported %d, skipped %d", res.RunID, res.Imported, res.Skipped)
	if im.runs != nil {
		err := im.runs.RecordImportRun(store.ImportRun{
			ID:         res.RunID,
			Source:     source,
			Imported:   res.Imported,
			Skipped:    res.Skipped,
			StartedAt:  started,
			FinishedAt: im.now(),
		})
		if err != nil {
			im.logger.Printf("run %s: record run: %v", res.RunID, err)
		}
	}
	return res, runErr
}

// Import reads lines from r and runs them as one batch.
func (im *Importer) Import(ctx context.Context, source string, r io.Reader) (Result, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return Result{Source: source}, err
	}
	return im.Run(ctx, source, lines)
}

// ReadLines splits r into lines without their terminators.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}
