package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/sadopc/tasklist/internal/api"
	"github.com/sadopc/tasklist/internal/config"
	"github.com/sadopc/tasklist/internal/export"
	"github.com/sadopc/tasklist/internal/importer"
	"github.com/sadopc/tasklist/internal/store"
	"github.com/sadopc/tasklist/internal/tui"
	"github.com/sadopc/tasklist/internal/upload"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// env is what every command needs: the loaded config and an open store.
type env struct {
	cfg   *config.Config
	store *store.Store
	loc   *time.Location
}

func openEnv(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	return &env{cfg: cfg, store: s, loc: loc}, nil
}

func (e *env) Close() error { return e.store.Close() }

func (e *env) importer(logger *log.Logger) *importer.Importer {
	return importer.New(e.store, e.store,
		importer.WithRunRecorder(e.store),
		importer.WithImportLogger(logger),
		importer.WithParserOptions(importer.WithLocation(e.loc)),
	)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r any) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runTUI(configPath string) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return fmt.Errorf("the terminal UI needs a terminal; see tasklist --help for subcommands")
	}
	e, err := openEnv(configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	app := tui.NewApp(e.store, tui.WithLocation(e.loc))
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func newServeCmd(configPath *string) *cobra.Command {
	var (
		addr  string
		debug bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the JSON API until interrupted.

Examples:
  tasklist serve
  tasklist serve --addr 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}

			logger := log.New(cmd.ErrOrStderr(), "tasklist: ", log.LstdFlags)
			uploads := upload.New(e.cfg.Upload.Dir, e.cfg.MaxUploadBytes(), e.cfg.Upload.Extensions)
			srv := api.NewServer(e.store, uploads,
				e.importer(log.New(cmd.ErrOrStderr(), "import: ", log.LstdFlags)),
				api.WithLogger(logger),
				api.WithLocation(e.loc),
				api.WithAllowedOrigins(e.cfg.Server.AllowedOrigins...),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "run gin in debug mode")
	return cmd
}

func newImportCmd(configPath *string) *cobra.Command {
	var (
		seed    bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Import Markdown task lines",
		Long: `Import Markdown task lines such as

  - [x] ship release #work ⏫ ➕ 2025-09-01 ✅ 2025-09-02

one todo per line. Reads stdin when the file is "-" or omitted.
With --seed, imports the built-in sample batch instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed && len(args) > 0 {
				return fmt.Errorf("--seed takes no file argument")
			}
			if !seed && len(args) == 0 && isTerminal(cmd.InOrStdin()) {
				return fmt.Errorf("no input: pass a file, pipe task lines, or use --seed")
			}

			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			logOut := io.Discard
			if verbose {
				logOut = cmd.ErrOrStderr()
			}
			im := e.importer(log.New(logOut, "import: ", log.LstdFlags))

			var (
				lines  []string
				source string
			)
			switch {
			case seed:
				lines, source = importer.SeedLines, "seed"
			case len(args) == 0 || args[0] == "-":
				source = "stdin"
				if lines, err = importer.ReadLines(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			default:
				source = filepath.Base(args[0])
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				lines, err = importer.ReadLines(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
			}

			res, err := im.Run(cmd.Context(), source, lines)
			out := cmd.OutOrStdout()
			for _, l := range res.Lines {
				if !l.Imported() && strings.TrimSpace(l.Line) != "" {
					fmt.Fprintf(out, "skipped line %d: %s\n", l.Number, l.Reason)
				}
			}
			fmt.Fprintf(out, "imported %d, skipped %d (run %s)\n", res.Imported, res.Skipped, res.RunID)
			return err
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "import the built-in sample tasks")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every line to stderr")
	return cmd
}

func newExportCmd(configPath *string) *cobra.Command {
	var (
		format string
		out    string
		tag    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export todos to CSV, JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if out == "" {
				out = fmt.Sprintf("tasklist-export-%s.%s", time.Now().Format("2006-01-02"), format)
			}

			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			todos, err := e.store.ListTodos(store.TodoFilter{Tag: tag})
			if err != nil {
				return err
			}
			tags, err := e.store.ListTags()
			if err != nil {
				return err
			}
			if err := export.Write(format, todos, export.TagIndex(tags), out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d todos to %s\n", len(todos), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatCSV, "output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default tasklist-export-DATE.FORMAT)")
	cmd.Flags().StringVar(&tag, "tag", "", "only export todos carrying this tag")
	return cmd
}

func newListCmd(configPath *string) *cobra.Command {
	var (
		status string
		tag    string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.TodoFilter{Tag: tag, Limit: limit}
			if status != "" {
				st, err := store.ParseStatus(status)
				if err != nil {
					return err
				}
				f.Status = &st
			}

			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			todos, err := e.store.ListTodos(f)
			if err != nil {
				return err
			}
			if len(todos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no todos")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tTITLE\tTAGS")
			for _, t := range todos {
				tags := make([]string, len(t.Tags))
				for i, name := range t.Tags {
					tags[i] = "#" + name
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Title, strings.Join(tags, " "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "only todos in this status (todo, in_progress, done, cancelled)")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only todos carrying this tag")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of todos (0 = all)")
	return cmd
}

func newTagsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with their colour and usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			tags, err := e.store.ListTags()
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no tags")
				return nil
			}

			todos, err := e.store.ListTodos(store.TodoFilter{})
			if err != nil {
				return err
			}
			usage := make(map[string]int)
			for _, t := range todos {
				for _, name := range t.Tags {
					usage[name]++
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCOLOR\tTODOS")
			for _, t := range tags {
				fmt.Fprintf(w, "%s\t%s\t%d\n", t.Name, t.Color, usage[t.Name])
			}
			return w.Flush()
		},
	}
}

