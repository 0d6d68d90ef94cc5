// Package api serves the todo, tag, file and import endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/tasklist/internal/importer"
	"github.com/sadopc/tasklist/internal/store"
	"github.com/sadopc/tasklist/internal/upload"
)

const (
	maxImportBody = 4 << 20 // 4MB
	shutdownGrace = 5 * time.Second
)

// Server is the tasklist HTTP API.
type Server struct {
	store    *store.Store
	uploads  *upload.Store
	importer *importer.Importer
	logger   *log.Logger
	loc      *time.Location
	origins  []string
	router   *gin.Engine
}

type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the zone JSON timestamps are written in and zone-less
// input timestamps are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithAllowedOrigins enables CORS for the given origins. "*" allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// NewServer creates the API server and registers its routes.
func NewServer(st *store.Store, uploads *upload.Store, im *importer.Importer, opts ...Option) *Server {
	s := &Server{
		store:    st,
		uploads:  uploads,
		importer: im,
		logger:   log.New(os.Stderr, "api: ", log.LstdFlags),
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.RecoveryWithWriter(s.logger.Writer()), s.logRequests(), s.cors())
	s.router = router

	api := router.Group("/api")
	{
		api.GET("/todos", s.handleListTodos)
		api.POST("/todos", s.handleCreateTodo)
		api.POST("/todos/quick", s.handleQuickAdd)
		api.GET("/todos/:id", s.handleGetTodo)
		api.PUT("/todos/:id", s.handleUpdateTodo)
		api.PATCH("/todos/:id/status", s.handleUpdateStatus)
		api.DELETE("/todos/:id", s.handleDeleteTodo)

		api.GET("/tags", s.handleListTags)
		api.POST("/tags", s.handleCreateTag)
		api.GET("/tags/:id", s.handleGetTag)
		api.PUT("/tags/:id", s.handleUpdateTag)
		api.DELETE("/tags/:id", s.handleDeleteTag)

		api.POST("/files/upload", s.handleUpload)
		api.POST("/files/upload/multiple", s.handleUploadMultiple)
		api.GET("/files/:name", s.handleGetFile)
		api.DELETE("/files/:name", s.handleDeleteFile)

		api.POST("/import/todos", s.handleImport)
		api.GET("/imports", s.handleListImports)
	}

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          s.logger,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Printf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (slices.Contains(s.origins, origin) || slices.Contains(s.origins, "*")) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Response envelopes

func respond(c *gin.Context, data any, message string) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(http.StatusOK, body)
}

func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"total":   len(items),
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"message": message,
	})
}

// failErr maps store and upload errors to status codes.
func (s *Server) failErr(c *gin.Context, prefix string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, store.ErrTagNameTaken):
		code = http.StatusConflict
	case errors.Is(err, upload.ErrEmptyFile),
		errors.Is(err, upload.ErrTooLarge),
		errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, upload.ErrInvalidName):
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		s.logger.Printf("%s: %v", prefix, err)
	}
	fail(c, code, prefix+": "+err.Error())
}

func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

var errBodyTooLarge = errors.New("request body too large")
