package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/tasklist/internal/importer"
	"github.com/sadopc/tasklist/internal/store"
)

var errInvalidLimit = errors.New("limit must be a non-negative integer")

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id "+strconv.Quote(c.Param("id")))
		return 0, false
	}
	return id, true
}

// todoFilter reads the list query. start/end are accepted under their
// original names startDate/endDate too.
func (s *Server) todoFilter(c *gin.Context) (store.TodoFilter, error) {
	var f store.TodoFilter
	if v := c.Query("status"); v != "" {
		st, err := store.ParseStatus(v)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}
	if v := c.Query("priority"); v != "" {
		p, err := store.ParsePriority(v)
		if err != nil {
			return f, err
		}
		f.Priority = &p
	}
	f.Tag = strings.TrimSpace(c.Query("tag"))

	for _, bound := range []struct {
		keys []string
		dst  **time.Time
	}{
		{[]string{"start", "startDate"}, &f.From},
		{[]string{"end", "endDate"}, &f.To},
	} {
		for _, k := range bound.keys {
			v := c.Query(k)
			if v == "" {
				continue
			}
			t, err := parseTime(v, s.loc)
			if err != nil {
				return f, err
			}
			*bound.dst = &t
			break
		}
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errInvalidLimit
		}
		f.Limit = n
	}
	return f, nil
}

func (s *Server) handleListTodos(c *gin.Context) {
	f, err := s.todoFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	items, err := s.store.ListTodos(f)
	if err != nil {
		s.failErr(c, "list todos", err)
		return
	}
	respondList(c, newTodoDTOs(items, s.loc))
}

func (s *Server) handleGetTodo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := s.store.GetTodo(id)
	if err != nil {
		s.failErr(c, "get todo", err)
		return
	}
	respond(c, newTodoDTO(item, s.loc), "")
}

func (s *Server) handleCreateTodo(c *gin.Context) {
	var in todoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if in.Title == nil {
		fail(c, http.StatusBadRequest, "title is required")
		return
	}
	p, err := in.patch(s.loc)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	item := &store.TodoItem{
		Title:      *p.Title,
		Tags:       s.reconcileTags(p.Tags),
		ImagePaths: p.ImagePaths,
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Priority != nil {
		item.Priority = *p.Priority
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	item.CompletedAt = p.CompletedAt
	if item.Status == store.StatusDone && item.CompletedAt == nil {
		now := time.Now()
		item.CompletedAt = &now
	}

	created, err := s.store.CreateTodo(item)
	if err != nil {
		s.failErr(c, "create todo", err)
		return
	}
	respond(c, newTodoDTO(created, s.loc), "todo created")
}

type quickAddInput struct {
	Line string `json:"line"`
}

// handleQuickAdd creates a todo from a single task line, with the same
// parsing as an import.
func (s *Server) handleQuickAdd(c *gin.Context) {
	var in quickAddInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.importer.Parser().ParseLine(in.Line)
	if err != nil {
		fail(c, http.StatusBadRequest, "parse line: "+err.Error())
		return
	}
	created, err := s.store.CreateTodo(rec.TodoItem())
	if err != nil {
		s.failErr(c, "create todo", err)
		return
	}
	respond(c, newTodoDTO(created, s.loc), "todo created")
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in todoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	p, err := in.patch(s.loc)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if p.Tags != nil {
		p.Tags = s.reconcileTags(p.Tags)
	}
	updated, err := s.store.UpdateTodo(id, p)
	if err != nil {
		s.failErr(c, "update todo", err)
		return
	}
	respond(c, newTodoDTO(updated, s.loc), "todo updated")
}

type statusInput struct {
	Status *int `json:"status"`
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in statusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if in.Status == nil {
		fail(c, http.StatusBadRequest, "status is required")
		return
	}
	st := store.Status(*in.Status)
	if !st.Valid() {
		fail(c, http.StatusBadRequest, "invalid status "+strconv.Itoa(*in.Status))
		return
	}
	updated, err := s.store.UpdateTodoStatus(id, st)
	if err != nil {
		s.failErr(c, "update status", err)
		return
	}
	respond(c, newTodoDTO(updated, s.loc), "status updated")
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteTodo(id); err != nil {
		s.failErr(c, "delete todo", err)
		return
	}
	respond(c, nil, "todo deleted")
}

// reconcileTags trims names, drops blanks and makes sure each tag exists.
// Tags that fail to reconcile are kept on the item and logged.
func (s *Server) reconcileTags(names []string) []string {
	if names == nil {
		return nil
	}
	r := importer.NewReconciler(s.store)
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, err := r.Reconcile(n); err != nil {
			s.logger.Printf("reconcile tag %q: %v", n, err)
		}
		out = append(out, n)
	}
	return out
}
