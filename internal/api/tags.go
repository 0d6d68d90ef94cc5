package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListTags(c *gin.Context) {
	tags, err := s.store.ListTags()
	if err != nil {
		s.failErr(c, "list tags", err)
		return
	}
	out := make([]tagDTO, len(tags))
	for i := range tags {
		out[i] = newTagDTO(&tags[i], s.loc)
	}
	respondList(c, out)
}

func (s *Server) handleGetTag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	tag, err := s.store.GetTag(id)
	if err != nil {
		s.failErr(c, "get tag", err)
		return
	}
	respond(c, newTagDTO(tag, s.loc), "")
}

// handleCreateTag returns the existing tag when the name is already taken.
func (s *Server) handleCreateTag(c *gin.Context) {
	var in tagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}
	tag, err := s.store.CreateTag(in.Name, in.Color)
	if err != nil {
		s.failErr(c, "create tag", err)
		return
	}
	respond(c, newTagDTO(tag, s.loc), "tag created")
}

func (s *Server) handleUpdateTag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in tagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	tag, err := s.store.UpdateTag(id, in.Name, in.Color)
	if err != nil {
		s.failErr(c, "update tag", err)
		return
	}
	respond(c, newTagDTO(tag, s.loc), "tag updated")
}

func (s *Server) handleDeleteTag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteTag(id); err != nil {
		s.failErr(c, "delete tag", err)
		return
	}
	respond(c, nil, "tag deleted")
}
