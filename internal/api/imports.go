package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/tasklist/internal/importer"
)

// handleImport imports the plain-text body one task per line. An empty body
// imports the built-in sample batch.
func (s *Server) handleImport(c *gin.Context) {
	body, err := readAllLimited(c.Request.Body, maxImportBody)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		fail(c, code, "read body: "+err.Error())
		return
	}

	source := "api"
	lines := importer.SeedLines
	if strings.TrimSpace(string(body)) != "" {
		lines, err = importer.ReadLines(strings.NewReader(string(body)))
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		source = "seed"
	}

	res, err := s.importer.Run(c.Request.Context(), source, lines)
	if err != nil {
		s.logger.Printf("import: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"data":    newImportResultDTO(res),
			"message": "import failed: " + err.Error(),
		})
		return
	}
	respond(c, newImportResultDTO(res), "imported "+strconv.Itoa(res.Imported)+" todos")
}

func (s *Server) handleListImports(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fail(c, http.StatusBadRequest, errInvalidLimit.Error())
			return
		}
		limit = n
	}
	runs, err := s.store.ListImportRuns(limit)
	if err != nil {
		s.failErr(c, "list imports", err)
		return
	}
	out := make([]importRunDTO, len(runs))
	for i, r := range runs {
		out[i] = importRunDTO{
			ID:         r.ID,
			Source:     r.Source,
			Imported:   r.Imported,
			Skipped:    r.Skipped,
			StartedAt:  formatTime(r.StartedAt, s.loc),
			FinishedAt: formatTime(r.FinishedAt, s.loc),
		}
	}
	respondList(c, out)
}
