package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/tasklist/internal/upload"
)

func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.uploads.Save(fh.Filename, fh.Size, f)
}

func (s *Server) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file is required")
		return
	}
	name, err := s.saveUpload(fh)
	if err != nil {
		s.failErr(c, "upload failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"fileName": name,
		"fileUrl":  upload.URL(name),
		"message":  "file uploaded",
	})
}

// handleUploadMultiple stores every file or none: files saved before a
// failure are removed again.
func (s *Server) handleUploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		fail(c, http.StatusBadRequest, "files are required")
		return
	}

	var names, urls []string
	for _, fh := range form.File["files"] {
		name, err := s.saveUpload(fh)
		if err != nil {
			if derr := s.uploads.DeleteAll(names); derr != nil {
				s.logger.Printf("clean up partial upload: %v", derr)
			}
			s.failErr(c, "upload failed", fmt.Errorf("%s: %w", fh.Filename, err))
			return
		}
		names = append(names, name)
		urls = append(urls, upload.URL(name))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"fileNames": names,
		"fileUrls":  urls,
		"message":   "files uploaded",
	})
}

func (s *Server) handleGetFile(c *gin.Context) {
	name := c.Param("name")
	path, err := s.uploads.Path(name)
	if err != nil {
		s.failErr(c, "get file", err)
		return
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		fail(c, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		s.failErr(c, "get file", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	c.File(path)
}

func (s *Server) handleDeleteFile(c *gin.Context) {
	if err := s.uploads.Delete(c.Param("name")); err != nil {
		s.failErr(c, "delete file", err)
		return
	}
	respond(c, nil, "file deleted")
}
