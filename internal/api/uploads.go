package api

import (
	"fmt"
	"github.com/maxaizer/apply-archive/internal/logger"
	log "github.com/sirupsen/logrus"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	name := s.uploadName(header.Filename)
	if err := s.saveUpload(name, file); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeUpload).Errorf("failed to store upload %s: %v", name, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	log.Infof("stored upload %s (%d bytes)", name, header.Size)
	s.writeJSON(w, http.StatusOK, map[string]string{"filePath": s.basePath + "/files/" + name})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		s.writeJSONError(w, http.StatusNotFound, "File not found")
		return
	}

	path := filepath.Join(s.uploadsDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.writeJSONError(w, http.StatusNotFound, "File not found")
		return
	}
	http.ServeFile(w, r, path)
}

// uploadName keeps the original extension and replaces the rest with a unique name.
func (s *Server) uploadName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return fmt.Sprintf("file-%d-%d%s", s.now().UnixMilli(), rand.Int64N(1_000_000_000), ext)
}

func (s *Server) saveUpload(name string, content io.Reader) error {
	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return err
	}

	dst, err := os.OpenFile(filepath.Join(s.uploadsDir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(dst, content); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
