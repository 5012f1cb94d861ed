package api

import (
	"github.com/maxaizer/apply-archive/internal/logger"
	log "github.com/sirupsen/logrus"
	"net/http"
	"os"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleHealth reports "limited" when the database works but uploads cannot be stored.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.records.Ping(r.Context()); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("health check failed: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, healthResponse{Status: "error", Message: "Database unavailable"})
		return
	}

	if err := s.checkUploadsWritable(); err != nil {
		log.Warnf("uploads directory is not writable: %v", err)
		s.writeJSON(w, http.StatusOK, healthResponse{Status: "limited", Message: "Database connected, uploads unavailable"})
		return
	}

	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Server is running"})
}

func (s *Server) checkUploadsWritable() error {
	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(s.uploadsDir, ".health-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
