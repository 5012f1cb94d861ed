package api

import (
	"encoding/json"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/maxaizer/apply-archive/internal/logger"
	"github.com/maxaizer/apply-archive/internal/repositories"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net/http"
)

const lastUpdatedLayout = "2006-01-02T15:04:05.000Z"

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.GetAll(r.Context())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list applications: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch applications")
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get application %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch application")
		return
	}
	if record == nil {
		s.writeJSONError(w, http.StatusNotFound, "Application not found")
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}

	err := s.records.Add(r.Context(), record)
	if errors.Is(err, repositories.ErrDuplicateID) {
		s.writeJSONError(w, http.StatusConflict, "Application with this id already exists")
		return
	}
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to create application: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to create application")
		return
	}
	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}

	found, err := s.records.Update(r.Context(), record)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to update application %s: %v", record.ID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to update application")
		return
	}
	if !found {
		s.writeJSONError(w, http.StatusNotFound, "Application not found")
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	found, err := s.records.Remove(r.Context(), id)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to delete application %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to delete application")
		return
	}
	if !found {
		s.writeJSONError(w, http.StatusNotFound, "Application not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Application deleted successfully"})
}

// decodeRecord reads the request body, fills server-side defaults and validates the result.
// The path id, when present, wins over the body.
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (entities.JobRecord, bool) {
	var record entities.JobRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return entities.JobRecord{}, false
	}

	if id := r.PathValue("id"); id != "" {
		record.ID = id
	}
	if record.Status == "" {
		record.Status = entities.StatusApplied
	}
	if record.LastUpdated == "" {
		record.LastUpdated = s.now().UTC().Format(lastUpdatedLayout)
	}

	if err := record.Validate(); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return entities.JobRecord{}, false
	}
	return record, true
}
