package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/maxaizer/apply-archive/internal/clients/applications"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/maxaizer/apply-archive/internal/events"
	"github.com/maxaizer/apply-archive/internal/logger"
	"github.com/maxaizer/apply-archive/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

const (
	backendRemote = "remote"
	backendLocal  = "local"
)

type RecordBackend interface {
	List(ctx context.Context) ([]entities.JobRecord, error)
	Get(ctx context.Context, id string) (*entities.JobRecord, error)
	Create(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error)
	Update(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type RemoteBackend interface {
	RecordBackend
	Upload(ctx context.Context, fileName string, content []byte) (string, error)
	Health(ctx context.Context) (applications.HealthStatus, error)
}

type LocalBackend interface {
	RecordBackend
	Count(ctx context.Context) int
	LoadFilter(ctx context.Context) entities.FilterState
	SaveFilter(ctx context.Context, filter entities.FilterState) error
	LoadConnectivity(ctx context.Context) bool
	SaveConnectivity(ctx context.Context, connected bool) error
}

// ConnectivityState is the last observed reachability of the remote backend.
type ConnectivityState struct {
	LastKnownConnected bool
	CheckedAt          time.Time
}

// Storage routes every record operation to the remote backend when it is configured and
// falls back to the local one when the remote cannot serve the call. Connectivity problems
// never surface as errors; they are reported as notices on the bus.
type Storage struct {
	bus    EventBus.Bus
	remote RemoteBackend
	local  LocalBackend

	mu    sync.Mutex
	state ConnectivityState

	now   func() time.Time
	newID func() string
}

// NewStorage creates the coordinator. A nil remote disables every network attempt.
func NewStorage(ctx context.Context, bus EventBus.Bus, local LocalBackend, remote RemoteBackend) *Storage {
	s := &Storage{
		bus:    bus,
		remote: remote,
		local:  local,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	s.state = ConnectivityState{LastKnownConnected: local.LoadConnectivity(ctx)}
	return s
}

func (s *Storage) RemoteEnabled() bool {
	return s.remote != nil
}

func (s *Storage) Connectivity() ConnectivityState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Storage) ListRecords(ctx context.Context) []entities.JobRecord {
	const operation = "list"

	if s.RemoteEnabled() {
		records, err := s.remote.List(ctx)
		if s.remoteSucceeded(ctx, operation, err) {
			return records
		}
		s.notify(events.NoticeInfo, operation, "Failed to fetch data from the server. Using local storage instead.")
	}

	records, err := s.local.List(ctx)
	s.observeLocal(operation, err)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeLocalStore).
			Errorf("failed to read local records: %v", err)
		return []entities.JobRecord{}
	}
	return records
}

// GetRecord returns nil, nil when no backend knows the id.
func (s *Storage) GetRecord(ctx context.Context, id string) (*entities.JobRecord, error) {
	const operation = "get"

	if id == "" {
		return nil, errors.New("record id is required")
	}

	if s.RemoteEnabled() {
		record, err := s.remote.Get(ctx, id)
		if s.remoteSucceeded(ctx, operation, err) {
			return record, nil
		}
		s.notify(events.NoticeInfo, operation, "Failed to fetch data from the server. Using local storage instead.")
	}

	record, err := s.local.Get(ctx, id)
	s.observeLocal(operation, err)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeLocalStore).
			Errorf("failed to read local record %s: %v", id, err)
		return nil, nil
	}
	return record, nil
}

// CreateRecord assigns the id, status and version marker the caller left empty and returns
// the record as persisted by the backend that accepted it.
func (s *Storage) CreateRecord(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error) {
	const operation = "create"

	if record.ID == "" {
		record.ID = s.newID()
	}
	if record.Status == "" {
		record.Status = entities.StatusApplied
	}
	record.LastUpdated = s.nextTimestamp("")

	if s.RemoteEnabled() {
		created, err := s.remote.Create(ctx, record)
		if s.remoteSucceeded(ctx, operation, err) {
			s.notify(events.NoticeSuccess, operation, "Job application added successfully.")
			return created, nil
		}
		s.notify(events.NoticeInfo, operation, "Failed to save to server. Saving to local storage instead.")
	}

	created, err := s.local.Create(ctx, record)
	s.observeLocal(operation, err)
	if err != nil {
		return s.localWriteFailed(operation, record, err)
	}
	s.notify(events.NoticeSuccess, operation, "Job application added successfully.")
	return created, nil
}

// UpdateRecord rewrites lastUpdated to a value not earlier than the one the caller holds.
func (s *Storage) UpdateRecord(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error) {
	const operation = "update"

	if record.ID == "" {
		return entities.JobRecord{}, errors.New("record id is required")
	}
	record.LastUpdated = s.nextTimestamp(record.LastUpdated)

	if s.RemoteEnabled() {
		updated, err := s.remote.Update(ctx, record)
		if s.remoteSucceeded(ctx, operation, err) {
			s.notify(events.NoticeSuccess, operation, "Job application updated successfully.")
			return updated, nil
		}
		s.notify(events.NoticeInfo, operation, "Failed to update on server. Updating in local storage instead.")
	}

	updated, err := s.local.Update(ctx, record)
	s.observeLocal(operation, err)
	if err != nil {
		return s.localWriteFailed(operation, record, err)
	}
	s.notify(events.NoticeSuccess, operation, "Job application updated successfully.")
	return updated, nil
}

// DeleteRecord is idempotent: false means no backend knew the id.
func (s *Storage) DeleteRecord(ctx context.Context, id string) (bool, error) {
	const operation = "delete"

	if id == "" {
		return false, errors.New("record id is required")
	}

	if s.RemoteEnabled() {
		deleted, err := s.remote.Delete(ctx, id)
		if s.remoteSucceeded(ctx, operation, err) {
			if deleted {
				s.notify(events.NoticeSuccess, operation, "Job application deleted successfully.")
			}
			return deleted, nil
		}
		s.notify(events.NoticeInfo, operation, "Failed to delete from server. Deleting from local storage instead.")
	}

	deleted, err := s.local.Delete(ctx, id)
	s.observeLocal(operation, err)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeLocalStore).
			Errorf("failed to delete local record %s: %v", id, err)
		s.notify(events.NoticeWarning, operation, "Failed to save job data.")
		return false, nil
	}
	if deleted {
		s.notify(events.NoticeSuccess, operation, "Job application deleted successfully.")
	}
	return deleted, nil
}

func (s *Storage) ApplicationCount(ctx context.Context) int {
	return s.local.Count(ctx)
}

// CheckHealth probes the remote backend and records the verdict.
func (s *Storage) CheckHealth(ctx context.Context) ConnectivityState {
	if !s.RemoteEnabled() {
		s.setConnected(ctx, false)
		return s.Connectivity()
	}

	status, err := s.remote.Health(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeRemoteApi).
			Warnf("applications api health check failed: %v", err)
	}
	connected := err == nil && status.IsOK()
	s.setConnected(ctx, connected)

	if connected {
		s.notify(events.NoticeSuccess, "health", "Connected to the applications server.")
	} else {
		s.notify(events.NoticeInfo, "health", "Applications server is unavailable. Using local storage.")
	}
	return s.Connectivity()
}

// remoteSucceeded records the outcome of a remote call and reports whether its result can be used.
// Any failure falls back to local. The connectivity flag tracks whether the server could be
// reached, not whether it accepted the request, so a 4xx answer keeps it connected.
func (s *Storage) remoteSucceeded(ctx context.Context, operation string, err error) bool {
	if err == nil {
		metrics.StorageOperations.WithLabelValues(operation, backendRemote, "success").Inc()
		s.setConnected(ctx, true)
		return true
	}

	metrics.StorageOperations.WithLabelValues(operation, backendRemote, "error").Inc()
	metrics.StorageFallbacks.WithLabelValues(operation).Inc()

	unreachable := applications.IsUnreachable(err)
	if unreachable {
		log.Warnf("applications api unreachable during %s, falling back to local storage: %v", operation, err)
	} else {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeRemoteApi).
			Errorf("applications api rejected %s, falling back to local storage: %v", operation, err)
	}
	s.setConnected(ctx, !unreachable)
	return false
}

func (s *Storage) observeLocal(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.StorageOperations.WithLabelValues(operation, backendLocal, outcome).Inc()
}

// localWriteFailed keeps the caller's version after a failed local write; invariant
// violations are returned as errors.
func (s *Storage) localWriteFailed(operation string, record entities.JobRecord, err error) (entities.JobRecord, error) {
	if isInvariantViolation(err) {
		return entities.JobRecord{}, err
	}
	log.WithField(logger.ErrorTypeField, logger.ErrorTypeLocalStore).
		Errorf("failed to %s local record %s: %v", operation, record.ID, err)
	s.notify(events.NoticeWarning, operation, "Failed to save job data.")
	return record, nil
}

func (s *Storage) setConnected(ctx context.Context, connected bool) {
	s.mu.Lock()
	changed := s.state.LastKnownConnected != connected || s.state.CheckedAt.IsZero()
	s.state = ConnectivityState{LastKnownConnected: connected, CheckedAt: s.now()}
	state := s.state
	s.mu.Unlock()

	if !changed {
		return
	}
	if err := s.local.SaveConnectivity(ctx, connected); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeLocalStore).
			Errorf("failed to persist connectivity state: %v", err)
	}
	s.bus.Publish(events.ConnectivityChangedTopic, events.ConnectivityChanged{
		Connected: state.LastKnownConnected,
		CheckedAt: state.CheckedAt,
	})
}

func (s *Storage) notify(level events.NoticeLevel, operation, message string) {
	s.bus.Publish(events.NoticeTopic, events.Notice{Level: level, Operation: operation, Message: message})
}

// nextTimestamp returns the current time, moved past previous when the clock has not advanced.
func (s *Storage) nextTimestamp(previous string) string {
	now := s.now().UTC().Truncate(time.Millisecond)
	if previous != "" {
		if prev, err := time.Parse(time.RFC3339Nano, previous); err == nil && !now.After(prev) {
			now = prev.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
		}
	}
	return now.Format(timestampLayout)
}
