package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/maxaizer/apply-archive/internal/logger"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"strconv"
)

const (
	JobsKey         = "jobs"
	FilterKey       = "jobFilter"
	ConnectivityKey = "remoteConnected"
	LogsKey         = "application_logs"
)

// LocalRecords keeps the whole record collection and the view preferences as independent
// serialized entries of the key-value area. Every mutation rewrites the full collection;
// concurrent mutations are not serialized.
type LocalRecords struct {
	data *Data
}

func NewLocalRecords(data *Data) *LocalRecords {
	return &LocalRecords{data: data}
}

// List never fails on corrupt data: an unreadable collection is an empty one.
func (l *LocalRecords) List(ctx context.Context) ([]entities.JobRecord, error) {
	raw, err := l.data.Load(ctx, JobsKey)
	if err != nil {
		return []entities.JobRecord{}, fmt.Errorf("failed to load local records: %w", err)
	}
	if raw == nil {
		return []entities.JobRecord{}, nil
	}

	var records []entities.JobRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeLocalStore).
			Warnf("local records are corrupt, treating them as empty: %v", err)
		return []entities.JobRecord{}, nil
	}
	if records == nil {
		records = []entities.JobRecord{}
	}
	return records, nil
}

func (l *LocalRecords) Get(ctx context.Context, id string) (*entities.JobRecord, error) {
	records, err := l.List(ctx)
	if err != nil {
		return nil, err
	}

	record, found := lo.Find(records, func(r entities.JobRecord) bool {
		return r.ID == id
	})
	if !found {
		return nil, nil
	}
	return &record, nil
}

func (l *LocalRecords) Create(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error) {
	records, err := l.List(ctx)
	if err != nil {
		return entities.JobRecord{}, err
	}

	if lo.ContainsBy(records, func(r entities.JobRecord) bool { return r.ID == record.ID }) {
		return entities.JobRecord{}, ErrDuplicateID
	}

	records = append(records, record)
	if err = l.save(ctx, records); err != nil {
		return entities.JobRecord{}, err
	}
	return record, nil
}

// Update replaces the record with the same id, or appends it when the local collection
// has never seen it.
func (l *LocalRecords) Update(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error) {
	records, err := l.List(ctx)
	if err != nil {
		return entities.JobRecord{}, err
	}

	_, index, found := lo.FindIndexOf(records, func(r entities.JobRecord) bool {
		return r.ID == record.ID
	})
	if found {
		records[index] = record
	} else {
		records = append(records, record)
	}

	if err = l.save(ctx, records); err != nil {
		return entities.JobRecord{}, err
	}
	return record, nil
}

func (l *LocalRecords) Delete(ctx context.Context, id string) (bool, error) {
	records, err := l.List(ctx)
	if err != nil {
		return false, err
	}

	remaining := lo.Reject(records, func(r entities.JobRecord, _ int) bool {
		return r.ID == id
	})
	if len(remaining) == len(records) {
		return false, nil
	}

	if err = l.save(ctx, remaining); err != nil {
		return false, err
	}
	return true, nil
}

func (l *LocalRecords) Count(ctx context.Context) int {
	records, _ := l.List(ctx)
	return len(records)
}

func (l *LocalRecords) save(ctx context.Context, records []entities.JobRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode local records: %w", err)
	}
	if err = l.data.Save(ctx, JobsKey, raw); err != nil {
		return fmt.Errorf("failed to save local records: %w", err)
	}
	return nil
}

// LoadFilter returns the saved view preference, or the default one when nothing valid is stored.
func (l *LocalRecords) LoadFilter(ctx context.Context) entities.FilterState {
	raw, err := l.data.Load(ctx, FilterKey)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeLocalStore).
			Errorf("failed to load saved filter: %v", err)
		return entities.DefaultFilter()
	}
	if raw == nil {
		return entities.DefaultFilter()
	}

	var filter entities.FilterState
	if err := json.Unmarshal(raw, &filter); err != nil || filter.Validate() != nil {
		log.Warn("saved filter is corrupt, using the default one")
		return entities.DefaultFilter()
	}
	return filter
}

func (l *LocalRecords) SaveFilter(ctx context.Context, filter entities.FilterState) error {
	raw, err := json.Marshal(filter)
	if err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}
	return l.data.Save(ctx, FilterKey, raw)
}

// LoadConnectivity reads the last observed remote reachability, false when unknown.
func (l *LocalRecords) LoadConnectivity(ctx context.Context) bool {
	raw, err := l.data.Load(ctx, ConnectivityKey)
	if err != nil || raw == nil {
		return false
	}
	connected, err := strconv.ParseBool(string(raw))
	return err == nil && connected
}

func (l *LocalRecords) SaveConnectivity(ctx context.Context, connected bool) error {
	return l.data.Save(ctx, ConnectivityKey, []byte(strconv.FormatBool(connected)))
}

func (l *LocalRecords) Logs(ctx context.Context) []entities.LogEntry {
	raw, err := l.data.Load(ctx, LogsKey)
	if err != nil || raw == nil {
		return []entities.LogEntry{}
	}

	var entries []entities.LogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []entities.LogEntry{}
	}
	return entries
}

// AppendLog adds entry to the history, dropping the oldest entries beyond maxEntries.
func (l *LocalRecords) AppendLog(ctx context.Context, entry entities.LogEntry, maxEntries int) error {
	entries := append(l.Logs(ctx), entry)
	if maxEntries > 0 && len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return l.data.Save(ctx, LogsKey, raw)
}

func (l *LocalRecords) ClearLogs(ctx context.Context) error {
	return l.data.Remove(ctx, LogsKey)
}
