package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/apply-archive/internal/entities"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

// HistorySink stores log entries. Anything AppendLog logs itself must be logged through
// log.WithContext with the context it receives, or it would be written back into the history.
type HistorySink interface {
	AppendLog(ctx context.Context, entry entities.LogEntry, maxEntries int) error
}

type historyWriteKey struct{}

// historyHook keeps the most recent log lines in the local store so they survive restarts
// of a client that has no log collector.
type historyHook struct {
	mu         sync.RWMutex
	sink       HistorySink
	maxEntries int
	minLevel   log.Level

	// serializes read-modify-write cycles on the sink
	writeMu sync.Mutex
}

var (
	historyMu sync.Mutex
	history   *historyHook
)

func (h *historyHook) attach(sink HistorySink, maxEntries int, minLevel log.Level) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sink, h.maxEntries, h.minLevel = sink, maxEntries, minLevel
}

func (h *historyHook) Fire(entry *log.Entry) error {
	h.mu.RLock()
	sink, maxEntries, minLevel := h.sink, h.maxEntries, h.minLevel
	h.mu.RUnlock()
	if sink == nil || entry.Level > minLevel || fromSink(entry.Context) {
		return nil
	}

	item := entities.LogEntry{
		Timestamp: entry.Time.UTC().Format(time.RFC3339Nano),
		Level:     entry.Level.String(),
		Message:   entry.Message,
	}
	if len(entry.Data) > 0 {
		if data, err := json.Marshal(stringifyFields(entry.Data)); err == nil {
			item.Data = string(data)
		}
	}

	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return sink.AppendLog(context.WithValue(ctx, historyWriteKey{}, true), item, maxEntries)
}

func fromSink(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	marked, _ := ctx.Value(historyWriteKey{}).(bool)
	return marked
}

func (h *historyHook) Levels() []log.Level {
	return log.AllLevels
}

func stringifyFields(fields log.Fields) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out[k] = err.Error()
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// AddHistoryHook starts mirroring log entries at minLevel or above into sink. Calling it again
// redirects the history to the new sink.
func AddHistoryHook(sink HistorySink, maxEntries int, minLevel log.Level) {
	if maxEntries <= 0 {
		return
	}

	historyMu.Lock()
	defer historyMu.Unlock()

	if history == nil {
		history = &historyHook{}
		log.AddHook(history)
	}
	history.attach(sink, maxEntries, minLevel)
	log.Debugf("local log history enabled, keeping %d entries", maxEntries)
}

// DetachHistory stops writing the history until the next AddHistoryHook.
func DetachHistory() {
	historyMu.Lock()
	defer historyMu.Unlock()

	if history != nil {
		history.attach(nil, 0, log.PanicLevel)
	}
}
