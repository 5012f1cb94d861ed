package entities

// LogEntry is one line of the locally kept log history.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Data      string `json:"data,omitempty"`
}
