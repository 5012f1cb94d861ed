package events

import "time"

var NoticeTopic = "NoticeEvent"

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is a non-blocking message for the user about the outcome of a storage operation.
type Notice struct {
	Level     NoticeLevel
	Operation string
	Message   string
}

var ConnectivityChangedTopic = "ConnectivityChangedEvent"

type ConnectivityChanged struct {
	Connected bool
	CheckedAt time.Time
}
