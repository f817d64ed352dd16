package models

import "time"

// NoticeLevel controls how a transient notification is styled.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a transient notification shown once and auto-dismissed.
type Notice struct {
	Message   string      `json:"message"`
	Level     NoticeLevel `json:"level"`
	CreatedAt time.Time   `json:"createdAt"`
}
