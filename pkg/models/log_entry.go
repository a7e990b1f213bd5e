package models

import "time"

// LogEntry is an immutable record of one mutating action, stored under logs/{key}.
// Time is the server assigned timestamp in milliseconds since the Unix epoch.
type LogEntry struct {
	Key    string `json:"key,omitempty"`
	Time   int64  `json:"time"`
	User   string `json:"user"`
	Action string `json:"action"`
}

func (l LogEntry) Timestamp() time.Time {
	return time.UnixMilli(l.Time)
}
