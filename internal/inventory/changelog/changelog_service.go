package changelog

import (
	"context"
	"strings"

	"depot/internal/inventory"
	"depot/internal/session"
	custom_error "depot/pkg/errors"
	"depot/pkg/models"
)

// Noter appends a standalone log entry.
type Noter interface {
	AddLog(ctx context.Context, s session.Session, action string) error
}

type Entry struct {
	models.LogEntry
	FormattedTime string `json:"formatted_time"`
}

type Service struct {
	state     inventory.State
	noter     Noter
	formatter *Formatter
}

func NewService(state inventory.State, noter Noter, formatter *Formatter) *Service {
	return &Service{state: state, noter: noter, formatter: formatter}
}

// List returns up to limit entries, newest first. A limit of zero or less returns all of them.
func (s *Service) List(limit int) []Entry {
	logs := s.state.Logs()
	if limit > 0 && limit < len(logs) {
		logs = logs[:limit]
	}

	entries := make([]Entry, 0, len(logs))
	for _, entry := range logs {
		entries = append(entries, Entry{LogEntry: entry, FormattedTime: s.formatter.Format(entry)})
	}
	return entries
}

// Note records an operator remark that is not tied to any inventory change.
func (s *Service) Note(ctx context.Context, sess session.Session, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return inventory.Reject("note", custom_error.NewValidationError("action", "is required"))
	}
	return s.noter.AddLog(ctx, sess, action)
}
