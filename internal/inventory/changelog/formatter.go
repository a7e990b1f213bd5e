package changelog

import (
	"fmt"
	"time"
	_ "time/tzdata" // zones must resolve on hosts without a zoneinfo database

	"depot/pkg/models"
)

const DefaultLayout = "2006-01-02 15:04:05"

// Formatter renders log timestamps in the operator's time zone.
type Formatter struct {
	loc    *time.Location
	layout string
}

func NewFormatter(timezone, layout string) (*Formatter, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", timezone, err)
	}
	if layout == "" {
		layout = DefaultLayout
	}
	return &Formatter{loc: loc, layout: layout}, nil
}

func (f *Formatter) Format(entry models.LogEntry) string {
	return entry.Timestamp().In(f.loc).Format(f.layout)
}
