package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"depot/pkg/models"
)

// NormalizeLogs decodes the logs collection, which may arrive either as an array (keys 0..n)
// or as a keyed object, into entries ordered newest first.
func NormalizeLogs(raw json.RawMessage) ([]models.LogEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return []models.LogEntry{}, nil
	}

	entries := []models.LogEntry{}
	if trimmed[0] == '[' {
		var list []*models.LogEntry
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode log list: %w", err)
		}
		for i, entry := range list {
			if entry == nil {
				continue
			}
			entry.Key = strconv.Itoa(i)
			entries = append(entries, *entry)
		}
	} else {
		var keyed map[string]*models.LogEntry
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, fmt.Errorf("decode log map: %w", err)
		}
		for key, entry := range keyed {
			if entry == nil {
				continue
			}
			entry.Key = key
			entries = append(entries, *entry)
		}
	}

	SortLogs(entries)
	return entries, nil
}

// SortLogs orders entries by descending time, falling back to descending key.
func SortLogs(entries []models.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Time != entries[j].Time {
			return entries[i].Time > entries[j].Time
		}
		return entries[i].Key > entries[j].Key
	})
}
