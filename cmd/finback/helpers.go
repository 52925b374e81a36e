package main

import (
	"fmt"
	"strconv"
	"strings"

	"finback/internal/queue"
)

// parseKeyValues converts repeated key=value flags into a map. Values that
// parse as numbers or booleans keep those types so flag-sourced params
// round-trip the same way JSON submissions do.
func parseKeyValues(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", pair)
		}
		raw = strings.TrimSpace(raw)
		if number, err := strconv.ParseFloat(raw, 64); err == nil {
			values[key] = number
			continue
		}
		if boolean, err := strconv.ParseBool(raw); err == nil {
			values[key] = boolean
			continue
		}
		values[key] = raw
	}
	return values, nil
}

func parseStatuses(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// shortChecksum keeps tables readable; the full digest stays available from
// the HTTP API.
func shortChecksum(checksum string) string {
	if len(checksum) <= 12 {
		return checksum
	}
	return checksum[:12]
}

func formatWindow(seconds float64) string {
	return strconv.FormatFloat(seconds, 'g', -1, 64) + "s"
}
