package main

import (
	"testing"

	"finback/internal/queue"
)

func TestParseKeyValues(t *testing.T) {
	values, err := parseKeyValues([]string{"n_clusters=4", "auto=true", "method=kmeans", "eps=0.5"})
	if err != nil {
		t.Fatalf("parseKeyValues: %v", err)
	}
	if got, ok := values["n_clusters"].(float64); !ok || got != 4 {
		t.Fatalf("expected n_clusters as float64 4, got %#v", values["n_clusters"])
	}
	if got, ok := values["auto"].(bool); !ok || !got {
		t.Fatalf("expected auto as bool true, got %#v", values["auto"])
	}
	if got, ok := values["method"].(string); !ok || got != "kmeans" {
		t.Fatalf("expected method as string, got %#v", values["method"])
	}
	if got, ok := values["eps"].(float64); !ok || got != 0.5 {
		t.Fatalf("expected eps as float64 0.5, got %#v", values["eps"])
	}
}

func TestParseKeyValuesRejectsMalformedPairs(t *testing.T) {
	for _, pair := range []string{"noequals", "=value", "   =x"} {
		if _, err := parseKeyValues([]string{pair}); err == nil {
			t.Fatalf("expected error for %q", pair)
		}
	}
	values, err := parseKeyValues(nil)
	if err != nil {
		t.Fatalf("parseKeyValues(nil): %v", err)
	}
	if values != nil {
		t.Fatalf("expected nil map for empty input, got %#v", values)
	}
}

func TestParseStatuses(t *testing.T) {
	statuses, err := parseStatuses([]string{"queued", "RUNNING"})
	if err != nil {
		t.Fatalf("parseStatuses: %v", err)
	}
	if len(statuses) != 2 || statuses[0] != queue.StatusQueued || statuses[1] != queue.StatusRunning {
		t.Fatalf("unexpected statuses: %v", statuses)
	}

	if _, err := parseStatuses([]string{"bogus"}); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestShortChecksum(t *testing.T) {
	if got := shortChecksum("abc"); got != "abc" {
		t.Fatalf("short input should pass through, got %q", got)
	}
	if got := shortChecksum("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("expected 12 char prefix, got %q", got)
	}
}

func TestFormatWindow(t *testing.T) {
	if got := formatWindow(5); got != "5s" {
		t.Fatalf("formatWindow(5) = %q", got)
	}
	if got := formatWindow(2.5); got != "2.5s" {
		t.Fatalf("formatWindow(2.5) = %q", got)
	}
}
