// Package testhelpers provides shared fixtures for package tests: slow-query
// log file builders for each supported encoding.
package testhelpers

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

// SlowQuery is one execution record to embed in a fixture log.
type SlowQuery struct {
	Timestamp  time.Time
	DurationMS float64
	Query      string
}

// LogTime returns a fixed base timestamp offset by i seconds, so fixtures
// are deterministic and ordered.
func LogTime(i int) time.Time {
	return time.Date(2024, 1, 15, 10, 23, 45, 123_000_000, time.UTC).Add(time.Duration(i) * time.Second)
}

// WriteLogFile writes content to name under a fresh temp dir and returns the
// full path. The file is cleaned up with the test.
func WriteLogFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write log fixture %s: %v", name, err)
	}
	return path
}

// PlainLogLine renders one record in the line-oriented server log style.
// Multi-line statements embed verbatim; the record ends at the next
// timestamp-prefixed line.
func PlainLogLine(q SlowQuery) string {
	return fmt.Sprintf("%s UTC [12345] LOG:  duration: %.3f ms  statement: %s",
		q.Timestamp.Format("2006-01-02 15:04:05.000"), q.DurationMS, q.Query)
}

// WritePlainLog writes records in the line-oriented server log style and
// returns the file path.
func WritePlainLog(t *testing.T, queries ...SlowQuery) string {
	t.Helper()
	var b strings.Builder
	for _, q := range queries {
		b.WriteString(PlainLogLine(q))
		b.WriteString("\n")
	}
	return WriteLogFile(t, "slow.log", b.String())
}

// WriteDelimitedLog writes records as CSV with a header row and returns the
// file path. Statements with embedded newlines or commas are quoted.
func WriteDelimitedLog(t *testing.T, queries ...SlowQuery) string {
	t.Helper()
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write([]string{"timestamp", "duration_ms", "query"}); err != nil {
		t.Fatalf("encode delimited header: %v", err)
	}
	for _, q := range queries {
		record := []string{
			q.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatFloat(q.DurationMS, 'f', -1, 64),
			q.Query,
		}
		if err := w.Write(record); err != nil {
			t.Fatalf("encode delimited record: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush delimited fixture: %v", err)
	}
	return WriteLogFile(t, "slow.csv", b.String())
}

// WriteStructuredLog writes one JSON object per line and returns the file
// path.
func WriteStructuredLog(t *testing.T, queries ...SlowQuery) string {
	t.Helper()
	var b strings.Builder
	for _, q := range queries {
		line, err := json.Marshal(map[string]any{
			"timestamp":   q.Timestamp.Format(time.RFC3339Nano),
			"duration_ms": q.DurationMS,
			"query":       q.Query,
		})
		if err != nil {
			t.Fatalf("encode structured fixture: %v", err)
		}
		b.Write(line)
		b.WriteString("\n")
	}
	return WriteLogFile(t, "slow.jsonl", b.String())
}
