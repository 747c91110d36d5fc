package slowlog

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/testhelpers"
)

func TestParseStructured_RoundTrip(t *testing.T) {
	multi := "SELECT id\nFROM events\nWHERE kind = 'click'"
	path := testhelpers.WriteStructuredLog(t,
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(0), DurationMS: 312.25, Query: "SELECT * FROM events WHERE kind = 'click'"},
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(1), DurationMS: 87, Query: multi},
	)

	r := NewReader(ReaderConfig{}, nil)
	execs, err := r.Parse(path, FormatStructured)
	require.NoError(t, err)
	require.Len(t, execs, 2)

	assert.True(t, execs[0].Timestamp.Equal(testhelpers.LogTime(0)))
	assert.Equal(t, 312.25, execs[0].DurationMS)
	assert.Equal(t, "SELECT * FROM events WHERE kind = 'click'", execs[0].Query)

	// Newlines inside the statement travel as \n escapes within one line.
	assert.Equal(t, multi, execs[1].Query)
}

func TestParseStructured_FieldAliases(t *testing.T) {
	content := `{"ts":"2024-01-15T10:23:45Z","duration":"150.5ms","sql":"SELECT 1"}` + "\n"
	path := testhelpers.WriteLogFile(t, "alias.jsonl", content)

	r := NewReader(ReaderConfig{}, nil)
	execs, err := r.Parse(path, FormatStructured)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, 150.5, execs[0].DurationMS)
	assert.Equal(t, "SELECT 1", execs[0].Query)
	assert.True(t, execs[0].Timestamp.Equal(time.Date(2024, 1, 15, 10, 23, 45, 0, time.UTC)))
}

func TestParseStructured_EpochMillisTimestamp(t *testing.T) {
	content := `{"timestamp":1705314225123,"duration_ms":200,"query":"SELECT 2"}` + "\n"
	path := testhelpers.WriteLogFile(t, "epoch.jsonl", content)

	r := NewReader(ReaderConfig{}, nil)
	execs, err := r.Parse(path, FormatStructured)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.True(t, execs[0].Timestamp.Equal(time.UnixMilli(1705314225123).UTC()))
}

func TestStructuredExecution_Classification(t *testing.T) {
	cases := []struct {
		name   string
		record map[string]json.RawMessage
	}{
		{"no timestamp", map[string]json.RawMessage{
			"duration_ms": json.RawMessage(`120`), "query": json.RawMessage(`"SELECT 1"`),
		}},
		{"no duration", map[string]json.RawMessage{
			"timestamp": json.RawMessage(`"2024-01-15T10:23:45Z"`), "query": json.RawMessage(`"SELECT 1"`),
		}},
		{"no query", map[string]json.RawMessage{
			"timestamp": json.RawMessage(`"2024-01-15T10:23:45Z"`), "duration_ms": json.RawMessage(`120`),
		}},
		{"bad timestamp", map[string]json.RawMessage{
			"timestamp": json.RawMessage(`"noon"`), "duration_ms": json.RawMessage(`120`), "query": json.RawMessage(`"SELECT 1"`),
		}},
		{"bad duration", map[string]json.RawMessage{
			"timestamp": json.RawMessage(`"2024-01-15T10:23:45Z"`), "duration_ms": json.RawMessage(`"slow"`), "query": json.RawMessage(`"SELECT 1"`),
		}},
		{"negative duration", map[string]json.RawMessage{
			"timestamp": json.RawMessage(`"2024-01-15T10:23:45Z"`), "duration_ms": json.RawMessage(`-1`), "query": json.RawMessage(`"SELECT 1"`),
		}},
		{"empty query", map[string]json.RawMessage{
			"timestamp": json.RawMessage(`"2024-01-15T10:23:45Z"`), "duration_ms": json.RawMessage(`120`), "query": json.RawMessage(`""`),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := structuredExecution(tc.record)
			require.ErrorIs(t, err, apperrors.ErrMalformedRecord)
		})
	}

	exec, err := structuredExecution(map[string]json.RawMessage{
		"timestamp":   json.RawMessage(`"2024-01-15T10:23:45Z"`),
		"duration_ms": json.RawMessage(`120`),
		"query":       json.RawMessage(`"SELECT 1"`),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(120), exec.DurationMS)
}

func TestParseStructured_SkipsBadLines(t *testing.T) {
	content := `{"timestamp":"2024-01-15T10:23:45Z","duration_ms":120,"query":"SELECT 1"}` + "\n" +
		"{not json}\n" +
		"\n" +
		`{"timestamp":"2024-01-15T10:23:46Z","duration_ms":130}` + "\n" +
		`{"timestamp":"2024-01-15T10:23:47Z","duration_ms":-1,"query":"SELECT 3"}` + "\n" +
		`{"timestamp":"noon","duration_ms":100,"query":"SELECT 4"}` + "\n" +
		`{"timestamp":"2024-01-15T10:23:48Z","duration_ms":"slow","query":"SELECT 5"}` + "\n" +
		`{"timestamp":"2024-01-15T10:23:49Z","duration_ms":140,"query":""}` + "\n" +
		`{"timestamp":"2024-01-15T10:23:50Z","duration_ms":140,"query":"SELECT 6"}` + "\n"
	path := testhelpers.WriteLogFile(t, "mixed.jsonl", content)

	r := NewReader(ReaderConfig{}, nil)
	execs, err := r.Parse(path, FormatStructured)
	require.NoError(t, err)
	require.Len(t, execs, 2)
	assert.Equal(t, "SELECT 1", execs[0].Query)
	assert.Equal(t, "SELECT 6", execs[1].Query)
}
