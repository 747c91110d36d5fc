package slowlog

import (
	"bufio"
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/jsonutil"
	"github.com/querydoctor/querydoctor/pkg/models"
)

// maxStructuredLineBytes bounds a single structured record; statements in
// slow logs can run long but not unbounded.
const maxStructuredLineBytes = 10 * 1024 * 1024

// parseStructured reads one JSON object per line. Malformed lines and lines
// missing required fields are skipped with a warning; blank lines are
// ignored.
func (r *Reader) parseStructured(data []byte) []models.RawExecution {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxStructuredLineBytes)

	var execs []models.RawExecution
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var record map[string]json.RawMessage
		if err := json.Unmarshal(text, &record); err != nil {
			r.logger.Warn("skipping malformed record",
				zap.Int("line", line),
				zap.Error(fmt.Errorf("%w: %v", apperrors.ErrMalformedRecord, err)))
			continue
		}

		exec, err := structuredExecution(record)
		if err != nil {
			r.logger.Warn("skipping malformed record", zap.Int("line", line), zap.Error(err))
			continue
		}
		execs = append(execs, exec)
		r.tickProgress(len(execs))
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warn("stopped scanning structured input", zap.Int("line", line), zap.Error(err))
	}

	return execs
}

// structuredExecution builds one execution from a decoded record. Every
// failure wraps apperrors.ErrMalformedRecord.
func structuredExecution(record map[string]json.RawMessage) (models.RawExecution, error) {
	tsRaw, ok := firstField(record, "timestamp", "ts", "time")
	if !ok {
		return models.RawExecution{}, fmt.Errorf("%w: no timestamp field", apperrors.ErrMalformedRecord)
	}
	durRaw, ok := firstField(record, "duration_ms", "duration")
	if !ok {
		return models.RawExecution{}, fmt.Errorf("%w: no duration field", apperrors.ErrMalformedRecord)
	}
	queryRaw, ok := firstField(record, "query", "statement", "sql")
	if !ok {
		return models.RawExecution{}, fmt.Errorf("%w: no query field", apperrors.ErrMalformedRecord)
	}

	ts, err := jsonutil.FlexibleTimeValue(tsRaw)
	if err != nil {
		return models.RawExecution{}, fmt.Errorf("%w: bad timestamp: %v", apperrors.ErrMalformedRecord, err)
	}

	duration, err := jsonutil.FlexibleFloatValue(durRaw)
	if err != nil {
		return models.RawExecution{}, fmt.Errorf("%w: bad duration: %v", apperrors.ErrMalformedRecord, err)
	}
	if duration < 0 {
		return models.RawExecution{}, fmt.Errorf("%w: negative duration %v", apperrors.ErrMalformedRecord, duration)
	}

	query := jsonutil.FlexibleStringValue(queryRaw)
	if query == "" {
		return models.RawExecution{}, fmt.Errorf("%w: empty query", apperrors.ErrMalformedRecord)
	}

	return models.RawExecution{Timestamp: ts, DurationMS: duration, Query: query}, nil
}

// firstField returns the first present field among the accepted aliases.
func firstField(record map[string]json.RawMessage, names ...string) (json.RawMessage, bool) {
	for _, name := range names {
		if raw, ok := record[name]; ok {
			return raw, true
		}
	}
	return nil, false
}
