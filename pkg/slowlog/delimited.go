package slowlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/jsonutil"
	"github.com/querydoctor/querydoctor/pkg/models"
)

// parseDelimited reads header-named delimited records. The delimiter is
// sniffed from the header line (tab wins over comma). Records missing a
// required field are skipped silently; records whose values fail coercion
// are skipped with a warning. Quoted fields may span lines, so statements
// with embedded newlines survive intact.
func (r *Reader) parseDelimited(data []byte) []models.RawExecution {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		r.logger.Warn("unreadable delimited header", zap.Error(err))
		return nil
	}

	tsIdx, tsOK := columnIndex(header, "timestamp", "ts", "time")
	durIdx, durOK := columnIndex(header, "duration_ms", "duration")
	queryIdx, queryOK := columnIndex(header, "query", "statement", "sql")
	if !tsOK || !durOK || !queryOK {
		r.logger.Warn("delimited header lacks required columns",
			zap.Strings("header", header),
			zap.Strings("required", []string{"timestamp", "duration_ms", "query"}))
		return nil
	}

	var execs []models.RawExecution
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			r.logger.Warn("skipping unreadable delimited record", zap.Int("line", line), zap.Error(err))
			continue
		}

		tsText, durText, query, ok := requiredFields(record, tsIdx, durIdx, queryIdx)
		if !ok {
			continue
		}
		exec, err := coerceExecution(tsText, durText, query)
		if err != nil {
			r.logger.Warn("skipping malformed record", zap.Int("line", line), zap.Error(err))
			continue
		}
		execs = append(execs, exec)
		r.tickProgress(len(execs))
	}

	return execs
}

// requiredFields pulls the three required values out of a row. A row too
// short or with a blank required value reports ok=false; the contract is to
// skip those silently.
func requiredFields(record []string, tsIdx, durIdx, queryIdx int) (tsText, durText, query string, ok bool) {
	max := tsIdx
	if durIdx > max {
		max = durIdx
	}
	if queryIdx > max {
		max = queryIdx
	}
	if len(record) <= max {
		return "", "", "", false
	}

	tsText = strings.TrimSpace(record[tsIdx])
	durText = strings.TrimSpace(record[durIdx])
	query = record[queryIdx]
	if tsText == "" || durText == "" || strings.TrimSpace(query) == "" {
		return "", "", "", false
	}
	return tsText, durText, query, true
}

// coerceExecution converts the extracted field text into an execution.
// Every failure wraps apperrors.ErrMalformedRecord.
func coerceExecution(tsText, durText, query string) (models.RawExecution, error) {
	ts, err := jsonutil.ParseTimeString(tsText)
	if err != nil {
		return models.RawExecution{}, fmt.Errorf("%w: bad timestamp: %v", apperrors.ErrMalformedRecord, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(durText, "ms")), 64)
	if err != nil {
		return models.RawExecution{}, fmt.Errorf("%w: bad duration %q: %v", apperrors.ErrMalformedRecord, durText, err)
	}
	if duration < 0 {
		return models.RawExecution{}, fmt.Errorf("%w: negative duration %q", apperrors.ErrMalformedRecord, durText)
	}

	return models.RawExecution{Timestamp: ts, DurationMS: duration, Query: query}, nil
}

// sniffDelimiter picks tab when the header line contains one, comma
// otherwise.
func sniffDelimiter(data []byte) rune {
	headerEnd := bytes.IndexByte(data, '\n')
	header := data
	if headerEnd >= 0 {
		header = data[:headerEnd]
	}
	if bytes.ContainsRune(header, '\t') {
		return '\t'
	}
	return ','
}

// columnIndex finds the first header column matching any of the accepted
// names, case-insensitively.
func columnIndex(header []string, names ...string) (int, bool) {
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		for _, name := range names {
			if col == name {
				return i, true
			}
		}
	}
	return 0, false
}
