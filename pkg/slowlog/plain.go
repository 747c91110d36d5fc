package slowlog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/models"
)

const (
	plainTimestampLayout = "2006-01-02 15:04:05.000"
	statementMarker      = "statement: "
)

var (
	// timestampLinePattern recognizes the line prefix that opens a record.
	timestampLinePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}`)
	// durationMarkerPattern extracts the execution time within a record.
	durationMarkerPattern = regexp.MustCompile(`duration:\s*([\d.]+)\s*ms`)
)

// errNotARecord marks timestamp-prefixed blocks without the duration and
// statement markers: routine server chatter, not malformed records.
var errNotARecord = errors.New("not a slow-query record")

// parsePlain scans the line-oriented server log format. A record spans from
// a timestamp-prefixed line up to (not including) the next such line or end
// of input; within the record the duration marker must precede the statement
// marker, and the statement body is captured verbatim to the record's end,
// embedded newlines included.
func (r *Reader) parsePlain(text string) []models.RawExecution {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var starts []int
	for i, line := range lines {
		if timestampLinePattern.MatchString(line) {
			starts = append(starts, i)
		}
	}

	var execs []models.RawExecution
	for n, start := range starts {
		end := len(lines)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		block := strings.Join(lines[start:end], "\n")

		exec, err := parsePlainRecord(block)
		if errors.Is(err, errNotARecord) {
			continue
		}
		if err != nil {
			r.logger.Warn("skipping malformed record",
				zap.String("timestamp", timestampLinePattern.FindString(block)),
				zap.Error(err))
			continue
		}
		execs = append(execs, exec)
		r.tickProgress(len(execs))
	}

	return execs
}

// parsePlainRecord extracts one execution from a record block. Blocks
// without both markers report errNotARecord; a block with the markers but
// unusable values wraps apperrors.ErrMalformedRecord.
func parsePlainRecord(block string) (models.RawExecution, error) {
	durLoc := durationMarkerPattern.FindStringSubmatchIndex(block)
	if durLoc == nil {
		return models.RawExecution{}, errNotARecord
	}

	rest := block[durLoc[1]:]
	stmtIdx := strings.Index(rest, statementMarker)
	if stmtIdx < 0 {
		return models.RawExecution{}, errNotARecord
	}
	query := strings.TrimSpace(rest[stmtIdx+len(statementMarker):])
	if query == "" {
		return models.RawExecution{}, fmt.Errorf("%w: empty statement", apperrors.ErrMalformedRecord)
	}

	durText := block[durLoc[2]:durLoc[3]]
	duration, err := strconv.ParseFloat(durText, 64)
	if err != nil {
		return models.RawExecution{}, fmt.Errorf("%w: bad duration %q: %v", apperrors.ErrMalformedRecord, durText, err)
	}
	if duration < 0 {
		return models.RawExecution{}, fmt.Errorf("%w: negative duration %q", apperrors.ErrMalformedRecord, durText)
	}

	tsText := timestampLinePattern.FindString(block)
	ts, err := time.Parse(plainTimestampLayout, tsText)
	if err != nil {
		return models.RawExecution{}, fmt.Errorf("%w: bad timestamp %q: %v", apperrors.ErrMalformedRecord, tsText, err)
	}

	return models.RawExecution{Timestamp: ts, DurationMS: duration, Query: query}, nil
}
