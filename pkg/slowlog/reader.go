package slowlog

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/models"
)

// ReaderConfig tunes reader side effects. The zero value disables progress
// reporting.
type ReaderConfig struct {
	// ProgressEvery fires OnProgress after every N parsed records.
	ProgressEvery int
	// OnProgress receives the running count of parsed records. Side effect
	// only; it must not alter parsing.
	OnProgress func(records int)
}

// Reader extracts raw executions from slow-query log files.
type Reader struct {
	config ReaderConfig
	logger *zap.Logger
}

// NewReader builds a Reader.
func NewReader(config ReaderConfig, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{config: config, logger: logger.Named("slowlog")}
}

// Parse reads the file at path in the given format and returns its raw
// executions in file order. A missing path fails with ErrLogNotFound before
// any parsing; an input that yields zero valid records fails with
// ErrNoMatches. Per-record problems are skipped, never fatal. The file is
// read to completion and closed before decoding begins.
func (r *Reader) Parse(path string, format Format) ([]models.RawExecution, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrLogNotFound, path)
		}
		return nil, fmt.Errorf("stat log file %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log file %s: %w", path, err)
	}

	r.logger.Info("parsing log file",
		zap.String("path", path),
		zap.String("format", format.String()),
		zap.Int("bytes", len(data)))

	var execs []models.RawExecution
	switch format {
	case FormatPlain:
		execs = r.parsePlain(string(data))
	case FormatDelimited:
		execs = r.parseDelimited(data)
	case FormatStructured:
		execs = r.parseStructured(data)
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownFormat, format)
	}

	if len(execs) == 0 {
		return nil, fmt.Errorf("%w in %s: ensure slow-query logging (e.g. log_min_duration_statement) is enabled",
			apperrors.ErrNoMatches, path)
	}

	r.logger.Info("parsed slow query records", zap.Int("records", len(execs)))
	return execs, nil
}

// tickProgress reports the running record count at the configured interval.
func (r *Reader) tickProgress(records int) {
	if r.config.OnProgress == nil || r.config.ProgressEvery <= 0 {
		return
	}
	if records%r.config.ProgressEvery == 0 {
		r.config.OnProgress(records)
	}
}
