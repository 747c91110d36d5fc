// Package jsonutil coerces loosely typed JSON fields from structured log
// records into the concrete types the reader needs.
package jsonutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// timestampLayouts are the accepted string layouts for timestamp fields, in
// the order they are tried.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// FlexibleStringValue converts a json.RawMessage to a string, handling
// records that carry numbers or booleans where text is expected. Returns
// empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleFloatValue converts a json.RawMessage holding either a JSON number
// or a numeric string (optionally suffixed "ms") to a float64.
func FlexibleFloatValue(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("empty numeric value")
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal, nil
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		strVal = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(strVal), "ms"))
		f, err := strconv.ParseFloat(strVal, 64)
		if err != nil {
			return 0, fmt.Errorf("parse numeric string %q: %w", strVal, err)
		}
		return f, nil
	}

	return 0, fmt.Errorf("value %s is neither number nor numeric string", string(raw))
}

// ParseTimeString parses a timestamp string against the accepted layouts.
func ParseTimeString(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q matches no accepted layout", s)
}

// FlexibleTimeValue converts a json.RawMessage to a time.Time. String values
// are tried against the accepted layouts; numbers are treated as a unix
// epoch, milliseconds when >= 1e12, seconds otherwise.
func FlexibleTimeValue(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, fmt.Errorf("empty timestamp value")
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return ParseTimeString(strVal)
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal >= 1e12 {
			return time.UnixMilli(int64(numVal)).UTC(), nil
		}
		return time.Unix(int64(numVal), 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("value %s is neither timestamp string nor epoch", string(raw))
}
