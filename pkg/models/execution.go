// Package models contains domain types for querydoctor.
package models

import "time"

// RawExecution is a single observed query execution extracted from a slow
// log. Instances are immutable once produced by the reader; aggregation
// folds them into QueryPattern rows and only derived values survive.
type RawExecution struct {
	Timestamp  time.Time `json:"timestamp"`
	DurationMS float64   `json:"duration_ms"`
	Query      string    `json:"query"`
}
