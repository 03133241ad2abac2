package models

import "time"

// LogRecord is one logical log entry: a header line plus any continuation
// lines folded into its message.
// Used across parsing, storage, messaging and transport layers
type LogRecord struct {
	Timestamp time.Time `json:"timestamp"` // UTC, millisecond precision
	Severity  string    `json:"severity"`
	Logger    string    `json:"logger"`
	Message   string    `json:"message"`
}
