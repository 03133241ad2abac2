package parser

import (
	"regexp"
	"time"

	"logshelf/internal/models"
)

// headerPattern matches "date time SEVERITY logger - message". Whitespace around
// severity and logger is excluded by the grammar itself, never trimmed afterwards.
var headerPattern = regexp.MustCompile(`^(?P<timestamp>[^ ]+ [^ ]+)\s+(?P<severity>[A-Z]+)\s+(?P<logger>[^ ]+)\s+-\s+(?P<message>.*)`)

var (
	timestampGroup = headerPattern.SubexpIndex("timestamp")
	severityGroup  = headerPattern.SubexpIndex("severity")
	loggerGroup    = headerPattern.SubexpIndex("logger")
	messageGroup   = headerPattern.SubexpIndex("message")
)

// LineKind tells whether a physical line starts a record or continues one.
type LineKind int

const (
	KindContinuation LineKind = iota
	KindHeader
)

func (k LineKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindContinuation:
		return "continuation"
	default:
		return "unknown"
	}
}

// Line is the classification of one physical line.
type Line struct {
	Kind LineKind

	// Record is set for header lines.
	Record models.LogRecord
	// RawTimestamp is the timestamp text as it appeared on a header line.
	RawTimestamp string
	// TimestampErr is set when the header timestamp could not be parsed and
	// Record.Timestamp holds the parse time instead.
	TimestampErr error

	// Text is the full line for continuation lines.
	Text string
}

// Parser classifies lines. The zero value uses time.Now for the malformed
// timestamp fallback.
type Parser struct {
	// Now supplies the fallback timestamp for headers whose timestamp cannot be parsed.
	Now func() time.Time
}

// NewParser returns a Parser using the wall clock.
func NewParser() *Parser {
	return &Parser{Now: time.Now}
}

// Classify decides whether line is a header or a continuation. It never fails:
// an unparsable header timestamp is replaced by the current time and reported
// through Line.TimestampErr.
func (p *Parser) Classify(line string) Line {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return Line{Kind: KindContinuation, Text: line}
	}

	raw := m[timestampGroup]
	ts, err := ParseTimestamp(raw)
	if err != nil {
		ts = fallbackTimestamp(p.now())
	}

	return Line{
		Kind: KindHeader,
		Record: models.LogRecord{
			Timestamp: ts,
			Severity:  m[severityGroup],
			Logger:    m[loggerGroup],
			Message:   m[messageGroup],
		},
		RawTimestamp: raw,
		TimestampErr: err,
	}
}

// fallbackTimestamp rounds now up to the next millisecond so the result is
// never earlier than the moment of parsing.
func fallbackTimestamp(now time.Time) time.Time {
	now = now.UTC()
	ts := now.Truncate(time.Millisecond)
	if ts.Before(now) {
		ts = ts.Add(time.Millisecond)
	}
	return ts
}

func (p *Parser) now() time.Time {
	if p == nil || p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
