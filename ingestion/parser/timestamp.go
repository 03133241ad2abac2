package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	// ErrMalformedTimestamp is returned when a header timestamp does not match
	// the expected date/time grammar.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrSourceUnreadable is returned when the log source cannot be opened or read.
	ErrSourceUnreadable = errors.New("source unreadable")
)

// timestampLayout covers the date/time part; the fraction is handled separately
// because it may be 1-3 digits and use either ',' or '.' as separator.
const timestampLayout = "2006-01-02 15:04:05"

var timestampPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})[,.](\d{1,3})$`)

// ParseTimestamp converts "YYYY-MM-DD HH:MM:SS,fff" (or '.' separator, 1-3 digit
// fraction) into an instant. The text carries no zone and is read as UTC.
func ParseTimestamp(text string) (time.Time, error) {
	m := timestampPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match YYYY-MM-DD HH:MM:SS,fff", ErrMalformedTimestamp, text)
	}

	// time.Parse rejects out of range fields (month 13, Feb 30, hour 25)
	base, err := time.ParseInLocation(timestampLayout, m[1], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, text, err)
	}

	// ",1" is a tenth of a second, ",19" is 190ms
	frac := m[2]
	for len(frac) < 3 {
		frac += "0"
	}
	millis, err := strconv.Atoi(frac)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, text, err)
	}

	return base.Add(time.Duration(millis) * time.Millisecond), nil
}
