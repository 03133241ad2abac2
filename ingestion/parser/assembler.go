package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"logshelf/internal/models"
)

// Lines is a single-pass sequence of physical lines. *bufio.Scanner satisfies it.
type Lines interface {
	Scan() bool
	Text() string
	Err() error
}

// Assembler folds continuation lines into the record opened by the last header line.
type Assembler struct {
	parser *Parser
	logger *log.Logger
}

// NewAssembler creates an Assembler. A nil parser uses the wall clock; a nil
// logger discards event logging (events are still collected in the Result).
func NewAssembler(p *Parser, logger *log.Logger) *Assembler {
	if p == nil {
		p = NewParser()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Assembler{parser: p, logger: logger}
}

// pass holds the state of one Assemble call.
type pass struct {
	result  *Result
	open    *models.LogRecord
	message strings.Builder
}

func (ps *pass) emit() {
	if ps.open == nil {
		return
	}
	ps.open.Message = ps.message.String()
	ps.result.Records = append(ps.result.Records, *ps.open)
	ps.open = nil
	ps.message.Reset()
}

// Assemble consumes lines until exhausted and returns the records in input order.
//
// Cancellation is checked between lines. When ctx is done, the open record is
// emitted and the partial result is returned along with ctx.Err(). A read error
// is returned wrapped in ErrSourceUnreadable, also with the partial result.
func (a *Assembler) Assemble(ctx context.Context, lines Lines) (*Result, error) {
	ps := &pass{result: &Result{}}

	for {
		if err := ctx.Err(); err != nil {
			ps.emit()
			return ps.result, err
		}
		if !lines.Scan() {
			break
		}
		ps.result.Lines++
		a.feed(ps, lines.Text())
	}
	ps.emit()

	if err := lines.Err(); err != nil {
		return ps.result, fmt.Errorf("%w: read line %d: %v", ErrSourceUnreadable, ps.result.Lines+1, err)
	}
	return ps.result, nil
}

func (a *Assembler) feed(ps *pass, text string) {
	lineNo := ps.result.Lines
	line := a.parser.Classify(text)

	switch line.Kind {
	case KindHeader:
		ps.emit()
		rec := line.Record
		ps.open = &rec
		ps.message.WriteString(rec.Message)

		if line.TimestampErr != nil {
			a.report(ps, Event{Kind: EventMalformedTimestamp, Line: lineNo, Text: line.RawTimestamp, Err: line.TimestampErr})
		}

	case KindContinuation:
		if ps.open == nil {
			a.report(ps, Event{Kind: EventUnattachableContinuation, Line: lineNo, Text: text})
			return
		}
		ps.message.WriteString(line.Text)
	}
}

func (a *Assembler) report(ps *pass, e Event) {
	ps.result.Events = append(ps.result.Events, e)
	a.logger.Printf("Assembler: %s", e)
}
