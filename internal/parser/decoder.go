// Package parser turns raw match log bytes into typed events and rounds.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

// Column layout of every log line: [ignored, eventKind, timestamp, fields...].
const (
	colKind      = 1
	colTimestamp = 2
	colFields    = 3
)

// DecodeError reports a malformed log line. Logs are validated at capture
// time, so a malformed row fails the whole run.
type DecodeError struct {
	Line   int
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Line == 0 {
		return "malformed log event: " + e.Reason
	}
	return fmt.Sprintf("malformed log line %d: %s", e.Line, e.Reason)
}

// MatchNotFinishedError signals a log with no terminating match_end event.
type MatchNotFinishedError struct {
	LogName string
}

func (e *MatchNotFinishedError) Error() string {
	return fmt.Sprintf("log %s has no match_end event: match not finished", e.LogName)
}

// Decode parses raw log text into the ordered event list. Lines carrying the
// reserved meta kind are discarded. Any malformed row aborts the decode.
func Decode(raw []byte) ([]model.RawEvent, error) {
	var events []model.RawEvent

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		cols := strings.Split(line, ",")
		if len(cols) <= colTimestamp {
			return nil, &DecodeError{Line: lineNo, Reason: fmt.Sprintf("expected at least %d columns, got %d", colTimestamp+1, len(cols))}
		}

		kind := model.EventKind(strings.TrimSpace(cols[colKind]))
		if _, ok := model.KnownEventKinds[kind]; !ok {
			return nil, &DecodeError{Line: lineNo, Reason: fmt.Sprintf("unknown event kind %q", kind)}
		}
		if kind == model.EventMeta {
			continue
		}

		ts, err := strconv.ParseFloat(strings.TrimSpace(cols[colTimestamp]), 64)
		if err != nil {
			return nil, &DecodeError{Line: lineNo, Reason: fmt.Sprintf("bad timestamp %q", cols[colTimestamp])}
		}

		fields := make([]string, 0, len(cols)-colFields)
		for _, f := range cols[colFields:] {
			fields = append(fields, strings.TrimSpace(f))
		}

		events = append(events, model.RawEvent{
			Kind:      kind,
			Timestamp: ts,
			Fields:    fields,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}

	return events, nil
}

// MatchHeader extracts the match_start fields: map, the two free-text team
// names, and the gamemode. Returns false when the log has no match_start.
func MatchHeader(events []model.RawEvent) (mapName, team1, team2, gamemode string, ok bool) {
	for _, e := range events {
		if e.Kind == model.EventMatchStart {
			return e.Field(0), e.Field(1), e.Field(2), e.Field(3), true
		}
	}
	return "", "", "", "", false
}

// MatchEnd returns the terminating match_end event, if present.
func MatchEnd(events []model.RawEvent) (model.RawEvent, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == model.EventMatchEnd {
			return events[i], true
		}
	}
	return model.RawEvent{}, false
}
