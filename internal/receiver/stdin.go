package receiver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/logflux-io/logflux-go-sdk/internal/stats"
	"github.com/logflux-io/logflux-go-sdk/wire"
)

// maxStdinLineBytes caps a single stdin line. Longer lines abort the
// reader rather than silently splitting a record.
const maxStdinLineBytes = 1024 * 1024

// StdinReader turns newline-delimited text on a reader into log
// entries, one entry per line.
type StdinReader struct {
	r      io.Reader
	source string
	sink   Sink
	stats  *stats.Collector
}

// NewStdinReader creates a stdin reader submitting entries with the
// given source.
func NewStdinReader(r io.Reader, source string, sink Sink, collector *stats.Collector) *StdinReader {
	return &StdinReader{
		r:      r,
		source: source,
		sink:   sink,
		stats:  collector,
	}
}

// Run consumes lines until the input ends or ctx is canceled. Blank
// lines are skipped. A clean end of input returns nil.
func (s *StdinReader) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 64*1024), maxStdinLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		IncrementReceiverRequests("stdin")
		e := wire.NewEntry(s.source, line)
		if err := s.sink.Add(e); err != nil {
			IncrementReceiverError("sink")
			s.stats.RecordRejected("stdin", "sink", 1)
			continue
		}
		s.stats.Process("stdin", []wire.LogEntry{*e})
		AddReceiverEntries(1)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdin read: %w", err)
	}
	return nil
}
