package tsv

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// UnmatchedHeader is the first line of every unmatched-targets output.
const UnmatchedHeader = "source_id\ttarget_title"

// Writer encodes records as tab-joined, newline-terminated lines.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter returns a buffered Writer over w. Callers must Flush.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 1<<16)}
}

// Write emits one record.
func (w *Writer) Write(fields ...string) error {
	if _, err := w.bw.WriteString(strings.Join(fields, "\t")); err != nil {
		return fmt.Errorf("tsv: write: %w", err)
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("tsv: write: %w", err)
	}
	return nil
}

// WriteLine emits a pre-formatted line such as a header.
func (w *Writer) WriteLine(line string) error {
	if _, err := w.bw.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("tsv: write: %w", err)
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("tsv: flush: %w", err)
	}
	return nil
}
