// Package tsv decodes and encodes the line-oriented, tab-separated records
// used by every linkgraph input and output.
package tsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/models"
)

// Reader splits an input stream into records with a fixed field count.
type Reader struct {
	br   *bufio.Reader
	name string
	line int
}

// NewReader returns a Reader over r. name is used only in error messages.
func NewReader(r io.Reader, name string) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 1<<16), name: name}
}

// Next returns the fields of the next line. A line that does not split into
// exactly want fields is an apperr.ErrFormat. io.EOF is returned once the
// stream is exhausted.
func (r *Reader) Next(want int) ([]string, error) {
	raw, err := r.br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("tsv: read %s: %w", r.name, err)
	}
	if raw == "" && err != nil {
		return nil, io.EOF
	}
	r.line++

	raw = strings.TrimSuffix(raw, "\n")
	raw = strings.TrimSuffix(raw, "\r")
	fields := strings.Split(raw, "\t")
	if len(fields) != want {
		return nil, fmt.Errorf("tsv: %s:%d: got %d fields, want %d: %w",
			r.name, r.line, len(fields), want, apperr.ErrFormat)
	}
	return fields, nil
}

// records turns a Reader into a lazy sequence of decoded values. The first
// error is yielded once and ends the sequence.
func records[T any](r *Reader, want int, decode func([]string) T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			fields, err := r.Next(want)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(decode(fields), nil) {
				return
			}
		}
	}
}

// Pages decodes catalog lines: id, title, and a third ignored field.
func Pages(r io.Reader, name string) iter.Seq2[models.Page, error] {
	return records(NewReader(r, name), 3, func(f []string) models.Page {
		return models.Page{ID: f[0], Title: f[1]}
	})
}

// Redirects decodes redirect lines: source id, target id.
func Redirects(r io.Reader, name string) iter.Seq2[models.Redirect, error] {
	return records(NewReader(r, name), 2, func(f []string) models.Redirect {
		return models.Redirect{SourceID: f[0], TargetID: f[1]}
	})
}

// Links decodes raw link lines: source id, target title.
func Links(r io.Reader, name string) iter.Seq2[models.RawLink, error] {
	return records(NewReader(r, name), 2, func(f []string) models.RawLink {
		return models.RawLink{SourceID: f[0], TargetTitle: f[1]}
	})
}
