package pipeline

import (
	"fmt"
	"io"

	"github.com/starford/linkgraph/internal/codec"
	"github.com/starford/linkgraph/internal/storage"
)

// Output is a destination for one output stream. File destinations are
// written atomically and only appear once Commit succeeds.
type Output struct {
	w    io.Writer
	enc  io.WriteCloser
	file *storage.File
}

// OpenOutput resolves path to a destination: "" or "-" writes to stdout,
// a path ending in .zst is zstandard-compressed, anything else is plain text.
func OpenOutput(path string, stdout io.Writer) (*Output, error) {
	if path == "" || path == "-" {
		return &Output{w: stdout}, nil
	}
	return openFile(path, codec.HasSuffix(path))
}

func openFile(path string, compress bool) (*Output, error) {
	f, err := storage.Create(path)
	if err != nil {
		return nil, err
	}
	if !compress {
		return &Output{w: f, file: f}, nil
	}
	enc, err := codec.NewWriter(f)
	if err != nil {
		f.Abort()
		return nil, err
	}
	return &Output{w: enc, enc: enc, file: f}, nil
}

func (o *Output) Write(p []byte) (int, error) { return o.w.Write(p) }

// Commit finishes the compressed frame, if any, and publishes the file.
func (o *Output) Commit() error {
	if o.enc != nil {
		if err := o.enc.Close(); err != nil {
			o.Abort()
			return fmt.Errorf("pipeline: finish %s: %w", o.file.Path(), err)
		}
	}
	if o.file != nil {
		if err := o.file.Commit(); err != nil {
			return fmt.Errorf("pipeline: publish %s: %w", o.file.Path(), err)
		}
	}
	return nil
}

// Abort discards a file destination. Safe to defer.
func (o *Output) Abort() {
	if o.file != nil {
		o.file.Abort()
	}
}
