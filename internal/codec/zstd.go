// Package codec wraps the zstandard framing used by corpus dump files.
package codec

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Suffix is the file extension every compressed input must carry.
const Suffix = ".zst"

// HasSuffix reports whether path names a zstandard file.
func HasSuffix(path string) bool {
	return strings.HasSuffix(path, Suffix)
}

type readCloser struct {
	dec  *zstd.Decoder
	file io.Closer
}

func (r *readCloser) Read(p []byte) (int, error) { return r.dec.Read(p) }

func (r *readCloser) Close() error {
	r.dec.Close()
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// NewReader decompresses r. Closing the result releases the decoder only.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("codec: new decoder: %w", err)
	}
	return &readCloser{dec: dec}, nil
}

// Open opens a zstandard file for streaming decompression.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("codec: open %s: %w", path, err)
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("codec: %s: %w", path, err)
	}
	r.(*readCloser).file = f
	return r, nil
}

// NewWriter compresses everything written to the result into w. Close
// flushes the final frame but does not close w. Empty output still gets a
// frame so other zstd readers accept the file.
func NewWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, fmt.Errorf("codec: new encoder: %w", err)
	}
	return enc, nil
}
