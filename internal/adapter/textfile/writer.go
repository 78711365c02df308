package textfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/bts-coords/internal/domain"
)

// Writer appends lines to an output file through a buffer.
// It implements pipeline.Loader.
type Writer struct {
	closer io.Closer
	bw     *bufio.Writer
}

// Create creates or truncates an output file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// NewWriter wraps an io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 64*1024)}
}

// Load writes one line followed by "\n".
func (w *Writer) Load(_ context.Context, line domain.Line) error {
	if _, err := w.bw.WriteString(line.Text); err != nil {
		return fmt.Errorf("write line %d: %w", line.Number, err)
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("write line %d: %w", line.Number, err)
	}
	return nil
}

// Close flushes buffered lines and closes the file.
func (w *Writer) Close() error {
	flushErr := w.bw.Flush()
	if w.closer == nil {
		return flushErr
	}
	if err := w.closer.Close(); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}
