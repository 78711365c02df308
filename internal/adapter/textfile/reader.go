package textfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/bts-coords/internal/domain"
)

// Reader yields the lines of a delimited text file one at a time.
// It implements pipeline.Extractor.
type Reader struct {
	closer io.Closer
	br     *bufio.Reader
	line   int
}

// Open opens an input file for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// NewReader wraps an io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024)}
}

// Extract returns the next line without its trailing newline, or io.EOF.
// A carriage return before the newline is kept.
func (r *Reader) Extract(ctx context.Context) (domain.Line, error) {
	if err := ctx.Err(); err != nil {
		return domain.Line{}, err
	}

	text, err := r.br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return domain.Line{}, fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	if text == "" && err != nil {
		return domain.Line{}, io.EOF
	}

	r.line++
	return domain.Line{Number: r.line, Text: strings.TrimSuffix(text, "\n")}, nil
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
