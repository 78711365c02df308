package domain

import (
	"errors"
	"strings"
)

var (
	// ErrTooFewFields marks a record too short to address its coordinate columns.
	ErrTooFewFields = errors.New("too few fields")

	// ErrFiltered marks a line deliberately left out of the output.
	ErrFiltered = errors.New("line filtered")
)

// Line is one physical line of an input file. Text excludes the trailing
// newline but keeps a carriage return, if any.
type Line struct {
	Number int
	Text   string
}

// Record is a line split on the delimiter. No quoting rules apply.
type Record struct {
	Line   int
	Fields []string
}

// SplitRecord splits a line into fields, keeping trailing empty fields.
func SplitRecord(line Line, delim string) Record {
	return Record{Line: line.Number, Fields: strings.Split(line.Text, delim)}
}

// Join reassembles the record in original field order.
func (r Record) Join(delim string) string {
	return strings.Join(r.Fields, delim)
}

// Header holds the column names from the first line of a file.
type Header struct {
	Fields []string
	index  map[string]int
}

// ParseHeader splits the header line and indexes column names. Names are
// trimmed; the first occurrence of a duplicated name wins.
func ParseHeader(line Line, delim string) Header {
	fields := strings.Split(strings.TrimRight(line.Text, "\r"), delim)
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f)
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	return Header{Fields: fields, index: idx}
}

// Index returns the zero-based position of a named column.
func (h Header) Index(name string) (int, bool) {
	i, ok := h.index[strings.TrimSpace(name)]
	return i, ok
}

// Converted is a processed output line.
type Converted struct {
	Line Line

	// Fallbacks counts coordinate fields that decoded to the 0.0 sentinel.
	Fallbacks int
}
