package domain

import (
	"fmt"
	"log/slog"
	"strings"
)

// Strategy names accepted by NewCoordinateTransform.
const (
	StrategyDMS         = "dms"
	StrategySymbolicDMS = "uke-dms"
	StrategyStrip       = "strip"
)

// Default column layout of the BTSearch export.
const (
	DefaultLongitudeColumn = "LONGuke"
	DefaultLatitudeColumn  = "LATIuke"
	DefaultLongitudeIndex  = 24
	DefaultLatitudeIndex   = 25
	DefaultMinFields       = 27
	DefaultPrecision       = 6
)

// CoordinateTransform rewrites the coordinate fields of a record.
type CoordinateTransform interface {
	Name() string
	Apply(rec Record) (Applied, error)
}

// HeaderBinder is implemented by transforms that resolve columns by name.
type HeaderBinder interface {
	Bind(h Header) error
}

// Applied is the outcome of a transform on one record.
type Applied struct {
	Record    Record
	Rewritten int // fields changed
	Fallbacks int // fields written as 0.0 after a decode failure
}

// Decoder converts a raw coordinate token to signed decimal degrees.
type Decoder func(raw string) (float64, error)

// TransformOptions configures the positional strategies. Zero values select
// the BTSearch defaults, except Precision where 0 is meaningful.
type TransformOptions struct {
	LongitudeColumn string
	LatitudeColumn  string
	LongitudeIndex  int
	LatitudeIndex   int
	MinFields       int
	Precision       int
	Strict          bool
	Logger          *slog.Logger
}

// NewCoordinateTransform selects a strategy by name.
func NewCoordinateTransform(name string, opts TransformOptions) (CoordinateTransform, error) {
	switch name {
	case StrategyDMS:
		return NewPositionalDMS(name, DecodeCompactDMS, opts), nil
	case StrategySymbolicDMS:
		return NewPositionalDMS(name, DecodeSymbolicDMS, opts), nil
	case StrategyStrip:
		return HemisphereStrip{}, nil
	default:
		return nil, fmt.Errorf("unknown coordinate strategy %q", name)
	}
}

// PositionalDMS decodes the longitude and latitude columns of each record to
// decimal degrees. Columns are resolved from the header by name when possible
// and otherwise taken from fixed positions.
type PositionalDMS struct {
	name      string
	decode    Decoder
	lonColumn string
	latColumn string
	lonIndex  int
	latIndex  int
	minFields int
	precision int
	strict    bool
	logger    *slog.Logger
}

// NewPositionalDMS creates a positional strategy around a decoder.
func NewPositionalDMS(name string, decode Decoder, opts TransformOptions) *PositionalDMS {
	t := &PositionalDMS{
		name:      name,
		decode:    decode,
		lonColumn: opts.LongitudeColumn,
		latColumn: opts.LatitudeColumn,
		lonIndex:  opts.LongitudeIndex,
		latIndex:  opts.LatitudeIndex,
		minFields: opts.MinFields,
		precision: opts.Precision,
		strict:    opts.Strict,
		logger:    opts.Logger,
	}
	if t.lonIndex == 0 && t.latIndex == 0 {
		t.lonIndex, t.latIndex = DefaultLongitudeIndex, DefaultLatitudeIndex
	}
	if t.minFields <= 0 {
		t.minFields = DefaultMinFields
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

func (t *PositionalDMS) Name() string { return t.name }

// Columns returns the longitude and latitude positions in effect.
func (t *PositionalDMS) Columns() (lon, lat int) { return t.lonIndex, t.latIndex }

// Bind resolves the configured column names against the header. Missing
// names leave the positional defaults in place.
func (t *PositionalDMS) Bind(h Header) error {
	if t.lonColumn == "" || t.latColumn == "" {
		return nil
	}
	lon, okLon := h.Index(t.lonColumn)
	lat, okLat := h.Index(t.latColumn)
	if !okLon || !okLat {
		t.logger.Warn("coordinate columns not found in header, using positions",
			"longitude_column", t.lonColumn,
			"latitude_column", t.latColumn,
			"longitude_index", t.lonIndex,
			"latitude_index", t.latIndex,
		)
		return nil
	}
	t.lonIndex, t.latIndex = lon, lat
	t.logger.Debug("coordinate columns bound", "longitude_index", lon, "latitude_index", lat)
	return nil
}

// Apply decodes both coordinate fields. In lenient mode a decode failure is
// logged and the field is written as 0.0; in strict mode the record fails.
func (t *PositionalDMS) Apply(rec Record) (Applied, error) {
	need := max(t.minFields, t.lonIndex+1, t.latIndex+1)
	if len(rec.Fields) < need {
		return Applied{}, fmt.Errorf("%w: got %d, need %d", ErrTooFewFields, len(rec.Fields), need)
	}

	fields := make([]string, len(rec.Fields))
	copy(fields, rec.Fields)
	out := Applied{Record: Record{Line: rec.Line, Fields: fields}}

	for _, col := range []struct {
		axis  string
		index int
	}{
		{"longitude", t.lonIndex},
		{"latitude", t.latIndex},
	} {
		raw, cr := strings.CutSuffix(fields[col.index], "\r")
		v, err := t.decode(raw)
		if err != nil {
			if t.strict {
				return Applied{}, fmt.Errorf("decode %s: %w", col.axis, err)
			}
			t.logger.Warn("error converting DMS to decimal",
				"line", rec.Line,
				"field", col.index,
				"axis", col.axis,
				"value", raw,
				"error", err,
			)
			v = 0
			out.Fallbacks++
		}
		fields[col.index] = FormatDecimal(v, t.precision)
		if cr {
			fields[col.index] += "\r"
		}
		out.Rewritten++
	}

	return out, nil
}

// HemisphereStrip rewrites every field that carries a hemisphere letter with
// StripHemisphere. It performs no DMS arithmetic and needs no column layout.
type HemisphereStrip struct{}

func (HemisphereStrip) Name() string { return StrategyStrip }

func (HemisphereStrip) Apply(rec Record) (Applied, error) {
	fields := make([]string, len(rec.Fields))
	out := Applied{Record: Record{Line: rec.Line, Fields: fields}}
	for i, f := range rec.Fields {
		if HasHemisphere(f) {
			f = StripHemisphere(f)
			out.Rewritten++
		}
		fields[i] = f
	}
	return out, nil
}
