package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gansidui/geohash"
	geo "github.com/kellydunn/golang-geo"

	"github.com/couchcryptid/bts-coords/internal/domain"
)

// Defaults for the proximity filter.
const (
	DefaultRadiusKm         = 15.0
	DefaultGeohashPrecision = 7
)

// NearbyOptions configures a NearbyTransformer. Coordinates in the input must
// already be decimal degrees.
type NearbyOptions struct {
	Lat              float64
	Lon              float64
	RadiusKm         float64
	GeohashPrecision int
	LongitudeColumn  string
	LatitudeColumn   string
	LongitudeIndex   int
	LatitudeIndex    int
}

// NearbyTransformer keeps stations within a great-circle radius of an origin
// and appends their distance and geohash. It implements Transformer.
type NearbyTransformer struct {
	delim     string
	origin    *geo.Point
	radiusKm  float64
	precision int
	lonColumn string
	latColumn string
	lonIndex  int
	latIndex  int
	logger    *slog.Logger
}

// NewNearbyTransformer creates a proximity filter.
func NewNearbyTransformer(delim string, opts NearbyOptions, logger *slog.Logger) *NearbyTransformer {
	if opts.RadiusKm <= 0 {
		opts.RadiusKm = DefaultRadiusKm
	}
	if opts.GeohashPrecision <= 0 {
		opts.GeohashPrecision = DefaultGeohashPrecision
	}
	return &NearbyTransformer{
		delim:     delim,
		origin:    geo.NewPoint(opts.Lat, opts.Lon),
		radiusKm:  opts.RadiusKm,
		precision: opts.GeohashPrecision,
		lonColumn: opts.LongitudeColumn,
		latColumn: opts.LatitudeColumn,
		lonIndex:  opts.LongitudeIndex,
		latIndex:  opts.LatitudeIndex,
		logger:    logger,
	}
}

// TransformHeader resolves the coordinate columns and appends the
// distance_km and geohash column names.
func (t *NearbyTransformer) TransformHeader(_ context.Context, header domain.Line) (domain.Line, error) {
	h := domain.ParseHeader(header, t.delim)
	if lon, ok := h.Index(t.lonColumn); ok && t.lonColumn != "" {
		t.lonIndex = lon
	}
	if lat, ok := h.Index(t.latColumn); ok && t.latColumn != "" {
		t.latIndex = lat
	}
	if t.lonIndex >= len(h.Fields) || t.latIndex >= len(h.Fields) {
		return domain.Line{}, fmt.Errorf("%w: header has %d columns, coordinates at %d and %d",
			domain.ErrTooFewFields, len(h.Fields), t.lonIndex, t.latIndex)
	}

	t.logger.Info("nearby filter",
		"lat", t.origin.Lat(),
		"lon", t.origin.Lng(),
		"radius_km", t.radiusKm,
		"longitude_index", t.lonIndex,
		"latitude_index", t.latIndex,
	)
	return appendFields(header, t.delim, "distance_km", "geohash"), nil
}

func (t *NearbyTransformer) Transform(_ context.Context, line domain.Line) (domain.Converted, error) {
	rec := domain.SplitRecord(line, t.delim)
	if len(rec.Fields) <= max(t.lonIndex, t.latIndex) {
		return domain.Converted{}, fmt.Errorf("%w: got %d", domain.ErrTooFewFields, len(rec.Fields))
	}

	lat, err := parseDegrees(rec.Fields[t.latIndex])
	if err != nil {
		return domain.Converted{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseDegrees(rec.Fields[t.lonIndex])
	if err != nil {
		return domain.Converted{}, fmt.Errorf("longitude: %w", err)
	}

	distance := t.origin.GreatCircleDistance(geo.NewPoint(lat, lon))
	if distance > t.radiusKm {
		return domain.Converted{}, domain.ErrFiltered
	}

	hash, _ := geohash.Encode(lat, lon, t.precision)
	return domain.Converted{
		Line: appendFields(line, t.delim, domain.FormatDecimal(distance, 3), hash),
	}, nil
}

func parseDegrees(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not decimal degrees: %q", s)
	}
	return v, nil
}

// appendFields adds fields to the end of a line, keeping a trailing carriage return.
func appendFields(line domain.Line, delim string, fields ...string) domain.Line {
	text, cr := strings.CutSuffix(line.Text, "\r")
	text += delim + strings.Join(fields, delim)
	if cr {
		text += "\r"
	}
	return domain.Line{Number: line.Number, Text: text}
}
