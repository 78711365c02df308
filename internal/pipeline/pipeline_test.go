package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bts-coords/internal/adapter/textfile"
	"github.com/couchcryptid/bts-coords/internal/domain"
	"github.com/couchcryptid/bts-coords/internal/observability"
	"github.com/couchcryptid/bts-coords/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	lines []string
	index int
	err   error // returned once lines are exhausted, instead of io.EOF
}

func (m *mockExtractor) Extract(ctx context.Context) (domain.Line, error) {
	if err := ctx.Err(); err != nil {
		return domain.Line{}, err
	}
	if m.index >= len(m.lines) {
		if m.err != nil {
			return domain.Line{}, m.err
		}
		return domain.Line{}, io.EOF
	}
	m.index++
	return domain.Line{Number: m.index, Text: m.lines[m.index-1]}, nil
}

type mockLoader struct {
	loaded []domain.Line
	failAt int // line number whose write fails
}

func (m *mockLoader) Load(_ context.Context, line domain.Line) error {
	if m.failAt != 0 && line.Number == m.failAt {
		return errors.New("disk full")
	}
	m.loaded = append(m.loaded, line)
	return nil
}

func (m *mockLoader) texts() []string {
	out := make([]string, len(m.loaded))
	for i, l := range m.loaded {
		out[i] = l.Text
	}
	return out
}

// --- helpers ---

func btsLine(id, lon, lat string) string {
	fields := make([]string, domain.DefaultMinFields)
	fields[0] = id
	fields[domain.DefaultLongitudeIndex] = lon
	fields[domain.DefaultLatitudeIndex] = lat
	return strings.Join(fields, ";")
}

func btsHeader() string {
	fields := make([]string, domain.DefaultMinFields)
	for i := range fields {
		fields[i] = "c" + string(rune('a'+i%26))
	}
	fields[0] = "id"
	fields[domain.DefaultLongitudeIndex] = domain.DefaultLongitudeColumn
	fields[domain.DefaultLatitudeIndex] = domain.DefaultLatitudeColumn
	return strings.Join(fields, ";")
}

func dmsTransformer(t *testing.T, logger *slog.Logger) *pipeline.LineTransformer {
	t.Helper()
	tr, err := domain.NewCoordinateTransform(domain.StrategyDMS, domain.TransformOptions{
		LongitudeColumn: domain.DefaultLongitudeColumn,
		LatitudeColumn:  domain.DefaultLatitudeColumn,
		LongitudeIndex:  domain.DefaultLongitudeIndex,
		LatitudeIndex:   domain.DefaultLatitudeIndex,
		MinFields:       domain.DefaultMinFields,
		Precision:       domain.DefaultPrecision,
		Logger:          logger,
	})
	require.NoError(t, err)
	return pipeline.NewTransformer(";", tr, logger)
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	header := btsHeader()
	ext := &mockExtractor{lines: []string{
		header,
		btsLine("1", "0523030E", "0405530N"),
		btsLine("2", "21E0155", "52N1425"),
	}}
	ldr := &mockLoader{}
	metrics := observability.NewMetrics()

	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC))
	p := pipeline.New(ext, dmsTransformer(t, slog.Default()), ldr, slog.Default(), metrics, fakeClock)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		header,
		btsLine("1", "5.384167", "4.098056"),
		btsLine("2", "21.031944", "52.240278"),
	}, ldr.texts())

	assert.Equal(t, 3, summary.LinesRead)
	assert.True(t, summary.HeaderWritten)
	assert.Equal(t, 2, summary.Written)
	assert.Zero(t, summary.Skipped)
	assert.Zero(t, summary.Fallbacks)
	assert.Equal(t, fakeClock.Now(), summary.StartedAt)

	assert.InDelta(t, 3.0, testutil.ToFloat64(metrics.LinesRead), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.RecordsWritten), 1e-9)
	assert.InDelta(t, float64(fakeClock.Now().Unix()), testutil.ToFloat64(metrics.LastSuccessTime), 1e-9)
}

func TestPipeline_Run_SkipsShortLines(t *testing.T) {
	var logs bytes.Buffer
	logger := newTestLogger(&logs)

	ext := &mockExtractor{lines: []string{
		"header;only",
		btsLine("1", "0523030E", "0405530N"),
		"too;few;fields",
		"",
		btsLine("4", "17W3000", "33S4500"),
	}}
	ldr := &mockLoader{}
	metrics := observability.NewMetrics()

	p := pipeline.New(ext, dmsTransformer(t, logger), ldr, logger, metrics, nil)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"header;only",
		btsLine("1", "5.384167", "4.098056"),
		btsLine("4", "-17.500000", "-33.750000"),
	}, ldr.texts())
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 5, summary.LinesRead)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.RecordsSkipped), 1e-9)
	assert.Contains(t, logs.String(), "error processing line, skipping")
	assert.Contains(t, logs.String(), "line=3")
	assert.Contains(t, logs.String(), "too few fields")
}

func TestPipeline_Run_CountsFallbacks(t *testing.T) {
	ext := &mockExtractor{lines: []string{
		btsHeader(),
		btsLine("1", "xx", "0405530N"),
		btsLine("2", "", "bad"),
	}}
	ldr := &mockLoader{}
	metrics := observability.NewMetrics()

	p := pipeline.New(ext, dmsTransformer(t, slog.Default()), ldr, slog.Default(), metrics, nil)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, 3, summary.Fallbacks)
	assert.Equal(t, btsLine("2", "0.000000", "0.000000"), ldr.loaded[2].Text)
	assert.InDelta(t, 3.0, testutil.ToFloat64(metrics.CoordinateFallbacks), 1e-9)
}

func TestPipeline_Run_EmptyInput(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, dmsTransformer(t, slog.Default()), ldr, slog.Default(), observability.NewMetrics(), nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.HeaderWritten)
	assert.Zero(t, summary.LinesRead)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_HeaderOnly(t *testing.T) {
	ldr := &mockLoader{}
	ext := &mockExtractor{lines: []string{"id;LONGuke;LATIuke"}}
	p := pipeline.New(ext, dmsTransformer(t, slog.Default()), ldr, slog.Default(), observability.NewMetrics(), nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.HeaderWritten)
	assert.Equal(t, []string{"id;LONGuke;LATIuke"}, ldr.texts())
}

func TestPipeline_Run_ReadErrorIsFatal(t *testing.T) {
	ext := &mockExtractor{
		lines: []string{btsHeader(), btsLine("1", "0523030E", "0405530N")},
		err:   errors.New("input/output error"),
	}
	ldr := &mockLoader{}
	p := pipeline.New(ext, dmsTransformer(t, slog.Default()), ldr, slog.Default(), observability.NewMetrics(), nil)

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input/output error")
	assert.Equal(t, 1, summary.Written)
}

func TestPipeline_Run_WriteErrorIsFatal(t *testing.T) {
	ext := &mockExtractor{lines: []string{
		btsHeader(),
		btsLine("1", "0523030E", "0405530N"),
		btsLine("2", "0523030E", "0405530N"),
	}}
	ldr := &mockLoader{failAt: 2}
	p := pipeline.New(ext, dmsTransformer(t, slog.Default()), ldr, slog.Default(), observability.NewMetrics(), nil)

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write line 2")
	assert.Zero(t, summary.Written)
	assert.Equal(t, 2, summary.LinesRead)
}

func TestPipeline_Run_HeaderWriteError(t *testing.T) {
	ext := &mockExtractor{lines: []string{btsHeader()}}
	p := pipeline.New(ext, dmsTransformer(t, slog.Default()), &mockLoader{failAt: 1}, slog.Default(), observability.NewMetrics(), nil)

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write header")
	assert.False(t, summary.HeaderWritten)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{lines: []string{btsHeader()}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, dmsTransformer(t, slog.Default()), ldr, slog.Default(), observability.NewMetrics(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_StripStrategy(t *testing.T) {
	ext := &mockExtractor{lines: []string{
		"id;lat;lon;miasto",
		"1;52.1N;21.03E;Lublin",
		"2;40S;W3;Gdansk",
	}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, pipeline.NewTransformer(";", domain.HemisphereStrip{}, slog.Default()), ldr, slog.Default(), observability.NewMetrics(), nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, []string{
		"id;lat;lon;miasto",
		"1;52.1;21.03;Lublin",
		"2;40-;-3;Gdansk",
	}, ldr.texts())
}

func TestPipeline_Run_TextFilesEndToEnd(t *testing.T) {
	header := btsHeader() + "\r"
	input := strings.Join([]string{
		header,
		btsLine("1", "0523030E", "0405530N") + "\r",
		"short\r",
		btsLine("3", "21E0155", "52N1425") + "\r",
	}, "\n")

	var out bytes.Buffer
	w := textfile.NewWriter(&out)
	p := pipeline.New(textfile.NewReader(strings.NewReader(input)), dmsTransformer(t, slog.Default()), w, slog.Default(), observability.NewMetrics(), nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, strings.Join([]string{
		header,
		btsLine("1", "5.384167", "4.098056") + "\r",
		btsLine("3", "21.031944", "52.240278") + "\r",
	}, "\n")+"\n", out.String())
}
