package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/bts-coords/internal/domain"
	"github.com/couchcryptid/bts-coords/internal/observability"
)

// Extractor reads input lines in order, returning io.EOF after the last one.
type Extractor interface {
	Extract(ctx context.Context) (domain.Line, error)
}

// Transformer converts the header and the data lines.
type Transformer interface {
	TransformHeader(ctx context.Context, header domain.Line) (domain.Line, error)
	Transform(ctx context.Context, line domain.Line) (domain.Converted, error)
}

// Loader writes output lines.
type Loader interface {
	Load(ctx context.Context, line domain.Line) error
}

// Summary reports the outcome of one run.
type Summary struct {
	LinesRead     int
	HeaderWritten bool
	Written       int
	Skipped       int
	Filtered      int
	Fallbacks     int
	StartedAt     time.Time
	Duration      time.Duration
}

// Pipeline copies the header and converts every following line, one at a time.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
}

// New creates a Pipeline with the given stages and observability. A nil clock
// selects the real clock.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
	}
}

// Run processes the whole input. Lines that fail to transform are logged and
// dropped; read and write failures stop the run and are returned together with
// the summary so far.
func (p *Pipeline) Run(ctx context.Context) (s Summary, err error) {
	s.StartedAt = p.clock.Now()
	defer func() {
		s.Duration = p.clock.Since(s.StartedAt)
		p.metrics.RunDuration.Set(s.Duration.Seconds())
	}()

	header, err := p.extractor.Extract(ctx)
	if errors.Is(err, io.EOF) {
		p.logger.Warn("input is empty, nothing to convert")
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read header: %w", err)
	}
	p.countRead(&s)

	out, err := p.transformer.TransformHeader(ctx, header)
	if err != nil {
		return s, fmt.Errorf("transform header: %w", err)
	}
	if err := p.loader.Load(ctx, out); err != nil {
		return s, fmt.Errorf("write header: %w", err)
	}
	s.HeaderWritten = true

	for {
		line, err := p.extractor.Extract(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err(), "line", s.LinesRead)
			}
			return s, err
		}
		p.countRead(&s)

		if err := p.processLine(ctx, line, &s); err != nil {
			return s, err
		}
	}

	p.metrics.LastSuccessTime.Set(float64(p.clock.Now().Unix()))
	return s, nil
}

// processLine transforms and writes one data line. Only write errors are returned.
func (p *Pipeline) processLine(ctx context.Context, line domain.Line, s *Summary) error {
	conv, err := p.transformer.Transform(ctx, line)
	if errors.Is(err, domain.ErrFiltered) {
		s.Filtered++
		p.metrics.RecordsFiltered.Inc()
		return nil
	}
	if err != nil {
		p.logger.Warn("error processing line, skipping", "line", line.Number, "error", err)
		s.Skipped++
		p.metrics.RecordsSkipped.Inc()
		return nil
	}

	if err := p.loader.Load(ctx, conv.Line); err != nil {
		return fmt.Errorf("write line %d: %w", line.Number, err)
	}
	s.Written++
	s.Fallbacks += conv.Fallbacks
	p.metrics.RecordsWritten.Inc()
	p.metrics.CoordinateFallbacks.Add(float64(conv.Fallbacks))
	return nil
}

func (p *Pipeline) countRead(s *Summary) {
	s.LinesRead++
	p.metrics.LinesRead.Inc()
}
