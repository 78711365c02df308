package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/bts-coords/internal/domain"
)

// LineTransformer implements Transformer by splitting each line on the
// delimiter, applying a coordinate strategy and joining the fields again.
type LineTransformer struct {
	delim     string
	transform domain.CoordinateTransform
	logger    *slog.Logger
}

// NewTransformer creates a LineTransformer around a coordinate strategy.
func NewTransformer(delim string, transform domain.CoordinateTransform, logger *slog.Logger) *LineTransformer {
	return &LineTransformer{
		delim:     delim,
		transform: transform,
		logger:    logger,
	}
}

// TransformHeader returns the header unchanged after letting the strategy
// resolve its columns from it.
func (t *LineTransformer) TransformHeader(_ context.Context, header domain.Line) (domain.Line, error) {
	if b, ok := t.transform.(domain.HeaderBinder); ok {
		if err := b.Bind(domain.ParseHeader(header, t.delim)); err != nil {
			return domain.Line{}, err
		}
	}
	t.logger.Debug("header copied", "strategy", t.transform.Name())
	return header, nil
}

func (t *LineTransformer) Transform(_ context.Context, line domain.Line) (domain.Converted, error) {
	applied, err := t.transform.Apply(domain.SplitRecord(line, t.delim))
	if err != nil {
		return domain.Converted{}, err
	}
	return domain.Converted{
		Line:      domain.Line{Number: line.Number, Text: applied.Record.Join(t.delim)},
		Fallbacks: applied.Fallbacks,
	}, nil
}
