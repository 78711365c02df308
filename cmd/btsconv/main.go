// Command btsconv converts BTsearch base-station exports from packed DMS
// coordinates to decimal degrees, and filters converted files by distance.
//
// Usage:
//
//	btsconv [convert] [-in btsearch.csv] [-out output.csv] [-strategy dms|uke-dms|strip]
//	btsconv nearby -in output.csv -out nearby.csv -lat 52.2297 -lon 21.0122 [-radius-km 15]
//
// Flags override the environment variables read by internal/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/bts-coords/internal/adapter/textfile"
	"github.com/couchcryptid/bts-coords/internal/adapter/xlsx"
	"github.com/couchcryptid/bts-coords/internal/config"
	"github.com/couchcryptid/bts-coords/internal/domain"
	"github.com/couchcryptid/bts-coords/internal/observability"
	"github.com/couchcryptid/bts-coords/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := "convert"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return 1
	}

	switch cmd {
	case "convert":
		err = runConvert(ctx, cfg, args, stdout, stderr)
	case "nearby":
		err = runNearby(ctx, cfg, args, stdout, stderr)
	default:
		err = fmt.Errorf("unknown command %q (want convert or nearby)", cmd)
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "btsconv:", err)
		return 1
	}
	return 0
}

func runConvert(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	bindCommon(fs, cfg)
	fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "coordinate strategy: dms, uke-dms or strip")
	fs.StringVar(&cfg.LongitudeColumn, "lon-column", cfg.LongitudeColumn, "longitude column name")
	fs.StringVar(&cfg.LatitudeColumn, "lat-column", cfg.LatitudeColumn, "latitude column name")
	fs.IntVar(&cfg.LongitudeIndex, "lon-index", cfg.LongitudeIndex, "longitude column position when the name is not in the header")
	fs.IntVar(&cfg.LatitudeIndex, "lat-index", cfg.LatitudeIndex, "latitude column position when the name is not in the header")
	fs.IntVar(&cfg.MinFields, "min-fields", cfg.MinFields, "minimum fields for a record to be converted")
	fs.IntVar(&cfg.Precision, "precision", cfg.Precision, "decimal places in converted coordinates")
	fs.BoolVar(&cfg.StrictDecode, "strict", cfg.StrictDecode, "skip records with undecodable coordinates instead of writing 0.0")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	opts := cfg.TransformOptions()
	opts.Logger = logger
	strategy, err := domain.NewCoordinateTransform(cfg.Strategy, opts)
	if err != nil {
		return err
	}
	logger.Info("converting coordinates",
		"input", cfg.InputPath,
		"output", cfg.OutputPath,
		"strategy", strategy.Name(),
	)

	s, err := execute(ctx, cfg, pipeline.NewTransformer(cfg.Delimiter, strategy, logger), logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "conversion finished: %s written, %s skipped → %s\n",
		humanize.Comma(int64(s.Written)), humanize.Comma(int64(s.Skipped)), cfg.OutputPath)
	return nil
}

func runNearby(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	opts := pipeline.NearbyOptions{RadiusKm: pipeline.DefaultRadiusKm}

	fs := flag.NewFlagSet("nearby", flag.ContinueOnError)
	fs.SetOutput(stderr)
	bindCommon(fs, cfg)
	fs.Float64Var(&opts.Lat, "lat", 0, "origin latitude in decimal degrees")
	fs.Float64Var(&opts.Lon, "lon", 0, "origin longitude in decimal degrees")
	fs.Float64Var(&opts.RadiusKm, "radius-km", opts.RadiusKm, "keep stations within this great-circle distance")
	fs.IntVar(&opts.GeohashPrecision, "geohash-precision", pipeline.DefaultGeohashPrecision, "geohash length")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !setFlags(fs)["lat"] || !setFlags(fs)["lon"] {
		return errors.New("nearby: -lat and -lon are required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts.LongitudeColumn = cfg.LongitudeColumn
	opts.LatitudeColumn = cfg.LatitudeColumn
	opts.LongitudeIndex = cfg.LongitudeIndex
	opts.LatitudeIndex = cfg.LatitudeIndex

	logger := observability.NewLogger(cfg)
	s, err := execute(ctx, cfg, pipeline.NewNearbyTransformer(cfg.Delimiter, opts, logger), logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "nearby finished: %s within %g km, %s filtered, %s skipped → %s\n",
		humanize.Comma(int64(s.Written)), opts.RadiusKm,
		humanize.Comma(int64(s.Filtered)), humanize.Comma(int64(s.Skipped)), cfg.OutputPath)
	return nil
}

func bindCommon(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "input file (.csv or .xlsx)")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "output file")
	fs.StringVar(&cfg.Delimiter, "delimiter", cfg.Delimiter, "field delimiter")
	fs.StringVar(&cfg.XLSXSheet, "sheet", cfg.XLSXSheet, "workbook sheet, first sheet when empty")
	fs.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "write run metrics to this Prometheus textfile")
}

func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// execute opens the input before creating the output, runs the pipeline and
// reports the summary.
func execute(ctx context.Context, cfg *config.Config, t pipeline.Transformer, logger *slog.Logger) (pipeline.Summary, error) {
	reader, err := openInput(cfg)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer reader.Close()

	writer, err := textfile.Create(cfg.OutputPath)
	if err != nil {
		return pipeline.Summary{}, err
	}

	metrics := observability.NewMetrics()
	p := pipeline.New(reader, t, writer, logger, metrics, nil)

	s, runErr := p.Run(ctx)
	if err := writer.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close output file: %w", err)
	}

	logger.Info("run summary",
		"lines_read", s.LinesRead,
		"written", s.Written,
		"skipped", s.Skipped,
		"filtered", s.Filtered,
		"fallbacks", s.Fallbacks,
		"duration", s.Duration,
	)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	return s, runErr
}

type inputReader interface {
	pipeline.Extractor
	io.Closer
}

func openInput(cfg *config.Config) (inputReader, error) {
	if strings.EqualFold(filepath.Ext(cfg.InputPath), ".xlsx") {
		return xlsx.Open(cfg.InputPath, cfg.XLSXSheet, cfg.Delimiter)
	}
	return textfile.Open(cfg.InputPath)
}
