package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/bts-coords/internal/domain"
)

// Config holds all converter settings, populated from environment variables
// and optionally overridden by command-line flags.
type Config struct {
	InputPath  string `validate:"required"`
	OutputPath string `validate:"required,nefield=InputPath"`
	Delimiter  string `validate:"required,len=1"`
	Strategy   string `validate:"oneof=dms uke-dms strip"`
	XLSXSheet  string

	// Coordinate column layout. Names take precedence when found in the header.
	LongitudeColumn string
	LatitudeColumn  string
	LongitudeIndex  int `validate:"min=0,nefield=LatitudeIndex"`
	LatitudeIndex   int `validate:"min=0"`
	MinFields       int `validate:"min=1"`
	Precision       int `validate:"min=0,max=15"`
	StrictDecode    bool

	LogLevel        string `validate:"oneof=debug info warn error"`
	LogFormat       string `validate:"oneof=json text"`
	MetricsTextfile string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	lonIndex, err := parseInt("LONGITUDE_INDEX", domain.DefaultLongitudeIndex)
	if err != nil {
		return nil, err
	}
	latIndex, err := parseInt("LATITUDE_INDEX", domain.DefaultLatitudeIndex)
	if err != nil {
		return nil, err
	}
	minFields, err := parseInt("MIN_FIELDS", domain.DefaultMinFields)
	if err != nil {
		return nil, err
	}
	precision, err := parseInt("COORD_PRECISION", domain.DefaultPrecision)
	if err != nil {
		return nil, err
	}
	strict, err := parseBool("STRICT_DECODE")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:       sharedcfg.EnvOrDefault("INPUT_PATH", "btsearch.csv"),
		OutputPath:      sharedcfg.EnvOrDefault("OUTPUT_PATH", "output.csv"),
		Delimiter:       sharedcfg.EnvOrDefault("DELIMITER", ";"),
		Strategy:        sharedcfg.EnvOrDefault("COORD_STRATEGY", domain.StrategyDMS),
		XLSXSheet:       os.Getenv("XLSX_SHEET"),
		LongitudeColumn: sharedcfg.EnvOrDefault("LONGITUDE_COLUMN", domain.DefaultLongitudeColumn),
		LatitudeColumn:  sharedcfg.EnvOrDefault("LATITUDE_COLUMN", domain.DefaultLatitudeColumn),
		LongitudeIndex:  lonIndex,
		LatitudeIndex:   latIndex,
		MinFields:       minFields,
		Precision:       precision,
		StrictDecode:    strict,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints. Call it again after applying flag overrides.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (value %v)", envName(fe.Field()), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// TransformOptions maps the coordinate settings onto the domain strategy options.
func (c *Config) TransformOptions() domain.TransformOptions {
	return domain.TransformOptions{
		LongitudeColumn: c.LongitudeColumn,
		LatitudeColumn:  c.LatitudeColumn,
		LongitudeIndex:  c.LongitudeIndex,
		LatitudeIndex:   c.LatitudeIndex,
		MinFields:       c.MinFields,
		Precision:       c.Precision,
		Strict:          c.StrictDecode,
	}
}

var envNames = map[string]string{
	"InputPath":      "INPUT_PATH",
	"OutputPath":     "OUTPUT_PATH",
	"Delimiter":      "DELIMITER",
	"Strategy":       "COORD_STRATEGY",
	"LongitudeIndex": "LONGITUDE_INDEX",
	"LatitudeIndex":  "LATITUDE_INDEX",
	"MinFields":      "MIN_FIELDS",
	"Precision":      "COORD_PRECISION",
	"LogLevel":       "LOG_LEVEL",
	"LogFormat":      "LOG_FORMAT",
}

func envName(field string) string {
	if n, ok := envNames[field]; ok {
		return n
	}
	return field
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return b, nil
}
