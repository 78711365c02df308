package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/adrianmo/go-nmea"
)

var (
	// ErrShortDMS is returned when a DMS string has fewer than six characters.
	ErrShortDMS = errors.New("invalid DMS format")

	// ErrInvalidDMS is returned when a DMS component is not a decimal number.
	ErrInvalidDMS = errors.New("invalid DMS component")
)

// symbolicDMSRe parses UKE spreadsheet coordinates: "<deg><hemisphere><min>'<sec>\"",
// e.g. 19E48'22" -> deg=19, hemisphere=E, min=48, sec=22.
var symbolicDMSRe = regexp.MustCompile(`^\s*(\d{1,3})\s*([NSEW])\s*(\d{1,2})\s*['′]\s*(\d{1,2}(?:[.,]\d+)?)\s*(?:"|″|'')?\s*$`)

// DMSToDecimal converts a DDMMSS string and a hemisphere letter to signed
// decimal degrees. Only the first six characters are read; S and W negate.
func DMSToDecimal(dms string, direction byte) (float64, error) {
	if len(dms) < 6 {
		return 0, fmt.Errorf("%w for DMS: %q", ErrShortDMS, dms)
	}

	degrees, err := parseDigits(dms[0:2])
	if err != nil {
		return 0, fmt.Errorf("degrees for DMS %q: %w", dms, err)
	}
	minutes, err := parseDigits(dms[2:4])
	if err != nil {
		return 0, fmt.Errorf("minutes for DMS %q: %w", dms, err)
	}
	seconds, err := parseDigits(dms[4:6])
	if err != nil {
		return 0, fmt.Errorf("seconds for DMS %q: %w", dms, err)
	}

	decimal := float64(degrees) + float64(minutes)/60.0 + float64(seconds)/3600.0
	return applyHemisphere(decimal, direction), nil
}

// SplitHemisphere removes the first hemisphere letter from a raw coordinate
// token and returns the remaining text and the letter. ok is false when the
// token carries no letter.
func SplitHemisphere(raw string) (digits string, direction byte, ok bool) {
	i := strings.IndexAny(raw, "NSEW")
	if i < 0 {
		return strings.TrimSpace(raw), 0, false
	}
	return strings.TrimSpace(raw[:i] + raw[i+1:]), raw[i], true
}

// DecodeCompactDMS decodes a BTSearch coordinate such as "21E0155" or "0523030E".
func DecodeCompactDMS(raw string) (float64, error) {
	digits, direction, _ := SplitHemisphere(raw)
	return DMSToDecimal(digits, direction)
}

// DecodeSymbolicDMS decodes a UKE coordinate such as 19E48'22". Minutes and
// seconds must be below 60.
func DecodeSymbolicDMS(raw string) (float64, error) {
	m := symbolicDMSRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDMS, raw)
	}

	seconds := strings.Replace(m[4], ",", ".", 1)
	if mins, _ := strconv.Atoi(m[3]); mins >= 60 {
		return 0, fmt.Errorf("%w: minutes out of range in %q", ErrInvalidDMS, raw)
	}
	if secs, _ := strconv.ParseFloat(seconds, 64); secs >= 60 {
		return 0, fmt.Errorf("%w: seconds out of range in %q", ErrInvalidDMS, raw)
	}

	v, err := nmea.ParseDMS(fmt.Sprintf("%s° %s' %s\"", m[1], m[3], seconds))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDMS, raw, err)
	}
	return applyHemisphere(v, m[2][0]), nil
}

// FormatDecimal renders decimal degrees in fixed-point notation.
func FormatDecimal(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func applyHemisphere(v float64, direction byte) float64 {
	if direction == 'S' || direction == 'W' {
		return -v
	}
	return v
}

// parseDigits parses an unsigned decimal substring. Signs and spaces are rejected.
func parseDigits(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDMS, s)
		}
	}
	return strconv.Atoi(s)
}
