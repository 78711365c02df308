package domain

import "strings"

// HasHemisphere reports whether a field contains any of N, S, E or W.
func HasHemisphere(field string) bool {
	return strings.ContainsAny(field, "NSEW")
}

// StripHemisphere removes the first "N" and the first "E" and replaces the
// first "S" and the first "W" with "-" in place. Later occurrences are kept,
// so "40S" becomes "40-" and "NN" becomes "N".
func StripHemisphere(field string) string {
	out := strings.Replace(field, "N", "", 1)
	out = strings.Replace(out, "E", "", 1)
	out = strings.Replace(out, "S", "-", 1)
	return strings.Replace(out, "W", "-", 1)
}
