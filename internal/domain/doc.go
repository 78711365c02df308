// Package domain models Polish base-station (BTS) register records and the
// coordinate encodings found in them.
//
// # Data Source
//
// Station registers are exported by BTSearch and by the UKE (Urząd Komunikacji
// Elektronicznej) as semicolon-delimited text files or spreadsheets. Each data
// line is one station sector; the first line names the columns. Longitude and
// latitude live in the "LONGuke" and "LATIuke" columns, which sit at zero-based
// positions 24 and 25 in the BTSearch export.
//
// # Coordinate Encodings
//
// Compact DMS (BTSearch):
//
//	"DD" "X" "MMSS"   →  e.g. "21E0155"  = 21°01'55" E
//	"DDMMSSs" "X"     →  e.g. "0523030E" = 05°23'03" E (trailing tenths dropped)
//	The hemisphere letter X is one of N, S, E, W and may sit anywhere in the
//	token; it is removed before the first six digits are read.
//
// Symbolic DMS (UKE spreadsheets):
//
//	"DD" "X" "MM'SS\""  →  e.g. "19E48'22\"" = 19°48'22" E
//	Seconds may carry a decimal part with '.' or ','.
//
// Hemisphere sign:
//
//	S and W negate the decoded value; N, E or no letter leave it positive.
//
// # Failure Policy
//
// A coordinate that cannot be decoded yields 0.0 in lenient mode, which is
// indistinguishable from a real equatorial or prime-meridian value in the
// output. Callers that need to tell them apart use strict mode or count the
// fallbacks reported in [Applied].
//
// # Hemisphere Stripping
//
// [StripHemisphere] is a textual alternative that performs no DMS arithmetic:
// it drops the first N and E and turns the first S and W into '-' in place,
// so "40S" becomes "40-". See [HemisphereStrip].
package domain
