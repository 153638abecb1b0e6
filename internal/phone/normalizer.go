package phone

import "strings"

// Region describes the deployment's default dialing region.
// Numbers without an explicit country code are qualified against it.
type Region struct {
	// CountryCode is the region's country calling code, digits only (e.g. "91").
	CountryCode string
}

// DefaultRegion is used when no region is configured.
var DefaultRegion = Region{CountryCode: "91"}

const localNumberLen = 10

// Record is one uploaded contact row: free-form field name -> value.
// The upload format is not controlled here; any field may hold a phone number.
type Record map[string]string

// Normalize converts a raw field value into the canonical
// +<country-code><10 digits> form for the region.
//
// Accepted shapes after stripping whitespace, hyphens and parentheses:
//   - exactly 10 digits: local number, qualified with the region's code
//   - <country-code><10 digits>: qualified with a leading "+"
//   - +<country-code><10 digits>: already canonical
//
// Anything else is rejected with ok=false. Normalize never fails loudly;
// callers decide what an empty result means.
func Normalize(raw string, region Region) (string, bool) {
	if region.CountryCode == "" {
		region = DefaultRegion
	}

	cleaned := stripFormatting(raw)
	if cleaned == "" {
		return "", false
	}

	plus := strings.HasPrefix(cleaned, "+")
	digits := strings.TrimPrefix(cleaned, "+")
	if digits == "" || !isDigits(digits) {
		return "", false
	}

	cc := region.CountryCode
	qualifiedLen := len(cc) + localNumberLen

	switch {
	case !plus && len(digits) == localNumberLen:
		return "+" + cc + digits, true
	case len(digits) == qualifiedLen && strings.HasPrefix(digits, cc):
		return "+" + digits, true
	default:
		return "", false
	}
}

// NormalizeRecords scans every field value of every record and returns the
// deduplicated set of dialable numbers. Order of the result is not
// significant. Malformed values are silently excluded; duplicates (however
// they were formatted) collapse to one entry.
func NormalizeRecords(records []Record, region Region) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(records))
	for _, rec := range records {
		for _, v := range rec {
			n, ok := Normalize(v, region)
			if !ok {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// NormalizeAll normalizes a flat list of raw values, deduplicated.
func NormalizeAll(raws []string, region Region) []string {
	records := make([]Record, 0, len(raws))
	for _, r := range raws {
		records = append(records, Record{"phone": r})
	}
	return NormalizeRecords(records, region)
}

// Digits strips everything but 0-9 from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SuffixMatch reports whether a provider-reported destination and a stored
// contact number refer to the same line. Both sides are reduced to digits;
// they match when equal, or when the provider destination ends with the
// contact's full digit string (contact stored without a country code while
// the provider reports E.164).
//
// Known ambiguity, preserved deliberately: a short contact number can match
// an unrelated destination sharing the same trailing digits. A stricter rule
// would qualify both sides to the same country code and require full-length
// equality, but that changes which historical provider records match.
func SuffixMatch(providerDest, contact string) bool {
	d := Digits(providerDest)
	c := Digits(contact)
	if d == "" || c == "" {
		return false
	}
	if d == c {
		return true
	}
	return strings.HasSuffix(d, c)
}

func stripFormatting(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '(', ')':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
