package phone

import (
	"sort"
	"testing"
)

var in = Region{CountryCode: "91"}

func TestNormalize_LocalNumberGetsQualified(t *testing.T) {
	got, ok := Normalize("98765 43210", in)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got != "+919876543210" {
		t.Fatalf("expected +919876543210, got %q", got)
	}
}

func TestNormalize_CountryCodePrefixed(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"919876543210", "+919876543210"},
		{"+91 98765-43210", "+919876543210"},
		{"(987) 654-3210", "+919876543210"},
		{"+919876543210", "+919876543210"},
	}
	for _, tc := range cases {
		got, ok := Normalize(tc.raw, in)
		if !ok {
			t.Fatalf("expected %q to normalize", tc.raw)
		}
		if got != tc.want {
			t.Fatalf("raw %q: expected %q, got %q", tc.raw, tc.want, got)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	first, ok := Normalize("9876543210", in)
	if !ok {
		t.Fatalf("expected ok")
	}
	second, ok := Normalize(first, in)
	if !ok {
		t.Fatalf("expected canonical form to normalize")
	}
	if first != second {
		t.Fatalf("normalization not idempotent: %q vs %q", first, second)
	}
}

func TestNormalize_RejectsJunk(t *testing.T) {
	bad := []string{
		"",
		"   ",
		"not-a-number",
		"98765x43210",
		"12345",
		"+19876543210",    // wrong country code for this region
		"9876543210123",   // too long, no recognizable prefix
		"++919876543210",
		"alice@example.com",
	}
	for _, raw := range bad {
		if got, ok := Normalize(raw, in); ok {
			t.Fatalf("expected %q to be rejected, got %q", raw, got)
		}
	}
}

func TestNormalizeRecords_DeduplicatesAcrossFormats(t *testing.T) {
	records := []Record{
		{"name": "A", "phone": "9876543210"},
		{"name": "B", "mobile": "+91 98765 43210"},
		{"name": "C", "phone": "919876543210", "alt": "98765-43210"},
		{"name": "D", "phone": "9123456789"},
	}
	got := NormalizeRecords(records, in)
	sort.Strings(got)

	want := []string{"+919123456789", "+919876543210"}
	if len(got) != len(want) {
		t.Fatalf("expected %d numbers, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNormalizeRecords_NoDigitTwins(t *testing.T) {
	records := []Record{
		{"phone": "9876543210"},
		{"phone": "+919876543210"},
		{"phone": "91 98765 43210"},
	}
	got := NormalizeRecords(records, in)
	seen := map[string]bool{}
	for _, n := range got {
		d := Digits(n)
		if seen[d] {
			t.Fatalf("duplicate digits %q in output %v", d, got)
		}
		seen[d] = true
	}
	if len(got) != 1 {
		t.Fatalf("expected a single number, got %v", got)
	}
}

func TestNormalizeRecords_EmptyInput(t *testing.T) {
	if got := NormalizeRecords(nil, in); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestSuffixMatch(t *testing.T) {
	cases := []struct {
		dest    string
		contact string
		want    bool
	}{
		{"+919876543210", "9876543210", true},
		{"+919876543210", "+919876543210", true},
		{"9876543210", "9876543210", true},
		{"+919876543210", "1234509876", false}, // overlapping tail of different number
		{"+919876543210", "43210", true},       // preserved heuristic: short contact can match
		{"", "9876543210", false},
		{"+919876543210", "", false},
	}
	for _, tc := range cases {
		if got := SuffixMatch(tc.dest, tc.contact); got != tc.want {
			t.Fatalf("SuffixMatch(%q, %q) = %v, want %v", tc.dest, tc.contact, got, tc.want)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+91 (98765) 43-210"); got != "919876543210" {
		t.Fatalf("expected 919876543210, got %q", got)
	}
}
