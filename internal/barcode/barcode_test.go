package barcode

import "testing"

func TestParseValidCodes(t *testing.T) {
	testCases := []struct {
		name  string
		token string
		want  ParsedScan
	}{
		{
			name:  "plain code",
			token: "40778-WIDGET-05",
			want:  ParsedScan{JobID: "40778", PartID: "WIDGET", Sequence: "05", RawCode: "40778-WIDGET-05"},
		},
		{
			name:  "single digit sequence is zero padded",
			token: "40778-WIDGET-5",
			want:  ParsedScan{JobID: "40778", PartID: "WIDGET", Sequence: "05", RawCode: "40778-WIDGET-05"},
		},
		{
			name:  "sentinel wrapped",
			token: "*12345-ABC-7*",
			want:  ParsedScan{JobID: "12345", PartID: "ABC", Sequence: "07", RawCode: "12345-ABC-07"},
		},
		{
			name:  "slash separators",
			token: "12345/ABC/07",
			want:  ParsedScan{JobID: "12345", PartID: "ABC", Sequence: "07", RawCode: "12345-ABC-07"},
		},
		{
			name:  "azerty dash glyph",
			token: "40778éWIDGETé12",
			want:  ParsedScan{JobID: "40778", PartID: "WIDGET", Sequence: "12", RawCode: "40778-WIDGET-12"},
		},
		{
			name:  "part id containing separators",
			token: "40778-FRAME-LEFT-2B-14",
			want:  ParsedScan{JobID: "40778", PartID: "FRAME-LEFT-2B", Sequence: "14", RawCode: "40778-FRAME-LEFT-2B-14"},
		},
		{
			name:  "alphanumeric job id",
			token: "40778A-WIDGET-03",
			want:  ParsedScan{JobID: "40778A", PartID: "WIDGET", Sequence: "03", RawCode: "40778A-WIDGET-03"},
		},
		{
			name:  "surrounding whitespace",
			token: "  40778-WIDGET-05\r\n",
			want:  ParsedScan{JobID: "40778", PartID: "WIDGET", Sequence: "05", RawCode: "40778-WIDGET-05"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.token)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.token, err)
			}
			if *got != tc.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.token, *got, tc.want)
			}
		})
	}
}

func TestParseRejections(t *testing.T) {
	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"bare sentinels", "**"},
		{"no separator", "40778WIDGET05"},
		{"missing sequence", "40778-WIDGET"},
		{"non digit sequence", "40778-WIDGET-5A"},
		{"trailing separator", "40778-WIDGET-05-"},
		{"job id with punctuation", "40_778-WIDGET-05"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.token)
			if err == nil {
				t.Errorf("Parse(%q) = %+v, want rejection", tc.token, got)
			}
		})
	}
}

func TestSentinelStrippingIsPureFraming(t *testing.T) {
	wrapped, err := Parse("*12345-ABC-7*")
	if err != nil {
		t.Fatalf("wrapped parse failed: %v", err)
	}
	bare, err := Parse("12345-ABC-7")
	if err != nil {
		t.Fatalf("bare parse failed: %v", err)
	}
	if *wrapped != *bare {
		t.Errorf("wrapped and bare tokens diverged: %+v vs %+v", *wrapped, *bare)
	}
}

func TestSeparatorAliasingIdempotence(t *testing.T) {
	slashed, err := Parse("12345/ABC/07")
	if err != nil {
		t.Fatalf("slashed parse failed: %v", err)
	}
	dashed, err := Parse("12345-ABC-07")
	if err != nil {
		t.Fatalf("dashed parse failed: %v", err)
	}
	if *slashed != *dashed {
		t.Errorf("alias normalization diverged: %+v vs %+v", *slashed, *dashed)
	}
}

func TestPadSequence(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"5", "05"},
		{"05", "05"},
		{"123", "123"},
	}
	for _, tc := range testCases {
		if got := PadSequence(tc.in); got != tc.want {
			t.Errorf("PadSequence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
