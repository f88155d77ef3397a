package barcode

import (
	"errors"
	"regexp"
	"strings"
)

// Canonical separator for the <job>-<part>-<sequence> grammar.
const Separator = "-"

// Separator glyphs accepted from scanners. '/' shows up on labels printed
// by the older template; 'é' is what an AZERTY layout produces when the
// scanner emulates the dash key.
var separatorAliases = strings.NewReplacer("/", Separator, "é", Separator)

// Grammar: alphanumeric job id, greedy middle part id (may itself contain
// separators), digit-only sequence anchored at the end.
var codePattern = regexp.MustCompile(`^([A-Za-z0-9]+)-(.+)-([0-9]+)$`)

var ErrEmptyCode = errors.New("empty barcode")

// ParsedScan is the validated triple extracted from one scanned token.
// Immutable once created.
type ParsedScan struct {
	JobID    string
	PartID   string
	Sequence string
	// RawCode is the normalized code as submitted to the ledger.
	RawCode string
}

// Normalize strips sentinel framing and folds separator aliases into the
// canonical separator. It never removes content, only transport artifacts.
func Normalize(token string) string {
	code := strings.TrimSpace(token)

	// Some scanners wrap Code 39 payloads in '*' sentinels. Strip exactly
	// one character from each end, nothing more.
	if len(code) >= 2 && strings.HasPrefix(code, "*") && strings.HasSuffix(code, "*") {
		code = code[1 : len(code)-1]
	}

	return separatorAliases.Replace(code)
}

// Parse normalizes a raw token and matches it against the label grammar.
// It returns a rejection error for anything that does not match; it never
// panics on malformed input.
func Parse(token string) (*ParsedScan, error) {
	code := Normalize(token)
	if code == "" {
		return nil, ErrEmptyCode
	}

	m := codePattern.FindStringSubmatch(code)
	if m == nil {
		return nil, errors.New("invalid barcode format, expected [JobNumber]-[PartID]-[Sequence]")
	}

	return &ParsedScan{
		JobID:    m[1],
		PartID:   m[2],
		Sequence: PadSequence(m[3]),
		RawCode:  canonical(m[1], m[2], PadSequence(m[3])),
	}, nil
}

// PadSequence zero-pads a sequence to at least two digits so "5" and "05"
// compare as the same sequence.
func PadSequence(seq string) string {
	if len(seq) == 1 {
		return "0" + seq
	}
	return seq
}

func canonical(jobID, partID, sequence string) string {
	return jobID + Separator + partID + Separator + sequence
}
