// Package identity validates national identity codes and classifies person-name fields
// captured in survey spreadsheets.
package identity

import (
	"fmt"
	"strings"
)

// CodeLength is the number of digits in a national identity code.
const CodeLength = 13

// PlaceholderPrefix marks identity codes generated for rows that carried none.
const PlaceholderPrefix = "TEMP_"

// Issue is a machine-readable problem found in an identity code.
type Issue string

const (
	IssueMissing               Issue = "missing"
	IssueNotNumeric            Issue = "not_numeric"
	IssueWrongLength           Issue = "wrong_length"
	IssueChecksumMismatch      Issue = "checksum_mismatch"
	IssueSuspiciousLeadingZero Issue = "suspicious_leading_zero"
	IssuePlaceholder           Issue = "placeholder"
)

// CodeResult is the outcome of validating one raw identity code.
type CodeResult struct {
	Raw        string  `json:"raw" yaml:"raw"`
	Normalized string  `json:"normalized" yaml:"normalized"`
	Issues     []Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Valid reports whether the code may be used as a landholder's natural key.
// A leading zero is suspicious but does not invalidate the code.
func (r CodeResult) Valid() bool {
	for _, issue := range r.Issues {
		if issue != IssueSuspiciousLeadingZero {
			return false
		}
	}
	return true
}

// Blank reports whether the input carried no code at all.
func (r CodeResult) Blank() bool {
	return r.Has(IssueMissing)
}

// Has reports whether the result contains the given issue.
func (r CodeResult) Has(issue Issue) bool {
	for _, i := range r.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// Describe renders the issues as human-readable text for data-quality notes.
func (r CodeResult) Describe() []string {
	out := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		switch issue {
		case IssueMissing:
			out = append(out, "identity code missing")
		case IssuePlaceholder:
			out = append(out, fmt.Sprintf("placeholder identity code: %s", r.Normalized))
		case IssueNotNumeric:
			out = append(out, fmt.Sprintf("identity code contains non-digits: %s", r.Raw))
		case IssueWrongLength:
			out = append(out, fmt.Sprintf("identity code has %d digits, want %d: %s", len([]rune(r.Normalized)), CodeLength, r.Raw))
		case IssueChecksumMismatch:
			out = append(out, fmt.Sprintf("identity code checksum mismatch: %s", r.Raw))
		case IssueSuspiciousLeadingZero:
			out = append(out, fmt.Sprintf("identity code starts with 0: %s", r.Raw))
		}
	}
	return out
}

// ValidateCode normalizes a raw identity code (spaces and dashes removed) and reports
// every issue found. It never fails.
func ValidateCode(raw string) CodeResult {
	trimmed := strings.TrimSpace(raw)
	res := CodeResult{Raw: raw}

	if trimmed == "" {
		res.Issues = []Issue{IssueMissing}
		return res
	}

	if strings.HasPrefix(trimmed, PlaceholderPrefix) {
		res.Normalized = trimmed
		res.Issues = []Issue{IssuePlaceholder}
		return res
	}

	normalized := strings.NewReplacer(" ", "", "-", "").Replace(trimmed)
	res.Normalized = normalized

	numeric := isDigits(normalized)
	if !numeric {
		res.Issues = append(res.Issues, IssueNotNumeric)
	}
	if len(normalized) != CodeLength {
		res.Issues = append(res.Issues, IssueWrongLength)
	}
	if numeric && len(normalized) == CodeLength {
		if !ChecksumValid(normalized) {
			res.Issues = append(res.Issues, IssueChecksumMismatch)
		}
		if normalized[0] == '0' {
			res.Issues = append(res.Issues, IssueSuspiciousLeadingZero)
		}
	}

	return res
}

// CheckDigit computes the expected final digit for the first twelve digits of a code:
// (11 - Σ d[i]*(13-i) mod 11) mod 10.
func CheckDigit(first12 string) (int, error) {
	if len(first12) != CodeLength-1 || !isDigits(first12) {
		return 0, fmt.Errorf("check digit needs %d digits, got %q", CodeLength-1, first12)
	}

	sum := 0
	for i := 0; i < CodeLength-1; i++ {
		sum += int(first12[i]-'0') * (CodeLength - i)
	}
	return (11 - sum%11) % 10, nil
}

// ChecksumValid reports whether a 13-digit code carries the correct check digit.
func ChecksumValid(code string) bool {
	if len(code) != CodeLength || !isDigits(code) {
		return false
	}
	want, err := CheckDigit(code[:CodeLength-1])
	if err != nil {
		return false
	}
	return want == int(code[CodeLength-1]-'0')
}

// Placeholder returns the identity code assigned to a row without one.
func Placeholder(seq int) string {
	return fmt.Sprintf("%s%05d", PlaceholderPrefix, seq)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
