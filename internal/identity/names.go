package identity

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnspecifiedName is stored when a new landholder arrives without a given or family name.
const UnspecifiedName = "unspecified"

// legacyUnspecified is the placeholder older imports wrote for missing names.
const legacyUnspecified = "ไม่ระบุ"

// spreadsheetCR is the escaped carriage return some spreadsheet exporters leave in text cells.
const spreadsheetCR = "_x000D_"

// ValidateName classifies a person-name field and returns human-readable issues
// prefixed with label. It never fails; a clean name yields no issues.
func ValidateName(value, label string) []string {
	var issues []string

	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == UnspecifiedName || trimmed == legacyUnspecified {
		return append(issues, fmt.Sprintf("%s: blank or unspecified", label))
	}

	var digits, control, other bool
	for _, r := range strings.ReplaceAll(value, spreadsheetCR, "") {
		switch {
		case unicode.IsDigit(r):
			digits = true
		case r == '\r' || r == '\n' || unicode.IsControl(r):
			control = true
		case unicode.IsLetter(r) || unicode.IsMark(r) || r == ' ':
		default:
			other = true
		}
	}

	if digits {
		issues = append(issues, fmt.Sprintf("%s: contains digits %q", label, value))
	}
	if control || strings.Contains(value, spreadsheetCR) {
		issues = append(issues, fmt.Sprintf("%s: contains line-break artifact %q", label, value))
	}
	if other {
		issues = append(issues, fmt.Sprintf("%s: contains special characters %q", label, value))
	}
	if utf8.RuneCountInString(trimmed) < 2 {
		issues = append(issues, fmt.Sprintf("%s: too short %q", label, value))
	}
	if trimmed != value {
		issues = append(issues, fmt.Sprintf("%s: leading or trailing whitespace", label))
	}

	return issues
}

// CleanName removes spreadsheet line-break artifacts and surrounding whitespace.
func CleanName(value string) string {
	cleaned := strings.NewReplacer(spreadsheetCR, "", "\r", "", "\n", "").Replace(value)
	return strings.TrimSpace(cleaned)
}
