package reconcile

import (
	"strings"

	"github.com/stwalsh4118/landsync/internal/identity"
)

// Inspection is the identity and name checks for one row, computed without a store.
// Issues send the parcel to review; notes are informational.
type Inspection struct {
	Code   identity.CodeResult `json:"-" yaml:"-"`
	Seq    int                 `json:"row" yaml:"row"`
	Issues []string            `json:"issues,omitempty" yaml:"issues,omitempty"`
	Notes  []string            `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Clean reports whether the row raised neither issues nor notes.
func (i Inspection) Clean() bool {
	return len(i.Issues) == 0 && len(i.Notes) == 0
}

// Inspect validates the row's identity code and names.
func Inspect(row Row) Inspection {
	insp := Inspection{Seq: row.Seq, Code: identity.ValidateCode(row.IdentityCode)}

	switch {
	case !insp.Code.Valid():
		insp.Issues = append(insp.Issues, insp.Code.Describe()...)
	case insp.Code.Has(identity.IssueSuspiciousLeadingZero):
		insp.Notes = append(insp.Notes, insp.Code.Describe()...)
	}

	if strings.TrimSpace(row.GivenName) == "" {
		insp.Issues = append(insp.Issues, "given name missing")
	} else {
		insp.Notes = append(insp.Notes, identity.ValidateName(row.GivenName, "given name")...)
	}
	if strings.TrimSpace(row.FamilyName) == "" {
		insp.Issues = append(insp.Issues, "family name missing")
	} else {
		insp.Notes = append(insp.Notes, identity.ValidateName(row.FamilyName, "family name")...)
	}

	return insp
}

// InspectAll inspects every non-blank row and returns the ones with findings.
func InspectAll(rows []Row) []Inspection {
	out := []Inspection{}
	for _, row := range rows {
		if row.IsBlank() {
			continue
		}
		if insp := Inspect(row); !insp.Clean() {
			out = append(out, insp)
		}
	}
	return out
}
