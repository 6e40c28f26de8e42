// Package dedupe classifies parcels that collide on their natural key and plans how to
// remediate them.
package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stwalsh4118/landsync/internal/models"
)

// Class is the kind of collision a flagged member represents.
type Class string

const (
	// ClassExact is a flagged member fully represented by an original.
	ClassExact Class = "exact"
	// ClassGeometryConflict shares the original's composite key but not its boundary.
	ClassGeometryConflict Class = "geometry_conflict"
	// ClassDistinct is a legitimate parcel whose sub-unit code no original shares.
	ClassDistinct Class = "distinct_parcel"
)

// Op is the storage operation an action performs.
type Op string

const (
	OpDelete Op = "delete"
	OpRename Op = "rename"
)

// Member is one parcel (or boundary record) taking part in classification.
type Member struct {
	ID     int64               `json:"id" yaml:"id"`
	Code   string              `json:"code" yaml:"code"`
	Key    models.CompositeKey `json:"key" yaml:"key"`
	Digest string              `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// MemberFromParcel builds a member from a persisted parcel.
func MemberFromParcel(p models.Parcel) Member {
	return Member{ID: p.ID, Code: p.Code, Key: p.Key(), Digest: p.GeometryDigest}
}

// Action is one planned remediation step.
type Action struct {
	Class       Class               `json:"class" yaml:"class"`
	Op          Op                  `json:"op" yaml:"op"`
	ParcelID    int64               `json:"parcelId" yaml:"parcelId"`
	Code        string              `json:"code" yaml:"code"`
	NewCode     string              `json:"newCode,omitempty" yaml:"newCode,omitempty"`
	ClearIssues bool                `json:"clearIssues,omitempty" yaml:"clearIssues,omitempty"`
	Key         models.CompositeKey `json:"key" yaml:"key"`
	Reference   string              `json:"reference,omitempty" yaml:"reference,omitempty"` // original the decision was made against
}

// DuplicateGroup is a set of members sharing one composite key.
type DuplicateGroup struct {
	Key     models.CompositeKey `json:"key" yaml:"key"`
	Members []Member            `json:"members" yaml:"members"`
}

// Plan is the full remediation computed from one classification pass.
type Plan struct {
	Actions  []Action         `json:"actions" yaml:"actions"`
	Groups   []DuplicateGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
	Promoted []Member         `json:"promoted,omitempty" yaml:"promoted,omitempty"`
}

// Deletes returns the delete actions in plan order.
func (p Plan) Deletes() []Action {
	return p.filter(OpDelete)
}

// Renames returns the rename actions in plan order.
func (p Plan) Renames() []Action {
	return p.filter(OpRename)
}

func (p Plan) filter(op Op) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Op == op {
			out = append(out, a)
		}
	}
	return out
}

// Counts tallies actions by class.
func (p Plan) Counts() map[Class]int {
	counts := map[Class]int{ClassExact: 0, ClassGeometryConflict: 0, ClassDistinct: 0}
	for _, a := range p.Actions {
		counts[a.Class]++
	}
	return counts
}

// Empty reports whether the plan has nothing to apply.
func (p Plan) Empty() bool {
	return len(p.Actions) == 0
}

// IsOriginal reports whether a member's code marks it as an original: the bare site code,
// or a name this package assigns when resolving a collision.
func IsOriginal(m Member) bool {
	if m.Code == m.Key.SiteCode {
		return true
	}
	resolved := resolvedName(m.Key)
	if m.Code == resolved {
		return true
	}
	rest, ok := strings.CutPrefix(m.Code, resolved+"_")
	return ok && isSuffix(rest)
}

// Classify groups members into families by site code and plans one action for every
// flagged member of a family with more than one member. Members without a site code are
// ignored. When several originals qualify, the one with the lowest ID is the reference.
func Classify(members []Member) Plan {
	var plan Plan

	taken := make(map[string]bool, len(members))
	families := make(map[string][]Member)
	for _, m := range members {
		taken[m.Code] = true
		if m.Key.SiteCode == "" {
			continue
		}
		families[m.Key.SiteCode] = append(families[m.Key.SiteCode], m)
	}

	sites := make([]string, 0, len(families))
	for site := range families {
		sites = append(sites, site)
	}
	sort.Strings(sites)

	for _, site := range sites {
		family := families[site]
		if len(family) < 2 {
			continue
		}
		sort.Slice(family, func(i, j int) bool { return family[i].ID < family[j].ID })

		plan.Groups = append(plan.Groups, groupByKey(family)...)

		var originals, flagged []Member
		for _, m := range family {
			if IsOriginal(m) {
				originals = append(originals, m)
			} else {
				flagged = append(flagged, m)
			}
		}
		if len(originals) == 0 {
			originals = append(originals, flagged[0])
			plan.Promoted = append(plan.Promoted, flagged[0])
			flagged = flagged[1:]
		}

		for _, m := range flagged {
			action := classifyMember(m, originals, taken)
			plan.Actions = append(plan.Actions, action)
			if action.Op == OpRename {
				renamed := m
				renamed.Code = action.NewCode
				originals = append(originals, renamed)
			}
		}
	}

	return plan
}

func classifyMember(m Member, originals []Member, taken map[string]bool) Action {
	action := Action{ParcelID: m.ID, Code: m.Code, Key: m.Key}

	var candidates []Member
	for _, o := range originals {
		if o.Key.SubUnitCode == m.Key.SubUnitCode {
			candidates = append(candidates, o)
		}
	}

	if len(candidates) == 0 {
		action.Class = ClassDistinct
		action.Op = OpRename
		action.NewCode = claim(resolvedName(m.Key), taken, false)
		action.ClearIssues = true
		return action
	}

	ref := candidates[0]
	for _, c := range candidates[1:] {
		if c.ID < ref.ID {
			ref = c
		}
	}
	action.Reference = ref.Code

	if m.Digest != "" && ref.Digest != "" && m.Digest != ref.Digest {
		action.Class = ClassGeometryConflict
		action.Op = OpRename
		action.NewCode = claim(resolvedName(m.Key), taken, true)
		action.ClearIssues = true
		return action
	}

	action.Class = ClassExact
	action.Op = OpDelete
	return action
}

// claim reserves the first free code derived from base. With suffixed set the bare base is
// skipped and the first candidate is base_B.
func claim(base string, taken map[string]bool, suffixed bool) string {
	if !suffixed && !taken[base] {
		taken[base] = true
		return base
	}
	for i := 1; ; i++ {
		code := base + "_" + suffix(i)
		if !taken[code] {
			taken[code] = true
			return code
		}
	}
}

// suffix returns B, C, ... Z for 1..25 and a number beyond that.
func suffix(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%d", i+1)
}

func isSuffix(s string) bool {
	if len(s) == 1 {
		return s[0] >= 'B' && s[0] <= 'Z'
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func resolvedName(k models.CompositeKey) string {
	if k.SubUnitCode == "" {
		return k.SiteCode
	}
	return k.SiteCode + "_" + k.SubUnitCode
}

func groupByKey(family []Member) []DuplicateGroup {
	var groups []DuplicateGroup
	index := make(map[models.CompositeKey]int)
	for _, m := range family {
		i, ok := index[m.Key]
		if !ok {
			i = len(groups)
			index[m.Key] = i
			groups = append(groups, DuplicateGroup{Key: m.Key})
		}
		groups[i].Members = append(groups[i].Members, m)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.Members) > 1 {
			out = append(out, g)
		}
	}
	return out
}
