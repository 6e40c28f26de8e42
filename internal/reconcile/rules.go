package reconcile

import (
	"strings"

	"github.com/stwalsh4118/landsync/internal/models"
)

// Keywords seen in the PTYPE and REMARK columns. Thai is what the field teams write;
// English covers translated sheets.
var (
	residentialWords = []string{"อยู่อาศัย", "residential", "residence", "dwelling"}
	workingLandWords = []string{"ทำกิน", "working land", "cultivation"}
	agricultureWords = []string{"เกษตร", "agricultur", "farm"}
	gardenWords      = []string{"สวน", "garden", "orchard", "plantation"}
	livestockWords   = []string{"ปศุสัตว์", "เลี้ยง", "livestock", "grazing"}

	riskyWords    = []string{"ล่อแหลม", "risky", "sensitive"}
	notRiskyWords = []string{"ไม่ล่อแหลม", "not risky", "not sensitive", "non-risky"}
	caseWords     = []string{"คดี", "case", "litigation"}
)

type landUseRule struct {
	match    func(text string) bool
	category models.LandUse
}

// landUseRules are evaluated in order; the first match wins.
var landUseRules = []landUseRule{
	{func(t string) bool { return containsAny(t, residentialWords) && containsAny(t, workingLandWords) }, models.LandUseMixed},
	{func(t string) bool { return containsAny(t, residentialWords) }, models.LandUseResidential},
	{func(t string) bool { return containsAny(t, agricultureWords) || containsAny(t, workingLandWords) }, models.LandUseAgriculture},
	{func(t string) bool { return containsAny(t, gardenWords) }, models.LandUseGarden},
	{func(t string) bool { return containsAny(t, livestockWords) }, models.LandUseLivestock},
}

// ClassifyLandUse maps free-text usage to a land-use category. Empty or unmatched text is other.
func ClassifyLandUse(usage string) models.LandUse {
	text := strings.ToLower(strings.TrimSpace(usage))
	if text == "" {
		return models.LandUseOther
	}
	for _, rule := range landUseRules {
		if rule.match(text) {
			return rule.category
		}
	}
	return models.LandUseOther
}

type remarkRule struct {
	match    func(text string) bool
	category models.RiskRemark
}

// The four phrasings used on the survey forms, matched exactly before any substring rule.
var exactRemarks = map[string]models.RiskRemark{
	"ล่อแหลมมีคดี":        models.RiskRemarkRiskyCase,
	"ไม่ล่อแหลมมีคดี":     models.RiskRemarkNotRiskyCase,
	"เป็นพื้นที่ล่อแหลมฯ": models.RiskRemarkRisky,
	"ไม่ล่อแหลม":          models.RiskRemarkNotRisky,
}

// remarkRules are evaluated in order. Negated phrasings contain the positive keyword,
// so they must be tested first.
var remarkRules = []remarkRule{
	{func(t string) bool { return containsAny(t, notRiskyWords) && containsAny(t, caseWords) }, models.RiskRemarkNotRiskyCase},
	{func(t string) bool { return containsAny(t, riskyWords) && containsAny(t, caseWords) }, models.RiskRemarkRiskyCase},
	{func(t string) bool { return containsAny(t, notRiskyWords) }, models.RiskRemarkNotRisky},
	{func(t string) bool { return containsAny(t, riskyWords) }, models.RiskRemarkRisky},
}

// ClassifyRemark maps the free-text risk remark to a category, defaulting to not_risky.
func ClassifyRemark(remark string) models.RiskRemark {
	text := strings.TrimSpace(remark)
	if text == "" {
		return models.RiskRemarkNotRisky
	}
	if category, ok := exactRemarks[text]; ok {
		return category
	}

	text = strings.ToLower(text)
	for _, rule := range remarkRules {
		if rule.match(text) {
			return rule.category
		}
	}
	return models.RiskRemarkNotRisky
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
