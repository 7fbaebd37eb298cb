// Package detect decides which table an uploaded sheet belongs to.
package detect

import (
	"fmt"
	"strings"

	"github.com/rpattn/munimport/internal/domain"
)

// Result is the outcome of a detection.
type Result struct {
	Table  domain.TableType `json:"table"`
	Reason string           `json:"reason"`
}

// Detected reports whether a concrete table was chosen.
func (r Result) Detected() bool {
	return r.Table != domain.TableUndetected && r.Table != ""
}

// Rule selects Table when any keyword occurs in the joined header text.
type Rule struct {
	Table    domain.TableType
	Keywords []string
}

// Match returns the first keyword found in haystack.
func (r Rule) Match(haystack string) (string, bool) {
	for _, kw := range r.Keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// contextTables lists the screens that pin their uploads to one table.
var contextTables = map[domain.ImportContext]domain.TableType{
	domain.ContextTabarim:           domain.TableTabarim,
	domain.ContextRegularBudget:     domain.TableRegularBudget,
	domain.ContextCollection:        domain.TableCollectionData,
	domain.ContextEducation:         domain.TableInstitutions,
	domain.ContextBusinessLicensing: domain.TableBusinessLicenses,
	domain.ContextGrants:            domain.TableGrants,
}

// DefaultRules is evaluated top to bottom. Order matters: a capital-project sheet also
// carries budget columns, so tabarim must be tried before regular_budget.
var DefaultRules = []Rule{
	{Table: domain.TableTabarim, Keywords: []string{"tabar", `תב"ר`, "תבר"}},
	{Table: domain.TableInstitutions, Keywords: []string{"institution", "מוסד"}},
	{Table: domain.TableBusinessLicenses, Keywords: []string{"license", "רישיון", "רישוי"}},
	{Table: domain.TableCollectionData, Keywords: []string{"collect", "annual_demand", "property_type", "גבי"}},
	{Table: domain.TableGrants, Keywords: []string{"grant", "קול קורא", "מענק"}},
	{Table: domain.TableRegularBudget, Keywords: []string{"section_code", "budget", "סעיף", "תקציב"}},
}

// Detector applies context mapping first and header rules second.
type Detector struct {
	rules []Rule
}

// New returns a detector using rules, or DefaultRules when none are given.
func New(rules ...Rule) *Detector {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Detector{rules: append([]Rule(nil), rules...)}
}

// Detect picks a table from the import context or, failing that, from the headers.
// It depends on nothing but its arguments.
func (d *Detector) Detect(ctx domain.ImportContext, headers []string) Result {
	if table, ok := contextTables[ctx]; ok {
		return Result{Table: table, Reason: fmt.Sprintf("import context %q", ctx)}
	}

	joined := strings.ToLower(strings.Join(headers, " "))
	for _, rule := range d.rules {
		if kw, ok := rule.Match(joined); ok {
			return Result{Table: rule.Table, Reason: fmt.Sprintf("header keyword %q", kw)}
		}
	}

	if strings.TrimSpace(joined) == "" {
		return Result{Table: domain.TableUndetected, Reason: "sheet has no headers"}
	}
	return Result{
		Table:  domain.TableUndetected,
		Reason: fmt.Sprintf("no rule matched headers: %s", strings.Join(headers, ", ")),
	}
}

// Detect runs the default detector.
func Detect(ctx domain.ImportContext, headers []string) Result {
	return defaultDetector.Detect(ctx, headers)
}

var defaultDetector = New()
