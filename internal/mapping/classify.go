package mapping

import (
	"strings"

	"github.com/rpattn/munimport/internal/domain"
	"github.com/rpattn/munimport/internal/headers"
)

// ClassRule assigns Value when any of Substrings occurs in the cleaned text.
type ClassRule[T ~string] struct {
	Value      T
	Substrings []string
}

// Classifier maps free text onto a closed category set. Rules are tried in order and
// the first hit wins; text matching nothing gets Fallback.
type Classifier[T ~string] struct {
	Rules    []ClassRule[T]
	Fallback T
}

// Classify never fails.
func (c Classifier[T]) Classify(text string) T {
	v, _ := c.match(text)
	return v
}

func (c Classifier[T]) match(text string) (T, bool) {
	cleaned := headers.Clean(text)
	if cleaned == "" {
		return c.Fallback, false
	}
	for _, rule := range c.Rules {
		for _, sub := range rule.Substrings {
			if strings.Contains(cleaned, headers.Clean(sub)) {
				return rule.Value, true
			}
		}
	}
	return c.Fallback, false
}

var FundingSources = Classifier[domain.FundingSource]{
	Rules: []ClassRule[domain.FundingSource]{
		{domain.FundingSelf, []string{"עירי", "עצמי", "קרן פיתוח", "קרנות הרשות", "municipal", "self"}},
		{domain.FundingMinistry, []string{"משרד", "ממשל", "מדינה", "ministry", "government"}},
		{domain.FundingLoan, []string{"מלווה", "הלוואה", "loan"}},
		{domain.FundingLottery, []string{"מפעל הפיס", "פיס", "lottery"}},
		{domain.FundingLevies, []string{"היטל", "levy", "levies"}},
		{domain.FundingDonation, []string{"תרומ", "donation"}},
	},
	Fallback: domain.FundingOther,
}

var ProjectDomains = Classifier[domain.ProjectDomain]{
	Rules: []ClassRule[domain.ProjectDomain]{
		{domain.DomainEducation, []string{"חינוך", "בית ספר", `בי"ס`, "גן ילדים", "גני ילדים", "education", "school"}},
		{domain.DomainInfrastructure, []string{"תשתי", "כביש", "ניקוז", "ביוב", "מים", "תאורה", "מדרכ", "infrastructure", "road"}},
		{domain.DomainCulture, []string{"תרבות", "culture"}},
		{domain.DomainWelfare, []string{"רווחה", "welfare"}},
		{domain.DomainSports, []string{"ספורט", "sport"}},
		{domain.DomainSecurity, []string{"ביטחון", "בטחון", "חירום", "security"}},
		{domain.DomainEnvironment, []string{"סביבה", "גינון", "פארק", "environment", "park"}},
	},
	Fallback: domain.DomainOther,
}

var BudgetTypes = Classifier[domain.BudgetType]{
	Rules: []ClassRule[domain.BudgetType]{
		{domain.BudgetIncome, []string{"הכנס", "income", "revenue"}},
		{domain.BudgetExpense, []string{"הוצא", "expense"}},
	},
	Fallback: domain.BudgetExpense,
}

var PropertyTypes = Classifier[domain.PropertyType]{
	Rules: []ClassRule[domain.PropertyType]{
		{domain.PropertyResidential, []string{"מגור", "דיור", "residential"}},
		{domain.PropertyCommercial, []string{"מסחר", "חנות", "עסק", "commercial"}},
		{domain.PropertyIndustrial, []string{"תעשי", "מלאכה", "industrial"}},
		{domain.PropertyOffice, []string{"משרד", "office"}},
	},
	Fallback: domain.PropertyOther,
}

// InstitutionTypes checks special education before kindergartens and secondary before
// elementary, since "על יסודי" contains "יסודי".
var InstitutionTypes = Classifier[domain.InstitutionType]{
	Rules: []ClassRule[domain.InstitutionType]{
		{domain.InstitutionSpecialEducation, []string{"חינוך מיוחד", `חנ"מ`, "special"}},
		{domain.InstitutionKindergarten, []string{"גן", "kindergarten", "preschool"}},
		{domain.InstitutionSecondary, []string{"על יסודי", "על-יסודי", "תיכון", "חטיבת", "secondary", "high school", "middle school"}},
		{domain.InstitutionElementary, []string{"יסודי", "elementary", "primary"}},
	},
	Fallback: domain.InstitutionOther,
}

// LicenseStatuses tries negated statuses such as "לא בתוקף" and "inactive" before the
// active rule, whose substrings they contain.
var LicenseStatuses = Classifier[domain.LicenseStatus]{
	Rules: []ClassRule[domain.LicenseStatus]{
		{domain.LicenseRevoked, []string{"בוטל", "נדחה", "סירוב", "revoked", "cancel"}},
		{domain.LicenseExpired, []string{
			"לא בתוקף", "לא פעיל", "לא תקף", "פג תוקף", "פג-תוקף", "פקע",
			"expired", "inactive", "not active", "invalid", "not valid",
		}},
		{domain.LicensePending, []string{"בטיפול", "בהליך", "ממתין", "pending"}},
		{domain.LicenseActive, []string{"בתוקף", "פעיל", "active", "valid"}},
	},
	Fallback: domain.LicenseOther,
}

var GrantStatuses = Classifier[domain.GrantStatus]{
	Rules: []ClassRule[domain.GrantStatus]{
		{domain.GrantRejected, []string{"נדחה", "לא אושר", "rejected"}},
		{domain.GrantApproved, []string{"אושר", "מאושר", "approved"}},
		{domain.GrantSubmitted, []string{"הוגש", "submitted"}},
		{domain.GrantPending, []string{"בבדיקה", "ממתין", "בטיפול", "pending"}},
	},
	Fallback: domain.GrantOther,
}

// classifyFirst classifies the first text that matches a rule, falling back when none do.
func classifyFirst[T ~string](c Classifier[T], texts ...string) T {
	for _, text := range texts {
		if v, ok := c.match(text); ok {
			return v
		}
	}
	return c.Fallback
}
