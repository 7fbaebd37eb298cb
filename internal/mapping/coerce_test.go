package mapping

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{float64(12.5), 12.5},
		{42, 42},
		{"1,234", 1234},
		{"1,234,567.89", 1234567.89},
		{"1.234,50", 1234.5},
		{"12,5", 12.5},
		{"₪ 3,000", 3000},
		{`2,500 ש"ח`, 2500},
		{"(500)", -500},
		{"500-", -500},
		{"-75", -75},
		{"85%", 85},
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{nil, 0},
		{true, 0},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Number(tc.in), "input %#v", tc.in)
	}
}

func TestInt(t *testing.T) {
	assert.Equal(t, 2024, Int(float64(2024)))
	assert.Equal(t, 31, Int("31.9"))
	assert.Equal(t, 0, Int("n/a"))
}

func TestText(t *testing.T) {
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "abc", Text("  abc "))
	assert.Equal(t, "12345", Text(float64(12345)))
	assert.Equal(t, "1.5", Text(float64(1.5)))
	assert.Equal(t, "2024-03-01", Text(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "7", Text(7))
}

func TestDate(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"2024-03-01", "2024-03-01"},
		{"01/03/2024", "2024-03-01"},
		{"1/3/2024", "2024-03-01"},
		{"01.03.2024", "2024-03-01"},
		{"1.3.24", "2024-03-01"},
		{"2024-03-01T10:00:00Z", "2024-03-01"},
		{float64(45352), "2024-03-01"},
		{time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), "2024-03-01"},
		{"next week", ""},
		{"", ""},
		{float64(-3), ""},
		{nil, ""},
		{time.Time{}, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Date(tc.in), "input %#v", tc.in)
	}
}

func TestClassifierFirstRuleWins(t *testing.T) {
	assert.Equal(t, "self", string(FundingSources.Classify("עירייה")))
	assert.Equal(t, "ministry", string(FundingSources.Classify("משרד התחבורה")))
	assert.Equal(t, "lottery", string(FundingSources.Classify("מפעל הפיס")))
	assert.Equal(t, "other", string(FundingSources.Classify("XYZ-unknown")))
	assert.Equal(t, "other", string(FundingSources.Classify("")))

	assert.Equal(t, "secondary", string(InstitutionTypes.Classify("על יסודי")))
	assert.Equal(t, "elementary", string(InstitutionTypes.Classify("יסודי")))
	assert.Equal(t, "special_education", string(InstitutionTypes.Classify("גן חינוך מיוחד")))

	assert.Equal(t, "active", string(LicenseStatuses.Classify("בתוקף")))
	assert.Equal(t, "approved", string(GrantStatuses.Classify("אושר")))
	assert.Equal(t, "expense", string(BudgetTypes.Classify("")))
}

func TestLicenseStatusesNegatedBeforeActive(t *testing.T) {
	cases := map[string]string{
		"בתוקף":             "active",
		"פעיל":              "active",
		"Active":            "active",
		"לא בתוקף":          "expired",
		"לא פעיל":           "expired",
		"פג תוקף":           "expired",
		"Inactive":          "expired",
		"not active":        "expired",
		"invalid":           "expired",
		"ממתין לפגישה":      "pending",
		"פגישה נקבעה":       "other",
		"בוטל ע\"י העירייה": "revoked",
	}
	for in, want := range cases {
		assert.Equal(t, want, string(LicenseStatuses.Classify(in)), "input %q", in)
	}
}
