package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/munimport/internal/domain"
)

func TestNormalizeKnownLabels(t *testing.T) {
	cases := map[string]string{
		`שם תב"ר`:          "tabar_name",
		"שם תב\u05f4ר":     "tabar_name",
		"  שם   תב\"ר : ":  "tabar_name",
		"שֵׁם מוֹסָד":      "institution_name",
		"\u200fסמל מוסד":   "institution_code",
		`עודף/גירעון`:      "surplus_deficit",
		"Income":           "income_actual",
		"FUNDING SOURCE 2": "funding_source2",
		"tabar_name":       "tabar_name",
		"מקור מימון 1*":    "funding_source1",
		"תאריך הגשה":       "submission_date",
	}
	for label, want := range cases {
		assert.Equal(t, want, Normalize(label), "label %q", label)
	}
}

func TestNormalizePassesUnknownLabelsThroughCleaned(t *testing.T) {
	assert.Equal(t, "some column", Normalize("  Some   Column "))
	assert.Equal(t, "column_3", Normalize("column_3"))
	assert.Equal(t, "", Normalize("   "))
	assert.False(t, Known("Some Column"))
	assert.True(t, Known(`מס' תב"ר`))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for label := range labels {
		once := Normalize(label)
		assert.Equal(t, once, Normalize(once), "label %q", label)
	}
}

func TestNormalizeRecordKeepsCollidingValues(t *testing.T) {
	keys := []string{"הכנסות", "income", "Remarks"}
	rec := domain.RawRecord{
		"הכנסות":   float64(1000),
		"income":   "900",
		"Remarks":  "checked",
		"column_9": "stray",
	}

	out := NormalizeRecord(keys, rec)

	assert.Equal(t, float64(1000), out["income_actual"])
	assert.Equal(t, "900", out["income"])
	assert.Equal(t, "checked", out["remarks"])
	assert.Equal(t, "stray", out["column_9"])
}

func TestNormalizeRecordPrefersNonEmptyValue(t *testing.T) {
	keys := []string{"הכנסות", "income"}
	rec := domain.RawRecord{"הכנסות": "  ", "income": "900"}

	out := NormalizeRecord(keys, rec)

	assert.Equal(t, "900", out["income_actual"])
}

func TestNormalizeHeadersDropsBlanks(t *testing.T) {
	got := NormalizeHeaders([]string{`שם תב"ר`, "", "Notes"})
	assert.Equal(t, []string{"tabar_name", "notes"}, got)
}

func TestSuggestOnlyForUnknownLabels(t *testing.T) {
	_, ok := Suggest(`שם תב"ר`)
	assert.False(t, ok)

	_, ok = Suggest("")
	assert.False(t, ok)

	suggestion, ok := Suggest("שם מוסדד")
	require.True(t, ok)
	assert.True(t, Known(suggestion), "suggestion %q must be a known label", suggestion)
}
