package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rpattn/munimport/internal/domain"
	"github.com/rpattn/munimport/internal/headers"
)

func TestDetectContextWinsOverHeaders(t *testing.T) {
	hdrs := []string{"institution_name", "address"}

	got := Detect(domain.ContextTabarim, hdrs)

	assert.Equal(t, domain.TableTabarim, got.Table)
	assert.Contains(t, got.Reason, "tabarim")
}

func TestDetectFromNormalizedHeaders(t *testing.T) {
	cases := []struct {
		name   string
		labels []string
		want   domain.TableType
	}{
		{"tabarim beat budget", []string{`שם תב"ר`, "תקציב מאושר", "הכנסות"}, domain.TableTabarim},
		{"institutions", []string{"שם מוסד", "כתובת", "מספר תלמידים"}, domain.TableInstitutions},
		{"licenses", []string{"שם עסק", "מספר רישיון"}, domain.TableBusinessLicenses},
		{"collection", []string{"סוג נכס", "חיוב שנתי", "גבייה"}, domain.TableCollectionData},
		{"grants", []string{"שם קול קורא", "סכום מבוקש"}, domain.TableGrants},
		{"regular budget", []string{"קוד סעיף", "שם סעיף", "ביצוע"}, domain.TableRegularBudget},
		{"unnormalized hebrew", []string{"פרטי רישוי"}, domain.TableBusinessLicenses},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(domain.ContextFinance, headers.NormalizeHeaders(tc.labels))
			assert.Equal(t, tc.want, got.Table, got.Reason)
			assert.True(t, got.Detected())
		})
	}
}

func TestDetectUndetected(t *testing.T) {
	got := Detect(domain.ContextGeneral, []string{"foo", "bar"})
	assert.Equal(t, domain.TableUndetected, got.Table)
	assert.False(t, got.Detected())
	assert.Contains(t, got.Reason, "foo, bar")

	empty := Detect("", nil)
	assert.Equal(t, domain.TableUndetected, empty.Table)
	assert.Equal(t, "sheet has no headers", empty.Reason)
}

func TestDetectIsDeterministic(t *testing.T) {
	hdrs := []string{"section_code", "tabar_name"}
	first := Detect(domain.ContextGeneral, hdrs)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Detect(domain.ContextGeneral, hdrs))
	}
	assert.Equal(t, domain.TableTabarim, first.Table)
}

func TestCustomRulesAreEvaluatedInOrder(t *testing.T) {
	d := New(
		Rule{Table: domain.TableGrants, Keywords: []string{"amount"}},
		Rule{Table: domain.TableRegularBudget, Keywords: []string{"amount"}},
	)
	got := d.Detect(domain.ContextGeneral, []string{"requested_amount"})
	assert.Equal(t, domain.TableGrants, got.Table)
	assert.Equal(t, `header keyword "amount"`, got.Reason)
}
