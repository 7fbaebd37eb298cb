package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/munimport/internal/domain"
	"github.com/rpattn/munimport/internal/headers"
)

func TestMapTabarComputesSurplus(t *testing.T) {
	keys := []string{`שם תב"ר`, "הכנסות", "הוצאות", "מקור מימון 1"}
	raw := domain.RawRecord{
		`שם תב"ר`:      "שיפוץ בית ספר",
		"הכנסות":       float64(1000),
		"הוצאות":       "400",
		"מקור מימון 1": "עירייה",
	}

	rec := MapRow(domain.TableTabarim, headers.NormalizeRecord(keys, raw))

	tabar, ok := rec.(domain.Tabar)
	require.True(t, ok)
	assert.Equal(t, "שיפוץ בית ספר", tabar.TabarName)
	assert.Equal(t, float64(600), tabar.SurplusDeficit)
	assert.Equal(t, domain.FundingSelf, tabar.FundingSource1)
	assert.Equal(t, domain.FundingOther, tabar.FundingSource2)
	assert.Equal(t, domain.DomainEducation, tabar.Domain)
}

func TestMapTabarPrefersLiteralSurplus(t *testing.T) {
	rec := MapRow(domain.TableTabarim, domain.NormalizedRecord{
		"income_actual":   float64(1000),
		"expense_actual":  float64(400),
		"surplus_deficit": "(50)",
	})
	assert.Equal(t, float64(-50), rec.(domain.Tabar).SurplusDeficit)

	rec = MapRow(domain.TableTabarim, domain.NormalizedRecord{
		"income_actual":   float64(1000),
		"expense_actual":  float64(400),
		"surplus_deficit": "n/a",
	})
	assert.Equal(t, float64(600), rec.(domain.Tabar).SurplusDeficit)
}

func TestMapRowIsTotal(t *testing.T) {
	for _, table := range domain.Tables {
		t.Run(string(table), func(t *testing.T) {
			for _, input := range []domain.NormalizedRecord{nil, {}, {"junk": "???"}} {
				rec := MapRow(table, input)
				require.NotNil(t, rec)
				assert.Equal(t, table, rec.Table())
				assert.Len(t, rec.Values(), len(rec.Columns()))
			}
		})
	}
}

func TestUnparseableNumbersBecomeZero(t *testing.T) {
	rec := MapRow(domain.TableGrants, domain.NormalizedRecord{
		"requested_amount": "lots",
		"approved_amount":  "",
	})
	grant := rec.(domain.Grant)
	assert.Zero(t, grant.RequestedAmount)
	assert.Zero(t, grant.ApprovedAmount)
	assert.Zero(t, grant.Gap)
}

func TestUnmatchedCategoriesFallBack(t *testing.T) {
	tabar := MapRow(domain.TableTabarim, domain.NormalizedRecord{
		"funding_source1": "XYZ-unknown",
		"domain":          "XYZ-unknown",
	}).(domain.Tabar)
	assert.Equal(t, domain.FundingOther, tabar.FundingSource1)
	assert.Equal(t, domain.DomainOther, tabar.Domain)

	inst := MapRow(domain.TableInstitutions, domain.NormalizedRecord{}).(domain.Institution)
	assert.Equal(t, domain.InstitutionOther, inst.InstitutionType)

	lic := MapRow(domain.TableBusinessLicenses, domain.NormalizedRecord{"license_status": "?"}).(domain.BusinessLicense)
	assert.Equal(t, domain.LicenseOther, lic.LicenseStatus)
}

func TestPositionalFallback(t *testing.T) {
	rec := MapRow(domain.TableInstitutions, domain.NormalizedRecord{
		"column_1":      float64(123456),
		"column_2":      "גן הדקל",
		"student_count": "32",
	})
	inst := rec.(domain.Institution)
	assert.Equal(t, "123456", inst.InstitutionCode)
	assert.Equal(t, "גן הדקל", inst.InstitutionName)
	assert.Equal(t, domain.InstitutionKindergarten, inst.InstitutionType)
	assert.Equal(t, 32, inst.StudentCount)

	named := MapRow(domain.TableInstitutions, domain.NormalizedRecord{
		"institution_code": "0042",
		"column_1":         "ignored",
	}).(domain.Institution)
	assert.Equal(t, "0042", named.InstitutionCode)
}

func TestMapBudgetLine(t *testing.T) {
	rec := MapRow(domain.TableRegularBudget, domain.NormalizedRecord{
		"section_code":    "1100000",
		"category_name":   "ארנונה",
		"fiscal_year":     float64(2024),
		"approved_budget": "2,000",
		"actual_amount":   "1,500",
	}).(domain.BudgetLine)

	assert.Equal(t, domain.BudgetIncome, rec.BudgetType)
	assert.Equal(t, 2024, rec.FiscalYear)
	assert.Equal(t, float64(75), rec.ExecutionPercent)

	explicit := MapRow(domain.TableRegularBudget, domain.NormalizedRecord{
		"section_code": "8100000",
		"budget_type":  "הכנסה",
	}).(domain.BudgetLine)
	assert.Equal(t, domain.BudgetIncome, explicit.BudgetType)
	assert.Zero(t, explicit.ExecutionPercent)
}

func TestMapCollectionLine(t *testing.T) {
	rec := MapRow(domain.TableCollectionData, domain.NormalizedRecord{
		"period":        "2024",
		"property_type": "מגורים",
		"annual_demand": float64(1000),
		"collected":     float64(850),
	}).(domain.CollectionLine)

	assert.Equal(t, domain.PropertyResidential, rec.PropertyType)
	assert.Equal(t, "מגורים", rec.PropertyDescription)
	assert.Equal(t, float64(85), rec.CollectionRate)
	assert.Equal(t, float64(150), rec.DebtBalance)
}

func TestMapBusinessLicense(t *testing.T) {
	rec := MapRow(domain.TableBusinessLicenses, domain.NormalizedRecord{
		"license_number": "A-17",
		"business_name":  "מאפיית השכונה",
		"license_status": "לא בתוקף",
		"issue_date":     "01/02/2020",
		"expiry_date":    float64(45292),
	}).(domain.BusinessLicense)

	assert.Equal(t, domain.LicenseExpired, rec.LicenseStatus)
	assert.Equal(t, "2020-02-01", rec.IssueDate)
	assert.Equal(t, "2024-01-01", rec.ExpiryDate)
}

func TestMapGrantClassifiesFromMinistry(t *testing.T) {
	rec := MapRow(domain.TableGrants, domain.NormalizedRecord{
		"grant_name":       "קול קורא להצטיידות",
		"ministry":         "משרד החינוך",
		"requested_amount": "₪ 50,000",
		"approved_amount":  "30000",
		"grant_status":     "לא אושר",
	}).(domain.Grant)

	assert.Equal(t, domain.FundingMinistry, rec.FundingSource)
	assert.Equal(t, domain.DomainEducation, rec.Domain)
	assert.Equal(t, float64(20000), rec.Gap)
	assert.Equal(t, domain.GrantRejected, rec.GrantStatus)
}

func TestUnknownTablePassesThrough(t *testing.T) {
	in := domain.NormalizedRecord{"b": 2, "a": "x"}
	rec := MapRow(domain.TableType("parking_tickets"), in)

	pass, ok := rec.(domain.PassthroughRecord)
	require.True(t, ok)
	assert.Equal(t, in, pass.Fields)
	assert.Equal(t, []string{"a", "b"}, pass.Columns())
	assert.Equal(t, []any{"x", 2}, pass.Values())
}
