package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Record is a mapped, typed row ready to be written to its table.
// Columns and Values are parallel slices in storage order.
type Record interface {
	Table() TableType
	Columns() []string
	Values() []any
}

// Row is a mapped record stamped with its owner and originating ingestion.
type Row struct {
	OwnerID     uuid.UUID
	IngestionID uuid.UUID
	Record      Record
}

// Tabar is a special-budget (capital project) line.
type Tabar struct {
	TabarNumber    string        `json:"tabar_number"`
	TabarName      string        `json:"tabar_name"`
	Domain         ProjectDomain `json:"domain"`
	ApprovedBudget float64       `json:"approved_budget"`
	IncomeActual   float64       `json:"income_actual"`
	ExpenseActual  float64       `json:"expense_actual"`
	SurplusDeficit float64       `json:"surplus_deficit"`
	FundingSource1 FundingSource `json:"funding_source1"`
	FundingSource2 FundingSource `json:"funding_source2"`
	FundingSource3 FundingSource `json:"funding_source3"`
	Status         string        `json:"status"`
	OpenDate       string        `json:"open_date"`
	CloseDate      string        `json:"close_date"`
}

func (Tabar) Table() TableType { return TableTabarim }

func (Tabar) Columns() []string {
	return []string{
		"tabar_number", "tabar_name", "domain", "approved_budget", "income_actual",
		"expense_actual", "surplus_deficit", "funding_source1", "funding_source2",
		"funding_source3", "status", "open_date", "close_date",
	}
}

func (t Tabar) Values() []any {
	return []any{
		t.TabarNumber, t.TabarName, string(t.Domain), t.ApprovedBudget, t.IncomeActual,
		t.ExpenseActual, t.SurplusDeficit, string(t.FundingSource1), string(t.FundingSource2),
		string(t.FundingSource3), t.Status, dateValue(t.OpenDate), dateValue(t.CloseDate),
	}
}

// BudgetLine is one section of the regular (operating) budget.
type BudgetLine struct {
	SectionCode      string     `json:"section_code"`
	CategoryName     string     `json:"category_name"`
	BudgetType       BudgetType `json:"budget_type"`
	FiscalYear       int        `json:"fiscal_year"`
	ApprovedBudget   float64    `json:"approved_budget"`
	ActualAmount     float64    `json:"actual_amount"`
	ExecutionPercent float64    `json:"execution_percent"`
}

func (BudgetLine) Table() TableType { return TableRegularBudget }

func (BudgetLine) Columns() []string {
	return []string{
		"section_code", "category_name", "budget_type", "fiscal_year",
		"approved_budget", "actual_amount", "execution_percent",
	}
}

func (b BudgetLine) Values() []any {
	return []any{
		b.SectionCode, b.CategoryName, string(b.BudgetType), b.FiscalYear,
		b.ApprovedBudget, b.ActualAmount, b.ExecutionPercent,
	}
}

// CollectionLine is a property-tax collection figure for one property class and period.
type CollectionLine struct {
	Period              string       `json:"period"`
	PropertyType        PropertyType `json:"property_type"`
	PropertyDescription string       `json:"property_description"`
	AnnualDemand        float64      `json:"annual_demand"`
	Collected           float64      `json:"collected"`
	CollectionRate      float64      `json:"collection_rate"`
	DebtBalance         float64      `json:"debt_balance"`
}

func (CollectionLine) Table() TableType { return TableCollectionData }

func (CollectionLine) Columns() []string {
	return []string{
		"period", "property_type", "property_description", "annual_demand",
		"collected", "collection_rate", "debt_balance",
	}
}

func (c CollectionLine) Values() []any {
	return []any{
		c.Period, string(c.PropertyType), c.PropertyDescription, c.AnnualDemand,
		c.Collected, c.CollectionRate, c.DebtBalance,
	}
}

// Institution is an educational institution run or supervised by the municipality.
type Institution struct {
	InstitutionCode string          `json:"institution_code"`
	InstitutionName string          `json:"institution_name"`
	InstitutionType InstitutionType `json:"institution_type"`
	Address         string          `json:"address"`
	Principal       string          `json:"principal"`
	Phone           string          `json:"phone"`
	StudentCount    int             `json:"student_count"`
	ClassCount      int             `json:"class_count"`
}

func (Institution) Table() TableType { return TableInstitutions }

func (Institution) Columns() []string {
	return []string{
		"institution_code", "institution_name", "institution_type", "address",
		"principal", "phone", "student_count", "class_count",
	}
}

func (i Institution) Values() []any {
	return []any{
		i.InstitutionCode, i.InstitutionName, string(i.InstitutionType), i.Address,
		i.Principal, i.Phone, i.StudentCount, i.ClassCount,
	}
}

// BusinessLicense is a business licensing file.
type BusinessLicense struct {
	LicenseNumber string        `json:"license_number"`
	BusinessName  string        `json:"business_name"`
	BusinessType  string        `json:"business_type"`
	OwnerName     string        `json:"owner_name"`
	Address       string        `json:"address"`
	LicenseStatus LicenseStatus `json:"license_status"`
	IssueDate     string        `json:"issue_date"`
	ExpiryDate    string        `json:"expiry_date"`
}

func (BusinessLicense) Table() TableType { return TableBusinessLicenses }

func (BusinessLicense) Columns() []string {
	return []string{
		"license_number", "business_name", "business_type", "owner_name",
		"address", "license_status", "issue_date", "expiry_date",
	}
}

func (l BusinessLicense) Values() []any {
	return []any{
		l.LicenseNumber, l.BusinessName, l.BusinessType, l.OwnerName,
		l.Address, string(l.LicenseStatus), dateValue(l.IssueDate), dateValue(l.ExpiryDate),
	}
}

// Grant is a call-for-proposals application or government grant.
type Grant struct {
	GrantName       string        `json:"grant_name"`
	Ministry        string        `json:"ministry"`
	FundingSource   FundingSource `json:"funding_source"`
	Domain          ProjectDomain `json:"domain"`
	RequestedAmount float64       `json:"requested_amount"`
	ApprovedAmount  float64       `json:"approved_amount"`
	Gap             float64       `json:"gap"`
	GrantStatus     GrantStatus   `json:"grant_status"`
	SubmissionDate  string        `json:"submission_date"`
}

func (Grant) Table() TableType { return TableGrants }

func (Grant) Columns() []string {
	return []string{
		"grant_name", "ministry", "funding_source", "domain", "requested_amount",
		"approved_amount", "gap", "grant_status", "submission_date",
	}
}

func (g Grant) Values() []any {
	return []any{
		g.GrantName, g.Ministry, string(g.FundingSource), string(g.Domain), g.RequestedAmount,
		g.ApprovedAmount, g.Gap, string(g.GrantStatus), dateValue(g.SubmissionDate),
	}
}

// PassthroughRecord carries a normalized record for tables the mapper does not know.
type PassthroughRecord struct {
	TableName TableType        `json:"table"`
	Fields    NormalizedRecord `json:"fields"`
}

func (p PassthroughRecord) Table() TableType { return p.TableName }

// Columns returns the field names in sorted order so Values lines up deterministically.
func (p PassthroughRecord) Columns() []string {
	cols := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func (p PassthroughRecord) Values() []any {
	cols := p.Columns()
	values := make([]any, len(cols))
	for i, c := range cols {
		values[i] = p.Fields[c]
	}
	return values
}

// dateValue turns an ISO date into a value a date column accepts; empty becomes NULL.
func dateValue(iso string) any {
	if iso == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return nil
	}
	return t
}
