// Package mapping turns normalized spreadsheet records into typed table records.
//
// Mapping is total: every field gets a value whatever the input holds. Missing or
// unparseable numbers become 0, dates become "", and free text that matches no
// category rule falls back to that category's default.
package mapping

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rpattn/munimport/internal/domain"
)

// mapFunc builds one table's record from a normalized row.
type mapFunc func(fields) domain.Record

var mappers = map[domain.TableType]mapFunc{
	domain.TableTabarim:          mapTabar,
	domain.TableRegularBudget:    mapBudgetLine,
	domain.TableCollectionData:   mapCollectionLine,
	domain.TableInstitutions:     mapInstitution,
	domain.TableBusinessLicenses: mapBusinessLicense,
	domain.TableGrants:           mapGrant,
}

// MapRow maps rec onto table. Tables without a dedicated mapper get the record back
// unchanged as a PassthroughRecord.
func MapRow(table domain.TableType, rec domain.NormalizedRecord) domain.Record {
	m, ok := mappers[table]
	if !ok {
		return domain.PassthroughRecord{TableName: table, Fields: rec}
	}
	return m(fields(rec))
}

// MapRows maps every record in order.
func MapRows(table domain.TableType, recs []domain.NormalizedRecord) []domain.Record {
	out := make([]domain.Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, MapRow(table, rec))
	}
	return out
}

// fields looks values up under a list of candidate keys. The first key holding a
// non-blank value wins, which lets mappers list aliases and positional fallbacks.
type fields domain.NormalizedRecord

func (f fields) value(keys ...string) any {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		if s, isText := v.(string); isText && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func (f fields) text(keys ...string) string { return Text(f.value(keys...)) }

func (f fields) number(keys ...string) float64 { return Number(f.value(keys...)) }

func (f fields) integer(keys ...string) int { return Int(f.value(keys...)) }

func (f fields) date(keys ...string) string { return Date(f.value(keys...)) }

func (f fields) amount(keys ...string) decimal.Decimal {
	d, _ := parseDecimal(f.value(keys...))
	return d
}

// provided reports whether any key holds a parseable number.
func (f fields) provided(keys ...string) (decimal.Decimal, bool) {
	return parseDecimal(f.value(keys...))
}

func mapTabar(f fields) domain.Record {
	income := f.amount("income_actual")
	expense := f.amount("expense_actual")
	surplus, ok := f.provided("surplus_deficit")
	if !ok {
		surplus = income.Sub(expense)
	}

	name := f.text("tabar_name", "column_2")
	domainText := f.text("domain")

	return domain.Tabar{
		TabarNumber:    f.text("tabar_number", "column_1"),
		TabarName:      name,
		Domain:         classifyFirst(ProjectDomains, domainText, name),
		ApprovedBudget: f.number("approved_budget"),
		IncomeActual:   income.InexactFloat64(),
		ExpenseActual:  expense.InexactFloat64(),
		SurplusDeficit: surplus.InexactFloat64(),
		FundingSource1: FundingSources.Classify(f.text("funding_source1", "funding_source")),
		FundingSource2: FundingSources.Classify(f.text("funding_source2")),
		FundingSource3: FundingSources.Classify(f.text("funding_source3")),
		Status:         f.text("status", "tabar_status"),
		OpenDate:       f.date("open_date"),
		CloseDate:      f.date("close_date"),
	}
}

func mapBudgetLine(f fields) domain.Record {
	approved := f.amount("approved_budget", "budget")
	actual := f.amount("actual_amount", "actual")
	execution, ok := f.provided("execution_percent")
	if !ok {
		execution = decimal.NewFromFloat(percentOf(actual, approved))
	}

	section := f.text("section_code", "column_1")
	return domain.BudgetLine{
		SectionCode:      section,
		CategoryName:     f.text("category_name", "column_2"),
		BudgetType:       budgetType(f.text("budget_type"), section),
		FiscalYear:       f.integer("fiscal_year"),
		ApprovedBudget:   approved.InexactFloat64(),
		ActualAmount:     actual.InexactFloat64(),
		ExecutionPercent: execution.InexactFloat64(),
	}
}

// budgetType uses the explicit type column when it says something, and otherwise the
// municipal chart of accounts, where income sections start with 1.
func budgetType(text, section string) domain.BudgetType {
	if v, ok := BudgetTypes.match(text); ok {
		return v
	}
	if strings.HasPrefix(section, "1") {
		return domain.BudgetIncome
	}
	return BudgetTypes.Fallback
}

func mapCollectionLine(f fields) domain.Record {
	demand := f.amount("annual_demand")
	collected := f.amount("collected")

	rate, ok := f.provided("collection_rate")
	if !ok {
		rate = decimal.NewFromFloat(percentOf(collected, demand))
	}
	debt, ok := f.provided("debt_balance")
	if !ok {
		debt = demand.Sub(collected)
	}

	description := f.text("property_type", "property_description", "column_2")
	return domain.CollectionLine{
		Period:              f.text("period", "column_1"),
		PropertyType:        PropertyTypes.Classify(description),
		PropertyDescription: description,
		AnnualDemand:        demand.InexactFloat64(),
		Collected:           collected.InexactFloat64(),
		CollectionRate:      rate.InexactFloat64(),
		DebtBalance:         debt.InexactFloat64(),
	}
}

func mapInstitution(f fields) domain.Record {
	name := f.text("institution_name", "column_2")
	return domain.Institution{
		InstitutionCode: f.text("institution_code", "column_1"),
		InstitutionName: name,
		InstitutionType: classifyFirst(InstitutionTypes, f.text("institution_type"), name),
		Address:         f.text("address"),
		Principal:       f.text("principal"),
		Phone:           f.text("phone"),
		StudentCount:    f.integer("student_count"),
		ClassCount:      f.integer("class_count"),
	}
}

func mapBusinessLicense(f fields) domain.Record {
	return domain.BusinessLicense{
		LicenseNumber: f.text("license_number", "column_1"),
		BusinessName:  f.text("business_name", "column_2"),
		BusinessType:  f.text("business_type"),
		OwnerName:     f.text("owner_name"),
		Address:       f.text("address"),
		LicenseStatus: LicenseStatuses.Classify(f.text("license_status", "status")),
		IssueDate:     f.date("issue_date"),
		ExpiryDate:    f.date("expiry_date"),
	}
}

func mapGrant(f fields) domain.Record {
	requested := f.amount("requested_amount")
	approved := f.amount("approved_amount")
	gap, ok := f.provided("gap")
	if !ok {
		gap = requested.Sub(approved)
	}

	name := f.text("grant_name", "column_1")
	ministry := f.text("ministry")
	return domain.Grant{
		GrantName:       name,
		Ministry:        ministry,
		FundingSource:   classifyFirst(FundingSources, f.text("funding_source", "funding_source1"), ministry),
		Domain:          classifyFirst(ProjectDomains, f.text("domain"), ministry, name),
		RequestedAmount: requested.InexactFloat64(),
		ApprovedAmount:  approved.InexactFloat64(),
		Gap:             gap.InexactFloat64(),
		GrantStatus:     GrantStatuses.Classify(f.text("grant_status", "status")),
		SubmissionDate:  f.date("submission_date"),
	}
}
