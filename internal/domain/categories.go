package domain

// FundingSource classifies where money for a project comes from.
type FundingSource string

const (
	FundingSelf     FundingSource = "self"
	FundingMinistry FundingSource = "ministry"
	FundingLoan     FundingSource = "loan"
	FundingLottery  FundingSource = "lottery"
	FundingLevies   FundingSource = "levies"
	FundingDonation FundingSource = "donation"
	FundingOther    FundingSource = "other"
)

// ProjectDomain is the municipal area a project belongs to.
type ProjectDomain string

const (
	DomainEducation      ProjectDomain = "education"
	DomainInfrastructure ProjectDomain = "infrastructure"
	DomainCulture        ProjectDomain = "culture"
	DomainWelfare        ProjectDomain = "welfare"
	DomainSports         ProjectDomain = "sports"
	DomainSecurity       ProjectDomain = "security"
	DomainEnvironment    ProjectDomain = "environment"
	DomainOther          ProjectDomain = "other"
)

type BudgetType string

const (
	BudgetIncome  BudgetType = "income"
	BudgetExpense BudgetType = "expense"
)

type PropertyType string

const (
	PropertyResidential PropertyType = "residential"
	PropertyCommercial  PropertyType = "commercial"
	PropertyIndustrial  PropertyType = "industrial"
	PropertyOffice      PropertyType = "office"
	PropertyOther       PropertyType = "other"
)

type InstitutionType string

const (
	InstitutionSpecialEducation InstitutionType = "special_education"
	InstitutionKindergarten     InstitutionType = "kindergarten"
	InstitutionSecondary        InstitutionType = "secondary"
	InstitutionElementary       InstitutionType = "elementary"
	InstitutionOther            InstitutionType = "other"
)

type LicenseStatus string

const (
	LicenseActive  LicenseStatus = "active"
	LicenseExpired LicenseStatus = "expired"
	LicensePending LicenseStatus = "pending"
	LicenseRevoked LicenseStatus = "revoked"
	LicenseOther   LicenseStatus = "other"
)

type GrantStatus string

const (
	GrantApproved  GrantStatus = "approved"
	GrantRejected  GrantStatus = "rejected"
	GrantSubmitted GrantStatus = "submitted"
	GrantPending   GrantStatus = "pending"
	GrantOther     GrantStatus = "other"
)
