package headers

// labels maps source labels (Hebrew municipal terms and common English aliases) to
// canonical field names. Keys are cleaned with Clean at init, so spelling variants that
// differ only in quotes, points, spacing or case need no entry of their own.
var labels = map[string]string{
	// capital projects (tabarim)
	`מספר תב"ר`:        "tabar_number",
	`מס' תב"ר`:         "tabar_number",
	`מס תב"ר`:          "tabar_number",
	`תב"ר`:             "tabar_number",
	`שם תב"ר`:          "tabar_name",
	`שם התב"ר`:         "tabar_name",
	`תיאור תב"ר`:       "tabar_name",
	`תחום`:             "domain",
	`תחום פעילות`:      "domain",
	`תקציב מאושר`:      "approved_budget",
	`תקציב`:            "approved_budget",
	`הכנסות`:           "income_actual",
	`הכנסות בפועל`:     "income_actual",
	`ביצוע הכנסות`:     "income_actual",
	`הוצאות`:           "expense_actual",
	`הוצאות בפועל`:     "expense_actual",
	`ביצוע הוצאות`:     "expense_actual",
	`עודף/גירעון`:      "surplus_deficit",
	`עודף / גירעון`:    "surplus_deficit",
	`עודף (גירעון)`:    "surplus_deficit",
	`עודף גרעון`:       "surplus_deficit",
	`מקור מימון`:       "funding_source1",
	`מקור מימון 1`:     "funding_source1",
	`מקור מימון 2`:     "funding_source2",
	`מקור מימון 3`:     "funding_source3",
	`סטטוס`:            "status",
	`מצב`:              "status",
	`תאריך פתיחה`:      "open_date",
	`תאריך סגירה`:      "close_date",
	"tabar number":     "tabar_number",
	"tabar name":       "tabar_name",
	"approved budget":  "approved_budget",
	"budget":           "approved_budget",
	"income":           "income_actual",
	"expense":          "expense_actual",
	"expenses":         "expense_actual",
	"surplus":          "surplus_deficit",
	"funding source":   "funding_source1",
	"funding source 1": "funding_source1",
	"funding source 2": "funding_source2",
	"funding source 3": "funding_source3",

	// regular budget
	`סעיף`:        "section_code",
	`קוד סעיף`:    "section_code",
	`מספר סעיף`:   "section_code",
	`שם סעיף`:     "category_name",
	`תיאור סעיף`:  "category_name",
	`סוג`:         "budget_type",
	`סוג תקציב`:   "budget_type",
	`הכנסה/הוצאה`: "budget_type",
	`שנה`:         "fiscal_year",
	`שנת תקציב`:   "fiscal_year",
	`ביצוע`:       "actual_amount",
	`ביצוע בפועל`: "actual_amount",
	`אחוז ביצוע`:  "execution_percent",
	`% ביצוע`:     "execution_percent",
	"section":     "section_code",
	"category":    "category_name",
	"actual":      "actual_amount",
	"year":        "fiscal_year",

	// property tax collection
	`תקופה`:       "period",
	`סוג נכס`:     "property_type",
	`סיווג נכס`:   "property_type",
	`חיוב שנתי`:   "annual_demand",
	`חיוב`:        "annual_demand",
	`דרישה`:       "annual_demand",
	`גבייה`:       "collected",
	`גבייה בפועל`: "collected",
	`נגבה`:        "collected",
	`אחוז גבייה`:  "collection_rate",
	`% גבייה`:     "collection_rate",
	`יתרת חוב`:    "debt_balance",
	`חוב`:         "debt_balance",
	"demand":      "annual_demand",

	// educational institutions
	`סמל מוסד`:     "institution_code",
	`קוד מוסד`:     "institution_code",
	`שם מוסד`:      "institution_name",
	`שם המוסד`:     "institution_name",
	`סוג מוסד`:     "institution_type",
	`שלב חינוך`:    "institution_type",
	`כתובת`:        "address",
	`מנהל`:         "principal",
	`מנהלת`:        "principal",
	`מנהל/ת`:       "principal",
	`טלפון`:        "phone",
	`מספר תלמידים`: "student_count",
	`תלמידים`:      "student_count",
	`מספר כיתות`:   "class_count",
	`כיתות`:        "class_count",
	"institution":  "institution_name",
	"students":     "student_count",

	// business licensing
	`מספר רישיון`:      "license_number",
	`מס' רישיון`:       "license_number",
	`מספר תיק`:         "license_number",
	`שם עסק`:           "business_name",
	`שם העסק`:          "business_name",
	`מהות עסק`:         "business_type",
	`מהות העסק`:        "business_type",
	`סוג עסק`:          "business_type",
	`בעל העסק`:         "owner_name",
	`שם בעל העסק`:      "owner_name",
	`סטטוס רישיון`:     "license_status",
	`מצב רישיון`:       "license_status",
	`תאריך הנפקה`:      "issue_date",
	`תאריך מתן רישיון`: "issue_date",
	`תוקף עד`:          "expiry_date",
	`תאריך תפוגה`:      "expiry_date",
	`תוקף רישיון`:      "expiry_date",
	"license number":   "license_number",
	"business name":    "business_name",

	// grants and calls for proposals
	`שם קול קורא`: "grant_name",
	`קול קורא`:    "grant_name",
	`שם מענק`:     "grant_name",
	`משרד מממן`:   "ministry",
	`גורם מממן`:   "ministry",
	`משרד`:        "ministry",
	`סכום מבוקש`:  "requested_amount",
	`סכום מאושר`:  "approved_amount",
	`סטטוס בקשה`:  "grant_status",
	`תאריך הגשה`:  "submission_date",
	"grant":       "grant_name",
}
