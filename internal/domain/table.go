package domain

import (
	"fmt"
	"strings"
)

// TableType identifies the logical destination schema of an uploaded sheet.
type TableType string

const (
	TableTabarim          TableType = "tabarim"
	TableRegularBudget    TableType = "regular_budget"
	TableCollectionData   TableType = "collection_data"
	TableInstitutions     TableType = "institutions"
	TableBusinessLicenses TableType = "business_licenses"
	TableGrants           TableType = "grants"
	TableUndetected       TableType = "undetected"
)

// Tables lists every table the loader can write to.
var Tables = []TableType{
	TableTabarim,
	TableRegularBudget,
	TableCollectionData,
	TableInstitutions,
	TableBusinessLicenses,
	TableGrants,
}

// Known reports whether t is a concrete, writable table.
func (t TableType) Known() bool {
	for _, table := range Tables {
		if t == table {
			return true
		}
	}
	return false
}

// ParseTableType resolves a table name as sent by clients.
func ParseTableType(raw string) (TableType, error) {
	t := TableType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Known() {
		return TableUndetected, fmt.Errorf("unknown table %q", raw)
	}
	return t, nil
}

// ImportContext identifies the screen that initiated an upload.
type ImportContext string

const (
	ContextTabarim           ImportContext = "tabarim"
	ContextRegularBudget     ImportContext = "regular_budget"
	ContextCollection        ImportContext = "collection"
	ContextEducation         ImportContext = "education"
	ContextBusinessLicensing ImportContext = "business_licensing"
	ContextGrants            ImportContext = "grants"
	ContextFinance           ImportContext = "finance"
	ContextGeneral           ImportContext = "general"
)

// ParseImportContext accepts the known screen tags; empty input means general.
func ParseImportContext(raw string) (ImportContext, error) {
	c := ImportContext(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case "":
		return ContextGeneral, nil
	case ContextTabarim, ContextRegularBudget, ContextCollection, ContextEducation,
		ContextBusinessLicensing, ContextGrants, ContextFinance, ContextGeneral:
		return c, nil
	default:
		return "", fmt.Errorf("unknown import context %q", raw)
	}
}

// ImportMode decides whether existing records of the detected table are kept.
type ImportMode string

const (
	ImportModeReplace ImportMode = "replace"
	ImportModeAppend  ImportMode = "append"
)

// ParseImportMode resolves a mode selection. There is no default: the caller must decide.
func ParseImportMode(raw string) (ImportMode, error) {
	switch m := ImportMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ImportModeReplace, ImportModeAppend:
		return m, nil
	default:
		return "", fmt.Errorf("invalid import mode %q (want replace or append)", raw)
	}
}

// RawRecord maps a column key, as read from the sheet, to its cell value.
// Values are string or float64; empty cells are absent.
type RawRecord map[string]any

// NormalizedRecord maps canonical field names to raw cell values.
type NormalizedRecord map[string]any
