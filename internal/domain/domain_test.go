package domain

import (
	"testing"
	"time"
)

func TestFinalizeTotalsBatches(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := IngestionLogEntry{RowCount: 250, Status: IngestionProcessing}

	batches := []BatchResult{
		{Index: 0, Rows: 100, Inserted: 100},
		{Index: 1, Rows: 100, Errors: 100, Error: "connection reset"},
		{Index: 2, Rows: 50, Inserted: 50},
	}
	out := entry.Finalize(batches, now)

	if out.InsertedCount != 150 || out.ErrorCount != 100 {
		t.Fatalf("unexpected totals: inserted=%d errors=%d", out.InsertedCount, out.ErrorCount)
	}
	if out.Status != IngestionCompletedWithErrors {
		t.Fatalf("expected completed_with_errors, got %s", out.Status)
	}
	if !out.UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt %v, got %v", now, out.UpdatedAt)
	}
	if entry.Status != IngestionProcessing || entry.Batches != nil {
		t.Fatalf("Finalize must not modify the receiver")
	}

	batches[0].Inserted = 0
	if out.Batches[0].Inserted != 100 {
		t.Fatalf("Finalize must copy the batch slice")
	}
}

func TestFinalizeWithoutErrorsCompletes(t *testing.T) {
	out := IngestionLogEntry{}.Finalize([]BatchResult{{Rows: 3, Inserted: 3}}, time.Now())
	if out.Status != IngestionCompleted {
		t.Fatalf("expected completed, got %s", out.Status)
	}

	empty := IngestionLogEntry{}.Finalize(nil, time.Now())
	if empty.Status != IngestionCompleted || empty.InsertedCount != 0 {
		t.Fatalf("an empty sheet completes with nothing inserted, got %+v", empty)
	}
}

func TestParseImportMode(t *testing.T) {
	for raw, want := range map[string]ImportMode{"replace": ImportModeReplace, " Append ": ImportModeAppend} {
		got, err := ParseImportMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseImportMode(%q) = %q, %v", raw, got, err)
		}
	}
	for _, raw := range []string{"", "merge"} {
		if _, err := ParseImportMode(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseImportContext(t *testing.T) {
	got, err := ParseImportContext("")
	if err != nil || got != ContextGeneral {
		t.Fatalf("empty context should be general, got %q, %v", got, err)
	}
	got, err = ParseImportContext("Business_Licensing")
	if err != nil || got != ContextBusinessLicensing {
		t.Fatalf("unexpected context %q, %v", got, err)
	}
	if _, err := ParseImportContext("parking"); err == nil {
		t.Fatalf("expected error for unknown context")
	}
}

func TestParseTableType(t *testing.T) {
	if got, err := ParseTableType("GRANTS"); err != nil || got != TableGrants {
		t.Fatalf("unexpected table %q, %v", got, err)
	}
	if _, err := ParseTableType("undetected"); err == nil {
		t.Fatalf("undetected is not a writable table")
	}
}

func TestRecordValuesAlignWithColumns(t *testing.T) {
	records := []Record{Tabar{}, BudgetLine{}, CollectionLine{}, Institution{}, BusinessLicense{}, Grant{}}
	seen := map[TableType]bool{}
	for _, rec := range records {
		if len(rec.Columns()) != len(rec.Values()) {
			t.Fatalf("%s: %d columns but %d values", rec.Table(), len(rec.Columns()), len(rec.Values()))
		}
		seen[rec.Table()] = true
	}
	for _, table := range Tables {
		if !seen[table] {
			t.Fatalf("no record type for table %s", table)
		}
	}
}

func TestDateColumnsBecomeNullWhenEmpty(t *testing.T) {
	values := Tabar{OpenDate: "2024-01-15"}.Values()
	opened, closed := values[len(values)-2], values[len(values)-1]

	if ts, ok := opened.(time.Time); !ok || ts.Format(time.DateOnly) != "2024-01-15" {
		t.Fatalf("expected open date as time.Time, got %#v", opened)
	}
	if closed != nil {
		t.Fatalf("expected nil close date, got %#v", closed)
	}
}
