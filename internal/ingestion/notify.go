package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rpattn/munimport/internal/domain"
)

// Completion is what a finished import tells the caller. Message is ready for display.
type Completion struct {
	IngestionID uuid.UUID              `json:"ingestionId"`
	FileName    string                 `json:"fileName"`
	Table       domain.TableType       `json:"table"`
	Status      domain.IngestionStatus `json:"status"`
	Inserted    int                    `json:"inserted"`
	Errors      int                    `json:"errors"`
	Message     string                 `json:"message"`
}

// Notifier is told about every import that reaches a terminal status, whatever its
// error count.
type Notifier interface {
	ImportFinished(ctx context.Context, c Completion)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, c Completion)

func (f NotifierFunc) ImportFinished(ctx context.Context, c Completion) { f(ctx, c) }

func (s *Service) notify(ctx context.Context, summary Summary) {
	if s.notifier == nil {
		return
	}
	s.notifier.ImportFinished(ctx, Completion{
		IngestionID: summary.IngestionID,
		FileName:    summary.FileName,
		Table:       summary.Table,
		Status:      summary.Status,
		Inserted:    summary.Inserted,
		Errors:      summary.Errors,
		Message:     summary.Message,
	})
}

func completionMessage(s Summary) string {
	switch s.Status {
	case domain.IngestionCompleted:
		return fmt.Sprintf("Imported %d rows into %s", s.Inserted, s.Table)
	case domain.IngestionCompletedWithErrors:
		return fmt.Sprintf("Imported %d of %d rows into %s, %d rows failed", s.Inserted, s.RowCount, s.Table, s.Errors)
	case domain.IngestionFailed:
		return fmt.Sprintf("Import into %s failed and was rolled back, existing records are unchanged", s.Table)
	default:
		return fmt.Sprintf("Import into %s is %s", s.Table, s.Status)
	}
}

// FailureMessage renders a fatal import error for display, naming the failed stage.
func FailureMessage(err error) string {
	if stage, ok := FailedStage(err); ok {
		return fmt.Sprintf("Import failed at the %s step: %v", stage, err)
	}
	return fmt.Sprintf("Import failed: %v", err)
}
