package domain

import (
	"time"

	"github.com/google/uuid"
)

// IngestionStatus is the lifecycle state of one upload.
type IngestionStatus string

const (
	IngestionProcessing          IngestionStatus = "processing"
	IngestionCompleted           IngestionStatus = "completed"
	IngestionCompletedWithErrors IngestionStatus = "completed_with_errors"
	// IngestionFailed is only used when a transactional replace rolls back.
	IngestionFailed IngestionStatus = "failed"
)

// BatchResult records the outcome of one bulk insert.
type BatchResult struct {
	Index    int    `json:"index"`
	Rows     int    `json:"rows"`
	Inserted int    `json:"inserted"`
	Errors   int    `json:"errors"`
	Error    string `json:"error,omitempty"`
}

// IngestionLogEntry is the audit record of one upload attempt.
type IngestionLogEntry struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	FileName      string          `json:"file_name"`
	StoredPath    string          `json:"stored_path"`
	ImportContext ImportContext   `json:"import_context"`
	DetectedTable TableType       `json:"detected_table"`
	Mode          ImportMode      `json:"mode"`
	RowCount      int             `json:"row_count"`
	InsertedCount int             `json:"inserted_count"`
	ErrorCount    int             `json:"error_count"`
	Batches       []BatchResult   `json:"batches"`
	Status        IngestionStatus `json:"status"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Finalize returns a copy carrying the batch totals and the terminal status they imply.
func (e IngestionLogEntry) Finalize(batches []BatchResult, now time.Time) IngestionLogEntry {
	out := e
	out.Batches = append([]BatchResult(nil), batches...)
	out.InsertedCount = 0
	out.ErrorCount = 0
	for _, b := range batches {
		out.InsertedCount += b.Inserted
		out.ErrorCount += b.Errors
	}
	out.Status = IngestionCompleted
	if out.ErrorCount > 0 {
		out.Status = IngestionCompletedWithErrors
	}
	out.UpdatedAt = now
	return out
}
