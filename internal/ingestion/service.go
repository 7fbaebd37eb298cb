package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/munimport/internal/detect"
	"github.com/rpattn/munimport/internal/domain"
	"github.com/rpattn/munimport/internal/headers"
	"github.com/rpattn/munimport/internal/logging"
	"github.com/rpattn/munimport/internal/mapping"
	"github.com/rpattn/munimport/internal/repository"
	"github.com/rpattn/munimport/internal/storage"
	"github.com/rpattn/munimport/internal/workbook"
)

// DefaultBatchSize is the number of rows sent in one bulk insert.
const DefaultBatchSize = 100

// Service runs spreadsheet imports: read, detect, map and load.
type Service struct {
	blobs   storage.BlobStore
	logs    repository.IngestionLogRepository
	records repository.RecordRepository

	detector      *detect.Detector
	logger        *slog.Logger
	metrics       *Metrics
	notifier      Notifier
	batchSize     int
	strictReplace bool
	sampleSize    int
	stage         *stagedUploads
	now           func() time.Time
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logging.Module(logger, "ingestion")
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithStrictReplace runs replace mode as one transaction: the clear and every batch
// land together, or the import fails and the table keeps its previous records.
func WithStrictReplace(strict bool) Option {
	return func(s *Service) { s.strictReplace = strict }
}

// WithStageTTL sets how long an inspected upload waits for its commit.
func WithStageTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.stage = newStagedUploads(ttl)
		}
	}
}

func WithSampleSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.sampleSize = n
		}
	}
}

func WithDetector(d *detect.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the loader to its blob store and repositories.
func NewService(
	blobs storage.BlobStore,
	logs repository.IngestionLogRepository,
	records repository.RecordRepository,
	opts ...Option,
) *Service {
	service := &Service{
		blobs:      blobs,
		logs:       logs,
		records:    records,
		detector:   detect.New(),
		logger:     logging.Module(slog.Default(), "ingestion"),
		batchSize:  DefaultBatchSize,
		sampleSize: 5,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.stage == nil {
		service.stage = newStagedUploads(15 * time.Minute)
	}
	return service
}

// Request describes a one-shot import.
type Request struct {
	OwnerID  uuid.UUID
	FileName string
	Context  domain.ImportContext
	// Mode may be empty only when the destination table holds no records yet.
	Mode domain.ImportMode
	Data []byte
}

// Summary reports the outcome of an import back to the caller.
type Summary struct {
	IngestionID     uuid.UUID              `json:"ingestionId"`
	FileName        string                 `json:"fileName"`
	StoredPath      string                 `json:"storedPath"`
	Table           domain.TableType       `json:"table"`
	DetectionReason string                 `json:"detectionReason"`
	Mode            domain.ImportMode      `json:"mode"`
	RowCount        int                    `json:"rowCount"`
	Cleared         int64                  `json:"cleared"`
	Inserted        int                    `json:"inserted"`
	Errors          int                    `json:"errors"`
	Status          domain.IngestionStatus `json:"status"`
	Batches         []domain.BatchResult   `json:"batches"`
	LogWritten      bool                   `json:"logWritten"`
	Message         string                 `json:"message"`
}

// Import reads, detects and loads one upload. Unreadable files, undetected tables and
// blob storage failures abort with a *StageError; everything later is best effort and
// shows up in the summary counts instead.
func (s *Service) Import(ctx context.Context, req Request) (Summary, error) {
	if req.OwnerID == uuid.Nil {
		return Summary{}, ErrOwnerRequired
	}
	upload, err := s.parse(req.FileName, req.Data, req.Context)
	if err != nil {
		return Summary{}, s.fail(err)
	}
	mode, err := s.resolveMode(ctx, upload.detection.Table, req.Mode)
	if err != nil {
		return Summary{}, err
	}
	return s.load(ctx, req.OwnerID, upload, mode)
}

// resolveMode validates the caller's choice. Without one, append is assumed only when
// the table is known to be empty, since replace and append then coincide.
func (s *Service) resolveMode(ctx context.Context, table domain.TableType, mode domain.ImportMode) (domain.ImportMode, error) {
	if mode != "" {
		parsed, err := domain.ParseImportMode(string(mode))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidMode, err)
		}
		return parsed, nil
	}
	existing, err := s.records.Count(ctx, table)
	if err != nil {
		s.logger.Warn("could not count existing records", "table", table, "error", err)
		return "", fmt.Errorf("%w: choose one explicitly", ErrInvalidMode)
	}
	if existing > 0 {
		return "", fmt.Errorf("%w: %s already holds %d records", ErrInvalidMode, table, existing)
	}
	return domain.ImportModeAppend, nil
}

// parsedUpload is a fully read and detected upload, ready to be loaded.
type parsedUpload struct {
	fileName   string
	data       []byte
	context    domain.ImportContext
	rawHeaders []string
	fields     []string
	records    []domain.NormalizedRecord
	detection  detect.Result
}

func (s *Service) parse(fileName string, data []byte, importContext domain.ImportContext) (*parsedUpload, error) {
	upload, err := s.read(fileName, data, importContext)
	if err != nil {
		return nil, err
	}
	if !upload.detection.Detected() {
		return nil, &StageError{
			Stage: StageDetect,
			Err:   fmt.Errorf("%w: %s", ErrUndetectedTable, upload.detection.Reason),
		}
	}
	return upload, nil
}

// read parses the first sheet and runs detection without failing on an undetected table.
func (s *Service) read(fileName string, data []byte, importContext domain.ImportContext) (*parsedUpload, error) {
	if importContext == "" {
		importContext = domain.ContextGeneral
	}
	sheet, err := workbook.Open(fileName, data)
	if err != nil {
		return nil, &StageError{Stage: StageRead, Err: err}
	}
	defer sheet.Close()

	raw, err := sheet.ReadAll()
	if err != nil {
		return nil, &StageError{Stage: StageRead, Err: err}
	}

	keys := sheet.Keys()
	records := make([]domain.NormalizedRecord, 0, len(raw))
	for _, rec := range raw {
		records = append(records, headers.NormalizeRecord(keys, rec))
	}
	fields := headers.NormalizeHeaders(sheet.Headers())

	return &parsedUpload{
		fileName:   fileName,
		data:       data,
		context:    importContext,
		rawHeaders: sheet.Headers(),
		fields:     fields,
		records:    records,
		detection:  s.detector.Detect(importContext, fields),
	}, nil
}

// load walks FileStored -> Logged -> [Cleared] -> Inserting -> Finalized, awaiting every
// step before starting the next.
func (s *Service) load(ctx context.Context, ownerID uuid.UUID, upload *parsedUpload, mode domain.ImportMode) (Summary, error) {
	table := upload.detection.Table
	logger := s.logger.With("file", upload.fileName, "table", table, "mode", mode)

	storedPath, err := s.blobs.Store(ctx, upload.fileName, upload.data)
	if err != nil {
		return Summary{}, s.fail(&StageError{Stage: StageStore, Err: err})
	}

	entry := domain.IngestionLogEntry{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		FileName:      upload.fileName,
		StoredPath:    storedPath,
		ImportContext: upload.context,
		DetectedTable: table,
		Mode:          mode,
		RowCount:      len(upload.records),
		Status:        domain.IngestionProcessing,
		CreatedAt:     s.now(),
		UpdatedAt:     s.now(),
	}
	logWritten := true
	if created, err := s.logs.Create(ctx, entry); err != nil {
		logWritten = false
		logger.Warn("failed to write ingestion log, continuing", "stage", StageLog, "error", err)
	} else {
		entry = created
	}
	logger = logger.With("ingestion_id", entry.ID)

	summary := Summary{
		IngestionID:     entry.ID,
		FileName:        upload.fileName,
		StoredPath:      storedPath,
		Table:           table,
		DetectionReason: upload.detection.Reason,
		Mode:            mode,
		RowCount:        len(upload.records),
		LogWritten:      logWritten,
	}

	batches := s.batches(ownerID, entry.ID, table, upload.records)

	if mode == domain.ImportModeReplace && s.strictReplace {
		began := time.Now()
		removed, err := s.records.ReplaceAll(ctx, table, batches)
		if err != nil {
			logger.Error("replace rolled back", "stage", StageReplace, "error", err)
			entry = entry.Finalize(failedResults(batches, err), s.now())
			entry.Status = domain.IngestionFailed
			entry.ErrorMessage = err.Error()
			s.updateLog(ctx, logger, entry, logWritten)
			s.metrics.observeImport(table, entry.Status)

			summary.Errors = entry.ErrorCount
			summary.Status = entry.Status
			summary.Batches = entry.Batches
			summary.Message = completionMessage(summary)
			s.notify(ctx, summary)
			return summary, s.fail(&StageError{Stage: StageReplace, Err: err})
		}
		summary.Cleared = removed
		logger.Info("replaced existing records", "removed", removed)
		results := committedResults(batches)
		for _, result := range results {
			s.metrics.observeBatch(table, result, time.Since(began)/time.Duration(len(results)))
		}
		return s.finish(ctx, logger, table, entry, summary, results, logWritten), nil
	}

	if mode == domain.ImportModeReplace {
		removed, err := s.records.DeleteAll(ctx, table)
		if err != nil {
			logger.Warn("failed to clear existing records, continuing", "stage", StageClear, "error", err)
		} else {
			summary.Cleared = removed
			logger.Info("cleared existing records", "removed", removed)
		}
	}

	results := s.insertBatches(ctx, logger, table, batches)
	return s.finish(ctx, logger, table, entry, summary, results, logWritten), nil
}

// finish records the batch outcome in the log, metrics and the caller's summary.
func (s *Service) finish(
	ctx context.Context,
	logger *slog.Logger,
	table domain.TableType,
	entry domain.IngestionLogEntry,
	summary Summary,
	results []domain.BatchResult,
	logWritten bool,
) Summary {
	entry = entry.Finalize(results, s.now())
	s.updateLog(ctx, logger, entry, logWritten)
	s.metrics.observeImport(table, entry.Status)

	summary.Inserted = entry.InsertedCount
	summary.Errors = entry.ErrorCount
	summary.Status = entry.Status
	summary.Batches = entry.Batches
	summary.Message = completionMessage(summary)

	logger.Info("import finished",
		"status", summary.Status,
		"rows", summary.RowCount,
		"inserted", summary.Inserted,
		"errors", summary.Errors,
	)
	s.notify(ctx, summary)
	return summary
}

// batches maps records into rows, batchSize at a time.
func (s *Service) batches(ownerID, ingestionID uuid.UUID, table domain.TableType, records []domain.NormalizedRecord) [][]domain.Row {
	out := make([][]domain.Row, 0, (len(records)+s.batchSize-1)/s.batchSize)
	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}

		rows := make([]domain.Row, 0, end-start)
		for _, rec := range records[start:end] {
			rows = append(rows, domain.Row{
				OwnerID:     ownerID,
				IngestionID: ingestionID,
				Record:      mapping.MapRow(table, rec),
			})
		}
		out = append(out, rows)
	}
	return out
}

// insertBatches inserts batch by batch. A failed batch counts all its rows as errors
// and the loop moves on.
func (s *Service) insertBatches(
	ctx context.Context,
	logger *slog.Logger,
	table domain.TableType,
	batches [][]domain.Row,
) []domain.BatchResult {
	results := make([]domain.BatchResult, 0, len(batches))
	for index, rows := range batches {
		began := time.Now()
		inserted, err := s.records.InsertBatch(ctx, table, rows)
		result := domain.BatchResult{Index: index, Rows: len(rows), Inserted: inserted}
		if err != nil {
			result.Inserted = 0
			result.Errors = len(rows)
			result.Error = err.Error()
			logger.Warn("batch insert failed, continuing",
				"stage", StageInsert,
				"batch", index,
				"rows", len(rows),
				"error", err,
			)
		} else if inserted < len(rows) {
			result.Errors = len(rows) - inserted
		}
		s.metrics.observeBatch(table, result, time.Since(began))
		results = append(results, result)
	}
	return results
}

func committedResults(batches [][]domain.Row) []domain.BatchResult {
	results := make([]domain.BatchResult, 0, len(batches))
	for index, rows := range batches {
		results = append(results, domain.BatchResult{Index: index, Rows: len(rows), Inserted: len(rows)})
	}
	return results
}

// failedResults marks every batch of a rolled back replace as failed.
func failedResults(batches [][]domain.Row, err error) []domain.BatchResult {
	results := make([]domain.BatchResult, 0, len(batches))
	for index, rows := range batches {
		results = append(results, domain.BatchResult{Index: index, Rows: len(rows), Errors: len(rows), Error: err.Error()})
	}
	return results
}

func (s *Service) updateLog(ctx context.Context, logger *slog.Logger, entry domain.IngestionLogEntry, logWritten bool) {
	if !logWritten {
		return
	}
	if _, err := s.logs.Update(ctx, entry); err != nil {
		logger.Warn("failed to finalize ingestion log", "stage", StageLog, "error", err)
	}
}

func (s *Service) fail(err error) error {
	if stage, ok := FailedStage(err); ok {
		s.metrics.observeFailure(stage)
		s.logger.Error("import aborted", "stage", stage, "error", err)
	}
	return err
}

// Logs lists the owner's ingestion history, newest first.
func (s *Service) Logs(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.IngestionLogEntry, error) {
	if ownerID == uuid.Nil {
		return nil, ErrOwnerRequired
	}
	return s.logs.List(ctx, ownerID, limit, offset)
}

// Log returns one ingestion entry if it belongs to ownerID.
func (s *Service) Log(ctx context.Context, ownerID, id uuid.UUID) (domain.IngestionLogEntry, error) {
	if ownerID == uuid.Nil {
		return domain.IngestionLogEntry{}, ErrOwnerRequired
	}
	entry, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return domain.IngestionLogEntry{}, err
	}
	if entry.OwnerID != ownerID {
		return domain.IngestionLogEntry{}, fmt.Errorf("ingestion log %s: %w", id, repository.ErrNotFound)
	}
	return entry, nil
}

// IsNotFound reports whether err means the requested log does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
