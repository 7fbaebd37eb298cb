package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/rpattn/munimport/internal/domain"
	"github.com/rpattn/munimport/internal/headers"
	"github.com/rpattn/munimport/internal/mapping"
)

// stagedUploads holds inspected uploads until they are committed or expire.
type stagedUploads struct {
	ttl   time.Duration
	cache *cache.Cache

	// mu makes the lookup and delete in take a single step
	mu sync.Mutex
}

type stagedUpload struct {
	ownerID uuid.UUID
	upload  *parsedUpload
}

func newStagedUploads(ttl time.Duration) *stagedUploads {
	return &stagedUploads{ttl: ttl, cache: cache.New(ttl, 2*ttl)}
}

func (s *stagedUploads) put(ownerID uuid.UUID, upload *parsedUpload) string {
	token := uuid.NewString()
	s.cache.Set(token, stagedUpload{ownerID: ownerID, upload: upload}, s.ttl)
	return token
}

// take removes and returns the staged upload; a token can be committed once.
func (s *stagedUploads) take(token string, ownerID uuid.UUID) (*parsedUpload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.cache.Get(token)
	if !ok {
		return nil, false
	}
	staged, ok := value.(stagedUpload)
	if !ok || staged.ownerID != ownerID {
		return nil, false
	}
	s.cache.Delete(token)
	return staged.upload, true
}

// InspectRequest asks what an upload would do without doing it.
type InspectRequest struct {
	OwnerID  uuid.UUID
	FileName string
	Context  domain.ImportContext
	Data     []byte
}

// HeaderInfo describes how one sheet column was understood.
type HeaderInfo struct {
	Label      string `json:"label"`
	Field      string `json:"field"`
	Recognized bool   `json:"recognized"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Inspection is the confirmation-dialog view of an upload.
type Inspection struct {
	Token           string           `json:"token,omitempty"`
	ExpiresAt       *time.Time       `json:"expiresAt,omitempty"`
	FileName        string           `json:"fileName"`
	Table           domain.TableType `json:"table"`
	Detected        bool             `json:"detected"`
	DetectionReason string           `json:"detectionReason"`
	RowCount        int              `json:"rowCount"`
	Headers         []HeaderInfo     `json:"headers"`
	Sample          []domain.Record  `json:"sample"`
	ExistingRecords int64            `json:"existingRecords"`
	// RequiresModeDecision is set when the table already has records, so the user must
	// pick replace or append.
	RequiresModeDecision bool `json:"requiresModeDecision"`
}

// Inspect parses and detects an upload and stages it for Commit. It writes nothing.
// An undetected table is reported in the inspection, not as an error, and gets no token.
func (s *Service) Inspect(ctx context.Context, req InspectRequest) (Inspection, error) {
	if req.OwnerID == uuid.Nil {
		return Inspection{}, ErrOwnerRequired
	}
	upload, err := s.read(req.FileName, req.Data, req.Context)
	if err != nil {
		return Inspection{}, s.fail(err)
	}

	inspection := Inspection{
		FileName:        req.FileName,
		Table:           upload.detection.Table,
		Detected:        upload.detection.Detected(),
		DetectionReason: upload.detection.Reason,
		RowCount:        len(upload.records),
		Headers:         describeHeaders(upload.rawHeaders),
		Sample:          []domain.Record{},
	}
	if !inspection.Detected {
		return inspection, nil
	}

	for i := 0; i < len(upload.records) && i < s.sampleSize; i++ {
		inspection.Sample = append(inspection.Sample, mapping.MapRow(upload.detection.Table, upload.records[i]))
	}

	existing, err := s.records.Count(ctx, upload.detection.Table)
	if err != nil {
		s.logger.Warn("could not count existing records", "table", upload.detection.Table, "error", err)
		inspection.RequiresModeDecision = true
	} else {
		inspection.ExistingRecords = existing
		inspection.RequiresModeDecision = existing > 0
	}

	inspection.Token = s.stage.put(req.OwnerID, upload)
	expires := s.now().Add(s.stage.ttl)
	inspection.ExpiresAt = &expires
	return inspection, nil
}

func describeHeaders(labels []string) []HeaderInfo {
	out := make([]HeaderInfo, 0, len(labels))
	for _, label := range labels {
		if headers.Clean(label) == "" {
			continue
		}
		info := HeaderInfo{
			Label:      label,
			Field:      headers.Normalize(label),
			Recognized: headers.Known(label),
		}
		if !info.Recognized {
			if suggestion, ok := headers.Suggest(label); ok {
				info.Suggestion = suggestion
			}
		}
		out = append(out, info)
	}
	return out
}

// CommitRequest runs a previously inspected upload.
type CommitRequest struct {
	Token   string
	OwnerID uuid.UUID
	Mode    domain.ImportMode
}

// Commit loads a staged upload. Unlike Import, the mode is always required: the
// inspection already told the caller whether there was anything to replace.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (Summary, error) {
	if req.OwnerID == uuid.Nil {
		return Summary{}, ErrOwnerRequired
	}
	mode, err := domain.ParseImportMode(string(req.Mode))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrInvalidMode, err)
	}
	upload, ok := s.stage.take(req.Token, req.OwnerID)
	if !ok {
		return Summary{}, ErrUnknownToken
	}
	return s.load(ctx, req.OwnerID, upload, mode)
}
