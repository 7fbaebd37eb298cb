// Package storage keeps the original uploaded spreadsheets.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrStorage wraps every failure to persist an upload.
var ErrStorage = errors.New("storage error")

// BlobStore persists an upload under a generated name and returns where it went.
// The caller's file name is only used, sanitized, as a readable suffix.
type BlobStore interface {
	Store(ctx context.Context, fileName string, payload []byte) (string, error)
}

// Namer produces object keys. Tests swap it for a deterministic one.
type Namer func(fileName string) string

// DefaultNamer builds keys of the form 2006/01/02/<uuid>-<name>.<ext>.
func DefaultNamer(fileName string) string {
	return ObjectKey(time.Now().UTC(), uuid.New(), fileName)
}

// ObjectKey derives a collision-resistant key for fileName. Only ASCII letters, digits,
// dashes and underscores survive from the original name.
func ObjectKey(now time.Time, id uuid.UUID, fileName string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := sanitizeFileComponent(stem)
	if name == "" {
		name = "upload"
	}
	key := fmt.Sprintf("%s/%s-%s", now.Format("2006/01/02"), id, name)
	if ext = sanitizeFileComponent(strings.TrimPrefix(ext, ".")); ext != "" {
		key += "." + ext
	}
	return key
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			builder.WriteRune(r)
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '-' || r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	result := strings.Trim(builder.String(), "-")
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	return result
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// contentType guesses a MIME type from the stored key's extension.
func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".xlsx", ".xlsm":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".csv", ".txt":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
