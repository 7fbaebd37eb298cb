package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrUndetectedTable is returned when neither context nor headers identify a table.
	ErrUndetectedTable = errors.New("could not detect destination table")
	// ErrUnknownToken is returned when a staged import is missing, expired or not the caller's.
	ErrUnknownToken = errors.New("unknown or expired import token")
	// ErrInvalidMode is returned when the import mode is missing where it must be chosen.
	ErrInvalidMode = errors.New("import mode must be replace or append")
	// ErrOwnerRequired is returned when a request carries no owner.
	ErrOwnerRequired = errors.New("owner id is required")
)

// Stage names a step of the import pipeline.
type Stage string

const (
	StageRead    Stage = "read"
	StageDetect  Stage = "detect"
	StageStore   Stage = "store"
	StageLog     Stage = "log"
	StageClear   Stage = "clear"
	StageInsert  Stage = "insert"
	StageReplace Stage = "replace"
)

// StageError is a fatal import failure tagged with the step that failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("import failed at %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage of a StageError anywhere in err's chain.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
