// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure mode raised by the analysis pipeline.
type ErrorKind string

const (
	// KindInvalidInput marks a malformed or empty novel.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindNoEntitiesFound marks a degenerate text where fewer than two
	// characters survive EntityExtractor filtering.
	KindNoEntitiesFound ErrorKind = "no_entities_found"
	// KindLexiconMissing marks a required resource absent.
	KindLexiconMissing ErrorKind = "lexicon_missing"
	// KindStageFailure marks any unrecoverable internal fault in a stage.
	KindStageFailure ErrorKind = "stage_failure"
	// KindGraphStoreError marks a failed graph-store write.
	KindGraphStoreError ErrorKind = "graph_store_error"
	// KindCancelled marks a cancelled analysis.
	KindCancelled ErrorKind = "cancelled"
)

// AppError is the single user-visible error shape: {kind, stage?, message}.
// No stack traces leak outward.
type AppError struct {
	Kind    ErrorKind
	Stage   string // optional: which pipeline stage raised this
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Stage != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s[%s]: %s: %v", e.Kind, e.Stage, e.Message, e.Err)
		}
		return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Stage, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError of the given kind.
func New(kind ErrorKind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: cause}
}

// NewInvalidInput creates an InvalidInput error.
func NewInvalidInput(message string, cause error) *AppError {
	return New(KindInvalidInput, message, cause)
}

// NewNoEntitiesFound creates a NoEntitiesFound error.
func NewNoEntitiesFound(message string) *AppError {
	return New(KindNoEntitiesFound, message, nil)
}

// NewLexiconMissing creates a LexiconMissing error.
func NewLexiconMissing(message string, cause error) *AppError {
	return New(KindLexiconMissing, message, cause)
}

// NewStageFailure creates a StageFailure error tagged with the stage name
// that raised it.
func NewStageFailure(stage, message string, cause error) *AppError {
	return &AppError{Kind: KindStageFailure, Stage: stage, Message: message, Err: cause}
}

// NewGraphStoreError creates a GraphStoreError error.
func NewGraphStoreError(message string, cause error) *AppError {
	return New(KindGraphStoreError, message, cause)
}

// NewCancelled creates a Cancelled error.
func NewCancelled(message string) *AppError {
	return New(KindCancelled, message, nil)
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind ErrorKind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
