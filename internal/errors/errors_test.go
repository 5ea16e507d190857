package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInvalidInputCarriesKindAndMessage(t *testing.T) {
	err := NewInvalidInput("chapter text is empty", nil)
	assert.Equal(t, KindInvalidInput, err.Kind)
	assert.Contains(t, err.Error(), "invalid_input")
	assert.Contains(t, err.Error(), "chapter text is empty")
}

func TestNewStageFailureIncludesStageInMessage(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewStageFailure("EntityExtractor", "failed to extract entities", cause)
	assert.Equal(t, KindStageFailure, err.Kind)
	assert.Equal(t, "EntityExtractor", err.Stage)
	assert.Contains(t, err.Error(), "EntityExtractor")
	assert.Contains(t, err.Error(), "boom")
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := stderrors.New("root cause")
	err := NewGraphStoreError("write failed", cause)
	assert.Same(t, cause, err.Unwrap())
	assert.True(t, stderrors.Is(err, cause))
}

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	err := NewNoEntitiesFound("fewer than two characters survived")
	var wrapped error = err
	assert.True(t, Is(wrapped, KindNoEntitiesFound))
	assert.False(t, Is(wrapped, KindCancelled))
}

func TestIsReturnsFalseForNonAppError(t *testing.T) {
	assert.False(t, Is(stderrors.New("plain error"), KindInvalidInput))
}

func TestNewCancelledHasNoStageOrCause(t *testing.T) {
	err := NewCancelled("analysis was cancelled")
	assert.Empty(t, err.Stage)
	assert.Nil(t, err.Err)
	assert.Equal(t, "cancelled: analysis was cancelled", err.Error())
}
