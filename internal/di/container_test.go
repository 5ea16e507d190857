package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterThenGetReturnsSameInstance(t *testing.T) {
	c := NewContainer()
	c.Register("answer", 42)
	assert.Equal(t, 42, c.Get("answer"))
}

func TestGetMissingServiceReturnsNil(t *testing.T) {
	c := NewContainer()
	assert.Nil(t, c.Get("missing"))
}

func TestGetTypedFallsBackToDefaultWhenMissing(t *testing.T) {
	c := NewContainer()
	assert.Equal(t, "fallback", c.GetTyped("missing", "fallback"))

	c.Register("present", "value")
	assert.Equal(t, "value", c.GetTyped("present", "fallback"))
}

func TestHasReflectsRegistrationAndRemoval(t *testing.T) {
	c := NewContainer()
	assert.False(t, c.Has("svc"))

	c.Register("svc", struct{}{})
	assert.True(t, c.Has("svc"))

	c.Remove("svc")
	assert.False(t, c.Has("svc"))
}

func TestClearRemovesEveryService(t *testing.T) {
	c := NewContainer()
	c.Register("a", 1)
	c.Register("b", 2)

	c.Clear()
	assert.Empty(t, c.GetNames())
}

func TestGetNamesListsEveryRegisteredService(t *testing.T) {
	c := NewContainer()
	c.Register("a", 1)
	c.Register("b", 2)

	assert.ElementsMatch(t, []string{"a", "b"}, c.GetNames())
}

func TestGetContainerReturnsSingleton(t *testing.T) {
	assert.Same(t, GetContainer(), GetContainer())
}
