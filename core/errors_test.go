package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransient(t *testing.T) {
	base := errors.New("connection reset")

	err := Transient(base)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, base)

	assert.Nil(t, Transient(nil))
}

func TestIsTransientThroughWrapping(t *testing.T) {
	err := fmt.Errorf("search failed: %w", Transient(errors.New("503")))
	assert.True(t, IsTransient(err))

	assert.False(t, IsTransient(errors.New("bad request")))
	assert.False(t, IsTransient(nil))
}

func TestNewAdapterError(t *testing.T) {
	transient := NewAdapterError("arxiv", Transient(errors.New("timeout")))
	assert.Equal(t, "arxiv", transient.Adapter)
	assert.False(t, transient.Permanent)

	permanent := NewAdapterError("arxiv", errors.New("invalid query"))
	assert.True(t, permanent.Permanent)
	assert.Equal(t, "arxiv: invalid query", permanent.Error())
}
