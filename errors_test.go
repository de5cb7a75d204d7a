package pond

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrVersionNotFound, "version %s missing", "v3")
	assert.Equal(t, "[VERSION_NOT_FOUND] version v3 missing", err.Error())

	cause := fmt.Errorf("connection refused")
	err = NewError(ErrDatastoreUnavailable, "read failed").WithCause(cause)
	assert.Equal(t, "[DATASTORE_UNAVAILABLE] read failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	err := NewError(ErrArtifactNotFound, "nothing here")
	assert.Equal(t, ErrArtifactNotFound, CodeOf(err))
	assert.True(t, IsCode(err, ErrArtifactNotFound))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, ErrArtifactNotFound, CodeOf(wrapped))

	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.False(t, IsCode(nil, ErrArtifactNotFound))
}
