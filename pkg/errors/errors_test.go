package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := WithCode(ErrorTypeDownload, 429, "archive request rejected")
	assert.Equal(t, "download error (code 429): archive request rejected", err.Error())

	wrapped := Wrap(ErrorTypeIO, "failed to write archive", io.ErrShortWrite)
	assert.Equal(t, "io error: failed to write archive: short write", wrapped.Error())
	assert.ErrorIs(t, wrapped, io.ErrShortWrite)
}

func TestSentinelMatching(t *testing.T) {
	sentinel := New(ErrorTypeProtocol, "scrape exhausted")
	err := fmt.Errorf("page 3: %w", sentinel)

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, New(ErrorTypeProtocol, "cursor stalled")))
	assert.False(t, errors.Is(err, New(ErrorTypeAuth, "scrape exhausted")))
}

func TestIsType(t *testing.T) {
	inner := WithCode(ErrorTypeNetwork, 0, "connection reset")
	outer := Wrap(ErrorTypeProtocol, "search failed", inner)

	assert.True(t, IsType(outer, ErrorTypeProtocol))
	assert.True(t, IsType(outer, ErrorTypeNetwork))
	assert.False(t, IsType(outer, ErrorTypeAuth))
	assert.False(t, IsType(io.EOF, ErrorTypeIO))
	assert.Equal(t, ErrorTypeProtocol, TypeOf(fmt.Errorf("ctx: %w", outer)))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(io.EOF))
}
