package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, ErrorTypeParse, "error reading file")
	require.NotNil(t, err)

	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "parse: error reading file: unexpected EOF", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "ignored"))
}

func TestWrapKeepsInnerStack(t *testing.T) {
	inner := New(ErrorTypeParse, "bad header")
	outer := Wrap(inner, ErrorTypeIO, "error reading file")

	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Equal(t, ErrorTypeIO, TypeOf(outer))
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeEmptyDataset, "The DataFrame is empty")

	assert.True(t, IsType(err, ErrorTypeEmptyDataset))
	assert.False(t, IsType(err, ErrorTypeIO))
	assert.False(t, IsType(io.EOF, ErrorTypeIO))
	assert.Equal(t, ErrorType(""), TypeOf(io.EOF))
}

func TestWithDetail(t *testing.T) {
	err := Newf(ErrorTypeSQL, "query %d failed", 3).
		WithDetail("driver", "pgx").
		WithDetail("rows", 0)

	assert.Equal(t, "query 3 failed", err.Message)
	assert.Equal(t, "pgx", err.Details["driver"])
	assert.Equal(t, 0, err.Details["rows"])
}
