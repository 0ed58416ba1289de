// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package file

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferOutputStreamNextBackUp(t *testing.T) {
	s := NewBufferOutputStream()

	chunk := s.Next()
	require.Len(t, chunk, minChunkSize)
	copy(chunk, "hello")
	s.BackUp(len(chunk) - 5)

	assert.Equal(t, 5, s.Len())
	assert.Equal(t, int64(5), s.ByteCount())
	assert.Equal(t, []byte("hello"), s.TakeBuffer())

	assert.Zero(t, s.Len())
	assert.Empty(t, s.TakeBuffer())
	assert.Equal(t, int64(5), s.ByteCount())
}

func TestBufferOutputStreamGrows(t *testing.T) {
	s := NewBufferOutputStream()
	data := bytes.Repeat([]byte("0123456789"), 1000)

	n, err := s.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, len(data), s.Len())
	assert.Equal(t, data, s.TakeBuffer())
}

func TestBufferOutputStreamTakeBufferStartsFresh(t *testing.T) {
	s := NewBufferOutputStream()

	_, _ = s.Write([]byte("first"))
	taken := s.TakeBuffer()
	_, _ = s.Write([]byte("second"))

	assert.Equal(t, []byte("first"), taken)
	assert.Equal(t, []byte("second"), s.TakeBuffer())
	assert.Equal(t, int64(len("firstsecond")), s.ByteCount())
}

func TestBufferOutputStreamBackUpTooMuch(t *testing.T) {
	s := NewBufferOutputStream()
	chunk := s.Next()
	assert.Panics(t, func() { s.BackUp(len(chunk) + 1) })
}
