// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package modules

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func note(name string, noteType uint32, desc []byte) []byte {
	pad := func(b []byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, 0)
		}
		return b
	}
	var b []byte
	b = binary.LittleEndian.AppendUint32(b, uint32(len(name)))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(desc)))
	b = binary.LittleEndian.AppendUint32(b, noteType)
	b = append(b, pad([]byte(name))...)
	return append(b, pad(desc)...)
}

func TestParseGnuBuildID(t *testing.T) {
	notes := append(note("Go\x00", 4, []byte("go build id")), note("GNU\x00", ntGnuBuildID, []byte{0xde, 0xad, 0xbe, 0xef, 0x01})...)
	id, ok := parseGnuBuildID(notes, binary.LittleEndian)
	require.True(t, ok)
	assert.Equal(t, "deadbeef01", id)

	_, ok = parseGnuBuildID(note("GNU\x00", 1, []byte{1}), binary.LittleEndian)
	assert.False(t, ok)

	_, ok = parseGnuBuildID(notes[:20], binary.LittleEndian)
	assert.False(t, ok)
}

func TestReadObjectFileRejectsNonElf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-elf")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an object file"), 0o644))

	_, err := ReadObjectFile(path)
	assert.Error(t, err)

	cache, err := NewObjectFileCache(0)
	require.NoError(t, err)
	_, err = cache.Get(path)
	assert.Error(t, err)
	assert.Zero(t, cache.Len())

	_, err = cache.Get(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
