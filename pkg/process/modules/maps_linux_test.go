// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build linux

package modules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaps = `55d6b0a00000-55d6b0a02000 r--p 00000000 fd:01 1311 /usr/bin/target
55d6b0a02000-55d6b0a08000 r-xp 00002000 fd:01 1311 /usr/bin/target
55d6b0a08000-55d6b0a09000 r-xp 00008000 fd:01 1311 /usr/bin/target
55d6b0a09000-55d6b0a0b000 rw-p 00009000 fd:01 1311 /usr/bin/target
55d6b1f2e000-55d6b1f4f000 rw-p 00000000 00:00 0 [heap]
7f1a2c000000-7f1a2c021000 rwxp 00000000 00:00 0
7f1a2e000000-7f1a2e028000 r--p 00000000 fd:01 2048 /usr/lib/libc.so.6
7f1a2e028000-7f1a2e1bd000 r-xp 00028000 fd:01 2048 /usr/lib/libc.so.6
7f1a2e1bd000-7f1a2e215000 r--p 001bd000 fd:01 2048 /usr/lib/libc.so.6
7f1a2f000000-7f1a2f001000 r-xs 00000000 00:05 77 /dev/dri/card0
7f1a2f100000-7f1a2f101000 r-xp 00000000 fd:01 4096 /opt/with space/lib.so
7ffc1b6d3000-7ffc1b6d5000 r-xp 00000000 00:00 0 [vdso]
`

func writeProcMaps(t *testing.T, pid string, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, pid), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, pid, "maps"), []byte(content), 0o644))
	return root
}

func TestReadMapsFrom(t *testing.T) {
	root := writeProcMaps(t, "42", testMaps)

	entries, err := ReadMapsFrom(root, 42)
	require.NoError(t, err)
	assert.Equal(t, testMapEntries, entries)
}

func TestReadMapsFromHostProc(t *testing.T) {
	t.Setenv("HOST_PROC", writeProcMaps(t, "42", testMaps))

	entries, err := ReadMaps(42)
	require.NoError(t, err)
	assert.Len(t, entries, len(testMapEntries))
}

func TestReadMapsFromErrors(t *testing.T) {
	root := writeProcMaps(t, "42", "55d6b0a00000-55d6b0a02000 r--p 00000000\n")

	_, err := ReadMapsFrom(root, 42)
	assert.Error(t, err)

	_, err = ReadMapsFrom(root, 43)
	assert.Error(t, err)
}
