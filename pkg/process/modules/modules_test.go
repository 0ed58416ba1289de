// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressConversions(t *testing.T) {
	const (
		base          = 0x7f0000001000
		loadBias      = 0x400000
		segmentOffset = 0x1000
		virtual       = 0x401234
	)
	absolute := SymbolVirtualAddressToAbsoluteAddress(virtual, base, loadBias, segmentOffset)
	assert.Equal(t, uint64(0x7f0000001234), absolute)
	assert.Equal(t, uint64(virtual-loadBias), SymbolAbsoluteAddressToOffset(absolute, base, segmentOffset))
}

func TestSnapshotFindModule(t *testing.T) {
	snapshot := NewSnapshot(42, []ModuleInfo{
		{FilePath: "/lib/b.so", AddressStart: 0x5000, AddressEnd: 0x6000},
		{FilePath: "/bin/a", AddressStart: 0x1000, AddressEnd: 0x2000},
		{FilePath: "/lib/c.so", AddressStart: 0x2000, AddressEnd: 0x3000},
	})
	assert.Equal(t, "/bin/a", snapshot.Modules[0].FilePath)

	for address, want := range map[uint64]string{
		0x1000: "/bin/a",
		0x1fff: "/bin/a",
		0x2000: "/lib/c.so",
		0x5800: "/lib/b.so",
	} {
		module, ok := snapshot.FindModuleByAddress(address)
		require.True(t, ok, "%#x", address)
		assert.Equal(t, want, module.FilePath)
	}
	for _, address := range []uint64{0, 0x3000, 0x4fff, 0x6000} {
		_, ok := snapshot.FindModuleByAddress(address)
		assert.False(t, ok, "%#x", address)
	}

	module, ok := snapshot.FindModuleByPath("/lib/c.so")
	require.True(t, ok)
	assert.Equal(t, uint64(0x2000), module.AddressStart)
	_, ok = snapshot.FindModuleByPath("/lib/missing.so")
	assert.False(t, ok)
}

func TestModuleProtoConversion(t *testing.T) {
	module := ModuleInfo{
		Name:                    "libc.so.6",
		FilePath:                "/usr/lib/libc.so.6",
		FileSize:                2 << 20,
		AddressStart:            0x1000,
		AddressEnd:              0x2000,
		BuildID:                 "abcd",
		LoadBias:                0x400000,
		ExecutableSegmentOffset: 0x1000,
		Soname:                  "libc.so.6",
	}
	assert.Equal(t, module, FromProto(module.ToProto()))

	snapshot := NewSnapshot(1, []ModuleInfo{module})
	require.Len(t, snapshot.ToProto(), 1)
	assert.Equal(t, "abcd", snapshot.ToProto()[0].BuildID)
}
