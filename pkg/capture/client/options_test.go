// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package client

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/capture-agent/pkg/process/modules"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

func TestToCaptureOptions(t *testing.T) {
	snapshot := modules.NewSnapshot(42, []modules.ModuleInfo{{
		FilePath:                "/usr/bin/game",
		AddressStart:            0x7f0000001000,
		AddressEnd:              0x7f0000100000,
		LoadBias:                0x400000,
		ExecutableSegmentOffset: 0x1000,
	}})
	options := Options{
		Pid:                   42,
		SamplesPerSecond:      500,
		UnwindingMethod:       capturepb.UnwindingFramePointers,
		CollectSchedulingInfo: true,
		CollectGpuJobs:        true,
		MemorySamplingPeriod:  10 * time.Millisecond,
		RecordReturnValues:    true,
		Functions: []modules.Function{
			{Name: "render", ModulePath: "/usr/bin/game", BuildID: "ab", VirtualAddress: 0x401200, Size: 64},
			{Name: "update", ModulePath: "/usr/bin/game", BuildID: "ab", VirtualAddress: 0x402000, Size: 32},
		},
		ApiFunctions: []ApiFunction{{
			Function:   modules.Function{Name: "capture_api_get_function_table_address_v2", ModulePath: "/usr/bin/game", VirtualAddress: 0x403000},
			APIVersion: 2,
		}},
		Modules: snapshot,
	}

	got, err := options.ToCaptureOptions()
	require.NoError(t, err)

	want := &capturepb.CaptureOptions{
		Pid:                          42,
		SamplesPerSecond:             500,
		UnwindingMethod:              capturepb.UnwindingFramePointers,
		TraceContextSwitches:         true,
		TraceGpuDriver:               true,
		MemorySamplingPeriodNs:       10_000_000,
		DynamicInstrumentationMethod: capturepb.InstrumentationKernelUprobes,
		InstrumentedFunctions: []*capturepb.InstrumentedFunction{
			{FilePath: "/usr/bin/game", FileOffset: 0x1200, FileBuildID: "ab", FunctionID: 1, FunctionVirtualAddress: 0x401200, FunctionSize: 64, FunctionName: "render", RecordReturnValue: true},
			{FilePath: "/usr/bin/game", FileOffset: 0x2000, FileBuildID: "ab", FunctionID: 2, FunctionVirtualAddress: 0x402000, FunctionSize: 32, FunctionName: "update", RecordReturnValue: true},
		},
		ApiFunctions: []*capturepb.ApiFunction{{
			ModulePath:      "/usr/bin/game",
			RelativeAddress: 0x403000,
			AbsoluteAddress: 0x7f0000003000,
			Name:            "capture_api_get_function_table_address_v2",
			APIVersion:      2,
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("capture options mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(2), got.MaxFunctionID())
}

func TestToCaptureOptionsUnknownModule(t *testing.T) {
	options := Options{
		Pid:             42,
		UnwindingMethod: capturepb.UnwindingDwarf,
		Functions:       []modules.Function{{Name: "render", ModulePath: "/usr/bin/game"}},
	}
	_, err := options.ToCaptureOptions()
	assert.ErrorContains(t, err, "render")

	options.Modules = modules.NewSnapshot(42, nil)
	_, err = options.ToCaptureOptions()
	assert.ErrorContains(t, err, "not loaded by process 42")
}
