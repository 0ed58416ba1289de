// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package capturepb

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestInternedStringEncoding(t *testing.T) {
	event := &ClientCaptureEvent{Event: &InternedString{Key: 42, Intern: "A"}}
	b, err := event.Marshal()
	require.NoError(t, err)

	// field 6, length 5: {field 1 varint 42, field 2 "A"}
	assert.Equal(t, []byte{0x32, 0x05, 0x08, 0x2a, 0x12, 0x01, 'A'}, b)
}

func TestEventRoundTrip(t *testing.T) {
	events := []*ClientCaptureEvent{
		{Event: &SchedulingSlice{Pid: 42, Tid: 24, Core: 2, InTimestampNs: 3, OutTimestampNs: 100}},
		{Event: &CallstackSample{Pid: 1, Tid: 3, TimestampNs: 100, Callstack: &Callstack{Pcs: []uint64{14, 15}}}},
		{Event: &FunctionCall{Pid: 1, Tid: 2, FunctionID: 7, BeginTimestampNs: 10, EndTimestampNs: 20, Depth: 1, ReturnValue: 99, Registers: []uint64{1, 2, 3}}},
		{Event: &GpuJob{Pid: 1, Tid: 2, Timeline: "gfx", AmdgpuCsIoctlTimeNs: 1, AmdgpuSchedRunJobTimeNs: 2, GpuHardwareStartTimeNs: 3, DmaFenceSignaledTimeNs: 4}},
		{Event: &ThreadStateSlice{Pid: 1, Tid: 2, BeginTimestampNs: 5, EndTimestampNs: 6, ThreadState: ThreadStateZombie}},
		{Event: &ModulesSnapshot{Pid: 5, TimestampNs: 6, Modules: []*ModuleInfo{{Name: "libc.so.6", AddressStart: 0x1000, AddressEnd: 0x2000}}}},
		{Event: &CaptureStarted{ProcessID: 5, CaptureOptions: &CaptureOptions{
			Pid:              5,
			SamplesPerSecond: 1000,
			UnwindingMethod:  UnwindingDwarf,
			InstrumentedFunctions: []*InstrumentedFunction{
				{FunctionID: 3, FunctionName: "main", RecordReturnValue: true},
			},
		}}},
		{Event: &CaptureFinished{Status: CaptureFinishedFailed, ErrorMessage: "some error"}},
		{Event: &CaptureFinished{}},
		{Event: &GpuQueueSubmission{
			MetaInfo:        &GpuQueueSubmissionMetaInfo{Tid: 2, Pid: 1, PreSubmissionCpuTimestamp: 10, PostSubmissionCpuTimestamp: 20},
			SubmitInfos:     []*GpuSubmitInfo{{CommandBuffers: []*GpuCommandBuffer{{BeginGpuTimestampNs: 100, EndGpuTimestampNs: 150}, {EndGpuTimestampNs: 180}}}},
			NumBeginMarkers: 1,
			CompletedMarkers: []*GpuDebugMarker{{
				TextKey:           7,
				Color:             &Color{Red: 1, Alpha: 0.5},
				Depth:             2,
				BeginMarker:       &GpuDebugMarkerBeginInfo{MetaInfo: &GpuQueueSubmissionMetaInfo{Tid: 2}, GpuTimestampNs: 110},
				EndGpuTimestampNs: 170,
			}},
		}},
		{Event: &ApiScopeStartAsync{Pid: 1, Tid: 2, TimestampNs: 3, Name: "load", ID: 9, AddressInFunction: 0x40, ColorRGBA: 0xff0000ff}},
		{Event: &ApiScopeStopAsync{Pid: 1, Tid: 4, TimestampNs: 5, ID: 9}},
		{Event: &ApiStringEvent{Pid: 1, Tid: 2, TimestampNs: 4, ID: 9, Name: "level 3"}},
		{Event: &ApiTrackInt{ApiTrack: ApiTrack{Pid: 1, Name: "int"}, Data: -3}},
		{Event: &ApiTrackInt64{ApiTrack: ApiTrack{Pid: 1, Name: "int64"}, Data: -1 << 40}},
		{Event: &ApiTrackUint{ApiTrack: ApiTrack{Pid: 1, Name: "uint"}, Data: 1 << 31}},
		{Event: &ApiTrackUint64{ApiTrack: ApiTrack{Pid: 1, Name: "uint64"}, Data: 1 << 63}},
		{Event: &ApiTrackFloat{ApiTrack: ApiTrack{Pid: 1, Name: "float"}, Data: 0.25}},
		{Event: &ApiTrackDouble{ApiTrack: ApiTrack{Pid: 1, Tid: 2, TimestampNs: 3, Name: "double"}, Data: -2.5}},
		{Event: &MemoryUsageEvent{
			TimestampNs:        8,
			SystemMemoryUsage:  &SystemMemoryUsage{TotalKb: 100, FreeKb: 50, Pgfault: 7, Pgmajfault: 1},
			CgroupMemoryUsage:  &CgroupMemoryUsage{CgroupName: "capture", LimitBytes: 1 << 30, RssBytes: 4096},
			ProcessMemoryUsage: &ProcessMemoryUsage{Pid: 5, RssAnonKb: 12, Minflt: 3, Majflt: 2},
		}},
		{Event: &ErrorsWithPerfEventOpenEvent{TimestampNs: 1, FailedToOpen: []string{"sampling", "uprobes"}}},
		{Event: &WarningInstrumentingWithUprobesEvent{TimestampNs: 2, FunctionsThatFailedToInstrument: []*FunctionThatFailedToBeInstrumented{
			{FunctionID: 3, ErrorMessage: "no symbol"},
		}}},
		{Event: &ErrorEnablingApiEvent{TimestampNs: 3, Message: "api not linked"}},
	}

	for _, event := range events {
		t.Run(event.Kind().String(), func(t *testing.T) {
			b, err := event.Marshal()
			require.NoError(t, err)

			decoded := &ClientCaptureEvent{}
			require.NoError(t, decoded.Unmarshal(b))
			if diff := cmp.Diff(event, decoded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnknownPayloadDecodesToNilEvent(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 999, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{0x08, 0x01})

	event := &ClientCaptureEvent{}
	require.NoError(t, event.Unmarshal(b))
	assert.Nil(t, event.Event)
	assert.Equal(t, KindUnknown, event.Kind())
}

func TestUnpackedRepeatedField(t *testing.T) {
	var inner []byte
	inner = protowire.AppendTag(inner, 1, protowire.VarintType)
	inner = protowire.AppendVarint(inner, 14)
	inner = protowire.AppendTag(inner, 1, protowire.VarintType)
	inner = protowire.AppendVarint(inner, 15)

	callstack := &Callstack{}
	require.NoError(t, unmarshalMessage(inner, callstack))
	assert.Equal(t, []uint64{14, 15}, callstack.Pcs)
}

func TestFraming(t *testing.T) {
	var stream []byte
	stream = AppendFramed(stream, []byte("first"))
	stream = AppendFramed(stream, nil)
	stream = AppendFramed(stream, []byte("second"))

	payload, n, err := ConsumeFramed(stream)
	require.NoError(t, err)
	assert.Equal(t, "first", string(payload))
	stream = stream[n:]

	payload, n, err = ConsumeFramed(stream)
	require.NoError(t, err)
	assert.Empty(t, payload)
	stream = stream[n:]

	_, _, err = ConsumeFramed(stream[:3])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestResponseCodec(t *testing.T) {
	response := &CaptureResponse{CaptureEvents: []*ClientCaptureEvent{
		{Event: &InternedString{Key: 1, Intern: "sw queue"}},
		{Event: &ThreadName{Pid: 1, Tid: 1, Name: "main"}},
	}}

	c := codec{}
	b, err := c.Marshal(response)
	require.NoError(t, err)

	decoded := &CaptureResponse{}
	require.NoError(t, c.Unmarshal(b, decoded))
	assert.Empty(t, cmp.Diff(response, decoded))

	_, err = c.Marshal("not a message")
	assert.Error(t, err)
}

func TestMaxFunctionID(t *testing.T) {
	var options *CaptureOptions
	assert.Zero(t, options.MaxFunctionID())

	options = &CaptureOptions{InstrumentedFunctions: []*InstrumentedFunction{{FunctionID: 4}, {FunctionID: 9}, {FunctionID: 2}}}
	assert.Equal(t, uint64(9), options.MaxFunctionID())
}
