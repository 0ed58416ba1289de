// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/murmur3"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

func timersOfType(timers []Timer, timerType TimerType) []Timer {
	var result []Timer
	for _, timer := range timers {
		if timer.Type == timerType {
			result = append(result, timer)
		}
	}
	return result
}

func assertNoPendingSubmissions(t *testing.T, p *Processor) {
	t.Helper()
	assert.Empty(t, p.gpu.jobs)
	assert.Empty(t, p.gpu.submissions)
	assert.Empty(t, p.gpu.beginMarkers)
}

func TestGpuSubmissionAfterJob(t *testing.T) {
	listener := newRecordingListener()
	p := New(listener, Options{})
	p.ProcessEvent(wrap(&capturepb.CaptureStarted{ProcessID: 1, CaptureStartTimestampNs: 5}))

	meta := &capturepb.GpuQueueSubmissionMetaInfo{Tid: 2, Pid: 1, PreSubmissionCpuTimestamp: 10, PostSubmissionCpuTimestamp: 20}
	p.ProcessEvent(wrap(&capturepb.GpuJob{
		Pid:                     1,
		Tid:                     2,
		Depth:                   1,
		Timeline:                "gfx",
		AmdgpuCsIoctlTimeNs:     15,
		AmdgpuSchedRunJobTimeNs: 20,
		GpuHardwareStartTimeNs:  30,
		DmaFenceSignaledTimeNs:  80,
	}))
	p.ProcessEvent(wrap(&capturepb.GpuQueueSubmission{
		MetaInfo: meta,
		SubmitInfos: []*capturepb.GpuSubmitInfo{{CommandBuffers: []*capturepb.GpuCommandBuffer{
			{BeginGpuTimestampNs: 1000, EndGpuTimestampNs: 1020},
			{BeginGpuTimestampNs: 1025, EndGpuTimestampNs: 1040},
		}}},
		NumBeginMarkers: 1,
		CompletedMarkers: []*capturepb.GpuDebugMarker{{
			Text:              "DXVK__vkCmdDraw#42",
			Color:             &capturepb.Color{Red: 1, Alpha: 1},
			BeginMarker:       &capturepb.GpuDebugMarkerBeginInfo{MetaInfo: meta, GpuTimestampNs: 1005},
			EndGpuTimestampNs: 1030,
		}},
	}))

	timelineHash := murmur3.StringSum64("gfx")
	assert.Len(t, timersOfType(listener.timers, TimerGpuActivity), 3)
	assert.Equal(t, []Timer{
		{Start: 30, End: 50, ProcessID: 1, ThreadID: 2, Depth: 1, Processor: NoProcessor, TimelineHash: timelineHash, UserDataKey: murmur3.StringSum64(CommandBufferLabel), Type: TimerGpuCommandBuffer},
		{Start: 55, End: 70, ProcessID: 1, ThreadID: 2, Depth: 1, Processor: NoProcessor, TimelineHash: timelineHash, UserDataKey: murmur3.StringSum64(CommandBufferLabel), Type: TimerGpuCommandBuffer},
	}, timersOfType(listener.timers, TimerGpuCommandBuffer))
	assert.Equal(t, []Timer{{
		Start:        35,
		End:          60,
		ProcessID:    1,
		ThreadID:     2,
		Processor:    NoProcessor,
		TimelineHash: timelineHash,
		UserDataKey:  murmur3.StringSum64("DXVK__vkCmdDraw#42"),
		GroupID:      42,
		Color:        Color{Red: 255, Alpha: 255},
		Type:         TimerGpuDebugMarker,
	}}, timersOfType(listener.timers, TimerGpuDebugMarker))
	assert.Equal(t, CommandBufferLabel, listener.strings[murmur3.StringSum64(CommandBufferLabel)])
	assert.Equal(t, "DXVK__vkCmdDraw#42", listener.strings[murmur3.StringSum64("DXVK__vkCmdDraw#42")])
	assertNoPendingSubmissions(t, p)
}

func TestGpuDebugMarkerAcrossSubmissions(t *testing.T) {
	listener := newRecordingListener()
	p := New(listener, Options{})

	first := &capturepb.GpuQueueSubmissionMetaInfo{Tid: 2, Pid: 1, PreSubmissionCpuTimestamp: 10, PostSubmissionCpuTimestamp: 20}
	second := &capturepb.GpuQueueSubmissionMetaInfo{Tid: 2, Pid: 1, PreSubmissionCpuTimestamp: 40, PostSubmissionCpuTimestamp: 50}

	// submissions first, then their jobs
	p.ProcessEvent(wrap(&capturepb.InternedString{Key: 3, Intern: "frame"}))
	p.ProcessEvent(wrap(&capturepb.GpuQueueSubmission{
		MetaInfo:        first,
		SubmitInfos:     []*capturepb.GpuSubmitInfo{{CommandBuffers: []*capturepb.GpuCommandBuffer{{BeginGpuTimestampNs: 1000, EndGpuTimestampNs: 1010}}}},
		NumBeginMarkers: 1,
	}))
	p.ProcessEvent(wrap(&capturepb.GpuJob{
		Pid: 1, Tid: 2, Timeline: "gfx",
		AmdgpuCsIoctlTimeNs: 15, AmdgpuSchedRunJobTimeNs: 20, GpuHardwareStartTimeNs: 30, DmaFenceSignaledTimeNs: 60,
	}))

	require.Len(t, timersOfType(listener.timers, TimerGpuCommandBuffer), 1)
	assert.Len(t, p.gpu.jobs, 1)
	assert.Len(t, p.gpu.submissions, 1)

	p.ProcessEvent(wrap(&capturepb.GpuQueueSubmission{
		MetaInfo:    second,
		SubmitInfos: []*capturepb.GpuSubmitInfo{{CommandBuffers: []*capturepb.GpuCommandBuffer{{BeginGpuTimestampNs: 2000, EndGpuTimestampNs: 2010}}}},
		CompletedMarkers: []*capturepb.GpuDebugMarker{{
			TextKey:           3,
			Depth:             1,
			BeginMarker:       &capturepb.GpuDebugMarkerBeginInfo{MetaInfo: first, GpuTimestampNs: 1004},
			EndGpuTimestampNs: 2008,
		}},
	}))
	p.ProcessEvent(wrap(&capturepb.GpuJob{
		Pid: 1, Tid: 2, Timeline: "gfx",
		AmdgpuCsIoctlTimeNs: 45, AmdgpuSchedRunJobTimeNs: 50, GpuHardwareStartTimeNs: 100, DmaFenceSignaledTimeNs: 120,
	}))

	buffers := timersOfType(listener.timers, TimerGpuCommandBuffer)
	require.Len(t, buffers, 2)
	assert.Equal(t, uint64(30), buffers[0].Start)
	assert.Equal(t, uint64(40), buffers[0].End)
	assert.Equal(t, uint64(100), buffers[1].Start)
	assert.Equal(t, uint64(110), buffers[1].End)

	markers := timersOfType(listener.timers, TimerGpuDebugMarker)
	require.Len(t, markers, 1)
	assert.Equal(t, uint64(34), markers[0].Start)
	assert.Equal(t, uint64(108), markers[0].End)
	assert.Equal(t, uint32(2), markers[0].ThreadID)
	assert.Equal(t, uint32(1), markers[0].Depth)
	assert.Equal(t, "frame", listener.strings[markers[0].UserDataKey])
	assert.Zero(t, markers[0].GroupID)
	assertNoPendingSubmissions(t, p)
}

func TestGpuDebugMarkerWithoutBegin(t *testing.T) {
	listener := newRecordingListener()
	p := New(listener, Options{})
	p.ProcessEvent(wrap(&capturepb.CaptureStarted{CaptureStartTimestampNs: 5}))

	p.ProcessEvent(wrap(&capturepb.GpuJob{
		Tid: 2, Timeline: "gfx",
		AmdgpuCsIoctlTimeNs: 15, AmdgpuSchedRunJobTimeNs: 20, GpuHardwareStartTimeNs: 30, DmaFenceSignaledTimeNs: 60,
	}))
	p.ProcessEvent(wrap(&capturepb.GpuQueueSubmission{
		MetaInfo:    &capturepb.GpuQueueSubmissionMetaInfo{Tid: 2, PreSubmissionCpuTimestamp: 10, PostSubmissionCpuTimestamp: 20},
		SubmitInfos: []*capturepb.GpuSubmitInfo{{CommandBuffers: []*capturepb.GpuCommandBuffer{{BeginGpuTimestampNs: 1000, EndGpuTimestampNs: 1010}}}},
		CompletedMarkers: []*capturepb.GpuDebugMarker{
			{Text: "opened before capture", EndGpuTimestampNs: 1008},
			{TextKey: 99, EndGpuTimestampNs: 1009},
		},
	}))

	markers := timersOfType(listener.timers, TimerGpuDebugMarker)
	require.Len(t, markers, 1)
	assert.Equal(t, uint64(5), markers[0].Start)
	assert.Equal(t, uint64(38), markers[0].End)
	assert.Equal(t, UnknownThreadID, markers[0].ThreadID)
	assert.Equal(t, uint64(1), p.Stats().UnknownKeys)
	assertNoPendingSubmissions(t, p)
}

func TestGpuSubmissionStartedBeforeCaptureIsDiscarded(t *testing.T) {
	listener := newRecordingListener()
	p := New(listener, Options{})

	p.ProcessEvent(wrap(&capturepb.GpuQueueSubmission{
		MetaInfo:    &capturepb.GpuQueueSubmissionMetaInfo{Tid: 2, PreSubmissionCpuTimestamp: 10, PostSubmissionCpuTimestamp: 20},
		SubmitInfos: []*capturepb.GpuSubmitInfo{{CommandBuffers: []*capturepb.GpuCommandBuffer{{EndGpuTimestampNs: 1010}}}},
	}))
	p.ProcessEvent(wrap(&capturepb.GpuJob{
		Tid: 2, Timeline: "gfx",
		AmdgpuCsIoctlTimeNs: 15, AmdgpuSchedRunJobTimeNs: 20, GpuHardwareStartTimeNs: 30, DmaFenceSignaledTimeNs: 60,
	}))

	assert.Len(t, listener.timers, 3)
	assert.Empty(t, timersOfType(listener.timers, TimerGpuCommandBuffer))
	assertNoPendingSubmissions(t, p)
}

func TestGpuJobOutsideSubmissionWindowIsKept(t *testing.T) {
	listener := newRecordingListener()
	p := New(listener, Options{})

	p.ProcessEvent(wrap(&capturepb.GpuQueueSubmission{
		MetaInfo:    &capturepb.GpuQueueSubmissionMetaInfo{Tid: 2, PreSubmissionCpuTimestamp: 10, PostSubmissionCpuTimestamp: 20},
		SubmitInfos: []*capturepb.GpuSubmitInfo{{CommandBuffers: []*capturepb.GpuCommandBuffer{{BeginGpuTimestampNs: 1000, EndGpuTimestampNs: 1010}}}},
	}))
	p.ProcessEvent(wrap(&capturepb.GpuJob{
		Tid: 3, Timeline: "gfx",
		AmdgpuCsIoctlTimeNs: 15, AmdgpuSchedRunJobTimeNs: 20, GpuHardwareStartTimeNs: 30, DmaFenceSignaledTimeNs: 60,
	}))
	p.ProcessEvent(wrap(&capturepb.GpuJob{
		Tid: 2, Timeline: "gfx",
		AmdgpuCsIoctlTimeNs: 25, AmdgpuSchedRunJobTimeNs: 30, GpuHardwareStartTimeNs: 40, DmaFenceSignaledTimeNs: 60,
	}))

	assert.Empty(t, timersOfType(listener.timers, TimerGpuCommandBuffer))
	assert.Len(t, p.gpu.jobs, 2)
	assert.Len(t, p.gpu.submissions, 1)
}

func TestGroupIDFromDebugLabel(t *testing.T) {
	for label, expected := range map[string]uint64{
		"DXVK__vkCmdDraw#42":  42,
		"DXVK__vkCmdDraw#":    0,
		"DXVK__vkCmdDraw":     0,
		"vkCmdDraw#42":        0,
		"DXVK__vkCmdDraw#4x2": 0,
	} {
		groupID, ok := groupIDFromDebugLabel(label)
		assert.Equal(t, expected != 0, ok, label)
		assert.Equal(t, expected, groupID, label)
	}
}
