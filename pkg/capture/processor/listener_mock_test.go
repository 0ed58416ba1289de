// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import (
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

// mockListener fails the test on any callback it was not told to expect.
type mockListener struct {
	mock.Mock
}

func newMockListener(t *testing.T) *mockListener {
	l := &mockListener{}
	l.Test(t)
	t.Cleanup(func() { l.AssertExpectations(t) })
	return l
}

func (l *mockListener) OnCaptureStarted(started *capturepb.CaptureStarted) {
	l.Called(started)
}

func (l *mockListener) OnCaptureFinished(finished *capturepb.CaptureFinished) {
	l.Called(finished)
}

func (l *mockListener) OnTimer(timer Timer) {
	l.Called(timer)
}

func (l *mockListener) OnKeyAndString(key uint64, s string) {
	l.Called(key, s)
}

func (l *mockListener) OnUniqueCallstack(hash uint64, callstack CallstackInfo) {
	l.Called(hash, callstack)
}

func (l *mockListener) OnCallstackEvent(event CallstackEvent) {
	l.Called(event)
}

func (l *mockListener) OnThreadName(tid uint32, name string) {
	l.Called(tid, name)
}

func (l *mockListener) OnThreadStateSlice(slice ThreadStateSliceInfo) {
	l.Called(slice)
}

func (l *mockListener) OnAddressInfo(info AddressInfo) {
	l.Called(info)
}

func (l *mockListener) OnUniqueTracepointInfo(key uint64, info TracepointInfo) {
	l.Called(key, info)
}

func (l *mockListener) OnTracepointEvent(event TracepointEventInfo) {
	l.Called(event)
}

func (l *mockListener) OnModuleUpdate(timestampNs uint64, module *capturepb.ModuleInfo) {
	l.Called(timestampNs, module)
}

func (l *mockListener) OnModulesSnapshot(timestampNs uint64, modules []*capturepb.ModuleInfo) {
	l.Called(timestampNs, modules)
}

func (l *mockListener) OnSystemMemoryInfo(info SystemMemoryInfo) {
	l.Called(info)
}

func (l *mockListener) OnCgroupAndProcessMemoryInfo(info CgroupAndProcessMemoryInfo) {
	l.Called(info)
}

func (l *mockListener) OnPageFaultsInfo(info PageFaultsInfo) {
	l.Called(info)
}

func (l *mockListener) OnApiStringEvent(event ApiStringEvent) {
	l.Called(event)
}

func (l *mockListener) OnApiTrackValue(value ApiTrackValue) {
	l.Called(value)
}

func (l *mockListener) OnWarningEvent(event *capturepb.WarningEvent) {
	l.Called(event)
}

func (l *mockListener) OnErrorsWithPerfEventOpenEvent(event *capturepb.ErrorsWithPerfEventOpenEvent) {
	l.Called(event)
}

func (l *mockListener) OnWarningInstrumentingWithUprobesEvent(event *capturepb.WarningInstrumentingWithUprobesEvent) {
	l.Called(event)
}

func (l *mockListener) OnErrorEnablingApiEvent(event *capturepb.ErrorEnablingApiEvent) {
	l.Called(event)
}

func (l *mockListener) OnClockResolutionEvent(event *capturepb.ClockResolutionEvent) {
	l.Called(event)
}

func (l *mockListener) OnLostPerfRecords(event *capturepb.LostPerfRecordsEvent) {
	l.Called(event)
}

func (l *mockListener) OnOutOfOrderEventsDiscarded(event *capturepb.OutOfOrderEventsDiscardedEvent) {
	l.Called(event)
}

// recordingListener keeps the timers and strings it receives, in order.
type recordingListener struct {
	NopListener
	timers  []Timer
	strings map[uint64]string
	order   []string
}

func newRecordingListener() *recordingListener {
	return &recordingListener{strings: make(map[uint64]string)}
}

func (l *recordingListener) OnTimer(timer Timer) {
	l.timers = append(l.timers, timer)
	l.order = append(l.order, "timer")
}

func (l *recordingListener) OnKeyAndString(key uint64, s string) {
	l.strings[key] = s
	l.order = append(l.order, "string:"+s)
}
