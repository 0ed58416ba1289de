// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import "github.com/DataDog/capture-agent/pkg/proto/capturepb"

// Listener receives the processed events of a capture. Calls come from a
// single goroutine, in the order the events were received. Values passed to
// the listener are not touched by the processor afterwards.
type Listener interface {
	OnCaptureStarted(started *capturepb.CaptureStarted)
	OnCaptureFinished(finished *capturepb.CaptureFinished)
	OnTimer(timer Timer)
	OnKeyAndString(key uint64, s string)
	OnUniqueCallstack(hash uint64, callstack CallstackInfo)
	OnCallstackEvent(event CallstackEvent)
	OnThreadName(tid uint32, name string)
	OnThreadStateSlice(slice ThreadStateSliceInfo)
	OnAddressInfo(info AddressInfo)
	OnUniqueTracepointInfo(key uint64, info TracepointInfo)
	OnTracepointEvent(event TracepointEventInfo)
	OnModuleUpdate(timestampNs uint64, module *capturepb.ModuleInfo)
	OnModulesSnapshot(timestampNs uint64, modules []*capturepb.ModuleInfo)
	OnSystemMemoryInfo(info SystemMemoryInfo)
	OnCgroupAndProcessMemoryInfo(info CgroupAndProcessMemoryInfo)
	OnPageFaultsInfo(info PageFaultsInfo)
	OnApiStringEvent(event ApiStringEvent)
	OnApiTrackValue(value ApiTrackValue)
	OnWarningEvent(event *capturepb.WarningEvent)
	OnClockResolutionEvent(event *capturepb.ClockResolutionEvent)
	OnErrorsWithPerfEventOpenEvent(event *capturepb.ErrorsWithPerfEventOpenEvent)
	OnWarningInstrumentingWithUprobesEvent(event *capturepb.WarningInstrumentingWithUprobesEvent)
	OnErrorEnablingApiEvent(event *capturepb.ErrorEnablingApiEvent)
	OnLostPerfRecords(event *capturepb.LostPerfRecordsEvent)
	OnOutOfOrderEventsDiscarded(event *capturepb.OutOfOrderEventsDiscardedEvent)
}

// NopListener ignores everything. Embed it to implement only some callbacks.
type NopListener struct{}

var _ Listener = NopListener{}

func (NopListener) OnCaptureStarted(*capturepb.CaptureStarted)                                             {}
func (NopListener) OnCaptureFinished(*capturepb.CaptureFinished)                                           {}
func (NopListener) OnTimer(Timer)                                                                          {}
func (NopListener) OnKeyAndString(uint64, string)                                                          {}
func (NopListener) OnUniqueCallstack(uint64, CallstackInfo)                                                {}
func (NopListener) OnCallstackEvent(CallstackEvent)                                                        {}
func (NopListener) OnThreadName(uint32, string)                                                            {}
func (NopListener) OnThreadStateSlice(ThreadStateSliceInfo)                                                {}
func (NopListener) OnAddressInfo(AddressInfo)                                                              {}
func (NopListener) OnUniqueTracepointInfo(uint64, TracepointInfo)                                          {}
func (NopListener) OnTracepointEvent(TracepointEventInfo)                                                  {}
func (NopListener) OnModuleUpdate(uint64, *capturepb.ModuleInfo)                                           {}
func (NopListener) OnModulesSnapshot(uint64, []*capturepb.ModuleInfo)                                      {}
func (NopListener) OnSystemMemoryInfo(SystemMemoryInfo)                                                    {}
func (NopListener) OnCgroupAndProcessMemoryInfo(CgroupAndProcessMemoryInfo)                                {}
func (NopListener) OnPageFaultsInfo(PageFaultsInfo)                                                        {}
func (NopListener) OnApiStringEvent(ApiStringEvent)                                                        {}
func (NopListener) OnApiTrackValue(ApiTrackValue)                                                          {}
func (NopListener) OnWarningEvent(*capturepb.WarningEvent)                                                 {}
func (NopListener) OnClockResolutionEvent(*capturepb.ClockResolutionEvent)                                 {}
func (NopListener) OnErrorsWithPerfEventOpenEvent(*capturepb.ErrorsWithPerfEventOpenEvent)                 {}
func (NopListener) OnWarningInstrumentingWithUprobesEvent(*capturepb.WarningInstrumentingWithUprobesEvent) {}
func (NopListener) OnErrorEnablingApiEvent(*capturepb.ErrorEnablingApiEvent)                               {}
func (NopListener) OnLostPerfRecords(*capturepb.LostPerfRecordsEvent)                                      {}
func (NopListener) OnOutOfOrderEventsDiscarded(*capturepb.OutOfOrderEventsDiscardedEvent)                  {}
