// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package processor turns the raw events of a capture into the records a
// Listener consumes: interned strings, callstacks and tracepoints are
// resolved, GPU jobs are expanded into timers and scheduling slices, function
// calls and scopes become timers.
package processor

import (
	"encoding/binary"
	"time"

	"github.com/twmb/murmur3"
	"go.uber.org/atomic"

	"github.com/DataDog/capture-agent/pkg/capture/eventid"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

// EventProcessor consumes the events of one capture, in order, on a single
// goroutine.
type EventProcessor interface {
	ProcessEvent(event *capturepb.ClientCaptureEvent)
}

// DefaultTimestampSlack is the regression tolerated between consecutive
// event timestamps before it is reported.
const DefaultTimestampSlack = uint64(time.Millisecond)

// Options configures a Processor.
type Options struct {
	// TimestampSlack is how far, in nanoseconds, a timestamp may go back
	// before it is counted as a regression.
	TimestampSlack uint64
	// ScopeEquivalence decides which manual instrumentation scopes share a
	// function id.
	ScopeEquivalence eventid.Equivalence
}

// Stats counts what the processor dropped or repaired.
type Stats struct {
	EventsProcessed      uint64
	UnknownEvents        uint64
	UnknownKeys          uint64
	TimestampRegressions uint64
	EventsAfterFinish    uint64
	DegradedGpuJobs      uint64
	DegradedTimers       uint64
	UnmatchedScopeStops  uint64
}

type stats struct {
	eventsProcessed      atomic.Uint64
	unknownEvents        atomic.Uint64
	unknownKeys          atomic.Uint64
	timestampRegressions atomic.Uint64
	eventsAfterFinish    atomic.Uint64
	degradedGpuJobs      atomic.Uint64
	degradedTimers       atomic.Uint64
	unmatchedScopeStops  atomic.Uint64
}

type internedCallstack struct {
	hash uint64
	info CallstackInfo
}

// Processor is the EventProcessor feeding a Listener. It is not safe for
// concurrent use, except for Stats.
type Processor struct {
	listener Listener
	options  Options

	strings         map[uint64]string
	callstacks      map[uint64]internedCallstack
	seenCallstacks  map[uint64]struct{}
	tracepoints     map[uint64]TracepointInfo
	seenTracepoints map[uint64]struct{}
	announced       map[uint64]struct{}

	scopes         *scopeStacks
	asyncScopes    map[uint64]*capturepb.ApiScopeStartAsync
	gpu            *gpuSubmissions
	ids            *eventid.Provider
	captureStartNs uint64
	lastTimestamp  uint64
	finished       bool

	stats stats
}

var _ EventProcessor = (*Processor)(nil)

// New returns a processor forwarding to listener.
func New(listener Listener, options Options) *Processor {
	return &Processor{
		listener:        listener,
		options:         options,
		strings:         make(map[uint64]string),
		callstacks:      make(map[uint64]internedCallstack),
		seenCallstacks:  make(map[uint64]struct{}),
		tracepoints:     make(map[uint64]TracepointInfo),
		seenTracepoints: make(map[uint64]struct{}),
		announced:       make(map[uint64]struct{}),
		scopes:          newScopeStacks(),
		asyncScopes:     make(map[uint64]*capturepb.ApiScopeStartAsync),
		gpu:             newGpuSubmissions(),
		ids:             eventid.NewProvider(1, options.ScopeEquivalence),
	}
}

// Stats returns a snapshot of the counters.
func (p *Processor) Stats() Stats {
	return Stats{
		EventsProcessed:      p.stats.eventsProcessed.Load(),
		UnknownEvents:        p.stats.unknownEvents.Load(),
		UnknownKeys:          p.stats.unknownKeys.Load(),
		TimestampRegressions: p.stats.timestampRegressions.Load(),
		EventsAfterFinish:    p.stats.eventsAfterFinish.Load(),
		DegradedGpuJobs:      p.stats.degradedGpuJobs.Load(),
		DegradedTimers:       p.stats.degradedTimers.Load(),
		UnmatchedScopeStops:  p.stats.unmatchedScopeStops.Load(),
	}
}

// ProcessEvent dispatches event to the matching handler.
func (p *Processor) ProcessEvent(event *capturepb.ClientCaptureEvent) {
	if p.finished {
		p.stats.eventsAfterFinish.Inc()
		log.Warnf("Dropping %s event received after the end of the capture", event.Kind())
		return
	}
	p.stats.eventsProcessed.Inc()

	switch e := event.Event.(type) {
	case *capturepb.CaptureStarted:
		p.processCaptureStarted(e)
	case *capturepb.CaptureFinished:
		p.finished = true
		p.listener.OnCaptureFinished(e)
	case *capturepb.InternedString:
		p.processInternedString(e)
	case *capturepb.InternedCallstack:
		p.processInternedCallstack(e)
	case *capturepb.InternedTracepointInfo:
		p.processInternedTracepointInfo(e)
	case *capturepb.SchedulingSlice:
		p.checkTimestamp(event.Kind(), e.OutTimestampNs)
		p.processSchedulingSlice(e)
	case *capturepb.CallstackSample:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.processCallstackSample(e)
	case *capturepb.FunctionCall:
		p.checkTimestamp(event.Kind(), e.EndTimestampNs)
		p.processFunctionCall(e)
	case *capturepb.IntrospectionScope:
		p.checkTimestamp(event.Kind(), e.EndTimestampNs)
		p.processIntrospectionScope(e)
	case *capturepb.GpuJob:
		p.checkTimestamp(event.Kind(), e.DmaFenceSignaledTimeNs)
		p.processGpuJob(e)
	case *capturepb.ThreadName:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.listener.OnThreadName(e.Tid, e.Name)
	case *capturepb.ThreadNamesSnapshot:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		for _, name := range e.ThreadNames {
			p.listener.OnThreadName(name.Tid, name.Name)
		}
	case *capturepb.ThreadStateSlice:
		p.checkTimestamp(event.Kind(), e.EndTimestampNs)
		p.processThreadStateSlice(e)
	case *capturepb.AddressInfo:
		p.processAddressInfo(e)
	case *capturepb.TracepointEvent:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.processTracepointEvent(e)
	case *capturepb.ModuleUpdateEvent:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.listener.OnModuleUpdate(e.TimestampNs, e.Module)
	case *capturepb.ModulesSnapshot:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.listener.OnModulesSnapshot(e.TimestampNs, e.Modules)
	case *capturepb.SystemMemoryUsage:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.processSystemMemoryUsage(e.TimestampNs, e)
	case *capturepb.MemoryUsageEvent:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.processMemoryUsageEvent(e)
	case *capturepb.GpuQueueSubmission:
		p.checkTimestamp(event.Kind(), e.Meta().PostSubmissionCpuTimestamp)
		p.processGpuQueueSubmission(e)
	case *capturepb.ApiScopeStart:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.scopes.push(e)
	case *capturepb.ApiScopeStop:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.processApiScopeStop(e)
	case *capturepb.ApiScopeStartAsync:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.asyncScopes[e.ID] = e
	case *capturepb.ApiScopeStopAsync:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.processApiScopeStopAsync(e)
	case *capturepb.ApiStringEvent:
		p.checkTimestamp(event.Kind(), e.TimestampNs)
		p.listener.OnApiStringEvent(ApiStringEvent{
			ProcessID:   e.Pid,
			ThreadID:    e.Tid,
			TimestampNs: e.TimestampNs,
			ID:          e.ID,
			Name:        e.Name,
		})
	case *capturepb.ApiTrackInt:
		p.processApiTrack(event.Kind(), &e.ApiTrack, ApiTrackValue{Type: TrackInt, Int: int64(e.Data)})
	case *capturepb.ApiTrackInt64:
		p.processApiTrack(event.Kind(), &e.ApiTrack, ApiTrackValue{Type: TrackInt64, Int: e.Data})
	case *capturepb.ApiTrackUint:
		p.processApiTrack(event.Kind(), &e.ApiTrack, ApiTrackValue{Type: TrackUint, Uint: uint64(e.Data)})
	case *capturepb.ApiTrackUint64:
		p.processApiTrack(event.Kind(), &e.ApiTrack, ApiTrackValue{Type: TrackUint64, Uint: e.Data})
	case *capturepb.ApiTrackFloat:
		p.processApiTrack(event.Kind(), &e.ApiTrack, ApiTrackValue{Type: TrackFloat, Double: float64(e.Data)})
	case *capturepb.ApiTrackDouble:
		p.processApiTrack(event.Kind(), &e.ApiTrack, ApiTrackValue{Type: TrackDouble, Double: e.Data})
	case *capturepb.WarningEvent:
		p.listener.OnWarningEvent(e)
	case *capturepb.ClockResolutionEvent:
		p.listener.OnClockResolutionEvent(e)
	case *capturepb.ErrorsWithPerfEventOpenEvent:
		p.listener.OnErrorsWithPerfEventOpenEvent(e)
	case *capturepb.WarningInstrumentingWithUprobesEvent:
		p.listener.OnWarningInstrumentingWithUprobesEvent(e)
	case *capturepb.ErrorEnablingApiEvent:
		p.listener.OnErrorEnablingApiEvent(e)
	case *capturepb.LostPerfRecordsEvent:
		p.listener.OnLostPerfRecords(e)
	case *capturepb.OutOfOrderEventsDiscardedEvent:
		p.listener.OnOutOfOrderEventsDiscarded(e)
	default:
		p.stats.unknownEvents.Inc()
		log.Debugf("Ignoring capture event of unknown type")
	}
}

// checkTimestamp reports events going back in time by more than the slack.
func (p *Processor) checkTimestamp(kind capturepb.EventKind, timestampNs uint64) {
	if timestampNs == 0 {
		return
	}
	if timestampNs+p.options.TimestampSlack < p.lastTimestamp {
		p.stats.timestampRegressions.Inc()
		log.Warnf("Timestamp of %s event went back by %dns (%d < %d)", kind, p.lastTimestamp-timestampNs, timestampNs, p.lastTimestamp)
		return
	}
	if timestampNs > p.lastTimestamp {
		p.lastTimestamp = timestampNs
	}
}

func (p *Processor) dropUnknownKey(kind capturepb.EventKind, what string, key uint64) {
	p.stats.unknownKeys.Inc()
	log.Warnf("Dropping %s event referencing unknown %s key %d", kind, what, key)
}

func (p *Processor) processCaptureStarted(e *capturepb.CaptureStarted) {
	p.ids = eventid.Create(e.CaptureOptions, p.options.ScopeEquivalence)
	p.captureStartNs = e.CaptureStartTimestampNs
	p.listener.OnCaptureStarted(e)
}

func (p *Processor) processInternedString(e *capturepb.InternedString) {
	if previous, ok := p.strings[e.Key]; ok && previous != e.Intern {
		log.Warnf("Overwriting interned string with key %d", e.Key)
	}
	p.strings[e.Key] = e.Intern
}

func (p *Processor) processInternedCallstack(e *capturepb.InternedCallstack) {
	if _, ok := p.callstacks[e.Key]; ok {
		log.Warnf("Overwriting interned callstack with key %d", e.Key)
	}
	p.callstacks[e.Key] = newInternedCallstack(e.Intern)
}

func (p *Processor) processInternedTracepointInfo(e *capturepb.InternedTracepointInfo) {
	var info TracepointInfo
	if e.Intern != nil {
		info = TracepointInfo{Category: e.Intern.Category, Name: e.Intern.Name}
	}
	p.tracepoints[e.Key] = info
}

// emitTimer clamps an inverted interval to an empty one, marking the timer
// degraded, and hands it to the listener.
func (p *Processor) emitTimer(timer Timer) bool {
	if timer.End < timer.Start {
		timer.End = timer.Start
		timer.Degraded = true
	}
	if timer.Degraded {
		p.stats.degradedTimers.Inc()
	}
	p.listener.OnTimer(timer)
	return timer.Degraded
}

func (p *Processor) processSchedulingSlice(e *capturepb.SchedulingSlice) {
	p.emitTimer(Timer{
		Start:     e.InTimestampNs,
		End:       e.OutTimestampNs,
		ProcessID: e.Pid,
		ThreadID:  e.Tid,
		Processor: e.Core,
		Type:      TimerCoreActivity,
	})
}

func newInternedCallstack(c *capturepb.Callstack) internedCallstack {
	info := CallstackInfo{}
	if c != nil {
		info.Frames = append([]uint64(nil), c.Pcs...)
		info.Type = c.Type
	}
	return internedCallstack{hash: callstackHash(info.Frames), info: info}
}

// callstackHash identifies a callstack by its frames.
func callstackHash(frames []uint64) uint64 {
	b := make([]byte, 0, 8*len(frames))
	for _, frame := range frames {
		b = binary.LittleEndian.AppendUint64(b, frame)
	}
	return murmur3.Sum64(b)
}

// announceCallstack sends callstack to the listener the first time its hash
// is seen.
func (p *Processor) announceCallstack(callstack internedCallstack) {
	if _, ok := p.seenCallstacks[callstack.hash]; ok {
		return
	}
	p.seenCallstacks[callstack.hash] = struct{}{}
	p.listener.OnUniqueCallstack(callstack.hash, callstack.info)
}

func (p *Processor) processCallstackSample(e *capturepb.CallstackSample) {
	var callstack internedCallstack
	if e.Callstack != nil {
		callstack = newInternedCallstack(e.Callstack)
	} else {
		var ok bool
		if callstack, ok = p.callstacks[e.CallstackKey]; !ok {
			p.dropUnknownKey(capturepb.KindCallstackSample, "callstack", e.CallstackKey)
			return
		}
	}

	p.announceCallstack(callstack)
	p.listener.OnCallstackEvent(CallstackEvent{
		TimestampNs:   e.TimestampNs,
		ThreadID:      e.Tid,
		CallstackHash: callstack.hash,
	})
}

func (p *Processor) processFunctionCall(e *capturepb.FunctionCall) {
	p.emitTimer(Timer{
		Start:           e.BeginTimestampNs,
		End:             e.EndTimestampNs,
		ProcessID:       e.Pid,
		ThreadID:        e.Tid,
		Depth:           e.Depth,
		FunctionID:      e.FunctionID,
		FunctionAddress: e.AbsoluteAddress,
		Processor:       NoProcessor,
		UserDataKey:     e.ReturnValue,
		Type:            TimerNone,
		Registers:       append([]uint64(nil), e.Registers...),
	})
}

func (p *Processor) processIntrospectionScope(e *capturepb.IntrospectionScope) {
	p.emitTimer(Timer{
		Start:     e.BeginTimestampNs,
		End:       e.EndTimestampNs,
		ProcessID: e.Pid,
		ThreadID:  e.Tid,
		Depth:     e.Depth,
		Processor: NoProcessor,
		Type:      TimerIntrospection,
		Registers: append([]uint64(nil), e.Registers...),
	})
}

func (p *Processor) processThreadStateSlice(e *capturepb.ThreadStateSlice) {
	slice := ThreadStateSliceInfo{
		ProcessID:        e.Pid,
		ThreadID:         e.Tid,
		State:            threadStateFromEvent(e.ThreadState),
		BeginTimestampNs: e.BeginTimestampNs,
		EndTimestampNs:   e.EndTimestampNs,
		WakeupThreadID:   e.WakeupTid,
		WakeupProcessID:  e.WakeupPid,
	}
	if key := e.SwitchOutOrWakeupCallstackKey; key != 0 {
		callstack, ok := p.callstacks[key]
		if !ok {
			p.dropUnknownKey(capturepb.KindThreadStateSlice, "callstack", key)
			return
		}
		p.announceCallstack(callstack)
		slice.SwitchOutOrWakeupCallstackHash = callstack.hash
	}
	p.listener.OnThreadStateSlice(slice)
}

// resolveString returns inline when set, else the interned string at key.
// A zero key with no inline value resolves to the empty string.
func (p *Processor) resolveString(inline string, key uint64) (string, bool) {
	if inline != "" || key == 0 {
		return inline, true
	}
	s, ok := p.strings[key]
	return s, ok
}

func (p *Processor) processAddressInfo(e *capturepb.AddressInfo) {
	functionName, ok := p.resolveString(e.FunctionName, e.FunctionNameKey)
	if !ok {
		p.dropUnknownKey(capturepb.KindAddressInfo, "function name", e.FunctionNameKey)
		return
	}
	moduleName, ok := p.resolveString(e.ModuleName, e.ModuleNameKey)
	if !ok {
		p.dropUnknownKey(capturepb.KindAddressInfo, "module name", e.ModuleNameKey)
		return
	}
	p.listener.OnAddressInfo(AddressInfo{
		AbsoluteAddress:  e.AbsoluteAddress,
		OffsetInFunction: e.OffsetInFunction,
		FunctionName:     functionName,
		ModuleName:       moduleName,
	})
}

func (p *Processor) processTracepointEvent(e *capturepb.TracepointEvent) {
	key := e.TracepointInfoKey
	var info TracepointInfo
	if e.TracepointInfo != nil {
		info = TracepointInfo{Category: e.TracepointInfo.Category, Name: e.TracepointInfo.Name}
		if key == 0 {
			key = murmur3.StringSum64(info.Category + ":" + info.Name)
		}
	} else {
		var ok bool
		if info, ok = p.tracepoints[key]; !ok {
			p.dropUnknownKey(capturepb.KindTracepointEvent, "tracepoint", key)
			return
		}
	}

	if _, ok := p.seenTracepoints[key]; !ok {
		p.seenTracepoints[key] = struct{}{}
		p.listener.OnUniqueTracepointInfo(key, info)
	}
	p.listener.OnTracepointEvent(TracepointEventInfo{
		ProcessID:         e.Pid,
		ThreadID:          e.Tid,
		Cpu:               e.Cpu,
		TimestampNs:       e.TimestampNs,
		TracepointInfoKey: key,
	})
}

// internString returns the key of s, announcing it to the listener the first
// time.
func (p *Processor) internString(s string) uint64 {
	key := murmur3.StringSum64(s)
	if _, ok := p.announced[key]; !ok {
		p.announced[key] = struct{}{}
		p.listener.OnKeyAndString(key, s)
	}
	return key
}
