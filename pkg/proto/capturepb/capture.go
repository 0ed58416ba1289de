// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package capturepb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// EventKind tags the payload of a ClientCaptureEvent. Its value is the
// field number of the payload on the wire.
type EventKind int32

// Event kinds.
const (
	KindUnknown                   EventKind = 0
	KindCaptureStarted            EventKind = 1
	KindSchedulingSlice           EventKind = 2
	KindInternedCallstack         EventKind = 3
	KindCallstackSample           EventKind = 4
	KindFunctionCall              EventKind = 5
	KindInternedString            EventKind = 6
	KindGpuJob                    EventKind = 7
	KindThreadName                EventKind = 8
	KindThreadNamesSnapshot       EventKind = 9
	KindThreadStateSlice          EventKind = 10
	KindAddressInfo               EventKind = 11
	KindInternedTracepointInfo    EventKind = 12
	KindTracepointEvent           EventKind = 13
	KindModuleUpdate              EventKind = 14
	KindModulesSnapshot           EventKind = 15
	KindSystemMemoryUsage         EventKind = 16
	KindIntrospectionScope        EventKind = 17
	KindWarning                   EventKind = 18
	KindClockResolution           EventKind = 19
	KindLostPerfRecords           EventKind = 20
	KindOutOfOrderEventsDiscarded EventKind = 21
	KindApiScopeStart             EventKind = 22
	KindApiScopeStop              EventKind = 23
	KindCaptureFinished           EventKind = 24
	KindGpuQueueSubmission        EventKind = 25
	KindApiScopeStartAsync        EventKind = 26
	KindApiScopeStopAsync         EventKind = 27
	KindApiStringEvent            EventKind = 28
	KindApiTrackInt               EventKind = 29
	KindApiTrackInt64             EventKind = 30
	KindApiTrackUint              EventKind = 31
	KindApiTrackUint64            EventKind = 32
	KindApiTrackFloat             EventKind = 33
	KindApiTrackDouble            EventKind = 34
	KindMemoryUsage               EventKind = 35
	KindErrorsWithPerfEventOpen   EventKind = 36
	KindWarningInstrumenting      EventKind = 37
	KindErrorEnablingApi          EventKind = 38
)

var kindNames = map[EventKind]string{
	KindUnknown:                   "unknown",
	KindCaptureStarted:            "capture_started",
	KindSchedulingSlice:           "scheduling_slice",
	KindInternedCallstack:         "interned_callstack",
	KindCallstackSample:           "callstack_sample",
	KindFunctionCall:              "function_call",
	KindInternedString:            "interned_string",
	KindGpuJob:                    "gpu_job",
	KindThreadName:                "thread_name",
	KindThreadNamesSnapshot:       "thread_names_snapshot",
	KindThreadStateSlice:          "thread_state_slice",
	KindAddressInfo:               "address_info",
	KindInternedTracepointInfo:    "interned_tracepoint_info",
	KindTracepointEvent:           "tracepoint_event",
	KindModuleUpdate:              "module_update_event",
	KindModulesSnapshot:           "modules_snapshot",
	KindSystemMemoryUsage:         "system_memory_usage",
	KindIntrospectionScope:        "introspection_scope",
	KindWarning:                   "warning_event",
	KindClockResolution:           "clock_resolution_event",
	KindLostPerfRecords:           "lost_perf_records_event",
	KindOutOfOrderEventsDiscarded: "out_of_order_events_discarded_event",
	KindApiScopeStart:             "api_scope_start",
	KindApiScopeStop:              "api_scope_stop",
	KindCaptureFinished:           "capture_finished",
	KindGpuQueueSubmission:        "gpu_queue_submission",
	KindApiScopeStartAsync:        "api_scope_start_async",
	KindApiScopeStopAsync:         "api_scope_stop_async",
	KindApiStringEvent:            "api_string_event",
	KindApiTrackInt:               "api_track_int",
	KindApiTrackInt64:             "api_track_int64",
	KindApiTrackUint:              "api_track_uint",
	KindApiTrackUint64:            "api_track_uint64",
	KindApiTrackFloat:             "api_track_float",
	KindApiTrackDouble:            "api_track_double",
	KindMemoryUsage:               "memory_usage_event",
	KindErrorsWithPerfEventOpen:   "errors_with_perf_event_open_event",
	KindWarningInstrumenting:      "warning_instrumenting_with_uprobes_event",
	KindErrorEnablingApi:          "error_enabling_api_event",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event_kind(%d)", int32(k))
}

// Event is the payload of a ClientCaptureEvent.
type Event interface {
	message
	Kind() EventKind
}

// Kind implementations.
func (*CaptureStarted) Kind() EventKind                       { return KindCaptureStarted }
func (*SchedulingSlice) Kind() EventKind                      { return KindSchedulingSlice }
func (*InternedCallstack) Kind() EventKind                    { return KindInternedCallstack }
func (*CallstackSample) Kind() EventKind                      { return KindCallstackSample }
func (*FunctionCall) Kind() EventKind                         { return KindFunctionCall }
func (*InternedString) Kind() EventKind                       { return KindInternedString }
func (*GpuJob) Kind() EventKind                               { return KindGpuJob }
func (*ThreadName) Kind() EventKind                           { return KindThreadName }
func (*ThreadNamesSnapshot) Kind() EventKind                  { return KindThreadNamesSnapshot }
func (*ThreadStateSlice) Kind() EventKind                     { return KindThreadStateSlice }
func (*AddressInfo) Kind() EventKind                          { return KindAddressInfo }
func (*InternedTracepointInfo) Kind() EventKind               { return KindInternedTracepointInfo }
func (*TracepointEvent) Kind() EventKind                      { return KindTracepointEvent }
func (*ModuleUpdateEvent) Kind() EventKind                    { return KindModuleUpdate }
func (*ModulesSnapshot) Kind() EventKind                      { return KindModulesSnapshot }
func (*SystemMemoryUsage) Kind() EventKind                    { return KindSystemMemoryUsage }
func (*IntrospectionScope) Kind() EventKind                   { return KindIntrospectionScope }
func (*WarningEvent) Kind() EventKind                         { return KindWarning }
func (*ClockResolutionEvent) Kind() EventKind                 { return KindClockResolution }
func (*LostPerfRecordsEvent) Kind() EventKind                 { return KindLostPerfRecords }
func (*OutOfOrderEventsDiscardedEvent) Kind() EventKind       { return KindOutOfOrderEventsDiscarded }
func (*ApiScopeStart) Kind() EventKind                        { return KindApiScopeStart }
func (*ApiScopeStop) Kind() EventKind                         { return KindApiScopeStop }
func (*CaptureFinished) Kind() EventKind                      { return KindCaptureFinished }
func (*GpuQueueSubmission) Kind() EventKind                   { return KindGpuQueueSubmission }
func (*ApiScopeStartAsync) Kind() EventKind                   { return KindApiScopeStartAsync }
func (*ApiScopeStopAsync) Kind() EventKind                    { return KindApiScopeStopAsync }
func (*ApiStringEvent) Kind() EventKind                       { return KindApiStringEvent }
func (*ApiTrackInt) Kind() EventKind                          { return KindApiTrackInt }
func (*ApiTrackInt64) Kind() EventKind                        { return KindApiTrackInt64 }
func (*ApiTrackUint) Kind() EventKind                         { return KindApiTrackUint }
func (*ApiTrackUint64) Kind() EventKind                       { return KindApiTrackUint64 }
func (*ApiTrackFloat) Kind() EventKind                        { return KindApiTrackFloat }
func (*ApiTrackDouble) Kind() EventKind                       { return KindApiTrackDouble }
func (*MemoryUsageEvent) Kind() EventKind                     { return KindMemoryUsage }
func (*ErrorsWithPerfEventOpenEvent) Kind() EventKind         { return KindErrorsWithPerfEventOpen }
func (*ErrorEnablingApiEvent) Kind() EventKind                { return KindErrorEnablingApi }
func (*WarningInstrumentingWithUprobesEvent) Kind() EventKind { return KindWarningInstrumenting }

func newEvent(kind EventKind) Event {
	switch kind {
	case KindCaptureStarted:
		return &CaptureStarted{}
	case KindSchedulingSlice:
		return &SchedulingSlice{}
	case KindInternedCallstack:
		return &InternedCallstack{}
	case KindCallstackSample:
		return &CallstackSample{}
	case KindFunctionCall:
		return &FunctionCall{}
	case KindInternedString:
		return &InternedString{}
	case KindGpuJob:
		return &GpuJob{}
	case KindThreadName:
		return &ThreadName{}
	case KindThreadNamesSnapshot:
		return &ThreadNamesSnapshot{}
	case KindThreadStateSlice:
		return &ThreadStateSlice{}
	case KindAddressInfo:
		return &AddressInfo{}
	case KindInternedTracepointInfo:
		return &InternedTracepointInfo{}
	case KindTracepointEvent:
		return &TracepointEvent{}
	case KindModuleUpdate:
		return &ModuleUpdateEvent{}
	case KindModulesSnapshot:
		return &ModulesSnapshot{}
	case KindSystemMemoryUsage:
		return &SystemMemoryUsage{}
	case KindIntrospectionScope:
		return &IntrospectionScope{}
	case KindWarning:
		return &WarningEvent{}
	case KindClockResolution:
		return &ClockResolutionEvent{}
	case KindLostPerfRecords:
		return &LostPerfRecordsEvent{}
	case KindOutOfOrderEventsDiscarded:
		return &OutOfOrderEventsDiscardedEvent{}
	case KindApiScopeStart:
		return &ApiScopeStart{}
	case KindApiScopeStop:
		return &ApiScopeStop{}
	case KindCaptureFinished:
		return &CaptureFinished{}
	case KindGpuQueueSubmission:
		return &GpuQueueSubmission{}
	case KindApiScopeStartAsync:
		return &ApiScopeStartAsync{}
	case KindApiScopeStopAsync:
		return &ApiScopeStopAsync{}
	case KindApiStringEvent:
		return &ApiStringEvent{}
	case KindApiTrackInt:
		return &ApiTrackInt{}
	case KindApiTrackInt64:
		return &ApiTrackInt64{}
	case KindApiTrackUint:
		return &ApiTrackUint{}
	case KindApiTrackUint64:
		return &ApiTrackUint64{}
	case KindApiTrackFloat:
		return &ApiTrackFloat{}
	case KindApiTrackDouble:
		return &ApiTrackDouble{}
	case KindMemoryUsage:
		return &MemoryUsageEvent{}
	case KindErrorsWithPerfEventOpen:
		return &ErrorsWithPerfEventOpenEvent{}
	case KindWarningInstrumenting:
		return &WarningInstrumentingWithUprobesEvent{}
	case KindErrorEnablingApi:
		return &ErrorEnablingApiEvent{}
	}
	return nil
}

// ClientCaptureEvent holds exactly one Event. A nil Event means the record
// carried a payload this version does not know.
type ClientCaptureEvent struct {
	Event Event
}

// Kind returns the tag of the payload, KindUnknown if there is none.
func (m *ClientCaptureEvent) Kind() EventKind {
	if m == nil || m.Event == nil {
		return KindUnknown
	}
	return m.Event.Kind()
}

func (m *ClientCaptureEvent) marshalTo(e *encoder) {
	if m.Event != nil {
		e.message(protowire.Number(m.Event.Kind()), m.Event)
	}
}

func (m *ClientCaptureEvent) unmarshalField(f field) error {
	event := newEvent(EventKind(f.num))
	if event == nil {
		return nil
	}
	if err := f.message(event); err != nil {
		return fmt.Errorf("decoding %s: %w", EventKind(f.num), err)
	}
	m.Event = event
	return nil
}

// Marshal returns the wire encoding of the event.
func (m *ClientCaptureEvent) Marshal() ([]byte, error) {
	return marshalMessage(m), nil
}

// Unmarshal decodes b into m, replacing its payload.
func (m *ClientCaptureEvent) Unmarshal(b []byte) error {
	m.Event = nil
	return unmarshalMessage(b, m)
}

// CaptureRequest is the single message the client sends to start a capture.
type CaptureRequest struct {
	CaptureOptions *CaptureOptions
}

func (m *CaptureRequest) marshalTo(e *encoder) {
	if m.CaptureOptions != nil {
		e.message(1, m.CaptureOptions)
	}
}

func (m *CaptureRequest) unmarshalField(f field) error {
	if f.num == 1 {
		m.CaptureOptions = &CaptureOptions{}
		return f.message(m.CaptureOptions)
	}
	return nil
}

// Marshal returns the wire encoding of the request.
func (m *CaptureRequest) Marshal() ([]byte, error) {
	return marshalMessage(m), nil
}

// Unmarshal decodes b into m.
func (m *CaptureRequest) Unmarshal(b []byte) error {
	*m = CaptureRequest{}
	return unmarshalMessage(b, m)
}

// CaptureResponse is a batch of events streamed by the service.
type CaptureResponse struct {
	CaptureEvents []*ClientCaptureEvent
}

func (m *CaptureResponse) marshalTo(e *encoder) {
	for _, event := range m.CaptureEvents {
		e.message(1, event)
	}
}

func (m *CaptureResponse) unmarshalField(f field) error {
	if f.num == 1 {
		event := &ClientCaptureEvent{}
		if err := f.message(event); err != nil {
			return err
		}
		m.CaptureEvents = append(m.CaptureEvents, event)
	}
	return nil
}

// Marshal returns the wire encoding of the response.
func (m *CaptureResponse) Marshal() ([]byte, error) {
	return marshalMessage(m), nil
}

// Unmarshal decodes b into m.
func (m *CaptureResponse) Unmarshal(b []byte) error {
	*m = CaptureResponse{}
	return unmarshalMessage(b, m)
}
