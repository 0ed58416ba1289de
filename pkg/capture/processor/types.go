// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import "github.com/DataDog/capture-agent/pkg/proto/capturepb"

// TimerType classifies a Timer.
type TimerType int

// Timer types.
const (
	TimerNone TimerType = iota
	TimerCoreActivity
	TimerGpuActivity
	TimerIntrospection
	TimerApiScope
	TimerApiScopeAsync
	TimerGpuCommandBuffer
	TimerGpuDebugMarker
)

func (t TimerType) String() string {
	switch t {
	case TimerCoreActivity:
		return "core_activity"
	case TimerGpuActivity:
		return "gpu_activity"
	case TimerIntrospection:
		return "introspection"
	case TimerApiScope:
		return "api_scope"
	case TimerApiScopeAsync:
		return "api_scope_async"
	case TimerGpuCommandBuffer:
		return "gpu_command_buffer"
	case TimerGpuDebugMarker:
		return "gpu_debug_marker"
	default:
		return "none"
	}
}

// NoProcessor is the Processor of timers not bound to a core.
const NoProcessor int32 = -1

// UnknownThreadID is the ThreadID of GPU debug markers whose begin was
// submitted from another thread than their end.
const UnknownThreadID = ^uint32(0)

// Color is an RGBA color. The zero Color means none was set.
type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
	Alpha uint8
}

func colorFromRGBA(rgba uint32) Color {
	return Color{Red: uint8(rgba >> 24), Green: uint8(rgba >> 16), Blue: uint8(rgba >> 8), Alpha: uint8(rgba)}
}

// Timer is a [Start, End] interval of some activity. Start <= End always
// holds; Degraded is set when the producer sent an inverted interval that had
// to be clamped.
type Timer struct {
	Start           uint64
	End             uint64
	ProcessID       uint32
	ThreadID        uint32
	Depth           uint32
	FunctionID      uint64
	FunctionAddress uint64
	Processor       int32
	TimelineHash    uint64
	UserDataKey     uint64
	GroupID         uint64
	ID              uint64
	Name            string
	Color           Color
	Type            TimerType
	Registers       []uint64
	Degraded        bool
}

// CallstackInfo is a resolved callstack.
type CallstackInfo struct {
	Frames []uint64
	Type   capturepb.CallstackType
}

// CallstackEvent is one sample of a callstack announced earlier through
// OnUniqueCallstack.
type CallstackEvent struct {
	TimestampNs   uint64
	ThreadID      uint32
	CallstackHash uint64
}

// ThreadState is the scheduler state of a thread.
type ThreadState int

// Thread states.
const (
	ThreadRunning ThreadState = iota
	ThreadRunnable
	ThreadInterruptibleSleep
	ThreadUninterruptibleSleep
	ThreadStopped
	ThreadTraced
	ThreadDead
	ThreadZombie
	ThreadParked
	ThreadIdle
)

func threadStateFromEvent(s capturepb.ThreadState) ThreadState {
	switch s {
	case capturepb.ThreadStateRunning:
		return ThreadRunning
	case capturepb.ThreadStateRunnable:
		return ThreadRunnable
	case capturepb.ThreadStateInterruptibleSleep:
		return ThreadInterruptibleSleep
	case capturepb.ThreadStateUninterruptibleSleep:
		return ThreadUninterruptibleSleep
	case capturepb.ThreadStateStopped:
		return ThreadStopped
	case capturepb.ThreadStateTraced:
		return ThreadTraced
	case capturepb.ThreadStateDead:
		return ThreadDead
	case capturepb.ThreadStateZombie:
		return ThreadZombie
	case capturepb.ThreadStateParked:
		return ThreadParked
	default:
		return ThreadIdle
	}
}

// ThreadStateSliceInfo is the time a thread spent in one state.
// SwitchOutOrWakeupCallstackHash is 0 when the slice has no callstack.
type ThreadStateSliceInfo struct {
	ProcessID                      uint32
	ThreadID                       uint32
	State                          ThreadState
	BeginTimestampNs               uint64
	EndTimestampNs                 uint64
	WakeupThreadID                 uint32
	WakeupProcessID                uint32
	SwitchOutOrWakeupCallstackHash uint64
}

// AddressInfo is the symbol information the service resolved for an address.
type AddressInfo struct {
	AbsoluteAddress  uint64
	OffsetInFunction uint64
	FunctionName     string
	ModuleName       string
}

// TracepointInfo names a kernel tracepoint.
type TracepointInfo struct {
	Category string
	Name     string
}

// TracepointEventInfo is one hit of a tracepoint announced earlier through
// OnUniqueTracepointInfo.
type TracepointEventInfo struct {
	ProcessID         uint32
	ThreadID          uint32
	Cpu               int32
	TimestampNs       uint64
	TracepointInfoKey uint64
}

// SystemMemoryInfo is a sample of the system wide memory usage.
type SystemMemoryInfo struct {
	TimestampNs uint64
	TotalKb     int64
	FreeKb      int64
	AvailableKb int64
	BuffersKb   int64
	CachedKb    int64
}

// CgroupAndProcessMemoryInfo is a sample of the memory used by the cgroup of
// the target and by the target itself. The cgroup name is announced through
// OnKeyAndString.
type CgroupAndProcessMemoryInfo struct {
	TimestampNs           uint64
	CgroupNameHash        uint64
	CgroupLimitBytes      int64
	CgroupRssBytes        int64
	CgroupMappedFileBytes int64
	ProcessRssAnonKb      int64
}

// PageFaultsInfo is a sample of the page fault counters of the system, the
// cgroup of the target and the target.
type PageFaultsInfo struct {
	TimestampNs            uint64
	SystemPageFaults       int64
	SystemMajorPageFaults  int64
	CgroupNameHash         uint64
	CgroupPageFaults       int64
	CgroupMajorPageFaults  int64
	ProcessMinorPageFaults int64
	ProcessMajorPageFaults int64
}

// ApiStringEvent is a string the target attached to an async scope.
type ApiStringEvent struct {
	ProcessID   uint32
	ThreadID    uint32
	TimestampNs uint64
	ID          uint64
	Name        string
}

// TrackValueType is the type the target reported a track value with.
type TrackValueType int

// Track value types. Signed values are widened into Int, unsigned ones into
// Uint and floating point ones into Double.
const (
	TrackInt TrackValueType = iota
	TrackInt64
	TrackUint
	TrackUint64
	TrackFloat
	TrackDouble
)

// ApiTrackValue is one sample of a named track.
type ApiTrackValue struct {
	ProcessID   uint32
	ThreadID    uint32
	TimestampNs uint64
	Name        string
	Type        TrackValueType
	Int         int64
	Uint        uint64
	Double      float64
}
