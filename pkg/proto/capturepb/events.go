// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package capturepb

// SchedulingSlice is a time span during which a thread ran on a core.
type SchedulingSlice struct {
	Pid            uint32
	Tid            uint32
	Core           int32
	InTimestampNs  uint64
	OutTimestampNs uint64
}

func (m *SchedulingSlice) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.int32(3, m.Core)
	e.uint64(4, m.InTimestampNs)
	e.uint64(5, m.OutTimestampNs)
}

func (m *SchedulingSlice) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.Core = f.int32()
	case 4:
		m.InTimestampNs = f.scalar
	case 5:
		m.OutTimestampNs = f.scalar
	}
	return nil
}

// CallstackType tells whether unwinding produced a complete callstack.
type CallstackType int32

// Callstack types.
const (
	CallstackComplete CallstackType = iota
	CallstackDwarfUnwindingError
	CallstackFramePointerUnwindingError
	CallstackInUprobes
	CallstackInUserSpaceInstrumentation
	CallstackPatchingFailed
	CallstackStackTopForDwarfUnwindingTooSmall
	CallstackStackTopDwarfUnwindingError
)

// Callstack is an ordered list of program counters, innermost first.
type Callstack struct {
	Pcs  []uint64
	Type CallstackType
}

func (m *Callstack) marshalTo(e *encoder) {
	e.packed(1, m.Pcs)
	e.int32(2, int32(m.Type))
}

func (m *Callstack) unmarshalField(f field) (err error) {
	switch f.num {
	case 1:
		m.Pcs, err = f.uint64s(m.Pcs)
	case 2:
		m.Type = CallstackType(f.int32())
	}
	return err
}

// InternedCallstack defines a callstack referenced later by key.
type InternedCallstack struct {
	Key    uint64
	Intern *Callstack
}

func (m *InternedCallstack) marshalTo(e *encoder) {
	e.uint64(1, m.Key)
	if m.Intern != nil {
		e.message(2, m.Intern)
	}
}

func (m *InternedCallstack) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Key = f.scalar
	case 2:
		m.Intern = &Callstack{}
		return f.message(m.Intern)
	}
	return nil
}

// CallstackSample is a sampled callstack, either inline or by interned key.
type CallstackSample struct {
	Pid          uint32
	Tid          uint32
	TimestampNs  uint64
	CallstackKey uint64
	Callstack    *Callstack
}

func (m *CallstackSample) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.TimestampNs)
	e.uint64(4, m.CallstackKey)
	if m.Callstack != nil {
		e.message(5, m.Callstack)
	}
}

func (m *CallstackSample) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.TimestampNs = f.scalar
	case 4:
		m.CallstackKey = f.scalar
	case 5:
		m.Callstack = &Callstack{}
		return f.message(m.Callstack)
	}
	return nil
}

// FunctionCall is one execution of an instrumented function.
type FunctionCall struct {
	Pid              uint32
	Tid              uint32
	FunctionID       uint64
	BeginTimestampNs uint64
	EndTimestampNs   uint64
	Depth            uint32
	ReturnValue      uint64
	Registers        []uint64
	AbsoluteAddress  uint64
}

func (m *FunctionCall) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.FunctionID)
	e.uint64(4, m.BeginTimestampNs)
	e.uint64(5, m.EndTimestampNs)
	e.uint32(6, m.Depth)
	e.uint64(7, m.ReturnValue)
	e.packed(8, m.Registers)
	e.uint64(9, m.AbsoluteAddress)
}

func (m *FunctionCall) unmarshalField(f field) (err error) {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.FunctionID = f.scalar
	case 4:
		m.BeginTimestampNs = f.scalar
	case 5:
		m.EndTimestampNs = f.scalar
	case 6:
		m.Depth = f.uint32()
	case 7:
		m.ReturnValue = f.scalar
	case 8:
		m.Registers, err = f.uint64s(m.Registers)
	case 9:
		m.AbsoluteAddress = f.scalar
	}
	return err
}

// IntrospectionScope is a scope measured inside the capture service itself.
type IntrospectionScope struct {
	Pid              uint32
	Tid              uint32
	BeginTimestampNs uint64
	EndTimestampNs   uint64
	Depth            uint32
	Registers        []uint64
}

func (m *IntrospectionScope) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.BeginTimestampNs)
	e.uint64(4, m.EndTimestampNs)
	e.uint32(5, m.Depth)
	e.packed(6, m.Registers)
}

func (m *IntrospectionScope) unmarshalField(f field) (err error) {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.BeginTimestampNs = f.scalar
	case 4:
		m.EndTimestampNs = f.scalar
	case 5:
		m.Depth = f.uint32()
	case 6:
		m.Registers, err = f.uint64s(m.Registers)
	}
	return err
}

// InternedString defines a string referenced later by key.
type InternedString struct {
	Key    uint64
	Intern string
}

func (m *InternedString) marshalTo(e *encoder) {
	e.uint64(1, m.Key)
	e.string(2, m.Intern)
}

func (m *InternedString) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Key = f.scalar
	case 2:
		m.Intern = f.string()
	}
	return nil
}

// GpuJob is one job submitted to a GPU ring, from the submitting ioctl to
// the signaled fence. The timeline is given inline or as an interned key.
type GpuJob struct {
	Pid                     uint32
	Tid                     uint32
	Context                 uint32
	Seqno                   uint32
	Depth                   uint32
	AmdgpuCsIoctlTimeNs     uint64
	AmdgpuSchedRunJobTimeNs uint64
	GpuHardwareStartTimeNs  uint64
	DmaFenceSignaledTimeNs  uint64
	TimelineKey             uint64
	Timeline                string
}

func (m *GpuJob) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint32(3, m.Context)
	e.uint32(4, m.Seqno)
	e.uint32(5, m.Depth)
	e.uint64(6, m.AmdgpuCsIoctlTimeNs)
	e.uint64(7, m.AmdgpuSchedRunJobTimeNs)
	e.uint64(8, m.GpuHardwareStartTimeNs)
	e.uint64(9, m.DmaFenceSignaledTimeNs)
	e.uint64(10, m.TimelineKey)
	e.string(11, m.Timeline)
}

func (m *GpuJob) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.Context = f.uint32()
	case 4:
		m.Seqno = f.uint32()
	case 5:
		m.Depth = f.uint32()
	case 6:
		m.AmdgpuCsIoctlTimeNs = f.scalar
	case 7:
		m.AmdgpuSchedRunJobTimeNs = f.scalar
	case 8:
		m.GpuHardwareStartTimeNs = f.scalar
	case 9:
		m.DmaFenceSignaledTimeNs = f.scalar
	case 10:
		m.TimelineKey = f.scalar
	case 11:
		m.Timeline = f.string()
	}
	return nil
}

// ThreadName reports the name of a thread at a point in time.
type ThreadName struct {
	Pid         uint32
	Tid         uint32
	Name        string
	TimestampNs uint64
}

func (m *ThreadName) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.string(3, m.Name)
	e.uint64(4, m.TimestampNs)
}

func (m *ThreadName) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.Name = f.string()
	case 4:
		m.TimestampNs = f.scalar
	}
	return nil
}

// ThreadNamesSnapshot lists the names of all threads at capture start.
type ThreadNamesSnapshot struct {
	TimestampNs uint64
	ThreadNames []*ThreadName
}

func (m *ThreadNamesSnapshot) marshalTo(e *encoder) {
	e.uint64(1, m.TimestampNs)
	for _, name := range m.ThreadNames {
		e.message(2, name)
	}
}

func (m *ThreadNamesSnapshot) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.TimestampNs = f.scalar
	case 2:
		name := &ThreadName{}
		if err := f.message(name); err != nil {
			return err
		}
		m.ThreadNames = append(m.ThreadNames, name)
	}
	return nil
}

// ThreadState is the scheduler state of a thread.
type ThreadState int32

// Thread states, as reported by the kernel.
const (
	ThreadStateRunning ThreadState = iota
	ThreadStateRunnable
	ThreadStateInterruptibleSleep
	ThreadStateUninterruptibleSleep
	ThreadStateStopped
	ThreadStateTraced
	ThreadStateDead
	ThreadStateZombie
	ThreadStateParked
	ThreadStateIdle
)

// ThreadStateSlice is a span during which a thread stayed in one state.
type ThreadStateSlice struct {
	Pid                           uint32
	Tid                           uint32
	BeginTimestampNs              uint64
	EndTimestampNs                uint64
	ThreadState                   ThreadState
	WakeupTid                     uint32
	WakeupPid                     uint32
	SwitchOutOrWakeupCallstackKey uint64
}

func (m *ThreadStateSlice) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.BeginTimestampNs)
	e.uint64(4, m.EndTimestampNs)
	e.int32(5, int32(m.ThreadState))
	e.uint32(6, m.WakeupTid)
	e.uint32(7, m.WakeupPid)
	e.uint64(8, m.SwitchOutOrWakeupCallstackKey)
}

func (m *ThreadStateSlice) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.BeginTimestampNs = f.scalar
	case 4:
		m.EndTimestampNs = f.scalar
	case 5:
		m.ThreadState = ThreadState(f.int32())
	case 6:
		m.WakeupTid = f.uint32()
	case 7:
		m.WakeupPid = f.uint32()
	case 8:
		m.SwitchOutOrWakeupCallstackKey = f.scalar
	}
	return nil
}

// AddressInfo describes the function and module containing an address.
// Names are given inline or as interned keys.
type AddressInfo struct {
	AbsoluteAddress  uint64
	FunctionNameKey  uint64
	OffsetInFunction uint64
	ModuleNameKey    uint64
	FunctionName     string
	ModuleName       string
}

func (m *AddressInfo) marshalTo(e *encoder) {
	e.uint64(1, m.AbsoluteAddress)
	e.uint64(2, m.FunctionNameKey)
	e.uint64(3, m.OffsetInFunction)
	e.uint64(4, m.ModuleNameKey)
	e.string(5, m.FunctionName)
	e.string(6, m.ModuleName)
}

func (m *AddressInfo) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.AbsoluteAddress = f.scalar
	case 2:
		m.FunctionNameKey = f.scalar
	case 3:
		m.OffsetInFunction = f.scalar
	case 4:
		m.ModuleNameKey = f.scalar
	case 5:
		m.FunctionName = f.string()
	case 6:
		m.ModuleName = f.string()
	}
	return nil
}

// TracepointInfo names a kernel tracepoint.
type TracepointInfo struct {
	Category string
	Name     string
}

func (m *TracepointInfo) marshalTo(e *encoder) {
	e.string(1, m.Category)
	e.string(2, m.Name)
}

func (m *TracepointInfo) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Category = f.string()
	case 2:
		m.Name = f.string()
	}
	return nil
}

// InternedTracepointInfo defines a tracepoint referenced later by key.
type InternedTracepointInfo struct {
	Key    uint64
	Intern *TracepointInfo
}

func (m *InternedTracepointInfo) marshalTo(e *encoder) {
	e.uint64(1, m.Key)
	if m.Intern != nil {
		e.message(2, m.Intern)
	}
}

func (m *InternedTracepointInfo) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Key = f.scalar
	case 2:
		m.Intern = &TracepointInfo{}
		return f.message(m.Intern)
	}
	return nil
}

// TracepointEvent is one hit of a tracepoint.
type TracepointEvent struct {
	Pid               uint32
	Tid               uint32
	TimestampNs       uint64
	Cpu               int32
	TracepointInfoKey uint64
	TracepointInfo    *TracepointInfo
}

func (m *TracepointEvent) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.TimestampNs)
	e.int32(4, m.Cpu)
	e.uint64(5, m.TracepointInfoKey)
	if m.TracepointInfo != nil {
		e.message(6, m.TracepointInfo)
	}
}

func (m *TracepointEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.TimestampNs = f.scalar
	case 4:
		m.Cpu = f.int32()
	case 5:
		m.TracepointInfoKey = f.scalar
	case 6:
		m.TracepointInfo = &TracepointInfo{}
		return f.message(m.TracepointInfo)
	}
	return nil
}

// ObjectFileType is the binary format of a module.
type ObjectFileType int32

// Object file types.
const (
	ObjectFileUnknown ObjectFileType = iota
	ObjectFileElf
	ObjectFileCoff
)

// ModuleInfo describes a module mapped into the target process.
type ModuleInfo struct {
	Name                    string
	FilePath                string
	FileSize                uint64
	AddressStart            uint64
	AddressEnd              uint64
	BuildID                 string
	LoadBias                uint64
	ObjectFileType          ObjectFileType
	Soname                  string
	ExecutableSegmentOffset uint64
}

func (m *ModuleInfo) marshalTo(e *encoder) {
	e.string(1, m.Name)
	e.string(2, m.FilePath)
	e.uint64(3, m.FileSize)
	e.uint64(4, m.AddressStart)
	e.uint64(5, m.AddressEnd)
	e.string(6, m.BuildID)
	e.uint64(7, m.LoadBias)
	e.int32(8, int32(m.ObjectFileType))
	e.string(9, m.Soname)
	e.uint64(10, m.ExecutableSegmentOffset)
}

func (m *ModuleInfo) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Name = f.string()
	case 2:
		m.FilePath = f.string()
	case 3:
		m.FileSize = f.scalar
	case 4:
		m.AddressStart = f.scalar
	case 5:
		m.AddressEnd = f.scalar
	case 6:
		m.BuildID = f.string()
	case 7:
		m.LoadBias = f.scalar
	case 8:
		m.ObjectFileType = ObjectFileType(f.int32())
	case 9:
		m.Soname = f.string()
	case 10:
		m.ExecutableSegmentOffset = f.scalar
	}
	return nil
}

// ModuleUpdateEvent reports a module loaded after the capture started.
type ModuleUpdateEvent struct {
	Pid         uint32
	TimestampNs uint64
	Module      *ModuleInfo
}

func (m *ModuleUpdateEvent) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint64(2, m.TimestampNs)
	if m.Module != nil {
		e.message(3, m.Module)
	}
}

func (m *ModuleUpdateEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.TimestampNs = f.scalar
	case 3:
		m.Module = &ModuleInfo{}
		return f.message(m.Module)
	}
	return nil
}

// ModulesSnapshot lists every module of the target at one point in time.
type ModulesSnapshot struct {
	Pid         uint32
	TimestampNs uint64
	Modules     []*ModuleInfo
}

func (m *ModulesSnapshot) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint64(2, m.TimestampNs)
	for _, module := range m.Modules {
		e.message(3, module)
	}
}

func (m *ModulesSnapshot) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.TimestampNs = f.scalar
	case 3:
		module := &ModuleInfo{}
		if err := f.message(module); err != nil {
			return err
		}
		m.Modules = append(m.Modules, module)
	}
	return nil
}

// SystemMemoryUsage is a sample of /proc/meminfo and of the system wide
// page fault counters.
type SystemMemoryUsage struct {
	TimestampNs uint64
	TotalKb     int64
	FreeKb      int64
	AvailableKb int64
	BuffersKb   int64
	CachedKb    int64
	Pgfault     int64
	Pgmajfault  int64
}

func (m *SystemMemoryUsage) marshalTo(e *encoder) {
	e.uint64(1, m.TimestampNs)
	e.uint64(2, uint64(m.TotalKb))
	e.uint64(3, uint64(m.FreeKb))
	e.uint64(4, uint64(m.AvailableKb))
	e.uint64(5, uint64(m.BuffersKb))
	e.uint64(6, uint64(m.CachedKb))
	e.uint64(7, uint64(m.Pgfault))
	e.uint64(8, uint64(m.Pgmajfault))
}

func (m *SystemMemoryUsage) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.TimestampNs = f.scalar
	case 2:
		m.TotalKb = int64(f.scalar)
	case 3:
		m.FreeKb = int64(f.scalar)
	case 4:
		m.AvailableKb = int64(f.scalar)
	case 5:
		m.BuffersKb = int64(f.scalar)
	case 6:
		m.CachedKb = int64(f.scalar)
	case 7:
		m.Pgfault = int64(f.scalar)
	case 8:
		m.Pgmajfault = int64(f.scalar)
	}
	return nil
}

// CgroupMemoryUsage is a sample of the memory cgroup of the target.
type CgroupMemoryUsage struct {
	CgroupName      string
	LimitBytes      int64
	RssBytes        int64
	MappedFileBytes int64
	Pgfault         int64
	Pgmajfault      int64
}

func (m *CgroupMemoryUsage) marshalTo(e *encoder) {
	e.string(1, m.CgroupName)
	e.uint64(2, uint64(m.LimitBytes))
	e.uint64(3, uint64(m.RssBytes))
	e.uint64(4, uint64(m.MappedFileBytes))
	e.uint64(5, uint64(m.Pgfault))
	e.uint64(6, uint64(m.Pgmajfault))
}

func (m *CgroupMemoryUsage) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.CgroupName = f.string()
	case 2:
		m.LimitBytes = int64(f.scalar)
	case 3:
		m.RssBytes = int64(f.scalar)
	case 4:
		m.MappedFileBytes = int64(f.scalar)
	case 5:
		m.Pgfault = int64(f.scalar)
	case 6:
		m.Pgmajfault = int64(f.scalar)
	}
	return nil
}

// ProcessMemoryUsage is a sample of /proc/<pid>/stat and status.
type ProcessMemoryUsage struct {
	Pid       uint32
	RssAnonKb int64
	Minflt    int64
	Majflt    int64
}

func (m *ProcessMemoryUsage) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint64(2, uint64(m.RssAnonKb))
	e.uint64(3, uint64(m.Minflt))
	e.uint64(4, uint64(m.Majflt))
}

func (m *ProcessMemoryUsage) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.RssAnonKb = int64(f.scalar)
	case 3:
		m.Minflt = int64(f.scalar)
	case 4:
		m.Majflt = int64(f.scalar)
	}
	return nil
}

// MemoryUsageEvent samples system, cgroup and process memory at once. Any
// of the three parts may be missing.
type MemoryUsageEvent struct {
	TimestampNs        uint64
	SystemMemoryUsage  *SystemMemoryUsage
	CgroupMemoryUsage  *CgroupMemoryUsage
	ProcessMemoryUsage *ProcessMemoryUsage
}

func (m *MemoryUsageEvent) marshalTo(e *encoder) {
	e.uint64(1, m.TimestampNs)
	if m.SystemMemoryUsage != nil {
		e.message(2, m.SystemMemoryUsage)
	}
	if m.CgroupMemoryUsage != nil {
		e.message(3, m.CgroupMemoryUsage)
	}
	if m.ProcessMemoryUsage != nil {
		e.message(4, m.ProcessMemoryUsage)
	}
}

func (m *MemoryUsageEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.TimestampNs = f.scalar
	case 2:
		m.SystemMemoryUsage = &SystemMemoryUsage{}
		return f.message(m.SystemMemoryUsage)
	case 3:
		m.CgroupMemoryUsage = &CgroupMemoryUsage{}
		return f.message(m.CgroupMemoryUsage)
	case 4:
		m.ProcessMemoryUsage = &ProcessMemoryUsage{}
		return f.message(m.ProcessMemoryUsage)
	}
	return nil
}

// CaptureStarted is the first event of every capture.
type CaptureStarted struct {
	ProcessID               uint32
	ExecutablePath          string
	CaptureStartTimestampNs uint64
	CaptureStartUnixTimeNs  uint64
	CaptureOptions          *CaptureOptions
}

func (m *CaptureStarted) marshalTo(e *encoder) {
	e.uint32(1, m.ProcessID)
	e.string(2, m.ExecutablePath)
	e.uint64(3, m.CaptureStartTimestampNs)
	e.uint64(4, m.CaptureStartUnixTimeNs)
	if m.CaptureOptions != nil {
		e.message(5, m.CaptureOptions)
	}
}

func (m *CaptureStarted) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.ProcessID = f.uint32()
	case 2:
		m.ExecutablePath = f.string()
	case 3:
		m.CaptureStartTimestampNs = f.scalar
	case 4:
		m.CaptureStartUnixTimeNs = f.scalar
	case 5:
		m.CaptureOptions = &CaptureOptions{}
		return f.message(m.CaptureOptions)
	}
	return nil
}

// CaptureFinishedStatus tells whether the service completed the capture.
type CaptureFinishedStatus int32

// Capture finished statuses.
const (
	CaptureFinishedSuccessful CaptureFinishedStatus = iota
	CaptureFinishedFailed
)

// CaptureFinished is the last event of every capture.
type CaptureFinished struct {
	Status       CaptureFinishedStatus
	ErrorMessage string
}

func (m *CaptureFinished) marshalTo(e *encoder) {
	e.int32(1, int32(m.Status))
	e.string(2, m.ErrorMessage)
}

func (m *CaptureFinished) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Status = CaptureFinishedStatus(f.int32())
	case 2:
		m.ErrorMessage = f.string()
	}
	return nil
}

// WarningEvent carries a message the service wants surfaced to the user.
type WarningEvent struct {
	TimestampNs uint64
	Message     string
}

func (m *WarningEvent) marshalTo(e *encoder) {
	e.uint64(1, m.TimestampNs)
	e.string(2, m.Message)
}

func (m *WarningEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.TimestampNs = f.scalar
	case 2:
		m.Message = f.string()
	}
	return nil
}

// ErrorsWithPerfEventOpenEvent lists the perf event kinds the service could
// not open.
type ErrorsWithPerfEventOpenEvent struct {
	TimestampNs  uint64
	FailedToOpen []string
}

func (m *ErrorsWithPerfEventOpenEvent) marshalTo(e *encoder) {
	e.uint64(1, m.TimestampNs)
	for _, name := range m.FailedToOpen {
		e.string(2, name)
	}
}

func (m *ErrorsWithPerfEventOpenEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.TimestampNs = f.scalar
	case 2:
		m.FailedToOpen = append(m.FailedToOpen, f.string())
	}
	return nil
}

// FunctionThatFailedToBeInstrumented is a function the service could not
// instrument, and why.
type FunctionThatFailedToBeInstrumented struct {
	FunctionID   uint64
	ErrorMessage string
}

func (m *FunctionThatFailedToBeInstrumented) marshalTo(e *encoder) {
	e.uint64(1, m.FunctionID)
	e.string(2, m.ErrorMessage)
}

func (m *FunctionThatFailedToBeInstrumented) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.FunctionID = f.scalar
	case 2:
		m.ErrorMessage = f.string()
	}
	return nil
}

// WarningInstrumentingWithUprobesEvent lists the functions uprobes could
// not be attached to.
type WarningInstrumentingWithUprobesEvent struct {
	TimestampNs                     uint64
	FunctionsThatFailedToInstrument []*FunctionThatFailedToBeInstrumented
}

func (m *WarningInstrumentingWithUprobesEvent) marshalTo(e *encoder) {
	e.uint64(1, m.TimestampNs)
	for _, function := range m.FunctionsThatFailedToInstrument {
		e.message(2, function)
	}
}

func (m *WarningInstrumentingWithUprobesEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.TimestampNs = f.scalar
	case 2:
		function := &FunctionThatFailedToBeInstrumented{}
		if err := f.message(function); err != nil {
			return err
		}
		m.FunctionsThatFailedToInstrument = append(m.FunctionsThatFailedToInstrument, function)
	}
	return nil
}

// ErrorEnablingApiEvent reports that manual instrumentation could not be
// enabled in the target.
type ErrorEnablingApiEvent struct {
	TimestampNs uint64
	Message     string
}

func (m *ErrorEnablingApiEvent) marshalTo(e *encoder) {
	e.uint64(1, m.TimestampNs)
	e.string(2, m.Message)
}

func (m *ErrorEnablingApiEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.TimestampNs = f.scalar
	case 2:
		m.Message = f.string()
	}
	return nil
}

// ClockResolutionEvent reports the resolution of the service clock.
type ClockResolutionEvent struct {
	TimestampNs       uint64
	ClockResolutionNs uint64
}

func (m *ClockResolutionEvent) marshalTo(e *encoder) {
	e.uint64(1, m.TimestampNs)
	e.uint64(2, m.ClockResolutionNs)
}

func (m *ClockResolutionEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.TimestampNs = f.scalar
	case 2:
		m.ClockResolutionNs = f.scalar
	}
	return nil
}

// LostPerfRecordsEvent reports a window in which perf records were lost.
type LostPerfRecordsEvent struct {
	DurationNs     uint64
	EndTimestampNs uint64
}

func (m *LostPerfRecordsEvent) marshalTo(e *encoder) {
	e.uint64(1, m.DurationNs)
	e.uint64(2, m.EndTimestampNs)
}

func (m *LostPerfRecordsEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.DurationNs = f.scalar
	case 2:
		m.EndTimestampNs = f.scalar
	}
	return nil
}

// OutOfOrderEventsDiscardedEvent reports a window in which the service
// dropped events that arrived too late to be ordered.
type OutOfOrderEventsDiscardedEvent struct {
	DurationNs     uint64
	EndTimestampNs uint64
}

func (m *OutOfOrderEventsDiscardedEvent) marshalTo(e *encoder) {
	e.uint64(1, m.DurationNs)
	e.uint64(2, m.EndTimestampNs)
}

func (m *OutOfOrderEventsDiscardedEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.DurationNs = f.scalar
	case 2:
		m.EndTimestampNs = f.scalar
	}
	return nil
}

// ApiScopeStart opens a manually instrumented scope on a thread.
type ApiScopeStart struct {
	Pid               uint32
	Tid               uint32
	TimestampNs       uint64
	Name              string
	GroupID           uint64
	AddressInFunction uint64
	ColorRGBA         uint32
}

// ScopeName implements eventid.ScopeEvent.
func (m *ApiScopeStart) ScopeName() string { return m.Name }

// ScopeGroupID implements eventid.ScopeEvent.
func (m *ApiScopeStart) ScopeGroupID() uint64 { return m.GroupID }

func (m *ApiScopeStart) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.TimestampNs)
	e.string(4, m.Name)
	e.uint64(5, m.GroupID)
	e.uint64(6, m.AddressInFunction)
	e.uint32(7, m.ColorRGBA)
}

func (m *ApiScopeStart) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.TimestampNs = f.scalar
	case 4:
		m.Name = f.string()
	case 5:
		m.GroupID = f.scalar
	case 6:
		m.AddressInFunction = f.scalar
	case 7:
		m.ColorRGBA = f.uint32()
	}
	return nil
}

// ApiScopeStop closes the innermost open scope of a thread.
type ApiScopeStop struct {
	Pid         uint32
	Tid         uint32
	TimestampNs uint64
}

func (m *ApiScopeStop) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.TimestampNs)
}

func (m *ApiScopeStop) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.TimestampNs = f.scalar
	}
	return nil
}
