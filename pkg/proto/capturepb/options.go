// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package capturepb

// UnwindingMethod selects how the service unwinds sampled stacks.
type UnwindingMethod int32

// Unwinding methods.
const (
	UnwindingUndefined UnwindingMethod = iota
	UnwindingFramePointers
	UnwindingDwarf
)

func (u UnwindingMethod) String() string {
	switch u {
	case UnwindingFramePointers:
		return "frame_pointers"
	case UnwindingDwarf:
		return "dwarf"
	default:
		return "undefined"
	}
}

// DynamicInstrumentationMethod selects how functions are instrumented.
type DynamicInstrumentationMethod int32

// Instrumentation methods.
const (
	InstrumentationUndefined DynamicInstrumentationMethod = iota
	InstrumentationKernelUprobes
	InstrumentationUserSpace
)

// InstrumentedFunction is a function the service must hook.
type InstrumentedFunction struct {
	FilePath               string
	FileOffset             uint64
	FileBuildID            string
	FunctionID             uint64
	FunctionVirtualAddress uint64
	FunctionSize           uint64
	FunctionName           string
	RecordArguments        bool
	RecordReturnValue      bool
}

func (m *InstrumentedFunction) marshalTo(e *encoder) {
	e.string(1, m.FilePath)
	e.uint64(2, m.FileOffset)
	e.string(3, m.FileBuildID)
	e.uint64(4, m.FunctionID)
	e.uint64(5, m.FunctionVirtualAddress)
	e.uint64(6, m.FunctionSize)
	e.string(7, m.FunctionName)
	e.bool(8, m.RecordArguments)
	e.bool(9, m.RecordReturnValue)
}

func (m *InstrumentedFunction) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.FilePath = f.string()
	case 2:
		m.FileOffset = f.scalar
	case 3:
		m.FileBuildID = f.string()
	case 4:
		m.FunctionID = f.scalar
	case 5:
		m.FunctionVirtualAddress = f.scalar
	case 6:
		m.FunctionSize = f.scalar
	case 7:
		m.FunctionName = f.string()
	case 8:
		m.RecordArguments = f.bool()
	case 9:
		m.RecordReturnValue = f.bool()
	}
	return nil
}

// ApiFunction locates the manual instrumentation entry point of a module.
type ApiFunction struct {
	ModulePath      string
	ModuleBuildID   string
	RelativeAddress uint64
	AbsoluteAddress uint64
	Name            string
	APIVersion      uint32
}

func (m *ApiFunction) marshalTo(e *encoder) {
	e.string(1, m.ModulePath)
	e.string(2, m.ModuleBuildID)
	e.uint64(3, m.RelativeAddress)
	e.uint64(4, m.AbsoluteAddress)
	e.string(5, m.Name)
	e.uint32(6, m.APIVersion)
}

func (m *ApiFunction) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.ModulePath = f.string()
	case 2:
		m.ModuleBuildID = f.string()
	case 3:
		m.RelativeAddress = f.scalar
	case 4:
		m.AbsoluteAddress = f.scalar
	case 5:
		m.Name = f.string()
	case 6:
		m.APIVersion = f.uint32()
	}
	return nil
}

// CaptureOptions is everything the service needs to start a capture.
type CaptureOptions struct {
	Pid                          uint32
	SamplesPerSecond             float64
	UnwindingMethod              UnwindingMethod
	StackDumpSize                uint32
	TraceContextSwitches         bool
	TraceThreadState             bool
	TraceGpuDriver               bool
	CollectMemoryInfo            bool
	MemorySamplingPeriodNs       uint64
	EnableAPI                    bool
	EnableIntrospection          bool
	InstrumentedFunctions        []*InstrumentedFunction
	InstrumentedTracepoints      []*TracepointInfo
	DynamicInstrumentationMethod DynamicInstrumentationMethod
	ApiFunctions                 []*ApiFunction
}

func (m *CaptureOptions) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.double(2, m.SamplesPerSecond)
	e.int32(3, int32(m.UnwindingMethod))
	e.uint32(4, m.StackDumpSize)
	e.bool(5, m.TraceContextSwitches)
	e.bool(6, m.TraceThreadState)
	e.bool(7, m.TraceGpuDriver)
	e.bool(8, m.CollectMemoryInfo)
	e.uint64(9, m.MemorySamplingPeriodNs)
	e.bool(10, m.EnableAPI)
	e.bool(11, m.EnableIntrospection)
	for _, function := range m.InstrumentedFunctions {
		e.message(12, function)
	}
	for _, tracepoint := range m.InstrumentedTracepoints {
		e.message(13, tracepoint)
	}
	e.int32(14, int32(m.DynamicInstrumentationMethod))
	for _, function := range m.ApiFunctions {
		e.message(15, function)
	}
}

func (m *CaptureOptions) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.SamplesPerSecond = f.double()
	case 3:
		m.UnwindingMethod = UnwindingMethod(f.int32())
	case 4:
		m.StackDumpSize = f.uint32()
	case 5:
		m.TraceContextSwitches = f.bool()
	case 6:
		m.TraceThreadState = f.bool()
	case 7:
		m.TraceGpuDriver = f.bool()
	case 8:
		m.CollectMemoryInfo = f.bool()
	case 9:
		m.MemorySamplingPeriodNs = f.scalar
	case 10:
		m.EnableAPI = f.bool()
	case 11:
		m.EnableIntrospection = f.bool()
	case 12:
		function := &InstrumentedFunction{}
		if err := f.message(function); err != nil {
			return err
		}
		m.InstrumentedFunctions = append(m.InstrumentedFunctions, function)
	case 13:
		tracepoint := &TracepointInfo{}
		if err := f.message(tracepoint); err != nil {
			return err
		}
		m.InstrumentedTracepoints = append(m.InstrumentedTracepoints, tracepoint)
	case 14:
		m.DynamicInstrumentationMethod = DynamicInstrumentationMethod(f.int32())
	case 15:
		function := &ApiFunction{}
		if err := f.message(function); err != nil {
			return err
		}
		m.ApiFunctions = append(m.ApiFunctions, function)
	}
	return nil
}

// MaxFunctionID returns the largest id among the instrumented functions, or
// 0 when there are none.
func (m *CaptureOptions) MaxFunctionID() uint64 {
	if m == nil {
		return 0
	}
	var maxID uint64
	for _, function := range m.InstrumentedFunctions {
		if function.FunctionID > maxID {
			maxID = function.FunctionID
		}
	}
	return maxID
}
