// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/DataDog/capture-agent/pkg/process/modules"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

// ApiFunction is the manual instrumentation entry point of a module.
type ApiFunction struct {
	modules.Function
	APIVersion uint32
}

// Options describes a capture. It is immutable once passed to Capture.
type Options struct {
	Pid                          uint32
	SamplesPerSecond             float64
	UnwindingMethod              capturepb.UnwindingMethod
	StackDumpSize                uint32
	CollectSchedulingInfo        bool
	CollectThreadStates          bool
	CollectGpuJobs               bool
	CollectMemoryInfo            bool
	MemorySamplingPeriod         time.Duration
	EnableAPI                    bool
	EnableIntrospection          bool
	DynamicInstrumentationMethod capturepb.DynamicInstrumentationMethod
	RecordArguments              bool
	RecordReturnValues           bool
	Tracepoints                  []*capturepb.TracepointInfo

	// Functions are instrumented with ids 1 to len(Functions), in order.
	Functions    []modules.Function
	ApiFunctions []ApiFunction
	// Modules of the target, needed to place Functions and ApiFunctions.
	Modules *modules.Snapshot
}

func (o Options) findModule(path string) (*modules.ModuleInfo, error) {
	if o.Modules == nil {
		return nil, fmt.Errorf("no module snapshot to place functions of %s", path)
	}
	module, ok := o.Modules.FindModuleByPath(path)
	if !ok {
		return nil, fmt.Errorf("module %s is not loaded by process %d", path, o.Pid)
	}
	return module, nil
}

// ToCaptureOptions returns the options sent to the capture service.
func (o Options) ToCaptureOptions() (*capturepb.CaptureOptions, error) {
	if o.UnwindingMethod == capturepb.UnwindingUndefined {
		return nil, errors.New("no unwinding method selected")
	}
	method := o.DynamicInstrumentationMethod
	if method == capturepb.InstrumentationUndefined {
		method = capturepb.InstrumentationKernelUprobes
	}

	options := &capturepb.CaptureOptions{
		Pid:                          o.Pid,
		SamplesPerSecond:             o.SamplesPerSecond,
		UnwindingMethod:              o.UnwindingMethod,
		StackDumpSize:                o.StackDumpSize,
		TraceContextSwitches:         o.CollectSchedulingInfo,
		TraceThreadState:             o.CollectThreadStates,
		TraceGpuDriver:               o.CollectGpuJobs,
		CollectMemoryInfo:            o.CollectMemoryInfo,
		MemorySamplingPeriodNs:       uint64(o.MemorySamplingPeriod.Nanoseconds()),
		EnableAPI:                    o.EnableAPI,
		EnableIntrospection:          o.EnableIntrospection,
		InstrumentedTracepoints:      o.Tracepoints,
		DynamicInstrumentationMethod: method,
	}

	for i, function := range o.Functions {
		module, err := o.findModule(function.ModulePath)
		if err != nil {
			return nil, fmt.Errorf("unable to instrument %s: %w", function.Name, err)
		}
		options.InstrumentedFunctions = append(options.InstrumentedFunctions, &capturepb.InstrumentedFunction{
			FilePath:               function.ModulePath,
			FileOffset:             function.VirtualAddress - module.LoadBias,
			FileBuildID:            function.BuildID,
			FunctionID:             uint64(i + 1),
			FunctionVirtualAddress: function.VirtualAddress,
			FunctionSize:           function.Size,
			FunctionName:           function.Name,
			RecordArguments:        o.RecordArguments,
			RecordReturnValue:      o.RecordReturnValues,
		})
	}

	for _, function := range o.ApiFunctions {
		module, err := o.findModule(function.ModulePath)
		if err != nil {
			return nil, fmt.Errorf("unable to enable api %s: %w", function.Name, err)
		}
		options.ApiFunctions = append(options.ApiFunctions, &capturepb.ApiFunction{
			ModulePath:      function.ModulePath,
			ModuleBuildID:   function.BuildID,
			RelativeAddress: function.VirtualAddress,
			AbsoluteAddress: modules.SymbolVirtualAddressToAbsoluteAddress(
				function.VirtualAddress, module.AddressStart, module.LoadBias, module.ExecutableSegmentOffset),
			Name:       function.Name,
			APIVersion: function.APIVersion,
		})
	}
	return options, nil
}
