// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package common holds helpers shared by the capture-agent subcommands.
package common

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/DataDog/capture-agent/pkg/capture/processor"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

// Summary is a Listener that tallies what a capture contained.
type Summary struct {
	processor.NopListener `yaml:"-"`

	Started         bool              `yaml:"started"`
	Pid             uint32            `yaml:"pid"`
	Executable      string            `yaml:"executable,omitempty"`
	Finished        bool              `yaml:"finished"`
	Status          string            `yaml:"status,omitempty"`
	ErrorMessage    string            `yaml:"error_message,omitempty"`
	DurationNs      uint64            `yaml:"duration_ns"`
	Timers          map[string]uint64 `yaml:"timers"`
	Samples         uint64            `yaml:"callstack_samples"`
	Callstacks      uint64            `yaml:"unique_callstacks"`
	Threads         uint64            `yaml:"threads"`
	ThreadStates    uint64            `yaml:"thread_state_slices"`
	Tracepoints     uint64            `yaml:"tracepoint_events"`
	Modules         uint64            `yaml:"modules"`
	MemorySamples   uint64            `yaml:"memory_samples"`
	TrackValues     uint64            `yaml:"api_track_values"`
	LostPerfRecords uint64            `yaml:"lost_perf_record_events"`
	LostDurationNs  uint64            `yaml:"lost_duration_ns"`
	Warnings        []string          `yaml:"warnings,omitempty"`
	Errors          []string          `yaml:"errors,omitempty"`

	firstTimestampNs uint64
	lastTimestampNs  uint64
	threadIDs        map[uint32]struct{}
	modulePaths      map[string]struct{}
}

var _ processor.Listener = (*Summary)(nil)

// NewSummary returns an empty Summary.
func NewSummary() *Summary {
	return &Summary{
		Timers:      make(map[string]uint64),
		threadIDs:   make(map[uint32]struct{}),
		modulePaths: make(map[string]struct{}),
	}
}

func (s *Summary) observe(timestampNs uint64) {
	if timestampNs == 0 {
		return
	}
	if s.firstTimestampNs == 0 || timestampNs < s.firstTimestampNs {
		s.firstTimestampNs = timestampNs
	}
	if timestampNs > s.lastTimestampNs {
		s.lastTimestampNs = timestampNs
	}
	s.DurationNs = s.lastTimestampNs - s.firstTimestampNs
}

func (s *Summary) OnCaptureStarted(started *capturepb.CaptureStarted) {
	s.Started = true
	s.Pid = started.ProcessID
	s.Executable = started.ExecutablePath
	s.observe(started.CaptureStartTimestampNs)
}

func (s *Summary) OnCaptureFinished(finished *capturepb.CaptureFinished) {
	s.Finished = true
	if finished.Status == capturepb.CaptureFinishedFailed {
		s.Status = "failed"
	} else {
		s.Status = "successful"
	}
	s.ErrorMessage = finished.ErrorMessage
}

func (s *Summary) OnTimer(timer processor.Timer) {
	s.Timers[timer.Type.String()]++
	s.observe(timer.Start)
	s.observe(timer.End)
	s.addThread(timer.ThreadID)
}

func (s *Summary) OnUniqueCallstack(uint64, processor.CallstackInfo) {
	s.Callstacks++
}

func (s *Summary) OnCallstackEvent(event processor.CallstackEvent) {
	s.Samples++
	s.observe(event.TimestampNs)
	s.addThread(event.ThreadID)
}

func (s *Summary) OnThreadName(tid uint32, _ string) {
	s.addThread(tid)
}

func (s *Summary) OnThreadStateSlice(processor.ThreadStateSliceInfo) {
	s.ThreadStates++
}

func (s *Summary) OnTracepointEvent(processor.TracepointEventInfo) {
	s.Tracepoints++
}

func (s *Summary) OnModuleUpdate(_ uint64, module *capturepb.ModuleInfo) {
	s.addModule(module)
}

func (s *Summary) OnModulesSnapshot(_ uint64, modules []*capturepb.ModuleInfo) {
	for _, module := range modules {
		s.addModule(module)
	}
}

func (s *Summary) OnSystemMemoryInfo(processor.SystemMemoryInfo) {
	s.MemorySamples++
}

func (s *Summary) OnWarningEvent(event *capturepb.WarningEvent) {
	s.Warnings = append(s.Warnings, event.Message)
}

func (s *Summary) OnApiTrackValue(processor.ApiTrackValue) {
	s.TrackValues++
}

func (s *Summary) OnErrorsWithPerfEventOpenEvent(event *capturepb.ErrorsWithPerfEventOpenEvent) {
	s.Errors = append(s.Errors, "unable to open perf events: "+strings.Join(event.FailedToOpen, ", "))
}

func (s *Summary) OnWarningInstrumentingWithUprobesEvent(event *capturepb.WarningInstrumentingWithUprobesEvent) {
	for _, function := range event.FunctionsThatFailedToInstrument {
		s.Warnings = append(s.Warnings, fmt.Sprintf("function %d not instrumented: %s", function.FunctionID, function.ErrorMessage))
	}
}

func (s *Summary) OnErrorEnablingApiEvent(event *capturepb.ErrorEnablingApiEvent) {
	s.Errors = append(s.Errors, "unable to enable manual instrumentation: "+event.Message)
}

func (s *Summary) OnLostPerfRecords(event *capturepb.LostPerfRecordsEvent) {
	s.LostPerfRecords++
	s.LostDurationNs += event.DurationNs
}

func (s *Summary) addThread(tid uint32) {
	if tid == 0 {
		return
	}
	if _, ok := s.threadIDs[tid]; !ok {
		s.threadIDs[tid] = struct{}{}
		s.Threads = uint64(len(s.threadIDs))
	}
}

func (s *Summary) addModule(module *capturepb.ModuleInfo) {
	if _, ok := s.modulePaths[module.FilePath]; !ok {
		s.modulePaths[module.FilePath] = struct{}{}
		s.Modules = uint64(len(s.modulePaths))
	}
}

// WriteYAML writes the summary as a YAML document.
func (s *Summary) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(s); err != nil {
		return err
	}
	return encoder.Close()
}

// WriteTable writes the summary as a two column table.
func (s *Summary) WriteTable(w io.Writer) {
	status := color.GreenString(s.Status)
	switch {
	case !s.Finished:
		status = color.YellowString("incomplete")
	case s.Status == "failed":
		status = color.RedString("failed: %s", s.ErrorMessage)
	}

	table := NewTable(w, []string{"Item", "Value"})
	table.Append([]string{"Process", fmt.Sprintf("%d %s", s.Pid, s.Executable)})
	table.Append([]string{"Status", status})
	table.Append([]string{"Duration", FormatDuration(s.DurationNs)})
	table.Append([]string{"Callstack samples", humanize.Comma(int64(s.Samples))})
	table.Append([]string{"Unique callstacks", humanize.Comma(int64(s.Callstacks))})

	types := make([]string, 0, len(s.Timers))
	for timerType := range s.Timers {
		types = append(types, timerType)
	}
	sort.Strings(types)
	for _, timerType := range types {
		table.Append([]string{"Timers (" + timerType + ")", humanize.Comma(int64(s.Timers[timerType]))})
	}

	table.Append([]string{"Threads", strconv.FormatUint(s.Threads, 10)})
	table.Append([]string{"Thread state slices", humanize.Comma(int64(s.ThreadStates))})
	table.Append([]string{"Tracepoint events", humanize.Comma(int64(s.Tracepoints))})
	table.Append([]string{"Modules", strconv.FormatUint(s.Modules, 10)})
	if s.MemorySamples > 0 {
		table.Append([]string{"Memory samples", humanize.Comma(int64(s.MemorySamples))})
	}
	if s.TrackValues > 0 {
		table.Append([]string{"Track values", humanize.Comma(int64(s.TrackValues))})
	}
	if s.LostPerfRecords > 0 {
		table.Append([]string{"Lost perf records", color.YellowString("%s events over %s", humanize.Comma(int64(s.LostPerfRecords)), FormatDuration(s.LostDurationNs))})
	}
	for _, warning := range s.Warnings {
		table.Append([]string{"Warning", color.YellowString("%s", warning)})
	}
	for _, err := range s.Errors {
		table.Append([]string{"Error", color.RedString("%s", err)})
	}
	table.Render()
}
