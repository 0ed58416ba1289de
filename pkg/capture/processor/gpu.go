// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import "github.com/DataDog/capture-agent/pkg/proto/capturepb"

// Labels of the GPU job timers.
const (
	TimelineLabel    = "timeline"
	SwQueueLabel     = "sw queue"
	HwQueueLabel     = "hw queue"
	HwExecutionLabel = "hw execution"
)

// gpuStage is one of the three intervals of a GPU job.
type gpuStage struct {
	label      string
	start, end uint64
}

// processGpuJob expands a job into its software queue, hardware queue and
// hardware execution timers, all on the timeline of the job, then pairs it
// with its queue submission.
func (p *Processor) processGpuJob(e *capturepb.GpuJob) {
	timeline, ok := p.resolveString(e.Timeline, e.TimelineKey)
	if !ok {
		p.dropUnknownKey(capturepb.KindGpuJob, "timeline", e.TimelineKey)
		return
	}

	p.internString(TimelineLabel)
	timelineHash := p.internString(timeline)

	stages := []gpuStage{
		{label: SwQueueLabel, start: e.AmdgpuCsIoctlTimeNs, end: e.AmdgpuSchedRunJobTimeNs},
		{label: HwQueueLabel, start: e.AmdgpuSchedRunJobTimeNs, end: e.GpuHardwareStartTimeNs},
		{label: HwExecutionLabel, start: e.GpuHardwareStartTimeNs, end: e.DmaFenceSignaledTimeNs},
	}
	keys := make([]uint64, len(stages))
	for i, stage := range stages {
		keys[i] = p.internString(stage.label)
	}

	degraded := false
	for i, stage := range stages {
		timer := Timer{
			Start:        stage.start,
			End:          stage.end,
			ProcessID:    e.Pid,
			ThreadID:     e.Tid,
			Depth:        e.Depth,
			Processor:    NoProcessor,
			TimelineHash: timelineHash,
			UserDataKey:  keys[i],
			Type:         TimerGpuActivity,
		}
		if p.emitTimer(timer) {
			degraded = true
		}
	}
	if degraded {
		p.stats.degradedGpuJobs.Inc()
	}

	p.matchGpuJob(e, timelineHash)
}
