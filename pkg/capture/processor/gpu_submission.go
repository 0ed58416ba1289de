// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import (
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

// CommandBufferLabel is the label of GPU command buffer timers.
const CommandBufferLabel = "command buffer"

// savedGpuJob is a GPU job waiting for, or still needed by, its queue
// submission.
type savedGpuJob struct {
	job          *capturepb.GpuJob
	timelineHash uint64
}

// gpuSubmissions pairs GPU jobs with the queue submissions they execute.
// Either side may arrive first; it is kept per thread, ordered by time, until
// the other side shows up and until every debug marker that begins in it has
// been closed.
type gpuSubmissions struct {
	// tid -> amdgpu_cs_ioctl time -> *savedGpuJob
	jobs map[uint32]*treemap.Map
	// tid -> post submission CPU time -> *capturepb.GpuQueueSubmission
	submissions map[uint32]*treemap.Map
	// tid -> post submission CPU time -> begin markers not yet closed
	beginMarkers map[uint32]map[uint64]uint32
}

func newGpuSubmissions() *gpuSubmissions {
	return &gpuSubmissions{
		jobs:         make(map[uint32]*treemap.Map),
		submissions:  make(map[uint32]*treemap.Map),
		beginMarkers: make(map[uint32]map[uint64]uint32),
	}
}

func putInTree(trees map[uint32]*treemap.Map, tid uint32, key uint64, value interface{}) {
	tree, ok := trees[tid]
	if !ok {
		tree = treemap.NewWith(utils.UInt64Comparator)
		trees[tid] = tree
	}
	tree.Put(key, value)
}

func removeFromTree(trees map[uint32]*treemap.Map, tid uint32, key uint64) {
	tree, ok := trees[tid]
	if !ok {
		return
	}
	tree.Remove(key)
	if tree.Empty() {
		delete(trees, tid)
	}
}

// findSubmission returns the submission of tid whose CPU submission window
// contains submitTimeNs.
func (g *gpuSubmissions) findSubmission(tid uint32, submitTimeNs uint64) *capturepb.GpuQueueSubmission {
	tree, ok := g.submissions[tid]
	if !ok {
		return nil
	}
	// first submission ending at or after the job was submitted
	key, value := tree.Ceiling(submitTimeNs)
	if key == nil {
		return nil
	}
	submission := value.(*capturepb.GpuQueueSubmission)
	if submission.Meta().PreSubmissionCpuTimestamp > submitTimeNs {
		return nil
	}
	return submission
}

// findJob returns the only job of tid submitted within [preNs, postNs].
func (g *gpuSubmissions) findJob(tid uint32, preNs, postNs uint64) *savedGpuJob {
	tree, ok := g.jobs[tid]
	if !ok {
		return nil
	}
	first, job := tree.Ceiling(preNs)
	if first == nil {
		return nil
	}
	last, _ := tree.Floor(postNs)
	if last == nil || last.(uint64) != first.(uint64) {
		return nil
	}
	return job.(*savedGpuJob)
}

func (g *gpuSubmissions) hasOpenBeginMarkers(tid uint32, postNs uint64) bool {
	return g.beginMarkers[tid][postNs] > 0
}

// closeBeginMarker accounts for one closed begin marker of a submission,
// forgetting the submission and its job once all of them are closed.
func (g *gpuSubmissions) closeBeginMarker(tid uint32, submitTimeNs, postNs uint64) {
	counts, ok := g.beginMarkers[tid]
	if !ok || counts[postNs] == 0 {
		return
	}
	counts[postNs]--
	if counts[postNs] > 0 {
		return
	}
	delete(counts, postNs)
	if len(counts) == 0 {
		delete(g.beginMarkers, tid)
	}
	removeFromTree(g.jobs, tid, submitTimeNs)
	removeFromTree(g.submissions, tid, postNs)
}

// matchGpuJob emits the timers of the submission job belongs to, if it was
// already received. Otherwise job is kept for it.
func (p *Processor) matchGpuJob(job *capturepb.GpuJob, timelineHash uint64) {
	saved := &savedGpuJob{job: job, timelineHash: timelineHash}
	submission := p.gpu.findSubmission(job.Tid, job.AmdgpuCsIoctlTimeNs)
	if submission == nil || submission.NumBeginMarkers > 0 {
		putInTree(p.gpu.jobs, job.Tid, job.AmdgpuCsIoctlTimeNs, saved)
	}
	if submission == nil {
		return
	}

	postNs := submission.Meta().PostSubmissionCpuTimestamp
	p.emitSubmissionTimers(submission, saved)
	if !p.gpu.hasOpenBeginMarkers(job.Tid, postNs) {
		removeFromTree(p.gpu.submissions, job.Tid, postNs)
	}
}

func (p *Processor) processGpuQueueSubmission(submission *capturepb.GpuQueueSubmission) {
	meta := submission.Meta()
	job := p.gpu.findJob(meta.Tid, meta.PreSubmissionCpuTimestamp, meta.PostSubmissionCpuTimestamp)

	// submissions opening debug markers are kept until the markers close,
	// possibly in a later submission
	if job == nil || submission.NumBeginMarkers > 0 {
		putInTree(p.gpu.submissions, meta.Tid, meta.PostSubmissionCpuTimestamp, submission)
	}
	if submission.NumBeginMarkers > 0 {
		counts, ok := p.gpu.beginMarkers[meta.Tid]
		if !ok {
			counts = make(map[uint64]uint32)
			p.gpu.beginMarkers[meta.Tid] = counts
		}
		counts[meta.PostSubmissionCpuTimestamp] = submission.NumBeginMarkers
	}
	if job == nil {
		return
	}

	submitTimeNs := job.job.AmdgpuCsIoctlTimeNs
	p.emitSubmissionTimers(submission, job)
	if !p.gpu.hasOpenBeginMarkers(meta.Tid, meta.PostSubmissionCpuTimestamp) {
		removeFromTree(p.gpu.jobs, meta.Tid, submitTimeNs)
	}
}

// emitSubmissionTimers converts the GPU timestamps of submission to CPU time,
// taking the begin of its first command buffer as the hardware start of job.
func (p *Processor) emitSubmissionTimers(submission *capturepb.GpuQueueSubmission, job *savedGpuJob) {
	first := submission.FirstCommandBuffer()
	if first == nil {
		if len(submission.CompletedMarkers) > 0 {
			log.Warnf("Discarding %d debug markers of a GPU submission without command buffers", len(submission.CompletedMarkers))
		}
		return
	}
	// the capture started while the submission was executing
	if first.BeginGpuTimestampNs == 0 {
		return
	}
	p.emitCommandBufferTimers(submission, job, first)
	p.emitDebugMarkerTimers(submission, job, first)
}

// toCpuTime maps a GPU timestamp of a submission to the CPU clock.
func toCpuTime(gpuTimestampNs uint64, first *capturepb.GpuCommandBuffer, job *capturepb.GpuJob) uint64 {
	return gpuTimestampNs - first.BeginGpuTimestampNs + job.GpuHardwareStartTimeNs
}

func (p *Processor) emitCommandBufferTimers(submission *capturepb.GpuQueueSubmission, job *savedGpuJob, first *capturepb.GpuCommandBuffer) {
	meta := submission.Meta()
	labelKey := p.internString(CommandBufferLabel)

	for _, info := range submission.SubmitInfos {
		for _, buffer := range info.CommandBuffers {
			start := p.captureStartNs
			if buffer.BeginGpuTimestampNs != 0 {
				start = toCpuTime(buffer.BeginGpuTimestampNs, first, job.job)
			}
			p.emitTimer(Timer{
				Start:        start,
				End:          toCpuTime(buffer.EndGpuTimestampNs, first, job.job),
				ProcessID:    meta.Pid,
				ThreadID:     meta.Tid,
				Depth:        job.job.Depth,
				Processor:    NoProcessor,
				TimelineHash: job.timelineHash,
				UserDataKey:  labelKey,
				Type:         TimerGpuCommandBuffer,
			})
		}
	}
}

type openedBeginMarker struct {
	tid          uint32
	submitTimeNs uint64
	postNs       uint64
}

func (p *Processor) emitDebugMarkerTimers(submission *capturepb.GpuQueueSubmission, job *savedGpuJob, first *capturepb.GpuCommandBuffer) {
	meta := submission.Meta()

	// Closing a begin marker may forget the submission it came from, which
	// can be this one, so it is done once every marker is emitted.
	var opened []openedBeginMarker

	for _, marker := range submission.CompletedMarkers {
		text, ok := p.resolveString(marker.Text, marker.TextKey)
		if !ok {
			p.dropUnknownKey(capturepb.KindGpuQueueSubmission, "debug marker text", marker.TextKey)
			continue
		}

		timer := Timer{
			Start:        p.captureStartNs,
			End:          toCpuTime(marker.EndGpuTimestampNs, first, job.job),
			ProcessID:    meta.Pid,
			ThreadID:     UnknownThreadID,
			Depth:        marker.Depth,
			Processor:    NoProcessor,
			TimelineHash: job.timelineHash,
			UserDataKey:  p.internString(text),
			Type:         TimerGpuDebugMarker,
		}

		if marker.BeginMarker != nil {
			begin := marker.BeginMarker.MetaInfo
			if begin == nil {
				begin = &capturepb.GpuQueueSubmissionMetaInfo{}
			}

			beginFirst := first
			if *begin != *meta {
				beginSubmission := p.gpu.findSubmission(begin.Tid, begin.PostSubmissionCpuTimestamp)
				if beginSubmission == nil {
					log.Debugf("Discarding GPU debug marker %q whose begin submission was not captured", text)
					continue
				}
				if beginFirst = beginSubmission.FirstCommandBuffer(); beginFirst == nil {
					log.Debugf("Discarding GPU debug marker %q whose begin submission has no command buffer", text)
					continue
				}
			}

			var beginSubmitTimeNs uint64
			if beginJob := p.gpu.findJob(begin.Tid, begin.PreSubmissionCpuTimestamp, begin.PostSubmissionCpuTimestamp); beginJob != nil {
				timer.Start = toCpuTime(marker.BeginMarker.GpuTimestampNs, beginFirst, beginJob.job)
				beginSubmitTimeNs = beginJob.job.AmdgpuCsIoctlTimeNs
			}
			if begin.Tid == meta.Tid {
				timer.ThreadID = begin.Tid
			}
			opened = append(opened, openedBeginMarker{tid: begin.Tid, submitTimeNs: beginSubmitTimeNs, postNs: begin.PostSubmissionCpuTimestamp})
		}

		if c := marker.Color; c != nil {
			timer.Color = Color{Red: uint8(c.Red * 255), Green: uint8(c.Green * 255), Blue: uint8(c.Blue * 255), Alpha: uint8(c.Alpha * 255)}
		}
		if groupID, ok := groupIDFromDebugLabel(text); ok {
			timer.GroupID = groupID
		}
		p.emitTimer(timer)
	}

	for _, marker := range opened {
		p.gpu.closeBeginMarker(marker.tid, marker.submitTimeNs, marker.postNs)
	}
}

// groupIDFromDebugLabel extracts the group id DXVK encodes in its debug
// labels as "DXVK__vkFunctionName#GROUP_ID".
func groupIDFromDebugLabel(label string) (uint64, bool) {
	if !strings.Contains(label, "DXVK__") {
		return 0, false
	}
	i := strings.LastIndexByte(label, '#')
	if i < 0 {
		return 0, false
	}
	groupID, err := strconv.ParseUint(label[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return groupID, true
}
