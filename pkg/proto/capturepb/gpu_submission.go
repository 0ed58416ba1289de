// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package capturepb

// GpuQueueSubmissionMetaInfo identifies a queue submission by its thread and
// the CPU time around the submitting call.
type GpuQueueSubmissionMetaInfo struct {
	Tid                        uint32
	Pid                        uint32
	PreSubmissionCpuTimestamp  uint64
	PostSubmissionCpuTimestamp uint64
}

func (m *GpuQueueSubmissionMetaInfo) marshalTo(e *encoder) {
	e.uint32(1, m.Tid)
	e.uint32(2, m.Pid)
	e.uint64(3, m.PreSubmissionCpuTimestamp)
	e.uint64(4, m.PostSubmissionCpuTimestamp)
}

func (m *GpuQueueSubmissionMetaInfo) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Tid = f.uint32()
	case 2:
		m.Pid = f.uint32()
	case 3:
		m.PreSubmissionCpuTimestamp = f.scalar
	case 4:
		m.PostSubmissionCpuTimestamp = f.scalar
	}
	return nil
}

// GpuCommandBuffer is the GPU time span of one command buffer. A zero begin
// timestamp means the begin was not recorded.
type GpuCommandBuffer struct {
	BeginGpuTimestampNs uint64
	EndGpuTimestampNs   uint64
}

func (m *GpuCommandBuffer) marshalTo(e *encoder) {
	e.uint64(1, m.BeginGpuTimestampNs)
	e.uint64(2, m.EndGpuTimestampNs)
}

func (m *GpuCommandBuffer) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.BeginGpuTimestampNs = f.scalar
	case 2:
		m.EndGpuTimestampNs = f.scalar
	}
	return nil
}

// GpuSubmitInfo groups the command buffers of one submit call.
type GpuSubmitInfo struct {
	CommandBuffers []*GpuCommandBuffer
}

func (m *GpuSubmitInfo) marshalTo(e *encoder) {
	for _, buffer := range m.CommandBuffers {
		e.message(1, buffer)
	}
}

func (m *GpuSubmitInfo) unmarshalField(f field) error {
	if f.num == 1 {
		buffer := &GpuCommandBuffer{}
		if err := f.message(buffer); err != nil {
			return err
		}
		m.CommandBuffers = append(m.CommandBuffers, buffer)
	}
	return nil
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	Red   float32
	Green float32
	Blue  float32
	Alpha float32
}

func (m *Color) marshalTo(e *encoder) {
	e.float(1, m.Red)
	e.float(2, m.Green)
	e.float(3, m.Blue)
	e.float(4, m.Alpha)
}

func (m *Color) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Red = f.float()
	case 2:
		m.Green = f.float()
	case 3:
		m.Blue = f.float()
	case 4:
		m.Alpha = f.float()
	}
	return nil
}

// GpuDebugMarkerBeginInfo locates the begin of a debug marker, which may
// belong to an earlier submission than its end.
type GpuDebugMarkerBeginInfo struct {
	MetaInfo       *GpuQueueSubmissionMetaInfo
	GpuTimestampNs uint64
}

func (m *GpuDebugMarkerBeginInfo) marshalTo(e *encoder) {
	if m.MetaInfo != nil {
		e.message(1, m.MetaInfo)
	}
	e.uint64(2, m.GpuTimestampNs)
}

func (m *GpuDebugMarkerBeginInfo) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.MetaInfo = &GpuQueueSubmissionMetaInfo{}
		return f.message(m.MetaInfo)
	case 2:
		m.GpuTimestampNs = f.scalar
	}
	return nil
}

// GpuDebugMarker is a debug label completed by a submission. Its text is
// given inline or as an interned key. A nil BeginMarker means the begin was
// not captured.
type GpuDebugMarker struct {
	TextKey           uint64
	Color             *Color
	Depth             uint32
	BeginMarker       *GpuDebugMarkerBeginInfo
	EndGpuTimestampNs uint64
	Text              string
}

func (m *GpuDebugMarker) marshalTo(e *encoder) {
	e.uint64(1, m.TextKey)
	if m.Color != nil {
		e.message(2, m.Color)
	}
	e.uint32(3, m.Depth)
	if m.BeginMarker != nil {
		e.message(4, m.BeginMarker)
	}
	e.uint64(5, m.EndGpuTimestampNs)
	e.string(6, m.Text)
}

func (m *GpuDebugMarker) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.TextKey = f.scalar
	case 2:
		m.Color = &Color{}
		return f.message(m.Color)
	case 3:
		m.Depth = f.uint32()
	case 4:
		m.BeginMarker = &GpuDebugMarkerBeginInfo{}
		return f.message(m.BeginMarker)
	case 5:
		m.EndGpuTimestampNs = f.scalar
	case 6:
		m.Text = f.string()
	}
	return nil
}

// GpuQueueSubmission is the command buffers and debug markers of one queue
// submission, timed on the GPU clock. It is matched to the GpuJob the kernel
// reported for the same submission.
type GpuQueueSubmission struct {
	MetaInfo         *GpuQueueSubmissionMetaInfo
	SubmitInfos      []*GpuSubmitInfo
	NumBeginMarkers  uint32
	CompletedMarkers []*GpuDebugMarker
}

func (m *GpuQueueSubmission) marshalTo(e *encoder) {
	if m.MetaInfo != nil {
		e.message(1, m.MetaInfo)
	}
	for _, info := range m.SubmitInfos {
		e.message(2, info)
	}
	e.uint32(3, m.NumBeginMarkers)
	for _, marker := range m.CompletedMarkers {
		e.message(4, marker)
	}
}

func (m *GpuQueueSubmission) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.MetaInfo = &GpuQueueSubmissionMetaInfo{}
		return f.message(m.MetaInfo)
	case 2:
		info := &GpuSubmitInfo{}
		if err := f.message(info); err != nil {
			return err
		}
		m.SubmitInfos = append(m.SubmitInfos, info)
	case 3:
		m.NumBeginMarkers = f.uint32()
	case 4:
		marker := &GpuDebugMarker{}
		if err := f.message(marker); err != nil {
			return err
		}
		m.CompletedMarkers = append(m.CompletedMarkers, marker)
	}
	return nil
}

// Meta returns the meta info of the submission, never nil.
func (m *GpuQueueSubmission) Meta() *GpuQueueSubmissionMetaInfo {
	if m.MetaInfo == nil {
		return &GpuQueueSubmissionMetaInfo{}
	}
	return m.MetaInfo
}

// FirstCommandBuffer returns the first command buffer of the submission,
// nil if it has none.
func (m *GpuQueueSubmission) FirstCommandBuffer() *GpuCommandBuffer {
	for _, info := range m.SubmitInfos {
		if len(info.CommandBuffers) > 0 {
			return info.CommandBuffers[0]
		}
	}
	return nil
}
