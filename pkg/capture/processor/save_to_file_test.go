// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/capture-agent/pkg/capture/file"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.orbit")
	var reported []error

	p, err := NewSaveToFileProcessor(path, func(err error) { reported = append(reported, err) })
	require.NoError(t, err)

	events := []*capturepb.ClientCaptureEvent{
		wrap(&capturepb.CaptureStarted{ProcessID: 1}),
		wrap(&capturepb.SchedulingSlice{Core: 1, InTimestampNs: 1, OutTimestampNs: 2}),
		wrap(&capturepb.CaptureFinished{}),
	}
	for _, event := range events {
		p.ProcessEvent(event)
	}
	p.ProcessEvent(wrap(&capturepb.ThreadName{Tid: 1, Name: "late"}))

	assert.Empty(t, reported)
	assert.Equal(t, SaveFinished, p.State())
	assert.NoError(t, p.Close())

	cf, err := file.OpenForReadWrite(path)
	require.NoError(t, err)
	defer cf.Close()

	reader := cf.CaptureSectionReader()
	for _, expected := range events {
		event, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, expected.Kind(), event.Kind())
	}
	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}

type failingStream struct {
	writes int
	closed bool
}

func (s *failingStream) WriteCaptureEvent(*capturepb.ClientCaptureEvent) error {
	s.writes++
	if s.writes > 1 {
		return errors.New("disk full")
	}
	return nil
}

func (s *failingStream) Close() error {
	s.closed = true
	return nil
}

func (s *failingStream) IsOpen() bool {
	return !s.closed
}

func TestSaveToFileReportsFirstError(t *testing.T) {
	stream := &failingStream{}
	var reported []error

	p := NewSaveToStreamProcessor(stream, "capture.orbit", func(err error) { reported = append(reported, err) })
	p.ProcessEvent(wrap(&capturepb.CaptureStarted{}))
	p.ProcessEvent(wrap(&capturepb.SchedulingSlice{}))
	p.ProcessEvent(wrap(&capturepb.SchedulingSlice{}))
	p.ProcessEvent(wrap(&capturepb.CaptureFinished{}))

	require.Len(t, reported, 1)
	assert.ErrorContains(t, reported[0], "disk full")
	assert.Equal(t, SaveErrorReported, p.State())
	assert.Equal(t, 2, stream.writes)
	assert.False(t, stream.closed)
}

func TestNewSaveToFileProcessorFails(t *testing.T) {
	_, err := NewSaveToFileProcessor(filepath.Join(t.TempDir(), "missing", "capture.orbit"), nil)
	assert.Error(t, err)
}

func TestCompositeProcessor(t *testing.T) {
	first := newRecordingListener()
	second := newRecordingListener()
	composite := NewCompositeProcessor(New(first, Options{}), New(second, Options{}))

	composite.ProcessEvent(wrap(&capturepb.SchedulingSlice{Core: 1, InTimestampNs: 1, OutTimestampNs: 2}))

	assert.Len(t, first.timers, 1)
	assert.Equal(t, first.timers, second.timers)
}
