// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package collector

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/capture-agent/pkg/capture/file"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

func testEvents(n int) []*capturepb.ClientCaptureEvent {
	events := []*capturepb.ClientCaptureEvent{
		{Event: &capturepb.CaptureStarted{ProcessID: 42, CaptureStartTimestampNs: 1}},
	}
	for i := 0; i < n; i++ {
		events = append(events, &capturepb.ClientCaptureEvent{Event: &capturepb.SchedulingSlice{
			Pid: 42, Tid: uint32(i), Core: 1, InTimestampNs: uint64(10 * i), OutTimestampNs: uint64(10*i + 5),
		}})
	}
	return append(events, &capturepb.ClientCaptureEvent{Event: &capturepb.CaptureFinished{}})
}

func fileModeBytes(t *testing.T, events []*capturepb.ClientCaptureEvent) []byte {
	path := filepath.Join(t.TempDir(), "capture.orbit")
	stream, err := file.CreateOutputStream(path)
	require.NoError(t, err)
	for _, event := range events {
		require.NoError(t, stream.WriteCaptureEvent(event))
	}
	require.NoError(t, stream.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestUploaderMatchesFileOutput(t *testing.T) {
	events := testEvents(500)
	uploader, err := NewUploader(UploaderOptions{EventThreshold: 64, MaxWait: 50 * time.Millisecond})
	require.NoError(t, err)

	go func() {
		for _, event := range events {
			uploader.AddEvent(event)
		}
	}()

	var uploaded bytes.Buffer
	dest := make([]byte, 7)
	for uploader.DetermineDataReadiness() != EndOfData {
		n := uploader.ReadIntoBuffer(dest)
		uploaded.Write(dest[:n])
	}

	assert.Equal(t, uploader.TotalFramedBytes(), int64(uploaded.Len()))
	assert.Equal(t, fileModeBytes(t, events), uploaded.Bytes())
	assert.Zero(t, uploader.ReadIntoBuffer(dest))
}

func TestUploaderReader(t *testing.T) {
	events := testEvents(20)
	uploader, err := NewUploader(UploaderOptions{EventThreshold: 5, MaxWait: 10 * time.Millisecond})
	require.NoError(t, err)

	go func() {
		for _, event := range events {
			uploader.ProcessEvent(event)
			time.Sleep(time.Millisecond)
		}
	}()

	uploaded, err := io.ReadAll(uploader.Reader())
	require.NoError(t, err)
	assert.Equal(t, fileModeBytes(t, events), uploaded)
}

func TestUploaderReadiness(t *testing.T) {
	uploader, err := NewUploader(UploaderOptions{EventThreshold: 10, MaxWait: 10 * time.Millisecond})
	require.NoError(t, err)

	// the header is framed on creation
	assert.Equal(t, HasData, uploader.DetermineDataReadiness())
	assert.Equal(t, int64(file.HeaderSize), uploader.TotalFramedBytes())

	dest := make([]byte, 64)
	start := time.Now()
	n := uploader.ReadIntoBuffer(dest)
	assert.Equal(t, file.HeaderSize, n)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, WaitingForData, uploader.DetermineDataReadiness())

	uploader.AddEvent(&capturepb.ClientCaptureEvent{Event: &capturepb.CaptureFinished{}})
	assert.Equal(t, HasData, uploader.DetermineDataReadiness())

	n = uploader.ReadIntoBuffer(dest)
	assert.Positive(t, n)
	assert.Equal(t, EndOfData, uploader.DetermineDataReadiness())
	assert.Equal(t, uploader.TotalFramedBytes(), int64(file.HeaderSize+n))
}

func TestUploaderIgnoresEventsAfterFinish(t *testing.T) {
	uploader, err := NewUploader(UploaderOptions{})
	require.NoError(t, err)

	uploader.AddEvent(&capturepb.ClientCaptureEvent{Event: &capturepb.CaptureFinished{}})
	total := uploader.TotalFramedBytes()
	uploader.AddEvent(&capturepb.ClientCaptureEvent{Event: &capturepb.ThreadName{Pid: 1, Tid: 1, Name: "late"}})
	assert.Equal(t, total, uploader.TotalFramedBytes())
}

func TestUploaderFinishWithoutCaptureFinished(t *testing.T) {
	uploader, err := NewUploader(UploaderOptions{EventThreshold: 100, MaxWait: time.Minute})
	require.NoError(t, err)
	uploader.AddEvent(&capturepb.ClientCaptureEvent{Event: &capturepb.ThreadName{Pid: 1, Tid: 1, Name: "main"}})

	done := make(chan []byte)
	go func() {
		b, _ := io.ReadAll(uploader.Reader())
		done <- b
	}()
	uploader.Finish()

	select {
	case b := <-done:
		assert.Equal(t, uploader.TotalFramedBytes(), int64(len(b)))
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not see the end of the upload")
	}
}
