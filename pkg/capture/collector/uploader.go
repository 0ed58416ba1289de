// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package collector

import (
	"io"
	"sync"
	"time"

	"github.com/DataDog/capture-agent/pkg/capture/file"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

// DataReadiness tells an uploader whether it can read now.
type DataReadiness int

const (
	// HasData means ReadIntoBuffer returns bytes right away.
	HasData DataReadiness = iota
	// WaitingForData means more events are expected.
	WaitingForData
	// EndOfData means the capture ended and every byte was read.
	EndOfData
)

func (r DataReadiness) String() string {
	switch r {
	case HasData:
		return "has_data"
	case WaitingForData:
		return "waiting_for_data"
	default:
		return "end_of_data"
	}
}

// Default uploader options.
const (
	DefaultEventThreshold = 1000
	DefaultMaxWait        = time.Second
)

// UploaderOptions configures an Uploader.
type UploaderOptions struct {
	// EventThreshold is the number of new events a refill waits for.
	EventThreshold int
	// MaxWait bounds the time a refill waits for them.
	MaxWait time.Duration
}

// Uploader frames the events of a capture in the capture file format and
// exposes the bytes through a pull interface. One goroutine adds events while
// another reads; both are serialized on one mutex.
type Uploader struct {
	options UploaderOptions

	mu     sync.Mutex
	cond   *sync.Cond
	buffer *file.BufferOutputStream
	stream file.OutputStream

	pendingEvents int
	finished      bool

	// data is the chunk being handed out, cursor the next byte to hand out
	data   []byte
	cursor int
}

var _ ClientCaptureEventCollector = (*Uploader)(nil)

// NewUploader returns an uploader whose stream starts with the capture file
// header.
func NewUploader(options UploaderOptions) (*Uploader, error) {
	if options.EventThreshold <= 0 {
		options.EventThreshold = DefaultEventThreshold
	}
	if options.MaxWait <= 0 {
		options.MaxWait = DefaultMaxWait
	}

	buffer := file.NewBufferOutputStream()
	stream, err := file.CreateBufferedOutputStream(buffer)
	if err != nil {
		return nil, err
	}
	u := &Uploader{
		options: options,
		buffer:  buffer,
		stream:  stream,
	}
	u.cond = sync.NewCond(&u.mu)
	return u, nil
}

// AddEvent frames event. CaptureFinished closes the stream.
func (u *Uploader) AddEvent(event *capturepb.ClientCaptureEvent) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		log.Debugf("Uploader ignores %s event received after the end of the capture", event.Kind())
		return
	}
	if err := u.stream.WriteCaptureEvent(event); err != nil {
		log.Errorf("Unable to frame %s event for upload, ending the upload: %v", event.Kind(), err)
		u.finishLocked()
		return
	}
	u.pendingEvents++

	if event.Kind() == capturepb.KindCaptureFinished {
		u.finishLocked()
		return
	}
	if u.pendingEvents >= u.options.EventThreshold {
		u.cond.Broadcast()
	}
}

// ProcessEvent makes the uploader usable as an event processor.
func (u *Uploader) ProcessEvent(event *capturepb.ClientCaptureEvent) {
	u.AddEvent(event)
}

// Finish ends a capture that stopped without CaptureFinished.
func (u *Uploader) Finish() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.finished {
		u.finishLocked()
	}
}

func (u *Uploader) finishLocked() {
	if u.stream.IsOpen() {
		if err := u.stream.Close(); err != nil {
			log.Warnf("Unable to close upload stream: %v", err)
		}
	}
	u.finished = true
	u.cond.Broadcast()
}

// DetermineDataReadiness reports whether bytes are available, expected, or
// all read.
func (u *Uploader) DetermineDataReadiness() DataReadiness {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cursor < len(u.data) || u.buffer.Len() > 0 {
		return HasData
	}
	if u.finished {
		return EndOfData
	}
	return WaitingForData
}

// ReadIntoBuffer copies up to len(dest) bytes into dest and returns how many
// it copied. When the current chunk is exhausted it refills from the framed
// stream, waiting at most MaxWait for EventThreshold new events or the end of
// the capture. It returns 0 once every byte was read.
func (u *Uploader) ReadIntoBuffer(dest []byte) int {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cursor == len(u.data) {
		u.waitForEventsLocked()
		u.data = u.buffer.TakeBuffer()
		u.cursor = 0
		u.pendingEvents = 0
	}
	n := copy(dest, u.data[u.cursor:])
	u.cursor += n
	return n
}

func (u *Uploader) enoughBufferedLocked() bool {
	return u.finished || u.pendingEvents >= u.options.EventThreshold
}

func (u *Uploader) waitForEventsLocked() {
	if u.enoughBufferedLocked() {
		return
	}
	expired := false
	timer := time.AfterFunc(u.options.MaxWait, func() {
		u.mu.Lock()
		expired = true
		u.mu.Unlock()
		u.cond.Broadcast()
	})
	defer timer.Stop()

	for !expired && !u.enoughBufferedLocked() {
		u.cond.Wait()
	}
}

// TotalFramedBytes returns the number of bytes framed so far, header
// included.
func (u *Uploader) TotalFramedBytes() int64 {
	return u.buffer.ByteCount()
}

// Reader adapts the uploader to io.Reader. Read blocks until bytes are
// available and returns io.EOF once everything was read.
func (u *Uploader) Reader() io.Reader {
	return uploaderReader{u}
}

type uploaderReader struct {
	u *Uploader
}

func (r uploaderReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if n := r.u.ReadIntoBuffer(p); n > 0 {
			return n, nil
		}
		if r.u.DetermineDataReadiness() == EndOfData {
			return 0, io.EOF
		}
	}
}
