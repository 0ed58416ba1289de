// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package file

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

var (
	// ErrStreamClosed is returned when writing to or closing a closed stream.
	ErrStreamClosed = errors.New("capture file output stream is closed")
	// ErrStreamErrored is returned by every call following a failed write.
	ErrStreamErrored = errors.New("capture file output stream is in an error state")
)

const fileWriteBufferSize = 64 * 1024

// OutputStream frames capture events into a capture file container.
type OutputStream interface {
	// WriteCaptureEvent appends one framed event. A failure is terminal.
	WriteCaptureEvent(event *capturepb.ClientCaptureEvent) error
	// Close flushes the stream and releases the underlying sink.
	Close() error
	// IsOpen reports whether the stream still accepts events.
	IsOpen() bool
}

type streamState int

const (
	streamOpen streamState = iota
	streamClosed
	streamErrored
)

// err returns the error matching a stream that is not open.
func (s streamState) err() error {
	switch s {
	case streamClosed:
		return ErrStreamClosed
	case streamErrored:
		return ErrStreamErrored
	}
	return nil
}

func streamingHeader() []byte {
	return appendHeader(make([]byte, 0, HeaderSize), Header{
		Version:              Version,
		CaptureSectionOffset: HeaderSize,
	})
}

func frameEvent(event *capturepb.ClientCaptureEvent) ([]byte, error) {
	payload, err := event.Marshal()
	if err != nil {
		return nil, fmt.Errorf("unable to serialize %s event: %w", event.Kind(), err)
	}
	return capturepb.AppendFramed(nil, payload), nil
}

type fileOutputStream struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	writer  *bufio.Writer
	written int64
	state   streamState
}

// CreateOutputStream creates path, takes an exclusive lock on it, truncates
// it and writes the capture file header. A path locked by another stream is
// left untouched. Any later failure leaves nothing on disk.
func CreateOutputStream(path string) (OutputStream, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to create capture file %q: %w", path, err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to lock capture file %q: %w", path, err)
	}

	s := &fileOutputStream{
		path:   path,
		file:   f,
		writer: bufio.NewWriterSize(f, fileWriteBufferSize),
	}
	if err := f.Truncate(0); err != nil {
		return nil, s.destroy(fmt.Errorf("unable to truncate capture file %q: %w", path, err))
	}
	if err := s.write(streamingHeader()); err != nil {
		return nil, s.destroy(fmt.Errorf("unable to write capture file header to %q: %w", path, err))
	}
	log.Debugf("Created capture file %s", path)
	return s, nil
}

func (s *fileOutputStream) write(b []byte) error {
	n, err := s.writer.Write(b)
	s.written += int64(n)
	return err
}

// destroy closes and removes the file after cause, returning every error
// encountered on the way.
func (s *fileOutputStream) destroy(cause error) error {
	var result *multierror.Error
	result = multierror.Append(result, cause)
	if err := s.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		result = multierror.Append(result, fmt.Errorf("unable to close %q: %w", s.path, err))
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		result = multierror.Append(result, fmt.Errorf("unable to remove %q: %w", s.path, err))
	}
	s.state = streamErrored
	return result.ErrorOrNil()
}

func (s *fileOutputStream) WriteCaptureEvent(event *capturepb.ClientCaptureEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.err(); err != nil {
		return err
	}
	framed, err := frameEvent(event)
	if err != nil {
		return s.destroy(err)
	}
	if err := s.write(framed); err != nil {
		log.Warnf("Write to capture file %s failed, removing it: %v", s.path, err)
		return s.destroy(fmt.Errorf("unable to write to %q: %w", s.path, err))
	}
	return nil
}

func (s *fileOutputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.err(); err != nil {
		return err
	}
	if err := s.writer.Flush(); err != nil {
		return s.destroy(fmt.Errorf("unable to flush %q: %w", s.path, err))
	}
	if err := s.file.Truncate(s.written); err != nil {
		return s.destroy(fmt.Errorf("unable to truncate %q to %d bytes: %w", s.path, s.written, err))
	}
	// closing the descriptor also drops the lock
	if err := s.file.Close(); err != nil {
		return s.destroy(fmt.Errorf("unable to close %q: %w", s.path, err))
	}
	s.state = streamClosed
	log.Debugf("Closed capture file %s after %d bytes", s.path, s.written)
	return nil
}

func (s *fileOutputStream) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == streamOpen
}

type bufferedOutputStream struct {
	mu     sync.Mutex
	buffer io.Writer
	state  streamState
}

// CreateBufferedOutputStream writes the capture file header into buffer and
// returns a stream that frames events into it.
func CreateBufferedOutputStream(buffer *BufferOutputStream) (OutputStream, error) {
	s := &bufferedOutputStream{buffer: buffer}
	if _, err := s.buffer.Write(streamingHeader()); err != nil {
		return nil, fmt.Errorf("unable to write capture file header: %w", err)
	}
	return s, nil
}

func (s *bufferedOutputStream) WriteCaptureEvent(event *capturepb.ClientCaptureEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.err(); err != nil {
		return err
	}
	framed, err := frameEvent(event)
	if err == nil {
		_, err = s.buffer.Write(framed)
	}
	if err != nil {
		s.state = streamErrored
		return err
	}
	return nil
}

func (s *bufferedOutputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.err(); err != nil {
		return err
	}
	s.state = streamClosed
	return nil
}

func (s *bufferedOutputStream) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == streamOpen
}
