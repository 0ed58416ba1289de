// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package file

import (
	"fmt"
	"sync"
)

const minChunkSize = 4 * 1024

// BufferOutputStream is an append-only byte sink. Writers reserve space with
// Next and return the unused tail with BackUp; a reader periodically moves the
// committed bytes out with TakeBuffer.
//
// Next, BackUp and TakeBuffer are individually atomic but a Next/BackUp pair
// must not be interleaved with TakeBuffer.
type BufferOutputStream struct {
	mu        sync.Mutex
	buf       []byte
	reserved  int
	byteCount int64
}

// NewBufferOutputStream returns an empty stream.
func NewBufferOutputStream() *BufferOutputStream {
	return &BufferOutputStream{}
}

// Next reserves a writable chunk at the end of the buffer and returns it.
// Every byte of the chunk counts as written until BackUp says otherwise.
func (s *BufferOutputStream) Next() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == cap(s.buf) {
		s.grow()
	}
	start := len(s.buf)
	s.buf = s.buf[:cap(s.buf)]
	s.reserved = len(s.buf) - start
	s.byteCount += int64(s.reserved)
	return s.buf[start:]
}

func (s *BufferOutputStream) grow() {
	newCap := 2 * cap(s.buf)
	if newCap < minChunkSize {
		newCap = minChunkSize
	}
	grown := make([]byte, len(s.buf), newCap)
	copy(grown, s.buf)
	s.buf = grown
}

// BackUp returns the last count bytes of the chunk handed out by the previous
// call to Next.
func (s *BufferOutputStream) BackUp(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count < 0 || count > s.reserved {
		panic(fmt.Sprintf("BackUp(%d) exceeds the %d bytes reserved by Next", count, s.reserved))
	}
	s.buf = s.buf[:len(s.buf)-count]
	s.reserved = 0
	s.byteCount -= int64(count)
}

// TakeBuffer moves every committed byte out of the stream. The next write
// starts a fresh buffer.
func (s *BufferOutputStream) TakeBuffer() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := s.buf
	s.buf = nil
	s.reserved = 0
	return taken
}

// Write appends p to the stream. It never fails.
func (s *BufferOutputStream) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		chunk := s.Next()
		n := copy(chunk, p[written:])
		s.BackUp(len(chunk) - n)
		written += n
	}
	return written, nil
}

// Len returns the number of bytes waiting to be taken.
func (s *BufferOutputStream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// ByteCount returns the number of bytes committed since creation.
func (s *BufferOutputStream) ByteCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byteCount
}
