// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package file

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

// ErrUnexpectedEndOfSection is returned when a section ends in the middle of
// a record.
var ErrUnexpectedEndOfSection = errors.New("Unexpected end of section") //nolint:revive

const maxRecordSize = 256 << 20

// EventReader parses varint framed events. It returns io.EOF when the
// underlying reader ends on a record boundary.
type EventReader struct {
	r      *bufio.Reader
	offset int64
}

// NewEventReader returns a reader over the framed events in r.
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{r: bufio.NewReader(r)}
}

// NewStreamReader checks the capture file header at the start of r and
// returns a reader over the events that follow it. It accepts the streaming
// form only, where events directly follow the header.
func NewStreamReader(r io.Reader) (*EventReader, Header, error) {
	b := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, b)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, Header{}, err
	}
	header, err := parseHeader(b[:n], int64(n))
	if err != nil {
		return nil, Header{}, err
	}
	if header.CaptureSectionOffset != HeaderSize {
		return nil, Header{}, formatErrorf(8, "Capture section offset %d does not follow the header", header.CaptureSectionOffset)
	}
	reader := NewEventReader(r)
	reader.offset = HeaderSize
	return reader, header, nil
}

// NextRecord returns the payload of the next record.
func (r *EventReader) NextRecord() ([]byte, error) {
	size, err := binary.ReadUvarint(r.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrUnexpectedEndOfSection
		}
		return nil, fmt.Errorf("invalid record length at offset %d: %w", r.offset, err)
	}
	if size > maxRecordSize {
		return nil, fmt.Errorf("record of %d bytes at offset %d exceeds the %d bytes limit", size, r.offset, maxRecordSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrUnexpectedEndOfSection
		}
		return nil, err
	}
	r.offset += int64(protowire.SizeVarint(size)) + int64(size)
	return payload, nil
}

// Next decodes the next record.
func (r *EventReader) Next() (*capturepb.ClientCaptureEvent, error) {
	offset := r.offset
	payload, err := r.NextRecord()
	if err != nil {
		return nil, err
	}
	event := &capturepb.ClientCaptureEvent{}
	if err := event.Unmarshal(payload); err != nil {
		return nil, fmt.Errorf("malformed event at offset %d: %w", offset, err)
	}
	return event, nil
}

// Offset returns the number of bytes consumed so far, header included for
// readers returned by NewStreamReader.
func (r *EventReader) Offset() int64 {
	return r.offset
}

