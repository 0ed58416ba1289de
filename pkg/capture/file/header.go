// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package file reads and writes capture files.
//
// A capture file starts with a 24 byte header:
//
//	offset  size  content
//	     0     4  signature "ORBT"
//	     4     4  version, little endian, currently 1
//	     8     8  capture section offset, little endian
//	    16     8  section list offset, little endian, 0 when there is none
//
// The capture section is a sequence of varint length prefixed events. Extra
// sections are appended after it on 8 byte boundaries and described by a
// section list: a little endian uint16 count followed by count entries of
// {type, offset, size}, each a little endian uint64.
package file

import (
	"encoding/binary"
	"fmt"
)

const (
	// Signature opens every capture file.
	Signature = "ORBT"
	// Version is the only container version this package understands.
	Version uint32 = 1
	// HeaderSize is the size of the fixed header.
	HeaderSize = 24

	sectionAlignment = 8
	sectionEntrySize = 24
	maxSectionCount  = 1<<16 - 1
)

// Header is the decoded fixed header of a capture file.
type Header struct {
	Version              uint32
	CaptureSectionOffset uint64
	SectionListOffset    uint64
}

// FormatError reports a malformed capture file.
type FormatError struct {
	Offset int64
	Msg    string
}

func (e *FormatError) Error() string {
	return e.Msg
}

func formatErrorf(offset int64, format string, args ...interface{}) *FormatError {
	return &FormatError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func appendHeader(dst []byte, h Header) []byte {
	dst = append(dst, Signature...)
	dst = binary.LittleEndian.AppendUint32(dst, h.Version)
	dst = binary.LittleEndian.AppendUint64(dst, h.CaptureSectionOffset)
	return binary.LittleEndian.AppendUint64(dst, h.SectionListOffset)
}

// parseHeader decodes b, the first bytes of a file of fileSize bytes.
func parseHeader(b []byte, fileSize int64) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, formatErrorf(int64(len(b)), "Not enough bytes left in the file: %d < %d", fileSize, HeaderSize)
	}
	if string(b[:4]) != Signature {
		return Header{}, formatErrorf(0, "Invalid file signature")
	}
	h := Header{
		Version:              binary.LittleEndian.Uint32(b[4:8]),
		CaptureSectionOffset: binary.LittleEndian.Uint64(b[8:16]),
		SectionListOffset:    binary.LittleEndian.Uint64(b[16:24]),
	}
	if h.Version != Version {
		return Header{}, formatErrorf(4, "Incompatible version %d, expected %d", h.Version, Version)
	}
	return h, nil
}

func alignUp(v uint64) uint64 {
	return (v + sectionAlignment - 1) &^ (sectionAlignment - 1)
}
