// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package file

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

func writeCaptureFile(t *testing.T, events ...*capturepb.ClientCaptureEvent) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.orbit")
	s, err := CreateOutputStream(path)
	require.NoError(t, err)
	for _, event := range events {
		require.NoError(t, s.WriteCaptureEvent(event))
	}
	require.NoError(t, s.Close())
	return path
}

func openCaptureFile(t *testing.T, path string) *CaptureFile {
	t.Helper()
	cf, err := OpenForReadWrite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cf.Close() })
	return cf
}

func rawHeader(version uint32, captureOffset, listOffset uint64) []byte {
	return appendHeader(nil, Header{Version: version, CaptureSectionOffset: captureOffset, SectionListOffset: listOffset})
}

func writeRaw(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.orbit")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestOpenForReadWriteFormatErrors(t *testing.T) {
	listTooShort := rawHeader(1, 24, 32)
	listTooShort = append(listTooShort, "12345678"...)
	listTooShort = binary.LittleEndian.AppendUint16(listTooShort, 10)

	listMissing := rawHeader(1, 24, 64)

	tests := []struct {
		name     string
		content  []byte
		expected string
	}{
		{name: "too small", content: []byte("ups"), expected: "Not enough bytes left in the file: 3 < 24"},
		{name: "signature", content: []byte("This is not an Orbit Capture File"), expected: "Invalid file signature"},
		{name: "version", content: rawHeader(0, 0, 0), expected: "Incompatible version 0, expected 1"},
		{name: "truncated section list", content: listTooShort, expected: "Unexpected EOF while reading section list"},
		{name: "section list past the end", content: listMissing, expected: "Unexpected EOF while reading section list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenForReadWrite(writeRaw(t, tt.content))
			require.Error(t, err)
			assert.EqualError(t, err, tt.expected)

			var formatErr *FormatError
			assert.ErrorAs(t, err, &formatErr)
		})
	}
}

func TestOpenForReadWriteSectionOutOfBounds(t *testing.T) {
	content := rawHeader(1, 24, 24)
	content = binary.LittleEndian.AppendUint16(content, 1)
	content = binary.LittleEndian.AppendUint64(content, 5)
	content = binary.LittleEndian.AppendUint64(content, 1000)
	content = binary.LittleEndian.AppendUint64(content, 10)

	_, err := OpenForReadWrite(writeRaw(t, content))
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, int64(26), formatErr.Offset)
}

func TestOpenForReadWriteSectionWrapsAround(t *testing.T) {
	content := rawHeader(1, 24, 24)
	content = binary.LittleEndian.AppendUint16(content, 2)
	content = binary.LittleEndian.AppendUint64(content, 5)
	content = binary.LittleEndian.AppendUint64(content, 24)
	content = binary.LittleEndian.AppendUint64(content, 8)
	// offset + size overflows to a small value
	content = binary.LittleEndian.AppendUint64(content, 6)
	content = binary.LittleEndian.AppendUint64(content, 1<<63)
	content = binary.LittleEndian.AppendUint64(content, 1<<63+16)

	_, err := OpenForReadWrite(writeRaw(t, content))
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, int64(26+24), formatErr.Offset)
	assert.Contains(t, err.Error(), "Section 1 (offset 9223372036854775808, size 9223372036854775824)")
}

func TestAddSection(t *testing.T) {
	path := writeCaptureFile(t, internedString(42, answer), internedString(43, "Some odd number, not the answer."))
	cf := openCaptureFile(t, path)

	index, err := cf.AddSection(SectionTypeUserData, 333)
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	sections := cf.SectionList()
	require.Len(t, sections, 1)
	assert.Equal(t, SectionTypeUserData, sections[0].Type)
	assert.Equal(t, uint64(333), sections[0].Size)
	assert.NotZero(t, sections[0].Offset)
	assert.Zero(t, sections[0].Offset%sectionAlignment)

	something := []byte("seventeen bytes!!")
	require.Len(t, something, 17)
	require.NoError(t, cf.WriteToSection(0, 25, something))
	require.NoError(t, cf.Close())

	reopened := openCaptureFile(t, path)
	assert.Equal(t, sections, reopened.SectionList())

	read := make([]byte, 17)
	require.NoError(t, reopened.ReadFromSection(0, 25, read))
	assert.Equal(t, something, read)

	// the capture section still ends on its own records, followed by at
	// most seven bytes of padding that decode as empty events
	reader := reopened.CaptureSectionReader()
	for i := 0; i < 2; i++ {
		event, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, capturepb.KindInternedString, event.Kind())
	}
	for i := 0; ; i++ {
		require.Less(t, i, sectionAlignment)
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, capturepb.KindUnknown, event.Kind())
	}
}

func TestAddSectionKeepsUserDataLast(t *testing.T) {
	cf := openCaptureFile(t, writeCaptureFile(t, internedString(1, "one")))

	userData, err := cf.AddSection(SectionTypeUserData, 9)
	require.NoError(t, err)
	require.NoError(t, cf.WriteToSection(userData, 0, []byte("something")))

	index, err := cf.AddSection(5, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, index)
	index, err = cf.AddSection(5, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	_, err = cf.AddSection(SectionTypeUserData, 1)
	assert.Error(t, err)

	reopened := openCaptureFile(t, cf.Path())
	sections := reopened.SectionList()
	require.Len(t, sections, 3)
	assert.Equal(t, []uint64{5, 5, SectionTypeUserData}, []uint64{sections[0].Type, sections[1].Type, sections[2].Type})
	for i := 1; i < len(sections); i++ {
		assert.GreaterOrEqual(t, sections[i].Offset, sections[i-1].Offset+sections[i-1].Size)
	}

	found, ok := reopened.FindSectionByType(SectionTypeUserData)
	require.True(t, ok)
	assert.Equal(t, 2, found)
	read := make([]byte, 9)
	require.NoError(t, reopened.ReadFromSection(found, 0, read))
	assert.Equal(t, "something", string(read))

	event, err := reopened.CaptureSectionReader().Next()
	require.NoError(t, err)
	assert.Equal(t, capturepb.KindInternedString, event.Kind())
}

func TestSectionOutOfRange(t *testing.T) {
	cf := openCaptureFile(t, writeCaptureFile(t))
	_, err := cf.AddSection(7, 16)
	require.NoError(t, err)

	assert.ErrorIs(t, cf.ReadFromSection(1, 0, make([]byte, 1)), ErrSectionOutOfRange)
	assert.ErrorIs(t, cf.ReadFromSection(0, 10, make([]byte, 7)), ErrSectionOutOfRange)
	assert.ErrorIs(t, cf.WriteToSection(0, 17, nil), ErrSectionOutOfRange)
	assert.NoError(t, cf.WriteToSection(0, 0, make([]byte, 16)))

	_, err = cf.SectionReader(3)
	assert.ErrorIs(t, err, ErrSectionOutOfRange)
}

func TestSectionReader(t *testing.T) {
	cf := openCaptureFile(t, writeCaptureFile(t))

	finished := &capturepb.ClientCaptureEvent{Event: &capturepb.CaptureFinished{
		Status:       capturepb.CaptureFinishedFailed,
		ErrorMessage: "some error",
	}}
	payload, err := finished.Marshal()
	require.NoError(t, err)
	framed := capturepb.AppendFramed(nil, payload)

	index, err := cf.AddSection(SectionTypeUserData, uint64(len(framed)))
	require.NoError(t, err)
	require.NoError(t, cf.WriteToSection(index, 0, framed))

	reader, err := cf.SectionReader(index)
	require.NoError(t, err)
	event, err := reader.Next()
	require.NoError(t, err)
	result, ok := event.Event.(*capturepb.CaptureFinished)
	require.True(t, ok)
	assert.Equal(t, capturepb.CaptureFinishedFailed, result.Status)
	assert.Equal(t, "some error", result.ErrorMessage)
}
