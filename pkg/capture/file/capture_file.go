// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package file

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/DataDog/capture-agent/pkg/util/log"
)

// SectionTypeUserData marks the section holding user edits of a capture. It
// is kept last in the file so that it can grow without moving other data.
const SectionTypeUserData uint64 = 1

// ErrSectionOutOfRange is returned for section I/O outside of the section.
var ErrSectionOutOfRange = errors.New("section access out of range")

// Section describes one additional section of a capture file.
type Section struct {
	Type   uint64
	Offset uint64
	Size   uint64
}

// CaptureFile gives random access to an existing capture file.
type CaptureFile struct {
	path     string
	file     *os.File
	size     uint64
	header   Header
	sections []Section
}

// OpenForReadWrite opens and validates the capture file at path.
func OpenForReadWrite(path string) (*CaptureFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to open capture file %q: %w", path, err)
	}
	cf := &CaptureFile{path: path, file: f}
	if err := cf.load(); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			log.Debugf("Unable to close %s: %v", path, closeErr)
		}
		return nil, err
	}
	return cf, nil
}

func (cf *CaptureFile) load() error {
	info, err := cf.file.Stat()
	if err != nil {
		return err
	}
	cf.size = uint64(info.Size())

	b := make([]byte, HeaderSize)
	n, err := cf.file.ReadAt(b, 0)
	if err != nil && err != io.EOF {
		return err
	}
	if cf.header, err = parseHeader(b[:n], info.Size()); err != nil {
		return err
	}
	if cf.header.CaptureSectionOffset > cf.size {
		return formatErrorf(8, "Capture section offset %d is past the end of the file (%d bytes)", cf.header.CaptureSectionOffset, cf.size)
	}
	if cf.header.SectionListOffset != 0 {
		return cf.readSectionList()
	}
	return nil
}

func (cf *CaptureFile) readSectionList() error {
	offset := cf.header.SectionListOffset
	countBytes := make([]byte, 2)
	if _, err := cf.file.ReadAt(countBytes, int64(offset)); err != nil {
		return formatErrorf(int64(offset), "Unexpected EOF while reading section list")
	}
	count := int(binary.LittleEndian.Uint16(countBytes))

	entries := make([]byte, count*sectionEntrySize)
	if _, err := cf.file.ReadAt(entries, int64(offset)+2); err != nil {
		return formatErrorf(int64(offset)+2, "Unexpected EOF while reading section list")
	}

	cf.sections = make([]Section, 0, count)
	for i := 0; i < count; i++ {
		entry := entries[i*sectionEntrySize:]
		section := Section{
			Type:   binary.LittleEndian.Uint64(entry[0:8]),
			Offset: binary.LittleEndian.Uint64(entry[8:16]),
			Size:   binary.LittleEndian.Uint64(entry[16:24]),
		}
		if section.Size > cf.size || section.Offset > cf.size-section.Size {
			return formatErrorf(int64(offset)+2+int64(i*sectionEntrySize),
				"Section %d (offset %d, size %d) is out of the file bounds (%d bytes)", i, section.Offset, section.Size, cf.size)
		}
		cf.sections = append(cf.sections, section)
	}
	return nil
}

// Header returns the fixed header of the file.
func (cf *CaptureFile) Header() Header {
	return cf.header
}

// SectionList returns a copy of the section descriptors, in file order.
func (cf *CaptureFile) SectionList() []Section {
	return append([]Section(nil), cf.sections...)
}

// FindSectionByType returns the index of the first section of type t.
func (cf *CaptureFile) FindSectionByType(t uint64) (int, bool) {
	for i, section := range cf.sections {
		if section.Type == t {
			return i, true
		}
	}
	return 0, false
}

// captureSectionEnd is the end of the event stream: the first section, else
// the section list, else the end of the file.
func (cf *CaptureFile) captureSectionEnd() uint64 {
	end := cf.size
	if cf.header.SectionListOffset != 0 {
		end = cf.header.SectionListOffset
	}
	for _, section := range cf.sections {
		if section.Offset < end {
			end = section.Offset
		}
	}
	return end
}

// dataEnd is where the next section can start.
func (cf *CaptureFile) dataEnd() uint64 {
	if len(cf.sections) == 0 {
		return cf.captureSectionEnd()
	}
	last := cf.sections[len(cf.sections)-1]
	return last.Offset + last.Size
}

// AddSection reserves size zeroed bytes for a new section of type t and
// returns its index. A user data section always stays the last section, so
// adding another section moves it.
func (cf *CaptureFile) AddSection(t uint64, size uint64) (int, error) {
	if len(cf.sections) >= maxSectionCount {
		return 0, formatErrorf(int64(cf.header.SectionListOffset), "The section list is too large")
	}
	if _, found := cf.FindSectionByType(SectionTypeUserData); found && t == SectionTypeUserData {
		return 0, fmt.Errorf("capture file %q already has a user data section", cf.path)
	}

	sections := append([]Section(nil), cf.sections...)
	var userData []byte
	index := len(sections)
	if index > 0 && sections[index-1].Type == SectionTypeUserData {
		index--
		userData = make([]byte, sections[index].Size)
		if err := cf.readAt(userData, sections[index].Offset); err != nil {
			return 0, err
		}
	}

	start := alignUp(cf.dataEnd())
	if userData != nil {
		start = sections[index].Offset
	}
	added := Section{Type: t, Offset: start, Size: size}
	sections = append(sections[:index], added)
	if err := cf.writeAt(make([]byte, size), start); err != nil {
		return 0, err
	}
	end := start + size

	if userData != nil {
		moved := Section{Type: SectionTypeUserData, Offset: alignUp(end), Size: uint64(len(userData))}
		if err := cf.writeAt(userData, moved.Offset); err != nil {
			return 0, err
		}
		sections = append(sections, moved)
		end = moved.Offset + moved.Size
	}

	if err := cf.writeSectionList(sections, alignUp(end)); err != nil {
		return 0, err
	}
	cf.sections = sections
	log.Debugf("Added section %d (type %d, %d bytes) to %s", index, t, size, cf.path)
	return index, nil
}

// writeSectionList writes sections at offset, points the header to it and
// trims what follows.
func (cf *CaptureFile) writeSectionList(sections []Section, offset uint64) error {
	b := make([]byte, 2, 2+len(sections)*sectionEntrySize)
	binary.LittleEndian.PutUint16(b, uint16(len(sections)))
	for _, section := range sections {
		b = binary.LittleEndian.AppendUint64(b, section.Type)
		b = binary.LittleEndian.AppendUint64(b, section.Offset)
		b = binary.LittleEndian.AppendUint64(b, section.Size)
	}
	if err := cf.writeAt(b, offset); err != nil {
		return err
	}
	end := offset + uint64(len(b))
	if err := cf.file.Truncate(int64(end)); err != nil {
		return fmt.Errorf("unable to truncate %q: %w", cf.path, err)
	}
	cf.size = end

	field := binary.LittleEndian.AppendUint64(nil, offset)
	if err := cf.writeAt(field, 16); err != nil {
		return err
	}
	cf.header.SectionListOffset = offset
	return nil
}

func (cf *CaptureFile) readAt(b []byte, offset uint64) error {
	if _, err := cf.file.ReadAt(b, int64(offset)); err != nil {
		return fmt.Errorf("unable to read %d bytes at %d from %q: %w", len(b), offset, cf.path, err)
	}
	return nil
}

func (cf *CaptureFile) writeAt(b []byte, offset uint64) error {
	if _, err := cf.file.WriteAt(b, int64(offset)); err != nil {
		return fmt.Errorf("unable to write %d bytes at %d to %q: %w", len(b), offset, cf.path, err)
	}
	if end := offset + uint64(len(b)); end > cf.size {
		cf.size = end
	}
	return nil
}

func (cf *CaptureFile) sectionRange(index int, offset uint64, n int) (uint64, error) {
	if index < 0 || index >= len(cf.sections) {
		return 0, fmt.Errorf("section %d of %d: %w", index, len(cf.sections), ErrSectionOutOfRange)
	}
	section := cf.sections[index]
	if offset > section.Size || uint64(n) > section.Size-offset {
		return 0, fmt.Errorf("%d bytes at %d in section %d of size %d: %w", n, offset, index, section.Size, ErrSectionOutOfRange)
	}
	return section.Offset + offset, nil
}

// ReadFromSection fills buf from the section at index, starting offset bytes
// into it.
func (cf *CaptureFile) ReadFromSection(index int, offset uint64, buf []byte) error {
	at, err := cf.sectionRange(index, offset, len(buf))
	if err != nil {
		return err
	}
	return cf.readAt(buf, at)
}

// WriteToSection writes buf into the section at index, starting offset bytes
// into it.
func (cf *CaptureFile) WriteToSection(index int, offset uint64, buf []byte) error {
	at, err := cf.sectionRange(index, offset, len(buf))
	if err != nil {
		return err
	}
	return cf.writeAt(buf, at)
}

// CaptureSectionReader returns a reader over the events of the capture
// section.
func (cf *CaptureFile) CaptureSectionReader() *EventReader {
	start := cf.header.CaptureSectionOffset
	return NewEventReader(io.NewSectionReader(cf.file, int64(start), int64(cf.captureSectionEnd()-start)))
}

// SectionReader returns a reader over framed events stored in the section
// at index.
func (cf *CaptureFile) SectionReader(index int) (*EventReader, error) {
	if index < 0 || index >= len(cf.sections) {
		return nil, fmt.Errorf("section %d of %d: %w", index, len(cf.sections), ErrSectionOutOfRange)
	}
	section := cf.sections[index]
	return NewEventReader(io.NewSectionReader(cf.file, int64(section.Offset), int64(section.Size))), nil
}

// Path returns the path the file was opened from.
func (cf *CaptureFile) Path() string {
	return cf.path
}

// Close releases the file.
func (cf *CaptureFile) Close() error {
	return cf.file.Close()
}
