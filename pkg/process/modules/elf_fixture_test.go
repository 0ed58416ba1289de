// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package modules

import (
	"bytes"
	"debug/elf" //nolint:depguard
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	fixtureTextOffset  = 0x100
	fixtureTextAddress = 0x401100
	fixtureLoadBias    = fixtureTextAddress - fixtureTextOffset
)

type fixtureSymbol struct {
	name    string
	address uint64
	size    uint64
	info    byte
}

var fixtureSymbols = []fixtureSymbol{
	{name: "main", address: fixtureTextAddress, size: 8, info: byte(elf.STB_GLOBAL)<<4 | byte(elf.STT_FUNC)},
	{name: "capture_start", address: fixtureTextAddress + 8, size: 8, info: byte(elf.STB_GLOBAL)<<4 | byte(elf.STT_FUNC)},
	{name: "counter", address: fixtureTextAddress + 16, size: 4, info: byte(elf.STB_GLOBAL)<<4 | byte(elf.STT_OBJECT)},
}

var fixtureBuildID = []byte{0xca, 0xfe, 0xf0, 0x0d}

type stringTable struct {
	data []byte
}

// add appends name and returns its offset. Offset 0 is the empty name.
func (s *stringTable) add(name string) uint32 {
	if len(s.data) == 0 {
		s.data = []byte{0}
	}
	offset := uint32(len(s.data))
	s.data = append(append(s.data, name...), 0)
	return offset
}

// writeElfFixture writes a small x86-64 shared object with one executable
// PT_LOAD segment, a GNU build id note and a static symbol table.
func writeElfFixture(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	write := func(v interface{}) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	align := func(n int) {
		for buf.Len()%n != 0 {
			buf.WriteByte(0)
		}
	}

	var shstrtab, strtab stringTable

	// header and program header are patched once offsets are known
	buf.Write(make([]byte, fixtureTextOffset))

	textOffset := buf.Len()
	buf.Write(bytes.Repeat([]byte{0xc3}, 24))
	align(4)

	noteOffset := buf.Len()
	buf.Write(note("GNU\x00", ntGnuBuildID, fixtureBuildID))
	noteSize := buf.Len() - noteOffset
	align(8)

	symtabOffset := buf.Len()
	write(elf.Sym64{})
	for _, symbol := range fixtureSymbols {
		write(elf.Sym64{
			Name:  strtab.add(symbol.name),
			Info:  symbol.info,
			Shndx: 1,
			Value: symbol.address,
			Size:  symbol.size,
		})
	}
	symtabSize := buf.Len() - symtabOffset

	strtabOffset := buf.Len()
	buf.Write(strtab.data)

	sections := []elf.Section64{
		{},
		{
			Name: shstrtab.add(".text"), Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Addr: fixtureTextAddress, Off: uint64(textOffset), Size: 24, Addralign: 16,
		},
		{
			Name: shstrtab.add(".note.gnu.build-id"), Type: uint32(elf.SHT_NOTE), Flags: uint64(elf.SHF_ALLOC),
			Off: uint64(noteOffset), Size: uint64(noteSize), Addralign: 4,
		},
		{
			Name: shstrtab.add(".symtab"), Type: uint32(elf.SHT_SYMTAB), Off: uint64(symtabOffset), Size: uint64(symtabSize),
			Link: 4, Info: 1, Addralign: 8, Entsize: uint64(elf.Sym64Size),
		},
		{
			Name: shstrtab.add(".strtab"), Type: uint32(elf.SHT_STRTAB), Off: uint64(strtabOffset), Size: uint64(len(strtab.data)),
			Addralign: 1,
		},
	}
	shstrtabName := shstrtab.add(".shstrtab")
	shstrtabOffset := buf.Len()
	buf.Write(shstrtab.data)
	sections = append(sections, elf.Section64{
		Name: shstrtabName, Type: uint32(elf.SHT_STRTAB), Off: uint64(shstrtabOffset), Size: uint64(len(shstrtab.data)),
		Addralign: 1,
	})
	align(8)

	sectionsOffset := buf.Len()
	for _, section := range sections {
		write(section)
	}

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var head bytes.Buffer
	require.NoError(t, binary.Write(&head, binary.LittleEndian, elf.Header64{
		Ident:     ident,
		Type:      uint16(elf.ET_DYN),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     fixtureTextAddress,
		Phoff:     64,
		Shoff:     uint64(sectionsOffset),
		Ehsize:    64,
		Phentsize: 56,
		Phnum:     1,
		Shentsize: 64,
		Shnum:     uint16(len(sections)),
		Shstrndx:  uint16(len(sections) - 1),
	}))
	require.NoError(t, binary.Write(&head, binary.LittleEndian, elf.Prog64{
		Type:   uint32(elf.PT_LOAD),
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Off:    fixtureTextOffset,
		Vaddr:  fixtureTextAddress,
		Paddr:  fixtureTextAddress,
		Filesz: 24,
		Memsz:  24,
		Align:  0x1000,
	}))

	content := buf.Bytes()
	copy(content, head.Bytes())

	path := filepath.Join(t.TempDir(), "libfixture.so")
	require.NoError(t, os.WriteFile(path, content, 0o755))
	return path
}
