// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package modules inspects the processes a capture can target: their
// executable mappings, the object files behind them and the functions those
// files define.
package modules

import (
	"sort"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

// ModuleInfo is an object file mapped executable into a process.
type ModuleInfo struct {
	Name     string
	FilePath string
	FileSize uint64

	// AddressStart and AddressEnd delimit the executable mappings of the file.
	AddressStart uint64
	AddressEnd   uint64

	BuildID                 string
	LoadBias                uint64
	ExecutableSegmentOffset uint64
	Soname                  string
	ObjectFileType          capturepb.ObjectFileType
}

// Contains reports whether address falls inside the module.
func (m *ModuleInfo) Contains(address uint64) bool {
	return address >= m.AddressStart && address < m.AddressEnd
}

// ToProto returns the wire form of m.
func (m *ModuleInfo) ToProto() *capturepb.ModuleInfo {
	return &capturepb.ModuleInfo{
		Name:                    m.Name,
		FilePath:                m.FilePath,
		FileSize:                m.FileSize,
		AddressStart:            m.AddressStart,
		AddressEnd:              m.AddressEnd,
		BuildID:                 m.BuildID,
		LoadBias:                m.LoadBias,
		ObjectFileType:          m.ObjectFileType,
		Soname:                  m.Soname,
		ExecutableSegmentOffset: m.ExecutableSegmentOffset,
	}
}

// FromProto converts a module received from the capture service.
func FromProto(m *capturepb.ModuleInfo) ModuleInfo {
	return ModuleInfo{
		Name:                    m.Name,
		FilePath:                m.FilePath,
		FileSize:                m.FileSize,
		AddressStart:            m.AddressStart,
		AddressEnd:              m.AddressEnd,
		BuildID:                 m.BuildID,
		LoadBias:                m.LoadBias,
		ExecutableSegmentOffset: m.ExecutableSegmentOffset,
		Soname:                  m.Soname,
		ObjectFileType:          m.ObjectFileType,
	}
}

// SymbolVirtualAddressToAbsoluteAddress returns where a symbol of an object
// file lives in the memory of a process mapping the file's executable
// segment at moduleBaseAddress.
func SymbolVirtualAddressToAbsoluteAddress(symbolAddress, moduleBaseAddress, moduleLoadBias, moduleExecutableSegmentOffset uint64) uint64 {
	return symbolAddress - moduleLoadBias + moduleBaseAddress - moduleExecutableSegmentOffset
}

// SymbolAbsoluteAddressToOffset is the inverse mapping, to a file offset.
func SymbolAbsoluteAddressToOffset(absoluteAddress, moduleBaseAddress, moduleExecutableSegmentOffset uint64) uint64 {
	return absoluteAddress - moduleBaseAddress + moduleExecutableSegmentOffset
}

// Snapshot is the set of modules of one process, sorted by address.
type Snapshot struct {
	Pid     uint32
	Modules []ModuleInfo
}

// NewSnapshot sorts modules by start address.
func NewSnapshot(pid uint32, modules []ModuleInfo) *Snapshot {
	sorted := append([]ModuleInfo(nil), modules...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AddressStart < sorted[j].AddressStart
	})
	return &Snapshot{Pid: pid, Modules: sorted}
}

// FindModuleByAddress returns the module whose address range contains
// address.
func (s *Snapshot) FindModuleByAddress(address uint64) (*ModuleInfo, bool) {
	i := sort.Search(len(s.Modules), func(i int) bool {
		return s.Modules[i].AddressEnd > address
	})
	if i < len(s.Modules) && s.Modules[i].Contains(address) {
		return &s.Modules[i], true
	}
	return nil, false
}

// FindModuleByPath returns the first module backed by path.
func (s *Snapshot) FindModuleByPath(path string) (*ModuleInfo, bool) {
	for i := range s.Modules {
		if s.Modules[i].FilePath == path {
			return &s.Modules[i], true
		}
	}
	return nil, false
}

// ToProto returns the modules in wire form.
func (s *Snapshot) ToProto() []*capturepb.ModuleInfo {
	modules := make([]*capturepb.ModuleInfo, 0, len(s.Modules))
	for i := range s.Modules {
		modules = append(modules, s.Modules[i].ToProto())
	}
	return modules
}
