// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package modules

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
	"github.com/DataDog/capture-agent/pkg/util/log"
	"github.com/DataDog/capture-agent/pkg/util/safeelf"
)

const (
	ntGnuBuildID = 3
	// DefaultObjectFileCacheSize bounds the number of object files whose
	// metadata is kept.
	DefaultObjectFileCacheSize = 256
)

// ObjectFileInfo is the metadata of an object file needed to place its
// symbols in memory.
type ObjectFileInfo struct {
	Name                    string
	FileSize                uint64
	BuildID                 string
	LoadBias                uint64
	ExecutableSegmentOffset uint64
	Soname                  string
	ObjectFileType          capturepb.ObjectFileType
}

// ReadObjectFile reads the metadata of the ELF file at path.
func ReadObjectFile(path string) (ObjectFileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return ObjectFileInfo{}, err
	}
	f, err := safeelf.Open(path)
	if err != nil {
		return ObjectFileInfo{}, fmt.Errorf("unable to create module from object file %s: %w", path, err)
	}
	defer f.Close()

	info := ObjectFileInfo{
		Name:           filepath.Base(path),
		FileSize:       uint64(stat.Size()),
		ObjectFileType: capturepb.ObjectFileElf,
	}

	found := false
	for _, prog := range f.Progs {
		if prog.Type != safeelf.PT_LOAD || prog.Flags&safeelf.PF_X == 0 {
			continue
		}
		info.LoadBias = prog.Vaddr - prog.Off
		info.ExecutableSegmentOffset = prog.Off
		found = true
		break
	}
	if !found {
		return ObjectFileInfo{}, fmt.Errorf("unable to get load bias of ELF file %s: no executable PT_LOAD segment found", path)
	}

	if sonames, err := safeelf.DynString(f, safeelf.DT_SONAME); err != nil {
		log.Debugf("Unable to read soname of %s: %v", path, err)
	} else if len(sonames) > 0 {
		info.Soname = sonames[0]
		info.Name = sonames[0]
	}

	info.BuildID = readBuildID(f)
	return info, nil
}

func readBuildID(f *safeelf.File) string {
	for _, section := range f.Sections {
		if section.Type != safeelf.SHT_NOTE {
			continue
		}
		data, err := section.Data()
		if err != nil {
			continue
		}
		if id, ok := parseGnuBuildID(data, f.ByteOrder); ok {
			return id
		}
	}
	return ""
}

// parseGnuBuildID walks the notes of an SHT_NOTE section.
func parseGnuBuildID(notes []byte, order binary.ByteOrder) (string, bool) {
	align4 := func(n uint32) uint32 { return (n + 3) &^ 3 }
	for len(notes) >= 12 {
		nameSize := order.Uint32(notes[0:4])
		descSize := order.Uint32(notes[4:8])
		noteType := order.Uint32(notes[8:12])
		notes = notes[12:]

		nameEnd := align4(nameSize)
		descEnd := nameEnd + align4(descSize)
		if uint64(descEnd) > uint64(len(notes)) {
			return "", false
		}
		name := notes[:nameSize]
		if noteType == ntGnuBuildID && string(name) == "GNU\x00" {
			return hex.EncodeToString(notes[nameEnd : nameEnd+descSize]), true
		}
		notes = notes[descEnd:]
	}
	return "", false
}

type objectFileKey struct {
	path    string
	size    int64
	modTime time.Time
}

// ObjectFileCache keeps the metadata of recently read object files. A file
// that changed on disk is read again.
type ObjectFileCache struct {
	mu    sync.Mutex
	cache *simplelru.LRU[objectFileKey, ObjectFileInfo]
}

// NewObjectFileCache returns a cache of at most size entries.
func NewObjectFileCache(size int) (*ObjectFileCache, error) {
	if size <= 0 {
		size = DefaultObjectFileCacheSize
	}
	cache, err := simplelru.NewLRU[objectFileKey, ObjectFileInfo](size, nil)
	if err != nil {
		return nil, err
	}
	return &ObjectFileCache{cache: cache}, nil
}

// Get returns the metadata of the object file at path.
func (c *ObjectFileCache) Get(path string) (ObjectFileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return ObjectFileInfo{}, err
	}
	key := objectFileKey{path: path, size: stat.Size(), modTime: stat.ModTime()}

	c.mu.Lock()
	info, ok := c.cache.Get(key)
	c.mu.Unlock()
	if ok {
		return info, nil
	}

	info, err = ReadObjectFile(path)
	if err != nil {
		return ObjectFileInfo{}, err
	}
	c.mu.Lock()
	c.cache.Add(key, info)
	c.mu.Unlock()
	return info, nil
}

// Len returns the number of cached entries.
func (c *ObjectFileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// CreateModule combines a candidate mapping with its object file.
func CreateModule(candidate ModuleCandidate, cache *ObjectFileCache) (ModuleInfo, error) {
	info, err := cache.Get(candidate.Path)
	if err != nil {
		return ModuleInfo{}, err
	}
	return ModuleInfo{
		Name:                    info.Name,
		FilePath:                candidate.Path,
		FileSize:                info.FileSize,
		AddressStart:            candidate.AddressStart,
		AddressEnd:              candidate.AddressEnd,
		BuildID:                 info.BuildID,
		LoadBias:                info.LoadBias,
		ExecutableSegmentOffset: info.ExecutableSegmentOffset,
		Soname:                  info.Soname,
		ObjectFileType:          info.ObjectFileType,
	}, nil
}

// ReadModules returns the modules of process pid. Mappings whose file cannot
// be read as an object file are logged and skipped.
func ReadModules(pid int, policy Policy, cache *ObjectFileCache) (*Snapshot, error) {
	if pid <= 0 {
		return nil, errors.New("invalid pid")
	}
	entries, err := ReadMaps(pid)
	if err != nil {
		return nil, fmt.Errorf("unable to read mappings of process %d: %w", pid, err)
	}

	var modules []ModuleInfo
	for _, candidate := range ReadModulesFromMaps(entries, policy) {
		module, err := CreateModule(candidate, cache)
		if err != nil {
			log.Debugf("Unable to create module %s of process %d: %v", candidate.Path, pid, err)
			continue
		}
		modules = append(modules, module)
	}
	return NewSnapshot(uint32(pid), modules), nil
}
