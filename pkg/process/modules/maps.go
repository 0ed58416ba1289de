// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package modules

import (
	"math"
	"strings"

	"github.com/DataDog/capture-agent/pkg/util/log"
)

// MapEntry is one line of /proc/<pid>/maps.
type MapEntry struct {
	Start      uint64
	End        uint64
	Readable   bool
	Writable   bool
	Executable bool
	Offset     uint64
	Inode      uint64
	Path       string
}

// Policy controls how mappings become modules.
type Policy struct {
	// MergeExecutableMaps turns every executable mapping of a file, up to the
	// next file, into one module spanning all of them. Without it each
	// executable mapping is its own module.
	MergeExecutableMaps bool
}

// DefaultPolicy merges executable mappings.
var DefaultPolicy = Policy{MergeExecutableMaps: true}

// ModuleCandidate is a file with at least one executable mapping, before its
// object file was read.
type ModuleCandidate struct {
	Path         string
	AddressStart uint64
	AddressEnd   uint64
}

// ReadModulesFromMaps returns the executable file mappings of entries.
// Device files and mappings without a backing file are skipped.
func ReadModulesFromMaps(entries []MapEntry, policy Policy) []ModuleCandidate {
	var candidates []ModuleCandidate

	var current *ModuleCandidate
	currentPath := ""
	flush := func() {
		if current != nil && current.AddressStart < current.AddressEnd {
			candidates = append(candidates, *current)
		}
		current = nil
	}

	for _, entry := range entries {
		// [heap], [stack], [vdso] and friends
		if entry.Inode == 0 && entry.Path != "" {
			continue
		}

		if entry.Inode != 0 {
			if entry.Path == "" {
				log.Debugf("Mapping at %#x-%#x has inode %d but no path", entry.Start, entry.End, entry.Inode)
				flush()
				currentPath = ""
				continue
			}
			if entry.Path != currentPath {
				flush()
				currentPath = entry.Path
			}
		}

		// anonymous executable memory belongs to no module
		if !entry.Executable || entry.Inode == 0 || strings.HasPrefix(entry.Path, "/dev/") {
			continue
		}

		if current == nil || !policy.MergeExecutableMaps {
			flush()
			current = &ModuleCandidate{Path: entry.Path, AddressStart: math.MaxUint64}
		} else {
			log.Tracef("Adding another executable map at %#x-%#x for %q", entry.Start, entry.End, entry.Path)
		}
		if entry.Start < current.AddressStart {
			current.AddressStart = entry.Start
		}
		if entry.End > current.AddressEnd {
			current.AddressEnd = entry.End
		}
	}
	flush()
	return candidates
}
