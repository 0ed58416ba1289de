// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build linux

package modules

import (
	"os"

	"github.com/prometheus/procfs"
)

func procPath() string {
	if v := os.Getenv("HOST_PROC"); v != "" {
		return v
	}
	return procfs.DefaultMountPoint
}

// ReadMaps returns the memory mappings of process pid.
func ReadMaps(pid int) ([]MapEntry, error) {
	return ReadMapsFrom(procPath(), pid)
}

// ReadMapsFrom returns the mappings of process pid under the proc file
// system mounted at procRoot.
func ReadMapsFrom(procRoot string, pid int) ([]MapEntry, error) {
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return nil, err
	}
	proc, err := fs.Proc(pid)
	if err != nil {
		return nil, err
	}
	maps, err := proc.ProcMaps()
	if err != nil {
		return nil, err
	}

	entries := make([]MapEntry, 0, len(maps))
	for _, m := range maps {
		entry := MapEntry{
			Start:  uint64(m.StartAddr),
			End:    uint64(m.EndAddr),
			Offset: uint64(m.Offset),
			Inode:  m.Inode,
			Path:   m.Pathname,
		}
		if m.Perms != nil {
			entry.Readable = m.Perms.Read
			entry.Writable = m.Perms.Write
			entry.Executable = m.Perms.Execute
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
