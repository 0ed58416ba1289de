// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package modules

import (
	"context"
	"sort"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/DataDog/capture-agent/pkg/util/log"
)

// ProcessInfo describes a process that can be captured.
type ProcessInfo struct {
	Pid         int32
	Name        string
	Executable  string
	CommandLine string
	CPUPercent  float64
	RSS         uint64
}

// ListProcesses returns the running processes sorted by pid. Attributes that
// cannot be read, typically for lack of permission, are left empty.
func ListProcesses(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info := ProcessInfo{Pid: p.Pid}
		if info.Name, err = p.NameWithContext(ctx); err != nil {
			log.Tracef("Unable to read name of process %d: %v", p.Pid, err)
		}
		if info.Executable, err = p.ExeWithContext(ctx); err != nil {
			log.Tracef("Unable to read executable of process %d: %v", p.Pid, err)
		}
		if info.CommandLine, err = p.CmdlineWithContext(ctx); err != nil {
			log.Tracef("Unable to read command line of process %d: %v", p.Pid, err)
		}
		if info.CPUPercent, err = p.CPUPercentWithContext(ctx); err != nil {
			log.Tracef("Unable to read cpu usage of process %d: %v", p.Pid, err)
		}
		if memory, err := p.MemoryInfoWithContext(ctx); err == nil && memory != nil {
			info.RSS = memory.RSS
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Pid < infos[j].Pid })
	return infos, nil
}
