// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import "github.com/DataDog/capture-agent/pkg/proto/capturepb"

func (p *Processor) processSystemMemoryUsage(timestampNs uint64, e *capturepb.SystemMemoryUsage) {
	p.listener.OnSystemMemoryInfo(SystemMemoryInfo{
		TimestampNs: timestampNs,
		TotalKb:     e.TotalKb,
		FreeKb:      e.FreeKb,
		AvailableKb: e.AvailableKb,
		BuffersKb:   e.BuffersKb,
		CachedKb:    e.CachedKb,
	})
}

// processMemoryUsageEvent splits a memory sample by what it holds: system
// usage alone, cgroup and process usage together, and page faults when all
// three are present.
func (p *Processor) processMemoryUsageEvent(e *capturepb.MemoryUsageEvent) {
	system, cgroup, process := e.SystemMemoryUsage, e.CgroupMemoryUsage, e.ProcessMemoryUsage

	if system != nil {
		p.processSystemMemoryUsage(e.TimestampNs, system)
	}
	if cgroup == nil || process == nil {
		return
	}

	cgroupNameHash := p.internString(cgroup.CgroupName)
	p.listener.OnCgroupAndProcessMemoryInfo(CgroupAndProcessMemoryInfo{
		TimestampNs:           e.TimestampNs,
		CgroupNameHash:        cgroupNameHash,
		CgroupLimitBytes:      cgroup.LimitBytes,
		CgroupRssBytes:        cgroup.RssBytes,
		CgroupMappedFileBytes: cgroup.MappedFileBytes,
		ProcessRssAnonKb:      process.RssAnonKb,
	})

	if system == nil {
		return
	}
	p.listener.OnPageFaultsInfo(PageFaultsInfo{
		TimestampNs:            e.TimestampNs,
		SystemPageFaults:       system.Pgfault,
		SystemMajorPageFaults:  system.Pgmajfault,
		CgroupNameHash:         cgroupNameHash,
		CgroupPageFaults:       cgroup.Pgfault,
		CgroupMajorPageFaults:  cgroup.Pgmajfault,
		ProcessMinorPageFaults: process.Minflt,
		ProcessMajorPageFaults: process.Majflt,
	})
}
