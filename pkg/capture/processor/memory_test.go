// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import (
	"testing"

	"github.com/twmb/murmur3"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

func TestMemoryUsageEvent(t *testing.T) {
	cgroupHash := murmur3.StringSum64("capture.slice")

	listener := newMockListener(t)
	listener.On("OnSystemMemoryInfo", SystemMemoryInfo{TimestampNs: 10, TotalKb: 100, FreeKb: 50, AvailableKb: 60, BuffersKb: 5, CachedKb: 20}).Once()
	listener.On("OnKeyAndString", cgroupHash, "capture.slice").Once()
	listener.On("OnCgroupAndProcessMemoryInfo", CgroupAndProcessMemoryInfo{
		TimestampNs:           10,
		CgroupNameHash:        cgroupHash,
		CgroupLimitBytes:      1 << 30,
		CgroupRssBytes:        4096,
		CgroupMappedFileBytes: 512,
		ProcessRssAnonKb:      12,
	}).Once()
	listener.On("OnPageFaultsInfo", PageFaultsInfo{
		TimestampNs:            10,
		SystemPageFaults:       70,
		SystemMajorPageFaults:  7,
		CgroupNameHash:         cgroupHash,
		CgroupPageFaults:       30,
		CgroupMajorPageFaults:  3,
		ProcessMinorPageFaults: 20,
		ProcessMajorPageFaults: 2,
	}).Once()

	p := New(listener, Options{})
	p.ProcessEvent(wrap(&capturepb.MemoryUsageEvent{
		TimestampNs: 10,
		SystemMemoryUsage: &capturepb.SystemMemoryUsage{
			TotalKb: 100, FreeKb: 50, AvailableKb: 60, BuffersKb: 5, CachedKb: 20, Pgfault: 70, Pgmajfault: 7,
		},
		CgroupMemoryUsage: &capturepb.CgroupMemoryUsage{
			CgroupName: "capture.slice", LimitBytes: 1 << 30, RssBytes: 4096, MappedFileBytes: 512, Pgfault: 30, Pgmajfault: 3,
		},
		ProcessMemoryUsage: &capturepb.ProcessMemoryUsage{Pid: 5, RssAnonKb: 12, Minflt: 20, Majflt: 2},
	}))
}

func TestMemoryUsageEventWithoutSystemUsage(t *testing.T) {
	cgroupHash := murmur3.StringSum64("capture.slice")

	listener := newMockListener(t)
	listener.On("OnKeyAndString", cgroupHash, "capture.slice").Once()
	listener.On("OnCgroupAndProcessMemoryInfo", CgroupAndProcessMemoryInfo{
		TimestampNs:    20,
		CgroupNameHash: cgroupHash,
		CgroupRssBytes: 4096,
	}).Twice()

	p := New(listener, Options{})
	for i := 0; i < 2; i++ {
		p.ProcessEvent(wrap(&capturepb.MemoryUsageEvent{
			TimestampNs:        20,
			CgroupMemoryUsage:  &capturepb.CgroupMemoryUsage{CgroupName: "capture.slice", RssBytes: 4096},
			ProcessMemoryUsage: &capturepb.ProcessMemoryUsage{Pid: 5},
		}))
	}
}

func TestMemoryUsageEventSystemOnly(t *testing.T) {
	listener := newMockListener(t)
	listener.On("OnSystemMemoryInfo", SystemMemoryInfo{TimestampNs: 30, TotalKb: 100}).Once()

	p := New(listener, Options{})
	p.ProcessEvent(wrap(&capturepb.MemoryUsageEvent{
		TimestampNs:       30,
		SystemMemoryUsage: &capturepb.SystemMemoryUsage{TotalKb: 100, Pgfault: 9},
		CgroupMemoryUsage: &capturepb.CgroupMemoryUsage{CgroupName: "capture.slice"},
	}))
}
