// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package common

import (
	"errors"
	"fmt"

	"github.com/DataDog/capture-agent/pkg/config"
	"github.com/DataDog/capture-agent/pkg/process/modules"
)

// ReadSnapshot reads the modules of pid with the configured policy.
func ReadSnapshot(cfg config.Reader, pid int) (*modules.Snapshot, error) {
	if pid <= 0 {
		return nil, errors.New("a positive --pid is required")
	}
	cache, err := modules.NewObjectFileCache(cfg.GetInt(config.ElfCacheSize))
	if err != nil {
		return nil, err
	}
	policy := modules.Policy{MergeExecutableMaps: cfg.GetBool(config.MergeExecutableMaps)}
	snapshot, err := modules.ReadModules(pid, policy, cache)
	if err != nil {
		return nil, fmt.Errorf("unable to read the modules of process %d: %w", pid, err)
	}
	return snapshot, nil
}
