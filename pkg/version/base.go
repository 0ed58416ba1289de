// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package version defines the version of the capture agent
package version

import (
	"fmt"
	"runtime"
)

// AgentVersion contains the version of the capture agent.
// It is populated at build time using -ldflags "-X".
var AgentVersion string

// Commit is populated with the short commit hash from which the agent was built
var Commit string

var agentVersionDefault = "0.1.0"

func init() {
	if AgentVersion == "" {
		AgentVersion = agentVersionDefault
	}
}

// String describes the build in one line.
func String() string {
	commit := Commit
	if commit == "" {
		commit = "unknown"
	}
	return fmt.Sprintf("capture-agent %s (commit %s, %s %s/%s)",
		AgentVersion, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
