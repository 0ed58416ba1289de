// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package subcommands lists the subcommands of capture-agent.
package subcommands

import (
	"github.com/DataDog/capture-agent/cmd/capture-agent/command"
	cmdcapture "github.com/DataDog/capture-agent/cmd/capture-agent/subcommands/capture"
	cmdexport "github.com/DataDog/capture-agent/cmd/capture-agent/subcommands/export"
	cmdinspect "github.com/DataDog/capture-agent/cmd/capture-agent/subcommands/inspect"
	cmdmodules "github.com/DataDog/capture-agent/cmd/capture-agent/subcommands/modules"
	cmdprocesses "github.com/DataDog/capture-agent/cmd/capture-agent/subcommands/processes"
	cmdversion "github.com/DataDog/capture-agent/cmd/capture-agent/subcommands/version"
)

// CaptureAgentSubcommands returns SubcommandFactories for the subcommands
// supported with the current build flags.
func CaptureAgentSubcommands() []command.SubcommandFactory {
	return []command.SubcommandFactory{
		cmdprocesses.Commands,
		cmdmodules.Commands,
		cmdcapture.Commands,
		cmdinspect.Commands,
		cmdexport.Commands,
		cmdversion.Commands,
	}
}
