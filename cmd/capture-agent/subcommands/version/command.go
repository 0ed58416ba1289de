// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package version implements 'capture-agent version'.
package version

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DataDog/capture-agent/cmd/capture-agent/command"
	"github.com/DataDog/capture-agent/pkg/capture/file"
	"github.com/DataDog/capture-agent/pkg/version"
)

// Commands returns a slice of subcommands for the 'capture-agent' command.
func Commands(_ *command.GlobalParams) []*cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version info",
		Long:  ``,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
	return []*cobra.Command{versionCmd}
}

func printVersion(w io.Writer) {
	commit := version.Commit
	if commit == "" {
		commit = "unknown"
	}
	fmt.Fprintf(w, "Capture agent %s - Commit: %s - Capture file version: %s - Go version: %s\n",
		color.CyanString(version.AgentVersion),
		color.GreenString(commit),
		color.YellowString(fmt.Sprint(file.Version)),
		color.RedString(runtime.Version()),
	)
}
