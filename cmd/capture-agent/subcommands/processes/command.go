// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package processes implements 'capture-agent processes'.
package processes

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/DataDog/capture-agent/cmd/capture-agent/command"
	"github.com/DataDog/capture-agent/cmd/capture-agent/common"
	"github.com/DataDog/capture-agent/pkg/process/modules"
	"github.com/DataDog/capture-agent/pkg/util/fxutil"
)

// cliParams are the command-line arguments for this subcommand
type cliParams struct {
	*command.GlobalParams

	// filter keeps the processes whose name or command line contains it.
	filter string

	out io.Writer
}

// Commands returns a slice of subcommands for the 'capture-agent' command.
func Commands(globalParams *command.GlobalParams) []*cobra.Command {
	cliParams := &cliParams{
		GlobalParams: globalParams,
	}
	cmd := &cobra.Command{
		Use:   "processes [filter]",
		Short: "List the processes that can be captured",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cliParams.filter = args[0]
			}
			cliParams.out = cmd.OutOrStdout()
			return fxutil.OneShot(listProcesses,
				fx.Supply(cliParams),
				command.Bundle(globalParams),
			)
		},
	}
	return []*cobra.Command{cmd}
}

func listProcesses(cliParams *cliParams) error {
	processes, err := modules.ListProcesses(context.Background())
	if err != nil {
		return fmt.Errorf("unable to list processes: %w", err)
	}
	writeProcesses(cliParams.out, filterProcesses(processes, cliParams.filter))
	return nil
}

func filterProcesses(processes []modules.ProcessInfo, filter string) []modules.ProcessInfo {
	if filter == "" {
		return processes
	}
	var kept []modules.ProcessInfo
	for _, p := range processes {
		if strings.Contains(p.Name, filter) || strings.Contains(p.CommandLine, filter) {
			kept = append(kept, p)
		}
	}
	return kept
}

func writeProcesses(w io.Writer, processes []modules.ProcessInfo) {
	table := common.NewTable(w, []string{"Pid", "Name", "CPU", "RSS", "Command line"})
	for _, p := range processes {
		table.Append([]string{
			fmt.Sprint(p.Pid),
			p.Name,
			fmt.Sprintf("%.1f%%", p.CPUPercent),
			humanize.IBytes(p.RSS),
			p.CommandLine,
		})
	}
	table.Render()
}
