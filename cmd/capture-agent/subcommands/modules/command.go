// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package modules implements 'capture-agent modules'.
package modules

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/DataDog/capture-agent/cmd/capture-agent/command"
	"github.com/DataDog/capture-agent/cmd/capture-agent/common"
	"github.com/DataDog/capture-agent/pkg/config"
	"github.com/DataDog/capture-agent/pkg/process/modules"
	"github.com/DataDog/capture-agent/pkg/util/fxutil"
)

// cliParams are the command-line arguments for this subcommand
type cliParams struct {
	*command.GlobalParams

	pid int

	out io.Writer
}

// Commands returns a slice of subcommands for the 'capture-agent' command.
func Commands(globalParams *command.GlobalParams) []*cobra.Command {
	cliParams := &cliParams{
		GlobalParams: globalParams,
	}
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules loaded by a process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliParams.out = cmd.OutOrStdout()
			return fxutil.OneShot(listModules,
				fx.Supply(cliParams),
				command.Bundle(globalParams),
			)
		},
	}
	cmd.Flags().IntVarP(&cliParams.pid, "pid", "p", 0, "pid of the process")
	_ = cmd.MarkFlagRequired("pid")
	return []*cobra.Command{cmd}
}

func listModules(cliParams *cliParams, cfg config.Config) error {
	snapshot, err := common.ReadSnapshot(cfg, cliParams.pid)
	if err != nil {
		return err
	}
	writeModules(cliParams.out, snapshot.Modules)
	return nil
}

func writeModules(w io.Writer, list []modules.ModuleInfo) {
	table := common.NewTable(w, []string{"Start", "End", "Size", "Build ID", "Path"})
	for _, module := range list {
		table.Append([]string{
			common.FormatAddress(module.AddressStart),
			common.FormatAddress(module.AddressEnd),
			humanize.IBytes(module.FileSize),
			module.BuildID,
			module.FilePath,
		})
	}
	table.Render()
}
