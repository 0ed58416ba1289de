// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package inspect implements 'capture-agent inspect'.
package inspect

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/DataDog/capture-agent/cmd/capture-agent/command"
	"github.com/DataDog/capture-agent/cmd/capture-agent/common"
	"github.com/DataDog/capture-agent/pkg/capture/file"
	"github.com/DataDog/capture-agent/pkg/capture/processor"
	"github.com/DataDog/capture-agent/pkg/config"
	"github.com/DataDog/capture-agent/pkg/util/fxutil"
)

// cliParams are the command-line arguments for this subcommand
type cliParams struct {
	*command.GlobalParams

	path string
	yaml bool

	out io.Writer
}

// Commands returns a slice of subcommands for the 'capture-agent' command.
func Commands(globalParams *command.GlobalParams) []*cobra.Command {
	cliParams := &cliParams{
		GlobalParams: globalParams,
	}
	cmd := &cobra.Command{
		Use:   "inspect <capture file>",
		Short: "Summarize the content of a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliParams.path = args[0]
			cliParams.out = cmd.OutOrStdout()
			return fxutil.OneShot(inspect,
				fx.Supply(cliParams),
				command.Bundle(globalParams),
			)
		},
	}
	cmd.Flags().BoolVar(&cliParams.yaml, "yaml", false, "print the summary as YAML")
	return []*cobra.Command{cmd}
}

func inspect(cliParams *cliParams, cfg config.Config) error {
	captureFile, err := file.OpenForReadWrite(cliParams.path)
	if err != nil {
		return err
	}
	defer captureFile.Close()

	summary := common.NewSummary()
	eventProcessor := processor.New(summary, processor.Options{
		TimestampSlack: uint64(cfg.GetDuration(config.TimestampSlack)),
	})
	reader := captureFile.CaptureSectionReader()
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s at offset %d: %w", cliParams.path, reader.Offset(), err)
		}
		eventProcessor.ProcessEvent(event)
	}

	if cliParams.yaml {
		return summary.WriteYAML(cliParams.out)
	}

	header := captureFile.Header()
	fmt.Fprintf(cliParams.out, "%s: format version %d, %d events\n\n", cliParams.path, header.Version, eventProcessor.Stats().EventsProcessed)
	summary.WriteTable(cliParams.out)

	if sections := captureFile.SectionList(); len(sections) > 0 {
		fmt.Fprintln(cliParams.out)
		table := common.NewTable(cliParams.out, []string{"Section", "Type", "Offset", "Size"})
		for i, section := range sections {
			table.Append([]string{
				fmt.Sprint(i),
				sectionTypeName(section.Type),
				common.FormatAddress(section.Offset),
				humanize.IBytes(section.Size),
			})
		}
		table.Render()
	}
	return nil
}

func sectionTypeName(t uint64) string {
	if t == file.SectionTypeUserData {
		return "user data"
	}
	return fmt.Sprint(t)
}
