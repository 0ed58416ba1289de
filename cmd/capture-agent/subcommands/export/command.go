// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package export implements 'capture-agent export'.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/DataDog/capture-agent/cmd/capture-agent/command"
	"github.com/DataDog/capture-agent/pkg/capture/file"
	"github.com/DataDog/capture-agent/pkg/util/fxutil"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

// cliParams are the command-line arguments for this subcommand
type cliParams struct {
	*command.GlobalParams

	path   string
	output string
	level  int

	out io.Writer
}

// Commands returns a slice of subcommands for the 'capture-agent' command.
func Commands(globalParams *command.GlobalParams) []*cobra.Command {
	cliParams := &cliParams{
		GlobalParams: globalParams,
	}
	cmd := &cobra.Command{
		Use:   "export <capture file>",
		Short: "Compress a capture file with zstd for upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliParams.path = args[0]
			cliParams.out = cmd.OutOrStdout()
			return fxutil.OneShot(export,
				fx.Supply(cliParams),
				command.Bundle(globalParams),
			)
		},
	}
	cmd.Flags().StringVarP(&cliParams.output, "output", "o", "", "path of the compressed file, defaults to <capture file>.zst")
	cmd.Flags().IntVar(&cliParams.level, "level", 3, "zstd compression level, 1 to 22")
	return []*cobra.Command{cmd}
}

func export(cliParams *cliParams) (err error) {
	output := cliParams.output
	if output == "" {
		output = cliParams.path + ".zst"
	}

	// refuse to export something that is not a capture file
	captureFile, err := file.OpenForReadWrite(cliParams.path)
	if err != nil {
		return err
	}
	if err := captureFile.Close(); err != nil {
		return err
	}

	in, err := os.Open(cliParams.path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			if removeErr := os.Remove(output); removeErr != nil {
				log.Debugf("Unable to remove %s: %v", output, removeErr)
			}
		}
	}()

	encoder, err := zstd.NewWriter(out,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cliParams.level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return err
	}
	read, err := io.Copy(encoder, in)
	if err != nil {
		return errors.Join(err, encoder.Close())
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	info, err := out.Stat()
	if err != nil {
		return err
	}
	fmt.Fprintf(cliParams.out, "Exported %s (%s) to %s (%s)\n",
		cliParams.path, humanize.IBytes(uint64(read)), output, humanize.IBytes(uint64(info.Size())))
	return nil
}
