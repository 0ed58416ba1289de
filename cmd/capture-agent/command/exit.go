// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DataDog/capture-agent/pkg/util/log"
)

// Exit codes of the capture-agent binary.
const (
	ExitSuccess = 0
	// ExitInitFailed means nothing was captured: configuration, connection,
	// process inspection, output file or capture start failed.
	ExitInitFailed = 1
	// ExitCaptureFailed means the capture started but did not end cleanly.
	ExitCaptureFailed = 2
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// CaptureFailed wraps err with ExitCaptureFailed.
func CaptureFailed(err error) error {
	return &ExitError{Code: ExitCaptureFailed, Err: err}
}

// ExitCode maps the error returned by a command to an exit code. Errors
// without an explicit code are initialization failures.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitInitFailed
}

// Run executes cmd and returns the process exit code.
func Run(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
	}
	log.Flush()
	return ExitCode(err)
}
