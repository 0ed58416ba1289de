// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package command

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/capture-agent/pkg/config"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitInitFailed, ExitCode(errors.New("dial failed")))
	assert.Equal(t, ExitCaptureFailed, ExitCode(CaptureFailed(errors.New("stream broken"))))
	assert.Equal(t, ExitCaptureFailed, ExitCode(fmt.Errorf("wrapped: %w", CaptureFailed(errors.New("stream broken")))))
}

func TestRunReturnsExitCode(t *testing.T) {
	failing := func(*GlobalParams) []*cobra.Command {
		return []*cobra.Command{{
			Use:  "fail",
			RunE: func(*cobra.Command, []string) error { return CaptureFailed(errors.New("capture broke")) },
		}}
	}
	cmd := MakeCommand([]SubcommandFactory{failing})
	cmd.SetArgs([]string{"fail"})
	assert.Equal(t, ExitCaptureFailed, Run(cmd))

	cmd = MakeCommand([]SubcommandFactory{failing})
	cmd.SetArgs([]string{"no-such-command"})
	assert.Equal(t, ExitInitFailed, Run(cmd))
}

func TestNewConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capture:\n  samples_per_second: 250\n"), 0o644))

	cfg, err := newConfig(&GlobalParams{ConfFilePath: path, LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.GetInt(config.SamplesPerSecond))
	assert.Equal(t, "debug", cfg.GetString(config.LogLevel))

	_, err = newConfig(&GlobalParams{ConfFilePath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
