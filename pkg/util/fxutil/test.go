// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package fxutil

import (
	"reflect"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// TestOneShotSubcommand runs the command line against subcommands and checks
// that it reaches OneShot with expectedOneShotFunc. Instead of running that
// function, verifyFn is invoked with arguments resolved from the same fx
// options, so tests can assert on the parsed params.
func TestOneShotSubcommand(
	t testing.TB,
	subcommands []*cobra.Command,
	commandline []string,
	expectedOneShotFunc interface{},
	verifyFn interface{},
) {
	var oneShotCalled bool
	fxAppTestOverride = func(oneShotFunc interface{}, opts []fx.Option) error {
		oneShotCalled = true
		require.Equal(t,
			reflect.ValueOf(expectedOneShotFunc).Pointer(),
			reflect.ValueOf(oneShotFunc).Pointer(),
			"got a different OneShot function than expected")

		app := fxtest.New(t, append(opts, fx.Invoke(verifyFn))...)
		app.RequireStart().RequireStop()
		return nil
	}
	defer func() { fxAppTestOverride = nil }()

	cmd := &cobra.Command{Use: "test"}
	for _, c := range subcommands {
		cmd.AddCommand(c)
	}
	cmd.SetArgs(commandline)
	cmd.SilenceUsage = true

	require.NoError(t, cmd.Execute())
	require.True(t, oneShotCalled, "fxutil.OneShot was not called")
}
