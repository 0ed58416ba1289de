// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package command implements the root of the capture-agent command line.
package command

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/DataDog/capture-agent/pkg/config"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

// GlobalParams contains the values of capture-agent-global Cobra flags.
//
// A pointer to this type is passed to SubcommandFactory's, but its contents
// are not valid until Cobra calls the subcommand's Run or RunE function.
type GlobalParams struct {
	// ConfFilePath holds the path to the optional configuration file.
	ConfFilePath string

	// LogLevel overrides log_level when set.
	LogLevel string

	// NoColor disables colored output.
	NoColor bool
}

// SubcommandFactory is a callable that will return a slice of subcommands.
type SubcommandFactory func(globalParams *GlobalParams) []*cobra.Command

// MakeCommand makes the top-level Cobra command for this app.
func MakeCommand(subcommandFactories []SubcommandFactory) *cobra.Command {
	globalParams := GlobalParams{}

	root := &cobra.Command{
		Use:   "capture-agent [command]",
		Short: "Capture agent at your service.",
		Long: `
The capture agent records performance captures of a running process through a
capture service and saves them as capture files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if globalParams.NoColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVarP(&globalParams.ConfFilePath, "cfgpath", "c", "", "path to the capture-agent configuration file")
	root.PersistentFlags().StringVar(&globalParams.LogLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().BoolVarP(&globalParams.NoColor, "no-color", "n", false, "disable color output")

	for _, factory := range subcommandFactories {
		for _, subcmd := range factory(&globalParams) {
			root.AddCommand(subcmd)
		}
	}
	return root
}

// Bundle provides the configuration and sets up logging for a one-shot
// command.
func Bundle(globalParams *GlobalParams) fx.Option {
	return fx.Options(
		fx.Supply(globalParams),
		fx.Provide(newConfig),
		fx.Invoke(setupLogging),
	)
}

func newConfig(globalParams *GlobalParams) (config.Config, error) {
	cfg := config.New()
	if err := config.Load(cfg, globalParams.ConfFilePath); err != nil {
		return nil, err
	}
	if globalParams.LogLevel != "" {
		cfg.Set(config.LogLevel, globalParams.LogLevel)
	}
	return cfg, nil
}

func setupLogging(cfg config.Config) error {
	return log.Setup(log.Params{
		Name:    log.CaptureLoggerName,
		Level:   cfg.GetString(config.LogLevel),
		File:    cfg.GetString(config.LogFile),
		Console: cfg.GetBool(config.LogToConsole),
	})
}
