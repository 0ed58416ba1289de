// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package capture implements 'capture-agent capture'.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/DataDog/capture-agent/cmd/capture-agent/command"
	"github.com/DataDog/capture-agent/cmd/capture-agent/common"
	"github.com/DataDog/capture-agent/pkg/capture/client"
	"github.com/DataDog/capture-agent/pkg/capture/processor"
	"github.com/DataDog/capture-agent/pkg/config"
	"github.com/DataDog/capture-agent/pkg/process/modules"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
	"github.com/DataDog/capture-agent/pkg/util/fxutil"
	grpcutil "github.com/DataDog/capture-agent/pkg/util/grpc"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

// cliParams are the command-line arguments for this subcommand
type cliParams struct {
	*command.GlobalParams

	pid             int
	functions       []string
	samplingRate    float64
	samplingRateSet bool
	framePointers   bool
	output          string
	duration        time.Duration
	server          string

	out io.Writer
	// signals delivers stop requests, os signals unless a test set it.
	signals <-chan os.Signal
}

// Commands returns a slice of subcommands for the 'capture-agent' command.
func Commands(globalParams *command.GlobalParams) []*cobra.Command {
	cliParams := &cliParams{
		GlobalParams: globalParams,
	}
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a running process and save the capture to a file",
		Long: `Starts a capture of the process given by --pid on the capture service and
saves every event received to --output. The capture stops after --duration,
or on SIGINT/SIGTERM. A second signal aborts the capture.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliParams.samplingRateSet = cmd.Flags().Changed("sampling-rate")
			cliParams.out = cmd.OutOrStdout()
			return fxutil.OneShot(runCapture,
				fx.Supply(cliParams),
				command.Bundle(globalParams),
			)
		},
	}
	cmd.Flags().IntVarP(&cliParams.pid, "pid", "p", 0, "pid of the process to capture")
	cmd.Flags().StringArrayVarP(&cliParams.functions, "function", "f", nil, "name of a function to instrument, may be repeated")
	cmd.Flags().Float64Var(&cliParams.samplingRate, "sampling-rate", 0, "callstack samples per second, 0 disables sampling (default from configuration)")
	cmd.Flags().BoolVar(&cliParams.framePointers, "frame-pointers", false, "unwind callstacks with frame pointers instead of DWARF")
	cmd.Flags().StringVarP(&cliParams.output, "output", "o", "", "path of the capture file to write")
	cmd.Flags().DurationVarP(&cliParams.duration, "duration", "d", 0, "stop the capture after this long, 0 captures until interrupted")
	cmd.Flags().StringVar(&cliParams.server, "server", "", "address of the capture service (default from configuration)")
	_ = cmd.MarkFlagRequired("pid")
	_ = cmd.MarkFlagRequired("output")
	return []*cobra.Command{cmd}
}

// buildOptions turns the configuration and flags into capture options.
func buildOptions(cfg config.Reader, cliParams *cliParams, snapshot *modules.Snapshot, functions []modules.Function) client.Options {
	options := client.Options{
		Pid:                   uint32(cliParams.pid),
		SamplesPerSecond:      float64(cfg.GetInt(config.SamplesPerSecond)),
		UnwindingMethod:       capturepb.UnwindingDwarf,
		StackDumpSize:         uint32(cfg.GetInt(config.StackDumpSize)),
		CollectSchedulingInfo: cfg.GetBool(config.CollectSchedulingInfo),
		CollectThreadStates:   cfg.GetBool(config.CollectThreadStates),
		CollectGpuJobs:        cfg.GetBool(config.CollectGpuJobs),
		CollectMemoryInfo:     cfg.GetBool(config.CollectMemoryInfo),
		MemorySamplingPeriod:  cfg.GetDuration(config.MemorySamplingPeriod),
		EnableAPI:             cfg.GetBool(config.EnableAPI),
		EnableIntrospection:   cfg.GetBool(config.EnableIntrospection),
		Functions:             functions,
		Modules:               snapshot,
	}
	if cliParams.samplingRateSet {
		options.SamplesPerSecond = cliParams.samplingRate
	}
	if cliParams.framePointers || cfg.GetString(config.UnwindingMethod) == config.UnwindingFramePointers {
		options.UnwindingMethod = capturepb.UnwindingFramePointers
	}
	return options
}

// saveErrors keeps the first error reported by the file writer.
type saveErrors struct {
	mu  sync.Mutex
	err error
}

func (s *saveErrors) report(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *saveErrors) get() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func runCapture(cliParams *cliParams, cfg config.Config) error {
	grpcutil.SetupGrpcLogging()

	snapshot, err := common.ReadSnapshot(cfg, cliParams.pid)
	if err != nil {
		return err
	}
	var functions []modules.Function
	if len(cliParams.functions) > 0 {
		functions, err = modules.FindFunctions(snapshot.Modules, cliParams.functions)
		if err != nil {
			return err
		}
	}
	options := buildOptions(cfg, cliParams, snapshot, functions)

	saveErrs := &saveErrors{}
	saver, err := processor.NewSaveToFileProcessor(cliParams.output, saveErrs.report)
	if err != nil {
		return fmt.Errorf("unable to create capture file: %w", err)
	}
	defer func() {
		if err := saver.Close(); err != nil {
			log.Errorf("Unable to close capture file %s: %v", cliParams.output, err)
		}
	}()

	summary := common.NewSummary()
	eventProcessor := processor.New(summary, processor.Options{
		TimestampSlack: uint64(cfg.GetDuration(config.TimestampSlack)),
	})

	address := cliParams.server
	if address == "" {
		address = cfg.GetString(config.ServerAddress)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := grpcutil.NewClientConn(ctx, grpcutil.ConnOptions{
		Address:        address,
		TLS:            cfg.GetBool(config.TLSEnabled),
		ConnectTimeout: cfg.GetDuration(config.ConnectTimeout),
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	captureClient := client.New(conn)
	results, err := captureClient.Capture(ctx, processor.NewCompositeProcessor(saver, eventProcessor), options)
	if err != nil {
		return err
	}
	log.Infof("Capturing process %d into %s", options.Pid, cliParams.output)

	signals := cliParams.signals
	if signals == nil {
		osSignals := make(chan os.Signal, 2)
		signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(osSignals)
		signals = osSignals
	}

	var result client.Result
	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		result = <-results
		return nil
	})
	g.Go(func() error {
		stopOnRequest(gctx, captureClient, done, signals, cliParams.duration, cfg.GetDuration(config.AbortTimeout))
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	closeErr := saver.Close()
	stats := eventProcessor.Stats()
	log.Infof("Processed %d events (%d unknown, %d with unknown keys, %d timestamp regressions, %d clamped timers)",
		stats.EventsProcessed, stats.UnknownEvents, stats.UnknownKeys, stats.TimestampRegressions, stats.DegradedTimers)
	summary.WriteTable(cliParams.out)

	if err := captureError(summary, result, errors.Join(saveErrs.get(), closeErr)); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cliParams.out, "Capture saved to %s\n", cliParams.output)
	return nil
}

// stopOnRequest stops the capture when duration elapsed or a signal arrived,
// and aborts it on the next signal. It returns once done is closed.
func stopOnRequest(ctx context.Context, c *client.Client, done <-chan struct{}, signals <-chan os.Signal, duration, abortTimeout time.Duration) {
	var expired <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		expired = timer.C
	}

	stopping := false
	stop := func() {
		stopping = true
		go c.StopCapture()
	}
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-expired:
			expired = nil
			if !stopping {
				log.Infof("Capture duration of %s elapsed, stopping the capture", duration)
				stop()
			}
		case sig := <-signals:
			if !stopping {
				log.Infof("Received %s, stopping the capture", sig)
				stop()
				continue
			}
			log.Warnf("Received %s while stopping, aborting the capture", sig)
			if !c.AbortCapture(abortTimeout) {
				log.Warnf("The capture did not stop within %s", abortTimeout)
			}
		}
	}
}

// captureError decides the outcome of a capture that was handed to the
// client: a capture refused before it started is an initialization failure,
// anything going wrong afterwards a capture failure.
func captureError(summary *common.Summary, result client.Result, saveErr error) error {
	if result.Err != nil {
		if !summary.Started {
			return fmt.Errorf("capture did not start: %w", result.Err)
		}
		return command.CaptureFailed(result.Err)
	}
	if saveErr != nil {
		return command.CaptureFailed(saveErr)
	}
	if result.Outcome == client.Cancelled {
		return command.CaptureFailed(errors.New("capture was aborted, the capture file is incomplete"))
	}
	if summary.Finished && summary.Status == "failed" {
		return command.CaptureFailed(fmt.Errorf("capture service reported a failure: %s", summary.ErrorMessage))
	}
	return nil
}
