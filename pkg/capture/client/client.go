// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package client drives captures on a remote capture service.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/atomic"
	"google.golang.org/grpc"

	"github.com/DataDog/capture-agent/pkg/capture/processor"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

// ErrCaptureRunning is returned by Capture while a previous capture has not
// stopped yet.
var ErrCaptureRunning = errors.New("Capture cannot be started, the previous capture is still running/stopping.") //nolint:revive

// State is the lifecycle state of a Client.
type State int32

// Client states.
const (
	Stopped State = iota
	Starting
	Started
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Started:
		return "started"
	case Stopping:
		return "stopping"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Outcome tells how a capture without error ended.
type Outcome int

// Capture outcomes.
const (
	Complete Outcome = iota
	Cancelled
)

func (o Outcome) String() string {
	if o == Cancelled {
		return "cancelled"
	}
	return "complete"
}

// Result is the single result of a capture. Outcome is meaningful only when
// Err is nil.
type Result struct {
	Outcome Outcome
	Err     error
}

// Client runs one capture at a time. StopCapture, AbortCapture and State may
// be called from any goroutine; processor callbacks all happen on the
// goroutine started by Capture.
type Client struct {
	service capturepb.CaptureServiceClient

	stateMu   sync.Mutex
	stateCond *sync.Cond
	state     State

	// streamMu guards cancel and stream only, so that AbortCapture never
	// waits for a pending Recv.
	streamMu sync.RWMutex
	cancel   context.CancelFunc
	stream   capturepb.CaptureService_CaptureClient

	writesDoneFailed *atomic.Bool
	tryAbort         *atomic.Bool
}

// New returns a client of the capture service reachable through conn.
func New(conn grpc.ClientConnInterface) *Client {
	return newClient(capturepb.NewCaptureServiceClient(conn))
}

func newClient(service capturepb.CaptureServiceClient) *Client {
	c := &Client{
		service:          service,
		writesDoneFailed: atomic.NewBool(false),
		tryAbort:         atomic.NewBool(false),
	}
	c.stateCond = sync.NewCond(&c.stateMu)
	return c
}

// State returns the current state.
func (c *Client) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Client) setStateLocked(state State) {
	c.state = state
	log.Debugf("Capture client state is now %s", state)
	c.stateCond.Broadcast()
}

func (c *Client) setState(state State) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.setStateLocked(state)
}

// Capture starts a capture and returns the channel on which its result is
// delivered once the capture stopped. Every event received is handed to p,
// in order.
func (c *Client) Capture(ctx context.Context, p processor.EventProcessor, options Options) (<-chan Result, error) {
	request, err := options.ToCaptureOptions()
	if err != nil {
		return nil, err
	}

	c.stateMu.Lock()
	if c.state != Stopped {
		c.stateMu.Unlock()
		return nil, ErrCaptureRunning
	}
	c.setStateLocked(Starting)
	c.stateMu.Unlock()

	results := make(chan Result, 1)
	go func() {
		defer close(results)
		results <- c.captureSync(ctx, request, p)
	}()
	return results, nil
}

func (c *Client) captureSync(ctx context.Context, options *capturepb.CaptureOptions, p processor.EventProcessor) Result {
	c.writesDoneFailed.Store(false)
	c.tryAbort.Store(false)

	streamCtx, cancel := context.WithCancel(ctx)
	c.streamMu.Lock()
	c.cancel = cancel
	c.streamMu.Unlock()

	stream, err := c.service.Capture(streamCtx)
	if err == nil {
		c.streamMu.Lock()
		c.stream = stream
		c.streamMu.Unlock()
		err = stream.Send(&capturepb.CaptureRequest{CaptureOptions: options})
		if err != nil {
			_ = stream.CloseSend()
		}
	}
	if err != nil {
		log.Errorf("Sending capture request on the capture stream: %v", err)
		c.finishCapture(err)
		return Result{Err: fmt.Errorf("Error sending capture request.\n%w", err)} //nolint:revive
	}
	log.Infof("Sent capture request for process %d: asking to start capturing", options.Pid)

	var recvErr error
	for !c.writesDoneFailed.Load() && !c.tryAbort.Load() {
		response, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				recvErr = err
			}
			break
		}
		c.processEvents(p, response.CaptureEvents)
	}

	finishErr := c.finishCapture(recvErr)
	if c.tryAbort.Load() {
		log.Info("Capture was aborted: reading from the capture stream stopped")
		return Result{Outcome: Cancelled}
	}
	if c.writesDoneFailed.Load() {
		msg := "Unable to finish the capture in orderly manner, performing emergency stop."
		if finishErr != nil {
			return Result{Err: fmt.Errorf("%s\n%w", msg, finishErr)}
		}
		return Result{Err: errors.New(msg)}
	}
	if finishErr != nil {
		return Result{Err: fmt.Errorf("Unable to finish the capture in an orderly manner. The following error occurred: %w", finishErr)} //nolint:revive
	}
	log.Info("Finished reading from the capture stream: all capture data has been received")
	return Result{Outcome: Complete}
}

// finishCapture releases the stream and returns the final status of the
// call, carried by the error that ended the reads.
func (c *Client) finishCapture(status error) error {
	c.streamMu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = nil
	c.stream = nil
	c.streamMu.Unlock()

	c.setState(Stopped)

	if status != nil {
		log.Errorf("Finishing capture call: %v", status)
	}
	return status
}

func (c *Client) processEvents(p processor.EventProcessor, events []*capturepb.ClientCaptureEvent) {
	for _, event := range events {
		p.ProcessEvent(event)
		if event.Kind() == capturepb.KindCaptureStarted {
			c.stateMu.Lock()
			if c.state == Starting {
				c.setStateLocked(Started)
			}
			c.stateMu.Unlock()
		}
	}
}

// StopCapture asks the service to stop the running capture. The events it
// still sends are processed before the result is delivered. If the capture
// is starting, StopCapture waits until it started or failed. It returns false
// when there is no started capture to stop, including when another stop is
// already in progress.
func (c *Client) StopCapture() bool {
	c.stateMu.Lock()
	for c.state == Starting {
		c.stateCond.Wait()
	}
	if c.state != Started {
		log.Debugf("StopCapture ignored, the capture is %s", c.state)
		c.stateMu.Unlock()
		return false
	}
	c.setStateLocked(Stopping)
	c.stateMu.Unlock()

	c.streamMu.RLock()
	err := errors.New("no capture stream")
	if c.stream != nil {
		err = c.stream.CloseSend()
	}
	c.streamMu.RUnlock()

	if err != nil {
		// the service will not learn about the stop: the worker leaves as soon
		// as it notices the flag
		log.Errorf("Closing the capture stream failed, initiating emergency stop: %v", err)
		c.writesDoneFailed.Store(true)
	} else {
		log.Info("Finished writing on the capture stream: asking to stop capturing")
	}
	return true
}

// AbortCapture cancels the running capture and waits up to maxWait for the
// worker to release the stream. It returns whether the worker did so.
func (c *Client) AbortCapture(maxWait time.Duration) bool {
	c.streamMu.RLock()
	if c.cancel == nil {
		c.streamMu.RUnlock()
		log.Debug("AbortCapture ignored: no capture call to cancel")
		return false
	}
	log.Info("Cancelling the capture call: aborting the capture")
	c.tryAbort.Store(true)
	c.cancel()
	c.streamMu.RUnlock()

	return c.waitForState(Stopped, maxWait)
}

func (c *Client) waitForState(state State, maxWait time.Duration) bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	expired := false
	timer := time.AfterFunc(maxWait, func() {
		c.stateMu.Lock()
		expired = true
		c.stateMu.Unlock()
		c.stateCond.Broadcast()
	})
	defer timer.Stop()

	for c.state != state && !expired {
		c.stateCond.Wait()
	}
	return c.state == state
}
