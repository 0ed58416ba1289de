// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import (
	"fmt"

	"github.com/DataDog/capture-agent/pkg/capture/file"
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

// SaveState is the state of a processor saving to a file.
type SaveState int

// Save states.
const (
	SaveWriting SaveState = iota
	SaveFinished
	SaveErrorReported
)

// SaveToFileProcessor writes every event it receives to a capture file and
// closes the file after CaptureFinished.
type SaveToFileProcessor struct {
	stream  file.OutputStream
	path    string
	onError func(error)
	state   SaveState
}

var _ EventProcessor = (*SaveToFileProcessor)(nil)

// NewSaveToFileProcessor creates the capture file at path. onError is called
// at most once, with the first write or close failure.
func NewSaveToFileProcessor(path string, onError func(error)) (*SaveToFileProcessor, error) {
	stream, err := file.CreateOutputStream(path)
	if err != nil {
		return nil, err
	}
	return NewSaveToStreamProcessor(stream, path, onError), nil
}

// NewSaveToStreamProcessor saves to an already open stream. path only
// labels errors.
func NewSaveToStreamProcessor(stream file.OutputStream, path string, onError func(error)) *SaveToFileProcessor {
	return &SaveToFileProcessor{stream: stream, path: path, onError: onError}
}

// ProcessEvent writes event to the file.
func (p *SaveToFileProcessor) ProcessEvent(event *capturepb.ClientCaptureEvent) {
	if p.state != SaveWriting {
		return
	}
	if err := p.stream.WriteCaptureEvent(event); err != nil {
		p.reportError(fmt.Errorf("unable to save capture to %q: %w", p.path, err))
		return
	}
	if event.Kind() != capturepb.KindCaptureFinished {
		return
	}
	if err := p.stream.Close(); err != nil {
		p.reportError(fmt.Errorf("unable to close capture file %q: %w", p.path, err))
		return
	}
	p.state = SaveFinished
	log.Infof("Capture saved to %s", p.path)
}

func (p *SaveToFileProcessor) reportError(err error) {
	p.state = SaveErrorReported
	log.Error(err)
	if p.onError != nil {
		p.onError(err)
	}
}

// State returns the current state.
func (p *SaveToFileProcessor) State() SaveState {
	return p.state
}

// Close closes the file of a capture that ended without CaptureFinished.
func (p *SaveToFileProcessor) Close() error {
	if p.state != SaveWriting {
		return nil
	}
	p.state = SaveFinished
	return p.stream.Close()
}
