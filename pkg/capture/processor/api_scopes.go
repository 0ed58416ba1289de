// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import (
	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
	"github.com/DataDog/capture-agent/pkg/util/log"
)

// scopeStacks tracks the open manual instrumentation scopes of every thread.
type scopeStacks struct {
	byThread map[uint32][]*capturepb.ApiScopeStart
}

func newScopeStacks() *scopeStacks {
	return &scopeStacks{byThread: make(map[uint32][]*capturepb.ApiScopeStart)}
}

func (s *scopeStacks) push(start *capturepb.ApiScopeStart) {
	s.byThread[start.Tid] = append(s.byThread[start.Tid], start)
}

// pop returns the innermost open scope of tid and its depth.
func (s *scopeStacks) pop(tid uint32) (*capturepb.ApiScopeStart, uint32, bool) {
	stack := s.byThread[tid]
	if len(stack) == 0 {
		return nil, 0, false
	}
	start := stack[len(stack)-1]
	depth := uint32(len(stack) - 1)
	if depth == 0 {
		delete(s.byThread, tid)
	} else {
		s.byThread[tid] = stack[:depth]
	}
	return start, depth, true
}

func (p *Processor) processApiScopeStop(stop *capturepb.ApiScopeStop) {
	start, depth, ok := p.scopes.pop(stop.Tid)
	if !ok {
		// the scope opened before the capture started
		p.stats.unmatchedScopeStops.Inc()
		log.Debugf("Ignoring scope stop without start on thread %d", stop.Tid)
		return
	}

	p.emitTimer(Timer{
		Start:           start.TimestampNs,
		End:             stop.TimestampNs,
		ProcessID:       stop.Pid,
		ThreadID:        stop.Tid,
		Depth:           depth,
		FunctionID:      p.ids.ProvideID(start),
		FunctionAddress: start.AddressInFunction,
		Processor:       NoProcessor,
		GroupID:         start.GroupID,
		Name:            start.Name,
		Color:           colorFromRGBA(start.ColorRGBA),
		Type:            TimerApiScope,
	})
}

func (p *Processor) processApiScopeStopAsync(stop *capturepb.ApiScopeStopAsync) {
	start, ok := p.asyncScopes[stop.ID]
	if !ok {
		p.stats.unmatchedScopeStops.Inc()
		log.Debugf("Ignoring async scope stop without start for id %d", stop.ID)
		return
	}
	delete(p.asyncScopes, stop.ID)

	p.emitTimer(Timer{
		Start:           start.TimestampNs,
		End:             stop.TimestampNs,
		ProcessID:       stop.Pid,
		ThreadID:        stop.Tid,
		FunctionID:      p.ids.ProvideID(start),
		FunctionAddress: start.AddressInFunction,
		Processor:       NoProcessor,
		ID:              stop.ID,
		Name:            start.Name,
		Color:           colorFromRGBA(start.ColorRGBA),
		Type:            TimerApiScopeAsync,
	})
}

// processApiTrack fills value with the fields shared by every track sample.
func (p *Processor) processApiTrack(kind capturepb.EventKind, track *capturepb.ApiTrack, value ApiTrackValue) {
	p.checkTimestamp(kind, track.TimestampNs)
	value.ProcessID = track.Pid
	value.ThreadID = track.Tid
	value.TimestampNs = track.TimestampNs
	value.Name = track.Name
	p.listener.OnApiTrackValue(value)
}
