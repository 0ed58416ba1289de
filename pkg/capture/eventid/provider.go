// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package eventid assigns stable function ids to scope events that the
// producer did not register up front, such as manual instrumentation scopes.
package eventid

import (
	"sync"

	"github.com/DataDog/capture-agent/pkg/proto/capturepb"
)

// ScopeEvent is an event that opens a named scope.
type ScopeEvent interface {
	ScopeName() string
	ScopeGroupID() uint64
}

// Equivalence decides which scope events share an id.
type Equivalence int

const (
	// ByName gives the same id to every scope with the same name.
	ByName Equivalence = iota
	// ByGroupID gives the same id to every scope with the same caller
	// assigned group id. Scopes without a group id fall back to ByName.
	ByGroupID
)

type scopeKey struct {
	name    string
	groupID uint64
}

// Provider hands out ids for scope events. It is safe for concurrent use.
type Provider struct {
	mu          sync.Mutex
	equivalence Equivalence
	nextID      uint64
	ids         map[scopeKey]uint64
	names       map[uint64]string
}

// Create returns a provider whose ids start one past the largest instrumented
// function id found in options, so that the two id spaces never collide.
func Create(options *capturepb.CaptureOptions, equivalence Equivalence) *Provider {
	return NewProvider(options.MaxFunctionID()+1, equivalence)
}

// NewProvider returns a provider whose first id is startID.
func NewProvider(startID uint64, equivalence Equivalence) *Provider {
	return &Provider{
		equivalence: equivalence,
		nextID:      startID,
		ids:         make(map[scopeKey]uint64),
		names:       make(map[uint64]string),
	}
}

func (p *Provider) keyOf(event ScopeEvent) scopeKey {
	if p.equivalence == ByGroupID && event.ScopeGroupID() != 0 {
		return scopeKey{groupID: event.ScopeGroupID()}
	}
	return scopeKey{name: event.ScopeName()}
}

// ProvideID returns the id of the equivalence class of event, allocating a
// new one on first sight.
func (p *Provider) ProvideID(event ScopeEvent) uint64 {
	key := p.keyOf(event)

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.ids[key]; ok {
		return id
	}
	id := p.nextID
	p.nextID++
	p.ids[key] = id
	p.names[id] = event.ScopeName()
	return id
}

// Name returns the name of the first scope that was given id.
func (p *Provider) Name(id uint64) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name, ok := p.names[id]
	return name, ok
}

// Len returns the number of ids handed out so far.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ids)
}
