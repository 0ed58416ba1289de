// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package processor

import "github.com/DataDog/capture-agent/pkg/proto/capturepb"

type compositeProcessor []EventProcessor

// NewCompositeProcessor returns a processor handing every event to each of
// processors, in order.
func NewCompositeProcessor(processors ...EventProcessor) EventProcessor {
	return compositeProcessor(processors)
}

func (c compositeProcessor) ProcessEvent(event *capturepb.ClientCaptureEvent) {
	for _, p := range c {
		p.ProcessEvent(event)
	}
}
