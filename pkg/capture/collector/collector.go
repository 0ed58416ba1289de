// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package collector gathers the events of a capture for consumers other than
// a listener.
package collector

import "github.com/DataDog/capture-agent/pkg/proto/capturepb"

// ClientCaptureEventCollector receives every event of a capture.
type ClientCaptureEventCollector interface {
	AddEvent(event *capturepb.ClientCaptureEvent)
}
