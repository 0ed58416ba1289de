// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build !linux

package modules

import "errors"

var errMapsNotSupported = errors.New("reading process mappings is only supported on linux")

// ReadMaps is only supported on Linux.
func ReadMaps(_ int) ([]MapEntry, error) {
	return nil, errMapsNotSupported
}

// ReadMapsFrom is only supported on Linux.
func ReadMapsFrom(_ string, _ int) ([]MapEntry, error) {
	return nil, errMapsNotSupported
}
