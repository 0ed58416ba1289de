// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build windows

package file

import "os"

// lockFile is a no-op, files opened for writing are not shared on Windows.
func lockFile(_ *os.File) error {
	return nil
}
