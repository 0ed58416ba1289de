// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package common

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

// NewTable returns a borderless, left aligned table writing to w.
func NewTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// FormatDuration renders a nanosecond count rounded to the microsecond.
func FormatDuration(ns uint64) string {
	return time.Duration(ns).Round(time.Microsecond).String()
}

// FormatAddress renders an address the way /proc/<pid>/maps does.
func FormatAddress(address uint64) string {
	return fmt.Sprintf("%#x", address)
}
