// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2024-present Datadog, Inc.

// Package safeelf wraps debug/elf so that malformed object files, which can
// make the standard parser panic, surface as errors.
package safeelf

import (
	"debug/elf" //nolint:depguard
	"fmt"
	"io"
)

// Open opens the named file as an ELF binary.
func Open(path string) (f *File, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			f, err = nil, fmt.Errorf("parsing ELF file %s: %v", path, rec)
		}
	}()
	return elf.Open(path)
}

// NewFile reads an ELF binary from r.
func NewFile(r io.ReaderAt) (f *File, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			f, err = nil, fmt.Errorf("parsing ELF file: %v", rec)
		}
	}()
	return elf.NewFile(r)
}

// Symbols returns the static symbol table of f, or nil when f has none.
func Symbols(f *File) (symbols []Symbol, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			symbols, err = nil, fmt.Errorf("reading ELF symbols: %v", rec)
		}
	}()
	return f.Symbols()
}

// DynamicSymbols returns the dynamic symbol table of f.
func DynamicSymbols(f *File) (symbols []Symbol, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			symbols, err = nil, fmt.Errorf("reading ELF dynamic symbols: %v", rec)
		}
	}()
	return f.DynamicSymbols()
}

// DynString returns the strings of the dynamic section tagged tag.
func DynString(f *File, tag DynTag) (values []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			values, err = nil, fmt.Errorf("reading ELF dynamic section: %v", rec)
		}
	}()
	return f.DynString(tag)
}
