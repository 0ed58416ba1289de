// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2024-present Datadog, Inc.

//nolint:revive
package safeelf

import "debug/elf" //nolint:depguard

type File = elf.File
type Prog = elf.Prog
type Symbol = elf.Symbol
type SymType = elf.SymType
type Section = elf.Section
type Type = elf.Type
type DynTag = elf.DynTag

var ErrNoSymbols = elf.ErrNoSymbols

const SHT_NOTE = elf.SHT_NOTE

const ET_EXEC = elf.ET_EXEC
const ET_DYN = elf.ET_DYN

const PT_LOAD = elf.PT_LOAD

const PF_X = elf.PF_X

const STT_FUNC = elf.STT_FUNC
const SHN_UNDEF = elf.SHN_UNDEF

const DT_SONAME = elf.DT_SONAME

func ST_TYPE(info uint8) SymType { return elf.ST_TYPE(info) }
