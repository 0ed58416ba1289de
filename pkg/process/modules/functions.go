// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package modules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DataDog/capture-agent/pkg/util/log"
	"github.com/DataDog/capture-agent/pkg/util/safeelf"
)

// Function is a function symbol of a module.
type Function struct {
	Name           string
	ModulePath     string
	BuildID        string
	VirtualAddress uint64
	Size           uint64
}

// ErrFunctionsNotFound is returned, wrapped, when some functions are not
// defined by any module.
var ErrFunctionsNotFound = errors.New("functions not found")

// FindFunctions resolves names against the symbol tables of modules. The
// first module defining a name wins. Functions are returned in the order of
// names.
func FindFunctions(modules []ModuleInfo, names []string) ([]Function, error) {
	wanted := make(map[string]*Function, len(names))
	for _, name := range names {
		wanted[name] = nil
	}

	for i := range modules {
		module := &modules[i]
		symbols, err := readFunctionSymbols(module.FilePath)
		if err != nil {
			log.Debugf("Unable to read symbols of %s: %v", module.FilePath, err)
			continue
		}
		for _, symbol := range symbols {
			if found, ok := wanted[symbol.Name]; !ok || found != nil {
				continue
			}
			wanted[symbol.Name] = &Function{
				Name:           symbol.Name,
				ModulePath:     module.FilePath,
				BuildID:        module.BuildID,
				VirtualAddress: symbol.Value,
				Size:           symbol.Size,
			}
		}
	}

	functions := make([]Function, 0, len(names))
	var missing []string
	for _, name := range names {
		if function := wanted[name]; function != nil {
			functions = append(functions, *function)
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return functions, fmt.Errorf("%w: %s", ErrFunctionsNotFound, strings.Join(missing, ", "))
	}
	return functions, nil
}

func readFunctionSymbols(path string) ([]safeelf.Symbol, error) {
	f, err := safeelf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	symbols, err := safeelf.Symbols(f)
	if err != nil && !errors.Is(err, safeelf.ErrNoSymbols) {
		return nil, err
	}
	dynamic, err := safeelf.DynamicSymbols(f)
	if err != nil && !errors.Is(err, safeelf.ErrNoSymbols) {
		return nil, err
	}
	symbols = append(symbols, dynamic...)

	functions := symbols[:0]
	for _, symbol := range symbols {
		if safeelf.ST_TYPE(symbol.Info) == safeelf.STT_FUNC && symbol.Section != safeelf.SHN_UNDEF && symbol.Value != 0 {
			functions = append(functions, symbol)
		}
	}
	return functions, nil
}
