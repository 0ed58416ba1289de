// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package fxutil runs command bodies inside a short-lived fx application so
// their dependencies (config, logger, params) are injected.
package fxutil

import (
	"context"
	"errors"
	"reflect"

	"go.uber.org/fx"
)

// OneShot builds an fx.App from opts, starts it, calls oneShotFunc with its
// arguments resolved from the app, then stops the app.
//
// oneShotFunc must be a function; if its last result is an error, that error
// is returned.
func OneShot(oneShotFunc interface{}, opts ...fx.Option) error {
	if fxAppTestOverride != nil {
		return fxAppTestOverride(oneShotFunc, opts)
	}

	delayed := newDelayedFxInvocation(oneShotFunc)
	opts = append(opts, delayed.option(), fx.NopLogger)
	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	err := delayed.call()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	return errors.Join(err, app.Stop(stopCtx))
}

// delayedFxInvocation captures the arguments fx would pass to fn during
// startup and calls fn later, once the app has started.
type delayedFxInvocation struct {
	fn    interface{}
	ftype reflect.Type
	args  []reflect.Value
}

func newDelayedFxInvocation(fn interface{}) *delayedFxInvocation {
	ftype := reflect.TypeOf(fn)
	if ftype == nil || ftype.Kind() != reflect.Func {
		panic("delayedFxInvocation requires a function")
	}
	return &delayedFxInvocation{fn: fn, ftype: ftype}
}

func (i *delayedFxInvocation) option() fx.Option {
	in := make([]reflect.Type, i.ftype.NumIn())
	for n := range in {
		in[n] = i.ftype.In(n)
	}
	capture := reflect.MakeFunc(reflect.FuncOf(in, nil, false), func(args []reflect.Value) []reflect.Value {
		i.args = args
		return nil
	})
	return fx.Invoke(capture.Interface())
}

func (i *delayedFxInvocation) call() error {
	results := reflect.ValueOf(i.fn).Call(i.args)
	if len(results) == 0 {
		return nil
	}
	if err, ok := results[len(results)-1].Interface().(error); ok {
		return err
	}
	return nil
}
