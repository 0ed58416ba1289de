// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package log

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cihub/seelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ zapcore.Core = (*core)(nil)

// core is a zapcore.Core writing through the package logger, so libraries
// that only speak zap (the gRPC middleware) share our sink and level.
type core struct {
	fields []zapcore.Field
}

// redundantFields are added by the gRPC logging interceptors and repeat what
// the line already carries: its date, or the stack of an error.
var redundantFields = map[string]struct{}{
	"system":          {},
	"span.kind":       {},
	"grpc.start_time": {},
	"errorVerbose":    {},
}

// NewZapLogger returns a zap logger backed by the seelog logger.
func NewZapLogger() *zap.Logger {
	return zap.New(&core{}, zap.AddCaller())
}

func zapToSeelogLevel(level zapcore.Level) seelog.LogLevel {
	switch level {
	case zapcore.DebugLevel:
		return seelog.DebugLvl
	case zapcore.InfoLevel:
		return seelog.InfoLvl
	case zapcore.WarnLevel:
		return seelog.WarnLvl
	case zapcore.ErrorLevel:
		return seelog.ErrorLvl
	default:
		return seelog.CriticalLvl
	}
}

func (c *core) Enabled(level zapcore.Level) bool {
	current, err := GetLogLevel()
	if err != nil {
		return false
	}
	return zapToSeelogLevel(level) >= current
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	return &core{fields: append(merged, fields...)}
}

func (c *core) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *core) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	ctx := fieldContext(c.fields, fields)

	msg := entry.Message
	if entry.Caller.Defined {
		msg = fmt.Sprintf("(%s) | %s", entry.Caller.TrimmedPath(), entry.Message)
	}

	switch entry.Level {
	case zapcore.DebugLevel:
		Debugc(msg, ctx...)
	case zapcore.InfoLevel:
		Infoc(msg, ctx...)
	case zapcore.WarnLevel:
		Warnc(msg, ctx...)
	case zapcore.ErrorLevel:
		Errorc(msg, ctx...)
	default:
		Criticalc(msg, ctx...)
	}
	return nil
}

func (c *core) Sync() error {
	Flush()
	return nil
}

// fieldContext encodes zap fields into the flat key/value list seelog takes
// as custom context. Top level keys keep the order of their fields, fields
// after a namespace become "namespace/key".
func fieldContext(groups ...[]zapcore.Field) []interface{} {
	enc := zapcore.NewMapObjectEncoder()
	var order []string
	seen := make(map[string]struct{})
	for _, fields := range groups {
		for _, field := range fields {
			field.AddTo(enc)
			var added []string
			for key := range enc.Fields {
				if _, ok := seen[key]; !ok {
					seen[key] = struct{}{}
					added = append(added, key)
				}
			}
			sort.Strings(added)
			order = append(order, added...)
		}
	}

	var ctx []interface{}
	for _, key := range order {
		if _, ok := redundantFields[key]; ok {
			continue
		}
		ctx = appendField(ctx, key, enc.Fields[key])
	}
	return ctx
}

func appendField(ctx []interface{}, key string, value interface{}) []interface{} {
	nested, ok := value.(map[string]interface{})
	if !ok {
		return append(ctx, key, value)
	}
	keys := make([]string, 0, len(nested))
	for k := range nested {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctx = appendField(ctx, key+"/"+k, nested[k])
	}
	return ctx
}

// createExtraTextContext renders the key/value context of a line as
// "k1:v1, k2:v2 | ". Lines without context render as an empty string.
func createExtraTextContext(string) seelog.FormatterFunc {
	return func(_ string, _ seelog.LogLevel, context seelog.LogContextInterface) interface{} {
		contextList, ok := context.CustomContext().([]interface{})
		if !ok || len(contextList) < 2 {
			return ""
		}

		var builder strings.Builder
		for i := 0; i+1 < len(contextList); i += 2 {
			if i > 0 {
				builder.WriteString(", ")
			}
			fmt.Fprintf(&builder, "%v:%v", contextList[i], contextList[i+1])
		}
		builder.WriteString(" | ")
		return builder.String()
	}
}
