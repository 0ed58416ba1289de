// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package log

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/cihub/seelog"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestZapForwardsToSeelog(t *testing.T) {
	zapLogger := NewZapLogger()
	tests := []struct {
		desc    string
		f       func(*zap.Logger)
		level   string
		pattern string
	}{
		{
			desc:    "debug without fields",
			f:       func(l *zap.Logger) { l.Debug("stream opened") },
			level:   "debug",
			pattern: "\\[DEBUG\\] Write: \\(log/zapcore_test.go:\\d+\\) \\| stream opened",
		},
		{
			desc:    "warn without fields",
			f:       func(l *zap.Logger) { l.Warn("stream opened") },
			level:   "debug",
			pattern: "\\[WARN\\] Write: \\(log/zapcore_test.go:\\d+\\) \\| stream opened",
		},
		{
			desc:    "dpanic maps to critical",
			f:       func(l *zap.Logger) { l.DPanic("broken invariant") },
			level:   "debug",
			pattern: "\\[CRITICAL\\] Write: \\(log/zapcore_test.go:\\d+\\) \\| broken invariant",
		},
		{
			desc: "filtered by level",
			f: func(l *zap.Logger) {
				l.Debug("stream opened")
				l.Info("stream opened")
				l.Warn("stream opened")
			},
			level:   "error",
			pattern: "",
		},
		{
			desc: "fields",
			f: func(l *zap.Logger) {
				l.Info("finished call", zap.String("grpc.method", "Capture"), zap.Int("events", 3))
			},
			level:   "debug",
			pattern: "\\[INFO\\] Write: grpc.method:Capture, events:3 \\| \\(log/zapcore_test.go:\\d+\\) \\| finished call",
		},
		{
			desc:    "error field",
			f:       func(l *zap.Logger) { l.Error("finished call", zap.Error(fmt.Errorf("unavailable"))) },
			level:   "debug",
			pattern: "\\[ERROR\\] Write: error:unavailable \\| \\(log/zapcore_test.go:\\d+\\) \\| finished call",
		},
		{
			desc: "with does not leak into parent",
			f: func(l *zap.Logger) {
				_ = l.With(zap.Int("pid", 42))
				l.Info("finished call", zap.Bool("ok", true))
			},
			level:   "debug",
			pattern: "\\[INFO\\] Write: ok:true \\| \\(log/zapcore_test.go:\\d+\\) \\| finished call",
		},
		{
			desc: "with on child",
			f: func(l *zap.Logger) {
				child := l.With(zap.Int("pid", 42))
				child.Info("finished call", zap.Bool("ok", true))
			},
			level:   "debug",
			pattern: "\\[INFO\\] Write: pid:42, ok:true \\| \\(log/zapcore_test.go:\\d+\\) \\| finished call",
		},
		{
			desc:    "namespace",
			f:       func(l *zap.Logger) { l.Info("finished call", zap.Namespace("grpc"), zap.Int("code", 0)) },
			level:   "debug",
			pattern: "\\[INFO\\] Write: grpc/code:0 \\| \\(log/zapcore_test.go:\\d+\\) \\| finished call",
		},
		{
			desc: "interceptor fields",
			f: func(l *zap.Logger) {
				l.Info("finished client streaming call",
					zap.String("system", "grpc"),
					zap.String("span.kind", "client"),
					zap.String("grpc.service", "capture.CaptureService"),
					zap.String("grpc.method", "Capture"),
					zap.String("grpc.start_time", "2026-10-16T10:00:00Z"),
					zap.String("grpc.code", "OK"),
				)
			},
			level:   "debug",
			pattern: "\\[INFO\\] Write: grpc.service:capture.CaptureService, grpc.method:Capture, grpc.code:OK \\| \\(log/zapcore_test.go:\\d+\\) \\| finished client streaming call",
		},
		{
			desc:    "error stack dropped",
			f:       func(l *zap.Logger) { l.Warn("finished call", zap.Error(errors.New("unavailable"))) },
			level:   "debug",
			pattern: "\\[WARN\\] Write: error:unavailable \\| \\(log/zapcore_test.go:\\d+\\) \\| finished call",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var b bytes.Buffer
			w := bufio.NewWriter(&b)
			seelog.RegisterCustomFormatter("ExtraTextContext", createExtraTextContext) //nolint:errcheck
			l, err := seelog.LoggerFromWriterWithMinLevelAndFormat(w, seelog.DebugLvl, "[%LEVEL] %FuncShort: %ExtraTextContext%Msg\n")
			require.NoError(t, err)
			SetupLogger(l, tt.level)

			tt.f(zapLogger)
			w.Flush()
			pattern := fmt.Sprintf("^%s$", tt.pattern)
			assert.Regexp(t, pattern, strings.TrimSuffix(b.String(), "\n"))
		})
	}
}
