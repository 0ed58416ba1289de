// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package log is the process-wide logger of the capture agent. It wraps a
// seelog logger and buffers lines emitted before the logger is configured.
package log

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cihub/seelog"
)

var (
	logger *CaptureLogger

	// Lines logged before SetupLogger is called (config loading, flag
	// parsing) are kept here and replayed once the logger exists.
	logsBuffer           = []func(){}
	bufferLogsBeforeInit = true
	bufferMutex          sync.Mutex
	defaultStackDepth    = 3
)

// CaptureLogger wraps a seelog logger and its level.
type CaptureLogger struct {
	inner       seelog.LoggerInterface
	level       seelog.LogLevel
	l           sync.RWMutex
	contextLock sync.Mutex
}

// SetupLogger configures the logger singleton with a seelog interface.
func SetupLogger(l seelog.LoggerInterface, level string) {
	logger = &CaptureLogger{
		inner: l,
	}

	lvl, ok := seelog.LogLevelFromString(strings.ToLower(level))
	if !ok {
		lvl = seelog.InfoLvl
	}
	logger.level = lvl

	// The exported functions add two frames between the caller and seelog.
	logger.inner.SetAdditionalStackDepth(defaultStackDepth) //nolint:errcheck

	bufferMutex.Lock()
	bufferLogsBeforeInit = false
	defer bufferMutex.Unlock()
	for _, logLine := range logsBuffer {
		logLine()
	}
	logsBuffer = []func(){}
}

func addLogToBuffer(logHandle func()) {
	bufferMutex.Lock()
	defer bufferMutex.Unlock()

	logsBuffer = append(logsBuffer, logHandle)
}

func (sw *CaptureLogger) replaceInnerLogger(l seelog.LoggerInterface) seelog.LoggerInterface {
	sw.l.Lock()
	defer sw.l.Unlock()

	old := sw.inner
	sw.inner = l

	return old
}

func (sw *CaptureLogger) changeLogLevel(level string) error {
	sw.l.Lock()
	defer sw.l.Unlock()

	lvl, ok := seelog.LogLevelFromString(strings.ToLower(level))
	if !ok {
		return errors.New("bad log level")
	}
	sw.level = lvl
	return nil
}

func (sw *CaptureLogger) shouldLog(level seelog.LogLevel) bool {
	sw.l.RLock()
	shouldLog := level >= sw.level
	sw.l.RUnlock()

	return shouldLog
}

func (sw *CaptureLogger) getLogLevel() seelog.LogLevel {
	sw.l.RLock()
	defer sw.l.RUnlock()

	return sw.level
}

func (sw *CaptureLogger) write(level seelog.LogLevel, s string) error {
	sw.l.Lock()
	defer sw.l.Unlock()

	switch level {
	case seelog.TraceLvl:
		sw.inner.Trace(s)
	case seelog.DebugLvl:
		sw.inner.Debug(s)
	case seelog.InfoLvl:
		sw.inner.Info(s)
	case seelog.WarnLvl:
		return sw.inner.Warn(s)
	case seelog.ErrorLvl:
		return sw.inner.Error(s)
	case seelog.CriticalLvl:
		return sw.inner.Critical(s)
	}
	return nil
}

// errorStackDepth is one frame shallower than write, hence the -1.
func (sw *CaptureLogger) errorStackDepth(s string, depth int) error {
	sw.l.Lock()
	defer sw.l.Unlock()

	sw.inner.SetAdditionalStackDepth(defaultStackDepth + depth - 1) //nolint:errcheck
	err := sw.inner.Error(s)
	sw.inner.SetAdditionalStackDepth(defaultStackDepth) //nolint:errcheck
	return err
}

func buildLogEntry(v ...interface{}) string {
	var fmtBuffer bytes.Buffer

	for i := 0; i < len(v)-1; i++ {
		fmtBuffer.WriteString("%v ")
	}
	fmtBuffer.WriteString("%v")

	return fmt.Sprintf(fmtBuffer.String(), v...)
}

func ready() bool {
	return logger != nil && logger.inner != nil
}

func log(level seelog.LogLevel, bufferFunc func(), v ...interface{}) {
	if ready() && logger.shouldLog(level) {
		logger.write(level, buildLogEntry(v...)) //nolint:errcheck
	} else if bufferLogsBeforeInit && !ready() {
		addLogToBuffer(bufferFunc)
	}
}

func logFormat(level seelog.LogLevel, bufferFunc func(), format string, params ...interface{}) {
	if ready() && logger.shouldLog(level) {
		logger.write(level, fmt.Sprintf(format, params...)) //nolint:errcheck
	} else if bufferLogsBeforeInit && !ready() {
		addLogToBuffer(bufferFunc)
	}
}

func logWithError(level seelog.LogLevel, bufferFunc func(), fallbackStderr bool, msg string) error {
	if ready() && logger.shouldLog(level) {
		logger.write(level, msg) //nolint:errcheck
		return errors.New(msg)
	} else if bufferLogsBeforeInit && !ready() {
		addLogToBuffer(bufferFunc)
	}
	if fallbackStderr && !ready() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", level.String(), msg)
	}
	return errors.New(msg)
}

func logContext(level seelog.LogLevel, bufferFunc func(), message string, context ...interface{}) {
	if ready() && logger.shouldLog(level) {
		logger.contextLock.Lock()
		logger.inner.SetContext(context)
		logger.write(level, message) //nolint:errcheck
		logger.inner.SetContext(nil)
		logger.contextLock.Unlock()
	} else if bufferLogsBeforeInit && !ready() {
		addLogToBuffer(bufferFunc)
	}
}

// Trace logs at the trace level
func Trace(v ...interface{}) {
	log(seelog.TraceLvl, func() { Trace(v...) }, v...)
}

// Tracef logs with format at the trace level
func Tracef(format string, params ...interface{}) {
	logFormat(seelog.TraceLvl, func() { Tracef(format, params...) }, format, params...)
}

// Debug logs at the debug level
func Debug(v ...interface{}) {
	log(seelog.DebugLvl, func() { Debug(v...) }, v...)
}

// Debugf logs with format at the debug level
func Debugf(format string, params ...interface{}) {
	logFormat(seelog.DebugLvl, func() { Debugf(format, params...) }, format, params...)
}

// Debugc logs at the debug level with context
func Debugc(message string, context ...interface{}) {
	logContext(seelog.DebugLvl, func() { Debugc(message, context...) }, message, context...)
}

// Info logs at the info level
func Info(v ...interface{}) {
	log(seelog.InfoLvl, func() { Info(v...) }, v...)
}

// Infof logs with format at the info level
func Infof(format string, params ...interface{}) {
	logFormat(seelog.InfoLvl, func() { Infof(format, params...) }, format, params...)
}

// Infoc logs at the info level with context
func Infoc(message string, context ...interface{}) {
	logContext(seelog.InfoLvl, func() { Infoc(message, context...) }, message, context...)
}

// Warn logs at the warn level and returns an error containing the formated log message
func Warn(v ...interface{}) error {
	return logWithError(seelog.WarnLvl, func() { Warn(v...) }, false, buildLogEntry(v...))
}

// Warnf logs with format at the warn level and returns an error containing the formated log message
func Warnf(format string, params ...interface{}) error {
	return logWithError(seelog.WarnLvl, func() { Warnf(format, params...) }, false, fmt.Sprintf(format, params...))
}

// Warnc logs at the warn level with context
func Warnc(message string, context ...interface{}) {
	logContext(seelog.WarnLvl, func() { Warnc(message, context...) }, message, context...)
}

// Error logs at the error level and returns an error containing the formated log message
func Error(v ...interface{}) error {
	return logWithError(seelog.ErrorLvl, func() { Error(v...) }, true, buildLogEntry(v...))
}

// Errorf logs with format at the error level and returns an error containing the formated log message
func Errorf(format string, params ...interface{}) error {
	return logWithError(seelog.ErrorLvl, func() { Errorf(format, params...) }, true, fmt.Sprintf(format, params...))
}

// Errorc logs at the error level with context
func Errorc(message string, context ...interface{}) {
	logContext(seelog.ErrorLvl, func() { Errorc(message, context...) }, message, context...)
}

// Criticalc logs at the critical level with context
func Criticalc(message string, context ...interface{}) {
	logContext(seelog.CriticalLvl, func() { Criticalc(message, context...) }, message, context...)
}

// Critical logs at the critical level and returns an error containing the formated log message
func Critical(v ...interface{}) error {
	return logWithError(seelog.CriticalLvl, func() { Critical(v...) }, true, buildLogEntry(v...))
}

// Criticalf logs with format at the critical level and returns an error containing the formated log message
func Criticalf(format string, params ...interface{}) error {
	return logWithError(seelog.CriticalLvl, func() { Criticalf(format, params...) }, true, fmt.Sprintf(format, params...))
}

// ErrorStackDepth logs at the error level, skipping depth additional frames
// when reporting the caller.
func ErrorStackDepth(depth int, v ...interface{}) error {
	msg := buildLogEntry(v...)
	if ready() && logger.shouldLog(seelog.ErrorLvl) {
		logger.errorStackDepth(msg, depth) //nolint:errcheck
	}
	return errors.New(msg)
}

// Flush flushes the underlying inner log
func Flush() {
	if ready() {
		logger.inner.Flush()
	}
}

// ReplaceLogger allows replacing the internal logger, returns old logger
func ReplaceLogger(l seelog.LoggerInterface) seelog.LoggerInterface {
	if ready() {
		return logger.replaceInnerLogger(l)
	}

	return nil
}

// GetLogLevel returns a seelog native representation of the current
// log level
func GetLogLevel() (seelog.LogLevel, error) {
	if ready() {
		return logger.getLogLevel(), nil
	}

	return seelog.InfoLvl, errors.New("cannot get loglevel: logger not initialized")
}

// ShouldLog returns whether a given log level should be logged by the default logger
func ShouldLog(lvl seelog.LogLevel) bool {
	if ready() {
		return logger.shouldLog(lvl)
	}
	return false
}

// ChangeLogLevel changes the current log level, valid levels are trace, debug,
// info, warn, error, critical and off. It requires a new seelog logger because
// an existing one cannot be updated.
func ChangeLogLevel(l seelog.LoggerInterface, level string) error {
	if ready() {
		if err := logger.changeLogLevel(level); err != nil {
			return err
		}
		if err := l.SetAdditionalStackDepth(defaultStackDepth); err != nil {
			return err
		}

		logger.replaceInnerLogger(l)
		return nil
	}
	return errors.New("cannot change loglevel: logger not initialized")
}
