// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package log

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/cihub/seelog"
)

// LoggerName names the binary in every log line.
type LoggerName string

const (
	// CaptureLoggerName is the logger name of the capture-agent binary.
	CaptureLoggerName LoggerName = "CAPTURE"

	logDateFormat = "2006-01-02 15:04:05 MST"
	maxLogSize    = 10 * 1024 * 1024
	maxLogRolls   = 1
)

const seelogConfigTemplate = `<seelog minlevel="{{.Level}}">
	<outputs formatid="common">
		{{- if .Console}}
		<console/>
		{{- end}}
		{{- if .File}}
		<rollingfile type="size" filename="{{.File}}" maxsize="{{.MaxSize}}" maxrolls="{{.MaxRolls}}"/>
		{{- end}}
	</outputs>
	<formats>
		<format id="common" format="{{.Format}}"/>
	</formats>
</seelog>`

var seelogConfig = template.Must(template.New("seelog").Parse(seelogConfigTemplate))

// Params describes where and how lines are logged.
type Params struct {
	Name    LoggerName
	Level   string
	File    string
	Console bool
}

func commonFormat(name LoggerName) string {
	return fmt.Sprintf("%%Date(%s) | %s | %%LEVEL | (%%ShortFilePath:%%Line in %%FuncShort) | %%ExtraTextContext%%Msg%%n", logDateFormat, name)
}

// BuildLoggerConfig renders the seelog XML configuration for params.
func BuildLoggerConfig(params Params) (string, error) {
	level := strings.ToLower(params.Level)
	if _, ok := seelog.LogLevelFromString(level); !ok {
		return "", fmt.Errorf("unknown log level %q", params.Level)
	}

	var buf bytes.Buffer
	err := seelogConfig.Execute(&buf, struct {
		Level    string
		Console  bool
		File     string
		MaxSize  int
		MaxRolls int
		Format   string
	}{
		Level:    level,
		Console:  params.Console || params.File == "",
		File:     params.File,
		MaxSize:  maxLogSize,
		MaxRolls: maxLogRolls,
		Format:   commonFormat(params.Name),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Setup builds a seelog logger from params and installs it as the package
// logger.
func Setup(params Params) error {
	cfg, err := BuildLoggerConfig(params)
	if err != nil {
		return err
	}

	// Registering twice returns an error that is safe to ignore.
	_ = seelog.RegisterCustomFormatter("ShortFilePath", createShortFilePath)
	_ = seelog.RegisterCustomFormatter("ExtraTextContext", createExtraTextContext)

	l, err := seelog.LoggerFromConfigAsString(cfg)
	if err != nil {
		return fmt.Errorf("unable to build logger: %w", err)
	}
	SetupLogger(l, params.Level)
	return nil
}

// createShortFilePath renders the calling file as "<package dir>/<file>".
func createShortFilePath(string) seelog.FormatterFunc {
	return func(_ string, _ seelog.LogLevel, context seelog.LogContextInterface) interface{} {
		return shortFilePath(context.FullPath())
	}
}

func shortFilePath(path string) string {
	path = filepath.ToSlash(path)
	file := path[strings.LastIndex(path, "/")+1:]
	dir := strings.TrimSuffix(path, "/"+file)
	if dir == path || dir == "" {
		return file
	}
	return dir[strings.LastIndex(dir, "/")+1:] + "/" + file
}
