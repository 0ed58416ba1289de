// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/DataDog/capture-agent/pkg/util/log"
)

const (
	// EnvPrefix prefixes every environment variable read by the agent.
	EnvPrefix = "DD_CAPTURE"

	// DefaultServerAddress is where the capture service listens by default.
	DefaultServerAddress = "127.0.0.1:44765"

	defaultSamplesPerSecond = 1000
	defaultStackDumpSize    = 65000
	defaultEventThreshold   = 1000
	defaultElfCacheSize     = 256
)

// Configuration keys.
const (
	LogLevel     = "log_level"
	LogFile      = "log_file"
	LogToConsole = "log_to_console"

	ServerAddress  = "capture.server_address"
	TLSEnabled     = "capture.tls_enabled"
	ConnectTimeout = "capture.connect_timeout"
	AbortTimeout   = "capture.abort_timeout"

	SamplesPerSecond      = "capture.samples_per_second"
	UnwindingMethod       = "capture.unwinding_method"
	StackDumpSize         = "capture.stack_dump_size"
	CollectSchedulingInfo = "capture.collect_scheduling_info"
	CollectThreadStates   = "capture.collect_thread_states"
	CollectGpuJobs        = "capture.collect_gpu_jobs"
	CollectMemoryInfo     = "capture.collect_memory_info"
	MemorySamplingPeriod  = "capture.memory_sampling_period"
	EnableAPI             = "capture.enable_api"
	EnableIntrospection   = "capture.enable_introspection"

	TimestampSlack = "processor.timestamp_slack"

	UploaderEventThreshold = "uploader.event_threshold"
	UploaderMaxWait        = "uploader.max_wait"

	MergeExecutableMaps = "modules.merge_executable_maps"
	ElfCacheSize        = "modules.elf_cache_size"
)

// Unwinding methods accepted by UnwindingMethod.
const (
	UnwindingDwarf         = "dwarf"
	UnwindingFramePointers = "frame_pointers"
)

// New returns a configuration with every capture-agent default bound.
func New() Config {
	cfg := NewConfig("capture", EnvPrefix, strings.NewReplacer(".", "_"))
	InitConfig(cfg)
	return cfg
}

// InitConfig registers the defaults and env bindings of all known keys.
func InitConfig(cfg Config) {
	cfg.BindEnvAndSetDefault(LogLevel, "info")
	cfg.BindEnvAndSetDefault(LogFile, "")
	cfg.BindEnvAndSetDefault(LogToConsole, true)

	cfg.BindEnvAndSetDefault(ServerAddress, DefaultServerAddress)
	cfg.BindEnvAndSetDefault(TLSEnabled, false)
	cfg.BindEnvAndSetDefault(ConnectTimeout, 10*time.Second)
	cfg.BindEnvAndSetDefault(AbortTimeout, 5*time.Second)

	cfg.BindEnvAndSetDefault(SamplesPerSecond, defaultSamplesPerSecond)
	cfg.BindEnvAndSetDefault(UnwindingMethod, UnwindingDwarf)
	cfg.BindEnvAndSetDefault(StackDumpSize, defaultStackDumpSize)
	cfg.BindEnvAndSetDefault(CollectSchedulingInfo, true)
	cfg.BindEnvAndSetDefault(CollectThreadStates, false)
	cfg.BindEnvAndSetDefault(CollectGpuJobs, true)
	cfg.BindEnvAndSetDefault(CollectMemoryInfo, false)
	cfg.BindEnvAndSetDefault(MemorySamplingPeriod, 10*time.Millisecond)
	cfg.BindEnvAndSetDefault(EnableAPI, true)
	cfg.BindEnvAndSetDefault(EnableIntrospection, false)

	cfg.BindEnvAndSetDefault(TimestampSlack, time.Millisecond)

	cfg.BindEnvAndSetDefault(UploaderEventThreshold, defaultEventThreshold)
	cfg.BindEnvAndSetDefault(UploaderMaxWait, time.Second)

	cfg.BindEnvAndSetDefault(MergeExecutableMaps, true)
	cfg.BindEnvAndSetDefault(ElfCacheSize, defaultElfCacheSize)
}

// Load reads the optional config file at path into cfg and validates the
// result. A missing path only uses defaults and the environment.
func Load(cfg Config, path string) error {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return errors.Wrapf(err, "cannot access config file")
		}
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return err
		}
		log.Infof("loaded configuration from %s", cfg.ConfigFileUsed())
	}
	return Validate(cfg)
}

// Validate rejects unusable values and resets recoverable ones to their
// defaults.
func Validate(cfg Config) error {
	switch method := cfg.GetString(UnwindingMethod); method {
	case UnwindingDwarf, UnwindingFramePointers:
	default:
		return fmt.Errorf("invalid %s %q, expected %q or %q", UnwindingMethod, method, UnwindingDwarf, UnwindingFramePointers)
	}
	if cfg.GetInt(SamplesPerSecond) < 0 {
		return fmt.Errorf("%s must not be negative", SamplesPerSecond)
	}
	if threshold := cfg.GetInt(UploaderEventThreshold); threshold <= 0 {
		log.Warnf("%s must be positive, got %d; using %d", UploaderEventThreshold, threshold, defaultEventThreshold)
		cfg.Set(UploaderEventThreshold, defaultEventThreshold)
	}
	if cfg.GetDuration(TimestampSlack) < 0 {
		return fmt.Errorf("%s must not be negative", TimestampSlack)
	}
	return nil
}
