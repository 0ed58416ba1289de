// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package config holds the viper-backed configuration of the capture agent.
package config

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/DataDog/viper"
	"github.com/pkg/errors"

	"github.com/DataDog/capture-agent/pkg/util/log"
)

// Reader is the read side of the configuration.
type Reader interface {
	Get(key string) interface{}
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	IsSet(key string) bool
	ConfigFileUsed() string
}

// Config is a configuration that can be built and read.
type Config interface {
	Reader

	Set(key string, value interface{})
	SetDefault(key string, value interface{})
	BindEnv(key string, envvars ...string)
	BindEnvAndSetDefault(key string, value interface{}, envvars ...string)
	SetConfigFile(path string)
	SetConfigType(in string)
	ReadInConfig() error
	ReadConfig(in io.Reader) error
}

// safeConfig wraps viper with a lock; viper itself is not safe for
// concurrent use.
type safeConfig struct {
	*viper.Viper
	sync.RWMutex
	envPrefix      string
	envKeyReplacer *strings.Replacer
}

// NewConfig returns an empty configuration reading environment variables
// prefixed with envPrefix.
func NewConfig(name string, envPrefix string, envKeyReplacer *strings.Replacer) Config {
	c := &safeConfig{
		Viper:          viper.New(),
		envPrefix:      envPrefix,
		envKeyReplacer: envKeyReplacer,
	}
	c.Viper.SetTypeByDefaultValue(true)
	c.Viper.SetConfigName(name)
	c.Viper.SetEnvPrefix(envPrefix)
	if envKeyReplacer != nil {
		c.Viper.SetEnvKeyReplacer(envKeyReplacer)
	}
	return c
}

// Set wraps Viper for concurrent access
func (c *safeConfig) Set(key string, value interface{}) {
	c.Lock()
	defer c.Unlock()
	c.Viper.Set(key, value)
}

// SetDefault wraps Viper for concurrent access
func (c *safeConfig) SetDefault(key string, value interface{}) {
	c.Lock()
	defer c.Unlock()
	c.Viper.SetDefault(key, value)
}

// BindEnv wraps Viper for concurrent access. Without explicit env vars the
// name is derived from the key: capture.server_address binds
// DD_CAPTURE_CAPTURE_SERVER_ADDRESS.
func (c *safeConfig) BindEnv(key string, envvars ...string) {
	c.Lock()
	defer c.Unlock()

	newKeys := append([]string{key}, envvars...)
	_ = c.Viper.BindEnv(newKeys...)
}

// BindEnvAndSetDefault sets the default value and binds the env var of key.
func (c *safeConfig) BindEnvAndSetDefault(key string, value interface{}, envvars ...string) {
	c.SetDefault(key, value)
	c.BindEnv(key, envvars...)
}

// IsSet wraps Viper for concurrent access
func (c *safeConfig) IsSet(key string) bool {
	c.RLock()
	defer c.RUnlock()
	return c.Viper.IsSet(key)
}

// Get wraps Viper for concurrent access
func (c *safeConfig) Get(key string) interface{} {
	c.RLock()
	defer c.RUnlock()
	return c.Viper.Get(key)
}

// GetString wraps Viper for concurrent access
func (c *safeConfig) GetString(key string) string {
	c.RLock()
	defer c.RUnlock()
	val, err := c.Viper.GetStringE(key)
	if err != nil {
		log.Warnf("failed to get configuration value for key %q: %s", key, err)
	}
	return val
}

// GetBool wraps Viper for concurrent access
func (c *safeConfig) GetBool(key string) bool {
	c.RLock()
	defer c.RUnlock()
	val, err := c.Viper.GetBoolE(key)
	if err != nil {
		log.Warnf("failed to get configuration value for key %q: %s", key, err)
	}
	return val
}

// GetInt wraps Viper for concurrent access
func (c *safeConfig) GetInt(key string) int {
	c.RLock()
	defer c.RUnlock()
	val, err := c.Viper.GetIntE(key)
	if err != nil {
		log.Warnf("failed to get configuration value for key %q: %s", key, err)
	}
	return val
}

// GetInt64 wraps Viper for concurrent access
func (c *safeConfig) GetInt64(key string) int64 {
	c.RLock()
	defer c.RUnlock()
	val, err := c.Viper.GetInt64E(key)
	if err != nil {
		log.Warnf("failed to get configuration value for key %q: %s", key, err)
	}
	return val
}

// GetDuration wraps Viper for concurrent access
func (c *safeConfig) GetDuration(key string) time.Duration {
	c.RLock()
	defer c.RUnlock()
	val, err := c.Viper.GetDurationE(key)
	if err != nil {
		log.Warnf("failed to get configuration value for key %q: %s", key, err)
	}
	return val
}

// GetStringSlice wraps Viper for concurrent access
func (c *safeConfig) GetStringSlice(key string) []string {
	c.RLock()
	defer c.RUnlock()
	val, err := c.Viper.GetStringSliceE(key)
	if err != nil {
		log.Warnf("failed to get configuration value for key %q: %s", key, err)
	}
	return val
}

// SetConfigFile wraps Viper for concurrent access
func (c *safeConfig) SetConfigFile(path string) {
	c.Lock()
	defer c.Unlock()
	c.Viper.SetConfigFile(path)
}

// SetConfigType wraps Viper for concurrent access
func (c *safeConfig) SetConfigType(in string) {
	c.Lock()
	defer c.Unlock()
	c.Viper.SetConfigType(in)
}

// ConfigFileUsed wraps Viper for concurrent access
func (c *safeConfig) ConfigFileUsed() string {
	c.RLock()
	defer c.RUnlock()
	return c.Viper.ConfigFileUsed()
}

// ReadInConfig wraps Viper for concurrent access
func (c *safeConfig) ReadInConfig() error {
	c.Lock()
	defer c.Unlock()
	if err := c.Viper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "unable to load config file %q", c.Viper.ConfigFileUsed())
	}
	return nil
}

// ReadConfig wraps Viper for concurrent access
func (c *safeConfig) ReadConfig(in io.Reader) error {
	c.Lock()
	defer c.Unlock()
	if err := c.Viper.ReadConfig(in); err != nil {
		return errors.Wrap(err, "unable to parse config")
	}
	return nil
}
