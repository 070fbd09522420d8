// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/viper"

	"github.com/ava-labs/hyperload/crypto/ed25519"
	"github.com/ava-labs/hyperload/rpc"
	"github.com/ava-labs/hyperload/trace"
	"github.com/ava-labs/hyperload/utils"
)

// DefaultPath is read from the working directory.
const DefaultPath = "config.json"

const fsModeWrite = 0o600

var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidField = errors.New("invalid field")
)

type Config struct {
	APIURI     string `json:"apiURI" mapstructure:"apiURI"`
	ChainID    string `json:"chainID" mapstructure:"chainID"`
	Account    string `json:"account" mapstructure:"account"`
	PrivateKey string `json:"privateKey" mapstructure:"privateKey"`

	LogLevel      string `json:"logLevel" mapstructure:"logLevel"`
	LogFormat     string `json:"logFormat" mapstructure:"logFormat"`
	LogFile       string `json:"logFile" mapstructure:"logFile"`
	LogMaxSize    int    `json:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `json:"logMaxBackups" mapstructure:"logMaxBackups"`
	LogMaxAge     int    `json:"logMaxAge" mapstructure:"logMaxAge"`

	RequestTimeout   time.Duration `json:"requestTimeout" mapstructure:"requestTimeout"`
	HandshakeTimeout time.Duration `json:"handshakeTimeout" mapstructure:"handshakeTimeout"`
	// SubmitTimeout bounds the wait for a terminal event. Zero waits until
	// the event stream ends.
	SubmitTimeout time.Duration `json:"submitTimeout" mapstructure:"submitTimeout"`

	Tracing trace.Config `json:"tracing" mapstructure:"tracing"`
}

func NewDefaultConfig() *Config {
	return &Config{
		APIURI:           "http://127.0.0.1:8080",
		Account:          "alice@wonderland",
		LogLevel:         logging.Info.LowerString(),
		LogFormat:        "auto",
		LogMaxSize:       8,
		LogMaxBackups:    4,
		LogMaxAge:        7,
		RequestTimeout:   rpc.DefaultRequestTimeout,
		HandshakeTimeout: rpc.DefaultHandshakeTimeout,
		Tracing: trace.Config{
			TraceSampleRate: 1,
			AppName:         trace.DefaultAppName,
			Endpoint:        trace.DefaultEndpoint,
		},
	}
}

// Load reads the JSON file at [path]. A missing or malformed file is an
// error, as is any invalid field.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	c := NewDefaultConfig()
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", path, err)
	}
	if err := c.Verify(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) Verify() error {
	switch {
	case len(c.APIURI) == 0:
		return fmt.Errorf("%w: apiURI", ErrMissingField)
	case len(c.ChainID) == 0:
		return fmt.Errorf("%w: chainID", ErrMissingField)
	case len(c.Account) == 0:
		return fmt.Errorf("%w: account", ErrMissingField)
	case len(c.PrivateKey) == 0:
		return fmt.Errorf("%w: privateKey", ErrMissingField)
	case c.RequestTimeout < 0 || c.HandshakeTimeout < 0 || c.SubmitTimeout < 0:
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidField)
	}
	if !strings.Contains(c.Account, "@") {
		return fmt.Errorf("%w: account %q is not name@domain", ErrInvalidField, c.Account)
	}
	if _, err := c.Key(); err != nil {
		return fmt.Errorf("%w: privateKey: %w", ErrInvalidField, err)
	}
	if _, err := logging.ToLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: logLevel: %w", ErrInvalidField, err)
	}
	return c.Tracing.Verify()
}

func (c *Config) Key() (ed25519.PrivateKey, error) {
	return ed25519.LoadHexKey(c.PrivateKey)
}

func (c *Config) GetLogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		File:       c.LogFile,
		MaxSize:    c.LogMaxSize,
		MaxBackups: c.LogMaxBackups,
		MaxAge:     c.LogMaxAge,
	}
}

func (c *Config) GetTraceConfig() *trace.Config {
	return &c.Tracing
}

func (c *Config) GetClientConfig() (rpc.ClientConfig, error) {
	key, err := c.Key()
	if err != nil {
		return rpc.ClientConfig{}, err
	}
	return rpc.ClientConfig{
		URI:              c.APIURI,
		ChainID:          c.ChainID,
		Creator:          c.Account,
		Key:              key,
		RequestTimeout:   c.RequestTimeout,
		HandshakeTimeout: c.HandshakeTimeout,
	}, nil
}

// fileConfig renders durations the way [Load] parses them.
type fileConfig struct {
	*Config
	RequestTimeout   string `json:"requestTimeout"`
	HandshakeTimeout string `json:"handshakeTimeout"`
	SubmitTimeout    string `json:"submitTimeout"`
}

// Write stores [c] at [path] in the format read by [Load].
func (c *Config) Write(path string) error {
	b, err := json.MarshalIndent(fileConfig{
		Config:           c,
		RequestTimeout:   c.RequestTimeout.String(),
		HandshakeTimeout: c.HandshakeTimeout.String(),
		SubmitTimeout:    c.SubmitTimeout.String(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, fsModeWrite)
}
