// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"os"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Level  string
	Format string
	// File, when set, receives a copy of every log line and is rotated
	// once it reaches MaxSize megabytes.
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// NewLogger writes to stderr and, optionally, a rotating file.
func NewLogger(name string, cfg LogConfig) (logging.Logger, error) {
	level, err := logging.ToLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ToFormat(cfg.Format, os.Stderr.Fd())
	if err != nil {
		return nil, err
	}
	cores := []logging.WrappedCore{
		logging.NewWrappedCore(level, os.Stderr, format.ConsoleEncoder()),
	}
	if len(cfg.File) > 0 {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, logging.NewWrappedCore(level, file, format.FileEncoder()))
	}
	return logging.NewLogger(name, cores...), nil
}
