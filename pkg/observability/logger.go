// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package observability provides logging and metrics.
package observability

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger interface.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field represents a log field.
type Field struct {
	Key   string
	Value any
}

// logger is the default implementation backed by zap.
type logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger writing human-readable output to stderr.
// Valid levels are debug, info, warn and error.
func NewLogger(level string) (Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("unknown log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &logger{sugar: z.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &logger{sugar: zap.NewNop().Sugar()}
}

func (l *logger) Debug(msg string, fields ...Field) {
	l.sugar.Debugw(msg, kvs(fields)...)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.sugar.Infow(msg, kvs(fields)...)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.sugar.Warnw(msg, kvs(fields)...)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.sugar.Errorw(msg, kvs(fields)...)
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{sugar: l.sugar.With(kvs(fields)...)}
}

func kvs(fields []Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
