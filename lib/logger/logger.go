/*
Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

 http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logger

import (
	"fmt"
	"sync"

	"github.com/openGemini/intervaljoin/lib/errno"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a module scoped logger. Errors carrying an *errno.Error are
// tagged with the full errno code.
type Logger struct {
	node   errno.Node
	module errno.Module
	fields []zap.Field
}

var loggerPool sync.Map

func NewLogger(module errno.Module) *Logger {
	l, ok := loggerPool.Load(module)
	if ok {
		log, _ := l.(*Logger)
		return log
	}
	// concurrent callers may store the same module twice, both are equivalent
	log := &Logger{
		node:   errno.GetNode(),
		module: module,
	}
	loggerPool.Store(module, log)
	return log
}

// With returns a child logger carrying fields; the module logger is not modified.
func (l *Logger) With(fields ...zap.Field) *Logger {
	merged := make([]zap.Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{
		node:   l.node,
		module: l.module,
		fields: merged,
	}
}

func (l *Logger) Module() errno.Module {
	return l.module
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	fields = l.rewriteFields(l.merge(fields))
	GetLogger().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	GetLogger().WithOptions(zap.AddCallerSkip(1)).Info(msg, l.merge(fields)...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	GetLogger().WithOptions(zap.AddCallerSkip(1)).Warn(msg, l.merge(fields)...)
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if level > zapcore.DebugLevel {
		return
	}
	GetLogger().WithOptions(zap.AddCallerSkip(1)).Debug(msg, l.merge(fields)...)
}

func (l *Logger) IsDebugLevel() bool {
	return level == zap.DebugLevel
}

func (l *Logger) merge(fields []zap.Field) []zap.Field {
	if len(l.fields) == 0 {
		return fields
	}
	merged := make([]zap.Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	return append(merged, fields...)
}

func (l *Logger) rewriteFields(fields []zap.Field) []zap.Field {
	for i := range fields {
		if fields[i].Key != "error" {
			continue
		}

		tmp, ok := fields[i].Interface.(*errno.Error)
		if !ok || tmp == nil {
			continue
		}

		code := MakeErrno(tmp, l.node, l.module)

		fields = append(fields, zap.String("errno", code))
		if tmp.Level().LogStack() && len(tmp.Stack()) > 0 {
			fields = append(fields, zap.String("stack", string(tmp.Stack())))
		}
		return fields
	}

	return fields
}

// MakeErrno renders the full code: node, module, level, errno.
func MakeErrno(err *errno.Error, n errno.Node, m errno.Module) string {
	level := err.Level() % (errno.LevelFatal + 1)
	module := err.Module()
	if module == errno.ModuleUnknown {
		module = m
	}

	return fmt.Sprintf("%d%02d%d%04d", n, module, level, err.Errno())
}
