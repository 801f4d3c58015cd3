// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"io"

	log "github.com/sirupsen/logrus"
)

type LogLevel int

const (
	// ErrLevel=1 - the minimum level of logging.
	ErrLevel LogLevel = iota + 1

	// WarnLEvel=2 - the level for logging warnings, and errors
	WarnLevel

	// InfoLevel=3 - the level for logging high-level information, results
	InfoLevel

	// DebugLevel=4 - the level for debugging information. The tool will run properly on large programs with
	// that level of debug information.
	DebugLevel

	// TraceLevel=5 - the level for tracing. Every intermediate forest automaton is printed, this is only useful on
	// small programs.
	TraceLevel
)

// logrusLevel maps the levels of the configuration to the levels of logrus
func (l LogLevel) logrusLevel() log.Level {
	switch {
	case l <= ErrLevel:
		return log.ErrorLevel
	case l == WarnLevel:
		return log.WarnLevel
	case l == InfoLevel:
		return log.InfoLevel
	case l == DebugLevel:
		return log.DebugLevel
	default:
		return log.TraceLevel
	}
}

// LogGroup is a leveled logger configured from the logging settings of a Config
type LogGroup struct {
	level  LogLevel
	logger *log.Logger
}

// NewLogGroup returns a log group that is configured to the logging settings stored inside the config
func NewLogGroup(config *Config) *LogGroup {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
	level := LogLevel(config.LogLevel)
	if config.SilenceWarn && level == WarnLevel {
		level = ErrLevel
	}
	logger.SetLevel(level.logrusLevel())
	return &LogGroup{level: level, logger: logger}
}

// SetAllOutput sets the output writer of the group to the writer provided
func (l *LogGroup) SetAllOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// SetLevel changes the verbosity of the group
func (l *LogGroup) SetLevel(level LogLevel) {
	l.level = level
	l.logger.SetLevel(level.logrusLevel())
}

// Level returns the verbosity of the group
func (l *LogGroup) Level() LogLevel {
	return l.level
}

// WithField returns an entry of the underlying logger carrying the key-value pair.
func (l *LogGroup) WithField(key string, value any) *log.Entry {
	return l.logger.WithField(key, value)
}

// Tracef prints to the trace level. Arguments are handled in the manner of Printf
func (l *LogGroup) Tracef(format string, v ...any) {
	if l.level >= TraceLevel {
		l.logger.Tracef(format, v...)
	}
}

// Debugf prints to the debug level. Arguments are handled in the manner of Printf
func (l *LogGroup) Debugf(format string, v ...any) {
	if l.level >= DebugLevel {
		l.logger.Debugf(format, v...)
	}
}

// Infof prints to the info level. Arguments are handled in the manner of Printf
func (l *LogGroup) Infof(format string, v ...any) {
	if l.level >= InfoLevel {
		l.logger.Infof(format, v...)
	}
}

// Warnf prints to the warning level. Arguments are handled in the manner of Printf
func (l *LogGroup) Warnf(format string, v ...any) {
	if l.level >= WarnLevel {
		l.logger.Warnf(format, v...)
	}
}

// Errorf prints to the error level. Arguments are handled in the manner of Printf
func (l *LogGroup) Errorf(format string, v ...any) {
	if l.level >= ErrLevel {
		l.logger.Errorf(format, v...)
	}
}
