// Copyright (C) 2017 Google Inc.
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

// Package logsink provides the minimal injectable logging surface used by
// this module. The binary-XML core never reaches for a global logger; every
// component that wants to report something takes a Sink and falls back to
// Nop when the caller doesn't supply one.
package logsink

import (
	"fmt"
	"io"
)

// Sink receives leveled, printf-style log messages. The zero value of any
// type implementing Sink should behave like Nop.
type Sink interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Nop discards everything. It is the default sink used whenever a caller
// passes a nil Sink.
var Nop Sink = nopSink{}

type nopSink struct{}

func (nopSink) Debugf(string, ...interface{}) {}
func (nopSink) Infof(string, ...interface{})  {}
func (nopSink) Warnf(string, ...interface{})  {}
func (nopSink) Errorf(string, ...interface{}) {}

// Or returns s if it is non-nil, else Nop. Components should call this once
// on construction rather than nil-checking on every log call.
func Or(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}

// Std writes leveled, prefixed lines to w. It is the sink wired up by the
// cmd/axml CLI.
type Std struct {
	W io.Writer
}

func (s Std) Debugf(format string, args ...interface{}) { s.writef("D", format, args...) }
func (s Std) Infof(format string, args ...interface{})  { s.writef("I", format, args...) }
func (s Std) Warnf(format string, args ...interface{})  { s.writef("W", format, args...) }
func (s Std) Errorf(format string, args ...interface{}) { s.writef("E", format, args...) }

func (s Std) writef(level, format string, args ...interface{}) {
	if s.W == nil {
		return
	}
	fmt.Fprintf(s.W, level+": "+format+"\n", args...)
}
