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

// Package assert provides a fluent assertion helper for tests:
//
//	assert.To(t).For("decoded pool").ThatSlice(got).DeepEquals(expected)
//
// Each assertion buffers its description and commits it to the test output
// only on failure, with Got/Expect lines aligned in columns.
package assert

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"unicode"
)

// Output matches the logging methods of the test host types; a *testing.T
// satisfies it.
type Output interface {
	Fatal(...interface{})
	Error(...interface{})
	Log(...interface{})
}

// Manager is the root of the fluent interface. It wraps an assertion output
// target in something that can construct assertion objects.
type Manager struct {
	out Output
}

// To creates an assertion manager using the target t for logging.
func To(t Output) Manager {
	return Manager{out: t}
}

// For starts a new assertion with the supplied title.
func (m Manager) For(msg string, args ...interface{}) *Assertion {
	a := &Assertion{to: m.out, out: &bytes.Buffer{}}
	a.Printf(msg, args...)
	a.Println()
	return a
}

// Assertion is the type for the start of an assertion line.
type Assertion struct {
	out   *bytes.Buffer
	to    Output
	fatal bool
}

// Critical switches this assertion from Error to Fatal on failure.
func (a *Assertion) Critical() *Assertion {
	a.fatal = true
	return a
}

// PrintPretty writes a value to the output buffer, quoting strings and
// errors.
func (a *Assertion) PrintPretty(value interface{}) {
	switch value := value.(type) {
	case error:
		fmt.Fprintf(a.out, "`%v`", value)
	case string:
		fmt.Fprintf(a.out, "`%s`", value)
	default:
		fmt.Fprint(a.out, value)
	}
}

// Print writes a set of values to the output buffer, joined by tabs.
func (a *Assertion) Print(args ...interface{}) *Assertion {
	for i, v := range args {
		if i != 0 {
			a.out.WriteString("\t")
		}
		a.PrintPretty(v)
	}
	return a
}

// Println prints the values using Print and then starts a new indented line.
func (a *Assertion) Println(args ...interface{}) *Assertion {
	a.Print(args...)
	a.out.WriteString("\n    ")
	return a
}

// Printf writes a formatted unquoted string to the output buffer.
func (a *Assertion) Printf(format string, args ...interface{}) *Assertion {
	fmt.Fprintf(a.out, format, args...)
	return a
}

// Got adds the standard "Got" entry to the output buffer.
func (a *Assertion) Got(values ...interface{}) *Assertion {
	a.out.WriteString("Got\t\t")
	a.Println(values...)
	return a
}

// Expect adds the standard "Expect" entry to the output buffer.
func (a *Assertion) Expect(op string, values ...interface{}) *Assertion {
	a.out.WriteString("Expect\t")
	a.out.WriteString(op)
	a.out.WriteString("\t")
	a.Println(values...)
	return a
}

// Compare adds both the "Got" and "Expect" entries to the output buffer,
// with the operator prepended to the expect list.
func (a *Assertion) Compare(value interface{}, op string, expect ...interface{}) *Assertion {
	return a.Got(value).Expect(op, expect...)
}

// Test commits the pending output if the condition is not true, and returns
// the condition.
func (a *Assertion) Test(condition bool) bool {
	if !condition {
		a.Commit()
	}
	return condition
}

// Commit writes the buffered output lines to the main output object,
// aligning the tab-separated columns.
func (a *Assertion) Commit() {
	buf := &bytes.Buffer{}
	tabs := tabwriter.NewWriter(buf, 1, 4, 1, ' ', tabwriter.StripEscape)
	tabs.Write(a.out.Bytes())
	tabs.Flush()
	message := strings.TrimRightFunc(buf.String(), unicode.IsSpace)
	if a.fatal {
		a.to.Fatal(message)
	} else {
		a.to.Error(message)
	}
}
