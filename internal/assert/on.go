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

package assert

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// OnString is the result of calling ThatString on an Assertion. It provides
// assertion tests that are specific to strings.
type OnString struct {
	*Assertion
	value string
}

// ThatString returns an OnString for string based assertions. The untyped
// argument is converted to a string using fmt.Sprint.
func (a *Assertion) ThatString(value interface{}) OnString {
	s := ""
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(value)
	}
	return OnString{Assertion: a, value: s}
}

// Equals asserts that the supplied string is equal to the expected string.
func (o OnString) Equals(expect string) bool {
	return o.Compare(o.value, "==", expect).Test(o.value == expect)
}

// NotEquals asserts that the supplied string is not equal to the test string.
func (o OnString) NotEquals(test string) bool {
	return o.Compare(o.value, "!=", test).Test(o.value != test)
}

// Contains asserts that the supplied string contains substr.
func (o OnString) Contains(substr string) bool {
	return o.Compare(o.value, "contains", substr).Test(strings.Contains(o.value, substr))
}

// DoesNotContain asserts that the supplied string does not contain substr.
func (o OnString) DoesNotContain(substr string) bool {
	return o.Compare(o.value, "does not contain", substr).Test(!strings.Contains(o.value, substr))
}

// IsEmpty asserts that the supplied string is "".
func (o OnString) IsEmpty() bool {
	return o.Compare(o.value, "is", "empty").Test(o.value == "")
}

// OnError is the result of calling ThatError on an Assertion. It provides
// assertion tests that are specific to error types.
type OnError struct {
	*Assertion
	err error
}

// ThatError returns an OnError for error type assertions.
func (a *Assertion) ThatError(err error) OnError {
	return OnError{Assertion: a, err: err}
}

// Succeeded asserts that the error value was nil.
func (o OnError) Succeeded() bool {
	return o.Compare(o.err, "", "success").Test(o.err == nil)
}

// Failed asserts that the error value was not nil.
func (o OnError) Failed() bool {
	return o.Expect("", "failure").Test(o.err != nil)
}

// HasCause asserts that the error cause matches the expected error.
func (o OnError) HasCause(expect error) bool {
	cause := errors.Cause(o.err)
	return o.Got(o.err).Expect("has cause", expect).Test(cause == expect)
}

// OnBoolean is the result of calling ThatBoolean on an Assertion. It
// provides boolean assertion tests.
type OnBoolean struct {
	*Assertion
	value bool
}

// ThatBoolean returns an OnBoolean for boolean based assertions.
func (a *Assertion) ThatBoolean(value bool) OnBoolean {
	return OnBoolean{Assertion: a, value: value}
}

// Equals asserts that the supplied boolean is equal to the expected boolean.
func (o OnBoolean) Equals(expect bool) bool {
	return o.Compare(o.value, "==", expect).Test(o.value == expect)
}

// IsTrue asserts that the supplied boolean is true.
func (o OnBoolean) IsTrue() bool {
	return o.Equals(true)
}

// IsFalse asserts that the supplied boolean is false.
func (o OnBoolean) IsFalse() bool {
	return o.Equals(false)
}

// OnInteger is the result of calling ThatInteger on an Assertion.
type OnInteger struct {
	*Assertion
	value int
}

// ThatInteger returns an OnInteger for integer based assertions.
func (a *Assertion) ThatInteger(value int) OnInteger {
	return OnInteger{Assertion: a, value: value}
}

// Equals asserts that the supplied integer equals the expected value.
func (o OnInteger) Equals(expect int) bool {
	return o.Compare(o.value, "==", expect).Test(o.value == expect)
}

// OnSlice is the result of calling ThatSlice on an Assertion. It provides
// assertion tests that are specific to slice types.
type OnSlice struct {
	*Assertion
	slice interface{}
}

// ThatSlice returns an OnSlice for assertions on slice type objects.
func (a *Assertion) ThatSlice(slice interface{}) OnSlice {
	return OnSlice{Assertion: a, slice: slice}
}

// IsEmpty asserts that the slice was of length 0.
func (o OnSlice) IsEmpty() bool {
	return o.IsLength(0)
}

// IsLength asserts that the slice has exactly the specified number of
// elements.
func (o OnSlice) IsLength(length int) bool {
	got := reflect.ValueOf(o.slice).Len()
	return o.Compare(got, "length ==", length).Test(got == length)
}

// DeepEquals asserts the array or slice matches expected using a deep-equal
// comparison.
func (o OnSlice) DeepEquals(expected interface{}) bool {
	return o.Compare(o.slice, "deep ==", expected).Test(reflect.DeepEqual(o.slice, expected))
}

// OnMap is the result of calling ThatMap on an Assertion. It provides
// assertion tests that are specific to map types.
type OnMap struct {
	*Assertion
	mp interface{}
}

// ThatMap returns an OnMap for assertions on map type objects.
func (a *Assertion) ThatMap(mp interface{}) OnMap {
	return OnMap{Assertion: a, mp: mp}
}

// IsEmpty asserts that the map was of length 0.
func (o OnMap) IsEmpty() bool {
	got := reflect.ValueOf(o.mp).Len()
	return o.Compare(got, "length ==", 0).Test(got == 0)
}

// DeepEquals asserts the map matches expected using a deep-equal comparison.
func (o OnMap) DeepEquals(expected interface{}) bool {
	return o.Compare(o.mp, "deep ==", expected).Test(reflect.DeepEqual(o.mp, expected))
}
