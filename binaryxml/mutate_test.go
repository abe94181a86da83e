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

package binaryxml

import (
	"bytes"
	"testing"

	"github.com/CrackerCat/android-introspection/internal/assert"
	"github.com/CrackerCat/android-introspection/internal/axmltest"
)

var appPath = []string{"manifest", "application"}

func debuggableDoc(enc axmltest.Encoding, value string) []byte {
	return axmltest.New(enc).
		Start("manifest", axmltest.String("package", "com.example")).
		Start("application", axmltest.String("debuggable", value)).
		End("application").
		End("manifest").
		Bytes()
}

func TestSetElementAttribute(t *testing.T) {
	for _, enc := range []axmltest.Encoding{axmltest.UTF8, axmltest.UTF16} {
		data := debuggableDoc(enc, "fals")
		p, err := New(data)
		assert.To(t).For("New enc %d", enc).ThatError(err).Succeeded()

		err = p.SetElementAttribute(appPath, "debuggable", "true")
		assert.To(t).For("mutation enc %d", enc).ThatError(err).Succeeded()

		// Reparse the mutated buffer from scratch.
		p2, err := New(data)
		assert.To(t).For("reparse enc %d", enc).ThatError(err).Succeeded()
		assert.To(t).For("mutated value enc %d", enc).
			ThatString(p2.ElementAttributes(appPath)["debuggable"]).
			Equals("true")
		assert.To(t).For("other attributes preserved enc %d", enc).
			ThatMap(p2.ElementAttributes([]string{"manifest"})).
			DeepEquals(map[string]string{"package": "com.example"})
	}
}

func TestSetElementAttributePreservesLength(t *testing.T) {
	data := debuggableDoc(axmltest.UTF8, "fals")
	before := len(data)
	p, _ := New(data)

	err := p.SetElementAttribute(appPath, "debuggable", "true")
	assert.To(t).For("mutation").ThatError(err).Succeeded()
	assert.To(t).For("buffer length").ThatInteger(len(data)).Equals(before)
}

func TestSetElementAttributeRejectsLengthChange(t *testing.T) {
	for _, replacement := range []string{"true", "disabled"} {
		data := debuggableDoc(axmltest.UTF8, "false")
		pristine := append([]byte{}, data...)
		p, err := New(data)
		assert.To(t).For("New").ThatError(err).Succeeded()

		err = p.SetElementAttribute(appPath, "debuggable", replacement)
		assert.To(t).For("replacement %q", replacement).
			ThatError(err).HasCause(ErrUnsupportedMutation)
		assert.To(t).For("buffer unchanged for %q", replacement).
			ThatBoolean(bytes.Equal(data, pristine)).IsTrue()
	}
}

func TestSetElementAttributeSameValueIsNoop(t *testing.T) {
	data := debuggableDoc(axmltest.UTF8, "true")
	pristine := append([]byte{}, data...)
	p, _ := New(data)

	err := p.SetElementAttribute(appPath, "debuggable", "true")
	assert.To(t).For("no-op mutation").ThatError(err).Succeeded()
	assert.To(t).For("buffer unchanged").ThatBoolean(bytes.Equal(data, pristine)).IsTrue()
}

func TestSetElementAttributeMissingTargets(t *testing.T) {
	data := debuggableDoc(axmltest.UTF8, "false")
	pristine := append([]byte{}, data...)
	p, _ := New(data)

	// Neither a missing path nor a missing attribute is an error; both
	// leave the buffer untouched.
	err := p.SetElementAttribute([]string{"manifest", "activity"}, "debuggable", "true")
	assert.To(t).For("missing path").ThatError(err).Succeeded()

	err = p.SetElementAttribute(appPath, "exported", "true")
	assert.To(t).For("missing attribute").ThatError(err).Succeeded()

	assert.To(t).For("buffer unchanged").ThatBoolean(bytes.Equal(data, pristine)).IsTrue()
}

func TestSetElementAttributeMutatesFirstMatchOnly(t *testing.T) {
	// Two sibling activities with distinct label slots of equal length.
	data := axmltest.New(axmltest.UTF8).
		Start("manifest").
		Start("activity", axmltest.String("label", "aaaa")).
		End("activity").
		Start("activity", axmltest.String("label", "bbbb")).
		End("activity").
		End("manifest").
		Bytes()
	p, err := New(data)
	assert.To(t).For("New").ThatError(err).Succeeded()

	err = p.SetElementAttribute([]string{"manifest", "activity"}, "label", "cccc")
	assert.To(t).For("mutation").ThatError(err).Succeeded()

	labels := []string{}
	v := &funcVisitor{start: func(e StartElement) {
		if e.Name == "activity" {
			labels = append(labels, e.Attributes["label"])
		}
	}}
	p2, _ := New(data)
	p2.Traverse(v)
	assert.To(t).For("first match mutated").ThatSlice(labels).
		DeepEquals([]string{"cccc", "bbbb"})
}

func TestSetElementAttributeFirstMatchWithoutAttributeIsFinal(t *testing.T) {
	// The first sibling at the target path lacks the attribute; the
	// second carries it. The first match settles the search, so the
	// second sibling's slot must stay untouched.
	data := axmltest.New(axmltest.UTF8).
		Start("manifest").
		Start("activity", axmltest.String("name", "Main")).
		End("activity").
		Start("activity", axmltest.String("label", "bbbb")).
		End("activity").
		End("manifest").
		Bytes()
	pristine := append([]byte{}, data...)
	p, err := New(data)
	assert.To(t).For("New").ThatError(err).Succeeded()

	err = p.SetElementAttribute([]string{"manifest", "activity"}, "label", "cccc")
	assert.To(t).For("mutation").ThatError(err).Succeeded()
	assert.To(t).For("buffer unchanged").ThatBoolean(bytes.Equal(data, pristine)).IsTrue()
}

func TestSetElementAttributeFirstMatchWithoutRawValueIsFinal(t *testing.T) {
	// Same shape, but the first sibling carries the attribute as a plain
	// boolean with no raw-value slot. That still settles the search.
	data := axmltest.New(axmltest.UTF8).
		Start("manifest").
		Start("activity", axmltest.Bool("label", true)).
		End("activity").
		Start("activity", axmltest.String("label", "bbbb")).
		End("activity").
		End("manifest").
		Bytes()
	pristine := append([]byte{}, data...)
	p, err := New(data)
	assert.To(t).For("New").ThatError(err).Succeeded()

	err = p.SetElementAttribute([]string{"manifest", "activity"}, "label", "cccc")
	assert.To(t).For("mutation").ThatError(err).Succeeded()
	assert.To(t).For("buffer unchanged").ThatBoolean(bytes.Equal(data, pristine)).IsTrue()
}

func TestSetElementAttributeRejectsInvalidUTF8(t *testing.T) {
	data := debuggableDoc(axmltest.UTF8, "false")
	p, _ := New(data)

	err := p.SetElementAttribute(appPath, "debuggable", "fals\xff")
	assert.To(t).For("invalid utf-8 replacement").
		ThatError(err).HasCause(ErrUnsupportedMutation)
}

func TestSetElementAttributeOnNonStringValue(t *testing.T) {
	// The debuggable attribute is a boolean with no raw-value string;
	// there is no pool slot to rewrite, so the call is a no-op.
	data := axmltest.New(axmltest.UTF8).
		Start("manifest").
		Start("application", axmltest.Bool("debuggable", false)).
		End("application").
		End("manifest").
		Bytes()
	pristine := append([]byte{}, data...)
	p, _ := New(data)

	err := p.SetElementAttribute(appPath, "debuggable", "true")
	assert.To(t).For("no raw-value slot").ThatError(err).Succeeded()
	assert.To(t).For("buffer unchanged").ThatBoolean(bytes.Equal(data, pristine)).IsTrue()
}
