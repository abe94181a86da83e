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
	"strings"
	"testing"

	"github.com/CrackerCat/android-introspection/internal/assert"
	"github.com/CrackerCat/android-introspection/internal/axmltest"
)

func TestDecodeStringPoolCounts(t *testing.T) {
	for _, enc := range []axmltest.Encoding{axmltest.UTF8, axmltest.UTF16} {
		data := manifestDoc(enc)
		h, err := parseHeader(data)
		assert.To(t).For("parseHeader enc %d", enc).ThatError(err).Succeeded()

		pool, err := decodeStringPool(data, h)
		assert.To(t).For("decode enc %d", enc).ThatError(err).Succeeded()
		assert.To(t).For("count matches header enc %d", enc).
			ThatInteger(len(pool.strings)).Equals(int(h.NumStrings))
		assert.To(t).For("slot per string enc %d", enc).
			ThatInteger(len(pool.slots)).Equals(len(pool.strings))
	}
}

func TestDecodeStringPoolContents(t *testing.T) {
	data := axmltest.New(axmltest.UTF16).
		Start("manifest", axmltest.String("package", "com.example.päckage")).
		End("manifest").
		Bytes()
	h, err := parseHeader(data)
	assert.To(t).For("parseHeader").ThatError(err).Succeeded()

	pool, err := decodeStringPool(data, h)
	assert.To(t).For("decode").ThatError(err).Succeeded()
	assert.To(t).For("strings").ThatSlice(pool.strings).
		DeepEquals([]string{"manifest", "package", "com.example.päckage"})
}

func TestDecodeLongUTF8String(t *testing.T) {
	// Longer than 127 bytes, forcing the two-byte length prefix for both
	// the char count and the byte count.
	long := strings.Repeat("com.example.", 20) + "app"
	data := axmltest.New(axmltest.UTF8).
		Start("manifest", axmltest.String("package", long)).
		End("manifest").
		Bytes()

	p, err := New(data)
	assert.To(t).For("New").ThatError(err).Succeeded()
	assert.To(t).For("long string survives decode").
		ThatString(p.ElementAttributes([]string{"manifest"})["package"]).
		Equals(long)
}

func TestDecodeLengthShortForms(t *testing.T) {
	n, consumed, err := decodeLength([]byte{0x05}, 0, 1)
	assert.To(t).For("utf8 short").ThatError(err).Succeeded()
	assert.To(t).For("utf8 short length").ThatInteger(n).Equals(5)
	assert.To(t).For("utf8 short consumed").ThatInteger(consumed).Equals(1)

	n, consumed, err = decodeLength([]byte{0x05, 0x00}, 0, 2)
	assert.To(t).For("utf16 short").ThatError(err).Succeeded()
	assert.To(t).For("utf16 short length").ThatInteger(n).Equals(5)
	assert.To(t).For("utf16 short consumed").ThatInteger(consumed).Equals(2)
}

func TestDecodeLengthLongForms(t *testing.T) {
	// 0x81 0x23 -> (0x01 << 8) | 0x23 = 291.
	n, consumed, err := decodeLength([]byte{0x81, 0x23}, 0, 1)
	assert.To(t).For("utf8 long").ThatError(err).Succeeded()
	assert.To(t).For("utf8 long length").ThatInteger(n).Equals(291)
	assert.To(t).For("utf8 long consumed").ThatInteger(consumed).Equals(2)

	// 0x0001 | 0x8000, then 0x0234 -> (0x0001 << 16) | 0x0234 = 66100.
	n, consumed, err = decodeLength([]byte{0x01, 0x80, 0x34, 0x02}, 0, 2)
	assert.To(t).For("utf16 long").ThatError(err).Succeeded()
	assert.To(t).For("utf16 long length").ThatInteger(n).Equals(66100)
	assert.To(t).For("utf16 long consumed").ThatInteger(consumed).Equals(4)
}

func TestDecodeLengthTruncated(t *testing.T) {
	_, _, err := decodeLength([]byte{}, 0, 1)
	assert.To(t).For("empty utf8").ThatError(err).Failed()

	_, _, err = decodeLength([]byte{0x81}, 0, 1)
	assert.To(t).For("missing second utf8 byte").ThatError(err).Failed()

	_, _, err = decodeLength([]byte{0x01, 0x80}, 0, 2)
	assert.To(t).For("missing second utf16 word").ThatError(err).Failed()
}

func TestRawSlotExtents(t *testing.T) {
	data := axmltest.New(axmltest.UTF8).
		Start("manifest", axmltest.String("package", "com.example")).
		End("manifest").
		Bytes()
	h, err := parseHeader(data)
	assert.To(t).For("parseHeader").ThatError(err).Succeeded()
	pool, err := decodeStringPool(data, h)
	assert.To(t).For("decode").ThatError(err).Succeeded()

	for i, s := range pool.strings {
		slot, ok := pool.rawSlot(uint32(i))
		assert.To(t).For("slot %d exists", i).ThatBoolean(ok).IsTrue()
		assert.To(t).For("slot %d payload", i).
			ThatString(string(data[slot.payloadOffset : slot.payloadOffset+slot.payloadLen])).
			Equals(s)
		assert.To(t).For("slot %d terminator", i).
			ThatInteger(int(data[slot.payloadOffset+slot.payloadLen])).Equals(0)
	}

	_, ok := pool.rawSlot(uint32(len(pool.strings)))
	assert.To(t).For("out of range slot").ThatBoolean(ok).IsFalse()
}

func TestGetNegativeIndexIsAbsent(t *testing.T) {
	pool := &stringPool{}
	s, err := pool.get(-1)
	assert.To(t).For("get(-1)").ThatError(err).Succeeded()
	assert.To(t).For("absent string").ThatString(s).IsEmpty()

	_, err = pool.get(0)
	assert.To(t).For("get(0) on empty pool").ThatError(err).Failed()
}
