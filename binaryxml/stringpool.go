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
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/CrackerCat/android-introspection/fault"
)

// ErrMalformedChunk is returned for out-of-range string indices, truncated
// chunks and unexpected attribute markers.
const ErrMalformedChunk fault.Const = "binaryxml: malformed chunk"

// stringSlot describes where one decoded string's encoded payload physically
// lives in the buffer, for the mutator's byte-exact rewrite.
type stringSlot struct {
	// prefixLen is the number of bytes occupied by the length prefix,
	// immediately before payloadOffset.
	prefixLen int
	// payloadOffset is the absolute offset of the first payload byte.
	payloadOffset int
	// payloadLen is the number of payload bytes, excluding the
	// terminator.
	payloadLen int
	// terminatorLen is the number of trailing zero bytes after the
	// payload (2 for UTF-16, 1 for UTF-8).
	terminatorLen int
}

// stringPool is the decoded form of the shared string table, plus enough
// bookkeeping to let the mutator locate the raw bytes backing any one
// string.
type stringPool struct {
	strings []string
	slots   []stringSlot
	utf8    bool
}

// decodeStringPool decodes the N strings referenced by h out of buf.
func decodeStringPool(buf []byte, h *Header) (*stringPool, error) {
	origin := h.StringDataOrigin()
	if int(origin) > len(buf) {
		return nil, errors.Wrapf(ErrMalformedChunk, "string data origin %d beyond buffer of %d bytes", origin, len(buf))
	}

	offsets := make([]uint32, h.NumStrings)
	for i := range offsets {
		at := fileHeaderSize + i*4
		if at+4 > len(buf) {
			return nil, errors.Wrapf(ErrMalformedChunk, "truncated string offset table at index %d", i)
		}
		offsets[i] = binary.LittleEndian.Uint32(buf[at : at+4])
	}

	utf8Encoded := h.UTF8Encoded()
	pool := &stringPool{
		strings: make([]string, len(offsets)),
		slots:   make([]stringSlot, len(offsets)),
		utf8:    utf8Encoded,
	}
	for i, off := range offsets {
		at := int(origin) + int(off)
		s, slot, err := decodeStringEntry(buf, at, utf8Encoded)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding string %d", i)
		}
		pool.strings[i] = s
		pool.slots[i] = slot
	}
	return pool, nil
}

// decodeLength decodes a length-prefixed count, honoring the high-bit
// continuation scheme: if the top bit of the first unit is set, a second
// unit follows and the two combine into one larger length. unitBytes is 1
// for the UTF-8 pool's 8-bit length bytes, 2 for the UTF-16 pool's 16-bit
// unit counts.
func decodeLength(buf []byte, at int, unitBytes int) (length int, consumed int, err error) {
	if unitBytes == 2 {
		if at+2 > len(buf) {
			return 0, 0, errors.Wrap(ErrMalformedChunk, "truncated string length")
		}
		first := binary.LittleEndian.Uint16(buf[at : at+2])
		if first&0x8000 == 0 {
			return int(first), 2, nil
		}
		if at+4 > len(buf) {
			return 0, 0, errors.Wrap(ErrMalformedChunk, "truncated long string length")
		}
		second := binary.LittleEndian.Uint16(buf[at+2 : at+4])
		return int(first&0x7fff)<<16 | int(second), 4, nil
	}

	if at+1 > len(buf) {
		return 0, 0, errors.Wrap(ErrMalformedChunk, "truncated string length")
	}
	first := buf[at]
	if first&0x80 == 0 {
		return int(first), 1, nil
	}
	if at+2 > len(buf) {
		return 0, 0, errors.Wrap(ErrMalformedChunk, "truncated long string length")
	}
	second := buf[at+1]
	return int(first&0x7f)<<8 | int(second), 2, nil
}

// decodeStringEntry decodes a single length-prefixed string starting at
// offset at in buf.
func decodeStringEntry(buf []byte, at int, utf8Encoded bool) (string, stringSlot, error) {
	if utf8Encoded {
		// Two length prefixes: a UTF-16 char count (ignored for
		// decoding) followed by the UTF-8 byte count that matters.
		_, n1, err := decodeLength(buf, at, 1)
		if err != nil {
			return "", stringSlot{}, err
		}
		byteLen, n2, err := decodeLength(buf, at+n1, 1)
		if err != nil {
			return "", stringSlot{}, err
		}
		payloadOffset := at + n1 + n2
		if payloadOffset+byteLen+1 > len(buf) {
			return "", stringSlot{}, errors.Wrap(ErrMalformedChunk, "truncated utf-8 string payload")
		}
		s := string(buf[payloadOffset : payloadOffset+byteLen])
		return s, stringSlot{
			prefixLen:     n1 + n2,
			payloadOffset: payloadOffset,
			payloadLen:    byteLen,
			terminatorLen: 1,
		}, nil
	}

	charCount, n, err := decodeLength(buf, at, 2)
	if err != nil {
		return "", stringSlot{}, err
	}
	payloadOffset := at + n
	byteLen := charCount * 2
	if payloadOffset+byteLen+2 > len(buf) {
		return "", stringSlot{}, errors.Wrap(ErrMalformedChunk, "truncated utf-16 string payload")
	}
	units := make([]uint16, charCount)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(buf[payloadOffset+i*2 : payloadOffset+i*2+2])
	}
	s := string(utf16.Decode(units))
	return s, stringSlot{
		prefixLen:     n,
		payloadOffset: payloadOffset,
		payloadLen:    byteLen,
		terminatorLen: 2,
	}, nil
}

// get returns the decoded string at idx, or "" if idx is negative (the
// binary format's way of spelling "absent").
func (p *stringPool) get(idx int32) (string, error) {
	if idx < 0 {
		return "", nil
	}
	if int(idx) >= len(p.strings) {
		return "", errors.Wrapf(ErrMalformedChunk, "string index %d out of range (pool has %d entries)", idx, len(p.strings))
	}
	return p.strings[idx], nil
}

// rawSlot returns the physical extent of string i's encoded payload, for
// the mutator. ok is false if idx is out of range.
func (p *stringPool) rawSlot(idx uint32) (stringSlot, bool) {
	if int(idx) >= len(p.slots) {
		return stringSlot{}, false
	}
	return p.slots[idx], true
}

// encodeReplacement encodes replacement the same way the pool's existing
// entries are encoded, for comparison against a slot's payloadLen.
func (p *stringPool) encodeReplacement(replacement string) []byte {
	if p.utf8 {
		return []byte(replacement)
	}
	units := utf16.Encode([]rune(replacement))
	b := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[i*2:i*2+2], u)
	}
	return b
}

// validUTF8 reports whether s round-trips through the UTF-8 pool's encoding
// without loss. Checked before a mutation so the pool never ends up holding
// bytes that are not the encoding the header declares.
func validUTF8(s string) bool {
	return utf8.ValidString(s)
}
