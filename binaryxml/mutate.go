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
	"github.com/pkg/errors"

	"github.com/CrackerCat/android-introspection/fault"
)

// ErrUnsupportedMutation is returned by SetElementAttribute when the
// replacement value does not encode to the same byte length as the value it
// would replace. The core never resizes the string pool or rewrites offsets
// elsewhere in the file, so any mutation that isn't length-preserving is
// rejected outright.
const ErrUnsupportedMutation fault.Const = "binaryxml: mutation would change encoded length"

// mutAttr is the subset of an attribute record the mutator cares about: its
// name and the string-pool index backing its raw value, independent of the
// attribute's typed-value kind.
type mutAttr struct {
	name        string
	rawValueIdx int32
}

// setElementAttribute runs its own single-purpose traversal rather than a
// generic Visitor: it needs the raw attribute records, not their rendered
// values.
func setElementAttribute(buf []byte, h *Header, pool *stringPool, path []string, attrName, newValue string) error {
	xmlChunkOffset := h.XMLChunkOffset(len(buf))
	if xmlChunkOffset == 0 {
		return nil // nothing to traverse
	}

	c := &cursor{buf: buf, at: int(xmlChunkOffset)}
	tag, err := c.u16()
	if err != nil {
		return errors.Wrap(err, "reading first chunk tag")
	}

	var stack []string

	for {
		headerSize, err := c.u16()
		if err != nil {
			return err
		}
		_ = headerSize
		chunkSize, err := c.u32()
		if err != nil {
			return err
		}
		bodyStart := c.at

		switch tag {
		case chunkStartElement:
			name, attrs, err := decodeStartElementForMutation(c, pool)
			if err != nil {
				return err
			}
			stack = append(stack, name)

			if pathEqual(stack, path) {
				// The first element at the target path is final:
				// whether the attribute search inside it succeeds
				// or not, later siblings at the same path are left
				// untouched.
				for _, a := range attrs {
					if a.name == attrName {
						return rewriteAttributeValue(buf, pool, a.rawValueIdx, newValue)
					}
				}
				return nil
			}

		case chunkEndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if err := c.skip(int(chunkSize) - chunkPreambleSize - (c.at - bodyStart)); err != nil {
				return err
			}

		default:
			if err := c.skip(int(chunkSize) - chunkPreambleSize); err != nil {
				return err
			}
		}

		tag, err = c.u16()
		if err != nil {
			return err
		}
		if tag == chunkEndNamespace {
			return nil // no match anywhere in the document; a no-op
		}
	}
}

// decodeStartElementForMutation mirrors decodeStartElement, but returns raw
// attribute string-pool indices instead of rendered values: the mutator
// needs to know exactly which pool slot backs an attribute, regardless of
// its typed-value kind.
func decodeStartElementForMutation(c *cursor, pool *stringPool) (string, []mutAttr, error) {
	if err := c.skip(8); err != nil { // lineNumber + comment
		return "", nil, err
	}
	if _, err := c.i32(); err != nil { // namespace
		return "", nil, err
	}
	nameIdx, err := c.i32()
	if err != nil {
		return "", nil, err
	}
	name, err := pool.get(nameIdx)
	if err != nil {
		return "", nil, err
	}

	marker, err := c.u32()
	if err != nil {
		return "", nil, err
	}
	if marker != attrsMarker {
		return "", nil, errors.Wrapf(ErrMalformedChunk, "unexpected attribute marker 0x%08x", marker)
	}
	count, err := c.u32()
	if err != nil {
		return "", nil, err
	}
	if _, err := c.u32(); err != nil { // unused trailing count
		return "", nil, err
	}

	attrs := make([]mutAttr, 0, count)
	for i := uint32(0); i < count; i++ {
		if _, err := c.i32(); err != nil { // namespace
			return "", nil, err
		}
		nameIdx, err := c.i32()
		if err != nil {
			return "", nil, err
		}
		valueIdx, err := c.i32()
		if err != nil {
			return "", nil, err
		}
		if _, err := c.u16(); err != nil { // size
			return "", nil, err
		}
		if _, err := c.u8(); err != nil { // zero padding
			return "", nil, err
		}
		if _, err := c.u8(); err != nil { // type tag
			return "", nil, err
		}
		if _, err := c.u32(); err != nil { // typed value
			return "", nil, err
		}

		attrName, err := pool.get(nameIdx)
		if err != nil {
			return "", nil, err
		}
		if attrName == "" {
			continue
		}
		attrs = append(attrs, mutAttr{name: attrName, rawValueIdx: valueIdx})
	}

	return name, attrs, nil
}

// rewriteAttributeValue overwrites the string-pool slot backing rawValueIdx
// with newValue's encoding, in place. An attribute with no backing
// raw-value string (rawValueIdx < 0) has nothing to rewrite and is a no-op.
func rewriteAttributeValue(buf []byte, pool *stringPool, rawValueIdx int32, newValue string) error {
	if rawValueIdx < 0 {
		return nil
	}

	slot, ok := pool.rawSlot(uint32(rawValueIdx))
	if !ok {
		return errors.Wrapf(ErrMalformedChunk, "attribute value string index %d out of range", rawValueIdx)
	}

	if pool.utf8 && !validUTF8(newValue) {
		return errors.Wrap(ErrUnsupportedMutation, "replacement is not valid utf-8")
	}

	encoded := pool.encodeReplacement(newValue)
	if len(encoded) != slot.payloadLen {
		return errors.Wrapf(ErrUnsupportedMutation, "replacement encodes to %d bytes, slot holds %d", len(encoded), slot.payloadLen)
	}

	copy(buf[slot.payloadOffset:slot.payloadOffset+slot.payloadLen], encoded)
	return nil
}
