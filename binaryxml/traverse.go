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
	"sort"

	"github.com/pkg/errors"

	"github.com/CrackerCat/android-introspection/logsink"
)

const chunkPreambleSize = 8 // tag(2) + headerSize(2) + chunkSize(4)

// cursor is a small bounds-checked reader over the immutable document
// buffer, tracking the absolute byte offset of the next unread byte.
type cursor struct {
	buf []byte
	at  int
}

func (c *cursor) u16() (uint16, error) {
	if c.at+2 > len(c.buf) {
		return 0, errors.Wrap(ErrMalformedChunk, "truncated uint16")
	}
	v := binary.LittleEndian.Uint16(c.buf[c.at : c.at+2])
	c.at += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if c.at+4 > len(c.buf) {
		return 0, errors.Wrap(ErrMalformedChunk, "truncated uint32")
	}
	v := binary.LittleEndian.Uint32(c.buf[c.at : c.at+4])
	c.at += 4
	return v, nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}

func (c *cursor) u8() (uint8, error) {
	if c.at+1 > len(c.buf) {
		return 0, errors.Wrap(ErrMalformedChunk, "truncated uint8")
	}
	v := c.buf[c.at]
	c.at++
	return v, nil
}

func (c *cursor) skip(n int) error {
	if c.at+n > len(c.buf) || c.at+n < c.at {
		return errors.Wrap(ErrMalformedChunk, "skip past end of buffer")
	}
	c.at += n
	return nil
}

// traverse walks the chunk stream starting at the document's XML chunk
// offset, dispatching one event per recognized chunk to v. It never
// mutates buf.
func traverse(buf []byte, pool *stringPool, xmlChunkOffset uint32, sink logsink.Sink, v Visitor) {
	sink = logsink.Or(sink)

	if xmlChunkOffset == 0 {
		v.VisitInvalid(Invalid{Reason: "chunk offset is zero"})
		return
	}

	c := &cursor{buf: buf, at: int(xmlChunkOffset)}
	tag, err := c.u16()
	if err != nil {
		v.VisitInvalid(Invalid{Reason: err.Error()})
		return
	}

	for {
		headerSize, err := c.u16()
		if err != nil {
			v.VisitInvalid(Invalid{Reason: err.Error()})
			return
		}
		chunkSize, err := c.u32()
		if err != nil {
			v.VisitInvalid(Invalid{Reason: err.Error()})
			return
		}
		_ = headerSize // only chunkSize drives the cursor

		bodyStart := c.at

		switch tag {
		case chunkStartElement:
			name, attrs, err := decodeStartElement(c, pool)
			if err != nil {
				v.VisitInvalid(Invalid{Reason: err.Error()})
				return
			}
			v.VisitStart(StartElement{Name: name, Attributes: attrs})

		case chunkEndElement:
			name, err := decodeEndElement(c, pool)
			if err != nil {
				v.VisitInvalid(Invalid{Reason: err.Error()})
				return
			}
			v.VisitEnd(EndElement{Name: name})

		case chunkCData:
			text, err := decodeCData(c, pool)
			if err != nil {
				v.VisitInvalid(Invalid{Reason: err.Error()})
				return
			}
			v.VisitCData(CData{Text: text})

		case chunkStartNamespace, chunkResourceMap:
			if err := c.skip(int(chunkSize) - chunkPreambleSize); err != nil {
				v.VisitInvalid(Invalid{Reason: err.Error()})
				return
			}

		default:
			sink.Warnf("binaryxml: skipping unknown chunk tag 0x%04x", tag)
			if err := c.skip(int(chunkSize) - chunkPreambleSize); err != nil {
				v.VisitInvalid(Invalid{Reason: err.Error()})
				return
			}
		}

		// Handlers for recognized non-skip chunks are expected to
		// consume exactly their own body; if they under- or
		// over-read relative to the declared chunk size, trust the
		// declared size and resync on it so a decoder bug in one
		// chunk doesn't cascade into every chunk after it.
		if tag == chunkStartElement || tag == chunkEndElement || tag == chunkCData {
			c.at = bodyStart + (int(chunkSize) - chunkPreambleSize)
		}

		tag, err = c.u16()
		if err != nil {
			v.VisitInvalid(Invalid{Reason: err.Error()})
			return
		}
		if tag == chunkEndNamespace {
			return
		}
	}
}

func decodeStartElement(c *cursor, pool *stringPool) (string, map[string]string, error) {
	// lineNumber(4) + comment string index(4), both ignored.
	if err := c.skip(8); err != nil {
		return "", nil, err
	}

	nsIdx, err := c.i32()
	if err != nil {
		return "", nil, err
	}
	_ = nsIdx

	nameIdx, err := c.i32()
	if err != nil {
		return "", nil, err
	}
	name, err := pool.get(nameIdx)
	if err != nil {
		return "", nil, err
	}

	attrs, err := decodeAttributes(c, pool)
	if err != nil {
		return "", nil, err
	}

	return name, attrs, nil
}

func decodeEndElement(c *cursor, pool *stringPool) (string, error) {
	if err := c.skip(8); err != nil {
		return "", err
	}
	nsIdx, err := c.i32()
	if err != nil {
		return "", err
	}
	_ = nsIdx
	nameIdx, err := c.i32()
	if err != nil {
		return "", err
	}
	return pool.get(nameIdx)
}

func decodeCData(c *cursor, pool *stringPool) (string, error) {
	if err := c.skip(8); err != nil {
		return "", err
	}
	dataIdx, err := c.i32()
	if err != nil {
		return "", err
	}
	// Typed value mirror of the data string (size, res0, type, value).
	// The cdata text is the decoded string itself, so the typed value is
	// consumed but not separately reported.
	if err := c.skip(8); err != nil {
		return "", err
	}
	return pool.get(dataIdx)
}

func decodeAttributes(c *cursor, pool *stringPool) (map[string]string, error) {
	marker, err := c.u32()
	if err != nil {
		return nil, err
	}
	if marker != attrsMarker {
		return nil, errors.Wrapf(ErrMalformedChunk, "unexpected attribute marker 0x%08x", marker)
	}

	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	if _, err := c.u32(); err != nil { // unused trailing count
		return nil, err
	}

	attrs := make(map[string]string, count)
	for i := uint32(0); i < count; i++ {
		nsIdx, err := c.i32()
		if err != nil {
			return nil, err
		}
		_ = nsIdx
		nameIdx, err := c.i32()
		if err != nil {
			return nil, err
		}
		valueIdx, err := c.i32()
		if err != nil {
			return nil, err
		}
		if _, err := c.u16(); err != nil { // size
			return nil, err
		}
		if _, err := c.u8(); err != nil { // zero padding
			return nil, err
		}
		typeTag, err := c.u8()
		if err != nil {
			return nil, err
		}

		rawValue, err := c.u32()
		if err != nil {
			return nil, err
		}

		name, err := pool.get(nameIdx)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}

		value, err := decodeAttributeValue(valueType(typeTag), rawValue, valueIdx, pool)
		if err != nil {
			return nil, err
		}
		attrs[name] = value
	}
	return attrs, nil
}

// sortedAttributeNames returns the attribute names of m in lexicographic
// order, matching the string renderer's deterministic output contract.
func sortedAttributeNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
