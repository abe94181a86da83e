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

// Package axmltest assembles minimal synthetic binary XML documents for
// tests. It is an encoder for exactly the subset of the format the
// binaryxml package decodes: a string pool in either encoding, namespace
// delimiters, elements with typed attributes and cdata.
package axmltest

import (
	"encoding/binary"
	"unicode/utf16"
)

// Encoding selects the string-pool variant a Doc is assembled with.
type Encoding int

const (
	// UTF8 selects the UTF-8 string-pool variant.
	UTF8 Encoding = iota
	// UTF16 selects the UTF-16LE string-pool variant.
	UTF16
)

// Attribute value type tags, as carried in each attribute record.
const (
	TypeNull       uint8 = 0x00
	TypeReference  uint8 = 0x01
	TypeString     uint8 = 0x03
	TypeIntDec     uint8 = 0x10
	TypeIntHex     uint8 = 0x11
	TypeIntBoolean uint8 = 0x12
)

// Boolean raw values.
const (
	RawTrue  uint32 = 0xFFFFFFFF
	RawFalse uint32 = 0x00000000
)

const (
	xmlMagic         uint32 = 0x00080003
	stringPoolMarker uint16 = 0x0001
	flagUTF8         uint32 = 1 << 8
	attrsMarker      uint32 = 0x00140014

	tagStartNamespace uint16 = 0x0100
	tagEndNamespace   uint16 = 0x0101
	tagStartElement   uint16 = 0x0102
	tagEndElement     uint16 = 0x0103
	tagCData          uint16 = 0x0104

	headerSize = 36
)

// Attr describes one attribute of a start element.
type Attr struct {
	Name     string
	Type     uint8
	Raw      uint32
	RawValue string // interned into the pool when HasRaw is set
	HasRaw   bool
}

// String returns a TYPE_STRING attribute whose value lives in the pool.
func String(name, value string) Attr {
	return Attr{Name: name, Type: TypeString, RawValue: value, HasRaw: true}
}

// Bool returns a TYPE_INT_BOOLEAN attribute with no raw-value string.
func Bool(name string, v bool) Attr {
	raw := RawFalse
	if v {
		raw = RawTrue
	}
	return Attr{Name: name, Type: TypeIntBoolean, Raw: raw}
}

// BoolWithRaw returns a TYPE_INT_BOOLEAN attribute that also references a
// pool slot holding its textual form, the way aapt writes manifest
// booleans sourced from literal text.
func BoolWithRaw(name string, v bool, raw string) Attr {
	a := Bool(name, v)
	a.RawValue = raw
	a.HasRaw = true
	return a
}

type opKind int

const (
	opStart opKind = iota
	opEnd
	opCData
	opChunk
)

type op struct {
	kind  opKind
	name  string
	attrs []Attr
	text  string
	tag   uint16
	body  []byte
}

// Doc accumulates elements and assembles them into one binary XML blob.
type Doc struct {
	enc     Encoding
	strings []string
	lookup  map[string]int32
	ops     []op
}

// New returns an empty document using the given string-pool encoding.
func New(enc Encoding) *Doc {
	return &Doc{enc: enc, lookup: map[string]int32{}}
}

// Intern adds s to the string pool if absent and returns its index.
func (d *Doc) Intern(s string) int32 {
	if idx, ok := d.lookup[s]; ok {
		return idx
	}
	idx := int32(len(d.strings))
	d.strings = append(d.strings, s)
	d.lookup[s] = idx
	return idx
}

// Start appends a start-element with the given attributes.
func (d *Doc) Start(name string, attrs ...Attr) *Doc {
	d.Intern(name)
	for _, a := range attrs {
		d.Intern(a.Name)
		if a.HasRaw {
			d.Intern(a.RawValue)
		}
	}
	d.ops = append(d.ops, op{kind: opStart, name: name, attrs: attrs})
	return d
}

// End appends an end-element.
func (d *Doc) End(name string) *Doc {
	d.Intern(name)
	d.ops = append(d.ops, op{kind: opEnd, name: name})
	return d
}

// Text appends a cdata chunk.
func (d *Doc) Text(s string) *Doc {
	d.Intern(s)
	d.ops = append(d.ops, op{kind: opCData, text: s})
	return d
}

// Chunk appends a raw chunk with an arbitrary tag and body, for exercising
// the skip paths.
func (d *Doc) Chunk(tag uint16, body []byte) *Doc {
	d.ops = append(d.ops, op{kind: opChunk, tag: tag, body: body})
	return d
}

// Bytes assembles the document. The chunk stream is bracketed by a
// start-namespace and end-namespace pair, as every compiled manifest is.
func (d *Doc) Bytes() []byte {
	pool := d.encodePool()
	xmlStart := headerSize + 4*len(d.strings) + len(pool)

	var b builder

	// Fixed file header.
	b.u32(xmlMagic)
	b.u32(0) // reserved
	b.u16(stringPoolMarker)
	b.u16(28) // string-pool chunk header size
	b.u32(uint32(xmlStart))
	b.u32(uint32(len(d.strings)))
	b.u32(0) // style count
	flags := uint32(0)
	if d.enc == UTF8 {
		flags = flagUTF8
	}
	b.u32(flags)
	// The real encoder writes a strings offset 8 bytes short of where the
	// data lands; reproduce that so tests cover the documented quirk.
	b.u32(uint32(headerSize + 4*len(d.strings) - 8))
	b.u32(0) // styles offset

	// Offset table, relative to the string-data origin.
	off := 0
	for _, s := range d.strings {
		b.u32(uint32(off))
		off += len(d.encodeString(s))
	}
	b.raw(pool)

	b.chunk(tagStartNamespace, make([]byte, 16))
	for _, o := range d.ops {
		switch o.kind {
		case opStart:
			b.chunk(tagStartElement, d.startBody(o))
		case opEnd:
			b.chunk(tagEndElement, d.endBody(o))
		case opCData:
			b.chunk(tagCData, d.cdataBody(o))
		case opChunk:
			b.chunk(o.tag, o.body)
		}
	}
	b.chunk(tagEndNamespace, make([]byte, 16))

	return b.buf
}

func (d *Doc) startBody(o op) []byte {
	var b builder
	b.u32(1)          // line number
	b.u32(0xFFFFFFFF) // comment index, absent
	b.u32(0xFFFFFFFF) // namespace index, absent
	b.u32(uint32(d.lookup[o.name]))
	b.u32(attrsMarker)
	b.u32(uint32(len(o.attrs)))
	b.u32(0) // unused trailing count
	for _, a := range o.attrs {
		b.u32(0xFFFFFFFF) // attribute namespace, absent
		b.u32(uint32(d.lookup[a.Name]))
		if a.HasRaw {
			b.u32(uint32(d.lookup[a.RawValue]))
		} else {
			b.u32(0xFFFFFFFF)
		}
		b.u16(8) // typed value size
		b.u8(0)  // res0
		b.u8(a.Type)
		raw := a.Raw
		if a.Type == TypeString && a.HasRaw {
			raw = uint32(d.lookup[a.RawValue])
		}
		b.u32(raw)
	}
	return b.buf
}

func (d *Doc) endBody(o op) []byte {
	var b builder
	b.u32(1)
	b.u32(0xFFFFFFFF)
	b.u32(0xFFFFFFFF)
	b.u32(uint32(d.lookup[o.name]))
	return b.buf
}

func (d *Doc) cdataBody(o op) []byte {
	var b builder
	b.u32(1)
	b.u32(0xFFFFFFFF)
	b.u32(uint32(d.lookup[o.text]))
	b.u16(8)
	b.u8(0)
	b.u8(TypeString)
	b.u32(uint32(d.lookup[o.text]))
	return b.buf
}

func (d *Doc) encodePool() []byte {
	var out []byte
	for _, s := range d.strings {
		out = append(out, d.encodeString(s)...)
	}
	return out
}

func (d *Doc) encodeString(s string) []byte {
	if d.enc == UTF8 {
		var b builder
		b.len8(len(utf16.Encode([]rune(s))))
		b.len8(len(s))
		b.raw([]byte(s))
		b.u8(0)
		return b.buf
	}
	units := utf16.Encode([]rune(s))
	var b builder
	b.len16(len(units))
	for _, u := range units {
		b.u16(u)
	}
	b.u16(0)
	return b.buf
}

type builder struct {
	buf []byte
}

func (b *builder) raw(p []byte) { b.buf = append(b.buf, p...) }

func (b *builder) u8(v uint8) { b.buf = append(b.buf, v) }

func (b *builder) u16(v uint16) {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
}

func (b *builder) u32(v uint32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

// len8 writes an 8-bit length, spilling to the two-byte high-bit form when
// the value does not fit in 7 bits.
func (b *builder) len8(n int) {
	if n < 0x80 {
		b.u8(uint8(n))
		return
	}
	b.u8(uint8(n>>8) | 0x80)
	b.u8(uint8(n))
}

// len16 writes a 16-bit length, spilling to the two-word high-bit form when
// the value does not fit in 15 bits.
func (b *builder) len16(n int) {
	if n < 0x8000 {
		b.u16(uint16(n))
		return
	}
	b.u16(uint16(n>>16) | 0x8000)
	b.u16(uint16(n))
}

// chunk writes a chunk preamble followed by body.
func (b *builder) chunk(tag uint16, body []byte) {
	b.u16(tag)
	b.u16(16) // header size; the decoder trusts chunkSize instead
	b.u32(uint32(8 + len(body)))
	b.raw(body)
}
