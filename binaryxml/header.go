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

	"github.com/pkg/errors"

	axbinary "github.com/CrackerCat/android-introspection/binary"
	"github.com/CrackerCat/android-introspection/fault"
)

// Format reference:
// https://android.googlesource.com/platform/frameworks/base/+/master/libs/androidfw/include/androidfw/ResourceTypes.h

const (
	// xmlMagic is the 32-bit magic identifying a compiled binary XML file
	// (RES_XML_TYPE, with the header size of 8 folded into the high word).
	xmlMagic uint32 = 0x00080003

	// stringPoolMarker identifies the embedded string-table chunk.
	stringPoolMarker uint16 = 0x0001

	resFlagUTF8 uint32 = 1 << 8
)

// Chunk type tags, as they appear in the 16-bit tag field of every chunk.
const (
	chunkStartNamespace uint16 = 0x0100
	chunkEndNamespace   uint16 = 0x0101
	chunkStartElement   uint16 = 0x0102
	chunkEndElement     uint16 = 0x0103
	chunkCData          uint16 = 0x0104
	chunkResourceMap    uint16 = 0x0180
)

// attrsMarker is the well-known sentinel written by the encoder immediately
// before every start-element's attribute block.
const attrsMarker uint32 = 0x00140014

// ErrMalformedHeader is returned when the 36-byte file header fails magic or
// size validation.
const ErrMalformedHeader fault.Const = "binaryxml: malformed header"

// fileHeaderSize is the size in bytes of Header's on-disk representation:
// the 8-byte file preamble plus the embedded string-pool chunk header. Every
// offset in this package is measured from byte 0 of the file.
const fileHeaderSize = 36

// Header is the fixed prologue of a binary XML file.
type Header struct {
	Magic         uint32
	Reserved      uint32
	StringTableID uint16
	HeaderSize    uint16
	ChunkSize     uint32
	NumStrings    uint32
	NumStyles     uint32
	Flags         uint32
	StringsOffset uint32
	StylesOffset  uint32
}

// UTF8Encoded reports whether the embedded string pool uses the UTF-8
// string-pool variant rather than UTF-16LE.
func (h *Header) UTF8Encoded() bool {
	return h.Flags&resFlagUTF8 != 0
}

// StringDataOrigin returns the absolute offset of the first encoded string,
// relative to the start of the buffer.
//
// This deliberately ignores h.StringsOffset. The source this format was
// reverse engineered from observed that field reporting an offset 8 bytes
// short of where the string data actually starts; rather than propagate
// that quirk, the origin is computed directly from the header size and the
// string-offset table that always immediately follows it.
func (h *Header) StringDataOrigin() uint32 {
	return fileHeaderSize + h.NumStrings*4
}

// XMLChunkOffset returns the absolute offset of the first chunk in the
// element/namespace chunk stream, or 0 if absent.
func (h *Header) XMLChunkOffset(bufLen int) uint32 {
	if bufLen <= int(h.ChunkSize) {
		return 0
	}
	return h.ChunkSize
}

// parseHeader reads and validates the fixed header at the start of buf.
func parseHeader(buf []byte) (*Header, error) {
	if len(buf) < fileHeaderSize {
		return nil, errors.Wrapf(ErrMalformedHeader, "buffer of %d bytes shorter than header", len(buf))
	}

	r := axbinary.NewReader(bytes.NewReader(buf[:fileHeaderSize]))
	h := &Header{
		Magic:         r.Uint32(),
		Reserved:      r.Uint32(),
		StringTableID: r.Uint16(),
		HeaderSize:    r.Uint16(),
		ChunkSize:     r.Uint32(),
		NumStrings:    r.Uint32(),
		NumStyles:     r.Uint32(),
		Flags:         r.Uint32(),
		StringsOffset: r.Uint32(),
		StylesOffset:  r.Uint32(),
	}
	if err := r.Error(); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, err.Error())
	}

	if h.Magic != xmlMagic {
		return nil, errors.Wrapf(ErrMalformedHeader, "magic 0x%08x, expected 0x%08x", h.Magic, xmlMagic)
	}
	if h.StringTableID != stringPoolMarker {
		return nil, errors.Wrapf(ErrMalformedHeader, "string table id 0x%04x, expected 0x%04x", h.StringTableID, stringPoolMarker)
	}
	if int(h.ChunkSize) > len(buf) {
		return nil, errors.Wrapf(ErrMalformedHeader, "declared chunk size %d exceeds buffer length %d", h.ChunkSize, len(buf))
	}

	return h, nil
}
