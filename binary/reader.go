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

// Package binary provides a small sticky-error decoder for little-endian
// primitives. Android's binary XML is little-endian throughout, so there is
// no byte-order selector here.
package binary

import (
	"encoding/binary"
	"io"
)

// Reader decodes little-endian primitives from an underlying io.Reader. Once
// an error occurs, every subsequent read returns the zero value and the
// error is retained; callers check Error() once at the end of a decode
// instead of after every field.
type Reader struct {
	r   io.Reader
	err error
}

// NewReader wraps r in a Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Error returns the error that halted decoding, or nil if nothing has failed
// yet.
func (r *Reader) Error() error { return r.err }

// SetError forces the reader into the failed state.
func (r *Reader) SetError(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Data reads len(p) bytes into p.
func (r *Reader) Data(p []byte) {
	if r.err != nil {
		return
	}
	if _, err := io.ReadFull(r.r, p); err != nil {
		r.err = err
	}
}

func (r *Reader) read(p []byte) {
	r.Data(p)
}

// Uint8 decodes an unsigned 8 bit integer.
func (r *Reader) Uint8() uint8 {
	var b [1]byte
	r.read(b[:])
	return b[0]
}

// Uint16 decodes a little-endian unsigned 16 bit integer.
func (r *Reader) Uint16() uint16 {
	var b [2]byte
	r.read(b[:])
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b[:])
}

// Uint32 decodes a little-endian unsigned 32 bit integer.
func (r *Reader) Uint32() uint32 {
	var b [4]byte
	r.read(b[:])
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b[:])
}

// Int32 decodes a little-endian signed 32 bit integer.
func (r *Reader) Int32() int32 {
	return int32(r.Uint32())
}
