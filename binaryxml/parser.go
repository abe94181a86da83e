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

// Package binaryxml reads and mutates Android's compiled binary XML format,
// the chunked representation of AndroidManifest.xml and other resource XML
// files found inside APK archives.
//
// A Parser wraps a byte buffer holding one binary XML document. Reading
// operations (HasElement, ElementAttributes, ToTextXML, Traverse) never
// touch the buffer; SetElementAttribute rewrites a single string-pool slot
// in place and is the only mutating operation.
package binaryxml

import (
	"github.com/CrackerCat/android-introspection/logsink"
)

// Parser is the entry point to a single binary XML document. The buffer
// handed to New is retained, not copied: readers borrow it, and
// SetElementAttribute writes into it.
type Parser struct {
	data []byte
	hdr  *Header
	sink logsink.Sink
}

// New validates the document header in data and returns a Parser over it.
// Only the fixed header is validated up front; chunk and string-pool
// problems surface later as Invalid events rather than constructor
// failures, so a truncated document can still be partially rendered.
func New(data []byte) (*Parser, error) {
	return NewWithSink(data, nil)
}

// NewWithSink is New with an explicit log sink. A nil sink is the same as
// logsink.Nop.
func NewWithSink(data []byte, sink logsink.Sink) (*Parser, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	return &Parser{data: data, hdr: hdr, sink: logsink.Or(sink)}, nil
}

// Strings decodes the document's shared string pool into its ordered
// sequence of textual strings.
func (p *Parser) Strings() ([]string, error) {
	pool, err := decodeStringPool(p.data, p.hdr)
	if err != nil {
		return nil, err
	}
	return pool.strings, nil
}

// Traverse walks the document's chunk stream, dispatching one event per
// recognized chunk to v. String-pool decode failures are reported to v as
// a single Invalid event.
func (p *Parser) Traverse(v Visitor) {
	pool, err := decodeStringPool(p.data, p.hdr)
	if err != nil {
		v.VisitInvalid(Invalid{Reason: err.Error()})
		return
	}
	traverse(p.data, pool, p.hdr.XMLChunkOffset(len(p.data)), p.sink, v)
}

// HasElement reports whether any start-element in the document is named
// name.
func (p *Parser) HasElement(name string) bool {
	c := newCollector(name, nil)
	p.Traverse(c)
	return c.hasElement
}

// ElementAttributes returns the decoded attributes of the first element
// whose ancestor chain, root first, exactly matches path. A path with no
// match yields an empty map, never an error.
func (p *Parser) ElementAttributes(path []string) map[string]string {
	c := newCollector("", path)
	p.Traverse(c)
	if c.foundAttrs == nil {
		return map[string]string{}
	}
	return c.foundAttrs
}

// ToTextXML renders the document as human-readable indented XML. The
// output is for inspection only and cannot be compiled back to the binary
// form.
func (p *Parser) ToTextXML() string {
	r := &textRenderer{}
	p.Traverse(r)
	return r.String()
}

// SetElementAttribute locates the first element matching path, finds its
// attribute named name, and overwrites the string-pool slot backing that
// attribute's raw value with value, in place. The replacement must encode
// to exactly the byte length of the existing payload; anything else fails
// with ErrUnsupportedMutation and leaves the buffer untouched. A path or
// attribute with no match is a no-op, not an error.
func (p *Parser) SetElementAttribute(path []string, name, value string) error {
	pool, err := decodeStringPool(p.data, p.hdr)
	if err != nil {
		return err
	}
	return setElementAttribute(p.data, p.hdr, pool, path, name, value)
}
