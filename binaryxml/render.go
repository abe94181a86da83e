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
	"strings"
)

const renderTab = "  "

// textRenderer turns the event stream back into human-readable, indented,
// non-round-trippable XML.
type textRenderer struct {
	buf   bytes.Buffer
	depth int
}

func (r *textRenderer) indent() string {
	return strings.Repeat(renderTab, r.depth)
}

func (r *textRenderer) VisitStart(e StartElement) {
	r.buf.WriteString(r.indent())
	r.buf.WriteByte('<')
	r.buf.WriteString(e.Name)
	for _, name := range sortedAttributeNames(e.Attributes) {
		r.buf.WriteByte(' ')
		r.buf.WriteString(name)
		r.buf.WriteString(`="`)
		r.buf.WriteString(e.Attributes[name])
		r.buf.WriteByte('"')
	}
	r.buf.WriteString(">\n")
	r.depth++
}

func (r *textRenderer) VisitEnd(e EndElement) {
	r.depth--
	if r.depth < 0 {
		r.depth = 0
	}
	r.buf.WriteString(r.indent())
	r.buf.WriteString("</")
	r.buf.WriteString(e.Name)
	r.buf.WriteString(">\n")
}

func (r *textRenderer) VisitCData(e CData) {
	r.buf.WriteString(r.indent())
	r.buf.WriteString(e.Text)
	r.buf.WriteByte('\n')
}

func (r *textRenderer) VisitInvalid(e Invalid) {
	r.buf.WriteString(r.indent())
	r.buf.WriteString("<!-- invalid: ")
	r.buf.WriteString(e.Reason)
	r.buf.WriteString(" -->\n")
}

func (r *textRenderer) String() string {
	return r.buf.String()
}
