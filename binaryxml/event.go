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

// StartElement is emitted when a start-element chunk is decoded.
type StartElement struct {
	Name       string
	Attributes map[string]string
}

// EndElement is emitted when an end-element chunk is decoded.
type EndElement struct {
	Name string
}

// CData is emitted when a character-data chunk is decoded.
type CData struct {
	Text string
}

// Invalid is emitted in place of a chunk that could not be decoded, or to
// report a structural problem (e.g. a zero chunk offset) without aborting
// the whole traversal.
type Invalid struct {
	Reason string
}

// Visitor is the capability set a traversal dispatches events to: one
// method per event kind, implemented by whichever consumer cares (the text
// renderer, or a collecting visitor backing the query helpers). The
// attribute mutator is not a Visitor; it walks the chunks itself.
type Visitor interface {
	VisitStart(StartElement)
	VisitEnd(EndElement)
	VisitCData(CData)
	VisitInvalid(Invalid)
}
