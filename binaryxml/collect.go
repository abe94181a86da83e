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

// pathEqual reports whether the currently open element stack exactly
// matches path. Matching is positional from the document root; siblings are
// ignored but the ancestor sequence must match exactly.
func pathEqual(stack, path []string) bool {
	if len(stack) != len(path) {
		return false
	}
	for i, name := range stack {
		if name != path[i] {
			return false
		}
	}
	return true
}

// collector is the query Visitor backing HasElement and ElementAttributes.
// It never mutates anything; it just watches the event stream go by.
type collector struct {
	targetElementName string
	hasElement        bool

	targetPath    []string
	stack         []string
	foundAttrs    map[string]string
	foundAttrsSet bool
}

func newCollector(elementName string, path []string) *collector {
	return &collector{targetElementName: elementName, targetPath: path}
}

func (c *collector) VisitStart(e StartElement) {
	c.stack = append(c.stack, e.Name)

	if c.targetElementName != "" && e.Name == c.targetElementName {
		c.hasElement = true
	}

	if !c.foundAttrsSet && c.targetPath != nil && pathEqual(c.stack, c.targetPath) {
		attrs := make(map[string]string, len(e.Attributes))
		for k, v := range e.Attributes {
			attrs[k] = v
		}
		c.foundAttrs = attrs
		c.foundAttrsSet = true
	}
}

func (c *collector) VisitEnd(EndElement) {
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

func (c *collector) VisitCData(CData) {}

func (c *collector) VisitInvalid(Invalid) {}
