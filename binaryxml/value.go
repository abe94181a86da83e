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

import "fmt"

// valueType is the 8-bit discriminator carried by every typed attribute
// value.
type valueType uint8

const (
	typeNull             valueType = 0x00
	typeReference        valueType = 0x01
	typeAttribute        valueType = 0x02
	typeString           valueType = 0x03
	typeFloat            valueType = 0x04
	typeDimension        valueType = 0x05
	typeFraction         valueType = 0x06
	typeDynamicReference valueType = 0x07
	typeIntDec           valueType = 0x10
	typeIntHex           valueType = 0x11
	typeIntBoolean       valueType = 0x12
)

const (
	resValueTrue  uint32 = 0xFFFFFFFF
	resValueFalse uint32 = 0x00000000
)

// decodeAttributeValue converts a (type, raw value, raw-value string index)
// triple into its canonical string representation.
func decodeAttributeValue(t valueType, raw uint32, rawValueIdx int32, pool *stringPool) (string, error) {
	switch t {
	case typeNull:
		if raw == 0 {
			return "<undefined>", nil
		}
		return "<empty>", nil

	case typeReference:
		return fmt.Sprintf("@res/0x%08X", raw), nil

	case typeAttribute:
		return fmt.Sprintf("@attr/0x%08X", raw), nil

	case typeString:
		return pool.get(rawValueIdx)

	case typeFloat, typeDimension, typeFraction:
		// Intentionally undecoded rather than guessing at units or
		// precision.
		return "", nil

	case typeDynamicReference:
		return fmt.Sprintf("@dyn/0x%08X", raw), nil

	case typeIntDec:
		return fmt.Sprintf("%d", int32(raw)), nil

	case typeIntHex:
		return fmt.Sprintf("0x%08X", raw), nil

	case typeIntBoolean:
		switch raw {
		case resValueTrue:
			return "true", nil
		case resValueFalse:
			return "false", nil
		default:
			return "unknown", nil
		}

	default:
		return "unknown", nil
	}
}
