// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
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

package forest

import "fmt"

// DataKind is the kind of a primitive value stored in a register, a variable or a selector
type DataKind int

const (
	// KindUndef is an uninitialized value
	KindUndef DataKind = iota
	// KindUnknown is any value
	KindUnknown
	// KindInt is an integer; the null pointer is the integer 0
	KindInt
	// KindVoidPtr is a freshly allocated block of Int bytes that is not yet a node
	KindVoidPtr
	// KindRef is a reference to the node at the root of Roots[Root], displaced by Displ bytes
	KindRef
)

// Data is a primitive value. Data is comparable and is used as a map key.
type Data struct {
	Kind  DataKind
	Int   int
	Root  int
	Displ int
}

// Undef returns the undefined value
func Undef() Data { return Data{Kind: KindUndef} }

// Unknown returns the unknown value
func Unknown() Data { return Data{Kind: KindUnknown} }

// Int returns the integer v
func Int(v int) Data { return Data{Kind: KindInt, Int: v} }

// Null returns the null pointer
func Null() Data { return Int(0) }

// Bool returns 1 for true and 0 for false
func Bool(b bool) Data {
	if b {
		return Int(1)
	}
	return Int(0)
}

// VoidPtr returns an allocated block of size bytes
func VoidPtr(size int) Data { return Data{Kind: KindVoidPtr, Int: size} }

// Ref returns a reference to root with displacement displ
func Ref(root, displ int) Data { return Data{Kind: KindRef, Root: root, Displ: displ} }

// IsRef returns true if d references a root
func (d Data) IsRef() bool { return d.Kind == KindRef }

// IsNull returns true if d is the null pointer
func (d Data) IsNull() bool { return d.Kind == KindInt && d.Int == 0 }

// IsUndef returns true if d is undefined
func (d Data) IsUndef() bool { return d.Kind == KindUndef }

// IsUnknown returns true if d is unknown
func (d Data) IsUnknown() bool { return d.Kind == KindUnknown }

// IsInt returns true if d is an integer
func (d Data) IsInt() bool { return d.Kind == KindInt }

// Equal compares two values. known is false when the result depends on an unknown or undefined value.
func Equal(a, b Data) (result bool, known bool) {
	switch {
	case a.Kind == KindUnknown || b.Kind == KindUnknown:
		return false, false
	case a.Kind == KindUndef || b.Kind == KindUndef:
		return false, false
	default:
		return a == b, true
	}
}

func (d Data) String() string {
	switch d.Kind {
	case KindUndef:
		return "undef"
	case KindUnknown:
		return "?"
	case KindInt:
		if d.Int == 0 {
			return "null"
		}
		return fmt.Sprintf("int(%d)", d.Int)
	case KindVoidPtr:
		return fmt.Sprintf("void(%d)", d.Int)
	case KindRef:
		if d.Displ == 0 {
			return fmt.Sprintf("r%d", d.Root)
		}
		return fmt.Sprintf("r%d%+d", d.Root, d.Displ)
	default:
		return "invalid"
	}
}
