// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

// Type is a resolved scalar or column-buffer type tag. The SQL type
// system that produces these is an external collaborator;
// the core only needs to compare and print them.
type Type string

const (
	TypeVoid   Type = "void"
	TypeBool   Type = "bool"
	TypeInt    Type = "int"
	TypeLong   Type = "lng"
	TypeDouble Type = "dbl"
	TypeStr    Type = "str"
	TypeBAT    Type = "bat"
	TypeAny    Type = "any"
)

// Variable is an entry in a Block's variable table.
type Variable struct {
	Name     string
	Typ      Type
	Constant *Value // non-nil when the variable holds a compile-time constant

	// Scope-use flags.
	Used       bool
	Cleanup    bool
	Fixed      bool
	IsConstant bool
	Disabled   bool

	// ScopeEnd is the last pc at which this variable is live; the
	// dataflow graph builder uses it to add the "wait for producer" edge.
	ScopeEnd int
}

// Value is a tagged runtime value: either a scalar or a ColumnBuffer
// reference. Exactly one of Scalar/Buffer is meaningful, selected by Typ.
type Value struct {
	Typ    Type
	Scalar any
	Buffer ColumnBuffer
	IsNull bool
}

// IsBAT reports whether this value carries a column-buffer reference.
func (v Value) IsBAT() bool { return v.Typ == TypeBAT && v.Buffer != nil }

// Truthy implements the barrier/leave/redo truthiness test: FALSE or
// null (per its type) jumps.
func (v Value) Truthy() bool {
	if v.IsNull {
		return false
	}
	switch b := v.Scalar.(type) {
	case bool:
		return b
	case nil:
		return false
	default:
		return true
	}
}
