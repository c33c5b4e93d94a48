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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeBuffer struct {
	released bool
	view     bool
}

func (b *fakeBuffer) Acquire() ColumnBuffer           { return b }
func (b *fakeBuffer) Release()                        { b.released = true }
func (b *fakeBuffer) TypeTag() string                 { return "bat" }
func (b *fakeBuffer) Count() int64                    { return 0 }
func (b *fakeBuffer) MemoryClaim(threshold int64) int64 {
	if b.view {
		return 0
	}
	return 128
}
func (b *fakeBuffer) IsView() bool          { return b.view }
func (b *fakeBuffer) Stats() ColumnStats    { return ColumnStats{} }

func TestFrameSetReleasesOverwrittenBuffer(t *testing.T) {
	blk := NewBlock("b", []*Variable{{Name: "x", Typ: TypeBAT}})
	f := NewFrame(blk, 0)

	old := &fakeBuffer{}
	f.Set(0, Value{Typ: TypeBAT, Buffer: old})
	require.False(t, old.released)

	next := &fakeBuffer{}
	f.Set(0, Value{Typ: TypeBAT, Buffer: next})
	require.True(t, old.released, "overwritten buffer must be released")
	require.False(t, next.released)
}

func TestFrameSetSameBufferNoRelease(t *testing.T) {
	blk := NewBlock("b", []*Variable{{Name: "x", Typ: TypeBAT}})
	f := NewFrame(blk, 0)

	buf := &fakeBuffer{}
	f.Set(0, Value{Typ: TypeBAT, Buffer: buf})
	f.Set(0, Value{Typ: TypeBAT, Buffer: buf})
	require.False(t, buf.released, "identical buffer must not be released")
}

func TestValueTruthy(t *testing.T) {
	require.True(t, Value{Scalar: true}.Truthy())
	require.False(t, Value{Scalar: false}.Truthy())
	require.False(t, Value{IsNull: true, Scalar: true}.Truthy())
}

func TestBackupUsesInlineArrayForSmallRanges(t *testing.T) {
	blk := NewBlock("b", []*Variable{{Name: "x", Typ: TypeInt}})
	f := NewFrame(blk, 0)
	f.Set(0, Value{Typ: TypeInt, Scalar: int64(7)})

	backup := f.Backup([]int{0})
	require.Len(t, backup, 1)
	require.Equal(t, int64(7), backup[0].Scalar)
}
