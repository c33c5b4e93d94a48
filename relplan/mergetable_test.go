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

package relplan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MonetDB/MonetDB-sub015/auth"
)

func rangePartition(name string, min, max any) *Partition {
	return &Partition{Kind: PartitionByRange, Min: min, Max: max, Table: &TableRef{Name: name, Columns: []string{"id", "v"}}}
}

func TestPartitionPruneRange(t *testing.T) {
	req := require.New(t)

	p := rangePartition("p1", int64(0), int64(100))
	req.True(p.pruneRange("=", int64(50)))
	req.False(p.pruneRange("=", int64(150)))
	req.False(p.pruneRange("=", int64(-1)))
	req.True(p.pruneRange(">=", int64(50)))
	req.False(p.pruneRange(">", int64(200)))
}

func TestPartitionPruneListViaBitmap(t *testing.T) {
	req := require.New(t)

	p := &Partition{Kind: PartitionByList, Values: []any{"a", "b", "c"}, Table: &TableRef{Name: "p"}}
	req.True(p.pruneList("b"))
	req.False(p.pruneList("z"))
}

func TestPartitionCouldMatchCompare(t *testing.T) {
	req := require.New(t)

	p := rangePartition("p1", int64(0), int64(100))
	pred := &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{
		{Kind: ExprColumn, Column: "id"},
		{Kind: ExprLiteral, Lit: int64(150)},
	}}
	req.False(p.couldMatch(pred))

	pred2 := &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{
		{Kind: ExprColumn, Column: "id"},
		{Kind: ExprLiteral, Lit: int64(50)},
	}}
	req.True(p.couldMatch(pred2))
}

func TestExpandMergeTablesPrunesToSingleMember(t *testing.T) {
	req := require.New(t)

	p0 := rangePartition("p0", int64(0), int64(100))
	p1 := rangePartition("p1", int64(100), int64(200))
	mergeTable := &TableRef{Name: "m", IsMergeTable: true, Columns: []string{"id", "v"}, Partitions: []*Partition{p0, p1}}
	base := &Node{Kind: NodeBaseTable, Alias: "m", Table: mergeTable}
	sel := &Node{Kind: NodeSelect, Children: []*Node{base}, Predicate: &Expression{
		Kind: ExprCompare, Op: "=", Args: []*Expression{
			{Kind: ExprColumn, Column: "id"},
			{Kind: ExprLiteral, Lit: int64(50)},
		},
	}}

	out, err := runExpandMergeTables(&visitor{}, sel)
	req.NoError(err)
	req.Equal(NodeSelect, out.Kind)
	req.Equal("p0", out.Children[0].Table.Name)
}

func TestExpandMergeTablesUnionsMultipleMembers(t *testing.T) {
	req := require.New(t)

	p0 := rangePartition("p0", nil, int64(100))
	p1 := rangePartition("p1", int64(100), nil)
	mergeTable := &TableRef{Name: "m", IsMergeTable: true, Columns: []string{"id", "v"}, Partitions: []*Partition{p0, p1}}
	base := &Node{Kind: NodeBaseTable, Alias: "m", Table: mergeTable}

	out, err := runExpandMergeTables(&visitor{}, base)
	req.NoError(err)
	req.Equal(NodeUnion, out.Kind)
	req.True(out.IsUnionAll)
	req.Equal("m", out.Alias)
	req.Len(out.Children, 2)
}

// TestExpandMergeTablesBetweenPrunesThirdPartition reproduces the
// three-way range-partitioned table scenario: partitions [0,100),
// [100,200) and [200,MAXVALUE), pruned by "c BETWEEN 50 AND 120" down
// to a two-member union with the third partition eliminated entirely.
func TestExpandMergeTablesBetweenPrunesThirdPartition(t *testing.T) {
	req := require.New(t)

	p0 := rangePartition("p0", int64(0), int64(100))
	p1 := rangePartition("p1", int64(100), int64(200))
	p2 := rangePartition("p2", int64(200), nil)
	mergeTable := &TableRef{Name: "m", IsMergeTable: true, Columns: []string{"c"}, Partitions: []*Partition{p0, p1, p2}}
	base := &Node{Kind: NodeBaseTable, Alias: "m", Table: mergeTable}

	col := &Expression{Kind: ExprColumn, Column: "c"}
	between := &Expression{
		Kind: ExprRange, Op: "range", Args: []*Expression{col},
		Low:     &Expression{Kind: ExprLiteral, Lit: int64(50)},
		High:    &Expression{Kind: ExprLiteral, Lit: int64(120)},
		LowIncl: true, HighIncl: true,
	}
	sel := &Node{Kind: NodeSelect, Children: []*Node{base}, Predicate: between}

	out, err := runExpandMergeTables(&visitor{}, sel)
	req.NoError(err)
	req.Equal(NodeUnion, out.Kind)
	req.True(out.IsUnionAll)
	req.Equal("m", out.Alias)
	req.Len(out.Children, 2)
	req.Equal("p0", out.Children[0].Children[0].Table.Name)
	req.Equal("p1", out.Children[1].Children[0].Table.Name)
}

func TestExpandMergeTablesEmptyWhenNoneQualify(t *testing.T) {
	req := require.New(t)

	p0 := rangePartition("p0", int64(0), int64(10))
	mergeTable := &TableRef{Name: "m", IsMergeTable: true, Columns: []string{"id"}, Partitions: []*Partition{p0}}
	base := &Node{Kind: NodeBaseTable, Alias: "m", Table: mergeTable}
	sel := &Node{Kind: NodeSelect, Children: []*Node{base}, Predicate: &Expression{
		Kind: ExprCompare, Op: "=", Args: []*Expression{
			{Kind: ExprColumn, Column: "id"},
			{Kind: ExprLiteral, Lit: int64(999)},
		},
	}}

	out, err := runExpandMergeTables(&visitor{}, sel)
	req.NoError(err)
	req.Equal(NodeDummy, out.Kind)
}

func TestExpandMergeTablesChecksPrivilege(t *testing.T) {
	req := require.New(t)

	p0 := rangePartition("secret_member", int64(0), int64(100))
	mergeTable := &TableRef{Schema: "db", Name: "m", IsMergeTable: true, Columns: []string{"id"}, Partitions: []*Partition{p0}}
	base := &Node{Kind: NodeBaseTable, Alias: "m", Table: mergeTable}

	checker := auth.NewGrantTableSingle("user", 0)
	v := &visitor{Data: &privilegeContext{Checker: checker, UserID: "user"}}
	out, err := runExpandMergeTables(v, base)
	req.Error(err)
	req.Nil(out)
	req.True(ErrNotAuthorized.Is(err))
}
