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
)

func colEq(table, column string, lit any) *Expression {
	return &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{
		{Kind: ExprColumn, Table: table, Column: column},
		{Kind: ExprLiteral, Lit: lit},
	}}
}

func TestPushSelectDownSplitsByJoinSide(t *testing.T) {
	req := require.New(t)

	left := &Node{Kind: NodeBaseTable, Alias: "l", Table: &TableRef{Name: "l"}}
	right := &Node{Kind: NodeBaseTable, Alias: "r", Table: &TableRef{Name: "r"}}
	join := &Node{Kind: NodeJoin, Children: []*Node{left, right}}
	sel := &Node{Kind: NodeSelect, Children: []*Node{join}, Predicate: joinConjuncts([]*Expression{
		colEq("l", "x", int64(1)),
		colEq("r", "y", int64(2)),
	})}

	out, err := runPushSelectDown(&visitor{}, sel)
	req.NoError(err)
	req.Equal(NodeJoin, out.Kind)
	req.Equal(NodeSelect, out.Children[0].Kind)
	req.Equal(NodeSelect, out.Children[1].Kind)
}

func TestPointSelectOnUnique(t *testing.T) {
	req := require.New(t)

	uniqueSel := &Node{Kind: NodeSelect, Predicate: &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{
		{Kind: ExprColumn, Column: "id", Unique: true},
		{Kind: ExprLiteral, Lit: int64(1)},
	}}}
	req.True(pointSelectOnUnique(uniqueSel))

	nonUniqueSel := &Node{Kind: NodeSelect, Predicate: colEq("t", "name", "x")}
	req.False(pointSelectOnUnique(nonUniqueSel))
}

func TestMergeOrChainsToIn(t *testing.T) {
	req := require.New(t)

	or := &Expression{Kind: ExprOr, Args: []*Expression{
		colEq("t", "x", int64(1)),
		colEq("t", "x", int64(2)),
		colEq("t", "x", int64(3)),
	}}
	out, ok := mergeOrChain(or)
	req.True(ok)
	req.Equal(ExprIn, out.Kind)
	req.Equal("IN", out.Op)
	req.Len(out.Args, 4)
}

func TestMergeOrChainRejectsDifferentColumns(t *testing.T) {
	req := require.New(t)

	or := &Expression{Kind: ExprOr, Args: []*Expression{
		colEq("t", "x", int64(1)),
		colEq("t", "y", int64(2)),
	}}
	_, ok := mergeOrChain(or)
	req.False(ok)
}

func TestRangeMergeCombinesBounds(t *testing.T) {
	req := require.New(t)

	col := &Expression{Kind: ExprColumn, Table: "t", Column: "x"}
	and := &Expression{Kind: ExprAnd, Args: []*Expression{
		{Kind: ExprCompare, Op: ">", Args: []*Expression{col, {Kind: ExprLiteral, Lit: int64(1)}}},
		{Kind: ExprCompare, Op: "<", Args: []*Expression{col, {Kind: ExprLiteral, Lit: int64(10)}}},
	}}
	sel := &Node{Kind: NodeSelect, Predicate: and}

	out, err := runRangeMerge(&visitor{}, sel)
	req.NoError(err)
	req.Equal(ExprRange, out.Predicate.Kind)
	req.False(out.Predicate.LowIncl)
	req.False(out.Predicate.HighIncl)
}

func TestSplitAndJoinConjunctsRoundtrip(t *testing.T) {
	req := require.New(t)

	a := colEq("t", "x", int64(1))
	b := colEq("t", "y", int64(2))
	joined := joinConjuncts([]*Expression{a, b})
	split := splitConjuncts(joined)
	req.Len(split, 2)
	req.Same(a, split[0])
	req.Same(b, split[1])
}
