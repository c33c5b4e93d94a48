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

func TestSemiJoinRewritesAntijoinOverUnion(t *testing.T) {
	req := require.New(t)

	a := &Node{Kind: NodeBaseTable, Alias: "a"}
	b := &Node{Kind: NodeBaseTable, Alias: "b"}
	c := &Node{Kind: NodeBaseTable, Alias: "c"}
	union := &Node{Kind: NodeUnion, IsUnionAll: true, Children: []*Node{b, c}}
	anti := &Node{Kind: NodeJoin, JoinType: AntiJoin, Children: []*Node{a, union}}

	out, err := runSemiJoinRewrites(&visitor{}, anti)
	req.NoError(err)
	req.Equal(NodeJoin, out.Kind)
	req.Equal(AntiJoin, out.JoinType)
	inner := out.Children[0]
	req.Equal(AntiJoin, inner.JoinType)
	req.Same(a, inner.Children[0])
	req.Same(b, inner.Children[1])
	req.Same(c, out.Children[1])
}

func TestSemiJoinRewritesCollapsesIdentityJoin(t *testing.T) {
	req := require.New(t)

	a := &Node{Kind: NodeBaseTable, Alias: "a", Table: &TableRef{Schema: "s", Name: "a"}}
	aAgain := &Node{Kind: NodeBaseTable, Alias: "a", Table: &TableRef{Schema: "s", Name: "a"}}
	b := &Node{Kind: NodeBaseTable, Alias: "b"}
	innerJoin := &Node{Kind: NodeJoin, JoinType: InnerJoin, Children: []*Node{aAgain, b}}
	semi := &Node{Kind: NodeJoin, JoinType: SemiJoin, Children: []*Node{a, innerJoin}}

	out, err := runSemiJoinRewrites(&visitor{}, semi)
	req.NoError(err)
	req.Equal(SemiJoin, out.JoinType)
	req.Same(a, out.Children[0])
	req.Same(b, out.Children[1])
}

func TestNullRejecting(t *testing.T) {
	req := require.New(t)

	pred := &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{
		{Kind: ExprColumn, Table: "r", Column: "x", Nullable: false},
		{Kind: ExprLiteral, Lit: int64(1)},
	}}
	req.True(nullRejecting(pred, "r"))
	req.False(nullRejecting(pred, "other"))

	isNull := &Expression{Kind: ExprIsNull, Args: []*Expression{{Kind: ExprColumn, Table: "r", Column: "x"}}}
	req.False(nullRejecting(isNull, "r"))
}

func TestOuterToInnerDemotion(t *testing.T) {
	req := require.New(t)

	left := &Node{Kind: NodeBaseTable, Alias: "l"}
	right := &Node{Kind: NodeBaseTable, Alias: "r"}
	join := &Node{Kind: NodeJoin, JoinType: LeftJoin, Children: []*Node{left, right}}
	sel := &Node{Kind: NodeSelect, Children: []*Node{join}, Predicate: &Expression{
		Kind: ExprCompare, Op: "=", Args: []*Expression{
			{Kind: ExprColumn, Table: "r", Column: "x", Nullable: false},
			{Kind: ExprLiteral, Lit: int64(1)},
		},
	}}

	out, err := runOuterToInnerDemotion(&visitor{}, sel)
	req.NoError(err)
	req.Equal(InnerJoin, out.Children[0].JoinType)
}
