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

func TestAnnotateJoinIdxFindsFKPKEquality(t *testing.T) {
	req := require.New(t)

	fk := &Expression{Kind: ExprColumn, Table: "orders", Column: "customer_id"}
	pk := &Expression{Kind: ExprColumn, Table: "customers", Column: "id", Unique: true}
	join := &Node{
		Kind: NodeJoin, JoinType: InnerJoin,
		Children: []*Node{
			{Kind: NodeBaseTable, Alias: "orders"},
			{Kind: NodeBaseTable, Alias: "customers"},
		},
		On: &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{fk, pk}},
	}

	out, err := runAnnotateJoinIdx(&visitor{}, join)
	req.NoError(err)
	req.NotNil(out.Key)
	req.True(out.Key.IsJoinIdx)
	req.Equal("customer_id", out.Key.FKCol)
	req.Equal("id", out.Key.PKCol)
	req.Greater(out.Key.Score, 1.0)
}

func TestReorderJoinsBuildsLeftDeepOverThreeRelations(t *testing.T) {
	req := require.New(t)

	a := &Node{Kind: NodeBaseTable, Alias: "a"}
	b := &Node{Kind: NodeBaseTable, Alias: "b"}
	c := &Node{Kind: NodeBaseTable, Alias: "c"}

	abPred := &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{
		{Kind: ExprColumn, Table: "a", Column: "id"},
		{Kind: ExprColumn, Table: "b", Column: "a_id"},
	}}
	bcPred := &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{
		{Kind: ExprColumn, Table: "b", Column: "id", Unique: true},
		{Kind: ExprColumn, Table: "c", Column: "b_id"},
	}}

	ab := &Node{Kind: NodeJoin, JoinType: InnerJoin, Children: []*Node{a, b}, On: abPred}
	chain := &Node{Kind: NodeJoin, JoinType: InnerJoin, Children: []*Node{ab, c}, On: bcPred}

	out, err := runReorderJoins(&visitor{}, chain)
	req.NoError(err)
	req.Equal(NodeJoin, out.Kind)

	leaves, _ := flattenInnerJoins(out)
	req.Len(leaves, 3)
}

func TestReorderJoinsLeavesTwoWayJoinAlone(t *testing.T) {
	req := require.New(t)

	a := &Node{Kind: NodeBaseTable, Alias: "a"}
	b := &Node{Kind: NodeBaseTable, Alias: "b"}
	join := &Node{Kind: NodeJoin, JoinType: InnerJoin, Children: []*Node{a, b}}

	out, err := runReorderJoins(&visitor{}, join)
	req.NoError(err)
	req.Same(join, out)
}
