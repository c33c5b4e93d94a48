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

func TestCSEProjectionsUnifiesDuplicateExpressions(t *testing.T) {
	req := require.New(t)

	dup := func(alias string) *Expression {
		return &Expression{
			Kind: ExprArith, Op: "+", Alias: alias,
			Args: []*Expression{
				{Kind: ExprColumn, Column: "a"},
				{Kind: ExprColumn, Column: "b"},
			},
		}
	}

	proj := &Node{
		Kind: NodeProject,
		Exprs: []*Expression{
			dup("first"),
			dup("second"),
			{Kind: ExprColumn, Column: "c"},
		},
		Children: []*Node{{Kind: NodeBaseTable, Table: &TableRef{Name: "t"}}},
	}

	out, err := runCSE(&visitor{}, proj)
	req.NoError(err)
	req.Equal(ExprColumn, out.Exprs[1].Kind)
	req.Equal("first", out.Exprs[1].Column)
	req.Equal("second", out.Exprs[1].Alias)
	req.Equal(ExprArith, out.Exprs[0].Kind)
}

func TestCSEProjectionsLeavesDistinctExpressionsAlone(t *testing.T) {
	req := require.New(t)

	proj := &Node{
		Kind: NodeProject,
		Exprs: []*Expression{
			{Kind: ExprArith, Op: "+", Args: []*Expression{{Kind: ExprColumn, Column: "a"}, {Kind: ExprColumn, Column: "b"}}},
			{Kind: ExprArith, Op: "+", Args: []*Expression{{Kind: ExprColumn, Column: "a"}, {Kind: ExprColumn, Column: "c"}}},
		},
	}

	v := &visitor{}
	out, err := runCSE(v, proj)
	req.NoError(err)
	req.Equal(ExprArith, out.Exprs[0].Kind)
	req.Equal(ExprArith, out.Exprs[1].Kind)
	req.Equal(0, v.Changes)
}

func TestExprHashIgnoresAlias(t *testing.T) {
	req := require.New(t)

	a := &Expression{Kind: ExprColumn, Column: "x", Alias: "one"}
	b := &Expression{Kind: ExprColumn, Column: "x", Alias: "two"}

	ha, err := exprHash(a)
	req.NoError(err)
	hb, err := exprHash(b)
	req.NoError(err)
	req.Equal(ha, hb)
}
