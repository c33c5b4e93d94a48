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

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestExpressionOutputName(t *testing.T) {
	req := require.New(t)

	req.Equal("x", (&Expression{Kind: ExprColumn, Column: "x"}).OutputName())
	req.Equal("aliased", (&Expression{Kind: ExprColumn, Column: "x", Alias: "aliased"}).OutputName())
	req.Equal("sum(...)", (&Expression{Kind: ExprAggregate, Op: "sum"}).OutputName())
}

func TestIsAtomDeep(t *testing.T) {
	req := require.New(t)

	lit := &Expression{Kind: ExprLiteral, Lit: int64(1)}
	col := &Expression{Kind: ExprColumn, Column: "x"}

	req.True(isAtomDeep(lit))
	req.False(isAtomDeep(col))
	req.True(isAtomDeep(&Expression{Kind: ExprArith, Op: "+", Args: []*Expression{lit, lit}}))
	req.False(isAtomDeep(&Expression{Kind: ExprArith, Op: "+", Args: []*Expression{lit, col}}))
}

func TestExpressionEqual(t *testing.T) {
	req := require.New(t)

	a := &Expression{Kind: ExprColumn, Table: "t", Column: "x"}
	b := &Expression{Kind: ExprColumn, Table: "t", Column: "x", Alias: "different_alias"}
	c := &Expression{Kind: ExprColumn, Table: "t", Column: "y"}

	req.True(Equal(a, b))
	req.False(Equal(a, c))
	req.False(Equal(a, nil))
	req.True(Equal(nil, nil))

	lit1 := &Expression{Kind: ExprLiteral, Lit: int64(1)}
	lit2 := &Expression{Kind: ExprLiteral, Lit: int64(1)}
	lit3 := &Expression{Kind: ExprLiteral, Lit: int64(2)}
	req.True(Equal(lit1, lit2))
	req.False(Equal(lit1, lit3))
}

func TestColumnsOf(t *testing.T) {
	req := require.New(t)

	e := &Expression{
		Kind: ExprCompare, Op: "=",
		Args: []*Expression{
			{Kind: ExprColumn, Table: "a", Column: "x"},
			{Kind: ExprArith, Op: "+", Args: []*Expression{
				{Kind: ExprColumn, Table: "b", Column: "y"},
				{Kind: ExprLiteral, Lit: int64(1)},
			}},
		},
	}
	cols := ColumnsOf(e)
	req.Len(cols, 2)
	req.Equal("x", cols[0].Column)
	req.Equal("y", cols[1].Column)
}

func TestReferencesOnly(t *testing.T) {
	req := require.New(t)

	e := &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{
		{Kind: ExprColumn, Table: "a", Column: "x"},
		{Kind: ExprColumn, Table: "a", Column: "y"},
	}}
	req.True(ReferencesOnly(e, "a"))
	req.False(ReferencesOnly(e, "b"))
}

func TestExpressionClone(t *testing.T) {
	req := require.New(t)

	e := &Expression{Kind: ExprAnd, Args: []*Expression{{Kind: ExprLiteral, Lit: true}}}
	cp := e.Clone()
	cp.Args[0] = &Expression{Kind: ExprLiteral, Lit: false}
	req.Equal(true, e.Args[0].Lit)
}

func TestExpressionCloneIsStructurallyIdenticalBeforeMutation(t *testing.T) {
	e := &Expression{
		Kind: ExprCompare, Op: "=",
		Args: []*Expression{
			{Kind: ExprColumn, Table: "a", Column: "x"},
			{Kind: ExprArith, Op: "+", Args: []*Expression{
				{Kind: ExprColumn, Table: "b", Column: "y"},
				{Kind: ExprLiteral, Lit: int64(1)},
			}},
		},
	}
	cp := e.Clone()
	if diff := cmp.Diff(e, cp); diff != "" {
		t.Fatalf("clone diverged from original (-want +got):\n%s", diff)
	}
}
