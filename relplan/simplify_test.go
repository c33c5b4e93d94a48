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

func TestSimplifyOneFoldsAtomicCompare(t *testing.T) {
	req := require.New(t)

	e := &Expression{Kind: ExprCompare, Op: "<", Args: []*Expression{
		{Kind: ExprLiteral, Lit: int64(1)},
		{Kind: ExprLiteral, Lit: int64(2)},
	}}
	out, ok := simplifyOne(e)
	req.True(ok)
	req.Equal(true, out.Lit)
}

func TestSimplifyOneDropsIsNullOnNonNullable(t *testing.T) {
	req := require.New(t)

	e := &Expression{Kind: ExprIsNull, Args: []*Expression{{Kind: ExprColumn, Column: "x", Nullable: false}}}
	out, ok := simplifyOne(e)
	req.True(ok)
	req.Equal(false, out.Lit)
}

func TestSimplifyOneCancelsDoubleNot(t *testing.T) {
	req := require.New(t)

	inner := &Expression{Kind: ExprColumn, Column: "x"}
	e := &Expression{Kind: ExprNot, Args: []*Expression{{Kind: ExprNot, Args: []*Expression{inner}}}}
	out, ok := simplifyOne(e)
	req.True(ok)
	req.Same(inner, out)
}

func TestSimplifyOneZeroMultiply(t *testing.T) {
	req := require.New(t)

	e := &Expression{Kind: ExprArith, Op: "*", Args: []*Expression{
		{Kind: ExprLiteral, Lit: int64(0)},
		{Kind: ExprColumn, Column: "x", Nullable: false},
	}}
	out, ok := simplifyOne(e)
	req.True(ok)
	req.Equal(int64(0), out.Lit)
}

func TestSimplifyOneAdditiveIdentity(t *testing.T) {
	req := require.New(t)

	col := &Expression{Kind: ExprColumn, Column: "x"}
	e := &Expression{Kind: ExprArith, Op: "+", Args: []*Expression{
		{Kind: ExprLiteral, Lit: int64(0)},
		col,
	}}
	out, ok := simplifyOne(e)
	req.True(ok)
	req.Same(col, out)
}

func TestLikeSelectSimplifyRewritesWildcardFreePattern(t *testing.T) {
	req := require.New(t)

	sel := &Node{
		Kind: NodeSelect,
		Predicate: &Expression{
			Kind: ExprLike, Pattern: "abc",
			Args: []*Expression{{Kind: ExprColumn, Column: "x"}},
		},
	}
	out, err := runLikeSimplify(&visitor{}, sel)
	req.NoError(err)
	req.Equal(ExprCompare, out.Predicate.Kind)
	req.Equal("=", out.Predicate.Op)
}

func TestLikeSelectSimplifyLeavesWildcardPattern(t *testing.T) {
	req := require.New(t)

	sel := &Node{
		Kind: NodeSelect,
		Predicate: &Expression{
			Kind: ExprLike, Pattern: "ab%",
			Args: []*Expression{{Kind: ExprColumn, Column: "x"}},
		},
	}
	out, err := runLikeSimplify(&visitor{}, sel)
	req.NoError(err)
	req.Equal(ExprLike, out.Predicate.Kind)
}
