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

// SemiJoinRewrites applies antijoin(A, union(B,C)) ->
// antijoin(antijoin(A,B), C), and collapses
// semijoin(A, join(A,B)[A=B]) to semijoin(A,B) when the join's other
// side is identical to A (an identity join used only to test
// existence).
var SemiJoinRewrites = Pass{Name: "semijoin_rewrites", Run: runSemiJoinRewrites}

func runSemiJoinRewrites(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeJoin {
			return n, false
		}
		if n.JoinType == AntiJoin {
			right := n.Children[1]
			if right.Kind == NodeUnion && len(right.Children) == 2 {
				a, b, c := n.Children[0], right.Children[0], right.Children[1]
				inner := &Node{Kind: NodeJoin, JoinType: AntiJoin, On: n.On, Children: []*Node{a, b}, Alias: n.Alias}
				return &Node{Kind: NodeJoin, JoinType: AntiJoin, On: n.On, Children: []*Node{inner, c}, Alias: n.Alias}, true
			}
		}
		if n.JoinType == SemiJoin {
			left := n.Children[0]
			right := n.Children[1]
			if right.Kind == NodeJoin && right.JoinType == InnerJoin {
				for i, side := range right.Children {
					if isIdentitySubtree(left, side) {
						other := right.Children[1-i]
						return &Node{Kind: NodeJoin, JoinType: SemiJoin, On: right.On, Children: []*Node{left, other}, Alias: n.Alias}, true
					}
				}
			}
		}
		return n, false
	})
}

// isIdentitySubtree reports whether b is the same base relation as a
// (by alias and table identity), meaning a join against b followed by
// a semijoin is testing existence against a itself.
func isIdentitySubtree(a, b *Node) bool {
	if a.Kind != NodeBaseTable || b.Kind != NodeBaseTable {
		return a.Alias != "" && a.Alias == b.Alias
	}
	return a.Table.Schema == b.Table.Schema && a.Table.Name == b.Table.Name && a.Alias == b.Alias
}

// nullRejecting reports whether pred evaluates to NULL (hence
// filtered as not-true) whenever every column from the given table
// alias is NULL — the condition under which a select above an outer
// join demotes it.
func nullRejecting(pred *Expression, outerAlias string) bool {
	refs := false
	for _, c := range ColumnsOf(pred) {
		if c.Table == outerAlias {
			refs = true
		}
	}
	if !refs {
		return false
	}
	switch pred.Kind {
	case ExprCompare, ExprArith, ExprIn, ExprLike:
		return true
	case ExprIsNull:
		return false
	case ExprAnd:
		for _, a := range pred.Args {
			if nullRejecting(a, outerAlias) {
				return true
			}
		}
		return false
	case ExprOr:
		for _, a := range pred.Args {
			if !nullRejecting(a, outerAlias) {
				return false
			}
		}
		return len(pred.Args) > 0
	default:
		return false
	}
}

// OuterToInnerDemotion demotes a left/right/full join to inner/left/
// right when a select sitting directly above it carries a predicate
// that is NULL-rejecting on the side that would otherwise be padded
// with NULLs.
var OuterToInnerDemotion = Pass{Name: "outer_to_inner_demotion", Run: runOuterToInnerDemotion}

func runOuterToInnerDemotion(v *visitor, root *Node) (*Node, error) {
	return walkTopDown(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeSelect || len(n.Children) != 1 {
			return n, false
		}
		join := n.Children[0]
		if join.Kind != NodeJoin {
			return n, false
		}
		switch join.JoinType {
		case LeftJoin:
			if nullRejecting(n.Predicate, join.Children[1].Alias) {
				join.JoinType = InnerJoin
				return n, true
			}
		case RightJoin:
			if nullRejecting(n.Predicate, join.Children[0].Alias) {
				join.JoinType = InnerJoin
				return n, true
			}
		case FullJoin:
			leftRejects := nullRejecting(n.Predicate, join.Children[0].Alias)
			rightRejects := nullRejecting(n.Predicate, join.Children[1].Alias)
			switch {
			case leftRejects && rightRejects:
				join.JoinType = InnerJoin
				return n, true
			case leftRejects:
				join.JoinType = RightJoin
				return n, true
			case rightRejects:
				join.JoinType = LeftJoin
				return n, true
			}
		}
		return n, false
	})
}
