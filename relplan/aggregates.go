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

// isSplittableAggr reports whether an aggregate function can be safely
// recomputed in two phases (partial then combine) without DISTINCT.
func isSplittableAggr(e *Expression) bool {
	if e.Kind != ExprAggregate || e.AggDistinct {
		return false
	}
	switch e.Op {
	case "count", "sum", "min", "max":
		return true
	default:
		return false
	}
}

// phase2Combiner returns the aggregate that combines per-partition
// partial results of aggr in the outer groupby.
func phase2Combiner(aggr *Expression, partialRef *Expression) *Expression {
	op := aggr.Op
	if aggr.Op == "count" {
		op = "sum"
	}
	return &Expression{Kind: ExprAggregate, Op: op, Args: []*Expression{partialRef}, Alias: aggr.Alias}
}

// AggregatePushdownOverUnionAll rewrites groupby(union(A,B)) using
// count/sum/min/max (no distinct) into
// groupby(union(groupby(A), groupby(B))) with a phase-2 aggregate
// combining the partial results; count(*) becomes sum(count(*)) in
// phase 2.
var AggregatePushdownOverUnionAll = Pass{Name: "aggregate_pushdown_union_all", Run: runAggPushdownUnion}

func runAggPushdownUnion(v *visitor, root *Node) (*Node, error) {
	if root.Props.OpCounts != nil && root.Props.OpCounts[NodeGroupBy] == 0 {
		return root, nil
	}
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeGroupBy || len(n.Children) != 1 || n.Children[0].Kind != NodeUnion {
			return n, false
		}
		union := n.Children[0]
		if !union.IsUnionAll {
			return n, false
		}
		for _, a := range n.Aggrs {
			if !isSplittableAggr(a) {
				return n, false
			}
		}

		partialGBs := make([]*Node, len(union.Children))
		for i, side := range union.Children {
			partialGBs[i] = &Node{Kind: NodeGroupBy, GroupExprs: n.GroupExprs, Aggrs: n.Aggrs, Children: []*Node{side}, Alias: side.Alias}
		}
		newUnion := &Node{Kind: NodeUnion, IsUnionAll: true, Children: partialGBs, Alias: union.Alias}

		phase2Aggrs := make([]*Expression, len(n.Aggrs))
		for i, a := range n.Aggrs {
			ref := &Expression{Kind: ExprColumn, Column: a.OutputName()}
			phase2Aggrs[i] = phase2Combiner(a, ref)
		}
		outer := &Node{Kind: NodeGroupBy, GroupExprs: n.GroupExprs, Aggrs: phase2Aggrs, Children: []*Node{newUnion}, Alias: n.Alias}
		return outer, true
	})
}

// GroupByPushdownOverJoin pushes aggregation below a semi-join or
// primary-key/foreign-key join when the group-by key is a primary key
// whose join does not reduce the row count (i.e. a fk-to-pk equality,
// annotated JOINIDX by AnnotateJoinIdx).
var GroupByPushdownOverJoin = Pass{Name: "groupby_pushdown_over_join", Run: runGroupByPushdownJoin}

func runGroupByPushdownJoin(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeGroupBy || len(n.Children) != 1 {
			return n, false
		}
		join := n.Children[0]
		if join.Kind != NodeJoin || join.Key == nil || !join.Key.IsJoinIdx {
			return n, false
		}
		if join.JoinType != InnerJoin && join.JoinType != SemiJoin {
			return n, false
		}
		pkSide := join.Children[1]
		for _, g := range n.GroupExprs {
			if g.Column != join.Key.PKCol || g.Table != pkSide.Alias {
				return n, false
			}
		}
		fkSide := join.Children[0]
		pushed := &Node{Kind: NodeGroupBy, GroupExprs: n.GroupExprs, Aggrs: n.Aggrs, Children: []*Node{fkSide}, Alias: n.Alias}
		return &Node{Kind: NodeJoin, JoinType: join.JoinType, On: join.On, Key: join.Key, Children: []*Node{pushed, pkSide}, Alias: join.Alias}, true
	})
}

// DistinctAggregateRewrite rewrites groupby([gbe], [aggr(DISTINCT x),
// other aggrs]) with exactly one distinct aggregate into a nested
// groupby([gbe, x]) feeding a groupby([gbe]) with the distinct
// aggregate recomputed over the pre-deduplicated rows and phase-2
// copies of the other aggregates.
var DistinctAggregateRewrite = Pass{Name: "distinct_aggregate_rewrite", Run: runDistinctAggRewrite}

func runDistinctAggRewrite(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeGroupBy {
			return n, false
		}
		var distinctAggrs []*Expression
		var others []*Expression
		for _, a := range n.Aggrs {
			if a.AggDistinct {
				distinctAggrs = append(distinctAggrs, a)
			} else {
				others = append(others, a)
			}
		}
		if len(distinctAggrs) != 1 {
			return n, false
		}
		da := distinctAggrs[0]
		if len(da.Args) != 1 {
			return n, false
		}

		innerGroup := append(append([]*Expression(nil), n.GroupExprs...), da.Args[0])
		inner := &Node{Kind: NodeGroupBy, GroupExprs: innerGroup, Aggrs: others, Children: n.Children, Alias: n.Alias}

		outerAggrs := make([]*Expression, 0, len(others)+1)
		outerAggrs = append(outerAggrs, &Expression{Kind: ExprAggregate, Op: da.Op, Args: []*Expression{da.Args[0]}, Alias: da.Alias})
		for _, o := range others {
			ref := &Expression{Kind: ExprColumn, Column: o.OutputName()}
			outerAggrs = append(outerAggrs, phase2Combiner(o, ref))
		}
		return &Node{Kind: NodeGroupBy, GroupExprs: n.GroupExprs, Aggrs: outerAggrs, Children: []*Node{inner}, Alias: n.Alias}, true
	})
}

// DistinctElimination drops a project's DISTINCT modifier when its
// output columns are already known unique (PROP_HASHCOL-equivalent or
// a detected primary key), and collapses a constant-only distinct
// project to TOP 1.
var DistinctElimination = Pass{Name: "distinct_elimination", Run: runDistinctElimination}

func runDistinctElimination(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeProject || !n.Distinct {
			return n, false
		}
		allAtoms := true
		for _, e := range n.Exprs {
			if !e.IsAtom() {
				allAtoms = false
				break
			}
		}
		if allAtoms {
			return &Node{Kind: NodeTopN, HasLimit: true, Limit: 1, Children: n.Children, Exprs: n.Exprs, Alias: n.Alias}, true
		}
		for _, e := range n.Exprs {
			if e.Kind == ExprColumn && (e.Unique || n.Props.HashCol == e.Column) {
				n.Distinct = false
				return n, true
			}
		}
		return n, false
	})
}

// CountStarBasetableShortcut rewrites groupby(basetable t, [],
// [count(*)]) on a non-declared table into a direct catalog-count
// marker node, avoiding a full scan.
var CountStarBasetableShortcut = Pass{Name: "count_star_basetable_shortcut", Run: runCountStarShortcut}

func runCountStarShortcut(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeGroupBy || len(n.GroupExprs) != 0 || len(n.Children) != 1 {
			return n, false
		}
		base := n.Children[0]
		if base.Kind != NodeBaseTable || base.Table.Declared {
			return n, false
		}
		if len(n.Aggrs) != 1 || n.Aggrs[0].Op != "count" || len(n.Aggrs[0].Args) != 0 {
			return n, false
		}
		shortcut := &Expression{Kind: ExprFunc, Op: "sys.cnt", Args: []*Expression{
			{Kind: ExprLiteral, Lit: base.Table.Schema}, {Kind: ExprLiteral, Lit: base.Table.Name},
		}, Alias: n.Aggrs[0].OutputName()}
		return &Node{Kind: NodeProject, Exprs: []*Expression{shortcut}, Children: nil, Alias: n.Alias}, true
	})
}

// MultiCountStarReuse rewrites multiple count(*) aggregates appearing
// in the same groupby into references to the first one.
var MultiCountStarReuse = Pass{Name: "multi_count_star_reuse", Run: runMultiCountStarReuse}

func runMultiCountStarReuse(v *visitor, root *Node) (*Node, error) {
	return walkTopDown(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeGroupBy {
			return n, false
		}
		var first *Expression
		changed := false
		for i, a := range n.Aggrs {
			if a.Op != "count" || len(a.Args) != 0 {
				continue
			}
			if first == nil {
				first = a
				continue
			}
			n.Aggrs[i] = &Expression{Kind: ExprColumn, Column: first.OutputName(), Alias: a.Alias}
			changed = true
		}
		return n, changed
	})
}
