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

// splitConjuncts flattens a chain of ANDs into its leaf conjuncts.
func splitConjuncts(e *Expression) []*Expression {
	if e == nil {
		return nil
	}
	if e.Kind == ExprAnd {
		var out []*Expression
		for _, a := range e.Args {
			out = append(out, splitConjuncts(a)...)
		}
		return out
	}
	return []*Expression{e}
}

func joinConjuncts(cs []*Expression) *Expression {
	if len(cs) == 0 {
		return nil
	}
	out := cs[0]
	for _, c := range cs[1:] {
		out = &Expression{Kind: ExprAnd, Op: "AND", Args: []*Expression{out, c}}
	}
	return out
}

// PushSelectDown moves the conjuncts of a select sitting directly
// above a join that reference only one join input under that input.
// Selects above any other node kind, a groupby included, stay in place.
var PushSelectDown = Pass{Name: "push_select_down", Run: runPushSelectDown}

func runPushSelectDown(v *visitor, root *Node) (*Node, error) {
	return walkTopDown(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeSelect || len(n.Children) != 1 {
			return n, false
		}
		child := n.Children[0]
		if child.Kind != NodeJoin {
			return n, false
		}
		left, right := child.Children[0], child.Children[1]
		conjuncts := splitConjuncts(n.Predicate)
		var stay, toLeft, toRight []*Expression
		for _, c := range conjuncts {
			switch {
			case ReferencesOnly(c, left.Alias):
				toLeft = append(toLeft, c)
			case ReferencesOnly(c, right.Alias):
				toRight = append(toRight, c)
			default:
				stay = append(stay, c)
			}
		}
		if len(toLeft) == 0 && len(toRight) == 0 {
			return n, false
		}
		if len(toLeft) > 0 {
			child.Children[0] = &Node{Kind: NodeSelect, Predicate: joinConjuncts(toLeft), Children: []*Node{left}, Alias: left.Alias}
		}
		if len(toRight) > 0 {
			child.Children[1] = &Node{Kind: NodeSelect, Predicate: joinConjuncts(toRight), Children: []*Node{right}, Alias: right.Alias}
		}
		if len(stay) == 0 {
			return child, true
		}
		n.Predicate = joinConjuncts(stay)
		return n, true
	})
}

// pointSelectOnUnique reports whether n is a select with an equality
// predicate on a column known unique, meaning its input side reduces
// to at most one row.
func pointSelectOnUnique(n *Node) bool {
	if n.Kind != NodeSelect {
		return false
	}
	for _, c := range splitConjuncts(n.Predicate) {
		if c.Kind == ExprCompare && c.Op == "=" {
			for _, col := range ColumnsOf(c) {
				if col.Unique {
					return true
				}
			}
		}
	}
	return false
}

// PushSelectUp hoists a select above a join up past it when the
// opposite join input is reduced to a single row by a point-select on
// a unique column, avoiding redundant re-evaluation of the predicate
// against every join output row.
var PushSelectUp = Pass{Name: "push_select_up", Run: runPushSelectUp}

func runPushSelectUp(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeJoin {
			return n, false
		}
		for i, side := range n.Children {
			other := n.Children[1-i]
			if side.Kind == NodeSelect && pointSelectOnUnique(other) {
				inner := side.Children[0]
				n.Children[i] = inner
				return &Node{Kind: NodeSelect, Predicate: side.Predicate, Children: []*Node{n}}, true
			}
		}
		return n, false
	})
}

// MergeOrChainsToIn rewrites a disjunction of equalities on the same
// column into an IN list, and a conjunction of inequalities on the
// same column into a NOT IN list.
var MergeOrChainsToIn = Pass{Name: "merge_or_chains_to_in", Run: runMergeOrChainsToIn}

func runMergeOrChainsToIn(v *visitor, root *Node) (*Node, error) {
	return walkTopDown(v, root, func(v *visitor, n *Node) (*Node, bool) {
		changed := false
		walkExpressions(v, n, func(v *visitor, e *Expression) (*Expression, bool) {
			if rewritten, ok := mergeOrChain(e); ok {
				changed = true
				return rewritten, true
			}
			if rewritten, ok := mergeAndChainToNotIn(e); ok {
				changed = true
				return rewritten, true
			}
			return e, false
		})
		return n, changed
	})
}

func sameColumn(a, b *Expression) bool {
	return a != nil && b != nil && a.Kind == ExprColumn && b.Kind == ExprColumn && a.Table == b.Table && a.Column == b.Column
}

func mergeOrChain(e *Expression) (*Expression, bool) {
	if e.Kind != ExprOr {
		return nil, false
	}
	leaves := flattenOr(e)
	var col *Expression
	var vals []*Expression
	for _, l := range leaves {
		if l.Kind != ExprCompare || l.Op != "=" || len(l.Args) != 2 {
			return nil, false
		}
		var c, val *Expression
		if l.Args[0].Kind == ExprColumn {
			c, val = l.Args[0], l.Args[1]
		} else if l.Args[1].Kind == ExprColumn {
			c, val = l.Args[1], l.Args[0]
		} else {
			return nil, false
		}
		if col == nil {
			col = c
		} else if !sameColumn(col, c) {
			return nil, false
		}
		vals = append(vals, val)
	}
	if col == nil || len(vals) < 2 {
		return nil, false
	}
	return &Expression{Kind: ExprIn, Op: "IN", Args: append([]*Expression{col}, vals...)}, true
}

func mergeAndChainToNotIn(e *Expression) (*Expression, bool) {
	if e.Kind != ExprAnd {
		return nil, false
	}
	leaves := splitConjuncts(e)
	var col *Expression
	var vals []*Expression
	for _, l := range leaves {
		if l.Kind != ExprCompare || l.Op != "!=" || len(l.Args) != 2 {
			return nil, false
		}
		var c, val *Expression
		if l.Args[0].Kind == ExprColumn {
			c, val = l.Args[0], l.Args[1]
		} else if l.Args[1].Kind == ExprColumn {
			c, val = l.Args[1], l.Args[0]
		} else {
			return nil, false
		}
		if col == nil {
			col = c
		} else if !sameColumn(col, c) {
			return nil, false
		}
		vals = append(vals, val)
	}
	if col == nil || len(vals) < 2 {
		return nil, false
	}
	return &Expression{Kind: ExprIn, Op: "NOT IN", Args: append([]*Expression{col}, vals...)}, true
}

func flattenOr(e *Expression) []*Expression {
	if e.Kind == ExprOr {
		var out []*Expression
		for _, a := range e.Args {
			out = append(out, flattenOr(a)...)
		}
		return out
	}
	return []*Expression{e}
}

// RangeMerge rewrites conjunctions like `x > a AND x < b` on the same
// column into a single range predicate. Disjunctions are not
// rewritten: range predicates in separate OR arms stay as they are.
var RangeMerge = Pass{Name: "range_merge", Run: runRangeMerge}

func runRangeMerge(v *visitor, root *Node) (*Node, error) {
	return walkTopDown(v, root, func(v *visitor, n *Node) (*Node, bool) {
		changed := false
		walkExpressions(v, n, func(v *visitor, e *Expression) (*Expression, bool) {
			if e.Kind != ExprAnd {
				return e, false
			}
			leaves := splitConjuncts(e)
			var col *Expression
			var low, high *Expression
			var lowIncl, highIncl bool
			rest := leaves[:0:0]
			for _, l := range leaves {
				if l.Kind == ExprCompare && len(l.Args) == 2 && l.Args[0].Kind == ExprColumn &&
					(col == nil || sameColumn(col, l.Args[0])) {
					switch l.Op {
					case ">", ">=":
						col, low, lowIncl = l.Args[0], l.Args[1], l.Op == ">="
						continue
					case "<", "<=":
						col, high, highIncl = l.Args[0], l.Args[1], l.Op == "<="
						continue
					}
				}
				rest = append(rest, l)
			}
			if low == nil || high == nil {
				return e, false
			}
			rng := &Expression{Kind: ExprRange, Op: "range", Args: []*Expression{col}, Low: low, High: high, LowIncl: lowIncl, HighIncl: highIncl}
			changed = true
			if len(rest) == 0 {
				return rng, true
			}
			return joinConjuncts(append(rest, rng)), true
		})
		return n, changed
	})
}
