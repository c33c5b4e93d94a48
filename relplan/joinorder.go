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

import "sort"

// AnnotateJoinIdx scans every join's ON predicate for an
// equal(fk_col, pk_col) shape and annotates it with a JOINIDX key,
// scored toward equality on primary-key or hash-unique columns.
var AnnotateJoinIdx = Pass{Name: "annotate_join_idx", Run: runAnnotateJoinIdx}

func runAnnotateJoinIdx(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeJoin || n.On == nil || n.Key != nil {
			return n, false
		}
		for _, c := range splitConjuncts(n.On) {
			if c.Kind != ExprCompare || c.Op != "=" || len(c.Args) != 2 {
				continue
			}
			a, b := c.Args[0], c.Args[1]
			if a.Kind != ExprColumn || b.Kind != ExprColumn {
				continue
			}
			fk, pk := a, b
			if b.Unique && !a.Unique {
				fk, pk = a, b
			} else if a.Unique && !b.Unique {
				fk, pk = b, a
			} else if !a.Unique && !b.Unique {
				continue
			}
			score := 1.0
			if pk.Unique {
				score += 10.0
			}
			n.Key = &JoinKey{IsJoinIdx: true, FKCol: fk.Column, PKCol: pk.Column, Score: score}
			return n, true
		}
		return n, false
	})
}

// ReorderJoins greedily rebuilds a flattened chain of three or more
// inner joins as a left-deep tree (see greedyLeftDeep): it starts from
// the chain's first relation and attaches at each step the relation
// joined to the accumulated tree by the highest-scoring predicate.
// Two-way joins are left unchanged.
var ReorderJoins = Pass{Name: "reorder_joins", Run: runReorderJoins}

func runReorderJoins(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeJoin || n.JoinType != InnerJoin {
			return n, false
		}
		leaves, preds := flattenInnerJoins(n)
		if len(leaves) <= 2 {
			return n, false
		}
		tree, changed := greedyLeftDeep(leaves, preds)
		if !changed {
			return n, false
		}
		return tree, true
	})
}

// flattenInnerJoins collects every leaf relation and ON-predicate
// conjunct out of a chain of inner joins rooted at n.
func flattenInnerJoins(n *Node) ([]*Node, []*Expression) {
	var leaves []*Node
	var preds []*Expression
	var walk func(*Node)
	walk = func(x *Node) {
		if x.Kind == NodeJoin && x.JoinType == InnerJoin {
			preds = append(preds, splitConjuncts(x.On)...)
			walk(x.Children[0])
			walk(x.Children[1])
			return
		}
		leaves = append(leaves, x)
	}
	walk(n)
	return leaves, preds
}

func predScore(p *Expression) float64 {
	if p.Kind != ExprCompare || p.Op != "=" || len(p.Args) != 2 {
		return 0
	}
	s := 1.0
	for _, c := range ColumnsOf(p) {
		if c.Unique {
			s += 10
		}
	}
	return s
}

// greedyLeftDeep starts the tree with the first leaf, then repeatedly
// attaches the unjoined leaf connected to the tree by the
// highest-scoring predicate (the first unjoined leaf when no predicate
// connects one), building a left-deep plan whose top join carries all
// the predicates.
func greedyLeftDeep(leaves []*Node, preds []*Expression) (*Node, bool) {
	remaining := append([]*Node(nil), leaves...)
	used := make([]bool, len(remaining))

	sort.SliceStable(preds, func(i, j int) bool { return predScore(preds[i]) > predScore(preds[j]) })

	var tree *Node
	attached := map[string]bool{}

	attach := func(leaf *Node) {
		if tree == nil {
			tree = leaf
		} else {
			tree = &Node{Kind: NodeJoin, JoinType: InnerJoin, Children: []*Node{tree, leaf}}
		}
		attached[leaf.Alias] = true
	}

	attach(remaining[0])
	used[0] = true

	for count := 1; count < len(remaining); count++ {
		bestIdx := -1
		bestScore := -1.0
		for i, l := range remaining {
			if used[i] {
				continue
			}
			for _, p := range preds {
				cols := ColumnsOf(p)
				refsLeaf, refsTree := false, false
				for _, c := range cols {
					if c.Table == l.Alias {
						refsLeaf = true
					} else if attached[c.Table] {
						refsTree = true
					}
				}
				if refsLeaf && refsTree {
					if s := predScore(p); s > bestScore {
						bestScore = s
						bestIdx = i
					}
				}
			}
		}
		if bestIdx == -1 {
			for i := range remaining {
				if !used[i] {
					bestIdx = i
					break
				}
			}
		}
		used[bestIdx] = true
		attach(remaining[bestIdx])
	}

	if tree.Kind == NodeJoin {
		tree.On = joinConjuncts(preds)
	}
	return tree, true
}
