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

// DCE computes, top-down from the root's full output, the set of
// column names each node's parent requires (kept in a per-node map;
// Props.Used is not set), then removes the unrequired expressions of
// project nodes. A pruned project keeps at least one expression, and
// projects directly under a UNION are never pruned, which preserves
// the union's positional alignment. Base tables and other node kinds
// are not pruned.
var DCE = Pass{Name: "dce", Run: runDCE}

func runDCE(v *visitor, root *Node) (*Node, error) {
	required := make(map[*Node]map[string]bool)
	markUsed(root, allColumns(root), required)

	changed := false
	var prune func(n *Node, underUnion bool)
	prune = func(n *Node, underUnion bool) {
		if n == nil {
			return
		}
		childUnderUnion := n.Kind == NodeUnion
		for _, c := range n.Children {
			prune(c, childUnderUnion)
		}
		if n.Kind == NodeProject && !underUnion {
			need := required[n]
			var kept []*Expression
			for _, e := range n.Exprs {
				if need == nil || need[e.OutputName()] {
					kept = append(kept, e)
				}
			}
			if len(kept) == 0 && len(n.Exprs) > 0 {
				kept = n.Exprs[:1]
			}
			if len(kept) != len(n.Exprs) {
				changed = true
			}
			n.Exprs = kept
		}
	}
	prune(root, false)
	if changed {
		v.Changes++
	}
	return root, nil
}

// allColumns returns the full output column set of n, used to seed the
// liveness mark at the tree root (every column the caller asked for).
func allColumns(n *Node) map[string]bool {
	out := make(map[string]bool)
	for _, c := range n.Schema() {
		out[c] = true
	}
	return out
}

// markUsed propagates the set of columns n's parent needs down into
// n's own expressions, recording per-node requirements.
func markUsed(n *Node, need map[string]bool, required map[*Node]map[string]bool) {
	if n == nil {
		return
	}
	required[n] = need

	switch n.Kind {
	case NodeProject:
		childNeed := make(map[string]bool)
		for _, e := range n.Exprs {
			if need == nil || need[e.OutputName()] {
				for _, c := range ColumnsOf(e) {
					childNeed[c.Column] = true
				}
			}
		}
		for _, c := range n.Children {
			markUsed(c, childNeed, required)
		}
	case NodeSelect:
		childNeed := copySet(need)
		for _, c := range ColumnsOf(n.Predicate) {
			childNeed[c.Column] = true
		}
		markUsed(n.Children[0], childNeed, required)
	case NodeJoin:
		childNeed := copySet(need)
		for _, c := range ColumnsOf(n.On) {
			childNeed[c.Column] = true
		}
		for _, c := range n.Children {
			markUsed(c, childNeed, required)
		}
	case NodeGroupBy:
		childNeed := make(map[string]bool)
		for _, e := range n.GroupExprs {
			for _, c := range ColumnsOf(e) {
				childNeed[c.Column] = true
			}
		}
		for _, e := range n.Aggrs {
			for _, c := range ColumnsOf(e) {
				childNeed[c.Column] = true
			}
		}
		for _, c := range n.Children {
			markUsed(c, childNeed, required)
		}
	case NodeTopN:
		childNeed := copySet(need)
		for _, o := range n.OrderBy {
			for _, c := range ColumnsOf(o.Expr) {
				childNeed[c.Column] = true
			}
		}
		markUsed(n.Children[0], childNeed, required)
	default:
		for _, c := range n.Children {
			markUsed(c, need, required)
		}
	}
}

func copySet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}
