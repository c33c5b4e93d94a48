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

import "math"

const maxUint64 = math.MaxUint64

// TopNPushdown pushes a topN below a simple project (swapping with it
// so the project still runs last), and distributes a topN over a
// union's arms (each arm only needs its own top n rows, since the
// union-all result is re-limited above anyway). Nested topNs are
// merged: offsets sum, limits take the minimum, both saturating at the
// 64-bit maximum instead of overflowing.
var TopNPushdown = Pass{Name: "topn_pushdown", Run: runTopNPushdown}

func runTopNPushdown(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeTopN || len(n.Children) != 1 {
			return n, false
		}
		child := n.Children[0]

		switch child.Kind {
		case NodeProject:
			if !isSimpleRenaming(child) {
				return n, false
			}
			n.Children[0] = child.Children[0]
			child.Children[0] = n
			return child, true

		case NodeUnion:
			newArms := make([]*Node, len(child.Children))
			for i, arm := range child.Children {
				newArms[i] = &Node{Kind: NodeTopN, HasLimit: n.HasLimit, Limit: n.Limit, OrderBy: n.OrderBy, Children: []*Node{arm}, Alias: arm.Alias}
			}
			child.Children = newArms
			n.Children[0] = child
			return n, true

		case NodeTopN:
			merged := mergeTopN(n, child)
			return merged, true
		}
		return n, false
	})
}

func mergeTopN(outer, inner *Node) *Node {
	offset := satAdd(outer.Offset, inner.Offset)
	var limit uint64
	hasLimit := outer.HasLimit || inner.HasLimit
	switch {
	case outer.HasLimit && inner.HasLimit:
		limit = satSub(minU64(outer.Limit, inner.Limit), 0)
	case outer.HasLimit:
		limit = outer.Limit
	case inner.HasLimit:
		limit = inner.Limit
	}
	return &Node{Kind: NodeTopN, HasLimit: hasLimit, Limit: limit, Offset: offset, OrderBy: outer.OrderBy, Children: inner.Children, Alias: outer.Alias}
}

func satAdd(a, b uint64) uint64 {
	if a > maxUint64-b {
		return maxUint64
	}
	return a + b
}

func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
