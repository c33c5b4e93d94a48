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

// PropertyPass is a preliminary top-down walk that counts occurrences
// of each operator kind and notes whether any basetable is a merge
// table, remote, or replica, and whether any relation is distinct.
// Later passes consult root.Props to skip themselves when the counts
// show they can't apply.
var PropertyPass = Pass{Name: "properties", Run: runPropertyPass}

func runPropertyPass(v *visitor, root *Node) (*Node, error) {
	cnt := make(map[NodeKind]int)
	agg := Properties{OpCounts: cnt}

	var walk func(n *Node) error
	walk = func(n *Node) error {
		if n == nil {
			return nil
		}
		cnt[n.Kind]++
		if n.Distinct {
			agg.HasDistinct = true
		}
		if n.Kind == NodeBaseTable && n.Table != nil {
			if n.Table.IsMergeTable {
				agg.HasMergeTable = true
			}
			if n.Table.IsRemote {
				agg.HasRemote = true
			}
			if n.Table.IsReplica {
				agg.HasReplica = true
			}
		}
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}

	root.Props = agg
	return root, nil
}
