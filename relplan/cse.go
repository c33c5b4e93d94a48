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

import "github.com/mitchellh/hashstructure"

// exprHash structurally hashes an expression for duplicate detection,
// ignoring the Alias field (two expressions that only differ by output
// name are still the same computation).
func exprHash(e *Expression) (uint64, error) {
	key := struct {
		Kind               ExprKind
		Table, Column      string
		ColIndex           int
		Lit                any
		Op                 string
		ArgHashes          []uint64
		AggDistinct        bool
		Pattern, Escape    string
	}{
		Kind: e.Kind, Table: e.Table, Column: e.Column, ColIndex: e.ColIndex,
		Lit: e.Lit, Op: e.Op, AggDistinct: e.AggDistinct,
		Pattern: e.Pattern, Escape: e.Escape,
	}
	for _, a := range e.Args {
		h, err := exprHash(a)
		if err != nil {
			return 0, err
		}
		key.ArgHashes = append(key.ArgHashes, h)
	}
	return hashstructure.Hash(key, nil)
}

// CSEProjections is a bottom-up pass: within a single project node,
// duplicate non-column, non-atom expressions are unified by alias —
// later occurrences become column references to the first one's
// output name, so the expensive computation is evaluated once.
var CSEProjections = Pass{Name: "cse_projections", Run: runCSE}

func runCSE(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeProject {
			return n, false
		}
		seen := make(map[uint64]*Expression)
		changed := false
		for i, e := range n.Exprs {
			if e.Kind == ExprColumn || e.IsAtom() {
				continue
			}
			h, err := exprHash(e)
			if err != nil {
				continue
			}
			if first, ok := seen[h]; ok && Equal(first, e) {
				name := first.OutputName()
				n.Exprs[i] = &Expression{Kind: ExprColumn, Column: name, Alias: e.Alias}
				changed = true
				continue
			}
			seen[h] = e
		}
		return n, changed
	})
}
