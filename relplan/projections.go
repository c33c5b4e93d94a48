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

// isUnsafeToInline reports whether e must not be inlined when merging
// nested projections: an analytic (window) function, or a function or
// aggregate the outer project references more than once. Identity
// computations are not detected and are inlined like any other
// expression.
func isUnsafeToInline(e *Expression, useCount int) bool {
	if e.Kind == ExprFunc && e.Op == "window" {
		return true
	}
	if useCount > 1 && (e.Kind == ExprFunc || e.Kind == ExprAggregate) {
		return true
	}
	return false
}

func substituteColumns(e *Expression, bindings map[string]*Expression) *Expression {
	if e == nil {
		return nil
	}
	if e.Kind == ExprColumn {
		if b, ok := bindings[e.Column]; ok {
			cp := b.Clone()
			cp.Alias = e.Alias
			return cp
		}
		return e
	}
	cp := e.Clone()
	for i, a := range cp.Args {
		cp.Args[i] = substituteColumns(a, bindings)
	}
	if cp.Low != nil {
		cp.Low = substituteColumns(cp.Low, bindings)
	}
	if cp.High != nil {
		cp.High = substituteColumns(cp.High, bindings)
	}
	return cp
}

// MergeNestedProjections collapses project(project(X)) into a single
// project, inlining the inner expressions into the outer ones, unless
// the outer references an inner expression considered unsafe to
// duplicate.
var MergeNestedProjections = Pass{Name: "merge_nested_projections", Run: runMergeNestedProjections}

func runMergeNestedProjections(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeProject || len(n.Children) != 1 || n.Children[0].Kind != NodeProject {
			return n, false
		}
		inner := n.Children[0]

		useCount := make(map[string]int)
		for _, oe := range n.Exprs {
			for _, c := range ColumnsOf(oe) {
				useCount[c.Column]++
			}
		}

		bindings := make(map[string]*Expression, len(inner.Exprs))
		for _, ie := range inner.Exprs {
			bindings[ie.OutputName()] = ie
		}

		for _, ie := range inner.Exprs {
			name := ie.OutputName()
			if isUnsafeToInline(ie, useCount[name]) && useCount[name] > 0 {
				return n, false
			}
		}

		newExprs := make([]*Expression, len(n.Exprs))
		for i, oe := range n.Exprs {
			newExprs[i] = substituteColumns(oe, bindings)
		}
		n.Exprs = newExprs
		n.Children = inner.Children
		return n, true
	})
}

// isSimpleRenaming reports whether every output expression of a
// project is a bare column reference (possibly aliased), making the
// project safe to reorder relative to a neighboring select or join.
func isSimpleRenaming(n *Node) bool {
	if n.Kind != NodeProject {
		return false
	}
	for _, e := range n.Exprs {
		if e.Kind != ExprColumn {
			return false
		}
	}
	return true
}

// PushProjectDown pushes a simple-renaming project that sits directly
// above a join below that join when all its columns come from one
// side, exposing that side to further rewrites without carrying the
// other side's columns through it.
var PushProjectDown = Pass{Name: "push_project_down", Run: runPushProjectDown}

func runPushProjectDown(v *visitor, root *Node) (*Node, error) {
	return walkTopDown(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeProject || len(n.Children) != 1 || !isSimpleRenaming(n) {
			return n, false
		}
		join := n.Children[0]
		if join.Kind != NodeJoin {
			return n, false
		}
		left, right := join.Children[0], join.Children[1]
		var side *Node
		allLeft, allRight := true, true
		for _, e := range n.Exprs {
			if e.Table == left.Alias {
				allRight = false
			} else if e.Table == right.Alias {
				allLeft = false
			} else {
				return n, false
			}
		}
		if allLeft {
			side = left
		} else if allRight {
			side = right
		} else {
			return n, false
		}
		newProj := &Node{Kind: NodeProject, Exprs: n.Exprs, Children: []*Node{side}, Alias: n.Alias}
		join.Children[0], join.Children[1] = left, right
		if allLeft {
			join.Children[0] = newProj
		} else {
			join.Children[1] = newProj
		}
		return join, true
	})
}

// PushProjectUp hoists a project that does nothing but rename columns
// above a select, so that later passes see the select sitting directly
// on its base relation.
var PushProjectUp = Pass{Name: "push_project_up", Run: runPushProjectUp}

func runPushProjectUp(v *visitor, root *Node) (*Node, error) {
	return walkBottomUp(v, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind != NodeSelect || len(n.Children) != 1 {
			return n, false
		}
		proj := n.Children[0]
		if proj.Kind != NodeProject || !isSimpleRenaming(proj) {
			return n, false
		}
		n.Children[0] = proj.Children[0]
		proj.Children[0] = n
		return proj, true
	})
}
