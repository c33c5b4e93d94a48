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

import "github.com/MonetDB/MonetDB-sub015/session"

// maxFixpointIterations bounds the optimization loop: after this many
// rounds the loop stops and returns the current tree, without error,
// even if the last round still reported changes.
const maxFixpointIterations = 20

// maxWalkDepth is the recursion high-water mark for tree walks; past it
// planning aborts with ErrQueryTooComplex.
const maxWalkDepth = 4096

// visitor carries the ambient state a rewrite or property pass needs:
// the owning session, a shared change counter, the current parent and
// depth, and an opaque slot a pass can stash its own accumulator in.
type visitor struct {
	Sess    *session.Session
	Changes int
	Parent  *Node
	Depth   int
	Data    any

	// Err lets a NodeRewriter/ExprRewriter abort the walk with a
	// planning error (privilege violation, unresolved name) instead of
	// just returning unchanged.
	Err error
}

// NodeRewriter rewrites a single relation node, returning the
// (possibly identical) replacement and whether it changed anything.
type NodeRewriter func(v *visitor, n *Node) (*Node, bool)

// ExprRewriter rewrites a single scalar expression.
type ExprRewriter func(v *visitor, e *Expression) (*Expression, bool)

// walkTopDown applies f to n, then recurses into the (possibly
// replaced) node's children, each with Parent set to the replacement
// and Depth incremented. It increments v.Changes whenever f reports a
// change.
func walkTopDown(v *visitor, n *Node, f NodeRewriter) (*Node, error) {
	if v.Depth > maxWalkDepth {
		return nil, ErrQueryTooComplex.New()
	}
	if n == nil {
		return nil, nil
	}
	out, changed := f(v, n)
	if v.Err != nil {
		return nil, v.Err
	}
	if changed {
		v.Changes++
	}
	child := &visitor{Sess: v.Sess, Parent: out, Depth: v.Depth + 1, Data: v.Data}
	for i, c := range out.Children {
		rc, err := walkTopDown(child, c, f)
		if err != nil {
			return nil, err
		}
		out.Children[i] = rc
	}
	v.Changes += child.Changes
	return out, nil
}

// walkBottomUp recurses into n's children first, then applies f to the
// node with its children already rewritten.
func walkBottomUp(v *visitor, n *Node, f NodeRewriter) (*Node, error) {
	if v.Depth > maxWalkDepth {
		return nil, ErrQueryTooComplex.New()
	}
	if n == nil {
		return nil, nil
	}
	child := &visitor{Sess: v.Sess, Parent: n, Depth: v.Depth + 1, Data: v.Data}
	for i, c := range n.Children {
		rc, err := walkBottomUp(child, c, f)
		if err != nil {
			return nil, err
		}
		n.Children[i] = rc
	}
	v.Changes += child.Changes
	out, changed := f(v, n)
	if v.Err != nil {
		return nil, v.Err
	}
	if changed {
		v.Changes++
	}
	return out, nil
}

// walkExpressions applies f to every expression reachable from n's own
// expression fields (not recursing into child relations), replacing
// them in place.
func walkExpressions(v *visitor, n *Node, f ExprRewriter) {
	rewrite := func(e *Expression) *Expression {
		if e == nil {
			return nil
		}
		out, changed := rewriteExprTree(v, e, f)
		if changed {
			v.Changes++
		}
		return out
	}
	switch n.Kind {
	case NodeProject:
		for i, e := range n.Exprs {
			n.Exprs[i] = rewrite(e)
		}
	case NodeSelect:
		n.Predicate = rewrite(n.Predicate)
	case NodeJoin:
		n.On = rewrite(n.On)
	case NodeGroupBy:
		for i, e := range n.GroupExprs {
			n.GroupExprs[i] = rewrite(e)
		}
		for i, e := range n.Aggrs {
			n.Aggrs[i] = rewrite(e)
		}
	case NodeTopN:
		for i, o := range n.OrderBy {
			n.OrderBy[i].Expr = rewrite(o.Expr)
		}
	}
}

// rewriteExprTree applies f bottom-up across e's whole expression tree.
func rewriteExprTree(v *visitor, e *Expression, f ExprRewriter) (*Expression, bool) {
	if e == nil {
		return nil, false
	}
	changed := false
	for i, a := range e.Args {
		na, c := rewriteExprTree(v, a, f)
		e.Args[i] = na
		changed = changed || c
	}
	if e.Low != nil {
		nl, c := rewriteExprTree(v, e.Low, f)
		e.Low = nl
		changed = changed || c
	}
	if e.High != nil {
		nh, c := rewriteExprTree(v, e.High, f)
		e.High = nh
		changed = changed || c
	}
	out, c := f(v, e)
	return out, changed || c
}

// Pass is one named optimization or property pass over the tree.
type Pass struct {
	Name string
	Run  func(v *visitor, root *Node) (*Node, error)
}

// Fixpoint runs passes repeatedly until none of them report a change
// in a full round, or maxFixpointIterations is reached.
func Fixpoint(sess *session.Session, root *Node, passes []Pass) (*Node, error) {
	return fixpointWithData(sess, root, passes, nil)
}

func fixpointWithData(sess *session.Session, root *Node, passes []Pass, data any) (*Node, error) {
	for i := 0; i < maxFixpointIterations; i++ {
		roundChanges := 0
		for _, p := range passes {
			v := &visitor{Sess: sess, Data: data}
			out, err := p.Run(v, root)
			if err != nil {
				return nil, err
			}
			if v.Err != nil {
				return nil, v.Err
			}
			root = out
			roundChanges += v.Changes
		}
		if roundChanges == 0 {
			return root, nil
		}
	}
	return root, nil
}
