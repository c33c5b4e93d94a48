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

// litBool builds a boolean literal expression.
func litBool(b bool) *Expression { return &Expression{Kind: ExprLiteral, Lit: b} }

// SimplifyPredicates constant-folds comparisons on atoms, drops
// isnull(x) on a non-nullable x, cancels NOT NOT, simplifies
// arithmetic on constants (delegating to foldArith), folds 0*x and a-a
// on non-null operands to zero, and folds arith-by-constant.
var SimplifyPredicates = Pass{Name: "simplify_predicates", Run: runSimplifyPredicates}

func runSimplifyPredicates(v *visitor, root *Node) (*Node, error) {
	return walkTopDown(v, root, func(v *visitor, n *Node) (*Node, bool) {
		changed := false
		walkExpressions(v, n, func(v *visitor, e *Expression) (*Expression, bool) {
			if out, ok := simplifyOne(e); ok {
				changed = true
				return out, true
			}
			return e, false
		})
		return n, changed
	})
}

func simplifyOne(e *Expression) (*Expression, bool) {
	switch e.Kind {
	case ExprCompare:
		if len(e.Args) == 2 && isAtomDeep(e.Args[0]) && isAtomDeep(e.Args[1]) {
			if b, ok := evalCompareAtoms(e.Op, e.Args[0], e.Args[1]); ok {
				return litBool(b), true
			}
		}
	case ExprIsNull:
		if len(e.Args) == 1 && !e.Args[0].Nullable {
			return litBool(false), true
		}
	case ExprNot:
		if len(e.Args) == 1 && e.Args[0].Kind == ExprNot {
			return e.Args[0].Args[0], true
		}
		if len(e.Args) == 1 && e.Args[0].Kind == ExprLiteral {
			if b, ok := e.Args[0].Lit.(bool); ok {
				return litBool(!b), true
			}
		}
	case ExprArith:
		if out, ok := foldArith(e); ok {
			return out, true
		}
		if len(e.Args) == 2 {
			l, r := e.Args[0], e.Args[1]
			if e.Op == "*" && isZeroLit(l) && !r.Nullable {
				return &Expression{Kind: ExprLiteral, Lit: int64(0)}, true
			}
			if e.Op == "*" && isZeroLit(r) && !l.Nullable {
				return &Expression{Kind: ExprLiteral, Lit: int64(0)}, true
			}
			if e.Op == "-" && sameColumn(l, r) && !l.Nullable {
				return &Expression{Kind: ExprLiteral, Lit: int64(0)}, true
			}
			if e.Op == "+" && isZeroLit(l) {
				return r, true
			}
			if e.Op == "+" && isZeroLit(r) {
				return l, true
			}
		}
	}
	return nil, false
}

func isZeroLit(e *Expression) bool {
	if e.Kind != ExprLiteral {
		return false
	}
	switch x := e.Lit.(type) {
	case int64:
		return x == 0
	case int:
		return x == 0
	case float64:
		return x == 0
	}
	return false
}

func evalCompareAtoms(op string, l, r *Expression) (bool, bool) {
	lf, lok := toFloat(l.Lit)
	rf, rok := toFloat(r.Lit)
	if !lok || !rok {
		return false, false
	}
	switch op {
	case "=":
		return lf == rf, true
	case "!=":
		return lf != rf, true
	case "<":
		return lf < rf, true
	case "<=":
		return lf <= rf, true
	case ">":
		return lf > rf, true
	case ">=":
		return lf >= rf, true
	}
	return false, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// LikeSelectSimplify rewrites `col LIKE pattern` into `col = pattern`
// when pattern carries no wildcards, has an empty escape, and the
// comparison is case-sensitive.
var LikeSelectSimplify = Pass{Name: "like_select_simplify", Run: runLikeSimplify}

func runLikeSimplify(v *visitor, root *Node) (*Node, error) {
	return walkTopDown(v, root, func(v *visitor, n *Node) (*Node, bool) {
		changed := false
		walkExpressions(v, n, func(v *visitor, e *Expression) (*Expression, bool) {
			if e.Kind != ExprLike || e.Escape != "" || hasWildcard(e.Pattern) {
				return e, false
			}
			changed = true
			return &Expression{Kind: ExprCompare, Op: "=", Args: []*Expression{e.Args[0], {Kind: ExprLiteral, Lit: e.Pattern}}}, true
		})
		return n, changed
	})
}

func hasWildcard(pattern string) bool {
	for _, r := range pattern {
		if r == '%' || r == '_' {
			return true
		}
	}
	return false
}
