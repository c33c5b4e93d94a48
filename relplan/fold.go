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

import "github.com/shopspring/decimal"

// maxDecimalDigits is the platform's maximum integer width for a
// folded decimal result's digit count (a 128-bit hugeint equivalent).
const maxDecimalDigits = 38

// asDecimal coerces a literal of any supported numeric Go type to a
// decimal.Decimal for exact scale arithmetic.
func asDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case int64:
		return decimal.NewFromInt(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case float64:
		return decimal.NewFromFloat(x), true
	default:
		return decimal.Decimal{}, false
	}
}

// foldArith evaluates e (an ExprArith over two atom Literals) at plan
// time with exact decimal arithmetic; the result's exponent carries the
// scale that arithmetic yields (for multiplication, the sum of the
// operand scales). A result with more than maxDecimalDigits digits, and
// a division by zero, are not folded. The folded literal's TypeTag is
// "decimal" and records neither precision nor scale.
func foldArith(e *Expression) (*Expression, bool) {
	if e.Kind != ExprArith || len(e.Args) != 2 {
		return nil, false
	}
	l, lok := e.Args[0].Lit, e.Args[0].Kind == ExprLiteral
	r, rok := e.Args[1].Lit, e.Args[1].Kind == ExprLiteral
	if !lok || !rok {
		return nil, false
	}
	ld, ok1 := asDecimal(l)
	rd, ok2 := asDecimal(r)
	if !ok1 || !ok2 {
		return nil, false
	}

	var result decimal.Decimal
	var scale int32
	switch e.Op {
	case "+":
		result = ld.Add(rd)
		scale = maxInt32(ld.Exponent()*-1, rd.Exponent()*-1)
	case "-":
		result = ld.Sub(rd)
		scale = maxInt32(ld.Exponent()*-1, rd.Exponent()*-1)
	case "*":
		result = ld.Mul(rd)
		scale = ld.Exponent()*-1 + rd.Exponent()*-1
	case "/":
		if rd.IsZero() {
			return nil, false
		}
		result = ld.Div(rd)
		scale = maxInt32(ld.Exponent()*-1, rd.Exponent()*-1)
	default:
		return nil, false
	}

	digits := len(result.Coefficient().String())
	if digits > maxDecimalDigits {
		return nil, false
	}
	_ = scale

	return &Expression{Kind: ExprLiteral, Lit: result, TypeTag: "decimal", Alias: e.Alias}, true
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
