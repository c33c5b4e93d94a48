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

import (
	"github.com/cespare/xxhash"
	"github.com/pilosa/pilosa/roaring"
)

// PartitionKind discriminates the PARTITION BY strategy a Partition's
// bounds are expressed in.
type PartitionKind int

const (
	PartitionByRange PartitionKind = iota
	PartitionByList
	PartitionByColumn
)

// Partition is one member of a merge (partitioned) table.
type Partition struct {
	Table *TableRef
	Kind  PartitionKind

	// PARTITION BY RANGE: half-open [Min, Max), nil means unbounded
	// (MINVALUE/MAXVALUE).
	Min, Max any

	// PARTITION BY LIST: the declared value set.
	Values []any

	// WithNullValues reports whether this partition accepts NULL.
	WithNullValues bool

	// ColumnStats, populated for PARTITION BY COLUMN on an updateable
	// column with statistics available.
	ColMin, ColMax any
	HasColStats    bool
}

// valuesBitmap builds a roaring bitmap of the hashed membership set for
// a PARTITION BY LIST partition, used for O(1) membership pruning over
// large value sets.
func (p *Partition) valuesBitmap() *roaring.Bitmap {
	bm := roaring.NewBitmap()
	for _, v := range p.Values {
		bm.Add(hashValue(v))
	}
	return bm
}

func hashValue(v any) uint64 {
	return xxhash.Sum64String(anyToString(v))
}

func anyToString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	default:
		return toComparableString(x)
	}
}

// compareValues reports -1/0/1 for a<b/a==b/a>b over the scalar types
// a partition bound or predicate literal can hold. Mixed or
// incomparable types report 0 (treated as "can't prove disjoint").
func compareValues(a, b any) (int, bool) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok2 := a.(string)
	bs, bok2 := b.(string)
	if aok2 && bok2 {
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func toComparableString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return itoa(x)
	case int:
		return itoa(int64(x))
	default:
		return ""
	}
}

func itoa(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// pruneRange tests whether a PARTITION BY RANGE partition can possibly
// satisfy predicate `col op value`, using half-open [Min,Max) semantics
// and treating nil bounds as unbounded.
func (p *Partition) pruneRange(op string, value any) bool {
	switch op {
	case "=":
		if p.Min != nil {
			if c, ok := compareValues(value, p.Min); ok && c < 0 {
				return false
			}
		}
		if p.Max != nil {
			if c, ok := compareValues(value, p.Max); ok && c >= 0 {
				return false
			}
		}
		return true
	case "<":
		if p.Min != nil {
			if c, ok := compareValues(p.Min, value); ok && c >= 0 {
				return false
			}
		}
		return true
	case "<=":
		if p.Min != nil {
			if c, ok := compareValues(p.Min, value); ok && c > 0 {
				return false
			}
		}
		return true
	case ">":
		if p.Max != nil {
			if c, ok := compareValues(p.Max, value); ok && c <= 0 {
				return false
			}
		}
		return true
	case ">=":
		if p.Max != nil {
			if c, ok := compareValues(p.Max, value); ok && c <= 0 {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// pruneBetween tests a BETWEEN v1 AND v2 predicate against a range
// partition.
func (p *Partition) pruneBetween(lo, hi any) bool {
	if p.Max != nil {
		if c, ok := compareValues(p.Max, lo); ok && c <= 0 {
			return false
		}
	}
	if p.Min != nil {
		if c, ok := compareValues(hi, p.Min); ok && c < 0 {
			return false
		}
	}
	return true
}

// pruneList tests whether a PARTITION BY LIST partition's hashed value
// set can contain value.
func (p *Partition) pruneList(value any) bool {
	return p.valuesBitmap().Contains(hashValue(value))
}

// pruneColumn tests a PARTITION BY COLUMN partition's min/max stats.
func (p *Partition) pruneColumn(op string, value any) bool {
	if !p.HasColStats {
		return true
	}
	if p.ColMin != nil {
		if c, ok := compareValues(p.ColMax, value); ok {
			if op == ">" || op == ">=" {
				if c < 0 || (c == 0 && op == ">") {
					return false
				}
			}
		}
		if c, ok := compareValues(value, p.ColMin); ok {
			if op == "<" || op == "<=" {
				if c < 0 || (c == 0 && op == "<") {
					return false
				}
			}
		}
	}
	return true
}

// couldMatch reports whether p can possibly contain any row satisfying
// pred, consulting NULL handling, range/list/column bounds as
// appropriate for p.Kind.
func (p *Partition) couldMatch(pred *Expression) bool {
	if pred == nil {
		return true
	}
	if pred.Kind == ExprIsNull {
		return p.WithNullValues
	}
	if pred.Kind == ExprAnd {
		for _, c := range pred.Args {
			if !p.couldMatch(c) {
				return false
			}
		}
		return true
	}
	if pred.Kind == ExprRange {
		lo, hi := pred.Low, pred.High
		if lo != nil && lo.Kind == ExprLiteral && hi != nil && hi.Kind == ExprLiteral {
			switch p.Kind {
			case PartitionByRange:
				return p.pruneBetween(lo.Lit, hi.Lit)
			}
		}
		return true
	}
	if pred.Kind == ExprCompare && len(pred.Args) == 2 {
		col, val := pred.Args[0], pred.Args[1]
		if col.Kind != ExprColumn && val.Kind == ExprColumn {
			col, val = val, col
		}
		if col.Kind != ExprColumn || val.Kind != ExprLiteral {
			return true
		}
		switch p.Kind {
		case PartitionByRange:
			return p.pruneRange(pred.Op, val.Lit)
		case PartitionByList:
			if pred.Op == "=" {
				return p.pruneList(val.Lit)
			}
			return true
		case PartitionByColumn:
			return p.pruneColumn(pred.Op, val.Lit)
		}
	}
	if pred.Kind == ExprIn && p.Kind == PartitionByList {
		for _, v := range pred.Args[1:] {
			if v.Kind == ExprLiteral && p.pruneList(v.Lit) {
				return true
			}
		}
		return false
	}
	return true
}

// ExpandMergeTables rewrites a basetable over a partitioned table into
// a UNION over its member partitions (pruned by any select predicate
// directly above it), with predicates pushed under the union and the
// union tagged with the original merge-table alias so upstream
// references keep resolving. Member tables are checked for SELECT
// privilege.
var ExpandMergeTables = Pass{Name: "expand_merge_tables", Run: runExpandMergeTables}

func runExpandMergeTables(v *visitor, root *Node) (*Node, error) {
	if root.Props.OpCounts != nil && !root.Props.HasMergeTable {
		return root, nil
	}
	return walkTopDown(v, root, func(v *visitor, n *Node) (*Node, bool) {
		var base *Node
		var pred *Expression
		switch {
		case n.Kind == NodeBaseTable && n.Table.IsMergeTable:
			base = n
		case n.Kind == NodeSelect && len(n.Children) == 1 && n.Children[0].Kind == NodeBaseTable && n.Children[0].Table.IsMergeTable:
			base = n.Children[0]
			pred = n.Predicate
		default:
			return n, false
		}

		var qualifying []*Partition
		for _, p := range base.Table.Partitions {
			if p.couldMatch(pred) {
				qualifying = append(qualifying, p)
			}
		}

		for _, p := range qualifying {
			if err := checkSelectPrivilege(v, p.Table); err != nil {
				v.Err = err
				return n, false
			}
		}

		if len(qualifying) == 0 {
			return &Node{Kind: NodeDummy, Alias: base.Alias, Exprs: projectColumns(base.Table.Columns)}, true
		}
		if len(qualifying) == 1 {
			member := memberScan(qualifying[0], base.Alias, pred)
			return member, true
		}

		arms := make([]*Node, len(qualifying))
		for i, p := range qualifying {
			arms[i] = memberScan(p, base.Alias, pred)
		}
		return &Node{Kind: NodeUnion, IsUnionAll: true, Children: arms, Alias: base.Alias}, true
	})
}

func projectColumns(cols []string) []*Expression {
	out := make([]*Expression, len(cols))
	for i, c := range cols {
		out[i] = &Expression{Kind: ExprColumn, Column: c, Alias: c}
	}
	return out
}

func memberScan(p *Partition, alias string, pred *Expression) *Node {
	scan := &Node{Kind: NodeBaseTable, Table: p.Table, Alias: alias}
	if pred == nil {
		return scan
	}
	return &Node{Kind: NodeSelect, Predicate: pred, Children: []*Node{scan}, Alias: alias}
}

