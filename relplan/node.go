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

// NodeKind discriminates the tagged union of relational operators a
// Node can be.
type NodeKind int

const (
	NodeBaseTable NodeKind = iota
	NodeProject
	NodeSelect
	NodeJoin
	NodeGroupBy
	NodeUnion
	NodeTopN
	NodeDummy // empty relation, produced by merge-table pruning when no partition qualifies

	NodeTableFunc // table-valued function call, one row set per invocation
	NodeSample    // bounded random row sample of its single child
	NodeIntersect // set intersection of its children's rows
	NodeExcept    // set difference: rows of the first child absent from the rest

	// DML kinds. Each wraps a single child describing the rows the
	// statement applies to (Table names the target; Predicate and
	// SetColumns, where present, carry the statement's own clauses).
	NodeInsert
	NodeUpdate
	NodeDelete
	NodeTruncate
	NodeMerge // partition-attach/detach DDL side-effect relation
	NodeDDL   // schema-level DDL side-effect relation (create/drop/alter)
)

func (k NodeKind) String() string {
	switch k {
	case NodeBaseTable:
		return "basetable"
	case NodeProject:
		return "project"
	case NodeSelect:
		return "select"
	case NodeJoin:
		return "join"
	case NodeGroupBy:
		return "groupby"
	case NodeUnion:
		return "union"
	case NodeTopN:
		return "topn"
	case NodeDummy:
		return "dummy"
	case NodeTableFunc:
		return "table-func"
	case NodeSample:
		return "sample"
	case NodeIntersect:
		return "intersect"
	case NodeExcept:
		return "except"
	case NodeInsert:
		return "insert"
	case NodeUpdate:
		return "update"
	case NodeDelete:
		return "delete"
	case NodeTruncate:
		return "truncate"
	case NodeMerge:
		return "merge"
	case NodeDDL:
		return "ddl"
	default:
		return "unknown"
	}
}

// JoinType is the tagged union of join kinds a NodeJoin can carry.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	SemiJoin
	AntiJoin
)

// JoinKey annotates a join's ON predicate as a foreign-key/primary-key
// equality discovered by AnnotateJoinIdx.
type JoinKey struct {
	IsJoinIdx bool
	FKCol     string
	PKCol     string
	// Score rates the equality higher when its primary-key side is a
	// unique column. greedyLeftDeep ranks predicates with predScore and
	// does not read it.
	Score float64
}

// OrderExpr is one ORDER BY term.
type OrderExpr struct {
	Expr *Expression
	Desc bool
}

// Properties holds the property pass's per-node annotations. OpCounts
// and the Has* flags are populated only at the tree root by
// PropertyPass; HashCol is local to the node it's attached to.
type Properties struct {
	OpCounts map[NodeKind]int

	HasMergeTable bool
	HasRemote     bool
	HasReplica    bool
	HasDistinct   bool

	// HashCol marks that this relation's output is known unique on a
	// single column (PROP_HASHCOL-equivalent), enabling distinct
	// elimination.
	HashCol string

	Used bool // not set by any pass; DCE keeps liveness in its own map
}

// Node is the tagged union of relational-algebra operators. Only the
// fields relevant to Kind are meaningful; the rest are zero.
type Node struct {
	Kind     NodeKind
	Children []*Node
	Alias    string // subquery/merge-table alias this node's output is exposed under
	Props    Properties

	// NodeBaseTable
	Table *TableRef

	// NodeProject
	Exprs []*Expression

	// NodeSelect
	Predicate *Expression

	// NodeJoin
	JoinType JoinType
	On       *Expression
	Key      *JoinKey

	// NodeGroupBy
	GroupExprs []*Expression
	Aggrs      []*Expression

	// NodeTopN
	Limit, Offset uint64
	HasLimit      bool
	OrderBy       []OrderExpr

	// NodeUnion
	IsUnionAll bool

	// NodeInsert, NodeDelete, NodeUpdate, NodeTruncate, NodeMerge, NodeDDL
	SetColumns []string // NodeUpdate: columns the statement assigns

	// modifier: this relation's rows are deduplicated (DISTINCT project
	// or implicit set semantics), independent of Kind.
	Distinct bool
}

// TableRef names a base relation and carries the partitioning metadata
// merge-table expansion consults.
type TableRef struct {
	Schema string
	Name   string

	IsMergeTable bool
	IsRemote     bool
	IsReplica    bool
	Partitions   []*Partition

	// Columns lists the table's output columns in declaration order,
	// used by DCE to know the full column set before pruning.
	Columns []string

	// Declared reports whether the table is a declared table variable
	// rather than a catalog table; the count-star shortcut, which reads
	// the catalog's row count, only applies to non-declared tables.
	Declared bool
}

// Clone returns a shallow copy of n with its own Children slice (but
// shared leaf pointers), suitable for rewrites that need to replace a
// subset of children without mutating a shared node.
func (n *Node) Clone() *Node {
	cp := *n
	cp.Children = append([]*Node(nil), n.Children...)
	return &cp
}

// Schema returns the output column names of n, recursively derived for
// operators that don't carry their own Exprs.
func (n *Node) Schema() []string {
	switch n.Kind {
	case NodeBaseTable:
		return n.Table.Columns
	case NodeProject:
		cols := make([]string, len(n.Exprs))
		for i, e := range n.Exprs {
			cols[i] = e.OutputName()
		}
		return cols
	case NodeGroupBy:
		cols := make([]string, 0, len(n.GroupExprs)+len(n.Aggrs))
		for _, e := range n.GroupExprs {
			cols = append(cols, e.OutputName())
		}
		for _, e := range n.Aggrs {
			cols = append(cols, e.OutputName())
		}
		return cols
	case NodeUnion:
		if len(n.Children) > 0 {
			return n.Children[0].Schema()
		}
		return nil
	default:
		if len(n.Children) > 0 {
			return n.Children[0].Schema()
		}
		return nil
	}
}
