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

// DMLKind discriminates which partition-routed DML plan to build.
type DMLKind int

const (
	DMLInsert DMLKind = iota
	DMLDelete
	DMLTruncate
	DMLUpdate
)

// ExceptionRelation is the "nonzero count aborts execution" sub-tree
// used for both new-partition bounds validation and INSERT routing:
// a COUNT(*) over the rows of Source that the predicate passed to
// CountCheck selects, reported as Message if the count comes back
// nonzero at execution time. It records no predicate itself.
type ExceptionRelation struct {
	Source  *Node
	Message string
}

// CountCheck returns the Node computing this exception relation's row
// count: COUNT(*) over a Select of Source restricted to the
// complement of Predicate (rows that do NOT satisfy any partition).
func (e *ExceptionRelation) CountCheck(antiPredicate *Expression) *Node {
	sel := &Node{Kind: NodeSelect, Predicate: antiPredicate, Children: []*Node{e.Source}}
	return &Node{
		Kind: NodeGroupBy,
		Aggrs: []*Expression{
			{Kind: ExprAggregate, Op: "count", Alias: "violation_count"},
		},
		Children: []*Node{sel},
	}
}

// anyPartitionPredicate ORs together every partition's qualifying
// predicate (as reconstructed by partitionPredicate), so its negation
// describes rows that belong to no declared partition.
func anyPartitionPredicate(parts []*Partition, col string) *Expression {
	var preds []*Expression
	for _, p := range parts {
		if pp := partitionPredicate(p, col); pp != nil {
			preds = append(preds, pp)
		}
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return &Expression{Kind: ExprOr, Args: preds}
	}
}

// partitionPredicate reconstructs the membership predicate a
// partition's declared bounds imply, for use in building the
// complement (out-of-bounds) predicate that drives exception-relation
// and anti-predicate counts. Column partitions carry no static bound
// and so contribute no predicate (they accept any value whose routing
// is decided by column-stats pruning at scan time, not at insert-time
// validation).
func partitionPredicate(p *Partition, col string) *Expression {
	colExpr := &Expression{Kind: ExprColumn, Column: col}
	switch p.Kind {
	case PartitionByRange:
		var lo, hi *Expression
		if p.Min != nil {
			lo = &Expression{Kind: ExprCompare, Op: ">=", Args: []*Expression{colExpr, {Kind: ExprLiteral, Lit: p.Min}}}
		}
		if p.Max != nil {
			hi = &Expression{Kind: ExprCompare, Op: "<", Args: []*Expression{colExpr, {Kind: ExprLiteral, Lit: p.Max}}}
		}
		switch {
		case lo != nil && hi != nil:
			return &Expression{Kind: ExprAnd, Args: []*Expression{lo, hi}}
		case lo != nil:
			return lo
		case hi != nil:
			return hi
		}
		return nil
	case PartitionByList:
		if len(p.Values) == 0 {
			return nil
		}
		args := append([]*Expression{colExpr}, literalsOf(p.Values)...)
		return &Expression{Kind: ExprIn, Args: args}
	default:
		return nil
	}
}

func literalsOf(vs []any) []*Expression {
	out := make([]*Expression, len(vs))
	for i, v := range vs {
		out[i] = &Expression{Kind: ExprLiteral, Lit: v}
	}
	return out
}

// ValidateNewPartition builds the exception relations that check a
// newly added range/list partition's source data: one over source,
// whose out-of-bounds count p.OwnBoundsCheck builds, and, when
// parentSiblings is non-empty (this partition nests inside another
// partitioned table), a second one for the enclosing level. The second
// relation is identical to the first: parentSiblings is consulted only
// for whether it is empty, and no count against the enclosing table's
// partitioning predicate is built here.
func ValidateNewPartition(source *Node, p *Partition, parentSiblings []*Partition, message string) []*ExceptionRelation {
	rel := &ExceptionRelation{Source: source, Message: message}
	rels := []*ExceptionRelation{rel}
	if len(parentSiblings) > 0 {
		rels = append(rels, &ExceptionRelation{Source: source, Message: message})
	}
	return rels
}

// OwnBoundsCheck returns the Node counting rows in rel.Source that fall
// outside p's own declared bounds.
func (p *Partition) OwnBoundsCheck(rel *ExceptionRelation, col string) *Node {
	own := partitionPredicate(p, col)
	var anti *Expression
	if own != nil {
		anti = &Expression{Kind: ExprNot, Args: []*Expression{own}}
	}
	return rel.CountCheck(anti)
}

// PlanInsertIntoMergeTable builds the partition-routed INSERT plan: one
// INSERT per qualifying partition restricted to that partition's
// predicate, plus a COUNT(*) exception check over the rows matching no
// partition's predicate.
type InsertPlan struct {
	// PerPartition holds one (partition, filtered source) pair per
	// member the inserted rows are routed into.
	PerPartition []InsertTarget
	// Unmatched counts rows matching no partition; nonzero trips a
	// runtime exception.
	Unmatched *ExceptionRelation
	// UnmatchedCount is the COUNT(*) Node Unmatched's check compiles
	// to, ready to execute alongside PerPartition's inserts.
	UnmatchedCount *Node
}

type InsertTarget struct {
	Partition *Partition
	Source    *Node
}

func PlanInsertIntoMergeTable(source *Node, col string, partitions []*Partition) *InsertPlan {
	plan := &InsertPlan{}
	for _, p := range partitions {
		pred := partitionPredicate(p, col)
		filtered := source
		if pred != nil {
			filtered = &Node{Kind: NodeSelect, Predicate: pred, Children: []*Node{source}}
		}
		insert := &Node{Kind: NodeInsert, Table: p.Table, Children: []*Node{filtered}}
		plan.PerPartition = append(plan.PerPartition, InsertTarget{Partition: p, Source: insert})
	}
	plan.Unmatched = &ExceptionRelation{Source: source, Message: "insert value out of range for partitioned table"}
	plan.UnmatchedCount = plan.Unmatched.CountCheck(unmatchedPredicate(partitions, col))
	return plan
}

// unmatchedPredicate is the negation of "matches some declared
// partition", used to count insert rows that route to no partition.
func unmatchedPredicate(partitions []*Partition, col string) *Expression {
	anyPred := anyPartitionPredicate(partitions, col)
	if anyPred == nil {
		return nil
	}
	return &Expression{Kind: ExprNot, Args: []*Expression{anyPred}}
}

// PlanDeleteFromMergeTable propagates a DELETE restricted by pred to
// every member partition, wrapping each partition's restricted scan in
// a NodeDelete marker naming the target table.
func PlanDeleteFromMergeTable(pred *Expression, partitions []*Partition) []*Node {
	out := make([]*Node, len(partitions))
	for i, p := range partitions {
		scan := &Node{Kind: NodeBaseTable, Table: p.Table}
		sel := &Node{Kind: NodeSelect, Predicate: pred, Children: []*Node{scan}}
		out[i] = &Node{Kind: NodeDelete, Table: p.Table, Predicate: pred, Children: []*Node{sel}}
	}
	return out
}

// PlanTruncateMergeTable propagates a TRUNCATE to every member
// partition; there is no predicate to restrict by, so each NodeTruncate
// marker carries only its target table.
func PlanTruncateMergeTable(partitions []*Partition) []*Node {
	out := make([]*Node, len(partitions))
	for i, p := range partitions {
		out[i] = &Node{Kind: NodeTruncate, Table: p.Table}
	}
	return out
}

// PlanUpdateMergeTable propagates an UPDATE to every member partition
// when none of the set columns is a partitioning column. When the
// update touches the partitioning column, the new value may route the
// row into a different partition than the one it currently occupies,
// so a single per-partition UPDATE cannot express it; this is the
// ErrAmbiguousUpdatePartition open case and the caller must decompose
// the statement into a DELETE of the old row plus an INSERT of the new
// values instead.
func PlanUpdateMergeTable(pred *Expression, setCols []string, partitionCol string, partitions []*Partition) ([]*Node, error) {
	for _, c := range setCols {
		if c == partitionCol {
			return nil, ErrAmbiguousUpdatePartition.New(partitionCol)
		}
	}
	out := make([]*Node, len(partitions))
	for i, p := range partitions {
		scan := &Node{Kind: NodeBaseTable, Table: p.Table}
		sel := &Node{Kind: NodeSelect, Predicate: pred, Children: []*Node{scan}}
		out[i] = &Node{Kind: NodeUpdate, Table: p.Table, Predicate: pred, SetColumns: setCols, Children: []*Node{sel}}
	}
	return out, nil
}

// DMLStatement is the input to PlanDML: a statement against a merge
// table, identified by Kind, with the fields relevant to that kind
// populated by the caller.
type DMLStatement struct {
	Kind         DMLKind
	Source       *Node       // INSERT
	Predicate    *Expression // DELETE, UPDATE
	SetColumns   []string    // UPDATE
	PartitionCol string
	Partitions   []*Partition
}

// PlanDML dispatches a DML statement against a merge table to the
// appropriate per-partition plan builder, returning the per-partition
// relations to execute and, for INSERT, the unmatched-row exception
// check.
func PlanDML(stmt DMLStatement) ([]*Node, *Node, error) {
	switch stmt.Kind {
	case DMLInsert:
		plan := PlanInsertIntoMergeTable(stmt.Source, stmt.PartitionCol, stmt.Partitions)
		nodes := make([]*Node, len(plan.PerPartition))
		for i, t := range plan.PerPartition {
			nodes[i] = t.Source
		}
		return nodes, plan.UnmatchedCount, nil
	case DMLDelete:
		return PlanDeleteFromMergeTable(stmt.Predicate, stmt.Partitions), nil, nil
	case DMLTruncate:
		return PlanTruncateMergeTable(stmt.Partitions), nil, nil
	case DMLUpdate:
		nodes, err := PlanUpdateMergeTable(stmt.Predicate, stmt.SetColumns, stmt.PartitionCol, stmt.Partitions)
		return nodes, nil, err
	default:
		return nil, nil, ErrQueryTooComplex.New()
	}
}
