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

// Package relplan rewrites a relational algebra tree into a form suited
// for lowering to IR, applying a fixpoint of algebraic transformations:
// expression/projection simplification, predicate pushdown, join
// reordering, dead-code elimination, aggregate and distinct rewrites,
// semi-join rewrites, topN pushdown, and merge-table expansion with
// partition pruning.
package relplan

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// ErrQueryTooComplex is raised when the optimizer's recursion depth
	// exceeds its high-water mark while walking or rewriting a tree.
	ErrQueryTooComplex = errors.NewKind("relplan: query too complex")

	// ErrUnresolvedName is raised when a column or table reference could
	// not be bound to anything in scope.
	ErrUnresolvedName = errors.NewKind("relplan: unresolved name %q")

	// ErrTypeMismatch is raised when an expression combines operands of
	// incompatible types in a way planning cannot reconcile.
	ErrTypeMismatch = errors.NewKind("relplan: type mismatch in %q")

	// ErrNotAuthorized is raised when a plan references a table the
	// session's grants do not permit for the required permission.
	ErrNotAuthorized = errors.NewKind("relplan: not authorized: %s on %s")

	// ErrAmbiguousUpdatePartition flags the open case where an UPDATE on
	// a merge table touches a partitioning column: it cannot be routed
	// to a single partition and must be decomposed into DELETE+INSERT
	// by a higher layer.
	ErrAmbiguousUpdatePartition = errors.NewKind("relplan: update modifies partitioning column %q; requires delete+insert decomposition")
)
