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
	"github.com/MonetDB/MonetDB-sub015/auth"
	"github.com/MonetDB/MonetDB-sub015/session"
)

// Passes is the full ordered pipeline run by Optimize. Property
// collection runs first so every later pass can cheaply skip work by
// checking root.Props, and DCE runs after the rewrite passes that can
// introduce dead projections but before merge-table expansion, since
// expansion can multiply a projection across member tables.
var Passes = []Pass{
	PropertyPass,
	CSEProjections,
	MergeNestedProjections,
	PushProjectDown,
	PushProjectUp,
	PushSelectDown,
	PushSelectUp,
	MergeOrChainsToIn,
	RangeMerge,
	SimplifyPredicates,
	LikeSelectSimplify,
	AnnotateJoinIdx,
	ReorderJoins,
	SemiJoinRewrites,
	OuterToInnerDemotion,
	GroupByPushdownOverJoin,
	DistinctAggregateRewrite,
	DistinctElimination,
	CountStarBasetableShortcut,
	MultiCountStarReuse,
	AggregatePushdownOverUnionAll,
	TopNPushdown,
	DCE,
	ExpandMergeTables,
}

// Optimize rewrites root to a fixpoint using the full pass pipeline,
// checking SELECT privilege for userID on every member table a merge
// table is expanded into. checker may be nil, in which case no
// privilege checks are performed.
func Optimize(sess *session.Session, checker auth.Checker, userID string, root *Node) (*Node, error) {
	pc := &privilegeContext{Checker: checker, UserID: userID}
	return fixpointWithData(sess, root, Passes, pc)
}
