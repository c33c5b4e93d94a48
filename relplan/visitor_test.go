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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalkTopDownVisitsChildrenAfterReplacement(t *testing.T) {
	req := require.New(t)

	leaf := &Node{Kind: NodeBaseTable, Alias: "orig"}
	root := &Node{Kind: NodeSelect, Children: []*Node{leaf}}

	var visited []string
	out, err := walkTopDown(&visitor{}, root, func(v *visitor, n *Node) (*Node, bool) {
		visited = append(visited, n.Kind.String())
		if n.Kind == NodeBaseTable {
			n.Alias = "rewritten"
			return n, true
		}
		return n, false
	})
	req.NoError(err)
	req.Equal([]string{"select", "basetable"}, visited)
	req.Equal("rewritten", out.Children[0].Alias)
}

func TestWalkTopDownPropagatesRewriterError(t *testing.T) {
	req := require.New(t)

	leaf := &Node{Kind: NodeBaseTable}
	root := &Node{Kind: NodeSelect, Children: []*Node{leaf}}

	sentinel := ErrQueryTooComplex.New()
	_, err := walkTopDown(&visitor{}, root, func(v *visitor, n *Node) (*Node, bool) {
		if n.Kind == NodeBaseTable {
			v.Err = sentinel
		}
		return n, false
	})
	req.Error(err)
	req.True(ErrQueryTooComplex.Is(err))
}

func TestWalkTopDownAbortsOnDepth(t *testing.T) {
	req := require.New(t)

	_, err := walkTopDown(&visitor{Depth: maxWalkDepth + 1}, &Node{Kind: NodeBaseTable}, func(v *visitor, n *Node) (*Node, bool) {
		return n, false
	})
	req.Error(err)
	req.True(ErrQueryTooComplex.Is(err))
}

func TestFixpointStopsWhenNoChanges(t *testing.T) {
	req := require.New(t)

	calls := 0
	root := &Node{Kind: NodeBaseTable}
	pass := Pass{Name: "noop", Run: func(v *visitor, root *Node) (*Node, error) {
		calls++
		return root, nil
	}}

	out, err := Fixpoint(nil, root, []Pass{pass})
	req.NoError(err)
	req.Same(root, out)
	req.Equal(1, calls)
}

func TestFixpointLoopsUntilStable(t *testing.T) {
	req := require.New(t)

	remaining := 3
	pass := Pass{Name: "countdown", Run: func(v *visitor, root *Node) (*Node, error) {
		if remaining > 0 {
			remaining--
			v.Changes++
		}
		return root, nil
	}}

	_, err := Fixpoint(nil, &Node{Kind: NodeBaseTable}, []Pass{pass})
	req.NoError(err)
	req.Equal(0, remaining)
}

func TestFixpointPropagatesPassError(t *testing.T) {
	req := require.New(t)

	sentinel := ErrUnresolvedName.New("x")
	pass := Pass{Name: "fails", Run: func(v *visitor, root *Node) (*Node, error) {
		return nil, sentinel
	}}

	_, err := Fixpoint(nil, &Node{Kind: NodeBaseTable}, []Pass{pass})
	req.Error(err)
	req.True(ErrUnresolvedName.Is(err))
}
