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

package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAdmissionRefusalScenario reproduces an end-to-end admission
// scenario: 1MB threshold, two 800KB claims.
func TestAdmissionRefusalScenario(t *testing.T) {
	require := require.New(t)

	pool := NewAdmissionPool(1 << 20) // 1MB

	ok := pool.Claim(800*1024, 0)
	require.True(ok)

	ok = pool.Claim(800*1024, 0)
	require.False(ok, "second claim should be refused: only ~224KB left")

	pool.Release(800*1024, 0)

	ok = pool.Claim(800*1024, 0)
	require.True(ok, "after release, retry should succeed")

	remaining, claims := pool.Outstanding()
	require.Equal(int64(1<<20-800*1024), remaining)
	require.Equal(int64(1), claims)
}

func TestAdmissionZeroClaimAlwaysAdmitted(t *testing.T) {
	pool := NewAdmissionPool(0)
	require.True(t, pool.Claim(0, 0))
}

func TestErrorSlotFirstWins(t *testing.T) {
	require := require.New(t)
	var slot ErrorSlot

	err1 := ErrMemoryExhausted.New(1, 2)
	err2 := ErrMemoryExhausted.New(3, 4)

	require.True(slot.Set(err1))
	require.False(slot.Set(err2))
	require.Equal(err1, slot.Get())
}
