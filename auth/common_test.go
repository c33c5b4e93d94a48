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

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MonetDB/MonetDB-sub015/auth"
)

type authorizationTest struct {
	user    string
	schema  string
	table   string
	perm    auth.Permission
	success bool
}

func testAuthorization(t *testing.T, c auth.Checker, tests []authorizationTest) {
	t.Helper()
	for _, c2 := range tests {
		tc := c2
		t.Run(tc.user+"-"+tc.schema+"."+tc.table, func(t *testing.T) {
			req := require.New(t)
			err := c.Allowed(tc.user, tc.perm, tc.schema, tc.table)
			if tc.success {
				req.NoError(err)
			} else {
				req.Error(err)
				req.True(auth.ErrNotAuthorized.Is(err))
			}
		})
	}
}
