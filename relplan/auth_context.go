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

import "github.com/MonetDB/MonetDB-sub015/auth"

// privilegeContext is stashed in a visitor's Data slot so passes that
// need to check table privileges (merge-table member expansion) can
// reach the session's grant checker without threading an extra
// parameter through every Pass signature.
type privilegeContext struct {
	Checker auth.Checker
	UserID  string
}

func checkSelectPrivilege(v *visitor, t *TableRef) error {
	pc, ok := v.Data.(*privilegeContext)
	if !ok || pc == nil || pc.Checker == nil {
		return nil
	}
	if err := pc.Checker.Allowed(pc.UserID, auth.ReadPerm, t.Schema, t.Name); err != nil {
		return ErrNotAuthorized.New("SELECT", t.Schema+"."+t.Name)
	}
	return nil
}
