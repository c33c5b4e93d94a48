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

package auth

import (
	"encoding/json"
	"io/ioutil"
	"strings"

	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrParseUserFile is given when the grant file is malformed.
	ErrParseUserFile = errors.NewKind("error parsing user file")
	// ErrUnknownPermission happens when a user permission is not defined.
	ErrUnknownPermission = errors.NewKind("unknown permission, %s")
	// ErrDuplicateUser happens when a user appears more than once.
	ErrDuplicateUser = errors.NewKind("duplicate user, %s")
)

// tableGrant names a schema-qualified table a user holds Permissions
// on. A nil Table means the grant applies to every table.
type tableGrant struct {
	Schema      string
	Table       string
	Permissions Permission
}

// nativeUser holds a user's default permissions plus any per-table
// grant overrides.
type nativeUser struct {
	Name            string
	JSONPermissions []string `json:"permissions"`
	Permissions     Permission
	Grants          []jsonGrant `json:"grants"`
}

type jsonGrant struct {
	Schema      string   `json:"schema"`
	Table       string   `json:"table"`
	Permissions []string `json:"permissions"`
}

// GrantTable is a Checker backed by a fixed set of users, each with a
// default permission set and optional per-table overrides, typically
// loaded once from a JSON file at startup.
type GrantTable struct {
	users map[string]nativeUser
}

// NewGrantTableSingle creates a GrantTable with a single user holding
// perm on every table.
func NewGrantTableSingle(name string, perm Permission) *GrantTable {
	return &GrantTable{users: map[string]nativeUser{
		name: {Name: name, Permissions: perm},
	}}
}

// NewGrantTableFile loads a GrantTable from a JSON file: a list of
// {"name", "permissions", "grants": [{"schema","table","permissions"}]}
// objects.
func NewGrantTableFile(file string) (*GrantTable, error) {
	raw, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, ErrParseUserFile.New(err)
	}

	var data []nativeUser
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ErrParseUserFile.New(err)
	}

	users := make(map[string]nativeUser, len(data))
	for _, u := range data {
		if _, ok := users[u.Name]; ok {
			return nil, ErrParseUserFile.Wrap(ErrDuplicateUser.New(u.Name))
		}

		if len(u.JSONPermissions) == 0 {
			u.Permissions = DefaultPermissions
		}
		for _, p := range u.JSONPermissions {
			perm, ok := PermissionNames[strings.ToLower(p)]
			if !ok {
				return nil, ErrParseUserFile.Wrap(ErrUnknownPermission.New(p))
			}
			u.Permissions |= perm
		}

		users[u.Name] = u
	}

	return &GrantTable{users: users}, nil
}

func (u nativeUser) grantFor(schema, table string) (Permission, bool) {
	for _, g := range u.Grants {
		if g.Schema == schema && g.Table == table {
			var perm Permission
			for _, p := range g.Permissions {
				perm |= PermissionNames[strings.ToLower(p)]
			}
			return perm, true
		}
	}
	return 0, false
}

// Allowed implements Checker: a per-table grant, if present, overrides
// the user's default permission set entirely.
func (g *GrantTable) Allowed(userID string, permission Permission, schema, table string) error {
	u, ok := g.users[userID]
	if !ok {
		return ErrNotAuthorized.Wrap(ErrNoPermission.New(permission))
	}

	perms := u.Permissions
	if override, ok := u.grantFor(schema, table); ok {
		perms = override
	}
	if perms&permission != permission {
		return ErrNotAuthorized.Wrap(ErrNoPermission.New(permission &^ perms))
	}
	return nil
}
