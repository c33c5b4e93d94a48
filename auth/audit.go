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
	"github.com/sirupsen/logrus"
)

// AuditMethod is called to log the audit trail of authorization
// decisions.
type AuditMethod interface {
	// Authorization logs an authorization event.
	Authorization(userID string, p Permission, schema, table string, err error)
}

// NewAudit wraps a Checker so every Allowed call is also sent to
// method.
func NewAudit(checker Checker, method AuditMethod) Checker {
	return &Audit{checker: checker, method: method}
}

// Audit is a Checker proxy that sends audit trails to an AuditMethod.
type Audit struct {
	checker Checker
	method  AuditMethod
}

// Allowed implements Checker.
func (a *Audit) Allowed(userID string, permission Permission, schema, table string) error {
	err := a.checker.Allowed(userID, permission, schema, table)
	a.method.Authorization(userID, permission, schema, table, err)
	return err
}

// NewAuditLog creates a new AuditMethod that logs to a logrus.Logger.
func NewAuditLog(l *logrus.Logger) AuditMethod {
	return &AuditLog{log: l.WithField("system", "audit")}
}

const auditLogMessage = "audit trail"

// AuditLog logs audit trails to a logrus.Logger.
type AuditLog struct {
	log *logrus.Entry
}

// Authorization implements AuditMethod.
func (a *AuditLog) Authorization(userID string, p Permission, schema, table string, err error) {
	fields := logrus.Fields{
		"action":     "authorization",
		"user":       userID,
		"schema":     schema,
		"table":      table,
		"permission": p.String(),
		"success":    err == nil,
	}
	if err != nil {
		fields["err"] = err
	}
	a.log.WithFields(fields).Info(auditLogMessage)
}
