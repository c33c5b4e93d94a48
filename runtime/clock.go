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

import "time"

// NowUsec returns the wall-clock time in microseconds since the Unix
// epoch, used for query-timeout comparisons.
func NowUsec() int64 {
	return time.Now().UnixMicro()
}

// Deadline reports whether startUsec plus timeoutUsec (microseconds) has
// elapsed. A zero timeout means "no timeout configured".
func Deadline(startUsec, timeoutUsec int64) bool {
	if timeoutUsec <= 0 {
		return false
	}
	return NowUsec()-startUsec > timeoutUsec
}
