// Copyright (c) 2026 John Earle
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

package extract

import "strings"

// automatedTokens marks machine senders whose mail never becomes a lead.
var automatedTokens = []string{
	"noreply",
	"no-reply",
	"donotreply",
	"mailer-daemon",
	"postmaster",
	"bounces",
	"notifications",
}

// IsAutomatedSender reports whether the sender address or subject carries
// any automated-sender marker. Such messages are skipped silently, not
// treated as errors.
func IsAutomatedSender(fromAddress, subject string) bool {
	addr := strings.ToLower(fromAddress)
	subj := strings.ToLower(subject)
	for _, tok := range automatedTokens {
		if strings.Contains(addr, tok) || strings.Contains(subj, tok) {
			return true
		}
	}
	return false
}
