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

import (
	"regexp"
	"strings"
)

var emailToken = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// ExtractEmailAddress returns the first email-looking token embedded in the
// body (contact forms usually restate the visitor's address there), falling
// back to the envelope sender.
func ExtractEmailAddress(body, fromAddress string) string {
	if m := emailToken.FindString(body); m != "" {
		return strings.ToLower(m)
	}
	return strings.ToLower(strings.TrimSpace(fromAddress))
}
