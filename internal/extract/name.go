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

	"github.com/leadgate/pipeline/internal/models"
)

// UnknownSender is the sentinel name used when neither the body nor the
// envelope yields anything name-like.
const UnknownSender = "Unknown Sender"

var nameLine = regexp.MustCompile(`(?im)^[\s>*\-]*name\s*:\s*(.+)$`)

var salutations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "mx": true,
	"dr": true, "prof": true,
}

var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
	"esq": true, "md": true, "phd": true, "dds": true,
}

// ExtractName derives the lead's name: a labeled `Name:` line in the body
// wins, normalized to a single full-name string (falling back to the raw
// captured text when normalization yields nothing); then the envelope
// display name, also normalized; then the UnknownSender sentinel.
func ExtractName(email *models.InboundEmail) string {
	text := PlainText(email.TextBody)
	if text == "" {
		text = PlainText(email.HTMLBody)
	}

	if m := nameLine.FindStringSubmatch(text); m != nil {
		raw := strings.TrimSpace(m[1])
		if name := NormalizeName(raw); name != "" {
			return name
		}
		if raw != "" {
			return raw
		}
	}

	if name := NormalizeName(email.FromName); name != "" {
		return name
	}
	if display := strings.TrimSpace(email.FromName); display != "" {
		return display
	}

	return UnknownSender
}

// NormalizeName reduces a labeled or display name to a single full-name
// string: surrounding quotes dropped, "Last, First" reordered, salutations
// and suffixes stripped, whitespace collapsed. Returns "" when nothing
// name-like remains (e.g. the text is an email address).
func NormalizeName(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	if s == "" || strings.ContainsAny(s, "@<>") {
		return ""
	}

	// "Smith, John" → "John Smith". More than one comma is not a name.
	if parts := strings.Split(s, ","); len(parts) == 2 {
		last, first := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if last != "" && first != "" && !nameSuffixes[foldToken(first)] {
			s = first + " " + last
		} else {
			s = strings.TrimSuffix(last+" "+first, " ")
		}
	} else if len(parts) > 2 {
		return ""
	}

	var tokens []string
	for i, tok := range strings.Fields(s) {
		key := foldToken(tok)
		if i == 0 && salutations[key] {
			continue
		}
		if nameSuffixes[key] {
			continue
		}
		tokens = append(tokens, strings.TrimRight(tok, ","))
	}
	if len(tokens) == 0 {
		return ""
	}
	return strings.Join(tokens, " ")
}

// foldToken lower-cases a token and drops trailing punctuation so "Jr." and
// "jr," both normalize to "jr".
func foldToken(tok string) string {
	return strings.ToLower(strings.TrimRight(tok, ".,"))
}
