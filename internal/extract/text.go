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

// Package extract derives structured lead fields — name, phone, email
// address, message text — from raw (possibly HTML or quoted-printable)
// email content using labeled-field scanning and heuristics.
package extract

import (
	"io"
	"mime/quotedprintable"
	"regexp"
	"strings"
)

var (
	qpHint     = regexp.MustCompile(`=[0-9A-Fa-f]{2}|=\r?\n`)
	brPattern  = regexp.MustCompile(`(?i)<br\s*/?\s*>`)
	tagPattern = regexp.MustCompile(`<[^>]*>`)
	urlToken   = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// decodeQuotedPrintable decodes quoted-printable text when the content
// looks encoded; plain text passes through untouched so stray '=' signs in
// real content are not mangled.
func decodeQuotedPrintable(s string) string {
	if !qpHint.MatchString(s) {
		return s
	}
	decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(s)))
	if err != nil {
		return s
	}
	return string(decoded)
}

// normalizeBreaks converts every <br> variant to a newline.
func normalizeBreaks(s string) string {
	return brPattern.ReplaceAllString(s, "\n")
}

// stripTags removes any remaining HTML tags.
func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// PlainText reduces raw email content to scannable text: quoted-printable
// decoded, <br> variants as newlines, tags stripped.
func PlainText(s string) string {
	s = decodeQuotedPrintable(s)
	s = normalizeBreaks(s)
	s = stripTags(s)
	return strings.TrimSpace(s)
}

// stripURLs removes http(s) URLs, used to keep tracking-parameter digits
// out of phone extraction.
func stripURLs(s string) string {
	return urlToken.ReplaceAllString(s, " ")
}
