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
	"strconv"
	"strings"
	"time"
)

var (
	// Labeled fields capture 7–20 raw characters after the label.
	labeledPhone = regexp.MustCompile(`(?im)(?:phone(?:\s+number)?|mobile|contact|tel)\s*[:\-]\s*([+(]?[0-9][0-9()\-.\s/+]{5,18})`)

	// Generic fallbacks, applied to URL-stripped text only.
	usPhone   = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	intlPhone = regexp.MustCompile(`\+?\d[\d\-.\s().]{5,18}\d`)
)

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// ExtractPhone pulls a phone number out of body text. Labeled fields
// (Phone:, Mobile:, Tel:, …) are tried first; failing that, two generic
// numeric patterns run against URL-stripped text, with candidates that look
// like Unix timestamps rejected. Returns "" when nothing plausible is found.
func ExtractPhone(text string) string {
	for _, m := range labeledPhone.FindAllStringSubmatch(text, -1) {
		if phone, ok := sanitizePhone(m[1]); ok {
			return phone
		}
	}

	// Tracking URLs are full of long digit runs; drop them before the
	// generic patterns get a look.
	stripped := stripURLs(text)

	for _, re := range []*regexp.Regexp{usPhone, intlPhone} {
		for _, cand := range re.FindAllString(stripped, -1) {
			phone, ok := sanitizePhone(cand)
			if !ok {
				continue
			}
			if looksLikeUnixTimestamp(strings.TrimPrefix(phone, "+")) {
				continue
			}
			return phone
		}
	}
	return ""
}

// sanitizePhone strips a raw candidate to digits plus an optional leading
// "+" and accepts 7–15 digits.
func sanitizePhone(raw string) (string, bool) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	phone := b.String()
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", false
	}
	return phone, true
}

// looksLikeUnixTimestamp reports whether a digit run is plausibly an epoch
// second: at least 10 digits whose leading 10 parse to a date between 2005
// and five years from now. Tracking parameters embed these constantly.
func looksLikeUnixTimestamp(digits string) bool {
	if len(digits) < 10 {
		return false
	}
	n, err := strconv.ParseInt(digits[:10], 10, 64)
	if err != nil {
		return false
	}
	t := time.Unix(n, 0)
	return t.After(time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)) &&
		t.Before(time.Now().AddDate(5, 0, 0))
}
