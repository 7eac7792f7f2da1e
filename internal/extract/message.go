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
	"strings"

	"github.com/jaytaylor/html2text"

	"github.com/leadgate/pipeline/internal/models"
)

// NoMessageContent is stored when an email yields no usable message text.
const NoMessageContent = "No message content provided."

const maxMessageLen = 5000

var inquirySubjectKeywords = []string{
	"contact", "inquiry", "enquiry", "form", "lead", "quote",
}

// ExtractMessage builds the lead's message text: the plain-text part
// (quoted-printable decoded, <br> variants as newlines), the HTML part
// converted to markdown-ish text and appended, remaining tags stripped,
// the subject prepended when it carries information of its own, trimmed and
// truncated to 5000 characters.
func ExtractMessage(email *models.InboundEmail) string {
	text := decodeQuotedPrintable(email.TextBody)
	text = normalizeBreaks(text)

	if strings.TrimSpace(email.HTMLBody) != "" {
		converted, err := html2text.FromString(email.HTMLBody, html2text.Options{TextOnly: false})
		if err == nil && strings.TrimSpace(converted) != "" {
			if strings.TrimSpace(text) != "" {
				text += "\n\n"
			}
			text += converted
		}
	}

	text = strings.TrimSpace(stripTags(text))

	if subject := strings.TrimSpace(email.Subject); subject != "" && !looksLikeInquirySubject(subject) {
		if text != "" {
			text = "Subject: " + subject + "\n\n" + text
		} else {
			text = "Subject: " + subject
		}
	}

	text = truncate(text, maxMessageLen)
	if text == "" {
		return NoMessageContent
	}
	return text
}

// looksLikeInquirySubject reports whether the subject is boilerplate
// contact-form wording that would add nothing to the message.
func looksLikeInquirySubject(subject string) bool {
	s := strings.ToLower(subject)
	for _, kw := range inquirySubjectKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
