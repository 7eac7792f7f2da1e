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
	"testing"
	"unicode/utf8"

	"github.com/leadgate/pipeline/internal/models"
)

// TestExtractMessage_PlainText verifies the simple path.
func TestExtractMessage_PlainText(t *testing.T) {
	email := &models.InboundEmail{
		Subject:  "New Contact Form Submission",
		TextBody: "I would like a viewing.",
	}
	if got := ExtractMessage(email); got != "I would like a viewing." {
		t.Errorf("ExtractMessage = %q", got)
	}
}

// TestExtractMessage_SubjectPrepended verifies an informative subject is
// kept, while contact-form boilerplate is not.
func TestExtractMessage_SubjectPrepended(t *testing.T) {
	email := &models.InboundEmail{
		Subject:  "Question about 42 Oak Ave",
		TextBody: "Is it still available?",
	}
	got := ExtractMessage(email)
	if !strings.HasPrefix(got, "Subject: Question about 42 Oak Ave\n\n") {
		t.Errorf("informative subject should be prepended, got %q", got)
	}

	email.Subject = "Website Inquiry"
	got = ExtractMessage(email)
	if strings.Contains(got, "Subject:") {
		t.Errorf("boilerplate subject should not be prepended, got %q", got)
	}
}

// TestExtractMessage_HTMLConverted verifies the HTML part is converted and
// appended after the text part.
func TestExtractMessage_HTMLConverted(t *testing.T) {
	email := &models.InboundEmail{
		Subject:  "Website Inquiry",
		TextBody: "Plain part.",
		HTMLBody: "<p>HTML part with a <b>listing</b>.</p>",
	}
	got := ExtractMessage(email)
	if !strings.Contains(got, "Plain part.") {
		t.Errorf("text part missing: %q", got)
	}
	if !strings.Contains(got, "HTML part with a") {
		t.Errorf("converted HTML part missing: %q", got)
	}
	if strings.Contains(got, "<p>") || strings.Contains(got, "<b>") {
		t.Errorf("tags leaked into message: %q", got)
	}
}

// TestExtractMessage_BreakNormalization verifies <br> variants become
// newlines in the plain-text part.
func TestExtractMessage_BreakNormalization(t *testing.T) {
	email := &models.InboundEmail{
		Subject:  "Website Inquiry",
		TextBody: "line one<br>line two<br/>line three",
	}
	got := ExtractMessage(email)
	if !strings.Contains(got, "line one\nline two\nline three") {
		t.Errorf("breaks not normalized: %q", got)
	}
}

// TestExtractMessage_Truncation verifies the 5000-character cap counts
// runes, not bytes.
func TestExtractMessage_Truncation(t *testing.T) {
	email := &models.InboundEmail{
		Subject:  "Website Inquiry",
		TextBody: strings.Repeat("é", 6000),
	}
	got := ExtractMessage(email)
	if n := utf8.RuneCountInString(got); n != 5001 { // 5000 + ellipsis
		t.Errorf("rune count = %d, want 5001", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("truncated message should end with ellipsis")
	}
}

// TestExtractMessage_Empty verifies the sentinel for contentless emails.
func TestExtractMessage_Empty(t *testing.T) {
	email := &models.InboundEmail{Subject: "Website Inquiry"}
	if got := ExtractMessage(email); got != NoMessageContent {
		t.Errorf("ExtractMessage = %q, want %q", got, NoMessageContent)
	}
}
