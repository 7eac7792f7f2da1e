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

package models

import (
	"strings"
	"time"
)

// InboundEmail is a fully fetched message from the mailbox gateway.
type InboundEmail struct {
	// MessageID is the gateway's opaque identifier (IMAP UID as a string).
	MessageID   string
	FromAddress string
	FromName    string
	Subject     string
	TextBody    string
	HTMLBody    string
	Date        time.Time
}

// MatchableEmail is the normalized view both rule engines and the client
// resolver operate on. It is constructed either from a live InboundEmail or
// projected from a persisted Lead — neither engine ever depends on raw IMAP
// messages or lead rows directly.
type MatchableEmail struct {
	Subject     string
	FromAddress string
	Body        string
}

// Matchable returns the rule-engine view of the message. The body is the
// text part with the HTML part appended, so rules see content regardless of
// which part the sender filled in.
func (e *InboundEmail) Matchable() MatchableEmail {
	body := e.TextBody
	if e.HTMLBody != "" {
		if body != "" {
			body += "\n"
		}
		body += e.HTMLBody
	}
	return MatchableEmail{
		Subject:     e.Subject,
		FromAddress: e.FromAddress,
		Body:        body,
	}
}

// FromDomain returns the lower-cased domain part of the sender address, or
// "" when the address has no @.
func (m MatchableEmail) FromDomain() string {
	at := strings.LastIndex(m.FromAddress, "@")
	if at < 0 || at == len(m.FromAddress)-1 {
		return ""
	}
	return strings.ToLower(m.FromAddress[at+1:])
}
