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

// Package notify implements the notification fan-out: client-facing lead
// notifications, admin operational alerts, and the SMTP transport both go
// through, with per-recipient failure isolation throughout.
package notify

import (
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
)

// MailSender sends one plain-text email. Implemented by Mailer; faked in
// tests.
type MailSender interface {
	Send(to, subject, body string) error
}

// MailerConfig holds the SMTP transport parameters.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends mail over SMTP with PLAIN auth.
type Mailer struct {
	cfg MailerConfig
}

// NewMailer creates an SMTP mailer.
func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers one message. Errors come back raw so callers can classify
// them with ClassifyError.
func (m *Mailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// ErrorKind buckets a delivery failure for diagnostics.
type ErrorKind string

const (
	// ErrTransport covers network-level failures: refused connections,
	// timeouts, resets.
	ErrTransport ErrorKind = "transport"
	// ErrProtocol covers SMTP replies rejecting the message or recipient.
	ErrProtocol ErrorKind = "protocol"
	// ErrGeneric is everything else.
	ErrGeneric ErrorKind = "generic"
)

// ClassifyError maps a send failure onto an ErrorKind.
func ClassifyError(err error) ErrorKind {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return ErrProtocol
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrTransport
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrTransport
	}
	return ErrGeneric
}
