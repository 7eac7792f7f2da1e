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

// Package mailbox wraps an IMAP connection as the pipeline's pure I/O
// boundary: list unseen messages, fetch one, mark it seen. No business
// logic lives here.
package mailbox

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"golang.org/x/oauth2"

	"github.com/leadgate/pipeline/internal/models"
)

// Config holds the IMAP connection parameters.
type Config struct {
	Host       string
	Port       int
	Encryption string // "ssl", "starttls", or "none"
	Username   string
	Password   string
	Folder     string
	// TokenSource, when set, switches authentication from password login
	// to XOAUTH2 (required by providers that have disabled basic auth).
	TokenSource oauth2.TokenSource
}

// Gateway is an authenticated IMAP session with a selected folder.
type Gateway struct {
	c      *client.Client
	folder string
}

// Connect dials the IMAP server, authenticates, and selects the configured
// folder. A failure here is fatal for the whole run and must be surfaced to
// the caller, not swallowed.
func Connect(cfg Config) (*Gateway, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	tlsConfig := &tls.Config{ServerName: cfg.Host}

	var (
		c   *client.Client
		err error
	)
	switch strings.ToLower(cfg.Encryption) {
	case "ssl", "tls", "":
		c, err = client.DialTLS(addr, tlsConfig)
	case "starttls":
		c, err = client.Dial(addr)
		if err == nil {
			err = c.StartTLS(tlsConfig)
		}
	case "none":
		c, err = client.Dial(addr)
	default:
		return nil, fmt.Errorf("unknown IMAP encryption %q", cfg.Encryption)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to IMAP server %s: %w", addr, err)
	}

	if cfg.TokenSource != nil {
		token, terr := cfg.TokenSource.Token()
		if terr != nil {
			_ = c.Logout()
			return nil, fmt.Errorf("obtain IMAP OAuth token: %w", terr)
		}
		if aerr := c.Authenticate(newXOAuth2Client(cfg.Username, token.AccessToken)); aerr != nil {
			_ = c.Logout()
			return nil, fmt.Errorf("XOAUTH2 authentication failed: %w", aerr)
		}
	} else {
		if lerr := c.Login(cfg.Username, cfg.Password); lerr != nil {
			_ = c.Logout()
			return nil, fmt.Errorf("IMAP login failed: %w", lerr)
		}
	}

	folder := cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := c.Select(folder, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("select folder %q: %w", folder, err)
	}

	slog.Info("IMAP session established", "host", cfg.Host, "folder", folder)
	return &Gateway{c: c, folder: folder}, nil
}

// ListUnseen returns the UIDs of all unseen messages in the selected
// folder. One-shot per invocation; the set is finite.
func (g *Gateway) ListUnseen() ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := g.c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	return uids, nil
}

// Fetch retrieves one message and parses it into the pipeline's normalized
// shape. Fetch failures are recoverable: the caller skips the message and
// continues with the rest of the batch.
func (g *Gateway) Fetch(uid uint32) (*models.InboundEmail, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- g.c.UidFetch(seqset, items, messages)
	}()

	msg := <-messages
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch uid %d: %w", uid, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("fetch uid %d: no message returned", uid)
	}

	email := &models.InboundEmail{
		MessageID: strconv.FormatUint(uint64(uid), 10),
		Date:      msg.InternalDate,
	}
	if env := msg.Envelope; env != nil {
		email.Subject = env.Subject
		if !env.Date.IsZero() {
			email.Date = env.Date
		}
		if len(env.From) > 0 {
			email.FromAddress = strings.ToLower(env.From[0].Address())
			email.FromName = env.From[0].PersonalName
		}
	}
	if email.Date.IsZero() {
		email.Date = time.Now().UTC()
	}

	body := msg.GetBody(section)
	if body == nil {
		// Envelope-only message; nothing else to parse.
		return email, nil
	}

	parsed, err := enmime.ReadEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("parse MIME for uid %d: %w", uid, err)
	}
	email.TextBody = parsed.Text
	email.HTMLBody = parsed.HTML
	if email.Subject == "" {
		email.Subject = parsed.GetHeader("Subject")
	}

	return email, nil
}

// MarkSeen sets the \Seen flag so the message is not re-processed on the
// next run. Called after processing, success or failure.
func (g *Gateway) MarkSeen(uid uint32) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := g.c.UidStore(seqset, item, flags, nil); err != nil {
		return fmt.Errorf("mark uid %d seen: %w", uid, err)
	}
	return nil
}

// Close logs out of the IMAP session.
func (g *Gateway) Close() error {
	return g.c.Logout()
}
