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

package mailbox

import "github.com/emersion/go-sasl"

// xoauth2Client implements the XOAUTH2 SASL mechanism used by Gmail and
// Microsoft 365 for IMAP bearer-token authentication.
type xoauth2Client struct {
	username string
	token    string
}

var _ sasl.Client = (*xoauth2Client)(nil)

func newXOAuth2Client(username, token string) sasl.Client {
	return &xoauth2Client{username: username, token: token}
}

func (c *xoauth2Client) Start() (string, []byte, error) {
	resp := []byte("user=" + c.username + "\x01auth=Bearer " + c.token + "\x01\x01")
	return "XOAUTH2", resp, nil
}

// Next handles the error challenge the server sends on rejection: the
// client must answer with an empty response to receive the tagged NO.
func (c *xoauth2Client) Next(_ []byte) ([]byte, error) {
	return []byte{}, nil
}
