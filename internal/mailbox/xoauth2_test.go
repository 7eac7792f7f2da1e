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

import (
	"bytes"
	"testing"
)

// TestXOAuth2Client_Start verifies the initial response wire format.
func TestXOAuth2Client_Start(t *testing.T) {
	c := newXOAuth2Client("user@example.com", "tok123")
	mech, resp, err := c.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if mech != "XOAUTH2" {
		t.Errorf("mechanism = %q", mech)
	}
	want := []byte("user=user@example.com\x01auth=Bearer tok123\x01\x01")
	if !bytes.Equal(resp, want) {
		t.Errorf("initial response = %q, want %q", resp, want)
	}
}

// TestXOAuth2Client_Next verifies the empty reply to an error challenge.
func TestXOAuth2Client_Next(t *testing.T) {
	c := newXOAuth2Client("user@example.com", "tok123")
	resp, err := c.Next([]byte(`{"status":"401"}`))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(resp) != 0 {
		t.Errorf("challenge reply = %q, want empty", resp)
	}
}
