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

package notify

import (
	"errors"
	"testing"
)

// TestEach_FailureIsolation verifies a failing item never blocks the rest.
func TestEach_FailureIsolation(t *testing.T) {
	items := []string{"a", "b", "c"}
	var handled []string

	sent, failures := Each(items, func(s string) error {
		handled = append(handled, s)
		if s == "b" {
			return errors.New("boom")
		}
		return nil
	})

	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
	if len(failures) != 1 || failures[0].Item != "b" {
		t.Fatalf("failures = %+v, want one failure for b", failures)
	}
	if len(handled) != 3 {
		t.Errorf("handled %d items, want all 3", len(handled))
	}
}

// TestEach_PanicContained verifies a panicking item is recorded as a
// failure and the loop continues.
func TestEach_PanicContained(t *testing.T) {
	items := []int{1, 2, 3}

	sent, failures := Each(items, func(n int) error {
		if n == 2 {
			panic("kaboom")
		}
		return nil
	})

	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
	if len(failures) != 1 || failures[0].Item != 2 {
		t.Fatalf("failures = %+v, want one failure for 2", failures)
	}
	if failures[0].Err == nil {
		t.Error("panic should surface as an error")
	}
}

// TestEach_Empty verifies the no-op case.
func TestEach_Empty(t *testing.T) {
	sent, failures := Each(nil, func(s string) error { return nil })
	if sent != 0 || failures != nil {
		t.Errorf("got (%d, %v), want (0, nil)", sent, failures)
	}
}
