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

package rules

import "testing"

// TestParseCondition_Leaf verifies single-substring conditions.
func TestParseCondition_Leaf(t *testing.T) {
	expr, err := ParseCondition("new listing")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if !expr.Eval("Subject: NEW LISTING on Oak Ave") {
		t.Error("expected case-insensitive substring hit")
	}
	if expr.Eval("nothing relevant here") {
		t.Error("expected miss")
	}
}

// TestParseCondition_And verifies every conjunct must be present.
func TestParseCondition_And(t *testing.T) {
	expr, err := ParseCondition("zillow AND premier agent")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if !expr.Eval("Zillow Premier Agent inquiry") {
		t.Error("expected match when both conjuncts present")
	}
	if expr.Eval("Zillow inquiry") {
		t.Error("expected miss when one conjunct absent")
	}
}

// TestParseCondition_Or verifies any disjunct suffices.
func TestParseCondition_Or(t *testing.T) {
	expr, err := ParseCondition("zillow or realtor.com")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if !expr.Eval("via realtor.com listing") {
		t.Error("expected match on second disjunct")
	}
	if !expr.Eval("via Zillow listing") {
		t.Error("expected match on first disjunct")
	}
	if expr.Eval("via Trulia listing") {
		t.Error("expected miss")
	}
}

// TestParseCondition_MixedPrefersAnd verifies a condition containing both
// operators splits on AND, keeping "or" text inside the substrings.
func TestParseCondition_MixedPrefersAnd(t *testing.T) {
	expr, err := ParseCondition("foo or bar AND baz")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	// Conjuncts are "foo or bar" (literal) and "baz".
	if !expr.Eval("foo or bar plus baz") {
		t.Error("expected literal 'foo or bar' conjunct to match")
	}
	if expr.Eval("just foo and baz") {
		t.Error("'foo' alone must not satisfy the 'foo or bar' conjunct")
	}
}

// TestParseCondition_OperatorNeedsSpacing verifies operator words embedded
// in other words are not treated as operators.
func TestParseCondition_OperatorNeedsSpacing(t *testing.T) {
	expr, err := ParseCondition("brandon")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if !expr.Eval("from brandon@example.com") {
		t.Error("'brandon' should be a single leaf, not split on embedded 'and'")
	}
}

// TestParseCondition_Empty verifies the empty condition is rejected.
func TestParseCondition_Empty(t *testing.T) {
	if _, err := ParseCondition("   "); err == nil {
		t.Error("expected error for empty condition")
	}
}
