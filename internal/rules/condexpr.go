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

import (
	"fmt"
	"regexp"
	"strings"
)

// Expr is a node of a parsed routing condition: an AND over substring
// checks, an OR over substring checks, or a single substring check.
type Expr interface {
	// Eval reports whether the condition holds for the given body text.
	// Matching is case-folded substring containment.
	Eval(body string) bool
}

type leafExpr struct {
	needle string // already lower-cased
}

func (e leafExpr) Eval(body string) bool {
	return strings.Contains(strings.ToLower(body), e.needle)
}

type andExpr struct {
	children []Expr
}

func (e andExpr) Eval(body string) bool {
	for _, c := range e.children {
		if !c.Eval(body) {
			return false
		}
	}
	return true
}

type orExpr struct {
	children []Expr
}

func (e orExpr) Eval(body string) bool {
	for _, c := range e.children {
		if c.Eval(body) {
			return true
		}
	}
	return false
}

var (
	andSplit = regexp.MustCompile(`(?i)\s+and\s+`)
	orSplit  = regexp.MustCompile(`(?i)\s+or\s+`)
)

// ParseCondition parses a routing condition into an expression tree.
// The language is deliberately tiny: `A AND B`, `A OR B`, or a single
// substring. AND and OR are mutually exclusive within one condition; a
// string containing both is split on AND, with any "or" text kept inside
// the resulting substrings. Genuinely mixed expressions are unsupported.
func ParseCondition(s string) (Expr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty condition")
	}

	if parts := splitNonEmpty(andSplit, s); len(parts) > 1 {
		return andExpr{children: leaves(parts)}, nil
	}
	if parts := splitNonEmpty(orSplit, s); len(parts) > 1 {
		return orExpr{children: leaves(parts)}, nil
	}
	return leafExpr{needle: strings.ToLower(s)}, nil
}

func splitNonEmpty(re *regexp.Regexp, s string) []string {
	var out []string
	for _, p := range re.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func leaves(parts []string) []Expr {
	out := make([]Expr, 0, len(parts))
	for _, p := range parts {
		out = append(out, leafExpr{needle: strings.ToLower(p)})
	}
	return out
}
