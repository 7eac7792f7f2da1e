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

import "fmt"

// Failure pairs an item with the error produced while processing it.
type Failure[T any] struct {
	Item T
	Err  error
}

// Each applies fn to every item in order, collecting failures. One item's
// error — or panic — never aborts the loop. Returns the success count and
// the failures.
func Each[T any](items []T, fn func(T) error) (int, []Failure[T]) {
	succeeded := 0
	var failures []Failure[T]
	for _, item := range items {
		if err := applyOne(item, fn); err != nil {
			failures = append(failures, Failure[T]{Item: item, Err: err})
			continue
		}
		succeeded++
	}
	return succeeded, failures
}

func applyOne[T any](item T, fn func(T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(item)
}
