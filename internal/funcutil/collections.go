// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package funcutil

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Map returns a new slice b such for any i <= len(a), b[i] = f(a[i])
func Map[T any, S any](a []T, f func(T) S) []S {
	b := make([]S, 0, len(a))
	for _, x := range a {
		b = append(b, f(x))
	}
	return b
}

// Filter returns the elements x of a such that f(x), in order
func Filter[T any](a []T, f func(T) bool) []T {
	var b []T
	for _, x := range a {
		if f(x) {
			b = append(b, x)
		}
	}
	return b
}

// SetToOrderedSlice converts a set represented as a map from elements to booleans into a slice.
// Sorts the result in increasing order
func SetToOrderedSlice[T constraints.Ordered](set map[T]bool) []T {
	var s []T
	for r, b := range set {
		if b {
			s = append(s, r)
		}
	}
	slices.Sort(s)
	return s
}

// Reverse reverses the slice in place
func Reverse[T any](a []T) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}
