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

package graphutil

import "github.com/awslabs/ar-go-forester/internal/funcutil"

// Ancestors returns the chain of the n closest ancestors of t, following parent until it returns the zero value, in
// order from the farthest ancestor to t. If n < 0, then it returns the chain up to the root.
func Ancestors[T comparable](t T, parent func(T) T, n int) []T {
	var ans []T
	var zero T
	cur := t
	i := 0
	for cur != zero && (i < n || n < 0) {
		ans = append(ans, cur)
		cur = parent(cur)
		i++
	}
	funcutil.Reverse(ans)
	return ans
}
