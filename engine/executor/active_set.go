/*
Copyright 2025 Huawei Cloud Computing Technologies Co., Ltd.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

 http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package executor

import (
	"github.com/emirpasic/gods/trees/redblacktree"
)

// ActiveSet holds the intervals of one side that started and have not ended
// yet, ordered by ascending end.
type ActiveSet struct {
	tree *redblacktree.Tree
}

func compareActive(a, b interface{}) int {
	ra, rb := a.(*intervalRow), b.(*intervalRow)
	switch {
	case ra.end < rb.end:
		return -1
	case ra.end > rb.end:
		return 1
	case ra.seq < rb.seq:
		return -1
	case ra.seq > rb.seq:
		return 1
	}
	return 0
}

func NewActiveSet() *ActiveSet {
	return &ActiveSet{tree: redblacktree.NewWith(compareActive)}
}

func (s *ActiveSet) Len() int {
	return s.tree.Size()
}

func (s *ActiveSet) Empty() bool {
	return s.tree.Empty()
}

func (s *ActiveSet) insert(r *intervalRow) {
	s.tree.Put(r, nil)
}

func (s *ActiveSet) remove(r *intervalRow) {
	s.tree.Remove(r)
}

// first returns the member that ends first.
func (s *ActiveSet) first() (*intervalRow, bool) {
	node := s.tree.Left()
	if node == nil {
		return nil, false
	}
	return node.Key.(*intervalRow), true
}

// scan visits members by ascending end until fn returns false.
func (s *ActiveSet) scan(fn func(r *intervalRow) bool) {
	it := s.tree.Iterator()
	for it.Next() {
		if !fn(it.Key().(*intervalRow)) {
			return
		}
	}
}

// Ends lists the member ends in order; used by snapshots.
func (s *ActiveSet) Ends() []int64 {
	ends := make([]int64, 0, s.tree.Size())
	s.scan(func(r *intervalRow) bool {
		ends = append(ends, r.end)
		return true
	})
	return ends
}

func (s *ActiveSet) clear() {
	s.tree.Clear()
}
