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
	"math"
	"slices"
	"sort"
)

const pendingCompactThreshold = 1024

// pendingQueue buffers delivered intervals of one side whose start event has
// not been consumed, ordered by start.
type pendingQueue struct {
	rows []*intervalRow
	head int
}

func (q *pendingQueue) len() int {
	return len(q.rows) - q.head
}

func (q *pendingQueue) peek() *intervalRow {
	if q.head >= len(q.rows) {
		return nil
	}
	return q.rows[q.head]
}

func (q *pendingQueue) pop() *intervalRow {
	r := q.rows[q.head]
	q.rows[q.head] = nil
	q.head++
	if q.head == len(q.rows) {
		q.rows = q.rows[:0]
		q.head = 0
	} else if q.head >= pendingCompactThreshold && q.head*2 >= len(q.rows) {
		n := copy(q.rows, q.rows[q.head:])
		clear(q.rows[n:])
		q.rows = q.rows[:n]
		q.head = 0
	}
	return r
}

// push keeps the queue sorted by start; rows with equal starts keep arrival order.
func (q *pendingQueue) push(r *intervalRow) {
	n := len(q.rows)
	if n == q.head || q.rows[n-1].start <= r.start {
		q.rows = append(q.rows, r)
		return
	}
	live := q.rows[q.head:]
	idx := sort.Search(len(live), func(i int) bool {
		return live[i].start > r.start
	})
	q.rows = slices.Insert(q.rows, q.head+idx, r)
}

func (q *pendingQueue) reset() {
	clear(q.rows)
	q.rows = q.rows[:0]
	q.head = 0
}

// SweepState is the mutable state of one forward sweep. It is owned by a
// single task and never shared.
type SweepState struct {
	active  [2]*ActiveSet
	pending [2]*pendingQueue

	// watermark is the largest start delivered per side.
	watermark [2]int64
	delivered [2]bool
	exhausted [2]bool

	sweepPoint int64
	swept      bool
	seq        uint64
	tolerance  int64
}

func NewSweepState(tolerance int64) *SweepState {
	return &SweepState{
		active:    [2]*ActiveSet{NewActiveSet(), NewActiveSet()},
		pending:   [2]*pendingQueue{{}, {}},
		tolerance: tolerance,
	}
}

func (st *SweepState) SweepPoint() (int64, bool) {
	return st.sweepPoint, st.swept
}

func (st *SweepState) Exhausted(side JoinSide) bool {
	return st.exhausted[side]
}

func (st *SweepState) ActiveLen(side JoinSide) int {
	return st.active[side].Len()
}

func (st *SweepState) PendingLen(side JoinSide) int {
	return st.pending[side].len()
}

func (st *SweepState) push(side JoinSide, start, end int64, row []byte) {
	st.seq++
	st.pending[side].push(&intervalRow{
		start: start,
		end:   end,
		seq:   st.seq,
		side:  side,
		row:   row,
	})
	if !st.delivered[side] || start > st.watermark[side] {
		st.watermark[side] = start
	}
	st.delivered[side] = true
}

func (st *SweepState) exhaust(side JoinSide) {
	st.exhausted[side] = true
}

func (st *SweepState) advanceTo(v int64) {
	if !st.swept || v > st.sweepPoint {
		st.sweepPoint = v
	}
	st.swept = true
}

// lowerBound is the smallest start side may still deliver.
func (st *SweepState) lowerBound(side JoinSide) int64 {
	return saturatingSub(st.watermark[side], st.tolerance)
}

// next returns the smallest buffered event without consuming it.
func (st *SweepState) next() (EndpointItem, bool) {
	var best EndpointItem
	found := false
	consider := func(item EndpointItem) {
		if !found || CompareEndpoints(item, best) < 0 {
			best, found = item, true
		}
	}
	for _, side := range [...]JoinSide{LeftSide, RightSide} {
		if r := st.pending[side].peek(); r != nil {
			consider(startItem(r))
		}
		if r, ok := st.active[side].first(); ok {
			consider(endItem(r))
		}
	}
	return best, found
}

// safe reports whether no tuple still to be delivered can sort before item.
func (st *SweepState) safe(item EndpointItem) bool {
	for _, side := range [...]JoinSide{LeftSide, RightSide} {
		if st.exhausted[side] {
			continue
		}
		if !st.delivered[side] {
			return false
		}
		bound := st.lowerBound(side)
		if item.Kind == EndpointEnd {
			if item.Value > bound {
				return false
			}
			continue
		}
		if item.Value > bound || (item.Value == bound && item.Side > side) {
			return false
		}
	}
	return true
}

// drained reports that both sides are exhausted and every event was consumed.
func (st *SweepState) drained() bool {
	for _, side := range [...]JoinSide{LeftSide, RightSide} {
		if !st.exhausted[side] || st.pending[side].len() > 0 || !st.active[side].Empty() {
			return false
		}
	}
	return true
}

func (st *SweepState) reset() {
	for _, side := range [...]JoinSide{LeftSide, RightSide} {
		st.active[side].clear()
		st.pending[side].reset()
	}
}

func saturatingSub(v, d int64) int64 {
	if d > 0 && v < math.MinInt64+d {
		return math.MinInt64
	}
	return v - d
}
