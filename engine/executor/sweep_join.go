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
	"context"
	"math"

	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/interval"
)

// cancelCheckInterval is how many events are consumed between two checks of
// the context and the cancel flag.
const cancelCheckInterval = 64

// PartitionRange is the slice of the start domain owned by one join partition.
// Lo is inclusive, Hi exclusive unless Last is set.
type PartitionRange struct {
	Lo   int64
	Hi   int64
	Last bool
}

// FullRange owns every start value.
func FullRange() PartitionRange {
	return PartitionRange{Lo: math.MinInt64, Hi: math.MaxInt64, Last: true}
}

// Admits reports whether a tuple starting at v may be delivered to the partition.
func (r PartitionRange) Admits(v int64) bool {
	return r.Last || v < r.Hi
}

// Owns reports whether the partition emits the pairs of a probe starting at v.
func (r PartitionRange) Owns(v int64) bool {
	return v >= r.Lo && r.Admits(v)
}

type sweepStats struct {
	startEvents uint64
	endEvents   uint64
	tests       uint64
	pairs       uint64
	discarded   uint64
}

func (s *sweepStats) add(o sweepStats) {
	s.startEvents += o.startEvents
	s.endEvents += o.endEvents
	s.tests += o.tests
	s.pairs += o.pairs
	s.discarded += o.discarded
}

func (s *sweepStats) events() uint64 {
	return s.startEvents + s.endEvents
}

// ForwardSweepJoiner runs the sweep over a SweepState. It keeps no per-task
// data and can be shared by every task of a partition.
type ForwardSweepJoiner struct {
	comparator *AllenComparator
	stopper    ScanStopper
	offset     int
	tolerance  int64
	partition  PartitionRange
}

func NewForwardSweepJoiner(comparator *AllenComparator, offset int, tolerance int64, partition PartitionRange) *ForwardSweepJoiner {
	j := &ForwardSweepJoiner{
		comparator: comparator,
		offset:     offset,
		tolerance:  tolerance,
		partition:  partition,
	}
	j.stopper, _ = comparator.Relation().(ScanStopper)
	return j
}

func (j *ForwardSweepJoiner) Partition() PartitionRange {
	return j.partition
}

func (j *ForwardSweepJoiner) Tolerance() int64 {
	return j.tolerance
}

// deliver validates the chunk and buffers its tuples. point names the side
// that advanced the sweep last and is only used in error messages.
func (j *ForwardSweepJoiner) deliver(st *SweepState, side JoinSide, chunk *TupleChunk, point JoinSide) error {
	for i := 0; i < chunk.NumberOfRows(); i++ {
		row := chunk.Row(i)
		if err := interval.Validate(row, j.offset); err != nil {
			return err
		}
		start, end := interval.Start(row, j.offset), interval.End(row, j.offset)
		if !j.partition.Admits(start) {
			return errno.NewError(errno.TupleOutsidePartition, side, start, j.partition.Lo, j.partition.Hi)
		}
		if st.delivered[side] && start < st.lowerBound(side) {
			return errno.NewError(errno.IntervalOrderViolation, side, start, st.watermark[side], st.sweepPoint, point)
		}
		if st.swept && start < saturatingSub(st.sweepPoint, j.tolerance) {
			return errno.NewError(errno.IntervalOrderViolation, side, start, st.sweepPoint, st.sweepPoint, point)
		}
		st.push(side, start, end, row)
	}
	return nil
}

// advance consumes every safe event and appends the resulting pairs to out.
// It returns the side of the last consumed event.
func (j *ForwardSweepJoiner) advance(ctx context.Context, st *SweepState, canceled func() bool,
	out []JoinPair, stats *sweepStats) ([]JoinPair, JoinSide, bool, error) {
	var point JoinSide
	moved := false
	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 && (canceled() || ctx.Err() != nil) {
			return out, point, moved, errCanceled
		}
		item, ok := st.next()
		if !ok || !st.safe(item) {
			return out, point, moved, nil
		}
		out = j.consume(st, item, out, stats)
		point, moved = item.Side, true
	}
}

func (j *ForwardSweepJoiner) consume(st *SweepState, item EndpointItem, out []JoinPair, stats *sweepStats) []JoinPair {
	side := item.Side
	if item.Kind == EndpointEnd {
		st.active[side].remove(item.owner)
		stats.endEvents++
		st.advanceTo(item.Value)
		return out
	}

	r := st.pending[side].pop()
	stats.startEvents++
	other := side.Other()
	if !st.active[other].Empty() && j.partition.Owns(r.start) {
		out = j.probe(st.active[other], r, out, stats)
	}
	if st.exhausted[other] && st.pending[other].len() == 0 {
		// nothing from the other side will probe r any more
		stats.discarded++
	} else {
		st.active[side].insert(r)
	}
	st.advanceTo(item.Value)
	return out
}

// probe tests r against the active intervals of the other side, which all
// started no later than r.
func (j *ForwardSweepJoiner) probe(active *ActiveSet, r *intervalRow, out []JoinPair, stats *sweepStats) []JoinPair {
	active.scan(func(a *intervalRow) bool {
		if j.stopper != nil && j.stopper.StopScan(a.end, r.start, r.end) {
			return false
		}
		stats.tests++
		if j.comparator.Relate(a.row, j.offset, r.row, j.offset) != OutcomeHolds {
			return true
		}
		stats.pairs++
		if r.side == RightSide {
			out = append(out, JoinPair{Left: a.row, Right: r.row})
		} else {
			out = append(out, JoinPair{Left: r.row, Right: a.row})
		}
		return true
	})
	return out
}
