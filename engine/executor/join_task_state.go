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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/logger"
	"go.uber.org/zap"
)

var errCanceled = errors.New("sweep canceled")

// TaskID identifies one task instance of one job.
type TaskID struct {
	JobID  uint64
	TaskID uint32
}

func (id TaskID) String() string {
	return fmt.Sprintf("%d/%d", id.JobID, id.TaskID)
}

type JoinPhase uint8

const (
	PhaseInit JoinPhase = iota
	PhaseSweeping
	PhaseDraining
	PhaseDone
)

func (p JoinPhase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseSweeping:
		return "sweeping"
	case PhaseDraining:
		return "draining"
	default:
		return "done"
	}
}

type TaskSummary struct {
	ID            TaskID
	StartEvents   uint64
	EndEvents     uint64
	RelationTests uint64
	Pairs         uint64
	Discarded     uint64
	Canceled      bool
	Err           error
	Duration      time.Duration
}

// TaskSnapshot is a point-in-time view of a task, taken under its lock.
type TaskSnapshot struct {
	Phase      JoinPhase
	Point      JoinSide
	PointSet   bool
	SweepPoint int64
	Swept      bool
	Active     [2]int
	Pending    [2]int
	Exhausted  [2]bool
}

// IntervalJoinTaskState carries the sweep of one task across invocations.
// Invocations of one task are serialized; different tasks never share state.
type IntervalJoinTaskState struct {
	mu sync.Mutex

	id     TaskID
	joiner *ForwardSweepJoiner
	state  *SweepState
	phase  JoinPhase

	// point is the side whose event advanced the sweep last.
	point    JoinSide
	pointSet bool

	// interrupted is set outside the lock to stop a running invocation.
	interrupted atomic.Bool
	canceled    bool
	stats       sweepStats
	err         error
	begin       time.Time
	cost        time.Duration

	log *logger.Logger
}

func NewIntervalJoinTaskState(id TaskID, joiner *ForwardSweepJoiner) *IntervalJoinTaskState {
	return &IntervalJoinTaskState{
		id:     id,
		joiner: joiner,
		begin:  time.Now(),
		log: logger.NewLogger(errno.ModuleIntervalJoin).With(
			zap.Uint64("job_id", id.JobID), zap.Uint32("task_id", id.TaskID)),
	}
}

func (ts *IntervalJoinTaskState) ID() TaskID {
	return ts.id
}

func (ts *IntervalJoinTaskState) Phase() JoinPhase {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.phase
}

// Consume delivers one chunk of side and emits every pair the sweep can
// now prove. Pairs are emitted once, after the sweep stopped.
func (ts *IntervalJoinTaskState) Consume(ctx context.Context, side JoinSide, chunk *TupleChunk, emit PairEmitter) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := ts.checkOpen(side); err != nil {
		return err
	}
	ts.open()
	if chunk != nil && chunk.NumberOfRows() > 0 {
		if err := ts.joiner.deliver(ts.state, side, chunk, ts.point); err != nil {
			ts.fault(err)
			return err
		}
	}
	return ts.run(ctx, emit)
}

// Exhaust marks side as complete. Once both sides are exhausted the remaining
// events are swept and the state is released.
func (ts *IntervalJoinTaskState) Exhaust(ctx context.Context, side JoinSide, emit PairEmitter) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := ts.checkOpen(side); err != nil {
		return err
	}
	ts.open()
	ts.state.exhaust(side)
	ts.log.Debug("join input exhausted", zap.Stringer("side", side))
	return ts.run(ctx, emit)
}

// Cancel discards the state. A running invocation stops at its next check
// and returns TaskCanceled without emitting.
func (ts *IntervalJoinTaskState) Cancel() {
	ts.interrupted.Store(true)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.phase == PhaseDone {
		return
	}
	ts.discard()
}

func (ts *IntervalJoinTaskState) Summary() TaskSummary {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.summary()
}

func (ts *IntervalJoinTaskState) Snapshot() TaskSnapshot {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	snap := TaskSnapshot{
		Phase:    ts.phase,
		Point:    ts.point,
		PointSet: ts.pointSet,
	}
	if ts.state == nil {
		return snap
	}
	snap.SweepPoint, snap.Swept = ts.state.SweepPoint()
	for _, side := range [...]JoinSide{LeftSide, RightSide} {
		snap.Active[side] = ts.state.ActiveLen(side)
		snap.Pending[side] = ts.state.PendingLen(side)
		snap.Exhausted[side] = ts.state.Exhausted(side)
	}
	return snap
}

func (ts *IntervalJoinTaskState) checkOpen(side JoinSide) error {
	if ts.phase == PhaseDone {
		if ts.canceled {
			return errno.NewError(errno.TaskCanceled, ts.id.JobID, ts.id.TaskID)
		}
		return errno.NewError(errno.TaskStateFinished, ts.id.JobID, ts.id.TaskID)
	}
	if ts.state != nil && ts.state.Exhausted(side) {
		return errno.NewError(errno.SideAlreadyExhausted, side, ts.id.JobID, ts.id.TaskID)
	}
	return nil
}

func (ts *IntervalJoinTaskState) open() {
	if ts.state != nil {
		return
	}
	ts.state = NewSweepState(ts.joiner.Tolerance())
	ts.phase = PhaseSweeping
	ts.log.Debug("join state created", zap.Int64("partition_lo", ts.joiner.Partition().Lo))
}

func (ts *IntervalJoinTaskState) run(ctx context.Context, emit PairEmitter) error {
	var delta sweepStats
	pairs, point, moved, err := ts.joiner.advance(ctx, ts.state, ts.interrupted.Load, nil, &delta)
	if moved {
		ts.point, ts.pointSet = point, true
	}
	if err != nil {
		// the batch is dropped with the state
		delta.pairs = 0
		ts.stats.add(delta)
		observeSweep(delta)
		ts.discard()
		return errno.NewError(errno.TaskCanceled, ts.id.JobID, ts.id.TaskID)
	}

	if len(pairs) > 0 && emit != nil {
		if err := emit(pairs); err != nil {
			// refused pairs are not counted
			delta.pairs = 0
			ts.stats.add(delta)
			observeSweep(delta)
			ts.fault(err)
			return err
		}
	}
	ts.stats.add(delta)
	observeSweep(delta)
	ts.updatePhase()
	return nil
}

func (ts *IntervalJoinTaskState) updatePhase() {
	switch {
	case ts.state.drained():
		ts.finish()
	case ts.state.Exhausted(LeftSide) || ts.state.Exhausted(RightSide):
		if ts.phase != PhaseDraining {
			ts.log.Debug("join task draining", zap.Stringer("point", ts.point))
		}
		ts.phase = PhaseDraining
	default:
		ts.phase = PhaseSweeping
	}
}

func (ts *IntervalJoinTaskState) finish() {
	ts.state = nil
	ts.phase = PhaseDone
	ts.cost = time.Since(ts.begin)
	ts.log.Info("join task finished",
		zap.Uint64("pairs", ts.stats.pairs),
		zap.Uint64("relation_tests", ts.stats.tests),
		zap.Uint64("events", ts.stats.events()),
		zap.Uint64("discarded", ts.stats.discarded),
		zap.Duration("cost", ts.cost))
}

func (ts *IntervalJoinTaskState) discard() {
	ts.drop()
	ts.canceled = true
	ts.log.Warn("join task canceled", zap.Uint64("events", ts.stats.events()))
}

// abort drops the state of a failed task. Unlike Cancel the task is not
// reported as canceled; late chunks see it as finished.
func (ts *IntervalJoinTaskState) abort(err error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.phase == PhaseDone {
		return
	}
	if ts.err == nil {
		ts.err = err
	}
	ts.drop()
}

func (ts *IntervalJoinTaskState) drop() {
	if ts.state != nil {
		ts.state.reset()
		ts.state = nil
	}
	ts.phase = PhaseDone
	ts.cost = time.Since(ts.begin)
}

func (ts *IntervalJoinTaskState) fault(err error) {
	if ts.err == nil {
		ts.err = err
	}
	observeFault(err)
	if !errno.IsFatal(err) {
		ts.log.Warn("join task failed", zap.Error(err))
		return
	}
	ts.log.Error("join task failed", zap.Error(err))
}

func (ts *IntervalJoinTaskState) summary() TaskSummary {
	return TaskSummary{
		ID:            ts.id,
		StartEvents:   ts.stats.startEvents,
		EndEvents:     ts.stats.endEvents,
		RelationTests: ts.stats.tests,
		Pairs:         ts.stats.pairs,
		Discarded:     ts.stats.discarded,
		Canceled:      ts.canceled,
		Err:           ts.err,
		Duration:      ts.cost,
	}
}
