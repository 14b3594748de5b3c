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
	"encoding/binary"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/openGemini/intervaljoin/lib/errno"
	"go.uber.org/zap"
)

const registryShardNum = 16

type registryShard struct {
	mu     sync.Mutex
	states map[TaskID]*IntervalJoinTaskState
}

// TaskStateRegistry owns the state of every live join task, keyed by
// (job, task). Finished ids are remembered for a while so that late chunks
// are reported instead of silently opening a new task.
type TaskStateRegistry struct {
	shards   [registryShardNum]registryShard
	finished *expirable.LRU[TaskID, TaskSummary]
	newState func(id TaskID) *IntervalJoinTaskState
}

func NewTaskStateRegistry(newState func(id TaskID) *IntervalJoinTaskState, finishedSize int, finishedTTL time.Duration) *TaskStateRegistry {
	r := &TaskStateRegistry{
		finished: expirable.NewLRU[TaskID, TaskSummary](finishedSize, nil, finishedTTL),
		newState: newState,
	}
	for i := range r.shards {
		r.shards[i].states = make(map[TaskID]*IntervalJoinTaskState)
	}
	return r
}

func (r *TaskStateRegistry) shard(id TaskID) *registryShard {
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], id.JobID)
	binary.BigEndian.PutUint32(buf[8:], id.TaskID)
	return &r.shards[xxhash.Sum64(buf[:])%registryShardNum]
}

func (r *TaskStateRegistry) acquire(id TaskID, first bool) (*IntervalJoinTaskState, error) {
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if ts, ok := sh.states[id]; ok {
		if first {
			return nil, errno.NewError(errno.TaskStateExists, id.JobID, id.TaskID)
		}
		return ts, nil
	}
	if !first {
		if sum, ok := r.finished.Get(id); ok {
			if sum.Canceled {
				return nil, errno.NewError(errno.TaskCanceled, id.JobID, id.TaskID)
			}
			return nil, errno.NewError(errno.TaskStateFinished, id.JobID, id.TaskID)
		}
		return nil, errno.NewError(errno.TaskStateNotFound, id.JobID, id.TaskID)
	}

	// a re-executed task starts over
	r.finished.Remove(id)
	ts := r.newState(id)
	sh.states[id] = ts
	joinMetrics.ActiveTasks.Inc()
	return ts, nil
}

// Deliver hands one chunk of side to the task. first marks the first chunk
// the task receives on any side and creates its state.
func (r *TaskStateRegistry) Deliver(ctx context.Context, id TaskID, side JoinSide, chunk *TupleChunk, first bool, emit PairEmitter) error {
	ts, err := r.acquire(id, first)
	if err != nil {
		return err
	}
	err = ts.Consume(ctx, side, chunk, emit)
	r.settle(id, ts, err)
	return err
}

// Exhaust tells the task that side has no more chunks.
func (r *TaskStateRegistry) Exhaust(ctx context.Context, id TaskID, side JoinSide, first bool, emit PairEmitter) error {
	ts, err := r.acquire(id, first)
	if err != nil {
		return err
	}
	err = ts.Exhaust(ctx, side, emit)
	r.settle(id, ts, err)
	return err
}

// Cancel discards the task state. It reports whether the task was live.
func (r *TaskStateRegistry) Cancel(id TaskID) bool {
	sh := r.shard(id)
	sh.mu.Lock()
	ts, ok := sh.states[id]
	sh.mu.Unlock()
	if !ok {
		return false
	}
	ts.Cancel()
	r.release(id, ts)
	return true
}

// CancelJob cancels every live task of job and returns how many were canceled.
func (r *TaskStateRegistry) CancelJob(jobID uint64) int {
	var ids []TaskID
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		for id := range sh.states {
			if id.JobID == jobID {
				ids = append(ids, id)
			}
		}
		sh.mu.Unlock()
	}
	n := 0
	for _, id := range ids {
		if r.Cancel(id) {
			n++
		}
	}
	return n
}

func (r *TaskStateRegistry) Lookup(id TaskID) (*IntervalJoinTaskState, bool) {
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	ts, ok := sh.states[id]
	return ts, ok
}

// Finished returns the summary of a recently finished or canceled task.
func (r *TaskStateRegistry) Finished(id TaskID) (TaskSummary, bool) {
	return r.finished.Peek(id)
}

// Len returns the number of live tasks.
func (r *TaskStateRegistry) Len() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		n += len(sh.states)
		sh.mu.Unlock()
	}
	return n
}

func (r *TaskStateRegistry) settle(id TaskID, ts *IntervalJoinTaskState, err error) {
	if err != nil {
		ts.abort(err)
		r.release(id, ts)
		return
	}
	if ts.Phase() == PhaseDone {
		r.release(id, ts)
	}
}

func (r *TaskStateRegistry) release(id TaskID, ts *IntervalJoinTaskState) {
	sh := r.shard(id)
	sh.mu.Lock()
	cur, ok := sh.states[id]
	if ok && cur == ts {
		delete(sh.states, id)
	}
	sh.mu.Unlock()
	if !ok || cur != ts {
		return
	}

	joinMetrics.ActiveTasks.Dec()
	sum := ts.Summary()
	r.finished.Add(id, sum)
	ts.log.Debug("join state released", zap.Bool("canceled", sum.Canceled))
}
