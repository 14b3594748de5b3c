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

package executor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openGemini/intervaljoin/engine/executor"
	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *executor.TaskStateRegistry {
	comparator := executor.NewAllenComparator(executor.Overlaps{})
	joiner := executor.NewForwardSweepJoiner(comparator, 0, 0, executor.FullRange())
	return executor.NewTaskStateRegistry(func(id executor.TaskID) *executor.IntervalJoinTaskState {
		return executor.NewIntervalJoinTaskState(id, joiner)
	}, 16, time.Minute)
}

func TestRegistryFaults(t *testing.T) {
	ctx := context.Background()
	id := executor.TaskID{JobID: 7, TaskID: 3}
	left := chunkOf("l", buildRows([]span{{1, 10}}, 0))
	right := chunkOf("r", buildRows([]span{{5, 20}}, 100))

	convey.Convey("a chunk for an unknown task must be marked first", t, func() {
		reg := newRegistry()
		err := reg.Deliver(ctx, id, executor.LeftSide, left, false, nil)
		convey.So(errno.Equal(err, errno.TaskStateNotFound), convey.ShouldBeTrue)
		convey.So(reg.Len(), convey.ShouldEqual, 0)
	})

	convey.Convey("first on a live task is rejected", t, func() {
		reg := newRegistry()
		convey.So(reg.Deliver(ctx, id, executor.LeftSide, left, true, nil), convey.ShouldBeNil)
		err := reg.Deliver(ctx, id, executor.RightSide, right, true, nil)
		convey.So(errno.Equal(err, errno.TaskStateExists), convey.ShouldBeTrue)
		convey.So(reg.Len(), convey.ShouldEqual, 1)
	})

	convey.Convey("a finished task reports late chunks", t, func() {
		reg := newRegistry()
		rec := &pairRecorder{}
		convey.So(reg.Deliver(ctx, id, executor.LeftSide, left, true, rec.emit), convey.ShouldBeNil)
		convey.So(reg.Deliver(ctx, id, executor.RightSide, right, false, rec.emit), convey.ShouldBeNil)
		convey.So(reg.Exhaust(ctx, id, executor.LeftSide, false, rec.emit), convey.ShouldBeNil)
		convey.So(reg.Exhaust(ctx, id, executor.RightSide, false, rec.emit), convey.ShouldBeNil)
		convey.So(len(rec.pairs), convey.ShouldEqual, 1)
		convey.So(reg.Len(), convey.ShouldEqual, 0)

		sum, ok := reg.Finished(id)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(sum.Pairs, convey.ShouldEqual, 1)
		convey.So(sum.Canceled, convey.ShouldBeFalse)

		err := reg.Deliver(ctx, id, executor.RightSide, right, false, nil)
		convey.So(errno.Equal(err, errno.TaskStateFinished), convey.ShouldBeTrue)

		// a re-executed task starts over
		convey.So(reg.Deliver(ctx, id, executor.LeftSide, left, true, nil), convey.ShouldBeNil)
		_, ok = reg.Finished(id)
		convey.So(ok, convey.ShouldBeFalse)
	})

	convey.Convey("a canceled task reports late chunks", t, func() {
		reg := newRegistry()
		convey.So(reg.Deliver(ctx, id, executor.LeftSide, left, true, nil), convey.ShouldBeNil)
		convey.So(reg.Cancel(id), convey.ShouldBeTrue)
		convey.So(reg.Cancel(id), convey.ShouldBeFalse)

		err := reg.Deliver(ctx, id, executor.RightSide, right, false, nil)
		convey.So(errno.Equal(err, errno.TaskCanceled), convey.ShouldBeTrue)
		sum, ok := reg.Finished(id)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(sum.Canceled, convey.ShouldBeTrue)
	})

	convey.Convey("a fault releases the task", t, func() {
		reg := newRegistry()
		bad := chunkOf("l", buildRows([]span{{5, 6}, {1, 2}}, 0))
		err := reg.Deliver(ctx, id, executor.LeftSide, bad, true, nil)
		convey.So(errno.Equal(err, errno.IntervalOrderViolation), convey.ShouldBeTrue)
		convey.So(reg.Len(), convey.ShouldEqual, 0)
		_, ok := reg.Lookup(id)
		convey.So(ok, convey.ShouldBeFalse)

		sum, ok := reg.Finished(id)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(errno.Equal(sum.Err, errno.IntervalOrderViolation), convey.ShouldBeTrue)
		convey.So(sum.Canceled, convey.ShouldBeFalse)

		// a failed task is finished, not canceled
		err = reg.Deliver(ctx, id, executor.RightSide, right, false, nil)
		convey.So(errno.Equal(err, errno.TaskStateFinished), convey.ShouldBeTrue)
		err = reg.Exhaust(ctx, id, executor.LeftSide, false, nil)
		convey.So(errno.Equal(err, errno.TaskStateFinished), convey.ShouldBeTrue)
	})

	convey.Convey("delivering to an exhausted side fails the task", t, func() {
		reg := newRegistry()
		convey.So(reg.Exhaust(ctx, id, executor.LeftSide, true, nil), convey.ShouldBeNil)
		err := reg.Deliver(ctx, id, executor.LeftSide, left, false, nil)
		convey.So(errno.Equal(err, errno.SideAlreadyExhausted), convey.ShouldBeTrue)

		sum, ok := reg.Finished(id)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(errno.Equal(sum.Err, errno.SideAlreadyExhausted), convey.ShouldBeTrue)
		convey.So(sum.Canceled, convey.ShouldBeFalse)
	})
}

func TestRegistryEmitFailure(t *testing.T) {
	ctx := context.Background()
	id := executor.TaskID{JobID: 11, TaskID: 0}
	m := executor.DefaultJoinMetrics()
	sinkErr := errors.New("sink closed")
	failing := func([]executor.JoinPair) error { return sinkErr }

	reg := newRegistry()
	pairsBefore := testutil.ToFloat64(m.PairsEmitted)
	steps := []func() error{
		func() error {
			return reg.Deliver(ctx, id, executor.LeftSide, chunkOf("l", buildRows([]span{{1, 10}}, 0)), true, failing)
		},
		func() error {
			return reg.Deliver(ctx, id, executor.RightSide, chunkOf("r", buildRows([]span{{5, 20}}, 100)), false, failing)
		},
		func() error { return reg.Exhaust(ctx, id, executor.LeftSide, false, failing) },
		func() error { return reg.Exhaust(ctx, id, executor.RightSide, false, failing) },
	}
	var err error
	for _, step := range steps {
		if err = step(); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, sinkErr)

	// pairs the sink refused are not counted
	assert.Equal(t, pairsBefore, testutil.ToFloat64(m.PairsEmitted))
	assert.Equal(t, 0, reg.Len())

	sum, ok := reg.Finished(id)
	require.True(t, ok)
	assert.Equal(t, uint64(0), sum.Pairs)
	assert.False(t, sum.Canceled)
	assert.ErrorIs(t, sum.Err, sinkErr)

	err = reg.Exhaust(ctx, id, executor.RightSide, false, nil)
	assert.True(t, errno.Equal(err, errno.TaskStateFinished))
}

func TestRegistryCancelJob(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry()
	for task := uint32(0); task < 5; task++ {
		require.NoError(t, reg.Exhaust(ctx, executor.TaskID{JobID: 1, TaskID: task}, executor.LeftSide, true, nil))
	}
	require.NoError(t, reg.Exhaust(ctx, executor.TaskID{JobID: 2, TaskID: 0}, executor.LeftSide, true, nil))
	assert.Equal(t, 6, reg.Len())

	assert.Equal(t, 5, reg.CancelJob(1))
	assert.Equal(t, 1, reg.Len())
	ts, ok := reg.Lookup(executor.TaskID{JobID: 2, TaskID: 0})
	require.True(t, ok)
	assert.Equal(t, executor.PhaseDraining, ts.Phase())
}

func TestRegistryConcurrentTasks(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry()
	left := buildRows([]span{{1, 10}, {2, 30}}, 0)
	right := buildRows([]span{{5, 20}}, 100)

	var wg sync.WaitGroup
	results := make([]int, 32)
	for i := range results {
		wg.Add(1)
		go func(task int) {
			defer wg.Done()
			id := executor.TaskID{JobID: 9, TaskID: uint32(task)}
			rec := &pairRecorder{}
			if err := reg.Deliver(ctx, id, executor.LeftSide, chunkOf("l", left), true, rec.emit); err != nil {
				return
			}
			if err := reg.Deliver(ctx, id, executor.RightSide, chunkOf("r", right), false, rec.emit); err != nil {
				return
			}
			_ = reg.Exhaust(ctx, id, executor.LeftSide, false, rec.emit)
			_ = reg.Exhaust(ctx, id, executor.RightSide, false, rec.emit)
			results[task] = len(rec.pairs)
		}(i)
	}
	wg.Wait()

	for i, n := range results {
		assert.Equal(t, 1, n, "task %d", i)
	}
	assert.Equal(t, 0, reg.Len())
}
