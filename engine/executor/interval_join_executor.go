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
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/openGemini/intervaljoin/lib/config"
	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

type IntervalJoinOptions struct {
	JobID             uint64
	ChunkSize         int
	FieldOffset       int
	OrderTolerance    int64
	FinishedTaskCache int
	FinishedTaskTTL   time.Duration
}

func NewIntervalJoinOptions(jobID uint64, conf config.IntervalJoin) IntervalJoinOptions {
	return IntervalJoinOptions{
		JobID:             jobID,
		ChunkSize:         conf.ChunkSize,
		FieldOffset:       conf.FieldOffset,
		OrderTolerance:    conf.OrderTolerance,
		FinishedTaskCache: conf.FinishedTaskCache,
		FinishedTaskTTL:   time.Duration(conf.FinishedTaskTTL),
	}
}

// IntervalJoinExecutor runs a partitioned interval join: two sources, one
// range split per source and one sweep task per partition.
type IntervalJoinExecutor struct {
	plan       *LogicalIntervalJoin
	opt        IntervalJoinOptions
	rangeMap   *RangeMap
	registry   *TaskStateRegistry
	processors Processors

	sinkMu sync.Mutex
	sink   PairSink

	contextMutex sync.Mutex
	context      context.Context
	cancelFunc   context.CancelFunc
	crashed      bool

	log *logger.Logger
}

func NewIntervalJoinExecutor(plan *LogicalIntervalJoin, opt IntervalJoinOptions, sink PairSink) (*IntervalJoinExecutor, error) {
	var splits [2]*LogicalLocalRangeSplit
	var scans [2]*LogicalIntervalScan
	for i, child := range plan.Children() {
		split, ok := child.(*LogicalLocalRangeSplit)
		if !ok {
			return nil, errno.NewError(errno.UnsupportedLogicalPlan, child)
		}
		scan, ok := split.input.(*LogicalIntervalScan)
		if !ok {
			return nil, errno.NewError(errno.UnsupportedLogicalPlan, split.input)
		}
		splits[i], scans[i] = split, scan
	}
	rangeMap := splits[LeftSide].RangeMap()
	if !slices.Equal(rangeMap.splits, splits[RightSide].RangeMap().splits) {
		return nil, errno.NewError(errno.InvalidRangeSplit,
			fmt.Sprintf("left %s and right %s are split differently", rangeMap, splits[RightSide].RangeMap()))
	}

	exec := &IntervalJoinExecutor{
		plan:     plan,
		opt:      opt,
		rangeMap: rangeMap,
		log:      logger.NewLogger(errno.ModuleQueryEngine).With(zap.Uint64("job_id", opt.JobID)),
	}
	exec.sink = func(chunk *PairChunk) error {
		exec.sinkMu.Lock()
		defer exec.sinkMu.Unlock()
		return sink(chunk)
	}

	comparator := NewAllenComparator(plan.Relation())
	joiners := make([]*ForwardSweepJoiner, rangeMap.Partitions())
	for p := range joiners {
		joiners[p] = NewForwardSweepJoiner(comparator, opt.FieldOffset, opt.OrderTolerance, rangeMap.Range(p))
	}
	exec.registry = NewTaskStateRegistry(func(id TaskID) *IntervalJoinTaskState {
		return NewIntervalJoinTaskState(id, joiners[id.TaskID])
	}, opt.FinishedTaskCache, opt.FinishedTaskTTL)

	exec.build(scans, joiners)
	return exec, nil
}

func (exec *IntervalJoinExecutor) build(scans [2]*LogicalIntervalScan, joiners []*ForwardSweepJoiner) {
	var splitters [2]*RangeSplitTransform
	for _, side := range [...]JoinSide{LeftSide, RightSide} {
		source := NewSourceTransform(scans[side].Source())
		splitters[side] = NewRangeSplitTransform(side, exec.rangeMap, exec.opt.FieldOffset, exec.opt.ChunkSize)
		Connect(source.output, splitters[side].Input())
		exec.processors.Push(source)
		exec.processors.Push(splitters[side])
	}

	for p := range joiners {
		join := NewIntervalJoinTransform(exec.registry, TaskID{JobID: exec.opt.JobID, TaskID: uint32(p)}, p)
		Connect(splitters[LeftSide].Output(p), join.Input(LeftSide))
		Connect(splitters[RightSide].Output(p), join.Input(RightSide))

		collect := NewPairCollectTransform(exec.sink)
		Connect(join.Output(), collect.Input())
		exec.processors.Push(join)
		exec.processors.Push(collect)
	}
}

func (exec *IntervalJoinExecutor) Registry() *TaskStateRegistry {
	return exec.registry
}

func (exec *IntervalJoinExecutor) GetProcessors() Processors {
	return exec.processors
}

func (exec *IntervalJoinExecutor) Crash() {
	exec.contextMutex.Lock()
	defer exec.contextMutex.Unlock()

	if exec.crashed {
		return
	}
	exec.crashed = true
	if exec.cancelFunc != nil {
		exec.cancelFunc()
	}
}

func (exec *IntervalJoinExecutor) Crashed() bool {
	exec.contextMutex.Lock()
	defer exec.contextMutex.Unlock()
	return exec.crashed
}

func (exec *IntervalJoinExecutor) initContext(ctx context.Context) error {
	exec.contextMutex.Lock()
	defer exec.contextMutex.Unlock()
	if exec.context != nil || exec.cancelFunc != nil {
		return errno.NewError(errno.PipelineExecuting, exec.context, exec.cancelFunc)
	}
	exec.context, exec.cancelFunc = context.WithCancel(ctx)
	return nil
}

func (exec *IntervalJoinExecutor) destroyContext() {
	exec.contextMutex.Lock()
	if exec.cancelFunc != nil {
		exec.cancelFunc()
	}
	exec.context, exec.cancelFunc = nil, nil
	exec.contextMutex.Unlock()
}

func (exec *IntervalJoinExecutor) work(ctx context.Context, processor Processor) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errno.NewError(errno.RecoverPanic, e)
			exec.log.Error("runtime panic", zap.String("stack", string(debug.Stack())),
				zap.Error(err), zap.String("processor", processor.Name()))
		}
	}()

	err = processor.Work(ctx)
	if err != nil {
		exec.log.Error(fmt.Sprintf("%s in interval join executor failed", processor.Name()),
			zap.Error(err), zap.Bool("crashed", exec.Crashed()))
	}
	return err
}

// Execute runs every processor on its own pool worker and returns the first
// error. The first failure cancels the others.
func (exec *IntervalJoinExecutor) Execute(ctx context.Context) error {
	if err := exec.initContext(ctx); err != nil {
		return err
	}
	defer exec.destroyContext()
	runCtx := exec.context

	// every processor blocks on its ports, so each needs its own worker
	pool, err := ants.NewPool(exec.processors.Size())
	if err != nil {
		return errno.NewThirdParty(err, errno.ModuleQueryEngine)
	}
	defer pool.Release()

	errs := errno.NewErrsPool().Get()
	defer errno.NewErrsPool().Put(errs)
	errs.Init(exec.processors.Size(), exec.Crash)

	begin := time.Now()
	for i, p := range exec.processors {
		processor := p
		if err := pool.Submit(func() {
			errs.Dispatch(exec.work(runCtx, processor))
		}); err != nil {
			exec.Crash()
			for range exec.processors[i:] {
				errs.Dispatch(errno.NewThirdParty(err, errno.ModuleQueryEngine))
			}
			break
		}
	}

	err = errs.Err()
	if err == nil {
		err = ctx.Err()
	}
	exec.release()
	exec.log.Info("interval join executed",
		zap.Int("partitions", exec.rangeMap.Partitions()),
		zap.Int("processors", exec.processors.Size()),
		zap.Duration("cost", time.Since(begin)),
		zap.Bool("crashed", exec.Crashed()))
	return err
}

func (exec *IntervalJoinExecutor) release() {
	for _, p := range exec.processors {
		if exec.log.IsDebugLevel() {
			exec.log.Debug("processor finished", zap.String("processor", p.Name()), zap.Any("explain", p.Explain()))
		}
		if err := p.Release(); err != nil {
			exec.log.Error("failed to release", zap.Error(err), zap.String("processor", p.Name()))
		}
	}
}

// ExecuteIntervalJoin runs plan and returns every pair it produced.
func ExecuteIntervalJoin(ctx context.Context, plan *LogicalIntervalJoin, opt IntervalJoinOptions) ([]JoinPair, error) {
	var pairs []JoinPair
	exec, err := NewIntervalJoinExecutor(plan, opt, func(chunk *PairChunk) error {
		pairs = append(pairs, chunk.Pairs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := exec.Execute(ctx); err != nil {
		return nil, err
	}
	return pairs, nil
}
