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

	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/logger"
	"go.uber.org/zap"
)

// IntervalJoinTransform feeds the two inputs of one partition into the task
// state held by the registry and forwards the pairs it emits.
type IntervalJoinTransform struct {
	BaseProcessor

	registry  *TaskStateRegistry
	id        TaskID
	partition int
	opened    bool

	inputs [2]*TuplePort
	output *PairPort
	pairs  int

	log *logger.Logger
}

func NewIntervalJoinTransform(registry *TaskStateRegistry, id TaskID, partition int) *IntervalJoinTransform {
	return &IntervalJoinTransform{
		registry:  registry,
		id:        id,
		partition: partition,
		inputs:    [2]*TuplePort{NewTuplePort(), NewTuplePort()},
		output:    NewPairPort(),
		log: logger.NewLogger(errno.ModuleQueryEngine).With(
			zap.Uint64("job_id", id.JobID), zap.Uint32("task_id", id.TaskID)),
	}
}

func (t *IntervalJoinTransform) Name() string {
	return "IntervalJoinTransform"
}

func (t *IntervalJoinTransform) Explain() []ValuePair {
	return []ValuePair{
		{First: "task", Second: t.id.String()},
		{First: "partition", Second: t.partition},
		{First: "pairs", Second: t.pairs},
		{First: "cost", Second: t.Cost()},
	}
}

func (t *IntervalJoinTransform) Close() {
	t.output.Close()
}

func (t *IntervalJoinTransform) Work(ctx context.Context) error {
	t.Begin()
	defer func() {
		t.Close()
		t.End()
	}()

	emit := func(pairs []JoinPair) error {
		select {
		case t.output.State <- &PairChunk{Partition: t.partition, Pairs: pairs}:
			t.pairs += len(pairs)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	inputs := [2]chan *TupleChunk{t.inputs[LeftSide].State, t.inputs[RightSide].State}
	for inputs[LeftSide] != nil || inputs[RightSide] != nil {
		var err error
		select {
		case chunk, ok := <-inputs[LeftSide]:
			if !ok {
				inputs[LeftSide] = nil
			}
			err = t.deliver(ctx, LeftSide, chunk, ok, emit)
		case chunk, ok := <-inputs[RightSide]:
			if !ok {
				inputs[RightSide] = nil
			}
			err = t.deliver(ctx, RightSide, chunk, ok, emit)
		case <-ctx.Done():
			t.registry.Cancel(t.id)
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *IntervalJoinTransform) deliver(ctx context.Context, side JoinSide, chunk *TupleChunk, ok bool, emit PairEmitter) error {
	first := !t.opened
	t.opened = true
	if !ok {
		t.log.Debug("join input closed", zap.Stringer("side", side), zap.Int("partition", t.partition))
		return t.registry.Exhaust(ctx, t.id, side, first, emit)
	}
	return t.registry.Deliver(ctx, t.id, side, chunk, first, emit)
}

func (t *IntervalJoinTransform) Input(side JoinSide) *TuplePort {
	return t.inputs[side]
}

func (t *IntervalJoinTransform) Output() *PairPort {
	return t.output
}

func (t *IntervalJoinTransform) GetOutputs() Ports {
	return Ports{t.output}
}

func (t *IntervalJoinTransform) GetInputs() Ports {
	return Ports{t.inputs[LeftSide], t.inputs[RightSide]}
}

// PairSink receives the pairs of every partition. Calls are serialized.
type PairSink func(chunk *PairChunk) error

// PairCollectTransform drains the output of one join partition into a sink.
type PairCollectTransform struct {
	BaseProcessor

	input *PairPort
	sink  PairSink
	rows  int
}

func NewPairCollectTransform(sink PairSink) *PairCollectTransform {
	return &PairCollectTransform{
		input: NewPairPort(),
		sink:  sink,
	}
}

func (t *PairCollectTransform) Name() string {
	return "PairCollectTransform"
}

func (t *PairCollectTransform) Explain() []ValuePair {
	return []ValuePair{{First: "rows", Second: t.rows}, {First: "cost", Second: t.Cost()}}
}

func (t *PairCollectTransform) Close() {}

func (t *PairCollectTransform) Work(ctx context.Context) error {
	t.Begin()
	defer t.End()

	for {
		select {
		case chunk, ok := <-t.input.State:
			if !ok {
				return nil
			}
			t.rows += chunk.Len()
			if err := t.sink(chunk); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *PairCollectTransform) Input() *PairPort {
	return t.input
}

func (t *PairCollectTransform) GetOutputs() Ports {
	return nil
}

func (t *PairCollectTransform) GetInputs() Ports {
	return Ports{t.input}
}
