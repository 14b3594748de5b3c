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
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/interval"
)

// RangeSplitTransform copies every tuple of its input to each partition the
// RangeMap routes it to. Tuple order is kept within every partition.
type RangeSplitTransform struct {
	BaseProcessor

	side      JoinSide
	rangeMap  *RangeMap
	offset    int
	chunkSize int

	input   *TuplePort
	outputs []*TuplePort
	batches []*TupleChunk
	route   *roaring.Bitmap
	routed  int
	once    sync.Once
}

func NewRangeSplitTransform(side JoinSide, rangeMap *RangeMap, offset, chunkSize int) *RangeSplitTransform {
	n := rangeMap.Partitions()
	t := &RangeSplitTransform{
		side:      side,
		rangeMap:  rangeMap,
		offset:    offset,
		chunkSize: chunkSize,
		input:     NewTuplePort(),
		outputs:   make([]*TuplePort, n),
		batches:   make([]*TupleChunk, n),
		route:     roaring.New(),
	}
	for i := range t.outputs {
		t.outputs[i] = NewTuplePort()
	}
	return t
}

func (t *RangeSplitTransform) Name() string {
	return "RangeSplitTransform"
}

func (t *RangeSplitTransform) Explain() []ValuePair {
	return []ValuePair{
		{First: "side", Second: t.side.String()},
		{First: "splits", Second: t.rangeMap.String()},
		{First: "routed", Second: t.routed},
		{First: "cost", Second: t.Cost()},
	}
}

func (t *RangeSplitTransform) Close() {
	t.once.Do(func() {
		for _, out := range t.outputs {
			out.Close()
		}
	})
}

func (t *RangeSplitTransform) Work(ctx context.Context) error {
	t.Begin()
	defer func() {
		t.Close()
		t.End()
	}()

	for {
		select {
		case chunk, ok := <-t.input.State:
			if !ok {
				return t.flush(ctx)
			}
			if err := t.split(ctx, chunk); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *RangeSplitTransform) split(ctx context.Context, chunk *TupleChunk) error {
	for i := 0; i < chunk.NumberOfRows(); i++ {
		row := chunk.Row(i)
		if err := interval.Validate(row, t.offset); err != nil {
			return err
		}
		t.route = t.rangeMap.Route(interval.Start(row, t.offset), interval.End(row, t.offset), t.route)
		it := t.route.Iterator()
		for it.HasNext() {
			p := int(it.Next())
			if p >= len(t.outputs) {
				return errno.NewError(errno.InvalidPartition, p, len(t.outputs))
			}
			if t.batches[p] == nil {
				t.batches[p] = NewTupleChunk(chunk.Name(), t.chunkSize)
			}
			t.batches[p].AppendRow(row)
			t.routed++
			if t.batches[p].NumberOfRows() >= t.chunkSize {
				if err := t.send(ctx, p); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (t *RangeSplitTransform) flush(ctx context.Context) error {
	for p := range t.batches {
		if err := t.send(ctx, p); err != nil {
			return err
		}
	}
	observeRouted(t.side, t.routed)
	return nil
}

func (t *RangeSplitTransform) send(ctx context.Context, p int) error {
	batch := t.batches[p]
	if batch == nil || batch.NumberOfRows() == 0 {
		return nil
	}
	t.batches[p] = nil
	select {
	case t.outputs[p].State <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *RangeSplitTransform) Input() *TuplePort {
	return t.input
}

func (t *RangeSplitTransform) Output(p int) *TuplePort {
	return t.outputs[p]
}

func (t *RangeSplitTransform) GetOutputs() Ports {
	ports := make(Ports, 0, len(t.outputs))
	for _, out := range t.outputs {
		ports = append(ports, out)
	}
	return ports
}

func (t *RangeSplitTransform) GetInputs() Ports {
	return Ports{t.input}
}
