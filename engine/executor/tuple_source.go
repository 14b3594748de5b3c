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
)

// TupleSource produces the chunks of one join input in start order.
type TupleSource interface {
	// Next returns the next chunk, or nil once the source is exhausted.
	Next(ctx context.Context) (*TupleChunk, error)
	Name() string
}

// SliceSource serves tuples held in memory.
type SliceSource struct {
	name   string
	chunks []*TupleChunk
	pos    int
}

func NewSliceSource(name string, rows [][]byte, chunkSize int) *SliceSource {
	return &SliceSource{
		name:   name,
		chunks: SplitChunks(name, rows, chunkSize),
	}
}

func (s *SliceSource) Name() string {
	return s.name
}

func (s *SliceSource) Next(ctx context.Context) (*TupleChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.chunks) {
		return nil, nil
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

// SourceTransform pushes the chunks of a TupleSource into the pipeline.
type SourceTransform struct {
	BaseProcessor

	source TupleSource
	output *TuplePort
}

func NewSourceTransform(source TupleSource) *SourceTransform {
	return &SourceTransform{
		source: source,
		output: NewTuplePort(),
	}
}

func (t *SourceTransform) Name() string {
	return "SourceTransform"
}

func (t *SourceTransform) Explain() []ValuePair {
	return []ValuePair{{First: "source", Second: t.source.Name()}, {First: "cost", Second: t.Cost()}}
}

func (t *SourceTransform) Close() {
	t.output.Close()
}

func (t *SourceTransform) Work(ctx context.Context) error {
	t.Begin()
	defer func() {
		t.Close()
		t.End()
	}()

	for {
		chunk, err := t.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if chunk == nil {
			return nil
		}
		select {
		case t.output.State <- chunk:
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *SourceTransform) GetOutputs() Ports {
	return Ports{t.output}
}

func (t *SourceTransform) GetInputs() Ports {
	return nil
}
