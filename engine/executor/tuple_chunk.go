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
	"fmt"
)

// JoinSide names one of the two join inputs.
type JoinSide uint8

const (
	LeftSide JoinSide = iota
	RightSide
)

func (s JoinSide) Other() JoinSide {
	return 1 - s
}

func (s JoinSide) String() string {
	switch s {
	case LeftSide:
		return "left"
	case RightSide:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// TupleChunk is a batch of serialized tuples delivered by the framework.
// Rows are referenced, not copied.
type TupleChunk struct {
	name string
	rows [][]byte
}

func NewTupleChunk(name string, capacity int) *TupleChunk {
	return &TupleChunk{
		name: name,
		rows: make([][]byte, 0, capacity),
	}
}

func (c *TupleChunk) Name() string {
	return c.name
}

func (c *TupleChunk) SetName(name string) {
	c.name = name
}

func (c *TupleChunk) NumberOfRows() int {
	return len(c.rows)
}

func (c *TupleChunk) Row(i int) []byte {
	return c.rows[i]
}

func (c *TupleChunk) Rows() [][]byte {
	return c.rows
}

func (c *TupleChunk) AppendRow(row []byte) {
	c.rows = append(c.rows, row)
}

func (c *TupleChunk) AppendRows(rows ...[]byte) {
	c.rows = append(c.rows, rows...)
}

func (c *TupleChunk) Reset() {
	c.rows = c.rows[:0]
}

// JoinPair is one join result: the originating left and right tuples.
type JoinPair struct {
	Left  []byte
	Right []byte
}

// PairChunk is a batch of join results produced by one partition.
type PairChunk struct {
	Partition int
	Pairs     []JoinPair
}

func (c *PairChunk) Len() int {
	return len(c.Pairs)
}

// PairEmitter receives the pairs produced by one engine invocation.
type PairEmitter func(pairs []JoinPair) error

// SplitChunks cuts rows into chunks of at most size rows.
func SplitChunks(name string, rows [][]byte, size int) []*TupleChunk {
	if size <= 0 {
		size = len(rows)
	}
	chunks := make([]*TupleChunk, 0, len(rows)/max(size, 1)+1)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		c := NewTupleChunk(name, end-start)
		c.AppendRows(rows[start:end]...)
		chunks = append(chunks, c)
	}
	return chunks
}
