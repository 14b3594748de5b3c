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
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/influxdata/influxql"
	"github.com/openGemini/intervaljoin/engine/hybridqp"
	"github.com/openGemini/intervaljoin/lib/errno"
)

// RangeMap cuts the start domain into len(splits)+1 partitions. Partition i
// covers [splits[i-1], splits[i]); the first and last are unbounded.
type RangeMap struct {
	splits []int64
}

func NewRangeMap(splits []int64) (*RangeMap, error) {
	for i := 1; i < len(splits); i++ {
		if splits[i] <= splits[i-1] {
			return nil, errno.NewError(errno.InvalidRangeSplit,
				fmt.Sprintf("split %d (%d) is not greater than split %d (%d)", i, splits[i], i-1, splits[i-1]))
		}
	}
	if len(splits)+1 > math.MaxUint32 {
		return nil, errno.NewError(errno.InvalidRangeSplit, "too many split points")
	}
	return &RangeMap{splits: slices.Clone(splits)}, nil
}

// SampleRangeMap picks split points at the quantiles of a sample of starts so
// that partitions receive a similar number of tuples. Repeated values collapse,
// so the result may have fewer partitions than asked for.
func SampleRangeMap(starts []int64, partitions int) *RangeMap {
	if partitions <= 1 || len(starts) == 0 {
		return &RangeMap{}
	}
	sorted := slices.Clone(starts)
	slices.Sort(sorted)

	splits := make([]int64, 0, partitions-1)
	for i := 1; i < partitions; i++ {
		v := sorted[i*len(sorted)/partitions]
		if len(splits) > 0 && v <= splits[len(splits)-1] {
			continue
		}
		if v == sorted[0] {
			continue
		}
		splits = append(splits, v)
	}
	return &RangeMap{splits: splits}
}

func (m *RangeMap) Partitions() int {
	return len(m.splits) + 1
}

func (m *RangeMap) Splits() []int64 {
	return slices.Clone(m.splits)
}

// PartitionOf returns the partition owning start value v.
func (m *RangeMap) PartitionOf(v int64) int {
	return sort.Search(len(m.splits), func(i int) bool {
		return m.splits[i] > v
	})
}

func (m *RangeMap) Range(p int) PartitionRange {
	r := PartitionRange{Lo: math.MinInt64, Hi: math.MaxInt64, Last: p >= len(m.splits)}
	if p > 0 {
		r.Lo = m.splits[p-1]
	}
	if !r.Last {
		r.Hi = m.splits[p]
	}
	return r
}

// Route returns the partitions [start, end) must reach: every partition where
// an interval starting later can still overlap it. bm is reused when not nil.
func (m *RangeMap) Route(start, end int64, bm *roaring.Bitmap) *roaring.Bitmap {
	if bm == nil {
		bm = roaring.New()
	} else {
		bm.Clear()
	}
	first := m.PartitionOf(start)
	last := first
	if end > start && end-1 > start {
		last = m.PartitionOf(end - 1)
	}
	bm.AddRange(uint64(first), uint64(last)+1)
	return bm
}

func (m *RangeMap) String() string {
	parts := make([]string, len(m.splits))
	for i, s := range m.splits {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// LogicalLocalRangeSplit re-routes the tuples of its input to the partitions
// of a RangeMap. It is not a map: one tuple can reach several partitions.
type LogicalLocalRangeSplit struct {
	input    hybridqp.QueryNode
	keys     []influxql.VarRef
	rangeMap *RangeMap
	LogicalPlanBase
}

func NewLogicalLocalRangeSplit(input hybridqp.QueryNode, keys []influxql.VarRef, rangeMap *RangeMap) (*LogicalLocalRangeSplit, error) {
	if len(keys) == 0 {
		return nil, errno.NewError(errno.InvalidJoinKey, "no join key")
	}
	for _, k := range keys {
		if k.Val == "" {
			return nil, errno.NewError(errno.InvalidJoinKey, "empty variable name")
		}
	}
	if rangeMap == nil {
		rangeMap = &RangeMap{}
	}
	return newLogicalLocalRangeSplit(input, keys, rangeMap), nil
}

func newLogicalLocalRangeSplit(input hybridqp.QueryNode, keys []influxql.VarRef, rangeMap *RangeMap) *LogicalLocalRangeSplit {
	return &LogicalLocalRangeSplit{
		input:           input,
		keys:            slices.Clone(keys),
		rangeMap:        rangeMap,
		LogicalPlanBase: LogicalPlanBase{id: hybridqp.GenerateNodeId()},
	}
}

func (p *LogicalLocalRangeSplit) RangeMap() *RangeMap {
	return p.rangeMap
}

func (p *LogicalLocalRangeSplit) IsMap() bool {
	return false
}

func (p *LogicalLocalRangeSplit) NewInstance() hybridqp.DelegateOperator {
	return newLogicalLocalRangeSplit(nil, p.keys, p.rangeMap)
}

// AcceptExpressionTransform always declines: the split only routes tuples and
// has no expression an optimizer could rewrite.
func (p *LogicalLocalRangeSplit) AcceptExpressionTransform(hybridqp.ExprTransformVisitor) bool {
	return false
}

func (p *LogicalLocalRangeSplit) UsedVariables() []influxql.VarRef {
	return slices.Clone(p.keys)
}

func (p *LogicalLocalRangeSplit) ProducedVariables() []influxql.VarRef {
	return []influxql.VarRef{}
}

func (p *LogicalLocalRangeSplit) Children() []hybridqp.QueryNode {
	if p.input == nil {
		return nil
	}
	return []hybridqp.QueryNode{p.input}
}

func (p *LogicalLocalRangeSplit) ReplaceChild(ordinal int, child hybridqp.QueryNode) {
	if ordinal > 0 {
		panic(fmt.Sprintf("index %d out of range %d", ordinal, 1))
	}
	p.input = child
}

func (p *LogicalLocalRangeSplit) Clone() hybridqp.QueryNode {
	clone := newLogicalLocalRangeSplit(p.input, p.keys, p.rangeMap)
	return clone
}

func (p *LogicalLocalRangeSplit) String() string {
	return GetTypeName(p)
}

func (p *LogicalLocalRangeSplit) Type() string {
	return GetType(p)
}

func (p *LogicalLocalRangeSplit) Digest() string {
	input := uint64(0)
	if p.input != nil {
		input = p.input.ID()
	}
	return fmt.Sprintf("%s(%s)%s[%d]", GetTypeName(p), varRefsString(p.keys), p.rangeMap, input)
}

func (p *LogicalLocalRangeSplit) Describe() []string {
	return []string{
		"keys: " + varRefsString(p.keys),
		fmt.Sprintf("partitions: %d %s", p.rangeMap.Partitions(), p.rangeMap),
	}
}

func varRefsString(refs []influxql.VarRef) string {
	names := make([]string, len(refs))
	for i := range refs {
		names[i] = refs[i].String()
	}
	return strings.Join(names, ",")
}
