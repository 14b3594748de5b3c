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
	"strings"

	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/interval"
)

// RelationOutcome is the result of testing an Allen relation between A and B.
type RelationOutcome uint8

const (
	// OutcomeBefore: the relation does not hold and A does not start first.
	OutcomeBefore RelationOutcome = iota
	// OutcomeHolds: the relation holds.
	OutcomeHolds
	// OutcomeAfter: the relation does not hold although A starts first.
	OutcomeAfter
)

// Compare maps the outcome onto the three-way contract expected by generic
// sort, merge and search utilities: holds is 0, after is 1, before is -1.
// It is not a total order and must only be used where that contract is demanded.
func (o RelationOutcome) Compare() int {
	switch o {
	case OutcomeHolds:
		return 0
	case OutcomeAfter:
		return 1
	default:
		return -1
	}
}

func (o RelationOutcome) String() string {
	switch o {
	case OutcomeHolds:
		return "holds"
	case OutcomeAfter:
		return "after"
	default:
		return "before"
	}
}

// Relation is the boundary predicate of one Allen relation between A=[s0,e0)
// and B=[s1,e1). The sweep only finds pairs in which A is still active when B
// starts, so a relation must imply s0 <= s1 and e0 > s1.
type Relation interface {
	Name() string
	Holds(s0, e0, s1, e1 int64) bool
}

// ScanStopper is implemented by relations that can cut the scan of an active
// set ordered by ascending end.
type ScanStopper interface {
	// StopScan reports that no active interval ending at activeEnd or later can
	// be related to the probe.
	StopScan(activeEnd, probeStart, probeEnd int64) bool
}

// Overlaps holds when A starts first, B starts inside A and B ends after A.
type Overlaps struct{}

func (Overlaps) Name() string {
	return "overlaps"
}

func (Overlaps) Holds(s0, e0, s1, e1 int64) bool {
	return s0 < s1 && e0 > s1 && e1 > e0
}

func (Overlaps) StopScan(activeEnd, _, probeEnd int64) bool {
	return activeEnd >= probeEnd
}

// Contains holds when B lies strictly inside A.
type Contains struct{}

func (Contains) Name() string {
	return "contains"
}

func (Contains) Holds(s0, e0, s1, e1 int64) bool {
	return s0 < s1 && e1 < e0
}

var relations = map[string]Relation{
	Overlaps{}.Name(): Overlaps{},
	Contains{}.Name(): Contains{},
}

func RelationByName(name string) (Relation, error) {
	r, ok := relations[strings.ToLower(name)]
	if !ok {
		return nil, errno.NewError(errno.UnknownRelation, name)
	}
	return r, nil
}

// BinaryComparator is the three-way comparator contract over serialized buffers.
type BinaryComparator interface {
	Compare(a []byte, offA int, b []byte, offB int) int
}

// AllenComparator tests a relation directly on serialized intervals.
// It holds no state and may be shared between tasks.
type AllenComparator struct {
	relation Relation
}

func NewAllenComparator(relation Relation) *AllenComparator {
	return &AllenComparator{relation: relation}
}

func (c *AllenComparator) Relation() Relation {
	return c.relation
}

// Relate reads both intervals in place and tests the relation, A first.
func (c *AllenComparator) Relate(a []byte, offA int, b []byte, offB int) RelationOutcome {
	return c.RelateValues(interval.Start(a, offA), interval.End(a, offA), interval.Start(b, offB), interval.End(b, offB))
}

func (c *AllenComparator) RelateValues(s0, e0, s1, e1 int64) RelationOutcome {
	if c.relation.Holds(s0, e0, s1, e1) {
		return OutcomeHolds
	}
	if s0 < s1 {
		return OutcomeAfter
	}
	return OutcomeBefore
}

// Compare implements BinaryComparator; 0 means the relation holds.
func (c *AllenComparator) Compare(a []byte, offA int, b []byte, offB int) int {
	return c.Relate(a, offA, b, offB).Compare()
}

var _ BinaryComparator = (*AllenComparator)(nil)
