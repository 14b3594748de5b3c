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

type EndpointKind uint8

const (
	// EndpointEnd sorts before EndpointStart at an equal value, so an interval
	// ending where another begins is never seen as overlapping it.
	EndpointEnd EndpointKind = iota
	EndpointStart
)

func (k EndpointKind) String() string {
	if k == EndpointEnd {
		return "end"
	}
	return "start"
}

// intervalRow is a delivered tuple with its interval decoded once.
type intervalRow struct {
	start int64
	end   int64
	seq   uint64
	side  JoinSide
	row   []byte
}

// EndpointItem is one boundary event of the sweep.
type EndpointItem struct {
	Value int64
	Kind  EndpointKind
	Side  JoinSide
	Seq   uint64
	owner *intervalRow
}

func startItem(r *intervalRow) EndpointItem {
	return EndpointItem{Value: r.start, Kind: EndpointStart, Side: r.side, Seq: r.seq, owner: r}
}

func endItem(r *intervalRow) EndpointItem {
	return EndpointItem{Value: r.end, Kind: EndpointEnd, Side: r.side, Seq: r.seq, owner: r}
}

// Owner returns the tuple the event was derived from.
func (e EndpointItem) Owner() []byte {
	if e.owner == nil {
		return nil
	}
	return e.owner.row
}

func (e EndpointItem) String() string {
	return fmt.Sprintf("%s %s@%d#%d", e.Side, e.Kind, e.Value, e.Seq)
}

// CompareEndpoints is the total order of sweep events:
// value, then end before start, then left before right, then arrival.
func CompareEndpoints(a, b EndpointItem) int {
	switch {
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	case a.Kind != b.Kind:
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	case a.Side != b.Side:
		if a.Side < b.Side {
			return -1
		}
		return 1
	case a.Seq < b.Seq:
		return -1
	case a.Seq > b.Seq:
		return 1
	}
	return 0
}
