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
	"reflect"
	"strings"

	"github.com/influxdata/influxql"
	"github.com/openGemini/intervaljoin/engine/hybridqp"
	"github.com/openGemini/intervaljoin/lib/errno"
)

var (
	_ LogicalPlan = &LogicalIntervalScan{}
	_ LogicalPlan = &LogicalLocalRangeSplit{}
	_ LogicalPlan = &LogicalIntervalJoin{}

	_ hybridqp.DelegateOperator = &LogicalLocalRangeSplit{}
	_ hybridqp.ExprAcceptor     = &LogicalIntervalJoin{}
)

func GetTypeName(i interface{}) string {
	subs := strings.Split(reflect.TypeOf(i).String(), ".")
	return subs[len(subs)-1]
}

func GetType(i interface{}) string {
	return reflect.TypeOf(i).String()
}

type LogicalPlan interface {
	hybridqp.QueryNode
	hybridqp.Describer
}

type LogicalPlanBase struct {
	id uint64
}

func (p *LogicalPlanBase) ID() uint64 {
	return p.id
}

// LogicalIntervalScan reads one join input.
type LogicalIntervalScan struct {
	side   JoinSide
	key    influxql.VarRef
	source TupleSource
	LogicalPlanBase
}

func NewLogicalIntervalScan(side JoinSide, key influxql.VarRef, source TupleSource) *LogicalIntervalScan {
	return &LogicalIntervalScan{
		side:            side,
		key:             key,
		source:          source,
		LogicalPlanBase: LogicalPlanBase{id: hybridqp.GenerateNodeId()},
	}
}

func (p *LogicalIntervalScan) Side() JoinSide {
	return p.side
}

func (p *LogicalIntervalScan) Key() influxql.VarRef {
	return p.key
}

func (p *LogicalIntervalScan) Source() TupleSource {
	return p.source
}

func (p *LogicalIntervalScan) Children() []hybridqp.QueryNode {
	return nil
}

func (p *LogicalIntervalScan) ReplaceChild(ordinal int, _ hybridqp.QueryNode) {
	panic(fmt.Sprintf("index %d out of range %d", ordinal, 0))
}

func (p *LogicalIntervalScan) Clone() hybridqp.QueryNode {
	clone := &LogicalIntervalScan{}
	*clone = *p
	clone.id = hybridqp.GenerateNodeId()
	return clone
}

func (p *LogicalIntervalScan) String() string {
	return GetTypeName(p)
}

func (p *LogicalIntervalScan) Type() string {
	return GetType(p)
}

func (p *LogicalIntervalScan) Digest() string {
	return fmt.Sprintf("%s(%s,%s)", GetTypeName(p), p.side, p.key.String())
}

func (p *LogicalIntervalScan) Describe() []string {
	return []string{"side: " + p.side.String(), "key: " + p.key.String()}
}

// LogicalIntervalJoin joins its two range split inputs on an interval relation.
type LogicalIntervalJoin struct {
	left      hybridqp.QueryNode
	right     hybridqp.QueryNode
	relation  Relation
	condition influxql.Expr
	LogicalPlanBase
}

func NewLogicalIntervalJoin(left, right hybridqp.QueryNode, relation Relation, leftKey, rightKey influxql.VarRef) *LogicalIntervalJoin {
	return &LogicalIntervalJoin{
		left:     left,
		right:    right,
		relation: relation,
		condition: &influxql.Call{
			Name: relation.Name(),
			Args: []influxql.Expr{
				&influxql.VarRef{Val: leftKey.Val, Type: leftKey.Type},
				&influxql.VarRef{Val: rightKey.Val, Type: rightKey.Type},
			},
		},
		LogicalPlanBase: LogicalPlanBase{id: hybridqp.GenerateNodeId()},
	}
}

func (p *LogicalIntervalJoin) Relation() Relation {
	return p.relation
}

func (p *LogicalIntervalJoin) Condition() influxql.Expr {
	return p.condition
}

func (p *LogicalIntervalJoin) AcceptExpressionTransform(v hybridqp.ExprTransformVisitor) bool {
	expr, changed := v.TransformExpr(p.condition)
	if changed {
		p.condition = expr
	}
	return changed
}

func (p *LogicalIntervalJoin) Children() []hybridqp.QueryNode {
	return []hybridqp.QueryNode{p.left, p.right}
}

func (p *LogicalIntervalJoin) ReplaceChild(ordinal int, child hybridqp.QueryNode) {
	switch ordinal {
	case 0:
		p.left = child
	case 1:
		p.right = child
	default:
		panic(fmt.Sprintf("index %d out of range %d", ordinal, 2))
	}
}

func (p *LogicalIntervalJoin) Clone() hybridqp.QueryNode {
	clone := &LogicalIntervalJoin{}
	*clone = *p
	clone.condition = influxql.CloneExpr(p.condition)
	clone.id = hybridqp.GenerateNodeId()
	return clone
}

func (p *LogicalIntervalJoin) String() string {
	return GetTypeName(p)
}

func (p *LogicalIntervalJoin) Type() string {
	return GetType(p)
}

func (p *LogicalIntervalJoin) Digest() string {
	return fmt.Sprintf("%s(%s)[%d,%d]", GetTypeName(p), p.condition.String(), p.left.ID(), p.right.ID())
}

func (p *LogicalIntervalJoin) Describe() []string {
	return []string{"condition: " + p.condition.String()}
}

// BuildIntervalJoinPlan assembles scan, split and join nodes for two inputs
// split by the same RangeMap.
func BuildIntervalJoinPlan(left, right TupleSource, leftKey, rightKey influxql.VarRef,
	rangeMap *RangeMap, relation Relation) (*LogicalIntervalJoin, error) {
	if relation == nil {
		return nil, errno.NewError(errno.UnknownRelation, "<nil>")
	}
	leftSplit, err := NewLogicalLocalRangeSplit(NewLogicalIntervalScan(LeftSide, leftKey, left),
		[]influxql.VarRef{leftKey}, rangeMap)
	if err != nil {
		return nil, err
	}
	rightSplit, err := NewLogicalLocalRangeSplit(NewLogicalIntervalScan(RightSide, rightKey, right),
		[]influxql.VarRef{rightKey}, rangeMap)
	if err != nil {
		return nil, err
	}
	return NewLogicalIntervalJoin(leftSplit, rightSplit, relation, leftKey, rightKey), nil
}
