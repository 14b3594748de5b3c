// Copyright Huawei Cloud Computing Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hybridqp

import (
	"github.com/influxdata/influxql"
)

// ExprTransformVisitor rewrites an expression. It reports whether anything changed.
type ExprTransformVisitor interface {
	TransformExpr(expr influxql.Expr) (influxql.Expr, bool)
}

// ExprAcceptor is a plan node that lets an optimizer rewrite its expressions.
type ExprAcceptor interface {
	AcceptExpressionTransform(v ExprTransformVisitor) bool
}

// DelegateOperator is the capability set of an operator plugged into a plan
// by delegation.
type DelegateOperator interface {
	ExprAcceptor

	// IsMap reports whether every input tuple yields exactly one output tuple.
	IsMap() bool
	// NewInstance returns an independent operator with the same configuration.
	NewInstance() DelegateOperator
	UsedVariables() []influxql.VarRef
	ProducedVariables() []influxql.VarRef
	String() string
}

// VarRefRenamer renames variable references.
type VarRefRenamer struct {
	Mapping map[string]string
}

func (r *VarRefRenamer) TransformExpr(expr influxql.Expr) (influxql.Expr, bool) {
	changed := false
	out := influxql.RewriteExpr(influxql.CloneExpr(expr), func(e influxql.Expr) influxql.Expr {
		ref, ok := e.(*influxql.VarRef)
		if !ok {
			return e
		}
		name, ok := r.Mapping[ref.Val]
		if !ok || name == ref.Val {
			return e
		}
		changed = true
		return &influxql.VarRef{Val: name, Type: ref.Type}
	})
	return out, changed
}

type pushDownVisitor struct {
	transform ExprTransformVisitor
	accepted  int
}

func (p *pushDownVisitor) Visit(node QueryNode) QueryNodeVisitor {
	if op, ok := node.(DelegateOperator); ok {
		if !op.AcceptExpressionTransform(p.transform) {
			return nil
		}
		p.accepted++
		return p
	}
	if acceptor, ok := node.(ExprAcceptor); ok && acceptor.AcceptExpressionTransform(p.transform) {
		p.accepted++
	}
	return p
}

// PushDownExprs offers transform to every node below root, top down. A
// delegate operator that declines is a boundary: nothing beneath it is visited.
// It returns the number of nodes that accepted.
func PushDownExprs(root QueryNode, transform ExprTransformVisitor) int {
	v := &pushDownVisitor{transform: transform}
	WalkQueryNodeInPreOrder(v, root)
	return v.accepted
}
