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

package hybridqp_test

import (
	"fmt"
	"testing"

	"github.com/influxdata/influxql"
	"github.com/openGemini/intervaljoin/engine/hybridqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	id       uint64
	name     string
	children []hybridqp.QueryNode
	expr     influxql.Expr
	offered  int
}

func newFakeNode(name string, expr string, children ...hybridqp.QueryNode) *fakeNode {
	n := &fakeNode{id: hybridqp.GenerateNodeId(), name: name, children: children}
	if expr != "" {
		n.expr = influxql.MustParseExpr(expr)
	}
	return n
}

func (n *fakeNode) ID() uint64 { return n.id }
func (n *fakeNode) Digest() string { return fmt.Sprintf("%s[%d]", n.name, n.id) }
func (n *fakeNode) Children() []hybridqp.QueryNode { return n.children }
func (n *fakeNode) String() string { return n.name }
func (n *fakeNode) Type() string { return "fakeNode" }
func (n *fakeNode) ReplaceChild(i int, c hybridqp.QueryNode) { n.children[i] = c }
func (n *fakeNode) Clone() hybridqp.QueryNode {
	clone := *n
	clone.id = hybridqp.GenerateNodeId()
	return &clone
}

func (n *fakeNode) AcceptExpressionTransform(v hybridqp.ExprTransformVisitor) bool {
	n.offered++
	if n.expr == nil {
		return false
	}
	expr, changed := v.TransformExpr(n.expr)
	n.expr = expr
	return changed
}

func (n *fakeNode) Describe() []string {
	if n.expr == nil {
		return nil
	}
	return []string{"expr: " + n.expr.String()}
}

// barrier is a delegate operator that never accepts a rewrite.
type barrier struct {
	*fakeNode
}

func (b *barrier) IsMap() bool { return true }
func (b *barrier) NewInstance() hybridqp.DelegateOperator { return &barrier{fakeNode: newFakeNode(b.name, "")} }
func (b *barrier) UsedVariables() []influxql.VarRef { return nil }
func (b *barrier) ProducedVariables() []influxql.VarRef { return nil }
func (b *barrier) AcceptExpressionTransform(hybridqp.ExprTransformVisitor) bool {
	b.offered++
	return false
}

func TestPushDownExprs(t *testing.T) {
	below := newFakeNode("below", "a + 1")
	stop := &barrier{fakeNode: newFakeNode("barrier", "", below)}
	side := newFakeNode("side", "a > 2")
	root := newFakeNode("root", "a = b", stop, side)

	renamer := &hybridqp.VarRefRenamer{Mapping: map[string]string{"a": "c"}}
	assert.Equal(t, 2, hybridqp.PushDownExprs(root, renamer))

	assert.Equal(t, "c = b", root.expr.String())
	assert.Equal(t, "c > 2", side.expr.String())
	assert.Equal(t, "a + 1", below.expr.String())
	assert.Equal(t, 1, stop.offered)
	assert.Equal(t, 0, below.offered)
}

func TestVarRefRenamer(t *testing.T) {
	renamer := &hybridqp.VarRefRenamer{Mapping: map[string]string{"x": "y", "same": "same"}}
	expr := influxql.MustParseExpr("x + same")

	out, changed := renamer.TransformExpr(expr)
	require.True(t, changed)
	assert.Equal(t, "y + same", out.String())
	assert.Equal(t, "x + same", expr.String(), "the input is not modified")

	_, changed = renamer.TransformExpr(influxql.MustParseExpr("same * 2"))
	assert.False(t, changed)
}

func TestExplainAndWalk(t *testing.T) {
	leaf := newFakeNode("leaf", "")
	mid := newFakeNode("mid", "a", leaf)
	root := newFakeNode("root", "", mid, nil)

	out := hybridqp.Explain(root)
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "mid")
	assert.Contains(t, out, "expr: a")
	assert.Contains(t, out, "leaf")

	var post []string
	hybridqp.WalkQueryNodeInPostOrder(visitFunc(func(n hybridqp.QueryNode) {
		post = append(post, n.String())
	}), root)
	assert.Equal(t, []string{"leaf", "mid", "root"}, post)

	flat := hybridqp.Flatten(root)
	require.Len(t, flat, 3)
	assert.Equal(t, "leaf", flat[2].String())
}

type visitFunc func(hybridqp.QueryNode)

func (f visitFunc) Visit(n hybridqp.QueryNode) hybridqp.QueryNodeVisitor {
	f(n)
	return f
}
