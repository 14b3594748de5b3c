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

package executor_test

import (
	"strings"
	"testing"

	"github.com/openGemini/intervaljoin/engine/executor"
	"github.com/openGemini/intervaljoin/engine/hybridqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPlan(t *testing.T) *executor.LogicalIntervalJoin {
	rangeMap, err := executor.NewRangeMap([]int64{10, 20})
	require.NoError(t, err)
	plan, err := executor.BuildIntervalJoinPlan(executor.NewSliceSource("l", nil, 1), executor.NewSliceSource("r", nil, 1),
		leftKey, rightKey, rangeMap, executor.Overlaps{})
	require.NoError(t, err)
	return plan
}

func TestIntervalJoinPlanShape(t *testing.T) {
	plan := buildPlan(t)
	nodes := hybridqp.Flatten(plan)
	require.Len(t, nodes, 5)

	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.String()
	}
	assert.Equal(t, []string{
		"LogicalIntervalJoin",
		"LogicalLocalRangeSplit", "LogicalIntervalScan",
		"LogicalLocalRangeSplit", "LogicalIntervalScan",
	}, names)
	assert.True(t, strings.HasPrefix(plan.Condition().String(), "overlaps("))
	assert.Contains(t, plan.Condition().String(), "r.span")
	assert.Contains(t, plan.Digest(), "LogicalIntervalJoin(overlaps(")
	assert.Equal(t, "*executor.LogicalIntervalJoin", plan.Type())
}

func TestIntervalJoinPlanExplain(t *testing.T) {
	out := hybridqp.Explain(buildPlan(t))
	for _, want := range []string{
		"LogicalIntervalJoin",
		"condition: overlaps(",
		"l.span",
		"partitions: 3 [10,20]",
		"side: right",
	} {
		assert.True(t, strings.Contains(out, want), "missing %q in\n%s", want, out)
	}
	assert.Equal(t, "", hybridqp.Explain(nil))
}

func TestPushDownStopsAtRangeSplit(t *testing.T) {
	plan := buildPlan(t)
	renamer := &hybridqp.VarRefRenamer{Mapping: map[string]string{"l.span": "left.period"}}

	assert.Equal(t, 1, hybridqp.PushDownExprs(plan, renamer))
	assert.Contains(t, plan.Condition().String(), "left.period")
	assert.Equal(t, 0, hybridqp.PushDownExprs(plan, renamer), "nothing left to rename")

	split := plan.Children()[0].(*executor.LogicalLocalRangeSplit)
	assert.Equal(t, "l.span", split.UsedVariables()[0].Val)
}

func TestIntervalJoinPlanClone(t *testing.T) {
	plan := buildPlan(t)
	clone := plan.Clone().(*executor.LogicalIntervalJoin)
	assert.NotEqual(t, plan.ID(), clone.ID())

	renamer := &hybridqp.VarRefRenamer{Mapping: map[string]string{"r.span": "x"}}
	assert.True(t, clone.AcceptExpressionTransform(renamer))
	assert.NotContains(t, plan.Condition().String(), "x")

	scan := clone.Children()[1].Children()[0].(*executor.LogicalIntervalScan)
	assert.Equal(t, executor.RightSide, scan.Side())
	assert.Equal(t, "r", scan.Source().Name())
	scanClone := scan.Clone()
	assert.NotEqual(t, scan.ID(), scanClone.ID())

	clone.ReplaceChild(0, scanClone)
	assert.Same(t, scanClone, clone.Children()[0])
	assert.Panics(t, func() { clone.ReplaceChild(2, scanClone) })
}
