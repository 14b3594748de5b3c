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

package cmd

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/interval"
	"github.com/openGemini/intervaljoin/lib/logger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

const testConf = `
[logging]
  stderr = true
  level = "warn"
[join]
  partitions = 2
  chunk-size = 1
  field-offset = 3
`

func writeFile(t *testing.T, dir, name, content string) string {
	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0600))
	return file
}

func testOptions(t *testing.T, left, right string) *JoinOptions {
	dir := t.TempDir()
	return &JoinOptions{
		ConfigPath: writeFile(t, dir, "ivjoin.conf", testConf),
		Left:       writeFile(t, dir, "left.json", left),
		Right:      writeFile(t, dir, "right.json", right),
		JobID:      1,
	}
}

func readPairs(t *testing.T, out *bytes.Buffer) []PairRecord {
	var pairs []PairRecord
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var p PairRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &p))
		pairs = append(pairs, p)
	}
	return pairs
}

func TestRunJoin(t *testing.T) {
	left := `[{"id":"b","start":2,"end":3},{"id":"a","start":1,"end":10}]`
	right := `[{"id":"x","start":5,"end":20},{"id":"y","start":12,"end":15}]`

	for _, splits := range [][]string{nil, {"5"}, {"2", "4", "11"}} {
		opt := testOptions(t, left, right)
		opt.Splits = splits
		out := &bytes.Buffer{}
		require.NoError(t, RunJoin(context.Background(), opt, out), "splits %v", splits)

		pairs := readPairs(t, out)
		require.Len(t, pairs, 1, "splits %v", splits)
		assert.Equal(t, Record{ID: "a", Start: 1, End: 10}, pairs[0].Left)
		assert.Equal(t, Record{ID: "x", Start: 5, End: 20}, pairs[0].Right)
	}
}

func TestRunJoinContains(t *testing.T) {
	opt := testOptions(t,
		`[{"id":"a","start":0,"end":100}]`,
		`[{"id":"x","start":10,"end":20},{"id":"y","start":90,"end":110}]`)
	opt.Relation = "contains"
	out := &bytes.Buffer{}
	require.NoError(t, RunJoin(context.Background(), opt, out))

	pairs := readPairs(t, out)
	require.Len(t, pairs, 1)
	assert.Equal(t, "x", pairs[0].Right.ID)
}

func TestRunJoinErrors(t *testing.T) {
	opt := testOptions(t, `[]`, `[]`)
	opt.Splits = []string{"ten"}
	err := RunJoin(context.Background(), opt, &bytes.Buffer{})
	assert.True(t, errno.Equal(err, errno.InvalidRangeSplit), "%v", err)

	opt = testOptions(t, `[]`, `[]`)
	opt.Splits = []string{"5", "5"}
	err = RunJoin(context.Background(), opt, &bytes.Buffer{})
	assert.True(t, errno.Equal(err, errno.InvalidRangeSplit), "%v", err)

	opt = testOptions(t, `[]`, `[]`)
	opt.Relation = "during"
	err = RunJoin(context.Background(), opt, &bytes.Buffer{})
	assert.True(t, errno.Equal(err, errno.UnknownRelation), "%v", err)

	opt = testOptions(t, `[]`, `{"id":`)
	err = RunJoin(context.Background(), opt, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decode "), err.Error())

	opt = testOptions(t, `[]`, `[]`)
	opt.Left = filepath.Join(t.TempDir(), "missing.json")
	err = RunJoin(context.Background(), opt, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)), err.Error())
}

func TestRunJoinLogLevel(t *testing.T) {
	opt := testOptions(t, `[{"id":"a","start":1,"end":10}]`, `[{"id":"x","start":5,"end":20}]`)
	opt.LogLevel = "error"
	require.NoError(t, RunJoin(context.Background(), opt, &bytes.Buffer{}))
	assert.Equal(t, zapcore.ErrorLevel, logger.Alevel.Level())

	opt.LogLevel = "loud"
	err := RunJoin(context.Background(), opt, &bytes.Buffer{})
	assert.True(t, errno.Equal(err, errno.InvalidConfig), "%v", err)
}

func TestReadInputsSortsByStart(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "l.json", `[{"id":"c","start":9,"end":9},{"id":"a","start":1,"end":4},{"id":"b","start":1,"end":2}]`)
	right := writeFile(t, dir, "r.json", `[]`)

	inputs, err := readInputs(context.Background(), left, right)
	require.NoError(t, err)
	ids := make([]string, 0, 3)
	for _, r := range inputs[0] {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Empty(t, inputs[1])
	assert.Equal(t, []int64{1, 1, 9}, starts(inputs))
}

func TestRecordCodec(t *testing.T) {
	records := []Record{{ID: "first", Start: -5, End: 5}, {ID: "", Start: 7, End: 7}}
	rows := encodeRecords(records, 2)
	for i, row := range rows {
		assert.Equal(t, 2+interval.Size+len(records[i].ID), len(row))
		assert.NoError(t, interval.Validate(row, 2))
		assert.Equal(t, records[i], decodeRecord(row, 2))
	}
}

func TestExplainCommand(t *testing.T) {
	opt := testOptions(t, `[{"id":"a","start":1,"end":10}]`, `[{"id":"x","start":5,"end":20}]`)
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"explain", "-c", opt.ConfigPath, "--left", opt.Left, "--right", opt.Right, "--splits", "4,8"})
	require.NoError(t, Execute())

	plan := out.String()
	assert.Contains(t, plan, "LogicalIntervalJoin")
	assert.Contains(t, plan, "LogicalLocalRangeSplit")
	assert.Contains(t, plan, "partitions: 3")

	out.Reset()
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, Execute())
	assert.Contains(t, out.String(), TsIntervalJoin)
}
