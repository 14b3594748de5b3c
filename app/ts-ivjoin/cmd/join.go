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
	"cmp"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/influxdata/influxql"
	"github.com/openGemini/intervaljoin/app"
	"github.com/openGemini/intervaljoin/engine/executor"
	"github.com/openGemini/intervaljoin/lib/config"
	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	leftKey  = influxql.VarRef{Val: "left.span", Type: influxql.Integer}
	rightKey = influxql.VarRef{Val: "right.span", Type: influxql.Integer}
)

// JoinOptions are the flags shared by join and explain. Zero values keep
// the configured setting.
type JoinOptions struct {
	ConfigPath string
	Left       string
	Right      string
	Splits     []string
	Partitions int
	Relation   string
	Output     string
	LogLevel   string
	JobID      uint64
}

func bindJoinFlags(c *cobra.Command, opt *JoinOptions) {
	c.Flags().StringVarP(&opt.ConfigPath, "config", "c", "", "path to the ivjoin configuration file.")
	c.Flags().StringVar(&opt.Left, "left", "", "JSON file holding the left intervals.")
	c.Flags().StringVar(&opt.Right, "right", "", "JSON file holding the right intervals.")
	c.Flags().StringSliceVar(&opt.Splits, "splits", nil, "ascending partition split points; sampled from the inputs when empty.")
	c.Flags().IntVar(&opt.Partitions, "partitions", 0, "number of partitions to sample split points for.")
	c.Flags().StringVar(&opt.Relation, "relation", "", "Allen relation to join on: overlaps or contains.")
	c.Flags().Uint64Var(&opt.JobID, "job-id", 1, "job id tagging the join tasks.")
	c.Flags().StringVar(&opt.LogLevel, "log-level", "", "override the configured log level: debug, info, warn or error.")
	_ = c.MarkFlagRequired("left")
	_ = c.MarkFlagRequired("right")
}

func newJoinCmd() *cobra.Command {
	opt := &JoinOptions{}
	c := &cobra.Command{
		Use:   "join",
		Short: "join two interval files and print the matching pairs as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opt.Output != "" {
				f, err := os.Create(filepath.Clean(opt.Output))
				if err != nil {
					return errors.Wrap(err, "create output")
				}
				defer f.Close()
				out = f
			}
			return RunJoin(cmd.Context(), opt, out)
		},
	}
	bindJoinFlags(c, opt)
	c.Flags().StringVarP(&opt.Output, "output", "o", "", "write pairs to this file instead of stdout.")
	return c
}

// joinJob is a plan ready to run, with the settings it was built from.
type joinJob struct {
	conf *config.TSIntervalJoin
	plan *executor.LogicalIntervalJoin
	opt  executor.IntervalJoinOptions
}

func prepareJoin(ctx context.Context, opt *JoinOptions) (*joinJob, error) {
	conf := config.NewTSIntervalJoin()
	if err := app.InitConfig(conf, opt.ConfigPath, os.Getenv); err != nil {
		return nil, err
	}
	if opt.LogLevel != "" {
		if err := logger.SetLevel(opt.LogLevel); err != nil {
			return nil, errno.NewError(errno.InvalidConfig, "log-level "+opt.LogLevel)
		}
	}
	if opt.Partitions > 0 {
		conf.Join.Partitions = opt.Partitions
	}
	if opt.Relation != "" {
		conf.Join.Relation = opt.Relation
	}
	if err := conf.Join.Validate(); err != nil {
		return nil, err
	}

	relation, err := executor.RelationByName(conf.Join.Relation)
	if err != nil {
		return nil, err
	}

	inputs, err := readInputs(ctx, opt.Left, opt.Right)
	if err != nil {
		return nil, err
	}

	rangeMap, err := buildRangeMap(opt.Splits, inputs, conf.Join.Partitions)
	if err != nil {
		return nil, err
	}

	chunkSize := conf.Join.ChunkSize
	left := executor.NewSliceSource(opt.Left, encodeRecords(inputs[0], conf.Join.FieldOffset), chunkSize)
	right := executor.NewSliceSource(opt.Right, encodeRecords(inputs[1], conf.Join.FieldOffset), chunkSize)
	plan, err := executor.BuildIntervalJoinPlan(left, right, leftKey, rightKey, rangeMap, relation)
	if err != nil {
		return nil, err
	}
	return &joinJob{
		conf: conf,
		plan: plan,
		opt:  executor.NewIntervalJoinOptions(opt.JobID, conf.Join),
	}, nil
}

func buildRangeMap(splits []string, inputs [2][]Record, partitions int) (*executor.RangeMap, error) {
	if len(splits) == 0 {
		return executor.SampleRangeMap(starts(inputs), partitions), nil
	}
	points := make([]int64, 0, len(splits))
	for _, s := range splits {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, errno.NewError(errno.InvalidRangeSplit, s)
		}
		points = append(points, v)
	}
	return executor.NewRangeMap(points)
}

// RunJoin executes the join described by opt and writes one JSON object per pair to w.
func RunJoin(ctx context.Context, opt *JoinOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	job, err := prepareJoin(ctx, opt)
	if err != nil {
		return err
	}
	lg := logger.NewLogger(errno.ModuleCli).With(zap.Uint64("job_id", opt.JobID))

	begin := time.Now()
	pairs, err := executor.ExecuteIntervalJoin(ctx, job.plan, job.opt)
	if err != nil {
		lg.Error("interval join failed", zap.Error(err))
		return err
	}
	lg.Info("interval join finished",
		zap.Int("pairs", len(pairs)),
		zap.String("relation", job.plan.Relation().Name()),
		zap.Duration("duration", time.Since(begin)))

	records := make([]PairRecord, len(pairs))
	offset := job.conf.Join.FieldOffset
	for i, p := range pairs {
		records[i] = PairRecord{Left: decodeRecord(p.Left, offset), Right: decodeRecord(p.Right, offset)}
	}
	// partitions finish in any order
	slices.SortFunc(records, comparePairs)

	stream := json.BorrowStream(w)
	defer json.ReturnStream(stream)
	for i := range records {
		stream.WriteVal(&records[i])
		stream.WriteRaw("\n")
		if stream.Error != nil {
			return errors.Wrap(stream.Error, "encode pairs")
		}
		if stream.Buffered() > 64*1024 {
			if err := stream.Flush(); err != nil {
				return errors.Wrap(err, "write pairs")
			}
		}
	}
	return errors.Wrap(stream.Flush(), "write pairs")
}

func comparePairs(a, b PairRecord) int {
	return cmp.Or(
		cmp.Compare(a.Left.Start, b.Left.Start),
		cmp.Compare(a.Left.End, b.Left.End),
		cmp.Compare(a.Left.ID, b.Left.ID),
		cmp.Compare(a.Right.Start, b.Right.Start),
		cmp.Compare(a.Right.End, b.Right.End),
		cmp.Compare(a.Right.ID, b.Right.ID),
	)
}
