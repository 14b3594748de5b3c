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
	"os"
	"path/filepath"
	"slices"

	jsoniter "github.com/json-iterator/go"
	"github.com/openGemini/intervaljoin/lib/interval"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one interval of an input file. Files hold a JSON array of records.
type Record struct {
	ID    string `json:"id"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// PairRecord is one output line.
type PairRecord struct {
	Left  Record `json:"left"`
	Right Record `json:"right"`
}

func readRecords(path string) ([]Record, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var records []Record
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	// the sweep needs both inputs ascending by start
	slices.SortStableFunc(records, func(a, b Record) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return records, nil
}

// readInputs reads the left and right files concurrently.
func readInputs(ctx context.Context, left, right string) ([2][]Record, error) {
	var inputs [2][]Record
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range [2]string{left, right} {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := readRecords(path)
			inputs[i] = records
			return err
		})
	}
	return inputs, g.Wait()
}

// encodeRecords serializes records as tuples: offset padding bytes, the
// interval, then the raw id.
func encodeRecords(records []Record, offset int) [][]byte {
	rows := make([][]byte, len(records))
	for i, r := range records {
		row := make([]byte, offset, offset+interval.Size+len(r.ID))
		row = interval.Marshal(row, interval.TagInteger, r.Start, r.End)
		rows[i] = append(row, r.ID...)
	}
	return rows
}

func decodeRecord(row []byte, offset int) Record {
	iv := interval.Decode(row, offset)
	return Record{
		ID:    string(row[offset+interval.Size:]),
		Start: iv.Start,
		End:   iv.End,
	}
}

func starts(inputs [2][]Record) []int64 {
	out := make([]int64, 0, len(inputs[0])+len(inputs[1]))
	for _, records := range inputs {
		for _, r := range records {
			out = append(out, r.Start)
		}
	}
	return out
}
