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

package config

import (
	"math"
	"time"

	itoml "github.com/influxdata/influxdb/toml"
)

const (
	DefaultJoinPartitions    = 4
	DefaultJoinChunkSize     = 1024
	DefaultFinishedTaskCache = 1024
	DefaultFinishedTaskTTL   = 5 * time.Minute
	DefaultJoinRelation      = "overlaps"

	MaxJoinPartitions = 4096
)

type IntervalJoin struct {
	Partitions int `toml:"partitions"`
	ChunkSize  int `toml:"chunk-size"`
	// FieldOffset is the byte offset of the serialized interval in each tuple.
	FieldOffset       int            `toml:"field-offset"`
	OrderTolerance    int64          `toml:"order-tolerance"`
	FinishedTaskCache int            `toml:"finished-task-cache"`
	FinishedTaskTTL   itoml.Duration `toml:"finished-task-ttl"`
	Relation          string         `toml:"relation"`
}

func NewIntervalJoin() IntervalJoin {
	return IntervalJoin{
		Partitions:        DefaultJoinPartitions,
		ChunkSize:         DefaultJoinChunkSize,
		FinishedTaskCache: DefaultFinishedTaskCache,
		FinishedTaskTTL:   itoml.Duration(DefaultFinishedTaskTTL),
		Relation:          DefaultJoinRelation,
	}
}

func (c IntervalJoin) Validate() error {
	if err := (intValidator{1, MaxJoinPartitions}).Validate([]intValidatorItem{
		{"join partitions", int64(c.Partitions)},
	}); err != nil {
		return err
	}

	if err := (intValidator{1, math.MaxInt32}).Validate([]intValidatorItem{
		{"join chunk-size", int64(c.ChunkSize)},
		{"join finished-task-cache", int64(c.FinishedTaskCache)},
	}); err != nil {
		return err
	}

	if err := (intValidator{0, math.MaxInt64}).Validate([]intValidatorItem{
		{"join field-offset", int64(c.FieldOffset)},
		{"join order-tolerance", c.OrderTolerance},
	}); err != nil {
		return err
	}

	return stringValidator{}.Validate([]stringValidatorItem{
		{"join relation", c.Relation},
	})
}
