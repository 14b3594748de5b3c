/*
Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.

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
	"os"
	"path"

	"github.com/BurntSushi/toml"
	itoml "github.com/influxdata/influxdb/toml"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Validator interface {
	Validate() error
}

type Config interface {
	ApplyEnvOverrides(func(string) string) error
	Validate() error
	GetLogging() *Logger
}

type App string

const (
	AppIntervalJoin App = "ivjoin"
)

// EnvPrefix is the prefix of environment variables overriding toml keys,
// e.g. IVJ_JOIN_PARTITIONS.
const EnvPrefix = "IVJ"

func Parse(conf Config, path string) error {
	if path == "" {
		return nil
	}

	return fromTomlFile(conf, path)
}

func fromTomlFile(c Config, p string) error {
	content, err := os.ReadFile(path.Clean(p))
	if err != nil {
		return err
	}

	dec := unicode.BOMOverride(transform.Nop)
	content, _, err = transform.Bytes(dec, content)
	if err != nil {
		return err
	}
	return fromToml(c, string(content))
}

func fromToml(c Config, input string) error {
	_, err := toml.Decode(input, c)
	return err
}

// TSIntervalJoin represents the configuration format for the ts-ivjoin binary.
type TSIntervalJoin struct {
	Logging Logger       `toml:"logging"`
	Join    IntervalJoin `toml:"join"`
}

func NewTSIntervalJoin() *TSIntervalJoin {
	return &TSIntervalJoin{
		Logging: NewLogger(AppIntervalJoin),
		Join:    NewIntervalJoin(),
	}
}

func (c *TSIntervalJoin) ApplyEnvOverrides(fn func(string) string) error {
	return itoml.ApplyEnvOverrides(fn, EnvPrefix, c)
}

func (c *TSIntervalJoin) Validate() error {
	items := []Validator{
		c.Logging,
		c.Join,
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *TSIntervalJoin) GetLogging() *Logger {
	return &c.Logging
}
