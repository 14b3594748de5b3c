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

package app

import (
	"fmt"
	"runtime"

	"github.com/openGemini/intervaljoin/lib/config"
	"github.com/openGemini/intervaljoin/lib/logger"
	"github.com/pkg/errors"
)

// Version information, the value is set by the build script
var (
	Version   string
	GitCommit string
	GitBranch string
	BuildTime string
)

// FullVersion returns the full version string.
func FullVersion(app string) string {
	const format = `ivjoin version info:
%s: %s
git: %s %s
build: %s
os: %s
arch: %s`

	return fmt.Sprintf(format, app, Version, GitBranch, GitCommit, BuildTime, runtime.GOOS, runtime.GOARCH)
}

// InitConfig loads conf from the toml file at path, applies environment
// overrides read through getenv, then starts logging and validates.
// An empty path keeps the defaults.
func InitConfig(conf config.Config, path string, getenv func(string) string) error {
	if err := config.Parse(conf, path); err != nil {
		return errors.WithMessage(err, "parse config")
	}

	if getenv != nil {
		if err := conf.ApplyEnvOverrides(getenv); err != nil {
			return errors.WithMessage(err, "apply env overrides")
		}
	}

	if lc := conf.GetLogging(); lc != nil {
		logger.InitLogger(*lc)
	}

	return conf.Validate()
}
