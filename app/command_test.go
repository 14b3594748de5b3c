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

package app_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openGemini/intervaljoin/app"
	"github.com/openGemini/intervaljoin/lib/config"
	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ivjoin.conf")
	txt := `
[logging]
  path = "` + filepath.ToSlash(dir) + `"
[join]
  partitions = 2
`
	require.NoError(t, os.WriteFile(file, []byte(txt), 0600))
	defer logger.CloseLogger()

	conf := config.NewTSIntervalJoin()
	env := map[string]string{"IVJ_JOIN_CHUNK_SIZE": "7"}
	require.NoError(t, app.InitConfig(conf, file, func(k string) string { return env[k] }))
	assert.Equal(t, 2, conf.Join.Partitions)
	assert.Equal(t, 7, conf.Join.ChunkSize)
}

func TestInitConfigErrors(t *testing.T) {
	conf := config.NewTSIntervalJoin()
	err := app.InitConfig(conf, filepath.Join(t.TempDir(), "notFoundFile"), nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse config: "), err.Error())

	conf = config.NewTSIntervalJoin()
	conf.Logging.Stderr = true
	env := map[string]string{"IVJ_JOIN_PARTITIONS": "0"}
	err = app.InitConfig(conf, "", func(k string) string { return env[k] })
	assert.True(t, errno.Equal(err, errno.InvalidConfig), "%v", err)
}

func TestFullVersion(t *testing.T) {
	app.Version = "v0.1.0"
	s := app.FullVersion("ts-ivjoin")
	assert.Contains(t, s, "ts-ivjoin: v0.1.0")
}
