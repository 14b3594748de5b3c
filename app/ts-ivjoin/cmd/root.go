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
	"context"
	"fmt"

	"github.com/openGemini/intervaljoin/app"
	"github.com/spf13/cobra"
)

const TsIntervalJoin = "ts-ivjoin"

var (
	rootCmd = &cobra.Command{
		Use:           TsIntervalJoin,
		Short:         "interval overlap join tool",
		Long:          `ts-ivjoin joins two files of intervals on an Allen relation using a partitioned forward sweep`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "display the ts-ivjoin version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.FullVersion(TsIntervalJoin))
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(newJoinCmd(), newExplainCmd(), versionCmd)
}
