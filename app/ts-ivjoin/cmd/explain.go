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
	"fmt"

	"github.com/openGemini/intervaljoin/engine/hybridqp"
	"github.com/spf13/cobra"
)

func newExplainCmd() *cobra.Command {
	opt := &JoinOptions{}
	c := &cobra.Command{
		Use:   "explain",
		Short: "print the join plan without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := prepareJoin(cmd.Context(), opt)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), hybridqp.Explain(job.plan))
			return nil
		},
	}
	bindJoinFlags(c, opt)
	return c
}
