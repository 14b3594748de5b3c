// Copyright Huawei Cloud Computing Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hybridqp

import (
	"github.com/xlab/treeprint"
)

// Describer adds detail lines under a node in Explain output.
type Describer interface {
	Describe() []string
}

// Explain renders the plan rooted at node as a tree.
func Explain(node QueryNode) string {
	if node == nil {
		return ""
	}
	root := treeprint.NewWithRoot(node.String())
	explainChildren(root, node)
	return root.String()
}

func explainChildren(branch treeprint.Tree, node QueryNode) {
	if d, ok := node.(Describer); ok {
		for _, line := range d.Describe() {
			branch.AddNode(line)
		}
	}
	for _, child := range node.Children() {
		if child == nil {
			continue
		}
		explainChildren(branch.AddBranch(child.String()), child)
	}
}
