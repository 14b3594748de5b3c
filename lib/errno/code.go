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

package errno

// common error codes
const (
	InternalError     = 9001
	InvalidDataType   = 9002
	RecoverPanic      = 9003
	InvalidBufferSize = 9005
	ShortBufferSize   = 9006

	// ThirdPartyError errors returned by third-party packages
	ThirdPartyError = 9008
)

// query engine
const (
	PipelineExecuting      = 3001
	UnsupportedLogicalPlan = 3004
)

// interval codec
const (
	IntervalMalformed   = 3101
	IntervalTruncated   = 3102
	IntervalInvalidTag  = 3103
	IntervalInvalidSpan = 3104
)

// forward-sweep interval join
const (
	IntervalOrderViolation = 3201
	TaskStateNotFound      = 3202
	TaskStateExists        = 3203
	TaskStateFinished      = 3204
	TaskCanceled           = 3205
	SideAlreadyExhausted   = 3206
	UnknownRelation        = 3207
)

// range split
const (
	InvalidRangeSplit     = 3301
	InvalidJoinKey        = 3302
	InvalidPartition      = 3303
	TupleOutsidePartition = 3304
)

// config
const (
	InvalidConfig = 3401
)
