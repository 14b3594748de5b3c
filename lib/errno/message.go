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

type Message struct {
	format string
	level  Level
	module Module
}

func newMessage(format string, module Module, level Level) *Message {
	return &Message{
		format: format,
		level:  level,
		module: module,
	}
}

func newNoticeMessage(format string, module Module) *Message {
	return newMessage(format, module, LevelNotice)
}

func newWarnMessage(format string, module Module) *Message {
	return newMessage(format, module, LevelWarn)
}

func newFatalMessage(format string, module Module) *Message {
	return newMessage(format, module, LevelFatal)
}

var unknownMessage = newNoticeMessage("unknown error", ModuleUnknown)

// The level and module are bound to the code here. Codes whose module is not
// known up front use ModuleUnknown and get the module from the logger.
var messageMap = map[Errno]*Message{
	// common error codes
	InternalError:     newWarnMessage("%v", ModuleUnknown),
	InvalidDataType:   newWarnMessage("invalid data type, exp: %s, got: %s", ModuleUnknown),
	RecoverPanic:      newFatalMessage("runtime panic: %v", ModuleUnknown),
	InvalidBufferSize: newWarnMessage("invalid buffer size, excepted %d; actual %d", ModuleUnknown),
	ShortBufferSize:   newWarnMessage("invalid buffer size, expected greater than %d; actual %d", ModuleUnknown),

	// query engine
	PipelineExecuting:      newNoticeMessage("pipeline executor is executing with %v and %v", ModuleQueryEngine),
	UnsupportedLogicalPlan: newWarnMessage("unsupported logical plan %v, can't build processor from it", ModuleQueryEngine),

	// interval codec
	IntervalMalformed:   newFatalMessage("malformed interval at offset %d: %s", ModuleCodec),
	IntervalTruncated:   newFatalMessage("truncated interval at offset %d: need %d bytes, buffer has %d", ModuleCodec),
	IntervalInvalidTag:  newFatalMessage("invalid interval type tag 0x%02x at offset %d", ModuleCodec),
	IntervalInvalidSpan: newFatalMessage("invalid interval at offset %d: start %d is after end %d", ModuleCodec),

	// forward-sweep interval join
	IntervalOrderViolation: newFatalMessage("%s input is not sorted by start: got %d after %d (sweep point %d, last advanced by %s)", ModuleIntervalJoin),
	TaskStateNotFound:      newFatalMessage("no join state for job %d task %d and chunk is not marked first", ModuleIntervalJoin),
	TaskStateExists:        newFatalMessage("join state for job %d task %d already exists", ModuleIntervalJoin),
	TaskStateFinished:      newFatalMessage("join task (job %d, task %d) already finished", ModuleIntervalJoin),
	TaskCanceled:           newWarnMessage("join task (job %d, task %d) was canceled", ModuleIntervalJoin),
	SideAlreadyExhausted:   newFatalMessage("%s input of job %d task %d delivered after it was exhausted", ModuleIntervalJoin),
	UnknownRelation:        newWarnMessage("unknown interval relation: %s", ModuleIntervalJoin),

	// range split
	InvalidRangeSplit:     newWarnMessage("invalid range split points: %s", ModuleRangeSplit),
	InvalidJoinKey:        newWarnMessage("invalid join key: %s", ModuleRangeSplit),
	InvalidPartition:      newFatalMessage("tuple routed to partition %d but only %d partitions exist", ModuleRangeSplit),
	TupleOutsidePartition: newFatalMessage("%s tuple starting at %d routed to partition [%d, %d)", ModuleRangeSplit),

	// config
	InvalidConfig: newWarnMessage("invalid config: %s", ModuleConfig),
}
