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

package interval

import (
	"fmt"

	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/numberenc"
)

// Layout of a serialized interval: [tag:1][start:8][end:8].
const (
	TagOffset   = 0
	StartOffset = 1
	EndOffset   = StartOffset + numberenc.Int64SizeBytes
	Size        = EndOffset + numberenc.Int64SizeBytes
)

// Tag is the domain of the interval endpoints.
type Tag byte

const (
	TagInteger   Tag = 0x01
	TagTimestamp Tag = 0x02
	TagDate      Tag = 0x03
)

func (t Tag) Valid() bool {
	return t >= TagInteger && t <= TagDate
}

func (t Tag) String() string {
	switch t {
	case TagInteger:
		return "integer"
	case TagTimestamp:
		return "timestamp"
	case TagDate:
		return "date"
	default:
		return fmt.Sprintf("tag(0x%02x)", byte(t))
	}
}

// Interval is the decoded form, used by tests and tools. The join never builds it.
type Interval struct {
	Tag   Tag
	Start int64
	End   int64
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)", iv.Start, iv.End)
}

// Marshal appends the serialized interval to dst.
func Marshal(dst []byte, tag Tag, start, end int64) []byte {
	dst = append(dst, byte(tag))
	dst = numberenc.MarshalInt64Append(dst, start)
	return numberenc.MarshalInt64Append(dst, end)
}

// Start reads the start of the interval serialized at off. The buffer must
// have been produced by Marshal; see Validate for untrusted input.
func Start(buf []byte, off int) int64 {
	return numberenc.UnmarshalInt64(buf[off+StartOffset:])
}

// End reads the end of the interval serialized at off.
func End(buf []byte, off int) int64 {
	return numberenc.UnmarshalInt64(buf[off+EndOffset:])
}

func TagOf(buf []byte, off int) Tag {
	return Tag(buf[off+TagOffset])
}

func Decode(buf []byte, off int) Interval {
	return Interval{
		Tag:   TagOf(buf, off),
		Start: Start(buf, off),
		End:   End(buf, off),
	}
}

// Validate checks that buf holds a well formed interval at off.
func Validate(buf []byte, off int) error {
	if off < 0 {
		return errno.NewError(errno.IntervalMalformed, off, "negative offset")
	}
	if len(buf)-off < Size {
		return errno.NewError(errno.IntervalTruncated, off, Size, len(buf))
	}
	if tag := TagOf(buf, off); !tag.Valid() {
		return errno.NewError(errno.IntervalInvalidTag, byte(tag), off)
	}
	if s, e := Start(buf, off), End(buf, off); s > e {
		return errno.NewError(errno.IntervalInvalidSpan, off, s, e)
	}
	return nil
}
