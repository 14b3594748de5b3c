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

package interval_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/openGemini/intervaljoin/lib/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalAndRead(t *testing.T) {
	prefix := []byte("row-1|")
	buf := interval.Marshal(append([]byte{}, prefix...), interval.TagTimestamp, -5, 1700000000000)
	require.Equal(t, len(prefix)+interval.Size, len(buf))

	off := len(prefix)
	assert.Equal(t, int64(-5), interval.Start(buf, off))
	assert.Equal(t, int64(1700000000000), interval.End(buf, off))
	assert.Equal(t, interval.TagTimestamp, interval.TagOf(buf, off))
	assert.NoError(t, interval.Validate(buf, off))

	iv := interval.Decode(buf, off)
	assert.Equal(t, interval.Interval{Tag: interval.TagTimestamp, Start: -5, End: 1700000000000}, iv)
	assert.Equal(t, "[-5,1700000000000)", iv.String())
}

func TestBigEndianLayout(t *testing.T) {
	buf := make([]byte, interval.Size)
	buf[interval.TagOffset] = byte(interval.TagInteger)
	binary.BigEndian.PutUint64(buf[interval.StartOffset:], 5)
	binary.BigEndian.PutUint64(buf[interval.EndOffset:], 20)

	assert.Equal(t, int64(5), interval.Start(buf, 0))
	assert.Equal(t, int64(20), interval.End(buf, 0))
	assert.NoError(t, interval.Validate(buf, 0))
	assert.Equal(t, buf, interval.Marshal(nil, interval.TagInteger, 5, 20))

	neg := make([]byte, interval.Size)
	neg[interval.TagOffset] = byte(interval.TagTimestamp)
	binary.BigEndian.PutUint64(neg[interval.StartOffset:], 0xfffffffffffffffd)
	binary.BigEndian.PutUint64(neg[interval.EndOffset:], 0)
	assert.Equal(t, int64(-3), interval.Start(neg, 0))
	assert.Equal(t, int64(0), interval.End(neg, 0))
	assert.Equal(t, neg, interval.Marshal(nil, interval.TagTimestamp, -3, 0))
}

func TestExtremes(t *testing.T) {
	buf := interval.Marshal(nil, interval.TagInteger, math.MinInt64, math.MaxInt64)
	assert.Equal(t, int64(math.MinInt64), interval.Start(buf, 0))
	assert.Equal(t, int64(math.MaxInt64), interval.End(buf, 0))
	assert.NoError(t, interval.Validate(buf, 0))
}

func TestValidate(t *testing.T) {
	good := interval.Marshal(nil, interval.TagDate, 3, 3)
	assert.NoError(t, interval.Validate(good, 0))

	err := interval.Validate(good[:interval.Size-1], 0)
	assert.True(t, errno.Equal(err, errno.IntervalTruncated), "%v", err)

	err = interval.Validate(good, 1)
	assert.True(t, errno.Equal(err, errno.IntervalTruncated), "%v", err)

	err = interval.Validate(good, -1)
	assert.True(t, errno.Equal(err, errno.IntervalMalformed), "%v", err)

	badTag := append([]byte{}, good...)
	badTag[interval.TagOffset] = 0x7f
	err = interval.Validate(badTag, 0)
	assert.True(t, errno.Equal(err, errno.IntervalInvalidTag), "%v", err)

	inverted := interval.Marshal(nil, interval.TagInteger, 10, 1)
	err = interval.Validate(inverted, 0)
	assert.True(t, errno.Equal(err, errno.IntervalInvalidSpan), "%v", err)
	assert.True(t, errno.IsFatal(err))
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "integer", interval.TagInteger.String())
	assert.Equal(t, "timestamp", interval.TagTimestamp.String())
	assert.Equal(t, "date", interval.TagDate.String())
	assert.Equal(t, "tag(0x09)", interval.Tag(9).String())
}
