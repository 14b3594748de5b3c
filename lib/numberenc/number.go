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

package numberenc

import (
	"encoding/binary"
)

const (
	Int64SizeBytes  = 8
	Uint64SizeBytes = 8
)

// MarshalUint64Append appends marshaled v to dst and returns the result.
func MarshalUint64Append(dst []byte, u uint64) []byte {
	return append(dst, byte(u>>56), byte(u>>48), byte(u>>40), byte(u>>32), byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

// UnmarshalUint64 returns unmarshaled uint64 from src.
func UnmarshalUint64(src []byte) uint64 {
	return binary.BigEndian.Uint64(src)
}

// MarshalInt64Append appends the big-endian two's complement form of v.
func MarshalInt64Append(dst []byte, v int64) []byte {
	return MarshalUint64Append(dst, uint64(v))
}

// UnmarshalInt64 returns unmarshaled int64 from src.
func UnmarshalInt64(src []byte) int64 {
	return int64(binary.BigEndian.Uint64(src))
}
