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

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

type Node int8
type Module int8
type Errno uint16
type Level uint8

func (l Level) LogStack() bool {
	return l >= LevelFatal
}

var currentNode Node

const (
	NodeUnknown     = 0
	NodeCoordinator = 1
	NodeWorker      = 2
	NodeCli         = 3
)

const (
	ModuleUnknown      = 0
	ModuleQueryEngine  = 1
	ModuleIntervalJoin = 2
	ModuleRangeSplit   = 3
	ModuleCodec        = 4
	ModuleConfig       = 5
	ModuleCli          = 6
)

const (
	LevelNotice = 0
	LevelWarn   = 1
	LevelFatal  = 2
)

type Error struct {
	errno  Errno
	msg    string
	level  Level
	stack  []byte
	module Module
}

func (s *Error) Error() string {
	return s.msg
}

func (s *Error) Level() Level {
	return s.level
}

func (s *Error) Errno() Errno {
	return s.errno
}

func (s *Error) Module() Module {
	return s.module
}

func (s *Error) Stack() []byte {
	return s.stack
}

func NewError(errno Errno, args ...interface{}) *Error {
	msg, ok := messageMap[errno]
	if !ok || msg == nil {
		msg = unknownMessage
		args = nil
	}

	err := &Error{
		errno:  errno,
		msg:    fmt.Sprintf(msg.format, args...),
		level:  msg.level,
		module: msg.module,
	}
	if needStack(err) {
		err.stack = debug.Stack()
	}
	return err
}

func SetNode(node Node) {
	currentNode = node
}

func GetNode() Node {
	return currentNode
}

// Equal reports whether err is a coded error carrying errno.
func Equal(err error, errno Errno) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}

	return e.Errno() == errno
}

// IsFatal reports whether err must abort the owning task.
func IsFatal(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Level() >= LevelFatal
}

func NewThirdParty(err error, module Module) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}

	return Convert(err, ThirdPartyError, module, LevelWarn)
}

func Convert(err error, errno Errno, module Module, level Level) *Error {
	return &Error{
		errno:  errno,
		msg:    err.Error(),
		level:  level,
		module: module,
	}
}

var maxErrno Errno = 9999
var stackStat = make([]int64, maxErrno+1)
var stackLogInterval int64 = 180 // seconds between two stacks of the same errno

func needStack(err *Error) bool {
	if err.errno > maxErrno || !err.level.LogStack() {
		return false
	}

	now := time.Now().Unix()
	last := atomic.LoadInt64(&stackStat[err.errno])
	if now-last > stackLogInterval {
		return atomic.CompareAndSwapInt64(&stackStat[err.errno], last, now)
	}

	return false
}

// Errs keeps the first error reported by a fixed number of concurrent workers.
// call order: Init -> Dispatch (once per worker) -> Err -> Clean
type Errs struct {
	err      error
	lock     sync.Mutex
	wg       sync.WaitGroup
	cnt      int32
	callback func()
}

func NewErrs() *Errs {
	return &Errs{}
}

func (s *Errs) Dispatch(err error) {
	if err != nil {
		s.lock.Lock()
		if s.err == nil {
			s.err = err
			if s.callback != nil {
				s.callback()
			}
		}
		s.lock.Unlock()
	}
	if atomic.AddInt32(&s.cnt, -1) >= 0 {
		s.wg.Done()
	}
}

func (s *Errs) Err() error {
	s.wg.Wait()
	return s.err
}

func (s *Errs) Init(count int, callback func()) {
	s.cnt = int32(count)
	s.wg.Add(count)
	s.callback = callback
}

func (s *Errs) Clean() {
	s.err = nil
	s.callback = nil
	s.cnt = 0
}

type ErrsPool struct {
	pool *sync.Pool
}

var errsPool = &ErrsPool{
	pool: new(sync.Pool),
}

func NewErrsPool() *ErrsPool {
	return errsPool
}

func (u *ErrsPool) Get() *Errs {
	v, ok := u.pool.Get().(*Errs)
	if !ok || v == nil {
		return NewErrs()
	}

	return v
}

func (u *ErrsPool) Put(v *Errs) {
	v.Clean()
	u.pool.Put(v)
}
