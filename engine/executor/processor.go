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

package executor

import (
	"context"
	"sync"
	"time"
)

const (
	PORT_CHAN_SIZE int = 1
)

type Port interface {
	Connect(to Port)
	Connected() bool
	Close()
}

type Ports []Port

func (ports Ports) Close() {
	for _, port := range ports {
		port.Close()
	}
}

// TuplePort carries tuple chunks between two processors.
type TuplePort struct {
	State chan *TupleChunk
	once  *sync.Once
}

func NewTuplePort() *TuplePort {
	return &TuplePort{
		State: nil,
		once:  new(sync.Once),
	}
}

func (p *TuplePort) Connect(to Port) {
	p.State = make(chan *TupleChunk, PORT_CHAN_SIZE)
	to.(*TuplePort).State = p.State
}

func (p *TuplePort) Connected() bool {
	return p.State != nil
}

func (p *TuplePort) Close() {
	p.once.Do(func() {
		if p.State != nil {
			close(p.State)
		}
	})
}

// PairPort carries join results out of a partition.
type PairPort struct {
	State chan *PairChunk
	once  *sync.Once
}

func NewPairPort() *PairPort {
	return &PairPort{
		State: nil,
		once:  new(sync.Once),
	}
}

func (p *PairPort) Connect(to Port) {
	p.State = make(chan *PairChunk, PORT_CHAN_SIZE)
	to.(*PairPort).State = p.State
}

func (p *PairPort) Connected() bool {
	return p.State != nil
}

func (p *PairPort) Close() {
	p.once.Do(func() {
		if p.State != nil {
			close(p.State)
		}
	})
}

func Connect(from Port, to Port) {
	from.Connect(to)
}

type Processor interface {
	Work(ctx context.Context) error
	Close()
	Release() error
	Name() string
	GetOutputs() Ports
	GetInputs() Ports
	Explain() []ValuePair
}

type ValuePair struct {
	First  string
	Second interface{}
}

type BaseProcessor struct {
	begin time.Time
	cost  time.Duration
}

func (bp *BaseProcessor) Begin() {
	bp.begin = time.Now()
}

func (bp *BaseProcessor) End() {
	bp.cost = time.Since(bp.begin)
}

func (bp *BaseProcessor) Cost() time.Duration {
	return bp.cost
}

func (bp *BaseProcessor) Release() error {
	return nil
}

type Processors []Processor

func (ps *Processors) Push(p Processor) {
	*ps = append(*ps, p)
}

func (ps Processors) Size() int {
	return len(ps)
}

func (ps Processors) Empty() bool {
	return len(ps) <= 0
}

func (ps Processors) Close() {
	for _, p := range ps {
		p.Close()
	}
}
