// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package feeder

import (
	"fmt"

	"github.com/q191201771/vdecfeed/pkg/base"
)

type State int

const (
	StateIdle          State = iota // 没有待写入的数据
	StateHeaderPending              // 帧前缀还没有写完
	StateWriting                    // payload写了一部分
	StateDrained                    // 全部写完
	StateStalled                    // 重试次数耗尽
	StateFailed                     // 设备返回了致命错误
)

// Packet 正在写入decoder的一个access unit
//
// 同一时刻session只有一个Packet，每次AddData复用
//
type Packet struct {
	data    []byte      // 还没有写入的payload
	size    int         // payload总大小
	header  *base.Buffer // 帧前缀，写入payload之前写入，可以分多次写完
	scratch *base.Buffer // 重新打包后的payload的持有者

	Pts      uint64
	Dts      uint64
	Duration uint64
	Rpu      []byte

	valid     bool
	newFrame  bool
	checkedIn bool
	state     State
}

func NewPacket() *Packet {
	return &Packet{
		Pts: base.PtsInvalid,
		Dts: base.PtsInvalid,
	}
}

// Init 准备写入新的payload，`data`的所有权不转移，写完之前调用方不能修改
func (p *Packet) Init(data []byte) {
	p.data = data
	p.size = len(data)
	p.header = nil
	p.scratch = nil
	p.Duration = 0
	p.Rpu = nil
	p.valid = true
	p.newFrame = true
	p.checkedIn = false
	p.state = StateIdle
}

// SetHeader 设置帧前缀，`header`的所有权转移给Packet
func (p *Packet) SetHeader(header *base.Buffer) {
	p.header = header
	if header != nil && header.Len() > 0 {
		p.state = StateHeaderPending
	}
}

// SetPayload 用重新打包后的数据替换payload，`scratch`的所有权转移给Packet
func (p *Packet) SetPayload(scratch *base.Buffer) {
	p.scratch = scratch
	p.data = scratch.Bytes()
	p.size = len(p.data)
}

// Release 丢弃所有未写入的数据，比如decoder reset时
func (p *Packet) Release() {
	p.data = nil
	p.size = 0
	p.header = nil
	p.scratch = nil
	p.Rpu = nil
	p.valid = false
	p.newFrame = false
	p.checkedIn = false
	p.Pts = base.PtsInvalid
	p.Dts = base.PtsInvalid
	p.state = StateIdle
}

func (p *Packet) Payload() []byte {
	return p.data
}

func (p *Packet) Size() int {
	return p.size
}

func (p *Packet) HeaderLen() int {
	if p.header == nil {
		return 0
	}
	return p.header.Len()
}

// Valid 还有没写完的数据
func (p *Packet) Valid() bool {
	return p.valid
}

func (p *Packet) NewFrame() bool {
	return p.newFrame
}

func (p *Packet) State() State {
	return p.state
}

// DumpTimestamp 写入capture文件时使用的时间戳，毫秒
func (p *Packet) DumpTimestamp() uint32 {
	if p.Pts == base.PtsInvalid {
		return 0
	}
	return uint32(p.Pts / 1000)
}

func (p *Packet) DebugString() string {
	return fmt.Sprintf("state=%s, valid=%t, new=%t, size=%d, remain=%d, header=%d, pts=%d, dts=%d",
		p.state, p.valid, p.newFrame, p.size, len(p.data), p.HeaderLen(), p.Pts, p.Dts)
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHeaderPending:
		return "header pending"
	case StateWriting:
		return "writing"
	case StateDrained:
		return "drained"
	case StateStalled:
		return "stalled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}
