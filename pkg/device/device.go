// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package device

import (
	"fmt"

	"github.com/q191201771/vdecfeed/pkg/vformat"
)

// 硬件decoder对外提供的原语
//
// 设备的打开以及sysfs参数等不在这里，由具体的实现负责

// BufStatus decoder输入ring buffer的状态，单位字节
type BufStatus struct {
	Size    int
	DataLen int
	FreeLen int
}

// Frame 从输出队列dequeue出的一帧
type Frame struct {
	Index     uint32
	Timestamp uint64 // 微秒，写入时check in的pts
}

type DecoderInfo struct {
	RatioControl int // 非0时，显示宽高比为65536/RatioControl
	FrameDur     int // 1/96000秒
}

// TrickMode decoder的控制模式
type TrickMode int

const (
	TrickModeNone TrickMode = 0
	TrickModeI    TrickMode = 1 // 只解码I帧
	TrickModeFFFB TrickMode = 2 // 快进快退
)

// InitConfig 初始化decoder时的参数
type InitConfig struct {
	Format    vformat.VideoFormat
	DecType   vformat.DecType
	DecMode   vformat.DecMode
	Width     int
	Height    int
	VideoRate int
	Param     uint32
	Config    string // 额外的配置字符串，比如VP9的HDR静态元数据
}

// Writer
//
// Write 返回设备接收的字节数，可能小于len(b)；
// 完全无法接收时返回 base.ErrWouldBlock；其他错误为致命错误
//
type Writer interface {
	Write(b []byte) (int, error)
}

type LevelQuerier interface {
	QueryLevel() (BufStatus, error)
}

// Dequeuer
//
// Dequeue 没有解码好的帧时返回 base.ErrWouldBlock
// Queue   将dequeue出的buffer还给设备，`drop`为true时不显示
//
type Dequeuer interface {
	Dequeue() (Frame, error)
	Queue(index uint32, drop bool) error
}

type Controller interface {
	Init(conf InitConfig) error
	Close() error
	Pause() error
	Resume() error
	Reset() error
	SetTrickMode(mode TrickMode) error
	CheckinPts(ptsUs uint64) error
	SetVideoDelayLimitMs(ms int) error
	SetAvThreshold(ms int) error
	SetSyncThreshold(v int) error
	DecoderInfo() (DecoderInfo, error)

	// PollHandle 用于等待decoder状态变化的描述符，不可用时返回-1
	PollHandle() int
}

type Decoder interface {
	Writer
	LevelQuerier
	Dequeuer
	Controller
}

func (m TrickMode) String() string {
	switch m {
	case TrickModeNone:
		return "none"
	case TrickModeI:
		return "i"
	case TrickModeFFFB:
		return "fffb"
	}
	return fmt.Sprintf("unknown(%d)", int(m))
}

func (s BufStatus) DebugString() string {
	return fmt.Sprintf("size=%d, data=%d, free=%d", s.Size, s.DataLen, s.FreeLen)
}
