// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package picture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/device"
	"github.com/q191201771/vdecfeed/pkg/level"
)

type Result int

const (
	ResultError     Result = iota // session没有open，或者查询设备失败
	ResultPicture                 // 取到一张图
	ResultNoPicture               // 水位较高，decoder暂时没有输出，不算卡住
	ResultEof                     // drain中并且没有更多的图
	ResultFlushed                 // dequeue出错或者超时，调用方应当reset
	ResultBuffer                  // 需要更多的数据
)

// Picture 取到的一帧，Index需要通过ReleaseFrame还给设备
type Picture struct {
	Index    uint32
	Pts      uint64  // 微秒
	Duration float64 // 微秒
	Aspect   float64 // 显示宽高比，0表示未知
	Level    float64
}

type InfoQuerier interface {
	DecoderInfo() (device.DecoderInfo, error)
}

// Acquirer 取图状态机，每次调用Acquire从头判断一次
//
// Acquire在取图线程调用，CurPts会在写入线程读取，所以内部加锁
//
type Acquirer struct {
	uniqueKey string
	gate      *level.Gate
	dq        device.Dequeuer
	info      InfoQuerier
	timeout   time.Duration
	now       func() time.Time

	mu            sync.Mutex
	drain         bool
	videoRate     int
	aspect        float64
	curPts        uint64
	lastPts       uint64
	lastFrameTime time.Time
}

func NewAcquirer(uniqueKey string, gate *level.Gate, dq device.Dequeuer, info InfoQuerier, timeout time.Duration) *Acquirer {
	a := &Acquirer{
		uniqueKey: uniqueKey,
		gate:      gate,
		dq:        dq,
		info:      info,
		timeout:   timeout,
		now:       time.Now,
		curPts:    base.PtsInvalid,
		lastPts:   base.PtsInvalid,
	}
	a.lastFrameTime = a.now()
	return a
}

// Acquire
//
// @param opened: session是否已经open
//
// @return err: ResultError和ResultFlushed时说明原因，其他情况为nil
//
func (a *Acquirer) Acquire(opened bool) (Result, Picture, error) {
	if !opened {
		return ResultError, Picture{}, base.ErrSessionNotOpened
	}

	ss, err := a.gate.Query(0)
	if err != nil {
		return ResultError, Picture{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	elapsed := now.Sub(a.lastFrameTime)

	dqErr := base.ErrWouldBlock
	if !a.drain && a.gate.CanDequeue(ss) {
		var f device.Frame
		if f, dqErr = a.dq.Dequeue(); dqErr == nil {
			return ResultPicture, a.onFrame(f, ss, now, elapsed), nil
		}
		if !errors.Is(dqErr, base.ErrWouldBlock) {
			Log.Errorf("[%s] dequeue failed. err=%+v", a.uniqueKey, dqErr)
		}
	}

	switch {
	case a.drain:
		return ResultEof, Picture{}, nil
	case a.gate.AboveUpper(ss):
		return ResultNoPicture, Picture{}, nil
	case !errors.Is(dqErr, base.ErrWouldBlock):
		Log.Errorf("[%s] flushed. elapsed since last frame=%s, err=%+v", a.uniqueKey, elapsed, dqErr)
		a.lastFrameTime = now
		return ResultFlushed, Picture{}, fmt.Errorf("%w: %v", base.ErrFatalDequeue, dqErr)
	case elapsed > a.timeout:
		Log.Errorf("[%s] flushed. elapsed since last frame=%s, %s", a.uniqueKey, elapsed, ss.DebugString())
		a.lastFrameTime = now
		return ResultFlushed, Picture{}, base.ErrDeviceTimeout
	}
	return ResultBuffer, Picture{}, nil
}

// SetDrain 调用方没有更多数据时设置，之后Acquire不再dequeue
func (a *Acquirer) SetDrain(drain bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.drain = drain
}

func (a *Acquirer) Drain() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.drain
}

// SetVideoRate 单位为1/96000秒，用于计算第一帧的时长
func (a *Acquirer) SetVideoRate(rate int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.videoRate = rate
}

func (a *Acquirer) VideoRate() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.videoRate
}

func (a *Acquirer) SetAspect(aspect float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aspect = aspect
}

// CurPts 最近一次dequeue到的帧的时间戳，还没有取到过图时为 base.PtsInvalid
func (a *Acquirer) CurPts() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.curPts
}

// RestartClock 重新开始超时计时，比如恢复正常速度播放时
func (a *Acquirer) RestartClock() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastFrameTime = a.now()
}

// Reset decoder reset后清除时间戳
func (a *Acquirer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.curPts = base.PtsInvalid
	a.lastPts = base.PtsInvalid
}

// ---------------------------------------------------------------------------------------------------------------------

func (a *Acquirer) onFrame(f device.Frame, ss level.Snapshot, now time.Time, elapsed time.Duration) Picture {
	a.lastPts = a.curPts
	a.curPts = f.Timestamp

	a.gate.OnPicture()
	a.lastFrameTime = now

	pic := Picture{
		Index: f.Index,
		Pts:   a.curPts,
		Level: ss.Level,
	}
	if a.lastPts == base.PtsInvalid {
		pic.Duration = float64(a.videoRate) * base.TimeBase / base.VideoRateBase
	} else {
		pic.Duration = float64(a.curPts - a.lastPts)
	}

	if a.info != nil {
		if info, err := a.info.DecoderInfo(); err == nil && info.RatioControl != 0 {
			a.aspect = 65536 / float64(info.RatioControl)
		}
	}
	pic.Aspect = a.aspect

	Log.Debugf("[%s] picture. index=%d, pts=%d, dur=%.3fms, ar=%.2f, elf=%s",
		a.uniqueKey, pic.Index, pic.Pts, pic.Duration/1000, pic.Aspect, elapsed)
	return pic
}

func (r Result) String() string {
	switch r {
	case ResultError:
		return "error"
	case ResultPicture:
		return "picture"
	case ResultNoPicture:
		return "no picture"
	case ResultEof:
		return "eof"
	case ResultFlushed:
		return "flushed"
	case ResultBuffer:
		return "buffer"
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}
