// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package feeder

import (
	"errors"
	"time"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/device"
)

// Feeder 将Packet写入decoder
//
// 设备暂时写不进去时，sleep一小段时间后返回给调用方，Packet保持valid，调用方再次调用WriteOnce继续写
//
type Feeder struct {
	uniqueKey string
	w         device.Writer
	c         PtsCheckiner
	option    Option
	dump      *base.DumpFile
	logDump   base.LogDump

	sleep func(d time.Duration)
}

var errWroteTooMuch = errors.New("device wrote more than given")

// PtsCheckiner 写入新的一帧之前，告诉decoder这一帧的pts
type PtsCheckiner interface {
	CheckinPts(ptsUs uint64) error
}

type Option struct {
	// WriteRetryMax Feed内部调用WriteOnce的最大次数，超过后认为decoder卡住
	WriteRetryMax int

	// WouldBlockWait 设备写不进去时的等待时间
	WouldBlockWait time.Duration

	// CheckinPts ES流时为true，PS/TS流的时间戳在流内部
	CheckinPts bool
}

var defaultOption = Option{
	WriteRetryMax:  100,
	WouldBlockWait: 5 * time.Millisecond,
	CheckinPts:     true,
}

type ModOption func(option *Option)

func NewFeeder(uniqueKey string, w device.Writer, c PtsCheckiner, modOptions ...ModOption) *Feeder {
	option := defaultOption
	for _, fn := range modOptions {
		fn(&option)
	}
	return &Feeder{
		uniqueKey: uniqueKey,
		w:         w,
		c:         c,
		option:    option,
		logDump:   base.NewLogDump(Log, 2),
		sleep:     time.Sleep,
	}
}

// WithDump 写入decoder的数据同时写一份到capture文件，`dump`为nil时关闭
func (f *Feeder) WithDump(dump *base.DumpFile) {
	f.dump = dump
}

// Feed 写入Packet，直到写完或者重试次数耗尽
//
// @return loop: 调用WriteOnce的次数
//
// 重试次数耗尽时返回 base.ErrDeviceStall，调用方需要reset decoder
//
func (f *Feeder) Feed(pkt *Packet) (loop int, err error) {
	for pkt.valid && loop < f.option.WriteRetryMax {
		if err = f.WriteOnce(pkt); err != nil {
			return loop, err
		}
		if pkt.valid {
			Log.Debugf("[%s] write looping. loop=%d, %s", f.uniqueKey, loop, pkt.DebugString())
		}
		loop++
	}
	if pkt.valid {
		pkt.state = StateStalled
		return loop, base.NewErrDeviceStall(loop, len(pkt.data)+pkt.HeaderLen())
	}
	return loop, nil
}

// WriteOnce 推进一次Packet的写入
//
// 设备写不进去（would block或者写入0字节）时等待后返回nil，此时Packet仍然valid
// 设备返回其他错误，或者声称写入的字节数比给出的多时，返回 base.ErrFatalWrite
//
func (f *Feeder) WriteOnce(pkt *Packet) error {
	if pkt.newFrame {
		if pkt.valid && !pkt.checkedIn {
			if err := f.checkinPts(pkt); err != nil {
				pkt.state = StateFailed
				return err
			}
			pkt.checkedIn = true
		}

		done, err := f.writeHeader(pkt)
		if err != nil {
			pkt.state = StateFailed
			return err
		}
		if !done {
			return nil
		}
		pkt.newFrame = false
	}

	if len(pkt.data) == 0 && pkt.valid {
		f.drained(pkt)
		return nil
	}

	pkt.state = StateWriting
	for len(pkt.data) > 0 && pkt.valid {
		n, err := f.w.Write(pkt.data)
		if err != nil {
			if errors.Is(err, base.ErrWouldBlock) {
				Log.Debugf("[%s] codec buffer full, try after %s. remain=%d", f.uniqueKey, f.option.WouldBlockWait, len(pkt.data))
				f.sleep(f.option.WouldBlockWait)
				return nil
			}
			pkt.state = StateFailed
			return base.NewErrFatalWrite(err)
		}
		if n > len(pkt.data) {
			pkt.state = StateFailed
			return base.NewErrFatalWrite(errWroteTooMuch)
		}
		// 一个字节都没有写进去，与would block同样处理，计入重试次数
		if n == 0 {
			f.sleep(f.option.WouldBlockWait)
			return nil
		}
		f.dumpWrite(pkt.data[:n], base.DumpTypePayload, pkt)
		pkt.data = pkt.data[n:]
	}
	f.drained(pkt)
	return nil
}

// ---------------------------------------------------------------------------------------------------------------------

func (f *Feeder) checkinPts(pkt *Packet) error {
	if !f.option.CheckinPts || pkt.Pts == base.PtsInvalid || f.c == nil {
		return nil
	}
	if err := f.c.CheckinPts(pkt.Pts); err != nil {
		Log.Debugf("[%s] check in pts failed. pts=%d, err=%+v", f.uniqueKey, pkt.Pts, err)
		return base.NewErrFatalWrite(nazaerrors.Wrap(err))
	}
	return nil
}

// writeHeader 写帧前缀，支持多次调用从上次的位置继续写
//
// @return done: 前缀全部写完（或者不存在）
//
func (f *Feeder) writeHeader(pkt *Packet) (done bool, err error) {
	h := pkt.header
	if h == nil || h.Len() == 0 {
		return true, nil
	}
	pkt.state = StateHeaderPending
	if f.logDump.ShouldDump() {
		f.logDump.Outf("[%s] write header. len=%d, hex=%x", f.uniqueKey, h.Len(), h.Peek(32))
	}

	for h.Len() > 0 {
		b := h.Bytes()
		n, err := f.w.Write(b)
		if err != nil {
			if errors.Is(err, base.ErrWouldBlock) {
				f.sleep(f.option.WouldBlockWait)
				return false, nil
			}
			Log.Warnf("[%s] write header failed. err=%+v", f.uniqueKey, err)
			return false, base.NewErrFatalWrite(err)
		}
		if n > len(b) {
			return false, base.NewErrFatalWrite(errWroteTooMuch)
		}
		if n == 0 {
			f.sleep(f.option.WouldBlockWait)
			return false, nil
		}
		f.dumpWrite(b[:n], base.DumpTypeHeader, pkt)
		h.Skip(n)
	}
	pkt.header = nil
	return true, nil
}

func (f *Feeder) drained(pkt *Packet) {
	pkt.valid = false
	pkt.data = nil
	pkt.scratch = nil
	pkt.state = StateDrained
}

func (f *Feeder) dumpWrite(b []byte, typ base.DumpType, pkt *Packet) {
	if f.dump == nil {
		return
	}
	if err := f.dump.WriteWithType(b, typ, pkt.DumpTimestamp()); err != nil {
		Log.Warnf("[%s] write dump failed. err=%+v", f.uniqueKey, err)
	}
}
