// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package feeder

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/vdecfeed/pkg/base"
)

// scriptWriter 按脚本依次返回写入结果，脚本用完后全部接收
type scriptWriter struct {
	script []int // >0: 最多接收n字节, 0: would block, -1: 致命错误, -2: 多报告一个字节, -3: 返回(0, nil)
	out    bytes.Buffer
	calls  int
}

var errDevice = errors.New("device")

func (w *scriptWriter) Write(b []byte) (int, error) {
	w.calls++
	if len(w.script) == 0 {
		w.out.Write(b)
		return len(b), nil
	}
	s := w.script[0]
	w.script = w.script[1:]
	switch {
	case s == 0:
		return 0, base.ErrWouldBlock
	case s == -1:
		return 0, errDevice
	case s == -2:
		return len(b) + 1, nil
	case s == -3:
		return 0, nil
	}
	if s > len(b) {
		s = len(b)
	}
	w.out.Write(b[:s])
	return s, nil
}

type fakeCheckin struct {
	pts []uint64
	err error
}

func (c *fakeCheckin) CheckinPts(ptsUs uint64) error {
	c.pts = append(c.pts, ptsUs)
	return c.err
}

func newTestFeeder(w *scriptWriter, c *fakeCheckin, modOptions ...ModOption) (*Feeder, *[]time.Duration) {
	f := NewFeeder("TEST1", w, c, modOptions...)
	var sleeps []time.Duration
	f.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}
	return f, &sleeps
}

func newTestPacket(header, payload []byte, pts uint64) *Packet {
	pkt := NewPacket()
	pkt.Init(payload)
	pkt.Pts = pts
	pkt.Dts = pts
	if header != nil {
		pkt.SetHeader(base.NewBufferRefBytes(append([]byte(nil), header...)))
	}
	return pkt
}

func TestFeeder_Simple(t *testing.T) {
	w := &scriptWriter{}
	c := &fakeCheckin{}
	f, sleeps := newTestFeeder(w, c)

	pkt := newTestPacket([]byte{0, 0, 1, 0xd}, []byte{1, 2, 3}, 40000)
	assert.Equal(t, StateHeaderPending, pkt.State())
	loop, err := f.Feed(pkt)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, loop)
	assert.Equal(t, []byte{0, 0, 1, 0xd, 1, 2, 3}, w.out.Bytes())
	assert.Equal(t, []uint64{40000}, c.pts)
	assert.Equal(t, StateDrained, pkt.State())
	assert.Equal(t, false, pkt.Valid())
	assert.Equal(t, false, pkt.NewFrame())
	assert.Equal(t, 0, len(*sleeps))
}

func TestFeeder_PartialAndWouldBlock(t *testing.T) {
	w := &scriptWriter{script: []int{2, 0, 1, 0, 3}}
	c := &fakeCheckin{}
	f, sleeps := newTestFeeder(w, c)

	pkt := newTestPacket([]byte{0xa, 0xb, 0xc}, []byte{1, 2, 3, 4, 5}, 1000)

	// 前缀写了2字节后would block
	err := f.WriteOnce(pkt)
	assert.Equal(t, nil, err)
	assert.Equal(t, StateHeaderPending, pkt.State())
	assert.Equal(t, true, pkt.Valid())
	assert.Equal(t, 1, pkt.HeaderLen())

	// 前缀写完，payload写了0字节后would block
	err = f.WriteOnce(pkt)
	assert.Equal(t, nil, err)
	assert.Equal(t, StateWriting, pkt.State())
	assert.Equal(t, 5, len(pkt.Payload()))

	err = f.WriteOnce(pkt)
	assert.Equal(t, nil, err)
	assert.Equal(t, StateDrained, pkt.State())
	assert.Equal(t, []byte{0xa, 0xb, 0xc, 1, 2, 3, 4, 5}, w.out.Bytes())

	// pts只check in一次
	assert.Equal(t, []uint64{1000}, c.pts)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, *sleeps)
}

func TestFeeder_Stall(t *testing.T) {
	script := make([]int, 10)
	w := &scriptWriter{script: script}
	f, _ := newTestFeeder(w, &fakeCheckin{}, func(option *Option) {
		option.WriteRetryMax = 10
	})

	pkt := newTestPacket(nil, []byte{1, 2, 3}, base.PtsInvalid)
	loop, err := f.Feed(pkt)
	assert.Equal(t, 10, loop)
	assert.Equal(t, true, errors.Is(err, base.ErrDeviceStall))
	assert.Equal(t, StateStalled, pkt.State())
}

func TestFeeder_CompleteOnLastRetry(t *testing.T) {
	// 第10次写完，不算卡住
	script := make([]int, 9)
	w := &scriptWriter{script: script}
	f, _ := newTestFeeder(w, &fakeCheckin{}, func(option *Option) {
		option.WriteRetryMax = 10
	})

	pkt := newTestPacket(nil, []byte{1, 2, 3}, base.PtsInvalid)
	loop, err := f.Feed(pkt)
	assert.Equal(t, nil, err)
	assert.Equal(t, 10, loop)
	assert.Equal(t, StateDrained, pkt.State())
}

func TestFeeder_Fatal(t *testing.T) {
	w := &scriptWriter{script: []int{-1}}
	f, _ := newTestFeeder(w, &fakeCheckin{})
	pkt := newTestPacket(nil, []byte{1, 2, 3}, base.PtsInvalid)
	_, err := f.Feed(pkt)
	assert.Equal(t, true, errors.Is(err, base.ErrFatalWrite))
	assert.Equal(t, StateFailed, pkt.State())

	w = &scriptWriter{script: []int{-2}}
	f, _ = newTestFeeder(w, &fakeCheckin{})
	pkt = newTestPacket(nil, []byte{1, 2, 3}, base.PtsInvalid)
	_, err = f.Feed(pkt)
	assert.Equal(t, true, errors.Is(err, base.ErrFatalWrite))

	// 前缀写入失败
	w = &scriptWriter{script: []int{-1}}
	f, _ = newTestFeeder(w, &fakeCheckin{})
	pkt = newTestPacket([]byte{1}, []byte{1, 2, 3}, base.PtsInvalid)
	_, err = f.Feed(pkt)
	assert.Equal(t, true, errors.Is(err, base.ErrFatalWrite))

	// check in失败
	w = &scriptWriter{}
	f, _ = newTestFeeder(w, &fakeCheckin{err: errDevice})
	pkt = newTestPacket(nil, []byte{1, 2, 3}, 100)
	_, err = f.Feed(pkt)
	assert.Equal(t, true, errors.Is(err, base.ErrFatalWrite))
	assert.Equal(t, 0, w.calls)
}

func TestFeeder_Checkin(t *testing.T) {
	c := &fakeCheckin{}
	f, _ := newTestFeeder(&scriptWriter{}, c)
	_, _ = f.Feed(newTestPacket(nil, []byte{1}, base.PtsInvalid))
	assert.Equal(t, 0, len(c.pts))

	c = &fakeCheckin{}
	f, _ = newTestFeeder(&scriptWriter{}, c, func(option *Option) {
		option.CheckinPts = false
	})
	_, _ = f.Feed(newTestPacket(nil, []byte{1}, 100))
	assert.Equal(t, 0, len(c.pts))
}

func TestFeeder_EmptyPayload(t *testing.T) {
	w := &scriptWriter{}
	f, _ := newTestFeeder(w, &fakeCheckin{})
	pkt := newTestPacket([]byte{9}, nil, base.PtsInvalid)
	loop, err := f.Feed(pkt)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, loop)
	assert.Equal(t, []byte{9}, w.out.Bytes())
	assert.Equal(t, StateDrained, pkt.State())
}

func TestFeeder_Dump(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "feed.vdecdump")
	df := base.NewDumpFile()
	assert.Equal(t, nil, df.OpenToWrite(filename))

	w := &scriptWriter{script: []int{1}}
	f, _ := newTestFeeder(w, &fakeCheckin{})
	f.WithDump(df)
	_, err := f.Feed(newTestPacket([]byte{7, 8}, []byte{1, 2, 3}, 2000000))
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, df.Close())

	rf := base.NewDumpFile()
	assert.Equal(t, nil, rf.OpenToRead(filename))
	defer rf.Close()
	var typs []base.DumpType
	var body []byte
	for {
		m, err := rf.ReadOneMessage()
		if err == io.EOF {
			break
		}
		assert.Equal(t, nil, err)
		assert.Equal(t, uint32(2000), m.Timestamp)
		typs = append(typs, m.Typ)
		body = append(body, m.Body...)
	}
	assert.Equal(t, []base.DumpType{base.DumpTypeHeader, base.DumpTypeHeader, base.DumpTypePayload}, typs)
	assert.Equal(t, []byte{7, 8, 1, 2, 3}, body)
}

func TestPacket_Release(t *testing.T) {
	pkt := newTestPacket([]byte{1}, []byte{2}, 5)
	pkt.Release()
	assert.Equal(t, false, pkt.Valid())
	assert.Equal(t, StateIdle, pkt.State())
	assert.Equal(t, base.PtsInvalid, pkt.Pts)
	assert.Equal(t, 0, pkt.HeaderLen())
	assert.Equal(t, "stalled", StateStalled.String())
}

func TestFeeder_ZeroWrite(t *testing.T) {
	// 设备一直返回(0, nil)时同样受重试次数限制
	w := &scriptWriter{script: []int{-3, -3, -3, -3, -3, -3}}
	f, sleeps := newTestFeeder(w, &fakeCheckin{}, func(option *Option) {
		option.WriteRetryMax = 3
	})
	pkt := newTestPacket(nil, []byte{1, 2, 3}, base.PtsInvalid)
	loop, err := f.Feed(pkt)
	assert.Equal(t, true, errors.Is(err, base.ErrDeviceStall))
	assert.Equal(t, 3, loop)
	assert.Equal(t, 3, w.calls)
	assert.Equal(t, 3, len(*sleeps))
	assert.Equal(t, StateStalled, pkt.State())

	// 前缀写入返回(0, nil)时下次从原位置继续
	w = &scriptWriter{script: []int{-3, 1, -3}}
	f, _ = newTestFeeder(w, &fakeCheckin{})
	pkt = newTestPacket([]byte{0xa, 0xb}, []byte{1, 2}, base.PtsInvalid)
	loop, err = f.Feed(pkt)
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, loop)
	assert.Equal(t, []byte{0xa, 0xb, 1, 2}, w.out.Bytes())
}
