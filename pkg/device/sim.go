// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package device

import (
	"io"
	"sync"

	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/vdecfeed/pkg/base"
)

// Sim 内存中模拟的decoder，用于单元测试以及没有硬件时的演示
//
// 输入侧为一个只记录长度的ring buffer，每次check in的pts标记一个packet在输入流中的起始位置，
// 解码即按步长消费输入，packet的起始位置被消费后，如果有空闲的输出buffer，则产出一帧
//
// 与硬件一致，Pause只影响显示，不影响解码
//
type Sim struct {
	uniqueKey string
	conf      SimConfig

	mu            sync.Mutex
	inited        bool
	paused        bool
	initConf      InitConfig
	trickMode     TrickMode
	delayLimitMs  int
	avThreshold   int
	syncThreshold int

	dataLen       int
	writtenTotal  uint64
	consumedTotal uint64
	pending       []simPacket
	ready         []Frame
	slots         []slotState

	pollR int
	pollW int

	writeFault   func(b []byte) (int, error)
	dequeueFault func() error

	stat simStatAtomic
}

type SimConfig struct {
	BufSize      int // 输入ring buffer大小
	Slots        int // 输出buffer个数
	DecodeStep   int // 每次解码消费的字节数，0表示全部
	RatioControl int
	FrameDur     int // 不为0时覆盖初始化时的video rate

	// Tap 不为nil时，设备接收的数据同时写一份到Tap
	Tap io.Writer
}

type SimStat struct {
	WriteBytes  uint64
	WriteCount  uint64
	WouldBlock  uint64
	CheckinPts  uint64
	Decoded     uint64
	Dequeued    uint64
	Rendered    uint64
	Dropped     uint64
	ResetCount  uint64
	LastCheckin uint64
}

type SimOption func(conf *SimConfig)

var defaultSimConfig = SimConfig{
	BufSize: 2 * 1024 * 1024,
	Slots:   8,
}

type simPacket struct {
	offset uint64
	pts    uint64
}

type slotState uint8

const (
	slotFree slotState = iota
	slotReady
	slotHeld
)

type simStatAtomic struct {
	writeBytes  nazaatomic.Uint64
	writeCount  nazaatomic.Uint64
	wouldBlock  nazaatomic.Uint64
	checkinPts  nazaatomic.Uint64
	decoded     nazaatomic.Uint64
	dequeued    nazaatomic.Uint64
	rendered    nazaatomic.Uint64
	dropped     nazaatomic.Uint64
	resetCount  nazaatomic.Uint64
	lastCheckin nazaatomic.Uint64
}

func NewSim(modOptions ...SimOption) *Sim {
	conf := defaultSimConfig
	for _, fn := range modOptions {
		fn(&conf)
	}
	if conf.Slots <= 0 {
		conf.Slots = defaultSimConfig.Slots
	}
	s := &Sim{
		uniqueKey: base.GenUkSimDevice(),
		conf:      conf,
		slots:     make([]slotState, conf.Slots),
		pollR:     -1,
		pollW:     -1,
	}
	Log.Infof("[%s] lifecycle new sim device. conf=%+v", s.uniqueKey, conf)
	return s
}

// ----- Controller ----------------------------------------------------------------------------------------------------

func (s *Sim) Init(conf InitConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initConf = conf
	s.inited = true
	s.paused = false
	s.resetLocked()
	if s.pollW == -1 {
		var err error
		if s.pollR, s.pollW, err = newPollPipe(); err != nil {
			Log.Warnf("[%s] create poll handle failed. err=%+v", s.uniqueKey, err)
		}
	}
	Log.Infof("[%s] init. format=%s, dec=%d, mode=%d, rate=%d, param=0x%x, config=%s",
		s.uniqueKey, conf.Format, conf.DecType, conf.DecMode, conf.VideoRate, conf.Param, conf.Config)
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return nil
	}
	s.inited = false
	if s.pollW != -1 {
		closeFd(s.pollR)
		closeFd(s.pollW)
		s.pollR, s.pollW = -1, -1
	}
	Log.Infof("[%s] lifecycle close sim device.", s.uniqueKey)
	return nil
}

func (s *Sim) Pause() error {
	return s.setPaused(true)
}

func (s *Sim) Resume() error {
	return s.setPaused(false)
}

func (s *Sim) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return base.ErrDeviceClosed
	}
	s.resetLocked()
	s.stat.resetCount.Increment()
	Log.Debugf("[%s] reset.", s.uniqueKey)
	return nil
}

func (s *Sim) SetTrickMode(mode TrickMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trickMode = mode
	return nil
}

func (s *Sim) CheckinPts(ptsUs uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return base.ErrDeviceClosed
	}
	s.pending = append(s.pending, simPacket{offset: s.writtenTotal, pts: ptsUs})
	s.stat.checkinPts.Increment()
	s.stat.lastCheckin.Store(ptsUs)
	return nil
}

func (s *Sim) SetVideoDelayLimitMs(ms int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delayLimitMs = ms
	return nil
}

func (s *Sim) SetAvThreshold(ms int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.avThreshold = ms
	return nil
}

func (s *Sim) SetSyncThreshold(v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncThreshold = v
	return nil
}

func (s *Sim) DecoderInfo() (DecoderInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return DecoderInfo{}, base.ErrDeviceClosed
	}
	info := DecoderInfo{
		RatioControl: s.conf.RatioControl,
		FrameDur:     s.initConf.VideoRate,
	}
	if s.conf.FrameDur != 0 {
		info.FrameDur = s.conf.FrameDur
	}
	return info, nil
}

func (s *Sim) PollHandle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollW
}

// ----- Writer / LevelQuerier -----------------------------------------------------------------------------------------

func (s *Sim) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return 0, base.ErrDeviceClosed
	}
	if s.writeFault != nil {
		if n, err := s.writeFault(b); n != 0 || err != nil {
			if err == base.ErrWouldBlock {
				s.stat.wouldBlock.Increment()
			}
			return n, err
		}
	}

	free := s.conf.BufSize - s.dataLen
	if free <= 0 {
		s.stat.wouldBlock.Increment()
		return 0, base.ErrWouldBlock
	}
	n := len(b)
	if n > free {
		n = free
	}
	if s.conf.Tap != nil {
		_, _ = s.conf.Tap.Write(b[:n])
	}
	s.dataLen += n
	s.writtenTotal += uint64(n)
	s.stat.writeBytes.Add(uint64(n))
	s.stat.writeCount.Increment()
	return n, nil
}

func (s *Sim) QueryLevel() (BufStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return BufStatus{}, base.ErrDeviceClosed
	}
	return BufStatus{
		Size:    s.conf.BufSize,
		DataLen: s.dataLen,
		FreeLen: s.conf.BufSize - s.dataLen,
	}, nil
}

// ----- Dequeuer ------------------------------------------------------------------------------------------------------

func (s *Sim) Dequeue() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return Frame{}, base.ErrDeviceClosed
	}
	if s.dequeueFault != nil {
		if err := s.dequeueFault(); err != nil {
			return Frame{}, err
		}
	}

	s.decodeLocked()
	if len(s.ready) == 0 {
		return Frame{}, base.ErrWouldBlock
	}
	f := s.ready[0]
	s.ready = s.ready[1:]
	s.slots[f.Index] = slotHeld
	s.stat.dequeued.Increment()
	return f, nil
}

func (s *Sim) Queue(index uint32, drop bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return base.ErrDeviceClosed
	}
	if int(index) >= len(s.slots) || s.slots[index] != slotHeld {
		return base.ErrDeviceInvalidIndex
	}
	s.slots[index] = slotFree
	if drop {
		s.stat.dropped.Increment()
	} else {
		s.stat.rendered.Increment()
	}
	return nil
}

// ----- 模拟以及测试辅助 -----------------------------------------------------------------------------------------------------

// Decode 主动触发一次解码，Dequeue内部也会调用
func (s *Sim) Decode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decodeLocked()
}

// SetWriteFault 注入写入时的行为，`fn`返回(0, nil)时按正常流程写入
func (s *Sim) SetWriteFault(fn func(b []byte) (int, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeFault = fn
}

// SetDequeueFault 注入dequeue时的错误，`fn`返回nil时按正常流程dequeue
func (s *Sim) SetDequeueFault(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dequeueFault = fn
}

func (s *Sim) TrickMode() TrickMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trickMode
}

func (s *Sim) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Sim) DelayLimitMs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delayLimitMs
}

func (s *Sim) InitConf() InitConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initConf
}

func (s *Sim) GetStat() SimStat {
	return SimStat{
		WriteBytes:  s.stat.writeBytes.Load(),
		WriteCount:  s.stat.writeCount.Load(),
		WouldBlock:  s.stat.wouldBlock.Load(),
		CheckinPts:  s.stat.checkinPts.Load(),
		Decoded:     s.stat.decoded.Load(),
		Dequeued:    s.stat.dequeued.Load(),
		Rendered:    s.stat.rendered.Load(),
		Dropped:     s.stat.dropped.Load(),
		ResetCount:  s.stat.resetCount.Load(),
		LastCheckin: s.stat.lastCheckin.Load(),
	}
}

func (s *Sim) UniqueKey() string {
	return s.uniqueKey
}

// ---------------------------------------------------------------------------------------------------------------------

func (s *Sim) setPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return base.ErrDeviceClosed
	}
	s.paused = paused
	return nil
}

func (s *Sim) decodeLocked() {
	if !s.inited || s.dataLen == 0 {
		return
	}

	n := s.dataLen
	if s.conf.DecodeStep > 0 && n > s.conf.DecodeStep {
		n = s.conf.DecodeStep
	}

	// 输出buffer全部被占用时decoder停止消费输入
	for len(s.pending) > 0 && s.pending[0].offset < s.consumedTotal+uint64(n) {
		idx := s.freeSlot()
		if idx < 0 {
			n = int(s.pending[0].offset - s.consumedTotal)
			break
		}
		s.slots[idx] = slotReady
		s.ready = append(s.ready, Frame{Index: uint32(idx), Timestamp: s.pending[0].pts})
		s.pending = s.pending[1:]
		s.stat.decoded.Increment()
	}
	s.dataLen -= n
	s.consumedTotal += uint64(n)
}

func (s *Sim) freeSlot() int {
	for i, st := range s.slots {
		if st == slotFree {
			return i
		}
	}
	return -1
}

func (s *Sim) resetLocked() {
	s.dataLen = 0
	s.writtenTotal = 0
	s.consumedTotal = 0
	s.pending = nil
	s.ready = nil
	for i := range s.slots {
		s.slots[i] = slotFree
	}
}
