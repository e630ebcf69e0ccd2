// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vdec

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/device"
	"github.com/q191201771/vdecfeed/pkg/feeder"
	"github.com/q191201771/vdecfeed/pkg/header"
	"github.com/q191201771/vdecfeed/pkg/level"
	"github.com/q191201771/vdecfeed/pkg/picture"
	"github.com/q191201771/vdecfeed/pkg/vformat"
)

// 播放速度，与上层约定的取值一致
const (
	SpeedPause  = 0
	SpeedNormal = 1000
)

const (
	videoDelayLimitMs = 1000
	avSyncThreshold   = 90000 * 30 // 30秒，90KHz
	syncThreshold     = 0
)

// Session 一个硬件decoder的会话
//
// 一个写入线程调用AddData，一个取图线程调用GetPicture、PollFrame以及ReleaseFrame，
// Open、Close、Reset、SetSpeed由调用方保证不与其他调用并发
//
type Session struct {
	uniqueKey string
	dev       device.Decoder
	conf      Config
	startTime string

	opened    bool
	params    vformat.StreamParameters
	format    vformat.VideoFormat
	decType   vformat.DecType
	decMode   vformat.DecMode
	initParam uint32
	speed     int
	hasPts    bool

	plan      *header.Plan
	headerBuf *base.Buffer // 第一个packet之前需要写入的init header
	gate      *level.Gate
	feeder    *feeder.Feeder
	acquirer  *picture.Acquirer
	pkt       *feeder.Packet
	dump      *base.DumpFile
	logDump   base.LogDump

	pollMu    sync.Mutex
	pollFd    int
	syncEvent chan struct{}

	rpuMu sync.Mutex
	rpu   []byte

	stat sessionStatAtomic

	sleep func(d time.Duration)
}

func NewSession(dev device.Decoder, conf Config) *Session {
	uk := base.GenUkDecoderSession()
	s := &Session{
		uniqueKey: uk,
		dev:       dev,
		conf:      conf,
		startTime: base.ReadableNowTime(),
		speed:     SpeedNormal,
		pkt:       feeder.NewPacket(),
		logDump:   base.NewLogDump(Log, 2),
		pollFd:    -1,
		syncEvent: make(chan struct{}, 1),
		sleep:     time.Sleep,
	}
	Log.Infof("[%s] lifecycle new decoder session. session=%p", uk, s)
	return s
}

// Open
//
// `params`会被深拷贝，之后上层修改不影响session
//
func (s *Session) Open(params vformat.StreamParameters) error {
	if s.opened {
		return base.ErrSessionAlreadyOpened
	}

	p := params.Clone()
	s.format = vformat.ResolveFormat(p, s.conf.H2644k2kSupport)
	if s.format == vformat.VideoFormatUnsupported {
		Log.Errorf("[%s] open decoder failed. %s", s.uniqueKey, p.DebugString())
		return fmt.Errorf("%w. codec=%d", base.ErrUnsupportedFormat, p.CodecId)
	}
	s.decType = vformat.ResolveDecType(p)
	if !vformat.KeepExtradata(s.format, p.StreamType) {
		p.Extradata = nil
	}
	s.params = p
	s.decMode = vformat.SelectDecMode(s.format, p, s.conf.DolbyVision)
	s.initParam = vformat.InitParam(s.format, p)
	rate := vformat.CalcVideoRate(p)

	Log.Infof("[%s] open decoder. format=%s, dec type=%d, mode=%s, rate=%d, param=0x%x, %s",
		s.uniqueKey, s.format, s.decType, s.decMode, rate, s.initParam, p.DebugString())

	initConf := device.InitConfig{
		Format:    s.format,
		DecType:   vformat.DeviceDecType(s.format, s.decType),
		DecMode:   s.decMode,
		Width:     p.Width,
		Height:    p.Height,
		VideoRate: rate,
		Param:     s.initParam,
		Config:    vformat.HdrStaticMetadata(s.format, p),
	}
	if err := s.dev.Init(initConf); err != nil {
		Log.Errorf("[%s] codec init failed. err=%+v", s.uniqueKey, err)
		return nazaerrors.Wrap(err)
	}

	s.gate = level.NewGate(s.dev, s.decMode)
	s.acquirer = picture.NewAcquirer(s.uniqueKey, s.gate, s.dev, s.dev, s.conf.decoderTimeout())
	s.acquirer.SetVideoRate(rate)
	s.acquirer.SetAspect(p.Aspect)
	s.feeder = feeder.NewFeeder(s.uniqueKey, s.dev, s.dev, func(option *feeder.Option) {
		option.WriteRetryMax = s.conf.WriteRetryMax
		option.WouldBlockWait = s.conf.wouldBlockWait()
		option.CheckinPts = p.StreamType == vformat.StreamTypeEs
	})
	s.openDump()

	_ = s.dev.Pause()
	_ = s.dev.SetTrickMode(device.TrickModeNone)
	_ = s.dev.SetVideoDelayLimitMs(videoDelayLimitMs)
	_ = s.dev.SetAvThreshold(avSyncThreshold)
	_ = s.dev.SetSyncThreshold(syncThreshold)

	s.plan = header.Resolve(s.format, s.decType, p, s.decMode, s.conf.MaxScratchBytes)
	Log.Debugf("[%s] header plan. %s", s.uniqueKey, s.plan.DebugString())
	s.pkt.Release()
	s.preHeaderFeeding()

	s.hasPts = false
	s.opened = true
	s.speed = SpeedNormal
	s.applySpeed()
	s.SetPollDevice(s.dev.PollHandle())
	return nil
}

// AddData 写入一个access unit
//
// `dts`和`pts`单位为微秒，未知时为 base.PtsInvalid
//
// @return accepted: false时数据没有写入decoder，err说明原因：
//                   base.ErrNotAdmitted 水位或者状态不允许写入，调用方稍后重试即可
//                   base.ErrDeviceStall  decoder卡住，session已经自动reset
//                   其他错误             当前packet写入失败
//
func (s *Session) AddData(data []byte, dts, pts uint64) (accepted bool, err error) {
	if !s.opened {
		s.stat.packetsRejected.Increment()
		return false, base.NewErrNotAdmitted("not opened", 0)
	}

	ss, err := s.gate.Admit(s.opened, len(data))
	if err != nil {
		s.stat.packetsRejected.Increment()
		Log.Debugf("[%s] skip add data. size=%d, %s, dts=%d, pts=%d, err=%+v",
			s.uniqueKey, len(data), ss.DebugString(), dts, pts, err)
		return false, err
	}

	pkt := s.pkt
	pkt.Init(data)

	s.fillTimestamp(pkt, dts, pts)
	if err = s.setHeaderInfo(pkt); err != nil {
		pkt.Release()
		s.stat.packetsRejected.Increment()
		Log.Warnf("[%s] set header failed. err=%+v", s.uniqueKey, err)
		return false, err
	}
	size := pkt.Size()

	if s.logDump.ShouldDump() {
		s.logDump.DumpBytes(fmt.Sprintf("[%s] add data. pts=%d, dts=%d, header=%d", s.uniqueKey, pkt.Pts, pkt.Dts, pkt.HeaderLen()),
			pkt.Payload(), 32)
	}

	loop, err := s.feeder.Feed(pkt)
	if err != nil {
		if errors.Is(err, base.ErrDeviceStall) {
			Log.Warnf("[%s] decoder stuck, reset. loop=%d, err=%+v", s.uniqueKey, loop, err)
			s.stat.stalls.Increment()
			s.Reset()
			return false, err
		}
		Log.Errorf("[%s] write packet failed. err=%+v", s.uniqueKey, err)
		pkt.Release()
		return false, err
	}

	if size > s.conf.LargePacketBytes {
		s.sleep(s.conf.largePacketWait())
	}

	s.stat.packetsAccepted.Increment()
	s.stat.bytesAccepted.Add(uint64(size))
	Log.Debugf("[%s] add data. size=%d(%d), %s, dts=%d, pts=%d",
		s.uniqueKey, size, ss.Chunk, ss.DebugString(), dts, pts)
	return true, nil
}

// GetPicture 取一次图
func (s *Session) GetPicture() (picture.Result, picture.Picture, error) {
	if !s.opened {
		return picture.ResultError, picture.Picture{}, base.ErrSessionNotOpened
	}
	r, pic, err := s.acquirer.Acquire(s.opened)
	s.stat.onPictureResult(r)
	return r, pic, err
}

// SetDrain 上层没有更多数据时设置为true，之后GetPicture返回 picture.ResultEof
func (s *Session) SetDrain(drain bool) {
	if s.acquirer != nil {
		s.acquirer.SetDrain(drain)
	}
}

// ReleaseFrame 将GetPicture取到的buffer还给decoder
//
// @param drop: true表示不显示
//
func (s *Session) ReleaseFrame(index uint32, drop bool) error {
	if !s.opened {
		return base.ErrSessionNotOpened
	}
	if err := s.dev.Queue(index, drop); err != nil {
		Log.Warnf("[%s] release frame failed. index=%d, err=%+v", s.uniqueKey, index, err)
		return err
	}
	s.stat.released.Increment()
	if drop {
		s.stat.dropped.Increment()
	}
	return nil
}

// SetSpeed
//
// 与当前速度相同时什么也不做，没有open时只记录下来，open时再生效
//
func (s *Session) SetSpeed(speed int) {
	if s.speed == speed {
		return
	}
	Log.Debugf("[%s] set speed. speed=%d", s.uniqueKey, speed)
	s.speed = speed
	if !s.opened {
		return
	}
	s.applySpeed()
}

func (s *Session) Speed() int {
	return s.speed
}

// Reset 不关闭decoder的情况下重新初始化，stream parameters保持不变
func (s *Session) Reset() {
	if !s.opened {
		return
	}
	Log.Infof("[%s] reset decoder.", s.uniqueKey)

	if s.speed != SpeedNormal {
		_ = s.dev.SetTrickMode(device.TrickModeNone)
	}
	_ = s.dev.Pause()
	if err := s.dev.Reset(); err != nil {
		Log.Warnf("[%s] codec reset failed. err=%+v", s.uniqueKey, err)
	}
	_ = s.dev.SetVideoDelayLimitMs(videoDelayLimitMs)

	s.closeDump()
	s.openDump()

	s.pkt.Release()
	s.preHeaderFeeding()

	s.acquirer.Reset()
	s.gate.Reset()
	s.logDump.Reset()
	s.hasPts = false
	s.stat.resets.Increment()

	s.applySpeed()
	s.SetPollDevice(s.dev.PollHandle())
}

func (s *Session) Close() {
	if !s.opened {
		return
	}
	Log.Infof("[%s] lifecycle close decoder session.", s.uniqueKey)

	s.SetPollDevice(-1)
	if s.speed != SpeedNormal {
		_ = s.dev.SetTrickMode(device.TrickModeNone)
	}
	if err := s.dev.Close(); err != nil {
		Log.Warnf("[%s] codec close failed. err=%+v", s.uniqueKey, err)
	}
	s.closeDump()
	s.opened = false

	s.pkt.Release()
	if s.headerBuf != nil {
		s.headerBuf.Release()
		s.headerBuf = nil
	}
	s.params = vformat.StreamParameters{}
}

// ----- poll ----------------------------------------------------------------------------------------------------------

// SetPollDevice 设置PollFrame等待的描述符，-1表示不等待
func (s *Session) SetPollDevice(fd int) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	s.pollFd = fd
}

// PollFrame 等待decoder可以接收数据，或者超时
//
// 等待结束后通知SyncEvent
//
// @return 没有可用的描述符时返回false
//
func (s *Session) PollFrame() bool {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.pollFd < 0 {
		return false
	}
	if _, err := device.PollWritable(s.pollFd, s.conf.pollTimeout()); err != nil {
		Log.Debugf("[%s] poll failed. fd=%d, err=%+v", s.uniqueKey, s.pollFd, err)
	}
	select {
	case s.syncEvent <- struct{}{}:
	default:
	}
	return true
}

// SyncEvent 每次PollFrame结束后可读
func (s *Session) SyncEvent() <-chan struct{} {
	return s.syncEvent
}

// ----- 其他 ------------------------------------------------------------------------------------------------------------

// SetVideoRate 修改帧间隔，单位为1/96000秒
func (s *Session) SetVideoRate(rate int) {
	if s.acquirer != nil {
		s.acquirer.SetVideoRate(rate)
	}
}

func (s *Session) VideoRate() int {
	if s.acquirer == nil {
		return 0
	}
	return s.acquirer.VideoRate()
}

// FrameDuration90k 帧间隔，单位为1/90000秒
func (s *Session) FrameDuration90k() int {
	return s.VideoRate() * 90000 / base.VideoRateBase
}

// GetDecoderVideoRate decoder实际检测到的帧间隔，单位为1/96000秒
//
// 非正常速度播放或者没有open时返回0
//
func (s *Session) GetDecoderVideoRate() int {
	s.pollMu.Lock()
	fd := s.pollFd
	s.pollMu.Unlock()
	if s.speed != SpeedNormal || fd < 0 {
		return 0
	}
	info, err := s.dev.DecoderInfo()
	if err != nil || info.FrameDur <= 0 {
		return 0
	}
	return info.FrameDur
}

// DolbyVisionRpu 最近一次从AV1 metadata中提取出的dolby vision rpu，没有时为nil
func (s *Session) DolbyVisionRpu() []byte {
	s.rpuMu.Lock()
	defer s.rpuMu.Unlock()
	if s.rpu == nil {
		return nil
	}
	return append([]byte(nil), s.rpu...)
}

func (s *Session) Opened() bool {
	return s.opened
}

func (s *Session) Format() vformat.VideoFormat {
	return s.format
}

func (s *Session) DecMode() vformat.DecMode {
	return s.decMode
}

func (s *Session) PacketState() feeder.State {
	return s.pkt.State()
}

func (s *Session) UniqueKey() string {
	return s.uniqueKey
}

func (s *Session) Stat() StatSession {
	out := StatSession{
		SessionId: s.uniqueKey,
		StartTime: s.startTime,
		Format:    s.format.String(),
		DecMode:   s.decMode.String(),
	}
	s.stat.fill(&out)
	return out
}

// ---------------------------------------------------------------------------------------------------------------------

// preHeaderFeeding 合成init header，在下一个packet之前写入
func (s *Session) preHeaderFeeding() {
	if s.headerBuf != nil {
		s.headerBuf.Release()
		s.headerBuf = nil
	}
	hdr, err := s.plan.BuildInit()
	if err != nil {
		Log.Warnf("[%s] build init header failed. err=%+v", s.uniqueKey, err)
		return
	}
	if hdr != nil {
		s.headerBuf = base.NewBufferRefBytes(hdr)
	}
}

// fillTimestamp
//
// pts不可信或者未知时为无效值，dts未知时使用pts；
// 只使用关键帧pts的decoder，pts无效时使用dts；
// 还没有取到过图并且从来没有有效pts时，使用dts初始化decoder的时间
//
func (s *Session) fillTimestamp(pkt *feeder.Packet, dts, pts uint64) {
	if s.params.PtsInvalid || pts == base.PtsInvalid {
		pkt.Pts = base.PtsInvalid
	} else {
		pkt.Pts = pts
		s.hasPts = true
	}

	if dts == base.PtsInvalid {
		pkt.Dts = pkt.Pts
	} else {
		pkt.Dts = dts
		if pkt.Pts == base.PtsInvalid && s.initParam&vformat.InitParamKeyframePtsOnly != 0 {
			pkt.Pts = pkt.Dts
		}
	}

	if s.acquirer.CurPts() == base.PtsInvalid && !s.hasPts {
		pkt.Pts = pkt.Dts
	}
}

// setHeaderInfo 重新封装以及帧前缀
//
// 重新封装和帧前缀只针对调用方给出的数据，还没有写入的init header放在帧前缀之前，
// 作为同一个header先于payload写入
//
func (s *Session) setHeaderInfo(pkt *feeder.Packet) error {
	if s.plan.Repack != header.RepackNone {
		payload := pkt.Payload()
		extractRpu := s.plan.Repack == header.RepackAv1 && vformat.DolbyVisionEnabled(s.params, s.conf.DolbyVision)
		data, rpu, err := s.plan.RepackFrame(payload, extractRpu)
		if err != nil {
			s.stat.malformed.Increment()
			Log.Warnf("[%s] repack failed, pass through. repack=%s, size=%d, err=%+v", s.uniqueKey, s.plan.Repack, len(payload), err)
		}
		if len(data) != len(payload) {
			pkt.SetPayload(base.NewBufferRefBytes(data))
		}
		if rpu != nil {
			pkt.Rpu = rpu
			s.setRpu(rpu)
			if s.dump != nil {
				_ = s.dump.WriteWithType(rpu, base.DumpTypeRpu, pkt.DumpTimestamp())
			}
		}
	}

	prefix, err := s.plan.BuildFrame(pkt.Payload())
	if err != nil && !errors.Is(err, base.ErrHeaderUnsupported) {
		Log.Warnf("[%s] build frame header failed. err=%+v", s.uniqueKey, err)
	}

	if s.headerBuf == nil || s.headerBuf.Len() == 0 {
		if prefix != nil {
			pkt.SetHeader(base.NewBufferRefBytes(prefix))
			s.stat.headerBytes.Add(uint64(len(prefix)))
		}
		return nil
	}

	initLen := s.headerBuf.Len()
	Log.Debugf("[%s] feed init header before first frame. init=%d, prefix=%d", s.uniqueKey, initLen, len(prefix))
	hdr := base.NewBufferWithLimit(initLen+len(prefix), s.conf.MaxScratchBytes)
	if _, err = hdr.Write(s.headerBuf.Bytes()); err == nil && len(prefix) > 0 {
		_, err = hdr.Write(prefix)
	}
	if err != nil {
		return err
	}
	s.headerBuf.Release()
	s.headerBuf = nil
	pkt.SetHeader(hdr)
	s.stat.headerBytes.Add(uint64(initLen + len(prefix)))
	return nil
}

func (s *Session) setRpu(rpu []byte) {
	s.rpuMu.Lock()
	defer s.rpuMu.Unlock()
	s.rpu = rpu
	s.stat.rpus.Increment()
}

func (s *Session) applySpeed() {
	switch s.speed {
	case SpeedPause:
		_ = s.dev.SetTrickMode(device.TrickModeNone)
	case SpeedNormal:
		_ = s.dev.SetTrickMode(device.TrickModeNone)
		s.acquirer.RestartClock()
	default:
		if s.format == vformat.VideoFormatH264 || s.format == vformat.VideoFormatH2644k2k {
			_ = s.dev.SetTrickMode(device.TrickModeFFFB)
		} else {
			_ = s.dev.SetTrickMode(device.TrickModeI)
		}
	}
}

func (s *Session) openDump() {
	if !s.conf.Dump.Enable {
		return
	}
	filename := filepath.Join(s.conf.Dump.OutPath, s.uniqueKey+".vdecdump")
	dump := base.NewDumpFile()
	if err := dump.OpenToWrite(filename); err != nil {
		Log.Warnf("[%s] open dump file failed. filename=%s, err=%+v", s.uniqueKey, filename, err)
		return
	}
	Log.Infof("[%s] dump to file. filename=%s", s.uniqueKey, filename)
	s.dump = dump
	s.feeder.WithDump(dump)
}

func (s *Session) closeDump() {
	if s.dump == nil {
		return
	}
	_ = s.dump.Close()
	s.dump = nil
	s.feeder.WithDump(nil)
}
