// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package level

import (
	"fmt"
	"sync"

	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/device"
	"github.com/q191201771/vdecfeed/pkg/vformat"
)

// Gate 根据decoder输入buffer的水位，决定是否接收新数据，以及是否可以开始取图
//
// 写入侧（AddData）与取图侧（GetPicture）在不同的线程，所以内部加锁
//
// 水位超过Prime之前不取图（ready锁存，一旦为true直到Reset都不再改变），
// 取图时水位需要高于Floor，frame模式下取到第一张图后Floor降为0
//
type Gate struct {
	q          device.LevelQuerier
	thresholds Thresholds
	streamMode bool

	mu    sync.Mutex
	ready bool
	floor float64
}

// Thresholds 百分比
type Thresholds struct {
	Prime float64 // ready锁存的水位
	Floor float64 // 取图需要的最低水位
	Upper float64 // 取图失败时，水位高于此值认为decoder只是暂时没有输出
}

var (
	StreamThresholds = Thresholds{Prime: 90, Floor: 10, Upper: 100}
	FrameThresholds  = Thresholds{Prime: 5, Floor: 5, Upper: 10}
)

type Snapshot struct {
	Level   float64
	Size    int
	DataLen int
	FreeLen int
	Chunk   int
}

func NewGate(q device.LevelQuerier, mode vformat.DecMode) *Gate {
	streamMode := mode == vformat.DecModeStream
	th := FrameThresholds
	if streamMode {
		th = StreamThresholds
	}
	return &Gate{
		q:          q,
		thresholds: th,
		streamMode: streamMode,
		floor:      th.Floor,
	}
}

// Query 查询水位
//
// @param newChunk: 将要写入的数据所占用的buffer大小，见 CalcChunkSize，只查询当前水位时填0
//
func (g *Gate) Query(newChunk int) (Snapshot, error) {
	st, err := g.q.QueryLevel()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Level:   CalcLevel(st, newChunk),
		Size:    st.Size,
		DataLen: st.DataLen,
		FreeLen: st.FreeLen,
		Chunk:   newChunk,
	}, nil
}

// Admit 写入前的准入判断
//
// 不管是否准入，都会先更新ready锁存
// 不准入时返回 base.ErrNotAdmitted，此时除锁存外不修改任何状态
//
func (g *Gate) Admit(opened bool, dataSize int) (Snapshot, error) {
	if !opened {
		return Snapshot{}, base.NewErrNotAdmitted("not opened", 0)
	}
	ss, err := g.Query(CalcChunkSize(dataSize))
	if err != nil {
		return ss, err
	}

	g.mu.Lock()
	if !g.ready {
		g.ready = ss.Level > g.thresholds.Prime
		g.floor = g.thresholds.Floor
	}
	g.mu.Unlock()

	switch {
	case dataSize == 0:
		return ss, base.NewErrNotAdmitted("empty data", int(ss.Level))
	case ss.FreeLen == 0:
		return ss, base.NewErrNotAdmitted("buffer full", int(ss.Level))
	case ss.Level >= 100:
		return ss, base.NewErrNotAdmitted("level overflow", int(ss.Level))
	}
	return ss, nil
}

// CanDequeue 取图侧判断当前水位是否允许dequeue
func (g *Gate) CanDequeue(ss Snapshot) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready && ss.Level > g.floor
}

// OnPicture 取到一张图后调用，frame模式下不再要求最低水位
func (g *Gate) OnPicture() {
	if g.streamMode {
		return
	}
	g.mu.Lock()
	g.floor = 0
	g.mu.Unlock()
}

// AboveUpper 取图失败时，水位高于上限说明decoder只是暂时没有输出
func (g *Gate) AboveUpper(ss Snapshot) bool {
	return ss.Level > g.thresholds.Upper
}

func (g *Gate) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

func (g *Gate) Floor() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.floor
}

// Reset decoder reset后重新等待水位
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = false
	g.floor = g.thresholds.Floor
}

func (g *Gate) Thresholds() Thresholds {
	return g.thresholds
}

// ---------------------------------------------------------------------------------------------------------------------

// CalcLevel 计算写入`newChunk`之后的水位百分比
//
// 没有空闲空间时为100，size为0时为0
//
func CalcLevel(st device.BufStatus, newChunk int) float64 {
	if st.FreeLen <= 0 {
		return 100
	}
	if st.Size == 0 {
		return 0
	}
	return 100 / float64(st.Size) * float64(st.DataLen+newChunk)
}

const (
	l1CacheBytes        = 64
	pageSize            = 4096
	minFramePaddingSize = l1CacheBytes
)

// CalcChunkSize 一个packet写入decoder后实际占用的buffer大小
//
// 至少填充64字节，小于一页时填充到页对齐，否则64字节对齐
//
func CalcChunkSize(size int) int {
	pad := minFramePaddingSize
	if size < pageSize {
		pad += pageSize - ((size + pad) & (pageSize - 1))
	} else if size&0x3f != 0 {
		pad += 64 - (size & 0x3f)
	}
	return size + pad
}

func (s Snapshot) DebugString() string {
	return fmt.Sprintf("level=%.1f%%, size=%d, data=%d, free=%d, chunk=%d", s.Level, s.Size, s.DataLen, s.FreeLen, s.Chunk)
}
