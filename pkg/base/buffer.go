// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"fmt"
)

const growRoundThreshold = 1048576 // 1MB

// Buffer 先进先出可扩容的字节buffer，用于session持有的header以及packet重新打包后的scratch空间
//
// 写入完成后由写设备的一方通过Skip逐步消费，消费完毕后Len()为0。
// 所有权通过Detach显式转移，转移后原Buffer为空，不再引用同一块内存。
//
//   写入方式1
//     buf, err := TryReserveBytes(n)
//     ... // 向buf中写入内容
//     Flush(n)
//
//   写入方式2
//     n, err := Write(buf)
//
//   读取方式
//     buf := Bytes()
//     ... // 写入设备，设备接收了nn字节
//     Skip(nn)
//
type Buffer struct {
	core []byte
	rpos int
	wpos int

	limit int // 0表示不限制
}

func NewBuffer(initCap int) *Buffer {
	return &Buffer{
		core: make([]byte, initCap),
	}
}

// NewBufferWithLimit 扩容后的容量超过`limit`时返回 ErrOutOfMemory
//
func NewBufferWithLimit(initCap int, limit int) *Buffer {
	b := NewBuffer(initCap)
	b.limit = limit
	return b
}

// NewBufferRefBytes
//
// 注意，不拷贝参数`b`的内存块，仅持有，并且`b`的全部内容视为可读数据
//
func NewBufferRefBytes(b []byte) *Buffer {
	return &Buffer{
		core: b,
		wpos: len(b),
	}
}

// ---------------------------------------------------------------------------------------------------------------------

// Bytes Buffer中所有未读数据，不拷贝
//
func (b *Buffer) Bytes() []byte {
	if b.rpos == b.wpos {
		return nil
	}
	return b.core[b.rpos:b.wpos]
}

// Peek 查看指定长度的未读数据，不拷贝，不修改读取偏移位置
//
func (b *Buffer) Peek(n int) []byte {
	if b.rpos == b.wpos {
		return nil
	}
	if b.Len() < n {
		return b.Bytes()
	}
	return b.core[b.rpos : b.rpos+n]
}

// Skip 将前`n`未读数据标记为已读
//
func (b *Buffer) Skip(n int) {
	if n > b.wpos-b.rpos {
		Log.Warnf("[%p] Buffer::Skip too large. n=%d, %s", b, n, b.DebugString())
		b.Reset()
		return
	}
	b.rpos += n
	b.resetIfEmpty()
}

// ---------------------------------------------------------------------------------------------------------------------

// TryGrow 确保Buffer中至少有`n`大小的空间可写
//
func (b *Buffer) TryGrow(n int) error {
	tail := len(b.core) - b.wpos
	if tail >= n {
		return nil
	}

	if b.rpos+tail >= n {
		// 头部加上尾部空闲空间足够，将可读数据移动到头部
		copy(b.core, b.core[b.rpos:b.wpos])
		b.wpos -= b.rpos
		b.rpos = 0
		return nil
	}

	needed := b.Len() + n
	if b.limit > 0 && needed > b.limit {
		return NewErrOutOfMemory(needed, b.limit)
	}
	if needed < growRoundThreshold {
		needed = roundUpPowerOfTwo(needed)
		if b.limit > 0 && needed > b.limit {
			needed = b.limit
		}
	}

	core := make([]byte, needed)
	copy(core, b.core[b.rpos:b.wpos])
	b.core = core
	b.wpos -= b.rpos
	b.rpos = 0
	return nil
}

// WritableBytes 返回当前可写入的字节切片
//
func (b *Buffer) WritableBytes() []byte {
	if len(b.core) == b.wpos {
		return nil
	}
	return b.core[b.wpos:]
}

// TryReserveBytes 返回可写入`n`大小的字节切片，空闲空间不够时内部扩容
//
func (b *Buffer) TryReserveBytes(n int) ([]byte, error) {
	if err := b.TryGrow(n); err != nil {
		return nil, err
	}
	return b.WritableBytes()[:n], nil
}

// Flush 写入完成，更新写入位置
//
func (b *Buffer) Flush(n int) {
	if len(b.core)-b.wpos < n {
		Log.Warnf("[%p] Buffer::Flush too large. n=%d, %s", b, n, b.DebugString())
		b.wpos = len(b.core)
		return
	}
	b.wpos += n
}

// ----- implement io.Writer interface ---------------------------------------------------------------------------------

func (b *Buffer) Write(p []byte) (n int, err error) {
	if err = b.TryGrow(len(p)); err != nil {
		return 0, err
	}
	n = copy(b.core[b.wpos:], p)
	b.wpos += n
	return n, nil
}

// ---------------------------------------------------------------------------------------------------------------------

// Detach 将内存块的所有权转移给返回的Buffer，`b`变为空且不再持有任何内存
//
// 如果`b`中没有可读数据，返回nil
//
func (b *Buffer) Detach() *Buffer {
	if b.Len() == 0 {
		b.Release()
		return nil
	}
	ret := &Buffer{
		core:  b.core,
		rpos:  b.rpos,
		wpos:  b.wpos,
		limit: b.limit,
	}
	b.Release()
	return ret
}

// Truncate 丢弃可读数据末尾`n`大小的数据
//
func (b *Buffer) Truncate(n int) {
	if b.Len() < n {
		Log.Warnf("[%p] Buffer::Truncate too large. n=%d, %s", b, n, b.DebugString())
		b.Reset()
		return
	}
	b.wpos -= n
	b.resetIfEmpty()
}

// Reset 重置读写位置，不释放内存块
//
func (b *Buffer) Reset() {
	b.rpos = 0
	b.wpos = 0
}

// Release 重置并释放内存块
//
func (b *Buffer) Release() {
	b.core = nil
	b.Reset()
}

// ---------------------------------------------------------------------------------------------------------------------

// Len Buffer中还没有读的数据的长度
//
func (b *Buffer) Len() int {
	return b.wpos - b.rpos
}

func (b *Buffer) Cap() int {
	return cap(b.core)
}

func (b *Buffer) DebugString() string {
	return fmt.Sprintf("len(core)=%d, rpos=%d, wpos=%d, limit=%d", len(b.core), b.rpos, b.wpos, b.limit)
}

// ---------------------------------------------------------------------------------------------------------------------

func (b *Buffer) resetIfEmpty() {
	if b.rpos == b.wpos {
		b.Reset()
	}
}

func roundUpPowerOfTwo(n int) int {
	if n <= 2 {
		return 2
	}

	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
