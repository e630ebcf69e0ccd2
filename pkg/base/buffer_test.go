// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"testing"

	"github.com/q191201771/naza/pkg/assert"
)

func TestBuffer(t *testing.T) {
	golden := []byte("1234567890")

	b := NewBuffer(8)
	assert.Equal(t, nil, b.Bytes())
	assert.Equal(t, 8, len(b.WritableBytes()))
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 8, b.Cap())

	// 简单写读
	buf, err := b.TryReserveBytes(5)
	assert.Equal(t, nil, err)
	copy(buf, golden[:5])
	b.Flush(5)
	assert.Equal(t, golden[:5], b.Bytes())
	assert.Equal(t, golden[:2], b.Peek(2))
	b.Skip(5)
	assert.Equal(t, nil, b.Bytes())
	assert.Equal(t, 8, b.Cap())

	// 发生扩容
	n, err := b.Write(golden)
	assert.Equal(t, nil, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, golden, b.Bytes())
	assert.Equal(t, 16, b.Cap())

	// 部分消费，模拟设备只接收了一部分
	b.Skip(3)
	assert.Equal(t, golden[3:], b.Bytes())
	b.Skip(7)
	assert.Equal(t, 0, b.Len())

	// Truncate
	_, _ = b.Write(golden)
	b.Truncate(4)
	assert.Equal(t, golden[:6], b.Bytes())

	// 一些错误
	b.Reset()
	b.Skip(1)
	assert.Equal(t, nil, b.Bytes())
	b.Truncate(1)
	assert.Equal(t, nil, b.Bytes())
	b.Flush(b.Cap() + 1)
	assert.Equal(t, b.Cap(), b.Len())
}

func TestBuffer_Limit(t *testing.T) {
	b := NewBufferWithLimit(4, 12)
	_, err := b.Write(make([]byte, 10))
	assert.Equal(t, nil, err)
	assert.Equal(t, 12, b.Cap())

	_, err = b.Write(make([]byte, 8))
	assert.Equal(t, true, errors.Is(err, ErrOutOfMemory))
	// 失败的写入不改变已有内容
	assert.Equal(t, 10, b.Len())
}

func TestBuffer_Detach(t *testing.T) {
	b := NewBuffer(16)
	_, _ = b.Write([]byte{1, 2, 3})
	b.Skip(1)

	moved := b.Detach()
	assert.Equal(t, []byte{2, 3}, moved.Bytes())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Cap())

	assert.Equal(t, (*Buffer)(nil), b.Detach())

	ref := NewBufferRefBytes([]byte{9, 8})
	assert.Equal(t, 2, ref.Len())
}
