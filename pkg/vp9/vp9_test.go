// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vp9

import (
	"errors"
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/vdecfeed/pkg/base"
)

func marker(size int) []byte {
	b := []byte{byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size)}
	return append(b, b[0]^0xff, b[1]^0xff, b[2]^0xff, b[3]^0xff, 0, 0, 0, 1, 'A', 'M', 'L', 'V')
}

func TestSplitSuperframe(t *testing.T) {
	// 两个子帧，mag=2: 0xc9 = 110 01 001
	f1 := []byte{0x01, 0x02, 0x03}
	f2 := []byte{0x04, 0x05}
	index := []byte{0xc9, 0x03, 0x00, 0x02, 0x00, 0xc9}
	in := append(append(append([]byte{}, f1...), f2...), index...)

	sf, err := ParseSuperframeIndex(in)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, sf.Frames)
	assert.Equal(t, 2, sf.Mag)
	assert.Equal(t, []int{3, 2}, sf.Sizes)

	out, err := SplitSuperframe(in)
	assert.Equal(t, nil, err)
	assert.Equal(t, len(in)+2*MarkerSize, len(out))

	var golden []byte
	golden = append(golden, marker(7)...)
	golden = append(golden, f1...)
	golden = append(golden, marker(6)...)
	golden = append(golden, f2...)
	golden = append(golden, index...)
	assert.Equal(t, golden, out)

	// Repack走同样的路径
	out2, err := Repack(in)
	assert.Equal(t, nil, err)
	assert.Equal(t, golden, out2)
}

func TestSplitSuperframe_Mag1(t *testing.T) {
	// 0xc1 = 110 00 001，两个子帧，每个大小1字节
	in := []byte{0xaa, 0xbb, 0xcc, 0xc1, 0x01, 0x02, 0xc1}
	out, err := SplitSuperframe(in)
	assert.Equal(t, nil, err)
	assert.Equal(t, len(in)+32, len(out))
	assert.Equal(t, marker(5), out[:16])
	assert.Equal(t, byte(0xaa), out[16])
	assert.Equal(t, marker(6), out[17:33])
	assert.Equal(t, []byte{0xbb, 0xcc}, out[33:35])
}

func TestSplitSuperframe_NotSuperframe(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03}
	out, err := SplitSuperframe(in)
	assert.Equal(t, nil, err)
	assert.Equal(t, in, out)

	_, err = ParseSuperframeIndex(in)
	assert.Equal(t, base.ErrVp9NotSuperframe, err)

	// 单帧插入一个marker
	out, err = Repack(in)
	assert.Equal(t, nil, err)
	assert.Equal(t, append(marker(7), in...), out)

	out, err = Repack(nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(out))
}

func TestSplitSuperframe_Malformed(t *testing.T) {
	// 第一个marker不匹配
	in := []byte{0x01, 0x02, 0x03, 0xc0, 0x01, 0xc1}
	out, err := SplitSuperframe(in)
	assert.Equal(t, true, errors.Is(err, base.ErrMalformedBitstream))
	assert.Equal(t, in, out)

	// index比packet还大
	out, err = SplitSuperframe([]byte{0xc7})
	assert.Equal(t, true, errors.Is(err, base.ErrMalformedBitstream))
	assert.Equal(t, []byte{0xc7}, out)

	// 子帧大小之和超出packet，原样返回
	in = []byte{0x01, 0xc1, 0x10, 0x10, 0xc1}
	out, err = Repack(in)
	assert.Equal(t, true, errors.Is(err, base.ErrVp9SuperframeOverrun))
	assert.Equal(t, in, out)
}
