// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package h2645

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"
)

func TestParseNaluType(t *testing.T) {
	assert.Equal(t, H264NaluTypeSps, ParseNaluType(true, 0x67))
	assert.Equal(t, H264NaluTypeIdrSlice, ParseNaluType(true, 0x65))
	assert.Equal(t, H265NaluTypeVps, ParseNaluType(false, 0x40))
	assert.Equal(t, H265NaluTypeSliceIdr, ParseNaluType(false, 0x26))
	assert.Equal(t, "SPS", ParseNaluTypeReadable(true, 0x67))
	assert.Equal(t, "unknown(2)", ParseNaluTypeReadable(true, 0x02))
	assert.Equal(t, true, IsKeyNalu(false, 0x2a)) // CRA
	assert.Equal(t, false, IsKeyNalu(false, 0x02))
}

func TestIterateNaluStartCode(t *testing.T) {
	b := []byte{0, 0, 0, 1, 0x67, 1, 0, 0, 1, 0x68, 0}
	pos, length := IterateNaluStartCode(b, 0)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 4, length)
	pos, length = IterateNaluStartCode(b, 4)
	assert.Equal(t, 6, pos)
	assert.Equal(t, 3, length)
	pos, length = IterateNaluStartCode(b, 9)
	assert.Equal(t, -1, pos)
	assert.Equal(t, -1, length)
}

func TestIterateNaluAnnexb(t *testing.T) {
	b := []byte{0, 0, 0, 1, 0x67, 1, 0, 0, 1, 0x68, 2, 0, 0, 0, 1, 0x65, 3}
	var nals [][]byte
	err := IterateNaluAnnexb(b, func(nal []byte) {
		nals = append(nals, nal)
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, [][]byte{{0x67, 1}, {0x68, 2}, {0x65, 3}}, nals)
	assert.Equal(t, true, ContainsKeyNalu(true, b))
	assert.Equal(t, "annexb(SPS,PPS,IDR, len=17)", DescribeExtradata(true, b))

	assert.Equal(t, ErrH2645, IterateNaluAnnexb([]byte{1, 2, 3}, func(nal []byte) {}))
}

func TestIterateNaluAvcc(t *testing.T) {
	b := JoinNaluAvcc([]byte{0x67, 1}, []byte{0x68})
	assert.Equal(t, []byte{0, 0, 0, 2, 0x67, 1, 0, 0, 0, 1, 0x68}, b)

	var nals [][]byte
	err := IterateNaluAvcc(b, func(nal []byte) {
		nals = append(nals, nal)
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, [][]byte{{0x67, 1}, {0x68}}, nals)

	// 长度越界
	assert.Equal(t, ErrH2645, IterateNaluAvcc([]byte{0, 0, 0, 9, 1}, func(nal []byte) {}))
	assert.Equal(t, true, JoinNaluAvcc() == nil)
}

func TestDescribeExtradata(t *testing.T) {
	assert.Equal(t, "none", DescribeExtradata(true, nil))
	assert.Equal(t, "avcC(ver=1, len=3)", DescribeExtradata(true, []byte{1, 0x64, 0}))
	assert.Equal(t, "hvcC(ver=1, len=2)", DescribeExtradata(false, []byte{1, 2}))
}
