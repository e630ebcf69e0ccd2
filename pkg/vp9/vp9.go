// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vp9

import (
	"fmt"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/vdecfeed/pkg/base"
)

// VP9 superframe index，位于packet的末尾
//
//   marker           [1B] 110 + size_magnitude_minus_1(2b) + frames_in_superframe_minus_1(3b)
//   frame_sizes      [mag*frames] 小端
//   marker           [1B] 与第一个marker相同
//
// 每个子帧前面插入16字节的marker:
//   size+4     [4B] BE
//   ^(size+4)  [4B] 每个字节取反
//   start code [4B] 00 00 00 01
//   tag        [4B] "AMLV"
//
const MarkerSize = 16

var markerTag = []byte{0x00, 0x00, 0x00, 0x01, 'A', 'M', 'L', 'V'}

// Superframe 从superframe index中解析出的信息
type Superframe struct {
	Frames    int
	Mag       int
	IndexSize int
	Sizes     []int
}

func (s Superframe) Total() int {
	var ret int
	for _, size := range s.Sizes {
		ret += size
	}
	return ret
}

// IsSuperframe 只检查最后一个字节
func IsSuperframe(data []byte) bool {
	return len(data) > 0 && data[len(data)-1]&0xe0 == 0xc0
}

// ParseSuperframeIndex
//
// @return 不是superframe时返回 base.ErrVp9NotSuperframe
//
func ParseSuperframeIndex(data []byte) (sf Superframe, err error) {
	if !IsSuperframe(data) {
		return sf, base.ErrVp9NotSuperframe
	}
	marker := data[len(data)-1]
	sf.Frames = int(marker&0x7) + 1
	sf.Mag = int((marker>>3)&0x3) + 1
	sf.IndexSize = 2 + sf.Mag*sf.Frames

	pos := len(data) - sf.IndexSize
	if pos < 0 || data[pos] != marker {
		return sf, fmt.Errorf("%w: wrong superframe marker. marker=0x%X, index size=%d, len=%d",
			base.ErrMalformedBitstream, marker, sf.IndexSize, len(data))
	}
	pos++

	sf.Sizes = make([]int, sf.Frames)
	for i := 0; i < sf.Frames; i++ {
		for j := 0; j < sf.Mag; j++ {
			sf.Sizes[i] |= int(data[pos]) << (j * 8)
			pos++
		}
	}
	Log.Debugf("superframe. frames=%d, mag=%d, index size=%d, sizes=%v", sf.Frames, sf.Mag, sf.IndexSize, sf.Sizes)
	return sf, nil
}

// SplitSuperframe 在superframe的每个子帧前插入marker，输出比输入大 Frames*MarkerSize
//
// 子帧之后的剩余数据（superframe index）原样保留在末尾
//
// 不是superframe时原样返回输入，出错时也原样返回输入，同时返回错误
//
func SplitSuperframe(data []byte) ([]byte, error) {
	sf, err := ParseSuperframeIndex(data)
	if err != nil {
		if err == base.ErrVp9NotSuperframe {
			return data, nil
		}
		return data, err
	}

	total := sf.Total()
	if total > len(data) {
		return data, base.NewErrVp9SuperframeOverrun(total, len(data))
	}

	out := make([]byte, len(data)+sf.Frames*MarkerSize)
	rpos := 0
	wpos := 0
	for _, size := range sf.Sizes {
		wpos += packMarker(out[wpos:], size)
		wpos += copy(out[wpos:], data[rpos:rpos+size])
		rpos += size
	}
	copy(out[wpos:], data[rpos:])
	return out, nil
}

// Frame 非superframe时，整个packet作为一个帧插入marker
func Frame(data []byte) []byte {
	out := make([]byte, len(data)+MarkerSize)
	n := packMarker(out, len(data))
	copy(out[n:], data)
	return out
}

// Repack superframe时拆分，否则作为单帧处理
//
// 出错时原样返回输入，调用方可以直接使用返回的数据
//
func Repack(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if IsSuperframe(data) {
		return SplitSuperframe(data)
	}
	return Frame(data), nil
}

func packMarker(out []byte, size int) int {
	bele.BePutUint32(out, uint32(size+4))
	for i := 0; i < 4; i++ {
		out[4+i] = out[i] ^ 0xff
	}
	copy(out[8:], markerTag)
	return MarkerSize
}
