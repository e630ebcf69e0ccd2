// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package h2645

import (
	"errors"
	"fmt"
	"strings"

	"github.com/q191201771/naza/pkg/bele"
)

// 无特殊说明的函数则同时支持h264和h265两种格式

var ErrH2645 = errors.New("vdecfeed.h2645: fxxk")

var (
	NaluStartCode3 = []byte{0x0, 0x0, 0x1}
	NaluStartCode4 = []byte{0x0, 0x0, 0x0, 0x1}
)

const (
	H264NaluTypeSlice    uint8 = 1
	H264NaluTypeIdrSlice uint8 = 5
	H264NaluTypeSei      uint8 = 6
	H264NaluTypeSps      uint8 = 7
	H264NaluTypePps      uint8 = 8
	H264NaluTypeAud      uint8 = 9  // Access Unit Delimiter
	H264NaluTypeFd       uint8 = 12 // Filler Data
)

// ISO_IEC_23008-2_2013.pdf
// Table 7-1 – NAL unit type codes and NAL unit type classes
const (
	H265NaluTypeSliceTrailN uint8 = 0 // 0x0
	H265NaluTypeSliceTrailR uint8 = 1 // 0x01

	H265NaluTypeSliceBlaWlp       uint8 = 16 // 0x10
	H265NaluTypeSliceBlaWradl     uint8 = 17 // 0x11
	H265NaluTypeSliceBlaNlp       uint8 = 18 // 0x12
	H265NaluTypeSliceIdr          uint8 = 19 // 0x13
	H265NaluTypeSliceIdrNlp       uint8 = 20 // 0x14
	H265NaluTypeSliceCranut       uint8 = 21 // 0x15
	H265NaluTypeSliceRsvIrapVcl22 uint8 = 22 // 0x16
	H265NaluTypeSliceRsvIrapVcl23 uint8 = 23 // 0x17

	H265NaluTypeVps       uint8 = 32 // 0x20
	H265NaluTypeSps       uint8 = 33 // 0x21
	H265NaluTypePps       uint8 = 34 // 0x22
	H265NaluTypeAud       uint8 = 35 // 0x23
	H265NaluTypeSei       uint8 = 39 // 0x27
	H265NaluTypeSeiSuffix uint8 = 40 // 0x28
)

var h264NaluTypeMapping = map[uint8]string{
	H264NaluTypeSlice:    "SLICE",
	H264NaluTypeIdrSlice: "IDR",
	H264NaluTypeSei:      "SEI",
	H264NaluTypeSps:      "SPS",
	H264NaluTypePps:      "PPS",
	H264NaluTypeAud:      "AUD",
	H264NaluTypeFd:       "FD",
}

var h265NaluTypeMapping = map[uint8]string{
	H265NaluTypeSliceTrailN: "TRAIL_N",
	H265NaluTypeSliceTrailR: "TRAIL_R",
	H265NaluTypeSliceIdr:    "IDR_W_RADL",
	H265NaluTypeSliceIdrNlp: "IDR_N_LP",
	H265NaluTypeSliceCranut: "CRA",
	H265NaluTypeVps:         "VPS",
	H265NaluTypeSps:         "SPS",
	H265NaluTypePps:         "PPS",
	H265NaluTypeAud:         "AUD",
	H265NaluTypeSei:         "SEI",
	H265NaluTypeSeiSuffix:   "SEI_SUFFIX",
}

// ParseNaluType
//
// @param v: nalu的第一个字节
//
func ParseNaluType(isH264 bool, v uint8) uint8 {
	if isH264 {
		return v & 0x1f
	}
	return (v >> 1) & 0x3f
}

func ParseNaluTypeReadable(isH264 bool, v uint8) string {
	t := ParseNaluType(isH264, v)
	m := h265NaluTypeMapping
	if isH264 {
		m = h264NaluTypeMapping
	}
	if s, ok := m[t]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", t)
}

func H265IsIrapNalu(typ uint8) bool {
	// [16, 23] irap nal
	return typ >= H265NaluTypeSliceBlaWlp && typ <= H265NaluTypeSliceRsvIrapVcl23
}

// IsKeyNalu IDR或者H265的IRAP
func IsKeyNalu(isH264 bool, v uint8) bool {
	t := ParseNaluType(isH264, v)
	if isH264 {
		return t == H264NaluTypeIdrSlice
	}
	return H265IsIrapNalu(t)
}

// IsAnnexb 以3字节或者4字节start code开头
//
// 注意，容器中的extradata通常是avcC/hvcC格式，只有ts/ps或者裸流才是annexb格式
//
func IsAnnexb(b []byte) bool {
	if len(b) >= 4 && b[0] == 0 && b[1] == 0 && b[2] == 0 && b[3] == 1 {
		return true
	}
	return len(b) >= 3 && b[0] == 0 && b[1] == 0 && b[2] == 1
}

// IterateNaluStartCode 从`start`位置开始查找下一个start code
//
// @return pos:    start code的起始位置
//         length: start code的长度，3或者4
//
//         找不到时返回-1, -1
//
func IterateNaluStartCode(nalu []byte, start int) (pos, length int) {
	if start < 0 {
		start = 0
	}
	n := len(nalu)
	for i := start; i+3 <= n; i++ {
		if nalu[i] != 0 || nalu[i+1] != 0 {
			continue
		}
		if nalu[i+2] == 1 {
			return i, 3
		}
		if i+4 <= n && nalu[i+2] == 0 && nalu[i+3] == 1 {
			return i, 4
		}
	}
	return -1, -1
}

// IterateNaluAnnexb 遍历annexb格式的nalu流，回调的`nal`不包含start code
//
// 第一个start code之前的数据被忽略
//
func IterateNaluAnnexb(nals []byte, handler func(nal []byte)) error {
	pos, length := IterateNaluStartCode(nals, 0)
	if pos == -1 {
		return ErrH2645
	}
	for {
		start := pos + length
		next, nextLength := IterateNaluStartCode(nals, start)
		if next == -1 {
			if start < len(nals) {
				handler(nals[start:])
			}
			return nil
		}
		if next > start {
			handler(nals[start:next])
		}
		pos, length = next, nextLength
	}
}

// IterateNaluAvcc 遍历Avcc格式的nalu流
//
func IterateNaluAvcc(nals []byte, handler func(nal []byte)) error {
	if len(nals) == 0 {
		return ErrH2645
	}
	pos := 0
	for pos+4 <= len(nals) {
		length := int(bele.BeUint32(nals[pos:]))
		pos += 4
		if length == 0 || pos+length > len(nals) {
			return ErrH2645
		}
		handler(nals[pos : pos+length])
		pos += length
	}
	if pos != len(nals) {
		return ErrH2645
	}
	return nil
}

func JoinNaluAvcc(naluList ...[]byte) []byte {
	n := len(naluList)
	if n == 0 {
		return nil
	}
	n *= 4
	for _, item := range naluList {
		n += len(item)
	}
	ret := make([]byte, n)

	pos := 0
	for _, item := range naluList {
		bele.BePutUint32(ret[pos:], uint32(len(item)))
		pos += 4
		copy(ret[pos:], item)
		pos += len(item)
	}

	return ret
}

// DescribeExtradata 用于日志，annexb时列出所有nalu类型，否则给出configurationVersion和长度
//
func DescribeExtradata(isH264 bool, b []byte) string {
	if len(b) == 0 {
		return "none"
	}
	if !IsAnnexb(b) {
		name := "hvcC"
		if isH264 {
			name = "avcC"
		}
		return fmt.Sprintf("%s(ver=%d, len=%d)", name, b[0], len(b))
	}
	var types []string
	_ = IterateNaluAnnexb(b, func(nal []byte) {
		types = append(types, ParseNaluTypeReadable(isH264, nal[0]))
	})
	return fmt.Sprintf("annexb(%s, len=%d)", strings.Join(types, ","), len(b))
}

// ContainsKeyNalu annexb格式的帧中是否包含关键帧nalu
func ContainsKeyNalu(isH264 bool, b []byte) bool {
	var ret bool
	_ = IterateNaluAnnexb(b, func(nal []byte) {
		if IsKeyNalu(isH264, nal[0]) {
			ret = true
		}
	})
	return ret
}
