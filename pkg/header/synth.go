// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package header

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabits"
	"github.com/q191201771/vdecfeed/pkg/mpegts"
)

// 各种格式header的合成，都是纯函数，不涉及设备
//
// 返回nil表示不需要header

var divx311ChunkPrefix = []byte{0x00, 0x00, 0x00, 0x01, 0xb6, 'D', 'I', 'V', 'X', '3', '.', '1', '1'}

const (
	Divx3InitSize   = 10
	Divx3PrefixSize = 17 // len(divx311ChunkPrefix) + 4

	Wmv3SeqHeaderSize   = 26 // 不包含extradata
	Wmv3FrameHeaderSize = 22

	Wvc1PrefixSize = 4
)

// Extradata 原样拷贝
func Extradata(extradata []byte) []byte {
	if len(extradata) == 0 {
		return nil
	}
	return append([]byte(nil), extradata...)
}

// Divx3Init DivX 3.11的初始化header
//
//   00 00 00 01 20 [w<<12 | h&0xfff, 24b] 00 00
//
func Divx3Init(width, height int) []byte {
	out := make([]byte, Divx3InitSize)
	bw := nazabits.NewBitWriter(out)
	bw.WriteBits16(16, 0x0000)
	bw.WriteBits16(16, 0x0001)
	bw.WriteBits8(8, 0x20)
	bw.WriteBits16(12, uint16(width)&0xfff)
	bw.WriteBits16(12, uint16(height)&0xfff)
	return out
}

// Divx3Prefix DivX 3.11每一帧前面的前缀，包含帧的大小
func Divx3Prefix(payloadSize int) []byte {
	out := make([]byte, Divx3PrefixSize)
	copy(out, divx311ChunkPrefix)
	bele.BePutUint32(out[len(divx311ChunkPrefix):], uint32(payloadSize))
	return out
}

// Wmv3SeqHeader WMV3的序列头
//
//   start code  [4B]  00 00 01 10
//   metadata    [12B] 00 len>>16 88 len>>8 len 88 ff ff 88 ff ff 88，len为extradata的长度加4
//   checksum    [6B]  hi lo 88 hi lo 88，为metadata 12个字节之和
//   width       [2B]
//   height      [2B]
//   extradata   [N]
//
func Wmv3SeqHeader(width, height int, extradata []byte) []byte {
	out := make([]byte, Wmv3SeqHeaderSize+len(extradata))
	packWmv3Chunk(out, 0x10, len(extradata)+4)
	bele.BePutUint16(out[22:], uint16(width))
	bele.BePutUint16(out[24:], uint16(height))
	copy(out[Wmv3SeqHeaderSize:], extradata)
	return out
}

// Wmv3FrameHeader WMV3每一帧前面的帧头，格式与序列头的前22字节相同，start code为00 00 01 0D，len为帧的大小
func Wmv3FrameHeader(payloadSize int) []byte {
	out := make([]byte, Wmv3FrameHeaderSize)
	packWmv3Chunk(out, 0x0d, payloadSize)
	return out
}

// Wmv3Checksum metadata 12个字节之和
func Wmv3Checksum(metadata []byte) uint16 {
	var sum uint32
	for _, v := range metadata {
		sum += uint32(v)
	}
	return uint16(sum)
}

// IsWmv3StyleSeq VC-1 advanced profile的extradata中是否携带了WMV3格式的序列头
//
// 00 00 01 0F开头，并且第5个字节的低2位为3
//
func IsWmv3StyleSeq(extradata []byte) bool {
	return len(extradata) > 4 &&
		extradata[0] == 0 && extradata[1] == 0 && extradata[2] == 1 && extradata[3] == 0x0f &&
		extradata[4]&0x03 == 0x03
}

// Wvc1Init 去掉extradata的第一个字节
func Wvc1Init(extradata []byte) []byte {
	if len(extradata) <= 1 {
		return nil
	}
	return append([]byte(nil), extradata[1:]...)
}

// Wvc1Prefix WVC1每一帧前面的start code，帧已经以00 00 01 0D或者00 00 01 0F开头时不需要
func Wvc1Prefix(payload []byte) []byte {
	if len(payload) >= 4 && payload[0] == 0 && payload[1] == 0 && payload[2] == 1 &&
		(payload[3] == 0x0d || payload[3] == 0x0f) {
		return nil
	}
	return []byte{0x00, 0x00, 0x01, 0x0d}
}

// Mpeg12PsHeader MPEG1/2走PS路径时的header
//
//   PES头(25字节) + extradata + 256个0xff
//
func Mpeg12PsHeader(extradata []byte) []byte {
	out := make([]byte, mpegts.PsVideoWrapperSize+len(extradata)+mpegts.PsStuffingSize)
	mpegts.PackPsVideoWrapper(out, len(extradata))
	n := mpegts.PsVideoWrapperSize
	n += copy(out[n:], extradata)
	for ; n < len(out); n++ {
		out[n] = 0xff
	}
	return out
}

// MjpegHeader 固定的DHT表，与输入无关
func MjpegHeader() []byte {
	return append([]byte(nil), mjpegDhtSegment...)
}

// Mpeg12FrameEnd frame模式下MPEG1/2每一帧后面追加的picture start code，用于帧边界检测
var Mpeg12FrameEnd = []byte{0x00, 0x00, 0x01, 0x00}

// ---------------------------------------------------------------------------------------------------------------------

// packWmv3Chunk 写入22字节的start code + metadata + checksum
func packWmv3Chunk(out []byte, startCode uint8, length int) {
	out[0], out[1], out[2], out[3] = 0x00, 0x00, 0x01, startCode

	m := out[4:16]
	m[0] = 0
	m[1] = uint8(length >> 16)
	m[2] = 0x88
	m[3] = uint8(length >> 8)
	m[4] = uint8(length)
	m[5] = 0x88
	m[6], m[7], m[8] = 0xff, 0xff, 0x88
	m[9], m[10], m[11] = 0xff, 0xff, 0x88

	sum := Wmv3Checksum(m)
	bele.BePutUint16(out[16:], sum)
	out[18] = 0x88
	bele.BePutUint16(out[19:], sum)
	out[21] = 0x88
}
