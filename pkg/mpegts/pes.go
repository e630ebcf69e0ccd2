// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabits"
)

const (
	StreamIdVideo uint8 = 0xe0

	// PsVideoWrapperSize PackPsVideoWrapper生成的PES头的大小
	PsVideoWrapperSize = 25

	// PsStuffingSize 序列头之后填充的0xff的个数
	PsStuffingSize = 256
)

// -----------------------------------------------------------
// <iso13818-1.pdf>
// <2.4.3.6 PES packet> <page 49/174>
// packet_start_code_prefix  [24b] *** always 0x00, 0x00, 0x01
// stream_id                 [8b]  *
// PES_packet_length         [16b] **
// '10'                      [2b]
// PES_scrambling_control    [2b]
// PES_priority              [1b]
// data_alignment_indicator  [1b]
// copyright                 [1b]
// original_or_copy          [1b]  *
// PTS_DTS_flags             [2b]
// ESCR_flag                 [1b]
// ES_rate_flag              [1b]
// DSM_trick_mode_flag       [1b]
// additional_copy_info_flag [1b]
// PES_CRC_flag              [1b]
// PES_extension_flag        [1b]  *
// PES_header_data_length    [8b]  *
// -----------------------------------------------------------
type Pes struct {
	Pscp       uint32
	Sid        uint8
	Ppl        uint16
	pad1       uint8
	PtsDtsFlag uint8
	pad2       uint8
	Phdl       uint8
	Pts        uint64
	Dts        uint64
}

// ParsePes
//
// @return length: PES头的总长度，也即ES数据的起始位置
//
func ParsePes(b []byte) (pes Pes, length int) {
	br := nazabits.NewBitReader(b)
	pes.Pscp, _ = br.ReadBits32(24)
	pes.Sid, _ = br.ReadBits8(8)
	pes.Ppl, _ = br.ReadBits16(16)

	pes.pad1, _ = br.ReadBits8(8)
	pes.PtsDtsFlag, _ = br.ReadBits8(2)
	pes.pad2, _ = br.ReadBits8(6)
	pes.Phdl, _ = br.ReadBits8(8)

	length = 9 + int(pes.Phdl)
	if len(b) < length {
		return
	}

	if pes.PtsDtsFlag&0x2 != 0 && len(b) >= 14 {
		_, pes.Pts = readPts(b[9:])
	}
	if pes.PtsDtsFlag&0x1 != 0 && len(b) >= 19 {
		_, pes.Dts = readPts(b[14:])
	} else {
		pes.Dts = pes.Pts
	}
	return
}

// PackPsVideoWrapper MPEG1/2走PS路径时，序列头前面需要的PES头
//
// PTS/DTS为固定的填充值，PES_packet_length为`seqLen`加上PES头自身的大小
//
func PackPsVideoWrapper(out []byte, seqLen int) {
	_ = out[PsVideoWrapperSize-1]
	out[0], out[1], out[2] = 0x00, 0x00, 0x01
	out[3] = StreamIdVideo
	bele.BePutUint16(out[4:], uint16(seqLen+PsVideoWrapperSize))
	out[6] = 0x81 // '10' + original_or_copy
	out[7] = 0xc0 // PTS_DTS_flags
	out[8] = 0x0d // PES_header_data_length

	// PTS
	out[9], out[10], out[11], out[12], out[13] = 0x20, 0x00, 0x00, 0x00, 0x00
	// DTS
	out[14], out[15], out[16], out[17], out[18] = 0x1f, 0xff, 0xff, 0xff, 0xff
	for i := 19; i < PsVideoWrapperSize; i++ {
		out[i] = 0xff
	}
}

// read pts or dts
func readPts(b []byte) (fb uint8, pts uint64) {
	fb = b[0] >> 4
	pts |= uint64((b[0]>>1)&0x07) << 30
	pts |= (uint64(b[1])<<8 | uint64(b[2])) >> 1 << 15
	pts |= (uint64(b[3])<<8 | uint64(b[4])) >> 1
	return
}
