// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package av1

import (
	"github.com/pion/rtp/codecs/av1/obu"
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabits"
)

// AV1 Bitstream & Decoding Process 6.7.1 metadata_type
const (
	MetadataTypeHdrCll      = 1
	MetadataTypeHdrMdcv     = 2
	MetadataTypeScalability = 3
	MetadataTypeItutT35     = 4
	MetadataTypeTimecode    = 5
)

// RpuStartCode 提取出的rpu前面加上的nal头，0x19为dolby vision rpu的nal type
var RpuStartCode = []byte{0x00, 0x00, 0x00, 0x01, 0x19}

// dolby vision在ITU-T T.35中的标识
//   itu_t_t35_country_code                  0xB5
//   itu_t_t35_terminal_provider_code        0x003B
//   itu_t_t35_terminal_provider_oriented_code 0x00000800
var dvT35Prefix = []byte{0xb5, 0x00, 0x3b, 0x00, 0x00, 0x08, 0x00}

// parseMetadata metadata OBU的payload，格式不对时只打日志，不影响重新封装
func parseMetadata(payload []byte, extractRpu bool, ret *Result) {
	typ, n, err := obu.ReadLeb128(payload)
	if err != nil {
		Log.Warnf("read metadata type failed. err=%+v", err)
		return
	}
	p := payload[n:]
	Log.Debugf("meta type %d %d+%d", typ, n, len(p))

	switch typ {
	case MetadataTypeItutT35:
		if !extractRpu || !isDolbyVisionT35(p) {
			return
		}
		rpu, ok := unpackRpu(p)
		if !ok {
			return
		}
		ret.Rpu = rpu
	case MetadataTypeHdrCll:
		if len(p) < 4 {
			return
		}
		ret.Cll = &ContentLight{
			MaxCll:  bele.BeUint16(p),
			MaxFall: bele.BeUint16(p[2:]),
		}
		Log.Debugf("hdr10 cll: max_cll=%d, max_fall=%d", ret.Cll.MaxCll, ret.Cll.MaxFall)
	case MetadataTypeHdrMdcv:
		if len(p) < 24 {
			return
		}
		Log.Debugf("hdr10 mdcv: primaries=[%x,%x %x,%x %x,%x], white point=%x,%x, maxl=%x, minl=%x",
			bele.BeUint16(p), bele.BeUint16(p[2:]), bele.BeUint16(p[4:]), bele.BeUint16(p[6:]),
			bele.BeUint16(p[8:]), bele.BeUint16(p[10:]), bele.BeUint16(p[12:]), bele.BeUint16(p[14:]),
			bele.BeUint32(p[16:]), bele.BeUint32(p[20:]))
	}
}

func isDolbyVisionT35(p []byte) bool {
	if len(p) < len(dvT35Prefix) {
		return false
	}
	for i := range dvT35Prefix {
		if p[i] != dvT35Prefix[i] {
			return false
		}
	}
	return true
}

// unpackRpu
//
// rpu的字节没有按字节对齐:
//
//   bit 83  [8b] rpu长度
//   bit 91  [1b] 为1时长度超过0x100
//   bit 92  [8b] 为1时，长度为0x100加上这8位
//   bit 100 [1b] 为1时，rpu超过512字节，不支持
//
//   之后紧跟rpu的内容
//
func unpackRpu(p []byte) ([]byte, bool) {
	br := nazabits.NewBitReader(p)
	if err := br.SkipBits(83); err != nil {
		return nil, false
	}
	v, err := br.ReadBits8(8)
	if err != nil {
		return nil, false
	}
	rpuSize := int(v)

	large, err := br.ReadBits8(1)
	if err != nil {
		return nil, false
	}
	if large == 1 {
		if v, err = br.ReadBits8(8); err != nil {
			return nil, false
		}
		rpuSize = 0x100 | int(v)
		exceed, err := br.ReadBits8(1)
		if err != nil {
			return nil, false
		}
		if exceed == 1 {
			Log.Debugf("meta rpu in obu exceed 512 bytes")
			return nil, false
		}
	}

	out := make([]byte, len(RpuStartCode)+rpuSize)
	copy(out, RpuStartCode)
	for i := 0; i < rpuSize; i++ {
		if out[len(RpuStartCode)+i], err = br.ReadBits8(8); err != nil {
			Log.Warnf("rpu truncated. size=%d, len(p)=%d", rpuSize, len(p))
			return nil, false
		}
	}
	Log.Debugf("dolbyvision rpu. size=%d", rpuSize)
	return out, true
}
