// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package av1

import (
	"fmt"

	"github.com/pion/rtp/codecs/av1/obu"
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/vdecfeed/pkg/base"
)

// 每个OBU前面插入的marker:
//
//   length     [4B] BE
//   ^length    [4B] length每个字节取反
//   start code [4B] 00 00 00 01
//   tag        [4B] "AMLV"
//   obu_size   [4B] 固定4字节的LEB128，只有非Annex-B时存在
//
// 非Annex-B时 obu_size = OBU字节数 + 4，length = obu_size + 4
// Annex-B时   length = OBU字节数 + 4
//
const (
	markerSizeAnnexb = 16
	markerSize       = 20

	// DstPadding 输出buffer在输入大小基础上预留的空间，解析过程中不再扩容
	DstPadding = 4096
)

var markerTag = []byte{0x00, 0x00, 0x00, 0x01, 'A', 'M', 'L', 'V'}

// Unit 一个被重新封装的OBU
type Unit struct {
	Type        obu.Type
	HeaderSize  int // obu_length(Annex-B) + obu_header + obu_size字段的字节数
	PayloadSize int
	Length      int // 写入marker的length字段
}

// ObuSize 整个OBU在输入中的字节数
func (u Unit) ObuSize() int {
	return u.HeaderSize + u.PayloadSize
}

type Result struct {
	Data  []byte
	Rpu   []byte // dolby vision rpu，以00 00 00 01 19开头，没有时为nil
	Units []Unit

	Cll *ContentLight
}

type ContentLight struct {
	MaxCll  uint16
	MaxFall uint16
}

// Repack 将一帧AV1数据中的每个OBU加上marker后重新拼接
//
// @param annexb:     输入是否为Annex-B格式（每个OBU前有obu_length）
// @param extractRpu: 是否从ITU-T T.35 metadata中提取dolby vision rpu
//
// @return 解析失败时返回的Result无效，调用方应该使用原始数据
//
func Repack(data []byte, annexb bool, extractRpu bool) (ret Result, err error) {
	dst := make([]byte, len(data)+DstPadding)
	wpos := 0
	pos := 0
	seenFrameHeader := false
	finished := false

	for !finished {
		remain := len(data) - pos
		if remain == 0 {
			if seenFrameHeader {
				// 帧头之后数据不完整
				return ret, base.NewErrAv1Length(pos, 1, 0)
			}
			break
		}

		h, headerSize, payloadSize, err := readObuHeaderAndSize(data[pos:], annexb)
		if err != nil {
			return ret, err
		}
		if remain-headerSize < payloadSize {
			return ret, base.NewErrAv1Length(pos, headerSize+payloadSize, remain)
		}

		obuBytes := headerSize + payloadSize
		need := obuBytes + markerSize
		if wpos+need > len(dst) {
			return ret, base.NewErrAv1Length(pos, need, len(dst)-wpos)
		}

		u := Unit{
			Type:        h.Type,
			HeaderSize:  headerSize,
			PayloadSize: payloadSize,
		}
		wpos += packMarker(dst[wpos:], obuBytes, annexb, &u)
		copy(dst[wpos:], data[pos:pos+obuBytes])
		wpos += obuBytes
		ret.Units = append(ret.Units, u)

		Log.Debugf("obu %s len %d+%d", h.Type, headerSize, payloadSize)

		payload := data[pos+headerSize : pos+obuBytes]
		last := pos+obuBytes == len(data)

		switch h.Type {
		case obu.OBUTemporalDelimiter:
			seenFrameHeader = false
		case obu.OBUSequenceHeader:
			// sequence header不能出现在一帧的中间
			if seenFrameHeader {
				return ret, base.NewErrAv1Ordering(pos, h.Type.String())
			}
		case obu.OBUFrameHeader:
			if last {
				finished = true
			} else {
				seenFrameHeader = true
			}
		case obu.OBURedundantFrameHeader:
			if !seenFrameHeader {
				return ret, base.NewErrAv1Ordering(pos, h.Type.String())
			}
		case obu.OBUFrame:
			if seenFrameHeader {
				return ret, base.NewErrAv1Ordering(pos, h.Type.String())
			}
			if last {
				finished = true
			}
		case obu.OBUTileGroup:
			if !seenFrameHeader {
				return ret, base.NewErrAv1Ordering(pos, h.Type.String())
			}
			if last {
				finished = true
				seenFrameHeader = false
			}
		case obu.OBUMetadata:
			parseMetadata(payload, extractRpu, &ret)
		}

		pos += obuBytes
	}

	ret.Data = dst[:wpos]
	return ret, nil
}

// ---------------------------------------------------------------------------------------------------------------------

// readObuHeaderAndSize
//
// @return headerSize: OBU payload之前的字节数
//
func readObuHeaderAndSize(b []byte, annexb bool) (h *obu.Header, headerSize int, payloadSize int, err error) {
	obuLength := len(b)
	if annexb {
		v, n, err := obu.ReadLeb128(b)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %v", base.ErrMalformedBitstream, err)
		}
		if int(v) > len(b)-int(n) {
			return nil, 0, 0, base.NewErrAv1Length(0, int(v), len(b)-int(n))
		}
		headerSize = int(n)
		obuLength = int(v)
	}

	h, err = obu.ParseOBUHeader(b[headerSize:])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", base.ErrMalformedBitstream, err)
	}
	obuHeaderSize := h.Size()
	if annexb && obuLength < obuHeaderSize {
		return nil, 0, 0, base.NewErrAv1Length(0, obuHeaderSize, obuLength)
	}
	headerSize += obuHeaderSize

	if !h.HasSizeField {
		if annexb {
			payloadSize = obuLength - obuHeaderSize
		} else {
			payloadSize = len(b) - headerSize
		}
		return
	}

	v, n, err := obu.ReadLeb128(b[headerSize:])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", base.ErrMalformedBitstream, err)
	}
	headerSize += int(n)
	payloadSize = int(v)
	if payloadSize < 0 {
		return nil, 0, 0, base.NewErrAv1Length(0, payloadSize, len(b)-headerSize)
	}
	return
}

// packMarker 写入marker，返回写入的字节数
func packMarker(out []byte, obuBytes int, annexb bool, u *Unit) int {
	var length int
	var size int
	if annexb {
		length = obuBytes + 4
		size = markerSizeAnnexb
	} else {
		obuSize := obuBytes + 4
		length = obuSize + 4
		size = markerSize
		putLeb128Fixed4(out[16:], uint(obuSize))
	}
	u.Length = length

	bele.BePutUint32(out, uint32(length))
	for i := 0; i < 4; i++ {
		out[4+i] = out[i] ^ 0xff
	}
	copy(out[8:], markerTag)
	return size
}

// putLeb128Fixed4 固定4字节的LEB128，不足4字节时用带延续位的0补齐
func putLeb128Fixed4(out []byte, v uint) {
	b := obu.WriteToLeb128(v)
	n := copy(out[:4], b)
	if n < len(b) {
		// 超过28位，只保留低28位
		out[3] &= 0x7f
		return
	}
	for i := n; i < 4; i++ {
		out[i-1] |= 0x80
		out[i] = 0
	}
}
