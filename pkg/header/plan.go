// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package header

import (
	"fmt"

	"github.com/q191201771/vdecfeed/pkg/av1"
	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/h2645"
	"github.com/q191201771/vdecfeed/pkg/vformat"
	"github.com/q191201771/vdecfeed/pkg/vp9"
)

// InitKind open之后，第一个packet之前写入的header
type InitKind int

const (
	InitNone InitKind = iota
	InitExtradata
	InitExtradataRequired
	InitDivx3
	InitWmv3
	InitWvc1
	InitMjpeg
	InitMpeg12Ps
)

// FrameKind 每一帧前面的前缀
type FrameKind int

const (
	FrameNone FrameKind = iota
	FrameDivx3
	FrameWmv3
	FrameWvc1
	FrameUnsupported
)

// RepackKind 每一帧数据本身需要做的重新封装
type RepackKind int

const (
	RepackNone RepackKind = iota
	RepackVp9
	RepackAv1
	RepackMpeg12FrameEnd
)

// ES流按codec tag决定init header
var initByTag = map[uint32]InitKind{
	vformat.TagM4S2: InitExtradata,
	vformat.TagDX50: InitExtradata,
	vformat.TagMp4v: InitExtradata,
	vformat.TagWMV3: InitWmv3,
	vformat.TagWVC1: InitWvc1,
	vformat.TagVC1:  InitWvc1,
	vformat.TagWMVA: InitWvc1,
}

// Plan open时确定的header合成方式，之后每个packet不再重新判断
type Plan struct {
	Format  vformat.VideoFormat
	DecType vformat.DecType
	Init    InitKind
	Frame   FrameKind
	Repack  RepackKind

	width     int
	height    int
	extradata []byte
	maxBytes  int

	unsupportedLogged bool
}

// Resolve
//
// @param p:        extradata已经按格式处理过（REAL和MPEG12不使用extradata）
// @param maxBytes: 单个header或者重新封装后的packet的最大字节数，0表示不限制
//
func Resolve(f vformat.VideoFormat, dt vformat.DecType, p vformat.StreamParameters, mode vformat.DecMode, maxBytes int) *Plan {
	plan := &Plan{
		Format:    f,
		DecType:   dt,
		width:     p.Width,
		height:    p.Height,
		extradata: p.Extradata,
		maxBytes:  maxBytes,
	}
	plan.Init = resolveInit(f, dt, p)

	switch {
	case f == vformat.VideoFormatMpeg4 && dt == vformat.DecTypeMpeg4_3:
		plan.Frame = FrameDivx3
	case f == vformat.VideoFormatMpeg4 && dt == vformat.DecTypeH263:
		plan.Frame = FrameUnsupported
	case f == vformat.VideoFormatVc1 && dt == vformat.DecTypeWmv3:
		plan.Frame = FrameWmv3
	case f == vformat.VideoFormatVc1 && dt == vformat.DecTypeWvc1:
		plan.Frame = FrameWvc1
	}

	switch {
	case f == vformat.VideoFormatVp9:
		plan.Repack = RepackVp9
	case f == vformat.VideoFormatAv1 && mode == vformat.DecModeFrame:
		plan.Repack = RepackAv1
	case f == vformat.VideoFormatMpeg12 && mode == vformat.DecModeFrame:
		plan.Repack = RepackMpeg12FrameEnd
	}
	return plan
}

func resolveInit(f vformat.VideoFormat, dt vformat.DecType, p vformat.StreamParameters) InitKind {
	switch p.StreamType {
	case vformat.StreamTypeEs:
		if f.IsH264() {
			return InitExtradata
		}
		if f == vformat.VideoFormatMpeg4 && dt == vformat.DecTypeMpeg4_3 {
			return InitDivx3
		}
		if k, ok := initByTag[p.CodecTag]; ok {
			if k == InitWvc1 && IsWmv3StyleSeq(p.Extradata) {
				return InitWmv3
			}
			return k
		}
		switch f {
		case vformat.VideoFormatMjpeg:
			return InitMjpeg
		case vformat.VideoFormatHevc:
			return InitExtradataRequired
		}
	case vformat.StreamTypePs:
		if p.CodecId == vformat.CodecIdMpeg1Video || p.CodecId == vformat.CodecIdMpeg2Video {
			return InitMpeg12Ps
		}
	}
	return InitNone
}

// BuildInit 合成init header
//
// @return 不需要header时返回nil, nil
//
func (p *Plan) BuildInit() ([]byte, error) {
	var out []byte
	switch p.Init {
	case InitNone:
		return nil, nil
	case InitExtradata:
		out = Extradata(p.extradata)
	case InitExtradataRequired:
		if len(p.extradata) == 0 {
			return nil, fmt.Errorf("%w. format=%s", base.ErrHeaderUnavailable, p.Format)
		}
		out = Extradata(p.extradata)
	case InitDivx3:
		out = Divx3Init(p.width, p.height)
	case InitWmv3:
		out = Wmv3SeqHeader(p.width, p.height, p.extradata)
	case InitWvc1:
		out = Wvc1Init(p.extradata)
	case InitMjpeg:
		out = MjpegHeader()
	case InitMpeg12Ps:
		out = Mpeg12PsHeader(p.extradata)
	}
	if err := p.checkSize(len(out)); err != nil {
		return nil, err
	}

	if p.Format.IsH264() || p.Format == vformat.VideoFormatHevc {
		Log.Debugf("init header. format=%s, kind=%s, extradata=%s",
			p.Format, p.Init, h2645.DescribeExtradata(p.Format.IsH264(), p.extradata))
	} else {
		Log.Debugf("init header. format=%s, kind=%s, len=%d", p.Format, p.Init, len(out))
	}
	return out, nil
}

// BuildFrame 合成一帧的前缀
//
// @return 不需要前缀时返回nil, nil
//
func (p *Plan) BuildFrame(payload []byte) ([]byte, error) {
	switch p.Frame {
	case FrameDivx3:
		return Divx3Prefix(len(payload)), nil
	case FrameWmv3:
		return Wmv3FrameHeader(len(payload)), nil
	case FrameWvc1:
		return Wvc1Prefix(payload), nil
	case FrameUnsupported:
		if !p.unsupportedLogged {
			p.unsupportedLogged = true
			Log.Warnf("frame header not supported, pass through. format=%s, dec type=%d", p.Format, p.DecType)
		}
		return nil, base.ErrHeaderUnsupported
	}
	return nil, nil
}

// RepackFrame 对一帧数据做重新封装
//
// 出错时返回原始数据以及错误，调用方可以忽略错误直接使用返回的数据
//
// @param extractRpu: AV1时是否提取dolby vision rpu
//
// @return data: 重新封装后的数据，不需要重新封装时就是`payload`
//         rpu:  dolby vision rpu，没有时为nil
//
func (p *Plan) RepackFrame(payload []byte, extractRpu bool) (data []byte, rpu []byte, err error) {
	switch p.Repack {
	case RepackVp9:
		if err = p.checkSize(len(payload) + vp9.MarkerSize*8); err != nil {
			return payload, nil, err
		}
		data, err = vp9.Repack(payload)
		return data, nil, err
	case RepackAv1:
		if err = p.checkSize(len(payload) + av1.DstPadding); err != nil {
			return payload, nil, err
		}
		ret, err := av1.Repack(payload, false, extractRpu)
		if err != nil {
			return payload, nil, err
		}
		if len(ret.Data) <= len(payload) {
			return payload, ret.Rpu, nil
		}
		return ret.Data, ret.Rpu, nil
	case RepackMpeg12FrameEnd:
		if err = p.checkSize(len(payload) + len(Mpeg12FrameEnd)); err != nil {
			return payload, nil, err
		}
		data = make([]byte, len(payload)+len(Mpeg12FrameEnd))
		copy(data, payload)
		copy(data[len(payload):], Mpeg12FrameEnd)
		return data, nil, nil
	}
	return payload, nil, nil
}

func (p *Plan) DebugString() string {
	return fmt.Sprintf("format=%s, dec type=%d, init=%s, frame=%s, repack=%s",
		p.Format, p.DecType, p.Init, p.Frame, p.Repack)
}

func (p *Plan) checkSize(n int) error {
	if p.maxBytes > 0 && n > p.maxBytes {
		return base.NewErrOutOfMemory(n, p.maxBytes)
	}
	return nil
}

// ---------------------------------------------------------------------------------------------------------------------

func (k InitKind) String() string {
	switch k {
	case InitNone:
		return "none"
	case InitExtradata:
		return "extradata"
	case InitExtradataRequired:
		return "extradata(required)"
	case InitDivx3:
		return "divx3"
	case InitWmv3:
		return "wmv3"
	case InitWvc1:
		return "wvc1"
	case InitMjpeg:
		return "mjpeg"
	case InitMpeg12Ps:
		return "mpeg12ps"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

func (k FrameKind) String() string {
	switch k {
	case FrameNone:
		return "none"
	case FrameDivx3:
		return "divx3"
	case FrameWmv3:
		return "wmv3"
	case FrameWvc1:
		return "wvc1"
	case FrameUnsupported:
		return "unsupported"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

func (k RepackKind) String() string {
	switch k {
	case RepackNone:
		return "none"
	case RepackVp9:
		return "vp9"
	case RepackAv1:
		return "av1"
	case RepackMpeg12FrameEnd:
		return "mpeg12"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}
