// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vformat

import (
	"fmt"
	"strings"
)

// decoder初始化参数中的标志位
const (
	InitParamExternalPts     uint32 = 0x1
	InitParamSyncOutside     uint32 = 0x2
	InitParamKeyframePtsOnly uint32 = 0x100

	initParamRotationShift = 16
)

type HdrType int

const (
	HdrTypeNone HdrType = iota
	HdrTypeHdr10
	HdrTypeHdr10Plus
	HdrTypeHlg
	HdrTypeDolbyVision
)

// ElType dolby vision增强层类型
type ElType int

const (
	ElTypeNone ElType = iota
	ElTypeMel         // minimum enhancement layer
	ElTypeFel         // full enhancement layer
)

// ColorTransferUnspecified 与ISO/IEC 23091-2中transfer_characteristics的unspecified取值一致，0为保留值，同样视为未指定
const ColorTransferUnspecified = 2

type DolbyVision struct {
	VersionMajor int
	VersionMinor int
	Profile      int
	ElType       ElType
}

// MasteringMetadata 色度坐标与亮度均为已经换算好的小数
type MasteringMetadata struct {
	DisplayPrimaries [3][2]float64 // r, g, b
	WhitePoint       [2]float64
	MaxLuminance     float64
	MinLuminance     float64
}

type ContentLightMetadata struct {
	MaxCll  uint32
	MaxFall uint32
}

// StreamParameters open decoder时由上层给出，open之后不再修改
//
type StreamParameters struct {
	CodecId     CodecId
	CodecTag    uint32
	Width       int
	Height      int
	FpsRate     int
	FpsScale    int
	Orientation int     // 0, 90, 180, 270
	Aspect      float64 // 显示宽高比，0表示未知
	Extradata   []byte
	StreamType  StreamType
	PtsInvalid  bool

	HdrType       HdrType
	DolbyVision   DolbyVision
	Mastering     *MasteringMetadata
	ContentLight  *ContentLightMetadata
	ColorTransfer int
}

// Clone 深拷贝，session持有自己的一份，不受上层后续修改的影响
func (p StreamParameters) Clone() StreamParameters {
	ret := p
	if p.Extradata != nil {
		ret.Extradata = append([]byte(nil), p.Extradata...)
	}
	if p.Mastering != nil {
		m := *p.Mastering
		ret.Mastering = &m
	}
	if p.ContentLight != nil {
		c := *p.ContentLight
		ret.ContentLight = &c
	}
	return ret
}

func (p StreamParameters) DebugString() string {
	return fmt.Sprintf("codec=%d, tag=%s, width=%d, height=%d, fps=%d/%d, orientation=%d, extradata=%d, stream=%d, ptsinvalid=%t, hdr=%d",
		p.CodecId, FourCCString(p.CodecTag), p.Width, p.Height, p.FpsRate, p.FpsScale, p.Orientation,
		len(p.Extradata), p.StreamType, p.PtsInvalid, p.HdrType)
}

// ---------------------------------------------------------------------------------------------------------------------

// ResolveFormat
//
// @param support4k2k: 设备是否有独立的H264 4K2K解码器
//
func ResolveFormat(p StreamParameters, support4k2k bool) VideoFormat {
	f := CodecIdToVideoFormat(p.CodecId)
	if f != VideoFormatH264 {
		return f
	}
	if (p.Width > 1920 || p.Height > 1088) && support4k2k {
		return VideoFormatH2644k2k
	}
	if p.CodecTag == TagAMVC || p.CodecTag == TagMVC1 {
		return VideoFormatH264Mvc
	}
	return f
}

// ResolveDecType ES流并且有codec tag时优先使用codec tag
func ResolveDecType(p StreamParameters) DecType {
	t := DecTypeUnknown
	if p.StreamType == StreamTypeEs && p.CodecTag != 0 {
		t = CodecTagToDecType(p.CodecTag)
	}
	if t == DecTypeUnknown {
		t = CodecIdToDecType(p.CodecId)
	}
	return t
}

// DeviceDecType 写入decoder初始化参数中的类型，部分格式会被覆盖
func DeviceDecType(f VideoFormat, t DecType) DecType {
	switch f {
	case VideoFormatH264, VideoFormatH264Mvc:
		return DecTypeH264
	case VideoFormatH2644k2k:
		return DecTypeH2644k2k
	case VideoFormatHevc:
		return DecTypeHevc
	case VideoFormatVp9:
		return DecTypeVp9
	}
	return t
}

// KeepExtradata REAL不使用容器给出的extradata，MPEG12只有PS路径使用（序列头放在PES头之后）
func KeepExtradata(f VideoFormat, st StreamType) bool {
	switch f {
	case VideoFormatReal:
		return false
	case VideoFormatMpeg12:
		return st == StreamTypePs
	}
	return true
}

// CalcVideoRate 计算帧间隔，单位为1/96000秒
//
// 包含几个容器常见的帧率误报的修正
//
func CalcVideoRate(p StreamParameters) int {
	var rate int
	if p.FpsRate > 0 && p.FpsScale != 0 {
		rate = fpsToVideoRate(p.FpsScale, p.FpsRate)
	} else {
		rate = fpsToVideoRate(1001, 30000)
	}

	// 1920x1080i 25fps被误报为50fps
	if p.Width == 1920 && rate == 1920 {
		rate = fpsToVideoRate(1001, 25000)
	}

	if p.CodecId == CodecIdH264 && p.Width <= 720 {
		// mp4/avi中的SD H264被误报为60fps或者30fps
		if rate == 1602 || (rate >= 3200 && rate <= 3210) {
			rate = fpsToVideoRate(1001, 24000)
		}
	}
	return rate
}

// fpsToVideoRate 帧间隔`scale/rate`秒换算为1/96000秒，四舍五入
func fpsToVideoRate(scale, rate int) int {
	return int(0.5 + 96000*float64(scale)/float64(rate))
}

// RotationDegreeIndex 0, 90, 180, 270 -> 0, 1, 2, 3，其他值都为0
func RotationDegreeIndex(orientation int) uint32 {
	switch orientation {
	case 90:
		return 1
	case 180:
		return 2
	case 270:
		return 3
	}
	return 0
}

// InitParam decoder初始化时的标志位
//
// 时间戳不可信（比如avi）时，H264/HEVC/VP9交给外部同步，MPEG4和VC1只使用关键帧的时间戳
//
func InitParam(f VideoFormat, p StreamParameters) uint32 {
	var param uint32
	switch f {
	case VideoFormatMpeg4:
		param = InitParamExternalPts
		if p.PtsInvalid {
			param |= InitParamKeyframePtsOnly
		}
	case VideoFormatH264, VideoFormatH264Mvc, VideoFormatH2644k2k, VideoFormatHevc, VideoFormatVp9:
		param = InitParamExternalPts
		if p.PtsInvalid {
			param |= InitParamSyncOutside
		}
	case VideoFormatVc1:
		if p.PtsInvalid {
			param = InitParamKeyframePtsOnly
		}
	}
	return param | RotationDegreeIndex(p.Orientation)<<initParamRotationShift
}

// DolbyVisionConf 是否启用dolby vision，以及profile 4/7是否按lossless方式处理
type DolbyVisionConf struct {
	Enable   bool `json:"enable"`
	Lossless bool `json:"lossless"`
}

// DolbyVisionEnabled 设备支持并且开启，且流是dolby vision
func DolbyVisionEnabled(p StreamParameters, conf DolbyVisionConf) bool {
	return conf.Enable && p.HdrType == HdrTypeDolbyVision
}

// SelectDecMode
//
// VC1和H264 MVC使用single模式，dolby vision profile 4/7 lossless并且不是MEL时使用stream模式，其他为frame模式
//
func SelectDecMode(f VideoFormat, p StreamParameters, conf DolbyVisionConf) DecMode {
	if f == VideoFormatVc1 || f == VideoFormatH264Mvc {
		return DecModeSingle
	}
	if DolbyVisionEnabled(p, conf) && conf.Lossless &&
		(p.DolbyVision.Profile == 4 || p.DolbyVision.Profile == 7) &&
		p.DolbyVision.ElType != ElTypeMel {
		return DecModeStream
	}
	return DecModeFrame
}

// HdrStaticMetadata VP9的HDR静态元数据，以配置字符串的形式传给decoder
//
// 不是VP9或者没有mastering metadata时返回空字符串
//
func HdrStaticMetadata(f VideoFormat, p StreamParameters) string {
	if f != VideoFormatVp9 || p.Mastering == nil {
		return ""
	}

	const maxChromaticity = 50000
	const maxLuminance = 10000
	m := p.Mastering
	c := func(v float64) int { return int(v*maxChromaticity + 0.5) }
	l := func(v float64) int { return int(v*maxLuminance + 0.5) }

	var sb strings.Builder
	sb.WriteString("HDRStaticInfo:1")
	fmt.Fprintf(&sb, ";mR.x:%d;mR.y:%d", c(m.DisplayPrimaries[0][0]), c(m.DisplayPrimaries[0][1]))
	fmt.Fprintf(&sb, ";mG.x:%d;mG.y:%d", c(m.DisplayPrimaries[1][0]), c(m.DisplayPrimaries[1][1]))
	fmt.Fprintf(&sb, ";mB.x:%d;mB.y:%d", c(m.DisplayPrimaries[2][0]), c(m.DisplayPrimaries[2][1]))
	fmt.Fprintf(&sb, ";mW.x:%d;mW.y:%d", c(m.WhitePoint[0]), c(m.WhitePoint[1]))
	fmt.Fprintf(&sb, ";mMaxDL:%d;mMinDL:%d", l(m.MaxLuminance), l(m.MinLuminance))
	if p.ContentLight != nil {
		fmt.Fprintf(&sb, ";mCLLPresent:1;mMaxCLL:%d;mMaxFALL:%d", p.ContentLight.MaxCll, p.ContentLight.MaxFall)
	}
	if p.ColorTransfer != 0 && p.ColorTransfer != ColorTransferUnspecified {
		fmt.Fprintf(&sb, ";mTransfer:%d", p.ColorTransfer)
	}
	return sb.String()
}
