// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vformat

// CodecId 上层（demuxer）给出的编码类型
type CodecId int

const (
	CodecIdUnknown CodecId = iota
	CodecIdMpeg1Video
	CodecIdMpeg2Video
	CodecIdH263
	CodecIdH263P
	CodecIdH263I
	CodecIdMpeg4
	CodecIdMsmpeg4v2
	CodecIdMsmpeg4v3
	CodecIdFlv1
	CodecIdRv10
	CodecIdRv20
	CodecIdRv30
	CodecIdRv40
	CodecIdH264
	CodecIdMjpeg
	CodecIdVc1
	CodecIdWmv3
	CodecIdVp6f
	CodecIdVp9
	CodecIdAv1
	CodecIdAvs
	CodecIdCavs
	CodecIdHevc
)

// VideoFormat 设备侧的视频格式，决定decoder的工作方式以及header的合成方式
type VideoFormat int

const (
	VideoFormatMpeg12 VideoFormat = iota
	VideoFormatMpeg4
	VideoFormatH264
	VideoFormatMjpeg
	VideoFormatReal
	VideoFormatJpeg
	VideoFormatVc1
	VideoFormatAvs
	VideoFormatSw
	VideoFormatH264Mvc
	VideoFormatH2644k2k
	VideoFormatHevc
	VideoFormatH264Enc
	VideoFormatJpegEnc
	VideoFormatVp9
	VideoFormatAv1

	VideoFormatUnsupported VideoFormat = -1
)

// DecType 同一个VideoFormat下的子类型，主要由codec tag决定
type DecType int

const (
	DecTypeUnknown DecType = iota
	DecTypeMpeg4_3
	DecTypeMpeg4_4
	DecTypeMpeg4_5
	DecTypeH264
	DecTypeMjpeg
	DecTypeMp4
	DecTypeH263
	DecTypeReal8
	DecTypeReal9
	DecTypeWmv3
	DecTypeWvc1
	DecTypeSw
	DecTypeAvs
	DecTypeH2644k2k
	DecTypeHevc
	DecTypeVp9
)

// StreamType 输入数据的封装类型
type StreamType int

const (
	StreamTypeUnknown StreamType = iota
	StreamTypeTs
	StreamTypePs
	StreamTypeEs
	StreamTypeRm
	StreamTypeAudio
	StreamTypeVideo
)

// DecMode decoder的输入模式
//
// Frame模式下设备内部buffer较小，按帧喂数据；Stream模式下buffer很大，需要预先攒够数据
//
type DecMode int

const (
	DecModeFrame DecMode = iota
	DecModeStream
	DecModeSingle
)

func (f VideoFormat) String() string {
	switch f {
	case VideoFormatMpeg12:
		return "mpeg12"
	case VideoFormatMpeg4:
		return "mpeg4"
	case VideoFormatH264:
		return "h264"
	case VideoFormatMjpeg:
		return "mjpeg"
	case VideoFormatReal:
		return "real"
	case VideoFormatJpeg:
		return "jpeg"
	case VideoFormatVc1:
		return "vc1"
	case VideoFormatAvs:
		return "avs"
	case VideoFormatSw:
		return "sw"
	case VideoFormatH264Mvc:
		return "h264mvc"
	case VideoFormatH2644k2k:
		return "h264_4k2k"
	case VideoFormatHevc:
		return "hevc"
	case VideoFormatVp9:
		return "vp9"
	case VideoFormatAv1:
		return "av1"
	}
	return "unsupported"
}

func (m DecMode) String() string {
	switch m {
	case DecModeFrame:
		return "frame"
	case DecModeStream:
		return "stream"
	case DecModeSingle:
		return "single"
	}
	return "unknown"
}

// IsH264 H264的几种变体
func (f VideoFormat) IsH264() bool {
	return f == VideoFormatH264 || f == VideoFormatH2644k2k || f == VideoFormatH264Mvc
}

// CodecIdToVideoFormat
//
// @return 不支持的编码类型返回 VideoFormatUnsupported
//
func CodecIdToVideoFormat(id CodecId) VideoFormat {
	switch id {
	case CodecIdMpeg1Video, CodecIdMpeg2Video:
		return VideoFormatMpeg12
	case CodecIdH263, CodecIdMpeg4, CodecIdH263P, CodecIdH263I, CodecIdMsmpeg4v2, CodecIdMsmpeg4v3, CodecIdFlv1:
		return VideoFormatMpeg4
	case CodecIdRv10, CodecIdRv20, CodecIdRv30, CodecIdRv40:
		return VideoFormatReal
	case CodecIdH264:
		return VideoFormatH264
	case CodecIdMjpeg:
		return VideoFormatMjpeg
	case CodecIdVc1, CodecIdWmv3:
		return VideoFormatVc1
	case CodecIdVp9:
		return VideoFormatVp9
	case CodecIdAv1:
		return VideoFormatAv1
	case CodecIdAvs, CodecIdCavs:
		return VideoFormatAvs
	case CodecIdHevc:
		return VideoFormatHevc
	}
	return VideoFormatUnsupported
}

// CodecTagToDecType 由容器给出的FOURCC得到DecType
//
func CodecTagToDecType(tag uint32) DecType {
	switch tag {
	case TagMJPG, TagMjpg, TagJpeg, TagMjpa:
		return DecTypeMjpeg
	case TagXVID, TagXvid, TagXVIX:
		return DecTypeMpeg4_5
	case TagCOL1, TagDIV3, TagMP43:
		return DecTypeMpeg4_3
	case TagDIV4, TagDIVX:
		return DecTypeMpeg4_4
	case TagDIV5, TagDX50, TagM4S2, TagFMP4, TagDIV6:
		return DecTypeMpeg4_5
	case TagMP4V, TagRMP4, TagMPG4, TagMp4v:
		return DecTypeMpeg4_5
	case TagH263, TagH263Lower, TagS263, TagF263:
		return DecTypeH263
	case TagAVC1, TagAvc1, TagH264, TagH264Lower, TagAMVC, TagMVC1:
		return DecTypeH264
	case TagRV30:
		return DecTypeReal8
	case TagRV40:
		return DecTypeReal9
	case TagWMV3:
		return DecTypeWmv3
	case TagVC1, TagWVC1, TagWMVA:
		return DecTypeWvc1
	}
	return DecTypeUnknown
}

// CodecIdToDecType 没有codec tag或者tag无法识别时，由CodecId得到DecType
//
func CodecIdToDecType(id CodecId) DecType {
	switch id {
	case CodecIdMpeg4:
		return DecTypeMpeg4_5
	case CodecIdH263:
		return DecTypeH263
	case CodecIdH264:
		return DecTypeH264
	case CodecIdRv30:
		return DecTypeReal8
	case CodecIdRv40:
		return DecTypeReal9
	case CodecIdVc1:
		return DecTypeWvc1
	case CodecIdVp6f:
		return DecTypeSw
	case CodecIdVp9:
		return DecTypeVp9
	case CodecIdAvs, CodecIdCavs:
		return DecTypeAvs
	case CodecIdHevc:
		return DecTypeHevc
	}
	return DecTypeUnknown
}
