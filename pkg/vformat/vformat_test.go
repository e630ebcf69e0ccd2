// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vformat

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"
)

func TestFourCC(t *testing.T) {
	assert.Equal(t, uint32(0x33564d57), FourCC("WMV3"))
	assert.Equal(t, uint32(0), FourCC("WMV"))
	assert.Equal(t, "WVC1", FourCCString(TagWVC1))
	assert.Equal(t, "....", FourCCString(0))
}

func TestResolveFormat(t *testing.T) {
	p := StreamParameters{CodecId: CodecIdH264, Width: 3840, Height: 2160}
	assert.Equal(t, VideoFormatH2644k2k, ResolveFormat(p, true))
	assert.Equal(t, VideoFormatH264, ResolveFormat(p, false))

	p = StreamParameters{CodecId: CodecIdH264, Width: 1920, Height: 1080, CodecTag: TagMVC1}
	assert.Equal(t, VideoFormatH264Mvc, ResolveFormat(p, true))

	assert.Equal(t, VideoFormatVc1, ResolveFormat(StreamParameters{CodecId: CodecIdWmv3}, false))
	assert.Equal(t, VideoFormatMpeg4, ResolveFormat(StreamParameters{CodecId: CodecIdMsmpeg4v3}, false))
	assert.Equal(t, VideoFormatUnsupported, ResolveFormat(StreamParameters{CodecId: CodecIdVp6f}, false))
}

func TestResolveDecType(t *testing.T) {
	p := StreamParameters{CodecId: CodecIdMpeg4, CodecTag: TagDIV3, StreamType: StreamTypeEs}
	assert.Equal(t, DecTypeMpeg4_3, ResolveDecType(p))

	// 非ES流忽略tag
	p.StreamType = StreamTypePs
	assert.Equal(t, DecTypeMpeg4_5, ResolveDecType(p))

	// 无法识别的tag回退到codec id
	p = StreamParameters{CodecId: CodecIdVc1, CodecTag: FourCC("ABCD"), StreamType: StreamTypeEs}
	assert.Equal(t, DecTypeWvc1, ResolveDecType(p))

	assert.Equal(t, DecTypeWmv3, CodecTagToDecType(TagWMV3))
	assert.Equal(t, DecTypeH264, DeviceDecType(VideoFormatH264Mvc, DecTypeUnknown))
}

func TestCalcVideoRate(t *testing.T) {
	// 25fps
	assert.Equal(t, 3840, CalcVideoRate(StreamParameters{CodecId: CodecIdH264, Width: 1920, FpsRate: 25, FpsScale: 1}))
	// 缺省29.97
	assert.Equal(t, 3203, CalcVideoRate(StreamParameters{CodecId: CodecIdHevc, Width: 1920}))
	// 1080i被误报为50fps
	assert.Equal(t, 3844, CalcVideoRate(StreamParameters{CodecId: CodecIdHevc, Width: 1920, FpsRate: 50, FpsScale: 1}))
	// SD H264 59.94 -> 23.976
	assert.Equal(t, 4004, CalcVideoRate(StreamParameters{CodecId: CodecIdH264, Width: 720, FpsRate: 60000, FpsScale: 1001}))
	// SD H264 29.97 -> 23.976
	assert.Equal(t, 4004, CalcVideoRate(StreamParameters{CodecId: CodecIdH264, Width: 640, FpsRate: 30000, FpsScale: 1001}))
	// 高清不修正
	assert.Equal(t, 3203, CalcVideoRate(StreamParameters{CodecId: CodecIdH264, Width: 1280, FpsRate: 30000, FpsScale: 1001}))

	assert.Equal(t, 3203, fpsToVideoRate(1001, 30000))
	assert.Equal(t, 3844, fpsToVideoRate(1001, 25000))
	assert.Equal(t, 4004, fpsToVideoRate(1001, 24000))
}

func TestKeepExtradata(t *testing.T) {
	assert.Equal(t, true, KeepExtradata(VideoFormatH264, StreamTypeEs))
	assert.Equal(t, false, KeepExtradata(VideoFormatReal, StreamTypeRm))
	assert.Equal(t, false, KeepExtradata(VideoFormatMpeg12, StreamTypeEs))
	assert.Equal(t, true, KeepExtradata(VideoFormatMpeg12, StreamTypePs))
}

func TestInitParam(t *testing.T) {
	p := StreamParameters{Orientation: 90}
	assert.Equal(t, InitParamExternalPts|1<<16, InitParam(VideoFormatH264, p))

	p = StreamParameters{PtsInvalid: true, Orientation: 270}
	assert.Equal(t, InitParamExternalPts|InitParamSyncOutside|3<<16, InitParam(VideoFormatHevc, p))
	assert.Equal(t, InitParamExternalPts|InitParamKeyframePtsOnly|3<<16, InitParam(VideoFormatMpeg4, p))
	assert.Equal(t, InitParamKeyframePtsOnly|3<<16, InitParam(VideoFormatVc1, p))
	assert.Equal(t, uint32(0), InitParam(VideoFormatAv1, StreamParameters{Orientation: 45}))
}

func TestSelectDecMode(t *testing.T) {
	conf := DolbyVisionConf{Enable: true, Lossless: true}
	assert.Equal(t, DecModeSingle, SelectDecMode(VideoFormatVc1, StreamParameters{}, conf))
	assert.Equal(t, DecModeSingle, SelectDecMode(VideoFormatH264Mvc, StreamParameters{}, conf))

	dv := StreamParameters{HdrType: HdrTypeDolbyVision, DolbyVision: DolbyVision{Profile: 7, ElType: ElTypeFel}}
	assert.Equal(t, DecModeStream, SelectDecMode(VideoFormatHevc, dv, conf))
	assert.Equal(t, DecModeFrame, SelectDecMode(VideoFormatHevc, dv, DolbyVisionConf{Enable: true}))

	dv.DolbyVision.ElType = ElTypeMel
	assert.Equal(t, DecModeFrame, SelectDecMode(VideoFormatHevc, dv, conf))
}

func TestHdrStaticMetadata(t *testing.T) {
	p := StreamParameters{
		Mastering: &MasteringMetadata{
			DisplayPrimaries: [3][2]float64{{0.708, 0.292}, {0.17, 0.797}, {0.131, 0.046}},
			WhitePoint:       [2]float64{0.3127, 0.329},
			MaxLuminance:     1000,
			MinLuminance:     0.005,
		},
		ContentLight:  &ContentLightMetadata{MaxCll: 1000, MaxFall: 400},
		ColorTransfer: 16,
	}
	assert.Equal(t, "", HdrStaticMetadata(VideoFormatHevc, p))
	assert.Equal(t, "HDRStaticInfo:1;mR.x:35400;mR.y:14600;mG.x:8500;mG.y:39850;mB.x:6550;mB.y:2300;mW.x:15635;mW.y:16450;"+
		"mMaxDL:10000000;mMinDL:50;mCLLPresent:1;mMaxCLL:1000;mMaxFALL:400;mTransfer:16", HdrStaticMetadata(VideoFormatVp9, p))

	p.ContentLight = nil
	p.ColorTransfer = ColorTransferUnspecified
	assert.Equal(t, "HDRStaticInfo:1;mR.x:35400;mR.y:14600;mG.x:8500;mG.y:39850;mB.x:6550;mB.y:2300;mW.x:15635;mW.y:16450;"+
		"mMaxDL:10000000;mMinDL:50", HdrStaticMetadata(VideoFormatVp9, p))
}

func TestClone(t *testing.T) {
	p := StreamParameters{Extradata: []byte{1, 2, 3}}
	c := p.Clone()
	p.Extradata[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, c.Extradata)
}
