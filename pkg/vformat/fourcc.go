// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vformat

import "github.com/q191201771/naza/pkg/bele"

// FourCC 将4个字符按小端打包成codec tag，与容器中的存储方式一致
//
// e.g. FourCC("WMV3") == 0x33564d57
//
func FourCC(s string) uint32 {
	if len(s) != 4 {
		return 0
	}
	return bele.LeUint32([]byte(s))
}

// FourCCString FourCC的逆操作，主要用于日志
func FourCCString(tag uint32) string {
	b := make([]byte, 4)
	bele.LePutUint32(b, tag)
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7e {
			b[i] = '.'
		}
	}
	return string(b)
}

var (
	TagXVID = FourCC("XVID")
	TagXvid = FourCC("xvid")
	TagXVIX = FourCC("XVIX")
	TagCOL1 = FourCC("COL1")
	TagDIV3 = FourCC("DIV3")
	TagMP43 = FourCC("MP43")
	TagDIV4 = FourCC("DIV4")
	TagDIVX = FourCC("DIVX")
	TagDIV5 = FourCC("DIV5")
	TagDX50 = FourCC("DX50")
	TagM4S2 = FourCC("M4S2")
	TagFMP4 = FourCC("FMP4")
	TagDIV6 = FourCC("DIV6")
	TagMP4V = FourCC("MP4V")
	TagRMP4 = FourCC("RMP4")
	TagMPG4 = FourCC("MPG4")
	TagMp4v = FourCC("mp4v")

	TagH263      = FourCC("H263")
	TagH263Lower = FourCC("h263")
	TagS263      = FourCC("s263")
	TagF263      = FourCC("F263")

	TagAVC1      = FourCC("AVC1")
	TagAvc1      = FourCC("avc1")
	TagH264      = FourCC("H264")
	TagH264Lower = FourCC("h264")
	TagAMVC      = FourCC("AMVC")
	TagMVC1      = FourCC("MVC1")

	TagRV30 = FourCC("RV30")
	TagRV40 = FourCC("RV40")

	TagWMV3 = FourCC("WMV3")
	TagVC1  = FourCC("VC-1")
	TagWVC1 = FourCC("WVC1")
	TagWMVA = FourCC("WMVA")

	TagMJPG = FourCC("MJPG")
	TagMjpg = FourCC("mjpg")
	TagJpeg = FourCC("jpeg")
	TagMjpa = FourCC("mjpa")
	TagLJPG = FourCC("LJPG")
)
