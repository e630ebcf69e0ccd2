// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import "github.com/q191201771/vdecfeed/pkg/vformat"

// <iso13818-1.pdf> <Table 2-34 Stream type assignments>
const (
	StreamTypeMpeg1Video uint8 = 0x01
	StreamTypeMpeg2Video uint8 = 0x02
	StreamTypeMpeg4Video uint8 = 0x10
	StreamTypeAvc        uint8 = 0x1b
	StreamTypeHevc       uint8 = 0x24
	StreamTypeCavs       uint8 = 0x42
	StreamTypeVc1        uint8 = 0xea

	// 私有数据，需要通过registration descriptor进一步区分，比如AV1的'AV01'
	StreamTypePrivateData uint8 = 0x06
)

// StreamTypeToCodecId
//
// @return 非视频或者不支持的类型返回 vformat.CodecIdUnknown
//
func StreamTypeToCodecId(st uint8) vformat.CodecId {
	switch st {
	case StreamTypeMpeg1Video:
		return vformat.CodecIdMpeg1Video
	case StreamTypeMpeg2Video:
		return vformat.CodecIdMpeg2Video
	case StreamTypeMpeg4Video:
		return vformat.CodecIdMpeg4
	case StreamTypeAvc:
		return vformat.CodecIdH264
	case StreamTypeHevc:
		return vformat.CodecIdHevc
	case StreamTypeCavs:
		return vformat.CodecIdCavs
	case StreamTypeVc1:
		return vformat.CodecIdVc1
	}
	return vformat.CodecIdUnknown
}
