// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"testing"

	"github.com/asticode/go-astits"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/vdecfeed/pkg/mpegts"
	"github.com/q191201771/vdecfeed/pkg/vformat"
)

func TestExtractParamSets(t *testing.T) {
	au := []byte{
		0x00, 0x00, 0x00, 0x01, 0x09, 0xf0, // AUD
		0x00, 0x00, 0x00, 0x01, 0x67, 0x64, 0x00, 0x28, // SPS
		0x00, 0x00, 0x01, 0x68, 0xee, 0x3c, // PPS
		0x00, 0x00, 0x01, 0x65, 0x88, 0x84, // IDR
	}
	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x01, 0x67, 0x64, 0x00, 0x28,
		0x00, 0x00, 0x00, 0x01, 0x68, 0xee, 0x3c,
	}, ExtractParamSets(true, au))

	// 非关键帧没有参数集
	assert.Equal(t, []byte(nil), ExtractParamSets(true, []byte{0x00, 0x00, 0x00, 0x01, 0x41, 0x9a}))
}

// astits的stream type与PMT中的取值一致
func TestStreamType(t *testing.T) {
	assert.Equal(t, vformat.CodecIdH264, mpegts.StreamTypeToCodecId(uint8(astits.StreamTypeH264Video)))
	assert.Equal(t, vformat.CodecIdHevc, mpegts.StreamTypeToCodecId(uint8(astits.StreamTypeH265Video)))
	assert.Equal(t, vformat.CodecIdMpeg2Video, mpegts.StreamTypeToCodecId(uint8(astits.StreamTypeMPEG2Video)))
	assert.Equal(t, vformat.CodecIdUnknown, mpegts.StreamTypeToCodecId(uint8(astits.StreamTypeAACAudio)))
	assert.Equal(t, uint64(1000000), clockToUs(90000))
}
