// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/vdecfeed/pkg/mpegts"
	"github.com/q191201771/vdecfeed/pkg/vformat"
)

func TestPackPsVideoWrapper(t *testing.T) {
	golden := []byte{
		0x00, 0x00, 0x01, 0xe0,
		0x00, 0x2b,
		0x81, 0xc0, 0x0d,
		0x20, 0x00, 0x00, 0x00, 0x00,
		0x1f, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
	out := make([]byte, mpegts.PsVideoWrapperSize)
	mpegts.PackPsVideoWrapper(out, 18)
	assert.Equal(t, golden, out)

	pes, length := mpegts.ParsePes(out)
	assert.Equal(t, uint32(1), pes.Pscp)
	assert.Equal(t, mpegts.StreamIdVideo, pes.Sid)
	assert.Equal(t, uint16(18+25), pes.Ppl)
	assert.Equal(t, uint8(3), pes.PtsDtsFlag)
	assert.Equal(t, 9+13, length)
}

func TestParsePes(t *testing.T) {
	// pts=90000, 只有pts
	b := []byte{0x00, 0x00, 0x01, 0xe0, 0x00, 0x00, 0x80, 0x80, 0x05, 0x21, 0x00, 0x05, 0xbf, 0x21}
	pes, length := mpegts.ParsePes(b)
	assert.Equal(t, 14, length)
	assert.Equal(t, uint64(90000), pes.Pts)
	assert.Equal(t, uint64(90000), pes.Dts)

	// 长度不够时不读取时间戳
	pes, length = mpegts.ParsePes(b[:10])
	assert.Equal(t, 14, length)
	assert.Equal(t, uint64(0), pes.Pts)
}

func TestStreamTypeToCodecId(t *testing.T) {
	assert.Equal(t, vformat.CodecIdH264, mpegts.StreamTypeToCodecId(mpegts.StreamTypeAvc))
	assert.Equal(t, vformat.CodecIdHevc, mpegts.StreamTypeToCodecId(mpegts.StreamTypeHevc))
	assert.Equal(t, vformat.CodecIdUnknown, mpegts.StreamTypeToCodecId(0x0f))
}
