// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"bytes"
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/device"
	"github.com/q191201771/vdecfeed/pkg/vdec"
	"github.com/q191201771/vdecfeed/pkg/vformat"
)

func TestFeeding_OnFlushed(t *testing.T) {
	var tap bytes.Buffer
	sim := device.NewSim(func(conf *device.SimConfig) {
		conf.BufSize = 64 * 1024
		conf.Tap = &tap
	})
	session := vdec.NewSession(sim, vdec.DefaultConfig())
	defer session.Close()

	f := &feeding{session: session}
	first := []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x64, 0x00, 0x28, 0x00, 0x00, 0x00, 0x01, 0x65, 0x88}
	extradata := ExtractParamSets(true, first)
	assert.Equal(t, first[:8], extradata)
	assert.Equal(t, nil, session.Open(vformat.StreamParameters{
		CodecId:    vformat.CodecIdH264,
		Extradata:  extradata,
		StreamType: vformat.StreamTypeEs,
	}))

	ok, err := session.AddData(first, 0, 0)
	assert.Equal(t, true, ok)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, bytes.HasPrefix(tap.Bytes(), extradata))

	before := sim.GetStat().ResetCount
	f.onFlushed(base.ErrDeviceTimeout)
	assert.Equal(t, before+1, sim.GetStat().ResetCount)
	assert.Equal(t, uint64(1), session.Stat().Resets)
	assert.Equal(t, true, session.Opened())
	assert.Equal(t, vformat.VideoFormatH264, session.Format())

	// reset之后重新写入init header
	tap.Reset()
	next := []byte{0x00, 0x00, 0x00, 0x01, 0x41, 0x9a}
	ok, err = session.AddData(next, 40000, 40000)
	assert.Equal(t, true, ok)
	assert.Equal(t, nil, err)
	assert.Equal(t, append(append([]byte{}, extradata...), next...), tap.Bytes())
}
