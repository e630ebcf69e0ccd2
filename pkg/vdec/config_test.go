// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vdec

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazalog"
)

func TestLoadConfRaw(t *testing.T) {
	c, err := LoadConfRaw([]byte("{}"))
	assert.Equal(t, nil, err)
	assert.Equal(t, 10, c.DecoderTimeoutSec)
	assert.Equal(t, 100, c.WriteRetryMax)
	assert.Equal(t, 5*time.Millisecond, c.wouldBlockWait())
	assert.Equal(t, 50000, c.LargePacketBytes)
	assert.Equal(t, 2*time.Millisecond, c.largePacketWait())
	assert.Equal(t, 50*time.Millisecond, c.pollTimeout())
	assert.Equal(t, 64*1024*1024, c.MaxScratchBytes)
	assert.Equal(t, false, c.Dump.Enable)
	assert.Equal(t, false, c.DolbyVision.Enable)
	assert.Equal(t, nazalog.LevelDebug, c.Log.Level)

	raw := []byte(`{
  "decoder_timeout_sec": 3,
  "write_retry_max": 0,
  "dolby_vision": {"enable": true, "lossless": true},
  "dump": {"enable": true},
  "log": {"level": 2}
}`)
	c, err = LoadConfRaw(raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, 3*time.Second, c.decoderTimeout())
	// 显式配置为0时至少写一次
	assert.Equal(t, 1, c.WriteRetryMax)
	assert.Equal(t, true, c.DolbyVision.Lossless)
	assert.Equal(t, true, c.Dump.Enable)
	assert.Equal(t, "./dump/", c.Dump.OutPath)
	assert.Equal(t, nazalog.LevelInfo, c.Log.Level)

	c, err = LoadConfRaw([]byte(`{"write_retry_max": -3, "large_packet_bytes": 0}`))
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, c.WriteRetryMax)
	assert.Equal(t, 0, c.LargePacketBytes)

	_, err = LoadConfRaw([]byte("{"))
	assert.IsNotNil(t, err)
}

func TestLoadConf(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "vdecfeed.conf.json")
	assert.Equal(t, nil, os.WriteFile(filename, []byte(`{"poll_timeout_ms": 20}`), 0644))
	c, err := LoadConf(filename)
	assert.Equal(t, nil, err)
	assert.Equal(t, 20, c.PollTimeoutMs)

	_, err = LoadConf(filepath.Join(t.TempDir(), "notexist.json"))
	assert.IsNotNil(t, err)
}
