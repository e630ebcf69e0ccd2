// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vdec

import (
	"encoding/json"
	"os"
	"time"

	"github.com/q191201771/naza/pkg/nazajson"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/vdecfeed/pkg/vformat"
)

type Config struct {
	Log nazalog.Option `json:"log"`

	DecoderTimeoutSec int `json:"decoder_timeout_sec"`
	WriteRetryMax     int `json:"write_retry_max"`
	WouldBlockWaitMs  int `json:"would_block_wait_ms"`
	LargePacketBytes  int `json:"large_packet_bytes"`
	LargePacketWaitMs int `json:"large_packet_wait_ms"`
	PollTimeoutMs     int `json:"poll_timeout_ms"`
	MaxScratchBytes   int `json:"max_scratch_bytes"`

	H2644k2kSupport bool                    `json:"h264_4k2k_support"`
	DolbyVision     vformat.DolbyVisionConf `json:"dolby_vision"`
	Dump            DumpConfig              `json:"dump"`
}

// DumpConfig 将写入decoder的数据抓取到文件，文件名为session的unique key
type DumpConfig struct {
	Enable  bool   `json:"enable"`
	OutPath string `json:"out_path"`
}

const (
	defaultDecoderTimeoutSec = 10
	defaultWriteRetryMax     = 100
	defaultWouldBlockWaitMs  = 5
	defaultLargePacketBytes  = 50000
	defaultLargePacketWaitMs = 2
	defaultPollTimeoutMs     = 50
	defaultMaxScratchBytes   = 64 * 1024 * 1024
	defaultDumpOutPath       = "./dump/"
)

// DefaultConfig 所有字段都是默认值
func DefaultConfig() Config {
	c, _ := LoadConfRaw([]byte("{}"))
	return *c
}

func LoadConf(confFile string) (*Config, error) {
	rawContent, err := os.ReadFile(confFile)
	if err != nil {
		return nil, err
	}
	return LoadConfRaw(rawContent)
}

// LoadConfRaw 配置中不存在的字段使用默认值
func LoadConfRaw(rawContent []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(rawContent, &config); err != nil {
		return nil, err
	}

	j, err := nazajson.New(rawContent)
	if err != nil {
		return nil, err
	}
	if !j.Exist("decoder_timeout_sec") {
		config.DecoderTimeoutSec = defaultDecoderTimeoutSec
	}
	if !j.Exist("write_retry_max") {
		config.WriteRetryMax = defaultWriteRetryMax
	}
	// 至少写一次，否则每个packet都会被当作stall
	if config.WriteRetryMax < 1 {
		Log.Warnf("write_retry_max too small, use 1. value=%d", config.WriteRetryMax)
		config.WriteRetryMax = 1
	}
	if !j.Exist("would_block_wait_ms") {
		config.WouldBlockWaitMs = defaultWouldBlockWaitMs
	}
	if !j.Exist("large_packet_bytes") {
		config.LargePacketBytes = defaultLargePacketBytes
	}
	if !j.Exist("large_packet_wait_ms") {
		config.LargePacketWaitMs = defaultLargePacketWaitMs
	}
	if !j.Exist("poll_timeout_ms") {
		config.PollTimeoutMs = defaultPollTimeoutMs
	}
	if !j.Exist("max_scratch_bytes") {
		config.MaxScratchBytes = defaultMaxScratchBytes
	}
	if !j.Exist("dump.out_path") {
		config.Dump.OutPath = defaultDumpOutPath
	}

	if !j.Exist("log.level") {
		config.Log.Level = nazalog.LevelDebug
	}
	if !j.Exist("log.filename") {
		config.Log.Filename = "./logs/vdecfeed.log"
	}
	if !j.Exist("log.is_to_stdout") {
		config.Log.IsToStdout = true
	}
	if !j.Exist("log.is_rotate_daily") {
		config.Log.IsRotateDaily = true
	}
	if !j.Exist("log.short_file_flag") {
		config.Log.ShortFileFlag = true
	}
	if !j.Exist("log.assert_behavior") {
		config.Log.AssertBehavior = nazalog.AssertError
	}
	return &config, nil
}

func (c *Config) decoderTimeout() time.Duration {
	return time.Duration(c.DecoderTimeoutSec) * time.Second
}

func (c *Config) wouldBlockWait() time.Duration {
	return time.Duration(c.WouldBlockWaitMs) * time.Millisecond
}

func (c *Config) largePacketWait() time.Duration {
	return time.Duration(c.LargePacketWaitMs) * time.Millisecond
}

func (c *Config) pollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutMs) * time.Millisecond
}
