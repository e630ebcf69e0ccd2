// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/asticode/go-astits"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/h2645"
	"github.com/q191201771/vdecfeed/pkg/mpegts"
	"github.com/q191201771/vdecfeed/pkg/vformat"
)

// AccessUnit 一个视频PES的负载，时间戳单位为微秒
type AccessUnit struct {
	Data []byte
	Dts  uint64
	Pts  uint64
}

// TsSource 从MPEG-TS中取出第一路视频流
type TsSource struct {
	dmx *astits.Demuxer

	pid     uint16
	codecId vformat.CodecId
	havePid bool
	auCount int
	skipped int
}

func NewTsSource(ctx context.Context, r io.Reader) *TsSource {
	return &TsSource{
		dmx: astits.NewDemuxer(ctx, bufio.NewReaderSize(r, 188*1024)),
	}
}

// Next 返回下一个视频access unit，没有更多数据时返回 io.EOF
func (ts *TsSource) Next() (AccessUnit, error) {
	for {
		d, err := ts.dmx.NextData()
		if err != nil {
			if errors.Is(err, astits.ErrNoMorePackets) {
				return AccessUnit{}, io.EOF
			}
			return AccessUnit{}, err
		}

		if d.PMT != nil && !ts.havePid {
			ts.selectStream(d.PMT)
			continue
		}
		if d.PES == nil || !ts.havePid || d.PID != ts.pid {
			continue
		}

		au := AccessUnit{
			Data: d.PES.Data,
			Dts:  base.PtsInvalid,
			Pts:  base.PtsInvalid,
		}
		if oh := d.PES.Header.OptionalHeader; oh != nil {
			if oh.PTS != nil {
				au.Pts = clockToUs(oh.PTS.Base)
			}
			if oh.DTS != nil {
				au.Dts = clockToUs(oh.DTS.Base)
			}
		}
		if len(au.Data) == 0 {
			ts.skipped++
			continue
		}
		ts.auCount++
		return au, nil
	}
}

// Count 已经返回的access unit个数，以及因为负载为空而跳过的个数
func (ts *TsSource) Count() (au int, skipped int) {
	return ts.auCount, ts.skipped
}

// CodecId 第一个PMT之前为 vformat.CodecIdUnknown
func (ts *TsSource) CodecId() vformat.CodecId {
	return ts.codecId
}

func (ts *TsSource) selectStream(pmt *astits.PMTData) {
	for _, es := range pmt.ElementaryStreams {
		id := mpegts.StreamTypeToCodecId(uint8(es.StreamType))
		if id == vformat.CodecIdUnknown {
			continue
		}
		ts.pid = es.ElementaryPID
		ts.codecId = id
		ts.havePid = true
		nazalog.Infof("select video stream. pid=%d, stream type=0x%x, codec=%d", es.ElementaryPID, uint8(es.StreamType), id)
		return
	}
	nazalog.Warnf("no supported video stream in pmt. program=%d, streams=%d", pmt.ProgramNumber, len(pmt.ElementaryStreams))
}

// 90KHz -> 微秒
func clockToUs(v int64) uint64 {
	return uint64(v) * base.TimeBase / 90000
}

// ---------------------------------------------------------------------------------------------------------------------

// ExtractParamSets 从annexb格式的关键帧中取出参数集，作为extradata使用
//
// 没有参数集时返回nil
//
func ExtractParamSets(isH264 bool, au []byte) []byte {
	var out []byte
	_ = h2645.IterateNaluAnnexb(au, func(nal []byte) {
		if len(nal) == 0 {
			return
		}
		t := h2645.ParseNaluType(isH264, nal[0])
		var keep bool
		if isH264 {
			keep = t == h2645.H264NaluTypeSps || t == h2645.H264NaluTypePps
		} else {
			keep = t == h2645.H265NaluTypeVps || t == h2645.H265NaluTypeSps || t == h2645.H265NaluTypePps
		}
		if keep {
			out = append(out, h2645.NaluStartCode4...)
			out = append(out, nal...)
		}
	})
	return out
}
