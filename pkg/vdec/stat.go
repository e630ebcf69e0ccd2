// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vdec

import (
	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/vdecfeed/pkg/picture"
)

// StatSession session的统计信息
type StatSession struct {
	SessionId string `json:"session_id"`
	StartTime string `json:"start_time"`
	Format    string `json:"format"`
	DecMode   string `json:"dec_mode"`

	PacketsAccepted uint64 `json:"packets_accepted"`
	PacketsRejected uint64 `json:"packets_rejected"`
	BytesAccepted   uint64 `json:"bytes_accepted"`
	HeaderBytes     uint64 `json:"header_bytes"`
	Malformed       uint64 `json:"malformed"`
	Stalls          uint64 `json:"stalls"`
	Resets          uint64 `json:"resets"`
	Pictures        uint64 `json:"pictures"`
	Flushed         uint64 `json:"flushed"`
	Released        uint64 `json:"released"`
	Dropped         uint64 `json:"dropped"`
	Rpus            uint64 `json:"rpus"`
}

// sessionStatAtomic 写入线程和取图线程都会更新
type sessionStatAtomic struct {
	packetsAccepted nazaatomic.Uint64
	packetsRejected nazaatomic.Uint64
	bytesAccepted   nazaatomic.Uint64
	headerBytes     nazaatomic.Uint64
	malformed       nazaatomic.Uint64
	stalls          nazaatomic.Uint64
	resets          nazaatomic.Uint64
	pictures        nazaatomic.Uint64
	flushed         nazaatomic.Uint64
	released        nazaatomic.Uint64
	dropped         nazaatomic.Uint64
	rpus            nazaatomic.Uint64
}

func (s *sessionStatAtomic) onPictureResult(r picture.Result) {
	switch r {
	case picture.ResultPicture:
		s.pictures.Increment()
	case picture.ResultFlushed:
		s.flushed.Increment()
	}
}

func (s *sessionStatAtomic) fill(out *StatSession) {
	out.PacketsAccepted = s.packetsAccepted.Load()
	out.PacketsRejected = s.packetsRejected.Load()
	out.BytesAccepted = s.bytesAccepted.Load()
	out.HeaderBytes = s.headerBytes.Load()
	out.Malformed = s.malformed.Load()
	out.Stalls = s.stalls.Load()
	out.Resets = s.resets.Load()
	out.Pictures = s.pictures.Load()
	out.Flushed = s.flushed.Load()
	out.Released = s.released.Load()
	out.Dropped = s.dropped.Load()
	out.Rpus = s.rpus.Load()
}
