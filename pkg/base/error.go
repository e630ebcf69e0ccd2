// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// ----- 通用的 ---------------------------------------------------------------------------------------------------------

var (
	ErrShortBuffer = errors.New("vdecfeed: buffer too short")

	// ErrWouldBlock 设备暂时无法接收数据，同样的调用稍后重试即可
	ErrWouldBlock = errors.New("vdecfeed: would block")

	// ErrOutOfMemory header或scratch buffer申请失败，只影响当前packet
	ErrOutOfMemory = errors.New("vdecfeed: out of memory")

	// ErrMalformedBitstream OBU或superframe不满足顺序或长度约束
	ErrMalformedBitstream = errors.New("vdecfeed: malformed bitstream")
)

func NewErrOutOfMemory(need, limit int) error {
	return fmt.Errorf("%w. need=%d, limit=%d", ErrOutOfMemory, need, limit)
}

// ----- pkg/header ----------------------------------------------------------------------------------------------------

var (
	ErrHeaderUnavailable = errors.New("vdecfeed.header: header unavailable")
	ErrHeaderUnsupported = errors.New("vdecfeed.header: unsupported codec")
)

// ----- pkg/av1 -------------------------------------------------------------------------------------------------------

var (
	ErrAv1Length   = errors.New("vdecfeed.av1: obu length overrun")
	ErrAv1Ordering = errors.New("vdecfeed.av1: obu ordering violated")
)

func NewErrAv1Length(pos, need, remain int) error {
	return fmt.Errorf("%w: %w. pos=%d, need=%d, remain=%d", ErrMalformedBitstream, ErrAv1Length, pos, need, remain)
}

func NewErrAv1Ordering(pos int, typ string) error {
	return fmt.Errorf("%w: %w. pos=%d, type=%s", ErrMalformedBitstream, ErrAv1Ordering, pos, typ)
}

// ----- pkg/vp9 -------------------------------------------------------------------------------------------------------

var (
	ErrVp9NotSuperframe     = errors.New("vdecfeed.vp9: not a superframe")
	ErrVp9SuperframeOverrun = errors.New("vdecfeed.vp9: superframe sizes exceed packet")
)

func NewErrVp9SuperframeOverrun(total, size int) error {
	return fmt.Errorf("%w: %w. total=%d, size=%d", ErrMalformedBitstream, ErrVp9SuperframeOverrun, total, size)
}

// ----- pkg/feeder ----------------------------------------------------------------------------------------------------

var (
	// ErrDeviceStall 一次调用内重试次数耗尽，packet仍然没有写完，需要reset decoder
	ErrDeviceStall = errors.New("vdecfeed.feeder: device stall")

	// ErrFatalWrite 设备返回了非would block的写错误
	ErrFatalWrite = errors.New("vdecfeed.feeder: fatal write")
)

func NewErrDeviceStall(loop int, remain int) error {
	return fmt.Errorf("%w. loop=%d, remain=%d", ErrDeviceStall, loop, remain)
}

func NewErrFatalWrite(err error) error {
	return fmt.Errorf("%w: %v", ErrFatalWrite, err)
}

// ----- pkg/picture ---------------------------------------------------------------------------------------------------

var (
	// ErrDeviceTimeout 超时时间内没有dequeue到任何帧
	ErrDeviceTimeout = errors.New("vdecfeed.picture: device timeout")

	// ErrFatalDequeue 设备返回了非would block的dequeue错误
	ErrFatalDequeue = errors.New("vdecfeed.picture: fatal dequeue")
)

// ----- pkg/device ----------------------------------------------------------------------------------------------------

var (
	ErrDeviceClosed       = errors.New("vdecfeed.device: device closed")
	ErrDeviceInvalidIndex = errors.New("vdecfeed.device: invalid buffer index")
)

// ----- pkg/vdec ------------------------------------------------------------------------------------------------------

var (
	ErrSessionNotOpened     = errors.New("vdecfeed.vdec: session not opened")
	ErrSessionAlreadyOpened = errors.New("vdecfeed.vdec: session already opened")
	ErrNotAdmitted          = errors.New("vdecfeed.vdec: data not admitted")
	ErrUnsupportedFormat    = errors.New("vdecfeed.vdec: unsupported video format")
)

func NewErrNotAdmitted(reason string, level int) error {
	return fmt.Errorf("%w. reason=%s, level=%d", ErrNotAdmitted, reason, level)
}
