// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"encoding/hex"
	"fmt"

	"github.com/q191201771/naza/pkg/nazabytes"
	"github.com/q191201771/naza/pkg/nazalog"
)

// LogDump 按次数限制的hex dump日志
//
// 每个packet都dump会刷屏，所以debug级别时只打印前debugMaxNum次，trace级别时全部打印
//
type LogDump struct {
	log         nazalog.Logger
	debugMaxNum int

	debugCount int
}

// NewLogDump
//
// @param debugMaxNum: 日志最小级别为debug时，使用debug打印日志次数的阈值
//
func NewLogDump(log nazalog.Logger, debugMaxNum int) LogDump {
	return LogDump{
		log:         log,
		debugMaxNum: debugMaxNum,
	}
}

func (ld *LogDump) ShouldDump() bool {
	switch ld.log.GetOption().Level {
	case nazalog.LevelTrace:
		return true
	case nazalog.LevelDebug:
		if ld.debugCount >= ld.debugMaxNum {
			return false
		}
		ld.debugCount++
		return true
	}
	return false
}

// Outf
//
// 调用之前需调用 ShouldDump，避免不需要打印时构造实参（比如hex.Dump）的开销
//
func (ld *LogDump) Outf(format string, v ...interface{}) {
	ld.log.Out(ld.log.GetOption().Level, 3, fmt.Sprintf(format, v...))
}

// DumpBytes 打印`b`前`max`字节的hex
//
func (ld *LogDump) DumpBytes(prefix string, b []byte, max int) {
	if !ld.ShouldDump() {
		return
	}
	ld.Outf("%s len=%d\n%s", prefix, len(b), hex.Dump(nazabytes.Prefix(b, max)))
}

// Reset 重新开始计数，比如decoder reset之后
//
func (ld *LogDump) Reset() {
	ld.debugCount = 0
}
