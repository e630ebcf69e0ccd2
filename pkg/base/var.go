// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

// PtsInvalid 无效时间戳的哨兵值，与设备侧约定的值一致
const PtsInvalid uint64 = 0x8000000000000000

// TimeBase 上层传入的pts/dts的时间单位，微秒
const TimeBase = 1000000

// VideoRateBase 设备侧video rate的时间单位，96KHz
const VideoRateBase = 96000
