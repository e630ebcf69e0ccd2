// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/unique"

const (
	UkPreDecoderSession = "VDEC"
	UkPreSimDevice      = "SIMDEV"
)

var (
	siUkDecoderSession *unique.SingleGenerator
	siUkSimDevice      *unique.SingleGenerator
)

func GenUkDecoderSession() string {
	return siUkDecoderSession.GenUniqueKey()
}

func GenUkSimDevice() string {
	return siUkSimDevice.GenUniqueKey()
}

func init() {
	siUkDecoderSession = unique.NewSingleGenerator(UkPreDecoderSession)
	siUkSimDevice = unique.NewSingleGenerator(UkPreSimDevice)
}
