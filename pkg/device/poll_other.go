// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build !unix

package device

import (
	"errors"
	"time"
)

var errPollNotSupported = errors.New("vdecfeed.device: poll not supported")

func PollWritable(fd int, timeout time.Duration) (bool, error) {
	time.Sleep(timeout)
	return false, errPollNotSupported
}

func newPollPipe() (r int, w int, err error) {
	return -1, -1, errPollNotSupported
}

func closeFd(fd int) {
}
