// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build unix

package device

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// PollWritable 等待`fd`可写，或者超时
//
// @return 可写时返回true，超时返回false
//
func PollWritable(fd int, timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		n, err := unix.Poll(fds, int(timeout/time.Millisecond))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0 && fds[0].Revents&unix.POLLOUT != 0, nil
	}
}

// newPollPipe Sim使用的可poll的描述符，返回读端和写端
func newPollPipe() (r int, w int, err error) {
	var p [2]int
	if err = unix.Pipe(p[:]); err != nil {
		return -1, -1, err
	}
	return p[0], p[1], nil
}

func closeFd(fd int) {
	_ = unix.Close(fd)
}
