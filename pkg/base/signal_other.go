// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build !linux && !darwin && !netbsd && !freebsd && !openbsd && !dragonfly

package base

func RunSignalHandler(cb func()) {
}
