// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "strings"

// 版本，该变量由外部脚本修改维护
const VdecFeedVersion = "v0.1.0"

var (
	VdecFeedLibraryName = "vdecfeed"
	VdecFeedGithubRepo  = "github.com/q191201771/vdecfeed"

	// e.g. vdecfeed v0.1.0 (github.com/q191201771/vdecfeed)
	VdecFeedFullInfo = VdecFeedLibraryName + " " + VdecFeedVersion + " (" + VdecFeedGithubRepo + ")"

	// e.g. 0.1.0
	VdecFeedVersionDot string
)

func init() {
	VdecFeedVersionDot = strings.TrimPrefix(VdecFeedVersion, "v")
}
