// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/mpegts"
	"github.com/q191201771/vdecfeed/pkg/vp9"
)

// 打印session dump文件中的每一条记录
//
// 对能识别的内容额外给出解析结果：
//   header记录如果是MPEG1/2 PS路径的PES头，打印PES头中的字段
//   payload记录如果带有VP9的AMLV marker，打印每个子帧的大小

var amlvTag = []byte{0x00, 0x00, 0x00, 0x01, 'A', 'M', 'L', 'V'}

func main() {
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.AssertBehavior = nazalog.AssertFatal
	})
	defer nazalog.Sync()

	filename, verbose := parseFlag()

	df := base.NewDumpFile()
	err := df.OpenToRead(filename)
	nazalog.Assert(nil, err)
	defer df.Close()

	counts := make(map[base.DumpType]int)
	var totalBytes int
	for i := 0; ; i++ {
		m, err := df.ReadOneMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			nazalog.Errorf("read message failed. index=%d, err=%+v", i, err)
			break
		}
		counts[m.Typ]++
		totalBytes += len(m.Body)

		if verbose {
			nazalog.Debugf("[%d] %s", i, m.DebugString())
		} else {
			nazalog.Debugf("[%d] typ=%s, len=%d, timestamp=%d", i, m.Typ, m.Len, m.Timestamp)
		}
		inspect(i, m)
	}
	nazalog.Infof("done. header=%d, payload=%d, rpu=%d, bytes=%d",
		counts[base.DumpTypeHeader], counts[base.DumpTypePayload], counts[base.DumpTypeRpu], totalBytes)
}

func inspect(i int, m base.DumpFileMessage) {
	switch m.Typ {
	case base.DumpTypeHeader:
		if len(m.Body) >= mpegts.PsVideoWrapperSize &&
			bytes.HasPrefix(m.Body, []byte{0x00, 0x00, 0x01, mpegts.StreamIdVideo}) {
			pes, length := mpegts.ParsePes(m.Body)
			nazalog.Infof("[%d] ps wrapper. sid=0x%x, ppl=%d, pts=%d, header=%d", i, pes.Sid, pes.Ppl, pes.Pts, length)
		}
	case base.DumpTypePayload:
		sizes := amlvFrameSizes(m.Body)
		if len(sizes) > 0 {
			nazalog.Infof("[%d] vp9 frames. sizes=%v", i, sizes)
		}
	case base.DumpTypeRpu:
		nazalog.Infof("[%d] dolby vision rpu. len=%d", i, len(m.Body))
	}
}

// amlvFrameSizes 按marker依次跳过每个子帧，不是marker开头时返回nil
func amlvFrameSizes(b []byte) []int {
	var sizes []int
	for len(b) >= vp9.MarkerSize && bytes.Equal(b[8:16], amlvTag) {
		size := int(bele.BeUint32(b)) - 4
		if size < 0 || vp9.MarkerSize+size > len(b) {
			break
		}
		sizes = append(sizes, size)
		b = b[vp9.MarkerSize+size:]
	}
	return sizes
}

func parseFlag() (string, bool) {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	i := flag.String("i", "", "specify dump file")
	verbose := flag.Bool("x", false, "dump hex of each record")
	flag.Parse()
	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		_, _ = fmt.Fprintln(os.Stderr, base.VdecFeedFullInfo)
		os.Exit(0)
	}
	if *i == "" {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  ./bin/dumpinspect -i ./dump/VDEC1.vdecdump
`)
		os.Exit(1)
	}
	return *i, *verbose
}
