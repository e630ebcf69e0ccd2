// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/device"
	"github.com/q191201771/vdecfeed/pkg/picture"
	"github.com/q191201771/vdecfeed/pkg/vdec"
	"github.com/q191201771/vdecfeed/pkg/vformat"
)

// 读取一个MPEG-TS文件，将第一路视频流写入模拟的硬件decoder，同时在另一个协程中取图并归还
//
// 可以用来观察session的水位、重试以及header合成的行为，配合dump配置抓取实际写入decoder的字节流

const notAdmittedWait = 5 * time.Millisecond

var defaultConfigFiles = []string{
	"vdecfeed.conf.json",
	"./conf/vdecfeed.conf.json",
	"../conf/vdecfeed.conf.json",
}

func main() {
	defer nazalog.Sync()

	confFile, inFile, simBufSize := parseFlag()
	rawContent := base.WrapReadConfigFile(confFile, defaultConfigFiles, nil)
	conf, err := vdec.LoadConfRaw(rawContent)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "parse conf file failed. err=%+v\n", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
	if err = nazalog.Init(func(option *nazalog.Option) {
		*option = conf.Log
	}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "initial log failed. err=%+v\n", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
	base.LogoutStartInfo()

	fp, err := os.Open(inFile)
	nazalog.Assert(nil, err)
	defer fp.Close()

	sim := device.NewSim(func(c *device.SimConfig) {
		c.BufSize = simBufSize
	})
	session := vdec.NewSession(sim, *conf)

	go base.RunSignalHandler(func() {
		logoutStat(session, sim)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &feeding{
		session: session,
		src:     NewTsSource(ctx, fp),
		opened:  make(chan struct{}),
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := f.produce(); err != nil {
			nazalog.Errorf("produce failed. err=%+v", err)
		}
	}()
	go func() {
		defer wg.Done()
		f.consume()
	}()
	wg.Wait()

	logoutStat(session, sim)
	session.Close()
}

// feeding 写入协程和取图协程共享的状态
//
// session在写入协程中收到第一个视频access unit时open，open之前取图协程一直等待
//
type feeding struct {
	session *vdec.Session
	src     *TsSource

	opened    chan struct{}
	openOnce  sync.Once
	openError error

	writeMu sync.Mutex // AddData与取图协程触发的Reset互斥
}

func (f *feeding) produce() error {
	defer f.markOpened(nil)

	for {
		au, err := f.src.Next()
		if err == io.EOF {
			n, skipped := f.src.Count()
			nazalog.Infof("input eof, drain. au=%d, skipped=%d", n, skipped)
			f.session.SetDrain(true)
			return nil
		}
		if err != nil {
			f.session.SetDrain(true)
			return err
		}

		if !f.session.Opened() {
			if err = f.open(au); err != nil {
				f.markOpened(err)
				return err
			}
			f.markOpened(nil)
		}

		for {
			f.writeMu.Lock()
			ok, err := f.session.AddData(au.Data, au.Dts, au.Pts)
			f.writeMu.Unlock()
			if ok {
				break
			}
			if errors.Is(err, base.ErrNotAdmitted) {
				time.Sleep(notAdmittedWait)
				continue
			}
			// stall时session已经reset，当前access unit丢弃
			nazalog.Warnf("drop access unit. size=%d, pts=%d, err=%+v", len(au.Data), au.Pts, err)
			break
		}
	}
}

func (f *feeding) open(first AccessUnit) error {
	params := vformat.StreamParameters{
		CodecId:    f.src.CodecId(),
		StreamType: vformat.StreamTypeEs,
	}
	switch params.CodecId {
	case vformat.CodecIdH264:
		params.Extradata = ExtractParamSets(true, first.Data)
	case vformat.CodecIdHevc:
		params.Extradata = ExtractParamSets(false, first.Data)
	}
	return f.session.Open(params)
}

func (f *feeding) markOpened(err error) {
	f.openOnce.Do(func() {
		f.openError = err
		close(f.opened)
	})
}

func (f *feeding) consume() {
	<-f.opened
	if f.openError != nil || !f.session.Opened() {
		return
	}

	for {
		r, pic, err := f.session.GetPicture()
		switch r {
		case picture.ResultPicture:
			nazalog.Debugf("picture. index=%d, pts=%d, dur=%.0f, level=%.2f", pic.Index, pic.Pts, pic.Duration, pic.Level)
			if err := f.session.ReleaseFrame(pic.Index, false); err != nil {
				nazalog.Warnf("release frame failed. index=%d, err=%+v", pic.Index, err)
			}
			continue
		case picture.ResultEof:
			nazalog.Infof("picture eof.")
			return
		case picture.ResultError:
			nazalog.Errorf("get picture failed. err=%+v", err)
			return
		case picture.ResultFlushed:
			f.onFlushed(err)
		}

		if f.session.PollFrame() {
			<-f.session.SyncEvent()
		}
		time.Sleep(notAdmittedWait)
	}
}

// onFlushed decoder取图出错或者超时，reset之后继续写入和取图
func (f *feeding) onFlushed(err error) {
	nazalog.Warnf("decoder flushed, reset. err=%+v", err)
	f.writeMu.Lock()
	f.session.Reset()
	f.writeMu.Unlock()
}

func logoutStat(session *vdec.Session, sim *device.Sim) {
	b, _ := json.Marshal(session.Stat())
	nazalog.Infof("session stat: %s", string(b))
	nazalog.Infof("device stat: %+v", sim.GetStat())
}

func parseFlag() (confFile string, inFile string, simBufSize int) {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	cf := flag.String("c", "", "specify conf file")
	i := flag.String("i", "", "specify mpegts file")
	bs := flag.Int("b", 2*1024*1024, "specify simulated decoder buffer size")
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
  ./bin/vdecfeed -c ./conf/vdecfeed.conf.json -i ./testdata/test.ts
`)
		base.OsExitAndWaitPressIfWindows(1)
	}
	return *cf, *i, *bs
}
