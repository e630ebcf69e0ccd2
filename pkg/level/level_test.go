// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package level

import (
	"errors"
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/vdecfeed/pkg/base"
	"github.com/q191201771/vdecfeed/pkg/device"
	"github.com/q191201771/vdecfeed/pkg/vformat"
)

type fakeQuerier struct {
	st  device.BufStatus
	err error
}

func (f *fakeQuerier) QueryLevel() (device.BufStatus, error) {
	return f.st, f.err
}

func TestCalcChunkSize(t *testing.T) {
	assert.Equal(t, 4096, CalcChunkSize(0))
	assert.Equal(t, 4096, CalcChunkSize(100))
	// 刚好填满一页时会再多填充一页
	assert.Equal(t, 8192, CalcChunkSize(4032))
	assert.Equal(t, 4096+64, CalcChunkSize(4096))
	assert.Equal(t, 4160+64, CalcChunkSize(4097))
	assert.Equal(t, 50048+64, CalcChunkSize(50000))
}

func TestCalcLevel(t *testing.T) {
	assert.Equal(t, float64(100), CalcLevel(device.BufStatus{Size: 100, DataLen: 100, FreeLen: 0}, 0))
	assert.Equal(t, float64(0), CalcLevel(device.BufStatus{Size: 0, FreeLen: 10}, 0))
	assert.Equal(t, float64(50), CalcLevel(device.BufStatus{Size: 800, DataLen: 300, FreeLen: 500}, 100))
}

func TestGate_StreamMode(t *testing.T) {
	q := &fakeQuerier{st: device.BufStatus{Size: 100000, DataLen: 10000, FreeLen: 90000}}
	g := NewGate(q, vformat.DecModeStream)

	// 水位未到90%，不锁存
	ss, err := g.Admit(true, 100)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, g.Ready())
	assert.Equal(t, false, g.CanDequeue(ss))

	q.st = device.BufStatus{Size: 100000, DataLen: 90000, FreeLen: 10000}
	_, err = g.Admit(true, 100)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, g.Ready())

	// 锁存后水位下降也保持ready
	q.st = device.BufStatus{Size: 100000, DataLen: 5000, FreeLen: 95000}
	_, _ = g.Admit(true, 100)
	assert.Equal(t, true, g.Ready())

	ss, _ = g.Query(0)
	assert.Equal(t, false, g.CanDequeue(ss))
	q.st.DataLen = 20000
	ss, _ = g.Query(0)
	assert.Equal(t, true, g.CanDequeue(ss))

	// stream模式下取图不降低floor
	g.OnPicture()
	assert.Equal(t, float64(10), g.Floor())
	assert.Equal(t, false, g.AboveUpper(Snapshot{Level: 100}))

	g.Reset()
	assert.Equal(t, false, g.Ready())
}

func TestGate_FrameMode(t *testing.T) {
	q := &fakeQuerier{st: device.BufStatus{Size: 100000, DataLen: 3000, FreeLen: 97000}}
	g := NewGate(q, vformat.DecModeFrame)

	// 3000 + 4096 > 5%
	_, err := g.Admit(true, 100)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, g.Ready())
	assert.Equal(t, float64(5), g.Floor())

	g.OnPicture()
	assert.Equal(t, float64(0), g.Floor())
	ss, _ := g.Query(0)
	assert.Equal(t, true, g.CanDequeue(ss))
	assert.Equal(t, true, g.AboveUpper(Snapshot{Level: 10.5}))

	g.Reset()
	assert.Equal(t, float64(5), g.Floor())
}

func TestGate_Reject(t *testing.T) {
	q := &fakeQuerier{st: device.BufStatus{Size: 100000, DataLen: 1000, FreeLen: 99000}}
	g := NewGate(q, vformat.DecModeFrame)

	_, err := g.Admit(false, 100)
	assert.Equal(t, true, errors.Is(err, base.ErrNotAdmitted))
	// 未open时不锁存
	assert.Equal(t, false, g.Ready())

	_, err = g.Admit(true, 0)
	assert.Equal(t, true, errors.Is(err, base.ErrNotAdmitted))

	q.st = device.BufStatus{Size: 100000, DataLen: 100000, FreeLen: 0}
	_, err = g.Admit(true, 100)
	assert.Equal(t, true, errors.Is(err, base.ErrNotAdmitted))

	q.st = device.BufStatus{Size: 100000, DataLen: 99000, FreeLen: 1000}
	ss, err := g.Admit(true, 2000)
	assert.Equal(t, true, errors.Is(err, base.ErrNotAdmitted))
	assert.Equal(t, true, ss.Level >= 100)

	errQuery := errors.New("query")
	q.err = errQuery
	_, err = g.Admit(true, 100)
	assert.Equal(t, errQuery, err)
}
