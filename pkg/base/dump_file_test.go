// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/vdecfeed/pkg/base"
)

func TestDumpFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.vdecdump")

	df := base.NewDumpFile()
	err := df.OpenToWrite(filename)
	assert.Equal(t, nil, err)
	err = df.WriteWithType([]byte{0, 0, 0, 1, 0x67}, base.DumpTypeHeader, 0)
	assert.Equal(t, nil, err)
	err = df.WriteWithType([]byte("hello"), base.DumpTypePayload, 40)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, df.Close())

	// 关闭后写入被忽略
	assert.Equal(t, nil, df.WriteWithType([]byte("x"), base.DumpTypePayload, 0))

	rf := base.NewDumpFile()
	err = rf.OpenToRead(filename)
	assert.Equal(t, nil, err)

	m, err := rf.ReadOneMessage()
	assert.Equal(t, nil, err)
	assert.Equal(t, base.DumpTypeHeader, m.Typ)
	assert.Equal(t, []byte{0, 0, 0, 1, 0x67}, m.Body)

	m, err = rf.ReadOneMessage()
	assert.Equal(t, nil, err)
	assert.Equal(t, base.DumpTypePayload, m.Typ)
	assert.Equal(t, uint32(40), m.Timestamp)
	assert.Equal(t, "hello", string(m.Body))
	base.Log.Debugf("%s", m.DebugString())

	_, err = rf.ReadOneMessage()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, nil, rf.Close())
}
