// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/vdecfeed
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabytes"
)

// DumpFile 旁路抓取写入decoder的字节流，只用于观察和复现问题，对写入流程没有任何影响
//
// 每条记录为16字节头加上body:
//   ver       [4B]
//   typ       [4B] DumpType
//   len       [4B] body长度
//   timestamp [4B] 写入时packet的pts，单位毫秒，无效pts时为0
//
type DumpFile struct {
	mu   sync.Mutex
	file *os.File
}

type DumpType uint32

const (
	DumpTypeHeader  DumpType = 1 // 合成的header
	DumpTypePayload DumpType = 2 // packet payload（包含每帧的前缀）
	DumpTypeRpu     DumpType = 3 // 从AV1 metadata中提取出的dolby vision rpu
)

const dumpFileVer = 1

type DumpFileMessage struct {
	Ver       uint32
	Typ       DumpType
	Len       uint32
	Timestamp uint32
	Body      []byte
}

func NewDumpFile() *DumpFile {
	return &DumpFile{}
}

func (d *DumpFile) OpenToWrite(filename string) (err error) {
	dir := filepath.Dir(filename)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.file, err = os.Create(filename)
	return
}

func (d *DumpFile) OpenToRead(filename string) (err error) {
	d.file, err = os.Open(filename)
	return
}

func (d *DumpFile) WriteWithType(b []byte, typ DumpType, timestamp uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	_, err := d.file.Write(pack(b, typ, timestamp))
	return err
}

func (d *DumpFile) ReadOneMessage() (m DumpFileMessage, err error) {
	var typ uint32
	if m.Ver, err = bele.ReadBeUint32(d.file); err != nil {
		return
	}
	if typ, err = bele.ReadBeUint32(d.file); err != nil {
		return
	}
	m.Typ = DumpType(typ)
	if m.Len, err = bele.ReadBeUint32(d.file); err != nil {
		return
	}
	if m.Timestamp, err = bele.ReadBeUint32(d.file); err != nil {
		return
	}
	if m.Ver != dumpFileVer {
		err = fmt.Errorf("%w. invalid dump ver=%d", ErrShortBuffer, m.Ver)
		return
	}
	m.Body = make([]byte, m.Len)
	_, err = io.ReadFull(d.file, m.Body)
	return
}

func (d *DumpFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// ---------------------------------------------------------------------------------------------------------------------

func (typ DumpType) String() string {
	switch typ {
	case DumpTypeHeader:
		return "header"
	case DumpTypePayload:
		return "payload"
	case DumpTypeRpu:
		return "rpu"
	}
	return fmt.Sprintf("unknown(%d)", uint32(typ))
}

func (m *DumpFileMessage) DebugString() string {
	return fmt.Sprintf("ver: %d, typ: %s, len: %d, timestamp: %d, hex: %s",
		m.Ver, m.Typ, m.Len, m.Timestamp, hex.Dump(nazabytes.Prefix(m.Body, 16)))
}

// ---------------------------------------------------------------------------------------------------------------------

func pack(b []byte, typ DumpType, timestamp uint32) []byte {
	ret := make([]byte, len(b)+16)
	bele.BePutUint32(ret, dumpFileVer)
	bele.BePutUint32(ret[4:], uint32(typ))
	bele.BePutUint32(ret[8:], uint32(len(b)))
	bele.BePutUint32(ret[12:], timestamp)
	copy(ret[16:], b)
	return ret
}
