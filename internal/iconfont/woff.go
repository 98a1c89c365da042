package iconfont

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
)

const (
	woffSignature  = 0x774F4646 // "wOFF"
	woffHeaderSize = 44
	woffEntrySize  = 20
)

// TTFToWOFF wraps TrueType data in a WOFF 1.0 container, compressing each
// table with zlib when that makes it smaller.
func TTFToWOFF(ttf []byte) ([]byte, error) {
	font, err := parseSFNT(ttf)
	if err != nil {
		return nil, err
	}
	n := len(font.tables)

	type packed struct {
		data     []byte
		origLen  int
		checksum uint32
	}
	tables := make([]packed, n)
	sfntSize := 12 + 16*n
	for i, t := range font.tables {
		data := t.data
		var z bytes.Buffer
		w := zlib.NewWriter(&z)
		if _, err := w.Write(t.data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		if z.Len() < len(t.data) {
			data = z.Bytes()
		}
		tables[i] = packed{data: data, origLen: len(t.data), checksum: t.checksum}
		sfntSize += pad4(len(t.data))
	}

	be := binary.BigEndian
	offset := woffHeaderSize + woffEntrySize*n
	dir := make([]byte, woffEntrySize*n)
	var body bytes.Buffer
	for i, t := range tables {
		e := dir[i*woffEntrySize:]
		copy(e, font.tables[i].tag)
		be.PutUint32(e[4:], uint32(offset+body.Len()))
		be.PutUint32(e[8:], uint32(len(t.data)))
		be.PutUint32(e[12:], uint32(t.origLen))
		be.PutUint32(e[16:], t.checksum)
		body.Write(t.data)
		body.Write(make([]byte, pad4(len(t.data))-len(t.data)))
	}

	header := make([]byte, woffHeaderSize)
	be.PutUint32(header[0:], woffSignature)
	be.PutUint32(header[4:], font.flavor)
	be.PutUint32(header[8:], uint32(offset+body.Len()))
	be.PutUint16(header[12:], uint16(n))
	be.PutUint32(header[16:], uint32(sfntSize))
	be.PutUint16(header[20:], 1) // majorVersion; the metadata and private blocks stay empty

	out := make([]byte, 0, offset+body.Len())
	out = append(out, header...)
	out = append(out, dir...)
	return append(out, body.Bytes()...), nil
}
