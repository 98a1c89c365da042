package iconfont

import (
	"encoding/binary"
	"fmt"
	"sort"
)

type sfntTable struct {
	tag      string
	checksum uint32
	data     []byte
}

// sfnt is a parsed TrueType/OpenType table directory.
type sfnt struct {
	flavor uint32
	tables []sfntTable
}

func parseSFNT(b []byte) (*sfnt, error) {
	if len(b) < 12 {
		return nil, fmt.Errorf("truetype data too short (%d bytes)", len(b))
	}
	be := binary.BigEndian
	font := &sfnt{flavor: be.Uint32(b)}
	n := int(be.Uint16(b[4:]))
	if len(b) < 12+16*n {
		return nil, fmt.Errorf("truncated table directory (%d tables)", n)
	}
	for i := 0; i < n; i++ {
		rec := b[12+16*i:]
		off, length := be.Uint32(rec[8:]), be.Uint32(rec[12:])
		if uint64(off)+uint64(length) > uint64(len(b)) {
			return nil, fmt.Errorf("table %q exceeds font data", rec[:4])
		}
		font.tables = append(font.tables, sfntTable{
			tag:      string(rec[:4]),
			checksum: be.Uint32(rec[4:]),
			data:     b[off : off+length],
		})
	}
	sort.Slice(font.tables, func(i, j int) bool { return font.tables[i].tag < font.tables[j].tag })
	return font, nil
}

func (f *sfnt) table(tag string) []byte {
	for _, t := range f.tables {
		if t.tag == tag {
			return t.data
		}
	}
	return nil
}

func pad4(n int) int { return (n + 3) &^ 3 }
