package iconfont

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// testTTF assembles a minimal sfnt with the tables the EOT and WOFF
// converters read. glyf is zero-filled so it compresses well.
func testTTF(t *testing.T) []byte {
	t.Helper()
	be := binary.BigEndian

	os2 := make([]byte, 96)
	be.PutUint16(os2[0:], 4)
	be.PutUint16(os2[4:], 400)
	be.PutUint16(os2[8:], 0)
	copy(os2[32:42], []byte{2, 0, 5, 3, 0, 0, 0, 0, 0, 0})
	be.PutUint32(os2[42:], 1)
	be.PutUint16(os2[62:], 0x0041) // italic | regular
	be.PutUint32(os2[78:], 1)

	head := make([]byte, 54)
	be.PutUint32(head[0:], 0x00010000)
	be.PutUint32(head[8:], 0xB1B0AFBA)
	be.PutUint32(head[12:], 0x5F0F3CF5)

	family := []byte{0, 'I', 0, 'c', 0, 'o', 0, 'n', 0, 's'}
	name := make([]byte, 6+12)
	be.PutUint16(name[2:], 1)
	be.PutUint16(name[4:], uint16(len(name)))
	rec := name[6:]
	be.PutUint16(rec[0:], 3)
	be.PutUint16(rec[2:], 1)
	be.PutUint16(rec[4:], 0x409)
	be.PutUint16(rec[6:], 1)
	be.PutUint16(rec[8:], uint16(len(family)))
	name = append(name, family...)

	tables := map[string][]byte{
		"OS/2": os2,
		"head": head,
		"name": name,
		"glyf": make([]byte, 512),
	}
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	out := make([]byte, 12+16*len(tags))
	be.PutUint32(out[0:], 0x00010000)
	be.PutUint16(out[4:], uint16(len(tags)))
	for i, tag := range tags {
		data := tables[tag]
		rec := out[12+16*i:]
		copy(rec, tag)
		be.PutUint32(rec[4:], uint32(i+1))
		be.PutUint32(rec[8:], uint32(len(out)))
		be.PutUint32(rec[12:], uint32(len(data)))
		out = append(out, data...)
		out = append(out, make([]byte, pad4(len(data))-len(data))...)
	}
	return out
}

func writeIcon(t *testing.T, dir, name, svg string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(svg), 0o600))
	return p
}

const squareSVG = `<?xml version="1.0"?>
<!-- exported -->
<svg xmlns="http://www.w3.org/2000/svg" xmlns:inkscape="http://www.inkscape.org/namespaces/inkscape" viewBox="0 0 10 10" inkscape:version="1.0">
  <metadata>editor data</metadata>
  <rect x="0" y="0" width="10" height="10"/>
</svg>`
