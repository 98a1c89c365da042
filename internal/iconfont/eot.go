package iconfont

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	eotVersion = 0x00020001
	eotMagic   = 0x504C
)

// name record ids copied into the EOT header, in header order.
var eotNameIDs = []uint16{1, 2, 5, 4}

// TTFToEOT prefixes TrueType data with an Embedded OpenType header built
// from its OS/2, head and name tables.
func TTFToEOT(ttf []byte) ([]byte, error) {
	font, err := parseSFNT(ttf)
	if err != nil {
		return nil, err
	}
	os2, head, name := font.table("OS/2"), font.table("head"), font.table("name")
	if len(os2) < 78 {
		return nil, fmt.Errorf("missing or short OS/2 table")
	}
	if len(head) < 12 {
		return nil, fmt.Errorf("missing or short head table")
	}
	names, err := eotNames(name)
	if err != nil {
		return nil, err
	}

	be, le := binary.BigEndian, binary.LittleEndian
	h := make([]byte, 82)
	le.PutUint32(h[4:], uint32(len(ttf)))
	le.PutUint32(h[8:], eotVersion)
	copy(h[16:26], os2[32:42]) // PANOSE
	h[26] = 1                  // DEFAULT_CHARSET
	h[27] = byte(be.Uint16(os2[62:]) & 1)
	le.PutUint32(h[28:], uint32(be.Uint16(os2[4:])))
	le.PutUint16(h[32:], be.Uint16(os2[8:]))
	le.PutUint16(h[34:], eotMagic)
	for i := 0; i < 4; i++ {
		le.PutUint32(h[36+4*i:], be.Uint32(os2[42+4*i:]))
	}
	if len(os2) >= 86 {
		le.PutUint32(h[52:], be.Uint32(os2[78:]))
		le.PutUint32(h[56:], be.Uint32(os2[82:]))
	}
	le.PutUint32(h[60:], be.Uint32(head[8:]))

	out := h
	for i, s := range names {
		if i > 0 {
			out = le.AppendUint16(out, 0)
		}
		out = le.AppendUint16(out, uint16(len(s)))
		out = append(out, s...)
	}
	out = le.AppendUint16(out, 0) // Padding5
	out = le.AppendUint16(out, 0) // RootStringSize
	out = append(out, ttf...)
	le.PutUint32(out[0:], uint32(len(out)))
	return out, nil
}

// eotNames returns family, subfamily, version and full name as UTF-16LE.
func eotNames(table []byte) ([][]byte, error) {
	out := make([][]byte, len(eotNameIDs))
	if len(table) < 6 {
		return out, nil
	}
	be := binary.BigEndian
	count := int(be.Uint16(table[2:]))
	storage := int(be.Uint16(table[4:]))
	if len(table) < 6+12*count {
		return nil, fmt.Errorf("truncated name table")
	}

	utf16le := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	for slot, id := range eotNameIDs {
		var fallback []byte
		var fallbackEnc encoding.Encoding
		for i := 0; i < count; i++ {
			rec := table[6+12*i:]
			platform, enc, nameID := be.Uint16(rec), be.Uint16(rec[2:]), be.Uint16(rec[6:])
			length, off := int(be.Uint16(rec[8:])), int(be.Uint16(rec[10:]))
			if nameID != id || storage+off+length > len(table) {
				continue
			}
			raw := table[storage+off : storage+off+length]
			if platform == 3 && (enc == 0 || enc == 1) {
				fallback, fallbackEnc = raw, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
				break
			}
			if platform == 1 && enc == 0 && fallback == nil {
				fallback, fallbackEnc = raw, charmap.Macintosh
			}
		}
		if fallback == nil {
			continue
		}
		s, err := fallbackEnc.NewDecoder().Bytes(fallback)
		if err != nil {
			return nil, fmt.Errorf("decode name %d: %w", id, err)
		}
		if out[slot], err = utf16le.Bytes(s); err != nil {
			return nil, fmt.Errorf("encode name %d: %w", id, err)
		}
	}
	return out, nil
}
