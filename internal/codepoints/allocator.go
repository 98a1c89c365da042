package codepoints

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/spritegen/internal/assets"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// pinnedPrefix matches file names such as "uEA05-home.svg" or
// "uEA05,uEA06-home.svg"; only the first code point is used.
var pinnedPrefix = regexp.MustCompile(`^u([0-9a-fA-F]{1,6})(?:,u[0-9a-fA-F]{1,6})*-(.+)$`)

// Assignment is one glyph's allocated code point.
type Assignment struct {
	Path      string
	Name      string
	Codepoint rune
	Pinned    bool
}

// Allocator hands out code points from Start. Without a store every run
// renumbers from Start in path order.
type Allocator struct {
	Start  rune
	Append bool
	Store  Store
}

// Pinned extracts a code point pinned in a file name, returning the glyph
// name without the prefix.
func Pinned(path string) (name string, cp rune, ok bool) {
	base := filepath.Base(path)
	m := pinnedPrefix.FindStringSubmatch(base)
	if m == nil {
		return "", 0, false
	}
	v, err := strconv.ParseInt(m[1], 16, 32)
	if err != nil {
		return "", 0, false
	}
	return assets.LogicalName(m[2]).Full, rune(v), true
}

// Assign allocates code points for icons in sorted path order so the result
// is reproducible for a fixed input set.
func (a *Allocator) Assign(ctx context.Context, font string, icons []string) ([]Assignment, error) {
	paths := append([]string(nil), icons...)
	sort.Strings(paths)

	out := make([]Assignment, len(paths))
	used := make(map[rune]string, len(paths))
	names := make(map[string]string, len(paths))
	highest := rune(0)

	for i, p := range paths {
		name, cp, pinned := Pinned(p)
		if !pinned {
			name = assets.LogicalName(p).Full
		}
		if other, dup := names[name]; dup {
			return nil, errors.MetadataError("duplicate glyph name").
				WithContext("glyph", name).
				WithContext("path", p).
				WithContext("other", other).Build()
		}
		names[name] = p
		out[i] = Assignment{Path: p, Name: name}
		if pinned {
			if other, taken := used[cp]; taken {
				return nil, errors.MetadataError("code point pinned twice").
					WithContext("codepoint", formatCodepoint(cp)).
					WithContext("path", p).
					WithContext("other", other).Build()
			}
			out[i].Codepoint, out[i].Pinned = cp, true
			used[cp] = p
			highest = max(highest, cp)
		}
	}

	if a.Store != nil {
		persisted, err := a.Store.Load(ctx, font)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryMetadata, "failed to load code points").
				WithContext("font", font).Build()
		}
		for i := range out {
			if out[i].Pinned {
				continue
			}
			cp, ok := persisted[out[i].Name]
			if !ok {
				continue
			}
			if _, taken := used[cp]; taken {
				continue
			}
			out[i].Codepoint = cp
			used[cp] = out[i].Path
		}
		for _, cp := range persisted {
			highest = max(highest, cp)
		}
	}

	next := a.Start
	if a.Append && highest >= next {
		next = highest + 1
	}
	for i := range out {
		if out[i].Codepoint != 0 {
			continue
		}
		for {
			if _, taken := used[next]; !taken {
				break
			}
			next++
		}
		out[i].Codepoint = next
		used[next] = out[i].Path
		next++
	}

	if a.Store != nil {
		assigned := make(map[string]rune, len(out))
		for _, as := range out {
			assigned[as.Name] = as.Codepoint
		}
		if err := a.Store.Save(ctx, font, assigned); err != nil {
			return nil, errors.WrapError(err, errors.CategoryMetadata, "failed to persist code points").
				WithContext("font", font).Build()
		}
	}
	return out, nil
}

func formatCodepoint(cp rune) string {
	return "U+" + strings.ToUpper(strconv.FormatInt(int64(cp), 16))
}
