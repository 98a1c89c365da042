package build

import (
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/spritegen/internal/assets"
	"git.home.luguber.info/inful/spritegen/internal/config"
	"git.home.luguber.info/inful/spritegen/internal/iconfont"
	"git.home.luguber.info/inful/spritegen/internal/resolve"
	"git.home.luguber.info/inful/spritegen/internal/sprite"
)

// outputPaths lists the absolute paths a sheet writes in filesystem mode.
// Both font names are included since the one in use depends on whether the
// sheet currently has raster images.
func outputPaths(cfg *config.Config, sheet string) []string {
	abs := func(p string) string { return resolve.Absolute(p, cfg.Cwd) }
	out := []string{
		abs(cfg.ImgDest + sprite.AtlasFileName(sheet)),
		abs(assets.StylesheetPath(cfg.SheetDest, sheet, cfg.SheetFormat)),
	}
	if !cfg.IconFonts {
		return out
	}
	for _, hasImages := range []bool{false, true} {
		name := iconfont.FontName(sheet, cfg.SVG.Font.FontName, hasImages)
		base := iconfont.FontBase(cfg.FontDest, name)
		for _, ext := range iconfont.FontExtensions {
			if p := abs(base + ext); !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
		if p := abs(assets.StylesheetPath(cfg.SheetDest, name, cfg.FontSheetFormat())); !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// IsOutput reports whether path is one of outputs or the temp file an
// atomic write of one of them goes through.
func IsOutput(outputs []string, path string) bool {
	path = filepath.Clean(path)
	if slices.Contains(outputs, path) {
		return true
	}
	base := filepath.Base(path)
	i := strings.LastIndex(base, ".tmp-")
	if !strings.HasPrefix(base, ".") || i <= 1 {
		return false
	}
	return slices.Contains(outputs, filepath.Join(filepath.Dir(path), base[1:i]))
}

// withoutOutputs drops generated files from a resolved source list so a
// sheet never packs its own (or a sibling's) atlas.
func (o *Orchestrator) withoutOutputs(files []string) (kept, skipped []string) {
	kept = files[:0:0]
	for _, f := range files {
		if IsOutput(o.outputs, f) {
			skipped = append(skipped, f)
			continue
		}
		kept = append(kept, f)
	}
	return kept, skipped
}
