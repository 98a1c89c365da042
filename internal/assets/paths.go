package assets

import (
	"path"
	"path/filepath"
)

// StylesheetPath returns <sheetDest>_<name>.<format>. sheetDest carries its
// trailing separator already.
func StylesheetPath(sheetDest, name, format string) string {
	return sheetDest + "_" + name + "." + format
}

// RelativeURL computes the URL of target as referenced from a stylesheet in
// fromDir. Both are resolved against cwd first so mixed absolute and relative
// destinations still produce a relative reference.
func RelativeURL(cwd, fromDir, target string) string {
	from := absolute(cwd, fromDir)
	to := absolute(cwd, target)
	rel, err := filepath.Rel(from, to)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return path.Clean(filepath.ToSlash(rel))
}

func absolute(cwd, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(cwd, p)
}
