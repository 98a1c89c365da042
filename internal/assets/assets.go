// Package assets classifies source files and derives logical names from them.
package assets

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// VectorExt is the extension routed to icon fonts.
const VectorExt = ".svg"

// Classified splits a sheet's sources by the builder that consumes them.
type Classified struct {
	Images []string
	Icons  []string
}

// Empty reports whether neither subset has files.
func (c Classified) Empty() bool { return len(c.Images) == 0 && len(c.Icons) == 0 }

// Classify routes vector files to Icons when icon fonts are enabled; otherwise
// every file is an image.
func Classify(files []string, iconFonts bool) Classified {
	var out Classified
	for _, f := range files {
		if iconFonts && IsVector(f) {
			out.Icons = append(out.Icons, f)
			continue
		}
		out.Images = append(out.Images, f)
	}
	return out
}

// IsVector reports whether path has the vector extension.
func IsVector(path string) bool {
	return strings.EqualFold(filepath.Ext(path), VectorExt)
}

// Name is the logical name of a source file plus its first two dot segments.
type Name struct {
	Full string
	N1   string
	N2   string
}

// LogicalName splits the basename on "."; when two or more segments remain the
// last one is dropped as the format extension. Names are NFC normalized so
// decomposed file names from some filesystems produce the same identifiers.
func LogicalName(path string) Name {
	base := norm.NFC.String(filepath.Base(path))
	parts := strings.Split(base, ".")
	if len(parts) >= 2 {
		parts = parts[:len(parts)-1]
	}
	n := Name{Full: strings.Join(parts, "."), N1: parts[0]}
	if len(parts) > 1 {
		n.N2 = parts[1]
	}
	return n
}

// SheetName derives a sheet name from a pattern or path: the basename of its
// containing directory. Directory segments holding glob metacharacters are
// skipped, so "icons/**/*.png" is still named "icons".
func SheetName(pattern string) string {
	dir := filepath.Dir(filepath.FromSlash(pattern))
	for dir != "." && dir != string(filepath.Separator) && strings.ContainsAny(filepath.Base(dir), "*?[{") {
		dir = filepath.Dir(dir)
	}
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return "sprite"
	}
	return norm.NFC.String(name)
}
