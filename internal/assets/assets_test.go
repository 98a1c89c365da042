package assets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	files := []string{"/a/x.png", "/a/y.SVG", "/a/z.jpg", "/a/w.svg"}

	off := Classify(files, false)
	assert.Equal(t, files, off.Images)
	assert.Empty(t, off.Icons)

	on := Classify(files, true)
	assert.Equal(t, []string{"/a/x.png", "/a/z.jpg"}, on.Images)
	assert.Equal(t, []string{"/a/y.SVG", "/a/w.svg"}, on.Icons)
	assert.False(t, on.Empty())
	assert.True(t, Classify(nil, true).Empty())
}

func TestLogicalName(t *testing.T) {
	tests := []struct {
		path string
		want Name
	}{
		{"/img/icon.small.png", Name{Full: "icon.small", N1: "icon", N2: "small"}},
		{"/img/icon.png", Name{Full: "icon", N1: "icon"}},
		{"/img/README", Name{Full: "README", N1: "README"}},
		{"/img/a.b.c.png", Name{Full: "a.b.c", N1: "a", N2: "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LogicalName(tt.path), tt.path)
	}
}

func TestLogicalNameNFC(t *testing.T) {
	decomposed := "cafe\u0301.png"
	assert.Equal(t, "caf\u00e9", LogicalName(decomposed).Full)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "icons", SheetName("assets/icons/*.png"))
	assert.Equal(t, "flags", SheetName(filepath.Join("/site", "flags", "de.png")))
	assert.Equal(t, "sprite", SheetName("*.png"))
	assert.Equal(t, "icons", SheetName("assets/icons/**/*.png"))
	assert.Equal(t, "sprite", SheetName("**/*.png"))
}

func TestRelativeURL(t *testing.T) {
	assert.Equal(t, "../img/icons-sprite.png", RelativeURL("/site", "css/", "img/icons-sprite.png"))
	assert.Equal(t, "icons-sprite.png", RelativeURL("/site", "assets/", "assets/icons-sprite.png"))
	assert.Equal(t, "../../img/a.png", RelativeURL("/site", "public/css/", "/site/img/a.png"))
	assert.Equal(t, "../fonts/glyphs/glyphs", RelativeURL("/site", "css/", "fonts/glyphs/glyphs"))
}

func TestStylesheetPath(t *testing.T) {
	assert.Equal(t, "css/_icons.scss", StylesheetPath("css/", "icons", "scss"))
}
