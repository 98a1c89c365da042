package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

func TestPrepareRequiresSrc(t *testing.T) {
	cfg := &Config{Dest: "img"}
	err := Prepare(cfg)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), `Missing property "src"`)
}

func TestPrepareRequiresDestUnlessStreaming(t *testing.T) {
	cfg := &Config{Src: ScalarSource("icons/*.png")}
	err := Prepare(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Missing property "dest"`)

	streaming := &Config{Src: ScalarSource("icons/*.png"), Streams: true, Cwd: t.TempDir()}
	require.NoError(t, Prepare(streaming))
	assert.Equal(t, DefaultImgDest, streaming.ImgDest)
}

func TestPrepareAppliesDefaultsAndTrailingSeparators(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Src: ScalarSource("icons/*.png"), Dest: "out/img//", CSSDest: "out/css", Cwd: dir}
	require.NoError(t, Prepare(cfg))

	assert.Equal(t, "out/img/", cfg.ImgDest)
	assert.Equal(t, cfg.ImgDest, cfg.Dest)
	assert.Equal(t, DefaultFontDest, cfg.FontDest)
	assert.Equal(t, DefaultPadding, cfg.PaddingPixels())
	assert.Equal(t, DefaultAlgorithm, cfg.Algorithm)
	assert.Equal(t, DefaultEngine, cfg.Engine)
	assert.Equal(t, DefaultSheetFormat, cfg.SheetFormat)
	assert.Equal(t, DefaultStartUnicode, cfg.SVG.Provider.StartUnicode)
	assert.Equal(t, dir, cfg.Cwd)
	assert.True(t, cfg.SVG.Font.NormalizeGlyphs())
}

func TestPrepareAliasPrecedence(t *testing.T) {
	cfg := &Config{
		Src:       ScalarSource("a/*.png"),
		Dest:      "dest",
		ImgDest:   "ignored",
		SheetDest: "sheets",
		CSSDest:   "ignored-too",
		Cwd:       t.TempDir(),
	}
	require.NoError(t, Prepare(cfg))
	assert.Equal(t, "dest/", cfg.ImgDest)
	assert.Equal(t, "sheets/", cfg.CSSDest)
	assert.Equal(t, "sheets/", cfg.SheetDest)
}

func TestPrepareExplicitZeroPaddingKept(t *testing.T) {
	zero := 0
	cfg := &Config{Src: ScalarSource("a/*.png"), Dest: "img", Padding: &zero, Cwd: t.TempDir()}
	require.NoError(t, Prepare(cfg))
	assert.Equal(t, 0, cfg.PaddingPixels())
}

func TestValidateDuplicateSheetNames(t *testing.T) {
	cfg := &Config{
		Dest: "img",
		Src: MapSource(
			NamedSource{Name: "icons", Entries: []string{"a/*.png"}},
			NamedSource{Name: "icons", Entries: []string{"b/*.png"}},
		),
	}
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestWithTrailingSeparator(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"css":     "css/",
		"css/":    "css/",
		"css///":  "css/",
		"a/b/c":   "a/b/c/",
		"/":       "/",
		"./img//": "./img/",
	}
	for in, want := range tests {
		assert.Equal(t, want, WithTrailingSeparator(in), "input %q", in)
	}
}

func TestFontSheetFormat(t *testing.T) {
	cfg := &Config{SheetFormat: "css"}
	assert.Equal(t, "scss", cfg.FontSheetFormat())

	cfg.SheetTemplate = TemplateSetting{Mode: TemplateFormat}
	assert.Equal(t, "css", cfg.FontSheetFormat())

	cfg.SVG.Font.SheetFormat = "less"
	assert.Equal(t, "less", cfg.FontSheetFormat())
}

func TestParseYAML(t *testing.T) {
	t.Setenv("SPRITEGEN_TEST_DEST", "public/img")
	data := []byte(`
src:
  icons: ["assets/icons/*.png", "assets/icons/*.svg"]
  flags: assets/flags/*.png
dest: ${SPRITEGEN_TEST_DEST}
sheetTemplate: false
timeout: 30s
padding: 4
svg:
  provider:
    appendUnicode: true
watchOptions:
  onChange: true
  rebuildInterval: 5m
`)
	cfg, err := Parse(data, "inline")
	require.NoError(t, err)

	assert.Equal(t, ShapeMap, cfg.Src.Shape)
	require.Len(t, cfg.Src.Named, 2)
	assert.Equal(t, "icons", cfg.Src.Named[0].Name)
	assert.Equal(t, []string{"assets/icons/*.png", "assets/icons/*.svg"}, cfg.Src.Named[0].Entries)
	assert.Equal(t, "flags", cfg.Src.Named[1].Name)
	assert.Equal(t, []string{"assets/flags/*.png"}, cfg.Src.Named[1].Entries)

	assert.Equal(t, "public/img", cfg.Dest)
	assert.Equal(t, TemplateFormat, cfg.SheetTemplate.Mode)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.PaddingPixels())
	assert.True(t, cfg.SVG.Provider.AppendUnicode)
	assert.True(t, cfg.WatchOptions.OnChange)
	assert.Equal(t, 5*time.Minute, cfg.WatchOptions.RebuildInterval)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("src: [unterminated"), "broken.yaml")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoadDiscovery(t *testing.T) {
	t.Run("spritegen.yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("src: a/*.png\ndest: img\n"), 0o600))
		cfg, err := Load("", dir)
		require.NoError(t, err)
		assert.Equal(t, ShapeScalar, cfg.Src.Shape)
		assert.Equal(t, []string{"a/*.png"}, cfg.Src.Patterns)
	})

	t.Run("package.json", func(t *testing.T) {
		dir := t.TempDir()
		manifest := `{"name":"site","spritegen_sheets":{"src":["a/*.png","b/*.png"],"dest":"img","sheetTemplate":"tpl/sprites.tmpl"}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, PackageManifest), []byte(manifest), 0o600))
		cfg, err := Load("", dir)
		require.NoError(t, err)
		assert.Equal(t, ShapeList, cfg.Src.Shape)
		assert.Equal(t, []string{"a/*.png", "b/*.png"}, cfg.Src.Patterns)
		assert.Equal(t, TemplateFile, cfg.SheetTemplate.Mode)
		assert.Equal(t, "tpl/sprites.tmpl", cfg.SheetTemplate.Path)
	})

	t.Run("package.json without key", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, PackageManifest), []byte(`{"name":"site"}`), 0o600))
		cfg, err := Load("", dir)
		require.NoError(t, err)
		assert.True(t, cfg.Src.IsZero())
	})

	t.Run("explicit missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	})
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SPRITEGEN_ENV_DEST", "")
	require.NoError(t, os.Unsetenv("SPRITEGEN_ENV_DEST"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SPRITEGEN_ENV_DEST=from-env\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("src: a/*.png\ndest: ${SPRITEGEN_ENV_DEST}\n"), 0o600))

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Dest)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, Init(path, false))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ShapeMap, cfg.Src.Shape)
	assert.True(t, cfg.IconFonts)

	err = Init(path, false)
	require.Error(t, err)
	require.NoError(t, Init(path, true))
}

func TestPrepareNormalizesSheetFormat(t *testing.T) {
	cfg := &Config{Src: ScalarSource("icons/*.png"), Dest: "img", SheetFormat: " SCSS ", Cwd: t.TempDir()}
	cfg.SVG.Font.SheetFormat = "Less"
	require.NoError(t, Prepare(cfg))
	assert.Equal(t, "scss", cfg.SheetFormat)
	assert.Equal(t, "less", cfg.SVG.Font.SheetFormat)
}

func TestPrepareRejectsUnknownBundledFormat(t *testing.T) {
	cfg := &Config{Src: ScalarSource("icons/*.png"), Dest: "img", SheetFormat: "stylus", Cwd: t.TempDir()}
	err := Prepare(cfg)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	custom := &Config{
		Src:           ScalarSource("icons/*.png"),
		Dest:          "img",
		SheetFormat:   "styl",
		SheetTemplate: TemplateSetting{Mode: TemplateFile, Path: "sprites.styl.tmpl"},
		Cwd:           t.TempDir(),
	}
	require.NoError(t, Prepare(custom))
	assert.Equal(t, "styl", custom.SheetFormat)
}

func TestPrepareForwardsAlgorithmVerbatim(t *testing.T) {
	cfg := &Config{Src: ScalarSource("icons/*.png"), Dest: "img", Algorithm: "my-custom-layout", Cwd: t.TempDir()}
	require.NoError(t, Prepare(cfg))
	assert.Equal(t, "my-custom-layout", cfg.Algorithm)
}

func TestPrepareConverterWorkspace(t *testing.T) {
	cwd := t.TempDir()
	cfg := &Config{Src: ScalarSource("icons/*.svg"), Dest: "img", Cwd: cwd}
	cfg.SVG.Convert.KeepWorkspace = "On_Failure"
	cfg.SVG.Convert.WorkDir = "tmp/svg2ttf"
	require.NoError(t, Prepare(cfg))
	assert.Equal(t, "on-failure", cfg.SVG.Convert.KeepWorkspace)

	ws, err := cfg.Workspaces().Create("font")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "tmp", "svg2ttf"), filepath.Dir(ws.Path()))
	require.NoError(t, ws.Release(false))

	bad := &Config{Src: ScalarSource("icons/*.svg"), Dest: "img", Cwd: cwd}
	bad.SVG.Convert.KeepWorkspace = "sometimes"
	err = Prepare(bad)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
