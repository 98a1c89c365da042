// Package config loads and normalizes the spritegen build configuration.
//
// A Config is decoded from YAML (or from the "spritegen_sheets" key of a
// package.json), validated, defaulted and normalized exactly once by Prepare.
// After Prepare the value is treated as immutable by the build engine.
package config

import (
	"time"

	"git.home.luguber.info/inful/spritegen/internal/render"
	"git.home.luguber.info/inful/spritegen/internal/workspace"
)

// Config is the process-wide build configuration.
type Config struct {
	Src Source `yaml:"src"`

	// Dest and ImgDest are aliases for the raster atlas directory; Dest wins.
	Dest     string `yaml:"dest,omitempty"`
	ImgDest  string `yaml:"imgDest,omitempty"`
	FontDest string `yaml:"fontDest,omitempty"`

	// SheetDest and CSSDest are aliases for the stylesheet directory; SheetDest wins.
	SheetDest string `yaml:"sheetDest,omitempty"`
	CSSDest   string `yaml:"cssDest,omitempty"`

	SheetFormat   string          `yaml:"sheetFormat,omitempty"`
	SheetTemplate TemplateSetting `yaml:"sheetTemplate,omitempty"`

	Padding       *int           `yaml:"padding,omitempty"`
	Algorithm     string         `yaml:"algorithm,omitempty"`
	AlgorithmOpts map[string]any `yaml:"algorithmOpts,omitempty"`
	Engine        string         `yaml:"engine,omitempty"`
	EngineOpts    map[string]any `yaml:"engineOpts,omitempty"`

	IconFonts bool   `yaml:"iconfonts,omitempty"`
	Watch     bool   `yaml:"watch,omitempty"`
	Cwd       string `yaml:"cwd,omitempty"`
	Streams   bool   `yaml:"streams,omitempty"`

	// Timeout bounds a single sheet build; zero disables the bound.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	SVG          SVGConfig     `yaml:"svg,omitempty"`
	WatchOptions WatchOptions  `yaml:"watchOptions,omitempty"`
	Metrics      MetricsConfig `yaml:"metrics,omitempty"`
	Notify       NotifyConfig  `yaml:"notify,omitempty"`

	prepared bool
}

// SVGConfig groups icon-font options.
type SVGConfig struct {
	Font     FontOptions     `yaml:"font,omitempty"`
	Provider ProviderOptions `yaml:"provider,omitempty"`
	Convert  ConvertOptions  `yaml:"convert,omitempty"`

	// Concurrency bounds concurrent icon optimization; zero means one worker per CPU.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// FontOptions configures font synthesis.
type FontOptions struct {
	FontName    string `yaml:"fontName,omitempty"`
	Normalize   *bool  `yaml:"normalize,omitempty"`
	SheetFormat string `yaml:"sheetFormat,omitempty"`
	FontHeight  int    `yaml:"fontHeight,omitempty"`
}

// ProviderOptions configures code point allocation.
type ProviderOptions struct {
	StartUnicode  int    `yaml:"startUnicode,omitempty"`
	AppendUnicode bool   `yaml:"appendUnicode,omitempty"`
	Store         string `yaml:"store,omitempty"`
}

// ConvertOptions names the external converters.
type ConvertOptions struct {
	SVG2TTF string `yaml:"svg2ttf,omitempty"`
	// WorkDir holds converter scratch directories; empty uses the system temp dir.
	WorkDir string `yaml:"workDir,omitempty"`
	// KeepWorkspace is never, on-failure or always.
	KeepWorkspace string `yaml:"keepWorkspace,omitempty"`
}

// Workspaces returns the scratch directory manager for the font converter.
func (c *Config) Workspaces() *workspace.Manager {
	keep, _ := workspace.ParseKeepPolicy(c.SVG.Convert.KeepWorkspace)
	dir := c.SVG.Convert.WorkDir
	if dir != "" {
		dir = c.Resolve(dir)
	}
	return workspace.NewManager(dir, keep)
}

// WatchOptions configures the watch coordinator beyond the membership default.
type WatchOptions struct {
	// OnChange also rebuilds when the contents of a tracked file change.
	OnChange bool `yaml:"onChange,omitempty"`

	// RebuildInterval schedules a periodic rebuild of every sheet.
	RebuildInterval time.Duration `yaml:"rebuildInterval,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// NotifyConfig forwards update events to NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"natsURL,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	// Sheets restricts forwarding to the named sheets; empty forwards all.
	Sheets []string `yaml:"sheets,omitempty"`
}

// NormalizeGlyphs reports whether glyphs are scaled to a common height.
func (f FontOptions) NormalizeGlyphs() bool {
	return f.Normalize == nil || *f.Normalize
}

// PaddingPixels returns the configured padding (after Prepare it is always set).
func (c *Config) PaddingPixels() int {
	if c.Padding == nil {
		return DefaultPadding
	}
	return *c.Padding
}

// Template converts the configured sheetTemplate into a render.Template.
func (c *Config) Template() render.Template {
	return c.SheetTemplate.Template()
}
