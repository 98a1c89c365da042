package config

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/foundation/normalization"
	"git.home.luguber.info/inful/spritegen/internal/render"
	"git.home.luguber.info/inful/spritegen/internal/workspace"
)

var sheetFormats = normalization.Names("sheetFormat", render.Formats()...)

// Prepare validates cfg, applies defaults and normalizes paths. It is
// idempotent; the build engine calls it before any sheet runs.
func Prepare(cfg *Config) error {
	if cfg == nil {
		return errors.ConfigError("configuration is nil").Build()
	}
	if cfg.prepared {
		return nil
	}
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to apply defaults").Fatal().Build()
	}
	if err := normalizeOptions(cfg); err != nil {
		return err
	}
	if err := normalizePaths(cfg); err != nil {
		return err
	}
	cfg.prepared = true
	return nil
}

// ValidateConfig checks the options required before anything can run.
func ValidateConfig(cfg *Config) error {
	if cfg.Src.IsZero() {
		return errors.ConfigError(`Missing property "src" in SpritegenSheets config`).Build()
	}
	if !cfg.Streams && cfg.Dest == "" && cfg.ImgDest == "" {
		return errors.ConfigError(`Missing property "dest" in SpritegenSheets config`).Build()
	}
	if cfg.Src.Shape == ShapeMap {
		seen := make(map[string]struct{}, len(cfg.Src.Named))
		for _, named := range cfg.Src.Named {
			if strings.TrimSpace(named.Name) == "" {
				return errors.ConfigError("src map contains an empty sheet name").Build()
			}
			if _, dup := seen[named.Name]; dup {
				return errors.ConfigError("duplicate sheet name in src").
					ForSheet(named.Name).Build()
			}
			seen[named.Name] = struct{}{}
			if len(named.Entries) == 0 {
				return errors.ConfigError("src map entry has no patterns").
					ForSheet(named.Name).Build()
			}
		}
	}
	if cfg.Padding != nil && *cfg.Padding < 0 {
		return errors.ValidationError("padding must not be negative").
			WithContext("padding", *cfg.Padding).Build()
	}
	if cfg.Timeout < 0 {
		return errors.ValidationError("timeout must not be negative").Build()
	}
	if cfg.SheetTemplate.Mode == TemplateFunction && cfg.SheetTemplate.Func == nil {
		return errors.ValidationError("sheetTemplate function is nil").Build()
	}
	return nil
}

// normalizeOptions canonicalizes stylesheet formats. They are only checked
// against the bundled renderers; a custom template may target any extension.
// Algorithm and engine are left to the packer.
func normalizeOptions(cfg *Config) error {
	var err error
	cfg.SheetFormat = strings.ToLower(strings.TrimSpace(cfg.SheetFormat))
	cfg.SVG.Font.SheetFormat = strings.ToLower(strings.TrimSpace(cfg.SVG.Font.SheetFormat))
	keep, err := workspace.ParseKeepPolicy(cfg.SVG.Convert.KeepWorkspace)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid svg.convert.keepWorkspace").Build()
	}
	cfg.SVG.Convert.KeepWorkspace = keep.String()
	if cfg.SheetTemplate.Mode != TemplateBundled && cfg.SheetTemplate.Mode != TemplateFormat {
		return nil
	}
	for _, f := range []*string{&cfg.SheetFormat, &cfg.SVG.Font.SheetFormat} {
		if *f == "" {
			continue
		}
		if *f, err = sheetFormats.Normalize(*f); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "unsupported stylesheet format").Build()
		}
	}
	return nil
}

func normalizePaths(cfg *Config) error {
	cwd := cfg.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to determine working directory").Fatal().Build()
		}
		cwd = wd
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid cwd").
			WithContext("cwd", cwd).Fatal().Build()
	}
	cfg.Cwd = abs

	cfg.ImgDest = WithTrailingSeparator(cfg.ImgDest)
	cfg.Dest = cfg.ImgDest
	cfg.CSSDest = WithTrailingSeparator(cfg.CSSDest)
	cfg.SheetDest = cfg.CSSDest
	cfg.FontDest = WithTrailingSeparator(cfg.FontDest)
	return nil
}

// WithTrailingSeparator converts p to forward slashes and ensures exactly one
// trailing slash.
func WithTrailingSeparator(p string) string {
	if p == "" {
		return p
	}
	p = filepath.ToSlash(p)
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed + "/"
}

// Resolve returns p joined onto the working directory unless already absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Cwd, filepath.FromSlash(p))
}
