package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() *Config {
	padding := DefaultPadding
	return &Config{
		Src: MapSource(
			NamedSource{Name: "icons", Entries: []string{"assets/icons/*.{png,svg}"}},
			NamedSource{Name: "flags", Entries: []string{"assets/flags/**/*.png"}},
		),
		Dest:        DefaultImgDest,
		FontDest:    DefaultFontDest,
		SheetDest:   DefaultSheetDest,
		SheetFormat: "scss",
		Padding:     &padding,
		Algorithm:   DefaultAlgorithm,
		Engine:      DefaultEngine,
		IconFonts:   true,
		SVG: SVGConfig{
			Provider: ProviderOptions{StartUnicode: DefaultStartUnicode},
		},
		Metrics: MetricsConfig{Addr: "${SPRITEGEN_METRICS_ADDR}"},
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryWrite, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
