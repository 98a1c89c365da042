package config

// Default values mirrored from the classic spritegen task defaults.
const (
	DefaultImgDest       = "img/"
	DefaultFontDest      = "fonts/"
	DefaultSheetDest     = "css/"
	DefaultPadding       = 25
	DefaultAlgorithm     = "top-down"
	DefaultEngine        = "pixelsmith"
	DefaultSheetFormat   = "css"
	DefaultFontFormat    = "scss"
	DefaultStartUnicode  = 0xEA01
	DefaultFontHeight    = 512
	DefaultNotifySubject = "spritegen.update"
	DefaultSVG2TTF       = "svg2ttf"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// OutputDefaultApplier resolves destination aliases and fills missing destinations.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	// dest wins over imgDest, sheetDest wins over cssDest.
	if cfg.Dest != "" {
		cfg.ImgDest = cfg.Dest
	}
	if cfg.ImgDest == "" {
		cfg.ImgDest = DefaultImgDest
	}
	cfg.Dest = cfg.ImgDest

	if cfg.SheetDest != "" {
		cfg.CSSDest = cfg.SheetDest
	}
	if cfg.CSSDest == "" {
		cfg.CSSDest = DefaultSheetDest
	}
	cfg.SheetDest = cfg.CSSDest

	if cfg.FontDest == "" {
		cfg.FontDest = DefaultFontDest
	}
	if cfg.SheetFormat == "" {
		cfg.SheetFormat = DefaultSheetFormat
	}
	return nil
}

// PackerDefaultApplier fills padding, algorithm and engine.
type PackerDefaultApplier struct{}

func (p *PackerDefaultApplier) Domain() string { return "packer" }

func (p *PackerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Padding == nil || *cfg.Padding < 0 {
		padding := DefaultPadding
		cfg.Padding = &padding
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = DefaultAlgorithm
	}
	if cfg.Engine == "" {
		cfg.Engine = DefaultEngine
	}
	return nil
}

// FontDefaultApplier fills icon-font options.
type FontDefaultApplier struct{}

func (f *FontDefaultApplier) Domain() string { return "font" }

func (f *FontDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.SVG.Provider.StartUnicode <= 0 {
		cfg.SVG.Provider.StartUnicode = DefaultStartUnicode
	}
	if cfg.SVG.Font.FontHeight <= 0 {
		cfg.SVG.Font.FontHeight = DefaultFontHeight
	}
	if cfg.SVG.Convert.SVG2TTF == "" {
		cfg.SVG.Convert.SVG2TTF = DefaultSVG2TTF
	}
	return nil
}

// NotifyDefaultApplier fills the NATS subject when forwarding is enabled.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	return nil
}

// CompositeDefaultApplier runs the domain appliers in order.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the applier chain used by Prepare.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{appliers: []DefaultApplier{
		&OutputDefaultApplier{},
		&PackerDefaultApplier{},
		&FontDefaultApplier{},
		&NotifyDefaultApplier{},
	}}
}

func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// FontSheetFormat returns the stylesheet format used by icon-font builds.
// The raw sheetFormat applies only when templates are disabled.
func (c *Config) FontSheetFormat() string {
	if c.SVG.Font.SheetFormat != "" {
		return c.SVG.Font.SheetFormat
	}
	if c.SheetTemplate.Mode == TemplateFormat && c.SheetFormat != "" {
		return c.SheetFormat
	}
	return DefaultFontFormat
}
