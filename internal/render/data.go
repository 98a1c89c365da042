// Package render turns sprite and glyph metadata into stylesheet text.
package render

// Item is one sprite or glyph as seen by a stylesheet template.
type Item struct {
	Name        string `json:"name"`
	SourceImage string `json:"source_image"`
	N1          string `json:"n1"`
	N2          string `json:"n2,omitempty"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	OffsetX     int    `json:"offset_x"`
	OffsetY     int    `json:"offset_y"`
	TotalWidth  int    `json:"total_width"`
	TotalHeight int    `json:"total_height"`
	Image       string `json:"image"`

	// Unicode is the CSS escape of the glyph code point (e.g. \EA01); empty for sprites.
	Unicode   string `json:"unicode,omitempty"`
	Codepoint rune   `json:"codepoint,omitempty"`
}

// Spritesheet is the atlas (or font) level metadata.
type Spritesheet struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Image          string `json:"image"`
	Container      string `json:"container"`
	SpriteFileName string `json:"spriteFileName"`
	CacheBuster    string `json:"cacheBuster,omitempty"`
}

// Data is the fixed shape handed to every template.
type Data struct {
	Items       []Item      `json:"items"`
	Spritesheet Spritesheet `json:"spritesheet"`
}
