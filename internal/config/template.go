package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/spritegen/internal/render"
)

// TemplateMode selects how stylesheets are rendered.
type TemplateMode int

const (
	// TemplateBundled uses the bundled default template (sheetTemplate: true).
	TemplateBundled TemplateMode = iota
	// TemplateFormat renders with the raw sheetFormat renderer (sheetTemplate: false).
	TemplateFormat
	// TemplateFile reads a custom template from disk.
	TemplateFile
	// TemplateFunction renders through a Go function set programmatically.
	TemplateFunction
)

// TemplateSetting is the typed form of the sheetTemplate option.
type TemplateSetting struct {
	Mode TemplateMode
	Path string
	Func render.TemplateFunc
}

// ParseTemplateSetting converts a CLI string ("true", "false" or a path) into a
// TemplateSetting. An empty value selects the bundled template.
func ParseTemplateSetting(value string) TemplateSetting {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return TemplateSetting{Mode: TemplateBundled}
	}
	if b, err := strconv.ParseBool(trimmed); err == nil {
		if b {
			return TemplateSetting{Mode: TemplateBundled}
		}
		return TemplateSetting{Mode: TemplateFormat}
	}
	return TemplateSetting{Mode: TemplateFile, Path: trimmed}
}

// UnmarshalYAML accepts a boolean or a template path.
func (t *TemplateSetting) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("sheetTemplate: expected a boolean or a path (line %d)", node.Line)
	}
	if node.Tag == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		if b {
			*t = TemplateSetting{Mode: TemplateBundled}
		} else {
			*t = TemplateSetting{Mode: TemplateFormat}
		}
		return nil
	}
	*t = ParseTemplateSetting(node.Value)
	return nil
}

// MarshalYAML writes the setting back as a bool or path.
func (t TemplateSetting) MarshalYAML() (any, error) {
	switch t.Mode {
	case TemplateFormat:
		return false, nil
	case TemplateFile:
		return t.Path, nil
	default:
		return true, nil
	}
}

// IsZero lets omitempty drop the default setting.
func (t TemplateSetting) IsZero() bool {
	return t.Mode == TemplateBundled && t.Path == "" && t.Func == nil
}

// Template converts the setting into the renderer's template selector.
func (t TemplateSetting) Template() render.Template {
	switch t.Mode {
	case TemplateFormat:
		return render.Template{Kind: render.TemplateFormat}
	case TemplateFile:
		return render.Template{Kind: render.TemplateFile, Path: t.Path}
	case TemplateFunction:
		return render.Template{Kind: render.TemplateFunction, Func: t.Func}
	default:
		return render.Template{Kind: render.TemplateBundled}
	}
}
