package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// TemplateKind selects where the stylesheet template comes from.
type TemplateKind int

const (
	// TemplateBundled uses the embedded default for the build kind.
	TemplateBundled TemplateKind = iota
	// TemplateFormat uses the raw renderer registered for the sheet format.
	TemplateFormat
	// TemplateFile parses a text/template file read at render time.
	TemplateFile
	// TemplateFunction calls a Go function.
	TemplateFunction
)

// TemplateFunc renders Data directly.
type TemplateFunc func(data Data) (string, error)

// Template is a per-invocation template selection. Custom templates are never
// registered globally, so two sheets sharing a format cannot see each other's.
type Template struct {
	Kind TemplateKind
	Path string
	Func TemplateFunc
}

// Bundled names the embedded default families.
type Bundled string

const (
	BundledSprite   Bundled = "sprite"
	BundledIconFont Bundled = "iconfont"
)

// Options control a single Render call.
type Options struct {
	Format          string
	Template        Template
	Bundled         Bundled
	SpritesheetName string
}

// Renderer produces stylesheet text.
type Renderer interface {
	Render(data Data, opts Options) (string, error)
}

// TemplateRenderer is the text/template backed Renderer.
type TemplateRenderer struct{}

// New returns the default renderer.
func New() *TemplateRenderer { return &TemplateRenderer{} }

// Render executes the template selected by opts against data.
func (r *TemplateRenderer) Render(data Data, opts Options) (string, error) {
	switch opts.Template.Kind {
	case TemplateFunction:
		if opts.Template.Func == nil {
			return "", errors.NewError(errors.CategoryTemplate, "template function is nil").Build()
		}
		out, err := opts.Template.Func(data)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryTemplate, "template function failed").Build()
		}
		return out, nil
	case TemplateFile:
		body, err := os.ReadFile(opts.Template.Path)
		if err != nil {
			return "", errors.TemplateReadError("failed to read custom template").
				WithCause(err).WithContext("path", opts.Template.Path).Build()
		}
		return execute(opts.Template.Path, string(body), data, opts)
	case TemplateFormat:
		return renderFormat(data, opts)
	default:
		bundled := opts.Bundled
		if bundled == "" {
			bundled = BundledSprite
		}
		body, err := bundledTemplate(bundled, opts.Format)
		if err != nil {
			return "", err
		}
		return execute(string(bundled), body, data, opts)
	}
}

// Formats lists the raw format renderers.
func Formats() []string {
	return []string{"css", "json", "less", "scss"}
}

func renderFormat(data Data, opts Options) (string, error) {
	format := strings.ToLower(opts.Format)
	if format == "json" {
		return renderJSON(data)
	}
	body, err := embeddedTemplates.ReadFile(fmt.Sprintf("templates/format.%s.tmpl", format))
	if err != nil {
		return "", errors.NewError(errors.CategoryTemplate, "unknown sheet format").
			WithContext("format", opts.Format).Build()
	}
	return execute("format."+format, string(body), data, opts)
}

func renderJSON(data Data) (string, error) {
	out := make(map[string]Item, len(data.Items))
	for _, item := range data.Items {
		out[item.Name] = item
	}
	// encoding/json sorts map keys, so output order is stable
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "failed to encode json stylesheet").Build()
	}
	return string(b) + "\n", nil
}

func bundledTemplate(kind Bundled, format string) (string, error) {
	for _, name := range []string{
		fmt.Sprintf("templates/%s.%s.tmpl", kind, strings.ToLower(format)),
		fmt.Sprintf("templates/%s.scss.tmpl", kind),
	} {
		if b, err := embeddedTemplates.ReadFile(name); err == nil {
			return string(b), nil
		}
	}
	return "", errors.InternalError("bundled template missing").
		WithContext("kind", string(kind)).Build()
}

func execute(name, body string, data Data, opts Options) (string, error) {
	sheetName := opts.SpritesheetName
	if sheetName == "" {
		sheetName = "spritesheet"
	}
	tpl, err := template.New(name).Funcs(funcs(sheetName)).Option("missingkey=error").Parse(body)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "failed to parse template").
			WithContext("template", name).Build()
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "failed to render template").
			WithContext("template", name).Build()
	}
	return buf.String(), nil
}
