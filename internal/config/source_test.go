package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSourceUnmarshalShapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		shape    SourceShape
		patterns []string
	}{
		{name: "scalar", input: `src: "img/*.png"`, shape: ShapeScalar, patterns: []string{"img/*.png"}},
		{name: "list", input: "src:\n  - a/*.png\n  - b/*.png", shape: ShapeList, patterns: []string{"a/*.png", "b/*.png"}},
		{name: "single list", input: "src: [a/*.png]", shape: ShapeList, patterns: []string{"a/*.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var holder struct {
				Src Source `yaml:"src"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.input), &holder))
			assert.Equal(t, tt.shape, holder.Src.Shape)
			assert.Equal(t, tt.patterns, holder.Src.Patterns)
		})
	}
}

func TestSourceUnmarshalRejectsNested(t *testing.T) {
	var holder struct {
		Src Source `yaml:"src"`
	}
	err := yaml.Unmarshal([]byte("src:\n  icons:\n    nested: true\n"), &holder)
	require.Error(t, err)
}

func TestSourceRoundTripKeepsMapOrder(t *testing.T) {
	src := MapSource(
		NamedSource{Name: "zeta", Entries: []string{"z/*.png"}},
		NamedSource{Name: "alpha", Entries: []string{"a/*.png", "a/*.svg"}},
	)
	out, err := yaml.Marshal(struct {
		Src Source `yaml:"src"`
	}{Src: src})
	require.NoError(t, err)

	var back struct {
		Src Source `yaml:"src"`
	}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, src, back.Src)
}

func TestParseTemplateSetting(t *testing.T) {
	assert.Equal(t, TemplateBundled, ParseTemplateSetting("").Mode)
	assert.Equal(t, TemplateBundled, ParseTemplateSetting("true").Mode)
	assert.Equal(t, TemplateFormat, ParseTemplateSetting("false").Mode)

	custom := ParseTemplateSetting("templates/sprite.tmpl")
	assert.Equal(t, TemplateFile, custom.Mode)
	assert.Equal(t, "templates/sprite.tmpl", custom.Path)
}

func TestTemplateSettingUnmarshal(t *testing.T) {
	var holder struct {
		T TemplateSetting `yaml:"t"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("t: false"), &holder))
	assert.Equal(t, TemplateFormat, holder.T.Mode)

	require.NoError(t, yaml.Unmarshal([]byte("t: true"), &holder))
	assert.Equal(t, TemplateBundled, holder.T.Mode)

	require.NoError(t, yaml.Unmarshal([]byte(`t: "custom.tmpl"`), &holder))
	assert.Equal(t, TemplateFile, holder.T.Mode)
	assert.Equal(t, "custom.tmpl", holder.T.Path)
}
