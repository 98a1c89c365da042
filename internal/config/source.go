package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SourceShape records which form the src option was given in.
type SourceShape int

const (
	// ShapeScalar is a single pattern; Start returns a single result.
	ShapeScalar SourceShape = iota
	// ShapeList is a list of patterns; one sheet per entry, results keep input order.
	ShapeList
	// ShapeMap maps sheet names to pattern or path lists; results keep key association.
	ShapeMap
)

func (s SourceShape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeList:
		return "list"
	case ShapeMap:
		return "map"
	default:
		return fmt.Sprintf("SourceShape(%d)", int(s))
	}
}

// NamedSource is one entry of the map form.
type NamedSource struct {
	Name    string
	Entries []string
}

// Source is the decoded src option.
type Source struct {
	Shape    SourceShape
	Patterns []string
	Named    []NamedSource
}

// ScalarSource builds a single-pattern source.
func ScalarSource(pattern string) Source {
	return Source{Shape: ShapeScalar, Patterns: []string{pattern}}
}

// ListSource builds a list source.
func ListSource(patterns ...string) Source {
	return Source{Shape: ShapeList, Patterns: append([]string(nil), patterns...)}
}

// MapSource builds a map source; entries keep the order given.
func MapSource(named ...NamedSource) Source {
	return Source{Shape: ShapeMap, Named: append([]NamedSource(nil), named...)}
}

// IsZero reports whether no source was configured.
func (s Source) IsZero() bool {
	return len(s.Patterns) == 0 && len(s.Named) == 0
}

// UnmarshalYAML accepts a scalar, a sequence of scalars, or a mapping of
// sheet name to a scalar or sequence.
func (s *Source) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			*s = Source{}
			return nil
		}
		*s = ScalarSource(node.Value)
		return nil
	case yaml.SequenceNode:
		patterns, err := decodeStrings(node)
		if err != nil {
			return err
		}
		*s = ListSource(patterns...)
		return nil
	case yaml.MappingNode:
		out := Source{Shape: ShapeMap}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			var entries []string
			switch value.Kind {
			case yaml.ScalarNode:
				entries = []string{value.Value}
			case yaml.SequenceNode:
				decoded, err := decodeStrings(value)
				if err != nil {
					return err
				}
				entries = decoded
			default:
				return fmt.Errorf("src.%s: expected a pattern or list of patterns (line %d)", key.Value, value.Line)
			}
			out.Named = append(out.Named, NamedSource{Name: key.Value, Entries: entries})
		}
		*s = out
		return nil
	default:
		return fmt.Errorf("src: unsupported YAML node kind at line %d", node.Line)
	}
}

// MarshalYAML writes the source back in the shape it was read.
func (s Source) MarshalYAML() (any, error) {
	switch s.Shape {
	case ShapeScalar:
		if len(s.Patterns) == 0 {
			return nil, nil
		}
		return s.Patterns[0], nil
	case ShapeList:
		return s.Patterns, nil
	default:
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, named := range s.Named {
			value := &yaml.Node{}
			if err := value.Encode(named.Entries); err != nil {
				return nil, err
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: named.Name}, value)
		}
		return node, nil
	}
}

func decodeStrings(node *yaml.Node) ([]string, error) {
	out := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("src: expected string entries (line %d)", item.Line)
		}
		out = append(out, item.Value)
	}
	return out, nil
}
