package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/oliverbestmann/bykeblend/assets"
	"github.com/oliverbestmann/bykeblend/gm"
	"gopkg.in/yaml.v3"
)

// YamlLoader loads hand written scene descriptions from .scene.yaml files.
//
// Extras can either be given as a JSON string or as a mapping from type name
// to value. Mappings keep the order in which the keys are written.
type YamlLoader struct{}

type yamlSceneSpec struct {
	Name   string         `yaml:"name"`
	Extras yaml.Node      `yaml:"extras"`
	Nodes  []yamlNodeSpec `yaml:"nodes"`
}

type yamlNodeSpec struct {
	Name           string         `yaml:"name"`
	Translation    [3]float64     `yaml:"translation"`
	Extras         yaml.Node      `yaml:"extras"`
	MeshExtras     yaml.Node      `yaml:"mesh_extras"`
	MaterialExtras yaml.Node      `yaml:"material_extras"`
	Children       []yamlNodeSpec `yaml:"children"`
}

func (YamlLoader) Extensions() []string {
	return []string{".scene.yaml", ".scene.yml"}
}

func (YamlLoader) Load(ctx assets.LoadContext, r io.Reader) (any, error) {
	var spec yamlSceneSpec

	if err := yaml.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("scene: unmarshal %s: %w", ctx.Path, err)
	}

	desc, err := describeYamlScene(spec)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", ctx.Path, err)
	}

	if desc.Name == "" {
		desc.Name = ctx.Path
	}

	return &Document{Scenes: []*Scene{Build(desc)}}, nil
}

func describeYamlScene(spec yamlSceneSpec) (Description, error) {
	extras, err := yamlExtrasText(&spec.Extras)
	if err != nil {
		return Description{}, fmt.Errorf("extras of scene: %w", err)
	}

	desc := Description{Name: spec.Name, Extras: extras}

	for _, nodeSpec := range spec.Nodes {
		node, err := describeYamlNode(nodeSpec)
		if err != nil {
			return Description{}, err
		}

		desc.Nodes = append(desc.Nodes, node)
	}

	return desc, nil
}

func describeYamlNode(spec yamlNodeSpec) (Node, error) {
	node := Node{
		Name:        spec.Name,
		Translation: gm.Vec3Of(spec.Translation),
	}

	var err error

	if node.Extras, err = yamlExtrasText(&spec.Extras); err != nil {
		return Node{}, fmt.Errorf("extras of node %q: %w", spec.Name, err)
	}

	if node.MeshExtras, err = yamlExtrasText(&spec.MeshExtras); err != nil {
		return Node{}, fmt.Errorf("mesh extras of node %q: %w", spec.Name, err)
	}

	if node.MaterialExtras, err = yamlExtrasText(&spec.MaterialExtras); err != nil {
		return Node{}, fmt.Errorf("material extras of node %q: %w", spec.Name, err)
	}

	for _, childSpec := range spec.Children {
		child, err := describeYamlNode(childSpec)
		if err != nil {
			return Node{}, err
		}

		node.Children = append(node.Children, child)
	}

	return node, nil
}

// yamlExtrasText converts the extras node into JSON text. A mapping is
// converted into a JSON object with the keys in document order.
func yamlExtrasText(node *yaml.Node) (string, error) {
	switch node.Kind {
	case 0:
		return "", nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "", nil
		}

		// the extras are already given as text
		return node.Value, nil

	case yaml.MappingNode:
		var buf bytes.Buffer
		buf.WriteByte('{')

		for idx := 0; idx+1 < len(node.Content); idx += 2 {
			var value any
			if err := node.Content[idx+1].Decode(&value); err != nil {
				return "", err
			}

			key, err := json.Marshal(node.Content[idx].Value)
			if err != nil {
				return "", err
			}

			encoded, err := json.Marshal(value)
			if err != nil {
				return "", fmt.Errorf("key %s: %w", key, err)
			}

			if idx > 0 {
				buf.WriteByte(',')
			}

			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(encoded)
		}

		buf.WriteByte('}')
		return buf.String(), nil

	default:
		return "", fmt.Errorf("expected a string or a mapping at line %d", node.Line)
	}
}
