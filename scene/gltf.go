package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/oliverbestmann/bykeblend/assets"
	"github.com/oliverbestmann/bykeblend/gm"
	"github.com/qmuntal/gltf"
)

// GltfLoader loads .gltf and .glb files. The extras of scenes, nodes, meshes and
// materials are kept as JSON text in the respective extras components.
type GltfLoader struct{}

func (GltfLoader) Extensions() []string {
	return []string{".gltf", ".glb"}
}

func (GltfLoader) Load(ctx assets.LoadContext, r io.Reader) (any, error) {
	var fsys fs.FS
	if ctx.FS != nil {
		sub, err := fs.Sub(ctx.FS, path.Dir(ctx.Path))
		if err != nil {
			return nil, fmt.Errorf("gltf: open directory of %q: %w", ctx.Path, err)
		}

		fsys = sub
	}

	var doc gltf.Document
	if err := gltf.NewDecoderFS(r, fsys).Decode(&doc); err != nil {
		return nil, fmt.Errorf("gltf: decode %q: %w", ctx.Path, err)
	}

	return documentFromGltf(&doc)
}

func documentFromGltf(doc *gltf.Document) (*Document, error) {
	result := &Document{}

	if doc.Scene != nil {
		result.Default = *doc.Scene
	}

	for sceneIdx, gltfScene := range doc.Scenes {
		desc, err := describeGltfScene(doc, sceneIdx, gltfScene)
		if err != nil {
			return nil, err
		}

		result.Scenes = append(result.Scenes, Build(desc))
	}

	return result, nil
}

func describeGltfScene(doc *gltf.Document, sceneIdx int, gltfScene *gltf.Scene) (Description, error) {
	extras, err := extrasText(gltfScene.Extras)
	if err != nil {
		return Description{}, fmt.Errorf("gltf: extras of scene %d: %w", sceneIdx, err)
	}

	name := gltfScene.Name
	if name == "" {
		name = sceneLabel(sceneIdx)
	}

	desc := Description{Name: name, Extras: extras}

	// a node may only appear once within the hierarchy
	visited := map[int]bool{}

	for _, nodeIdx := range gltfScene.Nodes {
		node, err := describeGltfNode(doc, nodeIdx, visited)
		if err != nil {
			return Description{}, err
		}

		desc.Nodes = append(desc.Nodes, node)
	}

	return desc, nil
}

func describeGltfNode(doc *gltf.Document, nodeIdx int, visited map[int]bool) (Node, error) {
	if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
		return Node{}, fmt.Errorf("gltf: node index %d out of range", nodeIdx)
	}

	if visited[nodeIdx] {
		return Node{}, fmt.Errorf("gltf: node %d appears more than once in the hierarchy", nodeIdx)
	}

	visited[nodeIdx] = true

	gltfNode := doc.Nodes[nodeIdx]

	name := gltfNode.Name
	if name == "" {
		name = fmt.Sprintf("Node%d", nodeIdx)
	}

	node := Node{
		Name:        name,
		Translation: gm.Vec3Of(gltfNode.Translation),
	}

	var err error

	node.Extras, err = extrasText(gltfNode.Extras)
	if err != nil {
		return Node{}, fmt.Errorf("gltf: extras of node %q: %w", name, err)
	}

	if gltfNode.Mesh != nil {
		meshIdx := *gltfNode.Mesh
		if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
			return Node{}, fmt.Errorf("gltf: mesh index %d of node %q out of range", meshIdx, name)
		}

		mesh := doc.Meshes[meshIdx]

		node.MeshExtras, err = extrasText(mesh.Extras)
		if err != nil {
			return Node{}, fmt.Errorf("gltf: extras of mesh %q: %w", mesh.Name, err)
		}

		node.MaterialExtras, err = materialExtrasOf(doc, mesh)
		if err != nil {
			return Node{}, err
		}
	}

	for _, childIdx := range gltfNode.Children {
		child, err := describeGltfNode(doc, childIdx, visited)
		if err != nil {
			return Node{}, err
		}

		node.Children = append(node.Children, child)
	}

	return node, nil
}

// materialExtrasOf returns the extras of the first material used by the mesh.
func materialExtrasOf(doc *gltf.Document, mesh *gltf.Mesh) (string, error) {
	for _, primitive := range mesh.Primitives {
		if primitive.Material == nil {
			continue
		}

		materialIdx := *primitive.Material
		if materialIdx < 0 || materialIdx >= len(doc.Materials) {
			return "", fmt.Errorf("gltf: material index %d of mesh %q out of range", materialIdx, mesh.Name)
		}

		material := doc.Materials[materialIdx]

		text, err := extrasText(material.Extras)
		if err != nil {
			return "", fmt.Errorf("gltf: extras of material %q: %w", material.Name, err)
		}

		return text, nil
	}

	return "", nil
}

// extrasText converts decoded extras back into JSON text.
func extrasText(extras any) (string, error) {
	switch extras := extras.(type) {
	case nil:
		return "", nil

	case json.RawMessage:
		return string(extras), nil

	case map[string]any:
		if len(extras) == 0 {
			return "", nil
		}
	}

	buf, err := json.Marshal(extras)
	if err != nil {
		return "", err
	}

	return string(buf), nil
}
