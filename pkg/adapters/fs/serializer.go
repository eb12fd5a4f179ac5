package fs

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mitsuhiko/yamldb/pkg/core"
)

// YAMLSerializer implements core.Codec on top of YAML. Documents are encoded
// as a top-level mapping; field order is preserved through the round trip by
// walking yaml.Node trees instead of Go maps.
type YAMLSerializer struct{}

// NewYAMLSerializer creates a new YAML codec.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

var _ core.Codec = (*YAMLSerializer)(nil)

// Encode converts the document to a YAML byte stream.
func (s *YAMLSerializer) Encode(doc *core.Document) ([]byte, error) {
	root, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish encoding: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses YAML bytes back into an ordered document.
func (s *YAMLSerializer) Decode(data []byte) (*core.Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	if len(root.Content) == 0 {
		// Empty file decodes to an empty document.
		return core.NewDocument(), nil
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at document root, got %s", nodeKind(top))
	}
	return decodeMapping(top)
}

func encodeDocument(doc *core.Document) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range doc.Fields() {
		valueNode, err := encodeValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name},
			valueNode,
		)
	}
	return node, nil
}

func encodeValue(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(x)}, nil
	case int:
		return intNode(int64(x)), nil
	case int8:
		return intNode(int64(x)), nil
	case int16:
		return intNode(int64(x)), nil
	case int32:
		return intNode(int64(x)), nil
	case int64:
		return intNode(x), nil
	case uint:
		return uintNode(uint64(x)), nil
	case uint8:
		return uintNode(uint64(x)), nil
	case uint16:
		return uintNode(uint64(x)), nil
	case uint32:
		return uintNode(uint64(x)), nil
	case uint64:
		return uintNode(x), nil
	case float64:
		return floatNode(x), nil
	case float32:
		return floatNode(float64(x)), nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x}, nil
	case time.Time:
		return &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!timestamp",
			Value: x.UTC().Format(core.TimestampLayout),
		}, nil
	case *core.Document:
		return encodeDocument(x)
	case map[string]any:
		// Plain maps have no defined order; normalize by name.
		return encodeDocument(core.FromMap(x))
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range x {
			itemNode, err := encodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			node.Content = append(node.Content, itemNode)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func intNode(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
}

func uintNode(v uint64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(v, 10)}
}

func floatNode(v float64) *yaml.Node {
	text := strconv.FormatFloat(v, 'g', -1, 64)
	// A bare integer rendering would decode back as !!int.
	if !strings.ContainsAny(text, ".eE") && !strings.Contains(text, "Inf") && text != "NaN" {
		text += ".0"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: text}
}

func decodeMapping(n *yaml.Node) (*core.Document, error) {
	doc := core.NewDocument()
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		value, err := decodeValue(valueNode)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", keyNode.Value, err)
		}
		doc.Set(keyNode.Value, value)
	}
	return doc, nil
}

func decodeValue(n *yaml.Node) (any, error) {
	if n.Kind == yaml.AliasNode {
		return decodeValue(n.Alias)
	}

	switch n.Kind {
	case yaml.MappingNode:
		return decodeMapping(n)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, itemNode := range n.Content {
			item, err := decodeValue(itemNode)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case yaml.ScalarNode:
		return decodeScalar(n)
	default:
		return nil, fmt.Errorf("unsupported node kind %s", nodeKind(n))
	}
}

func decodeScalar(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case "!!int":
		var v int64
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case "!!timestamp":
		var v time.Time
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v.UTC(), nil
	default:
		return n.Value, nil
	}
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
