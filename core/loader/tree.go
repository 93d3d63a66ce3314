package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type nodeKind int

const (
	kindNull nodeKind = iota
	kindString
	kindScalar // numbers and booleans
	kindObject
	kindArray
)

func (k nodeKind) String() string {
	switch k {
	case kindNull:
		return "null"
	case kindString:
		return "string"
	case kindScalar:
		return "scalar"
	case kindObject:
		return "object"
	case kindArray:
		return "array"
	default:
		return "unknown"
	}
}

// node is an order-preserving document tree. Objects keep their keys in
// source order; the first value wins when a key repeats and the duplicate
// is recorded by the decoder.
type node struct {
	kind   nodeKind
	text   string
	keys   []string
	fields map[string]*node
	items  []*node
}

func (n *node) field(key string) (*node, bool) {
	if n == nil || n.kind != kindObject {
		return nil, false
	}
	v, ok := n.fields[key]
	return v, ok
}

// isText reports whether the node carries a textual value. Numbers and
// booleans count: YAML resolves unquoted ids such as 2015 to non-string scalars.
func (n *node) isText() bool {
	return n != nil && (n.kind == kindString || n.kind == kindScalar)
}

func newObject() *node {
	return &node{kind: kindObject, fields: make(map[string]*node)}
}

// duplicateKey records the first repeated object key seen while decoding.
type duplicateKey struct {
	path string
}

type jsonDecoder struct {
	dec *json.Decoder
	dup *duplicateKey
}

func decodeJSON(raw []byte) (*node, *duplicateKey, error) {
	d := &jsonDecoder{dec: json.NewDecoder(bytes.NewReader(raw))}
	d.dec.UseNumber()

	root, err := d.value(nil)
	if err != nil {
		return nil, nil, err
	}
	if _, err := d.dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("unexpected data after top-level value")
	}
	return root, d.dup, nil
}

func (d *jsonDecoder) value(path []string) (*node, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return d.object(path)
		case '[':
			return d.array(path)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return &node{kind: kindString, text: t}, nil
	case json.Number:
		return &node{kind: kindScalar, text: t.String()}, nil
	case bool:
		return &node{kind: kindScalar, text: fmt.Sprint(t)}, nil
	case nil:
		return &node{kind: kindNull}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func (d *jsonDecoder) object(path []string) (*node, error) {
	obj := newObject()
	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		child := append(path[:len(path):len(path)], key)
		v, err := d.value(child)
		if err != nil {
			return nil, err
		}
		if _, exists := obj.fields[key]; exists {
			if d.dup == nil {
				d.dup = &duplicateKey{path: joinPath(child)}
			}
			continue
		}
		obj.keys = append(obj.keys, key)
		obj.fields[key] = v
	}
	if _, err := d.dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return obj, nil
}

func (d *jsonDecoder) array(path []string) (*node, error) {
	arr := &node{kind: kindArray}
	for i := 0; d.dec.More(); i++ {
		v, err := d.value(append(path[:len(path):len(path)], fmt.Sprintf("%d", i)))
		if err != nil {
			return nil, err
		}
		arr.items = append(arr.items, v)
	}
	if _, err := d.dec.Token(); err != nil { // closing ']'
		return nil, err
	}
	return arr, nil
}

func decodeYAML(raw []byte) (*node, *duplicateKey, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}
	if doc.Kind == 0 {
		return nil, nil, fmt.Errorf("empty document")
	}
	var dup *duplicateKey
	root := fromYAML(&doc, nil, &dup)
	return root, dup, nil
}

func fromYAML(y *yaml.Node, path []string, dup **duplicateKey) *node {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return &node{kind: kindNull}
		}
		return fromYAML(y.Content[0], path, dup)
	case yaml.AliasNode:
		return fromYAML(y.Alias, path, dup)
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(y.Content); i += 2 {
			key := y.Content[i].Value
			child := append(path[:len(path):len(path)], key)
			if _, exists := obj.fields[key]; exists {
				if *dup == nil {
					*dup = &duplicateKey{path: joinPath(child)}
				}
				continue
			}
			obj.keys = append(obj.keys, key)
			obj.fields[key] = fromYAML(y.Content[i+1], child, dup)
		}
		return obj
	case yaml.SequenceNode:
		arr := &node{kind: kindArray}
		for i, item := range y.Content {
			arr.items = append(arr.items, fromYAML(item, append(path[:len(path):len(path)], fmt.Sprintf("%d", i)), dup))
		}
		return arr
	default:
		switch y.ShortTag() {
		case "!!null":
			return &node{kind: kindNull}
		case "!!str":
			return &node{kind: kindString, text: y.Value}
		default:
			// Codes such as 2015 or names such as "yes" decode as non-string
			// scalars; keep their source text so they can still be used as keys.
			return &node{kind: kindScalar, text: y.Value}
		}
	}
}

func joinPath(parts []string) string {
	return strings.Join(parts, ".")
}
