package dsl

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// metricsPath locates the metrics mapping, whose key order is the column
// order of an aggregate projection.
var metricsPath = []string{"aggs", "metrics"}

// jsonKeyOrder returns the keys of the object at path in document order,
// or nil when path does not lead to an object.
func jsonKeyOrder(data []byte, path ...string) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	keys, err := walkJSONKeys(dec, path)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformed, err)
	}
	return keys, nil
}

// walkJSONKeys consumes exactly one value from dec.
func walkJSONKeys(dec *json.Decoder, path []string) ([]string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, nil
	}
	if delim == '[' {
		for dec.More() {
			if err := skipJSONValue(dec); err != nil {
				return nil, err
			}
		}
		_, err := dec.Token()
		return nil, err
	}

	var keys, found []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		switch {
		case len(path) == 0:
			keys = append(keys, key)
			err = skipJSONValue(dec)
		case key == path[0]:
			found, err = walkJSONKeys(dec, path[1:])
		default:
			err = skipJSONValue(dec)
		}
		if err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return keys, nil
	}
	return found, nil
}

func skipJSONValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			if d == '{' || d == '[' {
				depth++
			} else {
				depth--
			}
		}
		if depth == 0 {
			return nil
		}
	}
}

// yamlKeyOrder is jsonKeyOrder for YAML documents.
func yamlKeyOrder(data []byte, path ...string) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML: %v", ErrMalformed, err)
	}
	node := &doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		node = node.Content[0]
	}
	for _, key := range path {
		node = yamlChild(node, key)
		if node == nil {
			return nil, nil
		}
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys, nil
}

func yamlChild(node *yaml.Node, key string) *yaml.Node {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			child := node.Content[i+1]
			if child.Kind == yaml.AliasNode {
				child = child.Alias
			}
			return child
		}
	}
	return nil
}

// orderedKeys returns the keys of obj listed in order first, then any
// remaining keys sorted. Without an order every key is sorted.
func orderedKeys(obj map[string]any, order []string) []string {
	keys := make([]string, 0, len(obj))
	seen := make(map[string]bool, len(obj))
	for _, k := range order {
		if _, ok := obj[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	for _, k := range sortedKeys(obj) {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	return keys
}
